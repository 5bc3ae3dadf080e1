package echoapi

import (
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/academic"
	"github.com/trezcool/shule/core/principal"
)

// periodCookieName caches the client's last resolved academic period so a
// period is available even when the profile pair and the institutional
// default are both missing.
const (
	periodCookieName   = "shule_period"
	periodCookieMaxAge = 365 * 24 * time.Hour
)

type portalApi struct {
	conf         *core.Config
	principalSvc principal.ServiceInterface
	academicSvc  academic.ServiceInterface
}

func registerPortalAPI(g *echo.Group, conf *core.Config, principalSvc principal.ServiceInterface, academicSvc academic.ServiceInterface) {
	api := portalApi{conf: conf, principalSvc: principalSvc, academicSvc: academicSvc}

	pg := g.Group("/portal")
	pg.GET("/session", api.session)
	pg.GET("/profile", api.profile)
	pg.PUT("/onboarding", api.completeOnboarding)
	pg.GET("/periods", api.listPeriods)
	pg.PUT("/period", api.savePeriod)

	dg := g.Group("/dashboard")
	dg.GET("/student", api.studentDashboard)
	dg.GET("/faculty", api.facultyDashboard)
}

type SessionResponse struct {
	Principal principal.Principal `json:"principal"`
	Period    academic.Period     `json:"period"`
}

// session returns the signed-in principal together with their resolved
// academic period, refreshing the period cookie along the way.
func (api *portalApi) session(ctx echo.Context) error {
	prin, err := getContextPrincipal(ctx, api.principalSvc)
	if err != nil {
		return errors.Wrap(err, "getting context principal")
	}

	period := api.academicSvc.Current(ctx.Request().Context(), prin, readPeriodCookie(ctx))
	writePeriodCookie(ctx, period)

	return ctx.JSON(http.StatusOK, SessionResponse{Principal: prin, Period: period})
}

func (api *portalApi) profile(ctx echo.Context) error {
	prin, err := getContextPrincipal(ctx, api.principalSvc)
	if err != nil {
		return errors.Wrap(err, "getting context principal")
	}
	return ctx.JSON(http.StatusOK, prin)
}

func (api *portalApi) completeOnboarding(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var data principal.Onboarding
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Onboarding")
	}
	if err = core.Validate.Struct(data); err != nil {
		return err
	}

	prin, err := api.principalSvc.CompleteOnboarding(ctx.Request().Context(), claims.Subject, data)
	if err != nil {
		return errors.Wrap(err, "completing onboarding")
	}
	ctx.Set(contextPrincipalKey, prin)
	return ctx.JSON(http.StatusOK, prin)
}

func (api *portalApi) listPeriods(ctx echo.Context) error {
	periods, err := api.academicSvc.DistinctPeriods(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing enrollment periods")
	}
	return ctx.JSON(http.StatusOK, periods)
}

// savePeriod records the principal's period selection. The cookie is set
// right away; the profile write happens in the background so a slow or
// failing store never blocks the switch.
func (api *portalApi) savePeriod(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var period academic.Period
	if err = ctx.Bind(&period); err != nil {
		return errors.Wrap(err, "binding to Period")
	}
	if err = period.Validate(); err != nil {
		return err
	}

	writePeriodCookie(ctx, period)
	api.academicSvc.SavePeriodAsync(claims.Subject, period)

	return ctx.JSON(http.StatusOK, period)
}

type DashboardResponse struct {
	Role   string          `json:"role"`
	Period academic.Period `json:"period"`
}

func (api *portalApi) studentDashboard(ctx echo.Context) error {
	return api.dashboard(ctx, principal.RoleStudent)
}

func (api *portalApi) facultyDashboard(ctx echo.Context) error {
	return api.dashboard(ctx, principal.RoleFaculty)
}

func (api *portalApi) dashboard(ctx echo.Context, role string) error {
	prin, err := getContextPrincipal(ctx, api.principalSvc)
	if err != nil {
		return errors.Wrap(err, "getting context principal")
	}
	period := api.academicSvc.Current(ctx.Request().Context(), prin, readPeriodCookie(ctx))
	return ctx.JSON(http.StatusOK, DashboardResponse{Role: role, Period: period})
}

// readPeriodCookie returns the cached period, or a zero Period when the
// cookie is missing or unreadable.
func readPeriodCookie(ctx echo.Context) academic.Period {
	cookie, err := ctx.Cookie(periodCookieName)
	if err != nil {
		return academic.Period{}
	}
	raw, err := url.QueryUnescape(cookie.Value)
	if err != nil {
		return academic.Period{}
	}
	var period academic.Period
	if err = json.Unmarshal([]byte(raw), &period); err != nil {
		return academic.Period{}
	}
	return period
}

func writePeriodCookie(ctx echo.Context, period academic.Period) {
	raw, err := json.Marshal(period)
	if err != nil {
		return
	}
	ctx.SetCookie(&http.Cookie{
		Name:     periodCookieName,
		Value:    url.QueryEscape(string(raw)),
		Path:     "/",
		Expires:  time.Now().Add(periodCookieMaxAge),
		SameSite: http.SameSiteLaxMode,
	})
}
