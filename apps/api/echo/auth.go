package echoapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/principal"
)

const (
	contextClaimsKey    = "principalClaims"
	contextPrincipalKey = "principal"

	// authCookieName carries the JWT for browser page requests;
	// API clients use the Authorization header instead.
	authCookieName = "shule_token"
)

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	OrigIssuedAt int64  `json:"oriat,omitempty"`
	Email        string `json:"email,omitempty"`
	Role         string `json:"role,omitempty"`
}

func GetPrincipalClaims(conf *core.Config, prin principal.Principal, origIat ...int64) *Claims {
	now := time.Now()
	nownix := now.Unix()

	var oriat int64
	if len(origIat) > 0 {
		oriat = origIat[0]
	} else {
		oriat = nownix
	}

	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    conf.AppName,
			Subject:   prin.ID,
			Audience:  "Portal",
			ExpiresAt: now.Add(conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  nownix,
		},
		OrigIssuedAt: oriat,
		Email:        prin.Email,
		Role:         prin.Profile.Role(),
	}
}

// GenerateToken generates a signed JWT token string representing the principal Claims.
func GenerateToken(conf *core.Config, claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	ss, err := token.SignedString([]byte(conf.SecretKey))
	if err != nil {
		return "", errors.New("signing token")
	}
	return ss, nil
}

// parseToken validates a signed token string and returns its Claims.
func parseToken(conf *core.Config, ss string) (*Claims, error) {
	claims := new(Claims)
	token, err := jwt.ParseWithClaims(ss, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method %q", t.Header["alg"])
		}
		return []byte(conf.SecretKey), nil
	})
	if err != nil || !token.Valid {
		return nil, errUnauthorized
	}
	return claims, nil
}

// requestToken extracts the raw token string from the Authorization header
// or, failing that, from the auth cookie. It returns "" when none is present.
func requestToken(ctx echo.Context) string {
	if auth := ctx.Request().Header.Get(echo.HeaderAuthorization); auth != "" {
		if strings.HasPrefix(auth, "Bearer ") {
			return strings.TrimPrefix(auth, "Bearer ")
		}
		return ""
	}
	if cookie, err := ctx.Cookie(authCookieName); err == nil {
		return cookie.Value
	}
	return ""
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if claims, ok := ctx.Get(contextClaimsKey).(*Claims); ok {
		return *claims, nil
	}
	return Claims{}, errUnauthorized
}

func getContextPrincipal(ctx echo.Context, svc principal.ServiceInterface, clms ...Claims) (principal.Principal, error) {
	if prin, ok := ctx.Get(contextPrincipalKey).(principal.Principal); ok {
		return prin, nil
	}

	var claims Claims
	var err error
	if len(clms) > 0 {
		claims = clms[0]
	} else {
		claims, err = getContextClaims(ctx)
		if err != nil {
			return principal.Principal{}, errors.Wrap(err, "getting context claims")
		}
	}

	prin, err := svc.GetByID(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return principal.Principal{}, errors.Wrap(err, "finding principal by ID")
	}
	ctx.Set(contextPrincipalKey, prin)
	return prin, nil
}

type authApi struct {
	conf *core.Config
	svc  principal.ServiceInterface
}

func registerAuthAPI(g *echo.Group, conf *core.Config, svc principal.ServiceInterface) {
	api := authApi{conf: conf, svc: svc}

	ag := g.Group("/auth")
	ag.POST("/login", api.login)
	ag.POST("/token-refresh", api.refreshToken)
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type TokenResponse struct {
	Token string `json:"token"`
}

func (api *authApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	data.Email = core.CleanString(data.Email, true /* lower */)
	if err := core.Validate.Struct(data); err != nil {
		return err
	}

	claims, err := api.authenticate(ctx, data.Email, data.Password)
	if err != nil {
		return err
	}
	token, err := GenerateToken(api.conf, claims)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	setAuthCookie(ctx, token, time.Unix(claims.ExpiresAt, 0))
	return ctx.JSON(http.StatusOK, TokenResponse{Token: token})
}

func (api *authApi) authenticate(ctx echo.Context, email, pwd string) (*Claims, error) {
	reqCtx := ctx.Request().Context()

	prin, err := api.svc.GetByEmail(reqCtx, email)
	if err != nil {
		if err == principal.ErrNotFound {
			return nil, errAuthenticationFailed
		}
		return nil, errors.Wrap(err, "finding principal by email")
	}
	if err = prin.CheckPassword(pwd); err != nil {
		return nil, errAuthenticationFailed
	}
	if prin.IsActive != nil && !*prin.IsActive {
		return nil, errAccountDeactivated
	}
	prin, err = api.svc.SetLastLogin(reqCtx, prin)
	if err != nil {
		return nil, errors.Wrap(err, "setting lastLogin")
	}
	return GetPrincipalClaims(api.conf, prin), nil
}

func (api *authApi) refreshToken(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	prin, err := getContextPrincipal(ctx, api.svc, claims)
	if err != nil {
		return errors.Wrap(err, "getting context principal")
	}

	// check if principal is still active
	if prin.IsActive != nil && !*prin.IsActive {
		return errAccountDeactivated
	}

	// check if refresh has not expired
	expTime := time.Unix(claims.OrigIssuedAt, 0).Add(api.conf.Server.JWTRefreshExpirationDelta)
	if time.Now().After(expTime) {
		return errRefreshExpired
	}

	newClaims := GetPrincipalClaims(api.conf, prin, claims.OrigIssuedAt)
	token, err := GenerateToken(api.conf, newClaims)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	setAuthCookie(ctx, token, time.Unix(newClaims.ExpiresAt, 0))
	return ctx.JSON(http.StatusOK, TokenResponse{Token: token})
}

func setAuthCookie(ctx echo.Context, token string, expires time.Time) {
	ctx.SetCookie(&http.Cookie{
		Name:     authCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
