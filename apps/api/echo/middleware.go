package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/gate"
)

// gateMiddleware evaluates every request against the access gate before it
// reaches its handler. Valid claims are attached to the context so handlers
// and the error handler can identify the principal.
//
// api controls how non-Allow decisions are rendered: API clients get JSON
// they can act on, page requests get plain HTTP redirects.
func gateMiddleware(conf *core.Config, g *gate.Gate, api bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			req := gate.Request{Path: ctx.Request().URL.Path}

			if ss := requestToken(ctx); ss != "" {
				if claims, err := parseToken(conf, ss); err == nil {
					ctx.Set(contextClaimsKey, claims)
					req.Authenticated = true
					req.PrincipalID = claims.Subject
					req.Email = claims.Email
				}
			}

			decision := g.Evaluate(ctx.Request().Context(), req)
			switch decision.Action {
			case gate.Allow:
				return next(ctx)
			case gate.Redirect:
				if api {
					return ctx.JSON(http.StatusForbidden, echo.Map{
						"redirect": decision.Target,
						"reason":   decision.Reason.String(),
					})
				}
				return ctx.Redirect(http.StatusFound, decision.Target)
			default: // gate.Reject
				if api {
					return errUnauthorized
				}
				return ctx.Redirect(http.StatusFound, decision.Target)
			}
		}
	}
}
