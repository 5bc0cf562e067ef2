package echoapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/shuleapp/shule/core/auth"
	"github.com/shuleapp/shule/core/session"
	"github.com/shuleapp/shule/core/user"
	metricsvc "github.com/shuleapp/shule/services/metrics"
)

const contextUserKey = "user"

// requireRole guards API routes. Every denial answers the same 401.
func requireRole(authn *auth.Authenticator, cookie session.CookieConfig, role user.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			d := authn.Authorize(ctx.Request().Context(), newCarrier(ctx, cookie), role)
			if !d.Admit {
				return errUnauthorized
			}
			ctx.Set(contextUserKey, *d.User)
			return next(ctx)
		}
	}
}

// gateDashboard guards page routes: denied visitors are redirected to the entry point they may reach.
func gateDashboard(authn *auth.Authenticator, cookie session.CookieConfig, role user.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			d := authn.Authorize(ctx.Request().Context(), newCarrier(ctx, cookie), role)
			if !d.Admit {
				return ctx.Redirect(http.StatusFound, d.Redirect)
			}
			ctx.Set(contextUserKey, *d.User)
			return next(ctx)
		}
	}
}

func getContextUser(ctx echo.Context) (user.Profile, bool) {
	usr, ok := ctx.Get(contextUserKey).(user.Profile)
	return usr, ok
}

// observeRequests records the latency of every request by route pattern.
func observeRequests(m *metricsvc.Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			start := time.Now()
			if err := next(ctx); err != nil {
				ctx.Error(err)
			}
			m.ObserveRequest(ctx.Request().Method, ctx.Path(), ctx.Response().Status, time.Since(start))
			return nil
		}
	}
}
