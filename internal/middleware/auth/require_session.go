package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mkuznetsov/petrofleet/internal/models"
	"github.com/mkuznetsov/petrofleet/internal/session"
)

// RequireSession is the authoritative check for protected handlers. It
// resolves the cookie through the session manager and puts the user and
// session into the echo context.
func RequireSession(m *session.Manager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cookie, err := c.Cookie(session.CookieName)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}

			s, u, err := m.Validate(cookie.Value)
			if err != nil {
				c.Logger().Errorf("session validation error: %v", err)
				return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
			}
			if s == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}

			c.Set("user", u)
			c.Set("session", s)
			return next(c)
		}
	}
}

// UserFromContext returns the user set by RequireSession, or nil.
func UserFromContext(c echo.Context) *models.User {
	if u, ok := c.Get("user").(*models.User); ok {
		return u
	}
	return nil
}
