package auth

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/mkuznetsov/petrofleet/internal/session"
)

const (
	PublicRoot    = "/"
	DashboardRoot = "/dashboard"
)

var publicPaths = map[string]struct{}{
	"/":      {},
	"/login": {},
}

// CookieGate is the perimeter filter: a cheap redirect decision made purely
// from cookie presence. It never reads the session store — a stale cookie
// passes here and is rejected by RequireSession at the point of use.
func CookieGate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		path := c.Request().URL.Path
		_, err := c.Cookie(session.CookieName)
		hasCookie := err == nil

		if _, public := publicPaths[path]; public && hasCookie {
			return c.Redirect(http.StatusFound, DashboardRoot)
		}

		if strings.HasPrefix(path, DashboardRoot) && !hasCookie {
			return c.Redirect(http.StatusFound, PublicRoot)
		}

		return next(c)
	}
}
