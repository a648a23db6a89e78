package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/mkuznetsov/petrofleet/internal/session"
)

func runGate(t *testing.T, path string, withCookie bool) (*httptest.ResponseRecorder, bool) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if withCookie {
		req.AddCookie(&http.Cookie{Name: session.CookieName, Value: "opaque"})
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	passed := false
	h := CookieGate(func(c echo.Context) error {
		passed = true
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, h(c))
	return rec, passed
}

func TestGatePassesPublicWithoutCookie(t *testing.T) {
	rec, passed := runGate(t, "/", false)
	require.True(t, passed)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestGateRedirectsPublicWithCookie(t *testing.T) {
	rec, passed := runGate(t, "/", true)
	require.False(t, passed)
	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, DashboardRoot, rec.Header().Get(echo.HeaderLocation))
}

func TestGateRedirectsDashboardWithoutCookie(t *testing.T) {
	rec, passed := runGate(t, "/dashboard/vehicles", false)
	require.False(t, passed)
	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, PublicRoot, rec.Header().Get(echo.HeaderLocation))
}

func TestGatePassesDashboardWithCookie(t *testing.T) {
	// presence only: the cookie value is never validated here
	rec, passed := runGate(t, "/dashboard", true)
	require.True(t, passed)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestGateIgnoresOtherPaths(t *testing.T) {
	rec, passed := runGate(t, "/healthz", true)
	require.True(t, passed)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, passed = runGate(t, "/healthz", false)
	require.True(t, passed)
	require.Equal(t, http.StatusOK, rec.Code)
}
