package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/mkuznetsov/petrofleet/internal/events"
	"github.com/mkuznetsov/petrofleet/internal/hash"
	"github.com/mkuznetsov/petrofleet/internal/models"
	"github.com/mkuznetsov/petrofleet/internal/session"
)

type AuthHandler struct {
	DB       *gorm.DB
	Sessions *session.Manager
	Producer *events.Producer
	Secure   bool
}

// dummyHash keeps the not-found path doing the same bcrypt work as the
// wrong-password path, so response timing does not reveal whether an email
// is registered.
var dummyHash, _ = hash.HashPassword("petrofleet-dummy-credential")

func CreateCookie(name, value, path string, maxAge time.Duration, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func clearCookie(name, path string, secure bool) *http.Cookie {
	c := CreateCookie(name, "", path, 0, secure)
	c.MaxAge = -1
	return c
}

func errorJSON(c echo.Context, code int, msg string) error {
	return c.JSON(code, echo.Map{"error": msg})
}

type userProfile struct {
	ID          uint     `json:"id"`
	Email       string   `json:"email"`
	Name        string   `json:"name"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
}

func publicProfile(u *models.User) userProfile {
	p := userProfile{
		ID:          u.ID,
		Email:       u.Email,
		Name:        u.Name,
		Permissions: []string{},
	}
	if u.Role != nil {
		p.Role = u.Role.Name
		p.Permissions = u.Role.PermissionList()
	}
	return p
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "email and password are required")
	}
	if req.Email == "" || req.Password == "" {
		return errorJSON(c, http.StatusBadRequest, "email and password are required")
	}

	var user models.User
	if err := h.DB.Preload("Role").Where("email = ?", req.Email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			hash.CheckPassword(dummyHash, req.Password)
			return errorJSON(c, http.StatusUnauthorized, "invalid credentials")
		}
		c.Logger().Errorf("login: user lookup: %v", err)
		return errorJSON(c, http.StatusInternalServerError, "internal error")
	}

	if !user.Active {
		return errorJSON(c, http.StatusForbidden, "account disabled")
	}

	if !hash.CheckPassword(user.PasswordHash, req.Password) {
		return errorJSON(c, http.StatusUnauthorized, "invalid credentials")
	}

	s, err := h.Sessions.Create(user.ID, c.Request().UserAgent(), c.RealIP())
	if err != nil {
		c.Logger().Errorf("login: create session: %v", err)
		return errorJSON(c, http.StatusInternalServerError, "internal error")
	}

	// cookie lifetime matches the server-side expiry, which governs
	c.SetCookie(CreateCookie(session.CookieName, s.Token, "/", h.Sessions.TTL, h.Secure))

	h.publish(c, events.TopicUserEvents, "user_logged_in", fmt.Sprint(user.ID), map[string]interface{}{
		"user_id": user.ID,
		"email":   user.Email,
	})

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"user":    publicProfile(&user),
	})
}

func (h *AuthHandler) Logout(c echo.Context) error {
	if cookie, err := c.Cookie(session.CookieName); err == nil {
		if err := h.Sessions.Invalidate(cookie.Value); err != nil {
			c.Logger().Errorf("logout: invalidate session: %v", err)
		}
	}

	c.SetCookie(clearCookie(session.CookieName, "/", h.Secure))

	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// Me returns the authenticated user's public profile. It sits behind
// RequireSession, which already resolved the session against the store.
func (h *AuthHandler) Me(c echo.Context) error {
	u, ok := c.Get("user").(*models.User)
	if !ok {
		return errorJSON(c, http.StatusUnauthorized, "authentication required")
	}
	return c.JSON(http.StatusOK, echo.Map{"user": publicProfile(u)})
}

func (h *AuthHandler) publish(c echo.Context, topic, eventType, key string, payload interface{}) {
	publishEvent(c, h.Producer, topic, eventType, key, payload)
}
