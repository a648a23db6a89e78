package session

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/mkuznetsov/petrofleet/internal/models"
)

// DefaultTTL is the server-side session lifetime. The cookie lifetime set by
// the login handler matches it, so the server-side expiry is the single
// source of truth.
const DefaultTTL = 24 * time.Hour

// CookieName is the cookie carrying the session token.
const CookieName = "session_token"

const tokenBytes = 32 // 256 bits

// Manager owns the session lifecycle: opaque bearer tokens, fixed expiry,
// and a one-way active flag. Expired sessions are flipped inactive lazily
// on validation and retained for audit.
type Manager struct {
	DB  *gorm.DB
	TTL time.Duration
}

func NewManager(db *gorm.DB, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{DB: db, TTL: ttl}
}

func newToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// Create issues a session for userID. The caller must have authenticated
// the user already; an unknown userID is a programming error surfaced as a
// database failure, not something this layer recovers from.
func (m *Manager) Create(userID uint, userAgent, ip string) (*models.Session, error) {
	token, err := newToken()
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}

	now := time.Now()
	s := models.Session{
		Token:     token,
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(m.TTL),
		UserAgent: userAgent,
		IP:        ip,
		Active:    true,
	}
	if err := m.DB.Create(&s).Error; err != nil {
		return nil, fmt.Errorf("persist session: %w", err)
	}
	return &s, nil
}

// Validate resolves token to its session and owning user. It returns
// (nil, nil, nil) when the token is unknown, the session is inactive or
// expired, or the user is missing or deactivated. Discovering an expired
// session flips it inactive as a side effect; the guarded update makes
// concurrent flips of the same session benign.
func (m *Manager) Validate(token string) (*models.Session, *models.User, error) {
	if token == "" {
		return nil, nil, nil
	}

	var s models.Session
	if err := m.DB.Where("token = ?", token).First(&s).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("session lookup: %w", err)
	}

	if !s.Active {
		return nil, nil, nil
	}

	if !time.Now().Before(s.ExpiresAt) {
		err := m.DB.Model(&models.Session{}).
			Where("token = ? AND active = ?", token, true).
			Update("active", false).Error
		if err != nil {
			return nil, nil, fmt.Errorf("expire session: %w", err)
		}
		return nil, nil, nil
	}

	var u models.User
	err := m.DB.Preload("Role").Where("id = ?", s.UserID).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("user lookup: %w", err)
	}
	if !u.Active {
		return nil, nil, nil
	}

	return &s, &u, nil
}

// Invalidate flips the session inactive. An unknown token is a no-op:
// logout must never fail visibly.
func (m *Manager) Invalidate(token string) error {
	if token == "" {
		return nil
	}
	err := m.DB.Model(&models.Session{}).
		Where("token = ?", token).
		Update("active", false).Error
	if err != nil {
		return fmt.Errorf("invalidate session: %w", err)
	}
	return nil
}
