package session

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mkuznetsov/petrofleet/internal/models"
)

func initTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect to in-memory db: %v", err)
	}

	if err := db.AutoMigrate(&models.Role{}, &models.User{}, &models.Session{}); err != nil {
		t.Fatalf("failed to migrate tables: %v", err)
	}

	return db
}

func createUser(t *testing.T, db *gorm.DB) *models.User {
	u := models.User{
		Email:        "dispatcher@petrofleet.example",
		Name:         "Dispatcher",
		PasswordHash: "irrelevant",
		Active:       true,
	}
	require.NoError(t, db.Create(&u).Error)
	return &u
}

func TestCreateSession(t *testing.T) {
	db := initTestDB(t)
	u := createUser(t, db)
	m := NewManager(db, 0)

	s, err := m.Create(u.ID, "test-agent", "10.0.0.1")
	require.NoError(t, err)
	require.NotEmpty(t, s.Token)
	require.True(t, s.Active)
	require.Equal(t, u.ID, s.UserID)
	require.Equal(t, "test-agent", s.UserAgent)
	require.Equal(t, "10.0.0.1", s.IP)
	require.True(t, s.ExpiresAt.After(s.CreatedAt))
}

func TestCreateSessionUnknownUser(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file::memory:?_pragma=foreign_keys(1)"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Role{}, &models.User{}, &models.Session{}))

	m := NewManager(db, time.Hour)

	// no such user row; the sessions.user_id foreign key rejects the insert
	s, err := m.Create(42, "", "")
	require.Error(t, err)
	require.Contains(t, err.Error(), "persist session")
	require.Nil(t, s)
}

func TestTokenUniqueness(t *testing.T) {
	seen := make(map[string]struct{}, 10000)
	for i := 0; i < 10000; i++ {
		tok, err := newToken()
		require.NoError(t, err)
		if _, dup := seen[tok]; dup {
			t.Fatalf("duplicate token generated: %s", tok)
		}
		seen[tok] = struct{}{}
	}
}

func TestValidateUnknownToken(t *testing.T) {
	db := initTestDB(t)
	m := NewManager(db, 0)

	s, u, err := m.Validate("never-issued")
	require.NoError(t, err)
	require.Nil(t, s)
	require.Nil(t, u)

	s, u, err = m.Validate("")
	require.NoError(t, err)
	require.Nil(t, s)
	require.Nil(t, u)
}

func TestValidateHappyPath(t *testing.T) {
	db := initTestDB(t)
	u := createUser(t, db)
	m := NewManager(db, 0)

	created, err := m.Create(u.ID, "", "")
	require.NoError(t, err)

	s, got, err := m.Validate(created.Token)
	require.NoError(t, err)
	require.NotNil(t, s)
	require.NotNil(t, got)
	require.Equal(t, u.ID, got.ID)
	require.Equal(t, created.Token, s.Token)
}

func TestValidateExpiredFlipsInactive(t *testing.T) {
	db := initTestDB(t)
	u := createUser(t, db)
	m := NewManager(db, 0)

	created, err := m.Create(u.ID, "", "")
	require.NoError(t, err)

	expiry := time.Now().Add(-time.Minute)
	require.NoError(t, db.Model(&models.Session{}).
		Where("token = ?", created.Token).
		Update("expires_at", expiry).Error)

	s, got, err := m.Validate(created.Token)
	require.NoError(t, err)
	require.Nil(t, s)
	require.Nil(t, got)

	var stored models.Session
	require.NoError(t, db.Where("token = ?", created.Token).First(&stored).Error)
	require.False(t, stored.Active)

	// idempotent on the second pass
	s, got, err = m.Validate(created.Token)
	require.NoError(t, err)
	require.Nil(t, s)
	require.Nil(t, got)
}

func TestInvalidateThenValidate(t *testing.T) {
	db := initTestDB(t)
	u := createUser(t, db)
	m := NewManager(db, 0)

	created, err := m.Create(u.ID, "", "")
	require.NoError(t, err)

	require.NoError(t, m.Invalidate(created.Token))

	s, got, err := m.Validate(created.Token)
	require.NoError(t, err)
	require.Nil(t, s)
	require.Nil(t, got)
}

func TestInvalidateUnknownTokenIsNoop(t *testing.T) {
	db := initTestDB(t)
	m := NewManager(db, 0)

	require.NoError(t, m.Invalidate("never-issued"))
	require.NoError(t, m.Invalidate(""))
}

func TestValidateDeactivatedUser(t *testing.T) {
	db := initTestDB(t)
	u := createUser(t, db)
	m := NewManager(db, 0)

	created, err := m.Create(u.ID, "", "")
	require.NoError(t, err)

	require.NoError(t, db.Model(&models.User{}).
		Where("id = ?", u.ID).
		Update("active", false).Error)

	s, got, err := m.Validate(created.Token)
	require.NoError(t, err)
	require.Nil(t, s)
	require.Nil(t, got)

	// session itself stays active and unexpired; the user flag alone vetoes
	var stored models.Session
	require.NoError(t, db.Where("token = ?", created.Token).First(&stored).Error)
	require.True(t, stored.Active)
}
