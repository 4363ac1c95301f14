package authn_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/coreidentity/authcore/pkg/authn"
	"github.com/coreidentity/authcore/pkg/query"
	"github.com/coreidentity/authcore/pkg/security"
)

func newLoginTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&query.User{}))
	return db
}

func TestLoginHandler_RejectsWrongPassword(t *testing.T) {
	db := newLoginTestDB(t)
	hash, err := security.HashPassword("correct-horse-battery-staple")
	require.NoError(t, err)
	require.NoError(t, db.Create(&query.User{ID: "user-1", InstanceID: "instance-1", Username: "alice", State: "ACTIVE", PasswordHash: hash}).Error)

	h := authn.NewLoginHandler(db, []byte("test-signing-key-at-least-32-bytes!"), "session", noopTestLogger{})

	form := url.Values{"instance_id": {"instance-1"}, "username": {"alice"}, "password": {"wrong"}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, rec.Body.String(), "error")
}

func TestLoginHandler_AcceptsCorrectPasswordAndSetsSession(t *testing.T) {
	db := newLoginTestDB(t)
	hash, err := security.HashPassword("correct-horse-battery-staple")
	require.NoError(t, err)
	require.NoError(t, db.Create(&query.User{ID: "user-1", InstanceID: "instance-1", Username: "alice", State: "ACTIVE", PasswordHash: hash}).Error)

	h := authn.NewLoginHandler(db, []byte("test-signing-key-at-least-32-bytes!"), "session", noopTestLogger{})

	form := url.Values{"instance_id": {"instance-1"}, "username": {"alice"}, "password": {"correct-horse-battery-staple"}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, rec.Header().Get("Set-Cookie"))
}

func TestLoginHandler_RejectsLockedAccount(t *testing.T) {
	db := newLoginTestDB(t)
	hash, err := security.HashPassword("correct-horse-battery-staple")
	require.NoError(t, err)
	require.NoError(t, db.Create(&query.User{ID: "user-1", InstanceID: "instance-1", Username: "alice", State: "LOCKED", PasswordHash: hash}).Error)

	h := authn.NewLoginHandler(db, []byte("test-signing-key-at-least-32-bytes!"), "session", noopTestLogger{})

	form := url.Values{"instance_id": {"instance-1"}, "username": {"alice"}, "password": {"correct-horse-battery-staple"}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)
	require.Contains(t, rec.Body.String(), "error")
}

type noopTestLogger struct{}

func (noopTestLogger) Debug(string, ...interface{})  {}
func (noopTestLogger) Info(string, ...interface{})   {}
func (noopTestLogger) Warn(string, ...interface{})   {}
func (noopTestLogger) Error(string, ...interface{})  {}
func (noopTestLogger) Fatal(string, ...interface{})  {}
func (noopTestLogger) Debugf(string, ...interface{}) {}
func (noopTestLogger) Infof(string, ...interface{})  {}
func (noopTestLogger) Warnf(string, ...interface{})  {}
func (noopTestLogger) Errorf(string, ...interface{}) {}
func (noopTestLogger) Fatalf(string, ...interface{}) {}
