package session

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"library-api/internal/models"
	"library-api/internal/storage"
	"library-api/internal/storage/sqlstore"
)

func newTestManager(t *testing.T, ttl time.Duration) (*Manager, *sqlstore.Store) {
	t.Helper()

	store, err := sqlstore.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "session.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return NewManager(store, ttl), store
}

func createUser(t *testing.T, store storage.UserStore, username, password string, active bool) *models.User {
	t.Helper()

	hash, err := HashPassword(password)
	require.NoError(t, err)
	user := &models.User{Username: username, PasswordHash: hash, Role: models.RoleReader, IsActive: active}
	require.NoError(t, store.CreateUser(context.Background(), user))
	return user
}

func TestLoginReturnsSameToken(t *testing.T) {
	m, store := newTestManager(t, 0)
	ctx := context.Background()
	user := createUser(t, store, "ana", "sekret123", true)

	first, err := m.Login(ctx, "ana", "sekret123")
	require.NoError(t, err)
	assert.Len(t, first.Key, 40)
	assert.Regexp(t, "^[0-9a-f]{40}$", first.Key)
	assert.Equal(t, user.ID, first.UserID)

	second, err := m.Login(ctx, " ana ", "sekret123")
	require.NoError(t, err)
	assert.Equal(t, first.Key, second.Key)

	got, err := m.Authenticate(ctx, first.Key)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	m, store := newTestManager(t, 0)
	ctx := context.Background()
	createUser(t, store, "ana", "sekret123", true)
	createUser(t, store, "luis", "sekret123", false)

	_, err := m.Login(ctx, "ana", "zle")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = m.Login(ctx, "nikt", "sekret123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = m.Login(ctx, "luis", "sekret123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthenticateRejectsUnknownToken(t *testing.T) {
	m, _ := newTestManager(t, 0)

	_, err := m.Authenticate(context.Background(), "")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = m.Authenticate(context.Background(), "0000000000000000000000000000000000000000")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestExpiredTokenIsDeletedAndReplaced(t *testing.T) {
	m, store := newTestManager(t, time.Hour)
	ctx := context.Background()
	createUser(t, store, "ana", "sekret123", true)

	now := time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	token, err := m.Login(ctx, "ana", "sekret123")
	require.NoError(t, err)

	now = now.Add(2 * time.Hour)
	_, err = m.Authenticate(ctx, token.Key)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = store.GetToken(ctx, token.Key)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	fresh, err := m.Login(ctx, "ana", "sekret123")
	require.NoError(t, err)
	assert.NotEqual(t, token.Key, fresh.Key)

	// Wygasły token przy logowaniu jest wymieniany na nowy
	now = now.Add(2 * time.Hour)
	renewed, err := m.Login(ctx, "ana", "sekret123")
	require.NoError(t, err)
	assert.NotEqual(t, fresh.Key, renewed.Key)
}

func TestLogout(t *testing.T) {
	m, store := newTestManager(t, 0)
	ctx := context.Background()
	createUser(t, store, "ana", "sekret123", true)

	token, err := m.Login(ctx, "ana", "sekret123")
	require.NoError(t, err)

	require.NoError(t, m.Logout(ctx, token.Key))
	require.NoError(t, m.Logout(ctx, token.Key))

	_, err = m.Authenticate(ctx, token.Key)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestInactiveUserTokenIsRejected(t *testing.T) {
	m, store := newTestManager(t, 0)
	ctx := context.Background()
	user := createUser(t, store, "ana", "sekret123", true)

	token, err := m.Login(ctx, "ana", "sekret123")
	require.NoError(t, err)

	user.IsActive = false
	require.NoError(t, store.UpdateUser(ctx, user))

	_, err = m.Authenticate(ctx, token.Key)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("sekret123")
	require.NoError(t, err)
	assert.NotEqual(t, "sekret123", hash)
	assert.True(t, CheckPassword(hash, "sekret123"))
	assert.False(t, CheckPassword(hash, "sekret124"))
	assert.False(t, CheckPassword("", "sekret123"))
}
