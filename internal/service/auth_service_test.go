package service

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-dataset-registry/internal/model"
)

func newTestAuthService(t *testing.T) *AuthService {
	t.Helper()

	svc, err := NewAuthService(
		filepath.Join(t.TempDir(), "users.json"),
		"test-secret",
		time.Minute,
		time.Hour,
	)
	require.NoError(t, err)
	return svc
}

func TestAuthServiceSeedsDefaultAdmin(t *testing.T) {
	t.Parallel()

	svc := newTestAuthService(t)

	pair, err := svc.Login("admin", "admin123")
	require.NoError(t, err)
	assert.Equal(t, "admin", pair.User.Username)
	assert.Equal(t, model.RoleAdmin, pair.User.Role)
	assert.Equal(t, "Bearer", pair.TokenType)
	assert.Equal(t, int64(60), pair.ExpiresIn)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
}

func TestAuthServiceLoginRejectsBadCredentials(t *testing.T) {
	t.Parallel()

	svc := newTestAuthService(t)

	_, err := svc.Login("admin", "wrong")
	require.ErrorIs(t, err, model.ErrInvalidCredentials)

	_, err = svc.Login("ghost", "admin123")
	require.ErrorIs(t, err, model.ErrInvalidCredentials)
}

func TestAuthServiceRegister(t *testing.T) {
	t.Parallel()

	svc := newTestAuthService(t)

	t.Run("defaults to viewer and allows login", func(t *testing.T) {
		user, err := svc.Register("jane", "passw0rd", "")
		require.NoError(t, err)
		assert.Equal(t, model.RoleViewer, user.Role)
		assert.NotEmpty(t, user.ID)

		pair, err := svc.Login("Jane", "passw0rd")
		require.NoError(t, err)
		assert.Equal(t, "jane", pair.User.Username)
	})

	t.Run("duplicate username conflicts", func(t *testing.T) {
		_, err := svc.Register("jane", "other", model.RoleEditor)
		require.ErrorIs(t, err, model.ErrUserAlreadyExists)
	})

	t.Run("invalid role refused", func(t *testing.T) {
		_, err := svc.Register("sam", "passw0rd", "owner")
		require.ErrorIs(t, err, model.ErrInvalidInput)
	})

	t.Run("blank credentials refused", func(t *testing.T) {
		_, err := svc.Register("  ", "passw0rd", "")
		require.ErrorIs(t, err, model.ErrInvalidInput)
	})
}

func TestAuthServicePersistsUsersAcrossRestart(t *testing.T) {
	t.Parallel()

	usersFile := filepath.Join(t.TempDir(), "users.json")

	first, err := NewAuthService(usersFile, "test-secret", time.Minute, time.Hour)
	require.NoError(t, err)
	_, err = first.Register("jane", "passw0rd", model.RoleEditor)
	require.NoError(t, err)

	second, err := NewAuthService(usersFile, "test-secret", time.Minute, time.Hour)
	require.NoError(t, err)

	pair, err := second.Login("jane", "passw0rd")
	require.NoError(t, err)
	assert.Equal(t, model.RoleEditor, pair.User.Role)
}

func TestAuthServiceRefreshRotation(t *testing.T) {
	t.Parallel()

	svc := newTestAuthService(t)

	pair, err := svc.Login("admin", "admin123")
	require.NoError(t, err)

	rotated, err := svc.Refresh(pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, pair.RefreshToken, rotated.RefreshToken)

	// The consumed token cannot be replayed.
	_, err = svc.Refresh(pair.RefreshToken)
	require.ErrorIs(t, err, model.ErrTokenNotFound)

	// The rotated one still works.
	_, err = svc.Refresh(rotated.RefreshToken)
	require.NoError(t, err)
}

func TestAuthServiceRefreshRejectsAccessToken(t *testing.T) {
	t.Parallel()

	svc := newTestAuthService(t)

	pair, err := svc.Login("admin", "admin123")
	require.NoError(t, err)

	_, err = svc.Refresh(pair.AccessToken)
	require.ErrorIs(t, err, model.ErrUnauthorized)
}

func TestAuthServiceLogoutRevokesRefresh(t *testing.T) {
	t.Parallel()

	svc := newTestAuthService(t)

	pair, err := svc.Login("admin", "admin123")
	require.NoError(t, err)

	svc.Logout(pair.RefreshToken)

	_, err = svc.Refresh(pair.RefreshToken)
	require.ErrorIs(t, err, model.ErrTokenNotFound)
}

func TestAuthServiceValidateToken(t *testing.T) {
	t.Parallel()

	svc := newTestAuthService(t)

	pair, err := svc.Login("admin", "admin123")
	require.NoError(t, err)

	t.Run("access token carries identity", func(t *testing.T) {
		claims, err := svc.ValidateToken(pair.AccessToken, "access")
		require.NoError(t, err)
		assert.Equal(t, "admin", claims.Username)
		assert.Equal(t, model.RoleAdmin, claims.Role)
		assert.Equal(t, "access", claims.Type)
		assert.NotEmpty(t, claims.UserID)
		assert.NotEmpty(t, claims.TokenID)
	})

	t.Run("type mismatch refused", func(t *testing.T) {
		_, err := svc.ValidateToken(pair.RefreshToken, "access")
		require.ErrorIs(t, err, model.ErrUnauthorized)
	})

	t.Run("garbage refused", func(t *testing.T) {
		_, err := svc.ValidateToken("not.a.token", "access")
		require.ErrorIs(t, err, model.ErrUnauthorized)
	})

	t.Run("foreign signature refused", func(t *testing.T) {
		other, err := NewAuthService(
			filepath.Join(t.TempDir(), "users.json"), "other-secret", time.Minute, time.Hour)
		require.NoError(t, err)

		_, err = other.ValidateToken(pair.AccessToken, "access")
		require.ErrorIs(t, err, model.ErrUnauthorized)
	})
}

func TestAuthServiceGetUserByID(t *testing.T) {
	t.Parallel()

	svc := newTestAuthService(t)

	registered, err := svc.Register("jane", "passw0rd", model.RoleEditor)
	require.NoError(t, err)

	user, err := svc.GetUserByID(registered.ID)
	require.NoError(t, err)
	assert.Equal(t, "jane", user.Username)

	_, err = svc.GetUserByID("missing")
	require.ErrorIs(t, err, model.ErrUserNotFound)
}
