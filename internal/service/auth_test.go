package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forkful/backend/internal/models"
)

const testSecret = "test-secret-for-auth-tests"

func newTestAuthService(t *testing.T, limiter LoginLimiter) *AuthService {
	t.Helper()
	return NewAuthService(testDB(t), nil, limiter, testSecret, time.Hour, testLogger())
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newTestAuthService(t, nil)
	ctx := context.Background()

	user, token, err := svc.Register(ctx, "Alice", "alice@example.com", "password123")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.NotEmpty(t, token)
	assert.Equal(t, "Alice", user.Name)

	gotUser, profile, loginToken, err := svc.Login(ctx, "alice@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, user.ID, gotUser.ID)
	assert.NotEmpty(t, loginToken)
	require.NotNil(t, profile)
	assert.Equal(t, user.ID, profile.UserID)
	assert.False(t, profile.IsPremium)
}

func TestRegisterWeakPassword(t *testing.T) {
	svc := newTestAuthService(t, nil)

	_, _, err := svc.Register(context.Background(), "Bob", "bob@example.com", "short")
	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, AuthReasonWeakPassword, authErr.Reason)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := newTestAuthService(t, nil)
	ctx := context.Background()

	_, _, err := svc.Register(ctx, "Alice", "alice@example.com", "password123")
	require.NoError(t, err)

	_, _, err = svc.Register(ctx, "Imposter", "alice@example.com", "password456")
	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, AuthReasonEmailInUse, authErr.Reason)

	// The original account still works.
	_, _, _, err = svc.Login(ctx, "alice@example.com", "password123")
	require.NoError(t, err)
}

func TestLoginWrongThenRightPassword(t *testing.T) {
	svc := newTestAuthService(t, nil)
	ctx := context.Background()

	_, _, err := svc.Register(ctx, "Alice", "alice@example.com", "password123")
	require.NoError(t, err)

	_, _, _, err = svc.Login(ctx, "alice@example.com", "wrongpassword")
	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, AuthReasonInvalidCredentials, authErr.Reason)

	// A failed attempt must not lock the account.
	_, _, _, err = svc.Login(ctx, "alice@example.com", "password123")
	require.NoError(t, err)
}

func TestLoginUnknownEmail(t *testing.T) {
	svc := newTestAuthService(t, nil)

	_, _, _, err := svc.Login(context.Background(), "nobody@example.com", "password123")
	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, AuthReasonUserNotFound, authErr.Reason)
}

type blockingLimiter struct{ allowed bool }

func (l *blockingLimiter) Allow(ctx context.Context, key string) (bool, error) {
	return l.allowed, nil
}

func TestLoginRateLimited(t *testing.T) {
	svc := newTestAuthService(t, &blockingLimiter{allowed: false})
	ctx := context.Background()

	_, _, err := svc.Register(ctx, "Alice", "alice@example.com", "password123")
	require.NoError(t, err)

	_, _, _, err = svc.Login(ctx, "alice@example.com", "password123")
	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, AuthReasonRateLimited, authErr.Reason)
}

func TestValidateToken(t *testing.T) {
	svc := newTestAuthService(t, nil)
	ctx := context.Background()

	user, token, err := svc.Register(ctx, "Alice", "alice@example.com", "password123")
	require.NoError(t, err)

	claims, err := svc.ValidateToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, "alice@example.com", claims.Email)

	_, err = svc.ValidateToken(ctx, token+"tampered")
	assert.Error(t, err)

	_, err = svc.ValidateToken(ctx, "not-a-token")
	assert.Error(t, err)
}

func TestEnsureProfileRecreatesLostRecord(t *testing.T) {
	db := testDB(t)
	svc := NewAuthService(db, nil, nil, testSecret, time.Hour, testLogger())
	ctx := context.Background()

	user, _, err := svc.Register(ctx, "Alice", "alice@example.com", "password123")
	require.NoError(t, err)

	require.NoError(t, db.Unscoped().Where("user_id = ?", user.ID).Delete(&models.UserProfile{}).Error)

	// The repair must not wait for a login.
	profile, err := svc.EnsureProfile(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, profile.UserID)
	assert.Equal(t, "Alice", profile.Name)

	_, err = svc.EnsureProfile(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLoginRepairsMissingProfile(t *testing.T) {
	db := testDB(t)
	svc := NewAuthService(db, nil, nil, testSecret, time.Hour, testLogger())
	ctx := context.Background()

	user, _, err := svc.Register(ctx, "Alice", "alice@example.com", "password123")
	require.NoError(t, err)

	// Simulate a lost registration-time profile write.
	require.NoError(t, db.Unscoped().Where("user_id = ?", user.ID).Delete(&models.UserProfile{}).Error)

	_, profile, _, err := svc.Login(ctx, "alice@example.com", "password123")
	require.NoError(t, err)
	require.NotNil(t, profile)
	assert.Equal(t, user.ID, profile.UserID)
	assert.Equal(t, "alice@example.com", profile.Email)
}
