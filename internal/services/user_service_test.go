package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-next-task/backend/internal/apperror"
	"go-next-task/backend/internal/models"
)

func TestRegisterUser(t *testing.T) {
	svc := newTestServices(t)
	ctx := context.Background()

	user := registerUser(t, svc, "alice")
	assert.NotEmpty(t, user.ID)
	assert.Empty(t, user.PasswordHash)
	assert.False(t, user.IsGuest)

	_, err := svc.Users.RegisterUser(ctx, map[string]any{
		"username": "alice2",
		"email":    "alice@example.com",
		"password": "password123",
	})
	assert.ErrorIs(t, err, apperror.ErrConflict)

	_, err = svc.Users.RegisterUser(ctx, map[string]any{"username": "al", "email": "bad", "password": "short"})
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestAuthenticateUser(t *testing.T) {
	svc := newTestServices(t)
	ctx := context.Background()
	registerUser(t, svc, "alice")

	user, err := svc.Users.AuthenticateUser(ctx, models.UserLoginRequest{Email: "alice@example.com", Password: "password123"})
	require.NoError(t, err)
	assert.Empty(t, user.PasswordHash)

	_, err = svc.Users.AuthenticateUser(ctx, models.UserLoginRequest{Email: "alice@example.com", Password: "wrong-password"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Users.AuthenticateUser(ctx, models.UserLoginRequest{Email: "nobody@example.com", Password: "password123"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestJWTService(t *testing.T) {
	svc := newTestServices(t)
	user := registerUser(t, svc, "alice")

	pair, err := svc.JWT.GenerateTokenPair(user)
	require.NoError(t, err)

	claims, err := svc.JWT.ValidateToken(pair.AccessToken, TokenTypeAccess)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, user.Email, claims.Email)

	_, err = svc.JWT.ValidateToken(pair.RefreshToken, TokenTypeAccess)
	assert.Error(t, err, "a refresh token must not be accepted as an access token")
	_, err = svc.JWT.ValidateToken(pair.AccessToken+"x", TokenTypeAccess)
	assert.Error(t, err)
}

func TestJWTService_GuestTokenExpiresWithAccount(t *testing.T) {
	svc := newTestServices(t)
	clock := newTestClock()
	svc.JWT.now = clock.Now

	expiry := clock.Now().Add(10 * time.Minute)
	guest := &models.User{ID: "0123456789abcdef01234567", IsGuest: true, GuestExpiryDate: &expiry}

	token, err := svc.JWT.GenerateToken(guest, TokenTypeAccess)
	require.NoError(t, err)
	_, err = svc.JWT.ValidateToken(token, TokenTypeAccess)
	require.NoError(t, err)

	clock.Advance(11 * time.Minute)
	_, err = svc.JWT.ValidateToken(token, TokenTypeAccess)
	assert.Error(t, err)
}
