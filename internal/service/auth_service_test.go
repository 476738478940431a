package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"shortly-live/internal/apperr"
	"shortly-live/internal/jwt"
	"shortly-live/internal/models"
)

func newTestAuthService() (AuthService, *jwt.JWTService) {
	tokens := jwt.NewJWTService("test-secret", time.Hour, 24*time.Hour)
	return NewAuthService(newMemUserRepo(), tokens, bcrypt.MinCost), tokens
}

func TestAuthService_Signup(t *testing.T) {
	svc, tokens := newTestAuthService()
	ctx := context.Background()

	resp, err := svc.Signup(ctx, &models.SignupRequest{Email: "U@Test.com ", Password: "password1"})
	require.NoError(t, err)
	assert.Equal(t, "u@test.com", resp.Email)
	assert.NotEmpty(t, resp.ID)
	assert.NotEqual(t, resp.AccessToken, resp.RefreshToken)

	claims, err := tokens.ValidateAccessToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, resp.ID, claims.UserID())

	_, err = svc.Signup(ctx, &models.SignupRequest{Email: "u@test.com", Password: "password2"})
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestAuthService_SignupShortPassword(t *testing.T) {
	svc, _ := newTestAuthService()

	_, err := svc.Signup(context.Background(), &models.SignupRequest{Email: "u@test.com", Password: "short"})

	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestAuthService_SignupPasswordOverBcryptLimit(t *testing.T) {
	svc, _ := newTestAuthService()
	ctx := context.Background()

	_, err := svc.Signup(ctx, &models.SignupRequest{Email: "u@test.com", Password: strings.Repeat("a", 80)})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	assert.Contains(t, err.Error(), "at most 72 bytes")

	// 36 two-byte runes sit exactly at the limit; the rejected attempt left no account behind
	_, err = svc.Signup(ctx, &models.SignupRequest{Email: "u@test.com", Password: strings.Repeat("é", 36)})
	assert.NoError(t, err)
}

func TestAuthService_Login(t *testing.T) {
	svc, _ := newTestAuthService()
	ctx := context.Background()
	signup, err := svc.Signup(ctx, &models.SignupRequest{Email: "u@test.com", Password: "password1"})
	require.NoError(t, err)

	resp, err := svc.Login(ctx, &models.LoginRequest{Email: "u@test.com", Password: "password1"})
	require.NoError(t, err)
	assert.Equal(t, signup.ID, resp.ID)

	for name, req := range map[string]*models.LoginRequest{
		"wrong password": {Email: "u@test.com", Password: "password2"},
		"unknown email":  {Email: "nobody@test.com", Password: "password1"},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Login(ctx, req)
			assert.Equal(t, apperr.KindAuth, apperr.KindOf(err))
		})
	}
}

func TestAuthService_RefreshAndProfile(t *testing.T) {
	svc, _ := newTestAuthService()
	ctx := context.Background()
	signup, err := svc.Signup(ctx, &models.SignupRequest{Email: "u@test.com", Password: "password1"})
	require.NoError(t, err)

	refreshed, err := svc.Refresh(ctx, signup.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, signup.ID, refreshed.ID)

	_, err = svc.Refresh(ctx, signup.AccessToken)
	assert.Equal(t, apperr.KindAuth, apperr.KindOf(err), "access tokens cannot refresh")

	profile, err := svc.Profile(ctx, signup.ID)
	require.NoError(t, err)
	assert.Equal(t, &models.ProfileResponse{ID: signup.ID, Email: "u@test.com"}, profile)

	_, err = svc.Profile(ctx, "missing")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}
