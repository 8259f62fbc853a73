package services

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akinalp/chanperm/models"
	"github.com/akinalp/chanperm/pkg"
)

func TestAuthService_RoundTrip(t *testing.T) {
	auth := NewAuthService("secret")

	token, err := auth.GenerateAccessToken("svc-1", models.ScopeWrite, time.Hour)
	require.NoError(t, err)

	claims, err := auth.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "svc-1", claims.Subject)
	assert.True(t, claims.CanWrite())
	require.NotNil(t, claims.ExpiresAt)
}

func TestAuthService_NoExpiry(t *testing.T) {
	auth := NewAuthService("secret")

	token, err := auth.GenerateAccessToken("svc-1", "", 0)
	require.NoError(t, err)

	claims, err := auth.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Nil(t, claims.ExpiresAt)
	assert.False(t, claims.CanWrite())
}

func TestAuthService_Rejects(t *testing.T) {
	auth := NewAuthService("secret").(*authService)

	expired, err := auth.GenerateAccessToken("svc-1", "", time.Minute)
	require.NoError(t, err)
	auth.now = func() time.Time { return time.Now().Add(time.Hour) }
	_, err = auth.ValidateAccessToken(expired)
	assert.ErrorIs(t, err, pkg.ErrUnauthorized)
	auth.now = time.Now

	other, err := NewAuthService("other").GenerateAccessToken("svc-1", "", time.Hour)
	require.NoError(t, err)
	_, err = auth.ValidateAccessToken(other)
	assert.ErrorIs(t, err, pkg.ErrUnauthorized)

	// Yabancı issuer
	foreign, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &models.TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "svc-1", Issuer: "someone-else"},
	}).SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = auth.ValidateAccessToken(foreign)
	assert.ErrorIs(t, err, pkg.ErrUnauthorized)

	// Subject'siz
	anonymous, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &models.TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{Issuer: tokenIssuer},
	}).SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = auth.ValidateAccessToken(anonymous)
	assert.ErrorIs(t, err, pkg.ErrUnauthorized)

	_, err = auth.ValidateAccessToken("not-a-jwt")
	assert.ErrorIs(t, err, pkg.ErrUnauthorized)

	_, err = auth.GenerateAccessToken("", "", 0)
	assert.ErrorIs(t, err, pkg.ErrBadRequest)
}
