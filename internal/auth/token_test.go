package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTokenGenerator(t *testing.T) {
	tg := NewTokenGenerator("test-secret-key", time.Hour, 7*24*time.Hour)

	assert.NotNil(t, tg)
	assert.Equal(t, []byte("test-secret-key"), tg.secret)
	assert.Equal(t, time.Hour, tg.accessTokenExpiry)
	assert.Equal(t, 7*24*time.Hour, tg.refreshTokenExpiry)
}

func TestTokenGenerator_GenerateTokens(t *testing.T) {
	tg := NewTokenGenerator("b8a3c2267dc85f855dea9b46b452bf20", time.Hour, 7*24*time.Hour)

	t.Run("access token carries user and role", func(t *testing.T) {
		accessToken, refreshToken, err := tg.GenerateTokens(123, 2)
		require.NoError(t, err)
		assert.NotEqual(t, accessToken, refreshToken)

		userID, role, err := tg.ValidateAccessToken(accessToken)
		require.NoError(t, err)
		assert.Equal(t, 123, userID)
		assert.Equal(t, 2, role)
	})

	t.Run("refresh tokens are unique", func(t *testing.T) {
		_, first, err := tg.GenerateTokens(1, 1)
		require.NoError(t, err)
		_, second, err := tg.GenerateTokens(1, 1)
		require.NoError(t, err)
		assert.NotEqual(t, first, second)
	})
}

func TestTokenGenerator_ValidateAccessToken(t *testing.T) {
	tg := NewTokenGenerator("secret", time.Hour, 24*time.Hour)
	other := NewTokenGenerator("other-secret", time.Hour, 24*time.Hour)

	accessToken, refreshToken, err := tg.GenerateTokens(7, 1)
	require.NoError(t, err)
	foreignToken, _, err := other.GenerateTokens(7, 1)
	require.NoError(t, err)

	expired := NewTokenGenerator("secret", time.Minute, time.Minute)
	expired.now = func() time.Time { return time.Now().Add(-time.Hour) }
	expiredToken, _, err := expired.GenerateTokens(7, 1)
	require.NoError(t, err)

	noneToken, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: 7, Type: tokenTypeAccess}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name          string
		token         string
		expectedError bool
	}{
		{name: "valid", token: accessToken},
		{name: "refresh token rejected", token: refreshToken, expectedError: true},
		{name: "other secret", token: foreignToken, expectedError: true},
		{name: "expired", token: expiredToken, expectedError: true},
		{name: "none algorithm", token: noneToken, expectedError: true},
		{name: "garbage", token: "not-a-jwt", expectedError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			userID, _, err := tg.ValidateAccessToken(tt.token)
			if tt.expectedError {
				assert.Error(t, err)
				assert.Zero(t, userID)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, 7, userID)
			}
		})
	}
}

func TestTokenGenerator_ValidateRefreshToken(t *testing.T) {
	tg := NewTokenGenerator("secret", time.Hour, 24*time.Hour)
	accessToken, refreshToken, err := tg.GenerateTokens(1, 1)
	require.NoError(t, err)

	assert.NoError(t, tg.ValidateRefreshToken(refreshToken))
	assert.ErrorIs(t, tg.ValidateRefreshToken(accessToken), ErrWrongTokenType)
}
