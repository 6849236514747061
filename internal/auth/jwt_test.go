package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJWTService() *JWTService {
	return NewJWTService("test-secret-key", 15*time.Minute, 7*24*time.Hour)
}

func TestGenerateAccessToken(t *testing.T) {
	svc := newTestJWTService()

	token, expiresAt, err := svc.GenerateAccessToken("user-1", "medic@station4.example", "svc-1", "Medic")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), expiresAt, 5*time.Second)
}

func TestValidateAccessToken(t *testing.T) {
	svc := newTestJWTService()

	t.Run("round-trips claims", func(t *testing.T) {
		token, _, err := svc.GenerateAccessToken("user-1", "medic@station4.example", "svc-1", "Medic")
		require.NoError(t, err)

		claims, err := svc.ValidateAccessToken(token)
		require.NoError(t, err)
		assert.Equal(t, "user-1", claims.UserID)
		assert.Equal(t, "medic@station4.example", claims.Email)
		assert.Equal(t, "svc-1", claims.ServiceID)
		assert.Equal(t, "Medic", claims.Role)
	})

	t.Run("rejects garbage", func(t *testing.T) {
		_, err := svc.ValidateAccessToken("not.a.token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("rejects a token signed with a different key", func(t *testing.T) {
		other := NewJWTService("other-secret", 15*time.Minute, time.Hour)
		token, _, err := other.GenerateAccessToken("user-1", "medic@station4.example", "svc-1", "Medic")
		require.NoError(t, err)

		_, err = svc.ValidateAccessToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("rejects an expired token", func(t *testing.T) {
		expired := NewJWTService("test-secret-key", -time.Minute, time.Hour)
		token, _, err := expired.GenerateAccessToken("user-1", "medic@station4.example", "svc-1", "Medic")
		require.NoError(t, err)

		_, err = svc.ValidateAccessToken(token)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})
}

func TestValidateRefreshToken(t *testing.T) {
	svc := newTestJWTService()

	t.Run("round-trips the user id", func(t *testing.T) {
		token, _, err := svc.GenerateRefreshToken("user-1")
		require.NoError(t, err)

		userID, err := svc.ValidateRefreshToken(token)
		require.NoError(t, err)
		assert.Equal(t, "user-1", userID)
	})

	t.Run("rejects garbage", func(t *testing.T) {
		_, err := svc.ValidateRefreshToken("nope")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestTokenExpiryGetters(t *testing.T) {
	svc := newTestJWTService()
	assert.Equal(t, 15*time.Minute, svc.GetAccessTokenExpiry())
	assert.Equal(t, 7*24*time.Hour, svc.GetRefreshTokenExpiry())
}
