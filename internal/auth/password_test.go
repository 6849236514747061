package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	t.Run("hashes a valid password", func(t *testing.T) {
		hash, err := HashPassword("securepass1")
		require.NoError(t, err)
		assert.NotEmpty(t, hash)
		assert.NotEqual(t, "securepass1", hash)
	})

	t.Run("rejects a short password", func(t *testing.T) {
		_, err := HashPassword("short")
		assert.ErrorIs(t, err, ErrPasswordTooShort)
	})

	t.Run("produces different hashes for the same password", func(t *testing.T) {
		h1, err := HashPassword("securepass1")
		require.NoError(t, err)
		h2, err := HashPassword("securepass1")
		require.NoError(t, err)
		assert.NotEqual(t, h1, h2)
	})

	t.Run("uses bcrypt", func(t *testing.T) {
		hash, err := HashPassword("securepass1")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(hash, "$2a$"))
	})
}

func TestCheckPassword(t *testing.T) {
	hash, err := HashPassword("securepass1")
	require.NoError(t, err)

	t.Run("accepts the correct password", func(t *testing.T) {
		assert.True(t, CheckPassword("securepass1", hash))
	})

	t.Run("rejects a wrong password", func(t *testing.T) {
		assert.False(t, CheckPassword("wrongpass1", hash))
	})

	t.Run("rejects an empty password", func(t *testing.T) {
		assert.False(t, CheckPassword("", hash))
	})

	t.Run("rejects a malformed hash", func(t *testing.T) {
		assert.False(t, CheckPassword("securepass1", "not-a-hash"))
	})
}
