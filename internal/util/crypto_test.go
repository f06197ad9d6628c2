package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateToken(t *testing.T) {
	t.Run("generates 64 character hex string", func(t *testing.T) {
		token, err := GenerateToken()
		require.NoError(t, err)
		assert.Len(t, token, 64)
	})

	t.Run("generates unique tokens", func(t *testing.T) {
		token1, _ := GenerateToken()
		token2, _ := GenerateToken()
		assert.NotEqual(t, token1, token2)
	})
}

func TestHashToken(t *testing.T) {
	t.Run("returns 64 character hex string", func(t *testing.T) {
		hash := HashToken("test-token")
		assert.Len(t, hash, 64)
	})

	t.Run("same input produces same hash", func(t *testing.T) {
		assert.Equal(t, HashToken("test-token"), HashToken("test-token"))
	})

	t.Run("different input produces different hash", func(t *testing.T) {
		assert.NotEqual(t, HashToken("token-1"), HashToken("token-2"))
	})
}

func TestPasswordHashing(t *testing.T) {
	t.Run("round trips a password", func(t *testing.T) {
		hash, err := HashPassword("correct horse battery staple")
		require.NoError(t, err)
		assert.True(t, CheckPasswordHash("correct horse battery staple", hash))
	})

	t.Run("rejects a wrong password", func(t *testing.T) {
		hash, err := HashPassword("correct horse battery staple")
		require.NoError(t, err)
		assert.False(t, CheckPasswordHash("incorrect", hash))
	})
}

func TestConstantTimeEqual(t *testing.T) {
	t.Run("returns true for equal strings", func(t *testing.T) {
		assert.True(t, ConstantTimeEqual("48213", "48213"))
	})

	t.Run("returns false for different strings", func(t *testing.T) {
		assert.False(t, ConstantTimeEqual("48213", "48214"))
	})

	t.Run("returns false for different lengths", func(t *testing.T) {
		assert.False(t, ConstantTimeEqual("48213", "4821"))
	})
}

func TestMaskCode(t *testing.T) {
	assert.Equal(t, "48***", MaskCode("48213"))
	assert.Equal(t, "*****", MaskCode("12"))
}
