package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var secret = []byte("test")

func TestShareToken(t *testing.T) {
	token, err := NewShareToken("https://arweave.net/1", "Art1", secret, time.Hour)
	require.NoError(t, err)

	claims, err := ParseShareToken(token, secret)
	require.NoError(t, err)
	assert.Equal(t, "https://arweave.net/1", claims.MediaURL)
	assert.Equal(t, "Art1", claims.Name)
}

func TestParseShareToken_Invalid(t *testing.T) {
	t.Run("wrong secret", func(t *testing.T) {
		token, err := NewShareToken("u", "n", secret, time.Hour)
		require.NoError(t, err)

		_, err = ParseShareToken(token, []byte("other"))
		assert.ErrorIs(t, err, ErrInvalidShareToken)
	})

	t.Run("expired", func(t *testing.T) {
		token, err := NewShareToken("u", "n", secret, -time.Minute)
		require.NoError(t, err)

		_, err = ParseShareToken(token, secret)
		assert.ErrorIs(t, err, ErrInvalidShareToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := ParseShareToken("not-a-token", secret)
		assert.ErrorIs(t, err, ErrInvalidShareToken)
	})
}
