package token_test

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/sessionkit/pkg/token"
)

func TestGenerate(t *testing.T) {
	t.Parallel()

	t.Run("produces 256 bits of entropy", func(t *testing.T) {
		t.Parallel()

		raw, err := token.Generate()
		require.NoError(t, err)

		decoded, err := base64.RawURLEncoding.DecodeString(raw)
		require.NoError(t, err)
		assert.Len(t, decoded, 32)
	})

	t.Run("tokens are unique", func(t *testing.T) {
		t.Parallel()

		seen := make(map[string]struct{}, 100)
		for range 100 {
			raw, err := token.Generate()
			require.NoError(t, err)

			_, dup := seen[raw]
			require.False(t, dup, "duplicate token generated")
			seen[raw] = struct{}{}
		}
	})
}

func TestHash(t *testing.T) {
	t.Parallel()

	t.Run("deterministic", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, token.Hash("abc"), token.Hash("abc"))
	})

	t.Run("distinct inputs produce distinct digests", func(t *testing.T) {
		t.Parallel()

		assert.NotEqual(t, token.Hash("abc"), token.Hash("abd"))
	})

	t.Run("hex encoded sha256", func(t *testing.T) {
		t.Parallel()

		assert.Len(t, token.Hash("anything"), 64)
	})
}

func TestEqual(t *testing.T) {
	t.Parallel()

	assert.True(t, token.Equal("same", "same"))
	assert.False(t, token.Equal("same", "other"))
	assert.False(t, token.Equal("same", "longer-value"))
	assert.True(t, token.Equal("", ""))
}
