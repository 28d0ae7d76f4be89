package helpers

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRandomTokenIsURLSafe(t *testing.T) {
	tok, err := RandomToken(48)
	require.NoError(t, err)
	assert.NotEmpty(t, tok)
	assert.False(t, strings.ContainsAny(tok, "+/="), "token must be safe to embed in a URL path: %q", tok)
}

func TestRandomTokenUnique(t *testing.T) {
	seen := map[string]struct{}{}
	for i := 0; i < 100; i++ {
		tok, err := RandomToken(24)
		require.NoError(t, err)
		if _, dup := seen[tok]; dup {
			t.Fatalf("duplicate token %q", tok)
		}
		seen[tok] = struct{}{}
	}
}
