package feed

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateToken(t *testing.T) {
	token, prefix, hash, err := GenerateToken()
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(token, "wmk_"))
	assert.Len(t, token, len("wmk_")+43)
	assert.Len(t, prefix, tokenPrefixLength)
	assert.True(t, strings.HasPrefix(strings.TrimPrefix(token, "wmk_"), prefix))
	assert.NotContains(t, hash, token, "hash must not embed the plaintext")
}

func TestGenerateTokenUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 32; i++ {
		token, _, _, err := GenerateToken()
		require.NoError(t, err)
		assert.False(t, seen[token])
		seen[token] = true
	}
}

func TestTokenPrefix(t *testing.T) {
	token, prefix, _, err := GenerateToken()
	require.NoError(t, err)

	got, ok := TokenPrefix(token)
	assert.True(t, ok)
	assert.Equal(t, prefix, got)

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"wrong tag", "abc_" + strings.Repeat("x", 43)},
		{"too short", "wmk_abc"},
		{"too long", token + "x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := TokenPrefix(tt.token)
			assert.False(t, ok)
		})
	}
}

func TestVerifyToken(t *testing.T) {
	token, _, hash, err := GenerateToken()
	require.NoError(t, err)

	assert.True(t, VerifyToken(token, hash))
	assert.False(t, VerifyToken(token+"x", hash))

	other, _, _, err := GenerateToken()
	require.NoError(t, err)
	assert.False(t, VerifyToken(other, hash))
}
