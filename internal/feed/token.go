// token.go implements the subscription token scheme. A token is the sole
// credential needed to personalize a feed, so it is generated from
// crypto/rand with 256 bits of entropy and stored the way API keys are:
// a short plaintext prefix for lookup plus a bcrypt hash of the full token
// for verification. The plaintext is only ever returned once, at mint time.
package feed

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const (
	// tokenTag marks waterman feed tokens.
	tokenTag = "wmk_"

	// tokenSecretLength is the number of random bytes behind each token.
	tokenSecretLength = 32

	// tokenPrefixLength is the number of characters (after the tag) kept
	// in plaintext for database lookup.
	tokenPrefixLength = 8

	// tokenBcryptCost is the bcrypt cost factor. The full token is
	// 4 + 43 = 47 bytes, well under bcrypt's 72-byte input limit.
	tokenBcryptCost = 12
)

// GenerateToken mints a new feed token. It returns the plaintext token
// (shown to the user exactly once), the lookup prefix, and the bcrypt hash
// to store.
func GenerateToken() (token, prefix, hash string, err error) {
	randomBytes := make([]byte, tokenSecretLength)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", "", "", fmt.Errorf("crypto/rand read failed: %w", err)
	}

	encoded := base64.RawURLEncoding.EncodeToString(randomBytes)
	token = tokenTag + encoded
	prefix = encoded[:tokenPrefixLength]

	hashBytes, err := bcrypt.GenerateFromPassword([]byte(token), tokenBcryptCost)
	if err != nil {
		return "", "", "", fmt.Errorf("bcrypt hash failed: %w", err)
	}
	return token, prefix, string(hashBytes), nil
}

// TokenPrefix extracts the lookup prefix from a presented token. The
// returned ok is false when the token cannot possibly be valid, letting
// callers skip the database round trip.
func TokenPrefix(token string) (prefix string, ok bool) {
	if len(token) != len(tokenTag)+43 || token[:len(tokenTag)] != tokenTag {
		return "", false
	}
	return token[len(tokenTag) : len(tokenTag)+tokenPrefixLength], true
}

// VerifyToken checks a presented token against a stored bcrypt hash.
func VerifyToken(token, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(token)) == nil
}
