package helpers

import (
	"crypto/rand"
	"encoding/base64"
)

// RandomToken returns a URL-safe random string from n bytes of entropy.
// Used for email confirmation and password reset tokens.
func RandomToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
