package utils

import (
	"crypto/rand"
	"fmt"
)

// CSRFKeySize is the length gorilla/csrf expects of its authentication key.
const CSRFKeySize = 32

// GenerateKey returns n random bytes.
func GenerateKey(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	return b, nil
}

// GenerateCSRFKey returns a random CSRF authentication key. Tokens signed
// with it do not survive a restart, so it is only used in development.
func GenerateCSRFKey() ([]byte, error) {
	return GenerateKey(CSRFKeySize)
}
