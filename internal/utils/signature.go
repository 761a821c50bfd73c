package utils

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// GenerateSignature creates an HMAC-SHA256 signature.
func GenerateSignature(payload []byte, secret []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature validates an HMAC-SHA256 signature.
func VerifySignature(payload []byte, signature string, secret []byte) bool {
	expected := GenerateSignature(payload, secret)
	return hmac.Equal([]byte(signature), []byte(expected))
}

// Sign returns value with its signature appended as "value.signature".
func Sign(value string, secret []byte) string {
	return value + "." + GenerateSignature([]byte(value), secret)
}

// Unsign returns the value of a string produced by Sign, or false when the
// signature does not match.
func Unsign(signed string, secret []byte) (string, bool) {
	i := strings.LastIndexByte(signed, '.')
	if i < 0 {
		return "", false
	}
	value, sig := signed[:i], signed[i+1:]
	if !VerifySignature([]byte(value), sig, secret) {
		return "", false
	}
	return value, true
}
