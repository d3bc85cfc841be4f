// Package auth provides the shared-secret gate guarding the push endpoints.
package auth

import (
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"strings"

	"golang.org/x/crypto/sha3"
)

// ErrInvalidSecret is returned when the supplied secret does not hash to the
// configured digest.
var ErrInvalidSecret = errors.New("invalid secret")

// HashSecret returns the lower-case hex Keccak-256 digest of a secret.
func HashSecret(secret string) string {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(secret))
	return hex.EncodeToString(h.Sum(nil))
}

// Gate compares supplied secrets against a configured Keccak-256 digest.
type Gate struct {
	expected string
}

// NewGate creates a gate for the given hex digest. A leading 0x and upper-case
// hex digits are accepted.
func NewGate(secretHash string) *Gate {
	return &Gate{
		expected: strings.ToLower(strings.TrimPrefix(secretHash, "0x")),
	}
}

// Check returns ErrInvalidSecret unless secret hashes to the configured digest.
// An empty secret never matches.
func (g *Gate) Check(secret string) error {
	if secret == "" || g.expected == "" {
		return ErrInvalidSecret
	}
	got := HashSecret(secret)
	if subtle.ConstantTimeCompare([]byte(got), []byte(g.expected)) != 1 {
		return ErrInvalidSecret
	}
	return nil
}
