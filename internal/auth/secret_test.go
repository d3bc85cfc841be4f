package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHashSecret(t *testing.T) {
	// Well-known Keccak-256 vectors (not NIST SHA3-256).
	assert.Equal(t, "c5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470", HashSecret(""))
	assert.Equal(t, "9c22ff5f21f0b81b113e63f7db6da94fedef11b2119b4088b89664fb9a3cb658", HashSecret("test"))
	assert.Len(t, HashSecret("anything"), 64)
}

func TestGate_Check(t *testing.T) {
	hash := HashSecret("test")

	tests := []struct {
		name    string
		gate    *Gate
		secret  string
		wantErr bool
	}{
		{name: "matching secret", gate: NewGate(hash), secret: "test"},
		{name: "0x prefixed upper-case digest", gate: NewGate("0x" + strings.ToUpper(hash)), secret: "test"},
		{name: "wrong secret", gate: NewGate(hash), secret: "xxx", wantErr: true},
		{name: "empty secret", gate: NewGate(HashSecret("")), secret: "", wantErr: true},
		{name: "unconfigured gate", gate: NewGate(""), secret: "test", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.gate.Check(tt.secret)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidSecret)
				return
			}
			assert.NoError(t, err)
		})
	}
}
