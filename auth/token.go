package auth

import (
	"crypto/rand"
	"encoding/hex"
)

// 32 random bytes = 256 bits of entropy per issued token.
const tokenBytes = 32

func newToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
