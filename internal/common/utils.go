package common

import (
	"crypto/rand"
	"encoding/hex"
)

// MakeRandHexString returns size random bytes encoded as hex (2*size chars).
func MakeRandHexString(size int) (string, error) {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// GenerateRandByteArray returns size bytes from crypto/rand.
func GenerateRandByteArray(size int) []byte {
	b := make([]byte, size)
	_, _ = rand.Read(b)
	return b
}

// WipeByteArray overwrites the slice with zeros. Used for share passwords and
// released payload buffers. A nil slice is a no-op.
func WipeByteArray(b []byte) {
	if b == nil {
		return
	}
	for i := range b {
		b[i] = 0
	}
}
