package common

import "crypto/rand"

// GenerateRandByteArray returns size bytes from crypto/rand. It panics if
// the system random source fails, which is not recoverable for callers
// that need key material.
func GenerateRandByteArray(size int) []byte {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return b
}

// WipeByteArray zeroes b in place. Nil is allowed.
func WipeByteArray(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// BearerValue formats token for the Authorization header.
func BearerValue(token string) string {
	return BearerPrefix + token
}
