// Package cryptox seals small secrets (the session credential) for storage
// on disk. Keys are derived with argon2id; payloads are sealed with AES-GCM.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"errors"
	"fmt"
	"os"

	"github.com/dmitrijs2005/shopkeeper/internal/common"
	"github.com/dmitrijs2005/shopkeeper/internal/filex"
	"golang.org/x/crypto/argon2"
)

const (
	// KeySize is the derived key length (AES-256).
	KeySize = 32

	// SecretSize is the length of a generated local secret.
	SecretSize = 32
)

// ErrMalformed is returned by Open when the sealed payload is too short to
// contain a nonce.
var ErrMalformed = errors.New("malformed sealed payload")

// DeriveKey stretches secret with salt into a KeySize-byte key.
func DeriveKey(secret []byte, salt []byte) []byte {
	return argon2.IDKey(secret, salt, 1, 64*1024, 4, KeySize)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// Seal encrypts plaintext with key. The random nonce is prepended to the
// returned ciphertext.
func Seal(plaintext, key []byte) ([]byte, error) {
	aesgcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	nonce := common.GenerateRandByteArray(aesgcm.NonceSize())
	return aesgcm.Seal(nonce, nonce, plaintext, nil), nil
}

// Open reverses Seal.
func Open(sealed, key []byte) ([]byte, error) {
	aesgcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	n := aesgcm.NonceSize()
	if len(sealed) < n {
		return nil, ErrMalformed
	}
	return aesgcm.Open(nil, sealed[:n], sealed[n:], nil)
}

// LoadOrCreateSecret reads the local secret at path, creating it with
// SecretSize random bytes (mode 0600) when it does not exist yet.
func LoadOrCreateSecret(path string) ([]byte, error) {
	secret, err := os.ReadFile(path)
	if err == nil {
		if len(secret) == 0 {
			return nil, fmt.Errorf("secret file %s is empty", path)
		}
		return secret, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read secret: %w", err)
	}

	if err := filex.EnsureParentDir(path, 0o700); err != nil {
		return nil, err
	}

	secret = common.GenerateRandByteArray(SecretSize)
	if err := os.WriteFile(path, secret, 0o600); err != nil {
		return nil, fmt.Errorf("write secret: %w", err)
	}
	return secret, nil
}
