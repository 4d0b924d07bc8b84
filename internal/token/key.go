package token

import (
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// KeySize is the length of every derived key.
const KeySize = 32

// Purpose labels keep keys for different codecs independent.
const (
	PurposeAEAD = "session-token/aead"
	PurposeJWT  = "session-token/jwt"
)

var keySalt = []byte("piggyvault session key v1")

// DeriveKey expands the configured secret into a key for purpose. The same
// secret always yields the same key, so tokens survive restarts.
func DeriveKey(secret, purpose string) ([]byte, error) {
	if secret == "" {
		return nil, fmt.Errorf("session secret is empty")
	}

	key := make([]byte, KeySize)
	r := hkdf.New(sha256.New, []byte(secret), keySalt, []byte(purpose))
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}
	return key, nil
}
