package token

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/dtroode/piggyvault/internal/model"
)

var _ model.TokenCodec = (*AEAD)(nil)

// AEAD seals JSON claims with XChaCha20-Poly1305. A token is the unpadded
// base64url encoding of nonce followed by ciphertext.
type AEAD struct {
	key []byte
	now func() time.Time
}

// NewAEAD creates a codec with a key from DeriveKey.
func NewAEAD(key []byte) (*AEAD, error) {
	if len(key) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("aead key must be %d bytes, got %d", chacha20poly1305.KeySize, len(key))
	}
	return &AEAD{key: key, now: time.Now}, nil
}

func (a *AEAD) Encode(claims model.TokenClaims) (string, error) {
	payload, err := json.Marshal(claims)
	if err != nil {
		return "", fmt.Errorf("failed to marshal claims: %w", err)
	}

	aead, err := chacha20poly1305.NewX(a.key)
	if err != nil {
		return "", fmt.Errorf("failed to create cipher: %w", err)
	}

	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(payload)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := aead.Seal(nonce, nonce, payload, nil)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Decode opens token. Every failure other than expiry is ErrTokenInvalid.
func (a *AEAD) Decode(token string) (model.TokenClaims, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return model.TokenClaims{}, model.ErrTokenInvalid
	}

	aead, err := chacha20poly1305.NewX(a.key)
	if err != nil {
		return model.TokenClaims{}, model.ErrTokenInvalid
	}
	if len(raw) < aead.NonceSize()+aead.Overhead() {
		return model.TokenClaims{}, model.ErrTokenInvalid
	}

	nonce, ciphertext := raw[:aead.NonceSize()], raw[aead.NonceSize():]
	payload, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return model.TokenClaims{}, model.ErrTokenInvalid
	}

	var claims model.TokenClaims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return model.TokenClaims{}, model.ErrTokenInvalid
	}

	return checkClaims(claims, a.now())
}

func checkClaims(claims model.TokenClaims, now time.Time) (model.TokenClaims, error) {
	if claims.Username == "" || claims.ID == "" || claims.ExpiresAt.IsZero() {
		return model.TokenClaims{}, model.ErrTokenInvalid
	}
	if !now.Before(claims.ExpiresAt) {
		return model.TokenClaims{}, model.ErrTokenExpired
	}
	return claims, nil
}
