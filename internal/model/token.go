package model

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrTokenInvalid is returned for any token that cannot be decoded or authenticated.
	ErrTokenInvalid = errors.New("session token is invalid")
	// ErrTokenExpired is returned for authentic tokens past their expiry.
	ErrTokenExpired = errors.New("session token expired")
)

// TokenClaims is the payload sealed inside a session token.
type TokenClaims struct {
	Username  string    `json:"sub"`
	ID        string    `json:"jti"`
	IssuedAt  time.Time `json:"iat"`
	ExpiresAt time.Time `json:"exp"`
}

// TokenCodec turns claims into opaque tokens and back.
type TokenCodec interface {
	Encode(claims TokenClaims) (string, error)
	// Decode returns ErrTokenInvalid or ErrTokenExpired on failure.
	Decode(token string) (TokenClaims, error)
}

// SessionStore records the single active token per username.
type SessionStore interface {
	Set(ctx context.Context, username, token string, ttl time.Duration) error
	// Get returns ErrNotFound when no token is recorded or it has expired.
	Get(ctx context.Context, username string) (string, error)
	Delete(ctx context.Context, username string) error
}
