package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/piggyvault/internal/apierrors"
	"github.com/dtroode/piggyvault/internal/logger"
	"github.com/dtroode/piggyvault/internal/metrics"
	"github.com/dtroode/piggyvault/internal/model"
)

// TokenService issues, validates and revokes session tokens. It composes
// the TokenCodec and the SessionStore.
//
// In stateful mode the store records the single active token per user and
// a new issuance supersedes the previous token. In stateless mode the store
// is not consulted: tokens stay valid until they expire and RevokeAll has
// no effect.
type TokenService struct {
	codec     model.TokenCodec
	store     model.SessionStore
	ttl       time.Duration
	stateless bool
	logger    *logger.Logger
	now       func() time.Time
}

func NewTokenService(codec model.TokenCodec, store model.SessionStore, ttl time.Duration, logger *logger.Logger) *TokenService {
	return &TokenService{codec: codec, store: store, ttl: ttl, logger: logger, now: time.Now}
}

// NewStatelessTokenService creates a TokenService without revocation.
func NewStatelessTokenService(codec model.TokenCodec, ttl time.Duration, logger *logger.Logger) *TokenService {
	return &TokenService{codec: codec, ttl: ttl, stateless: true, logger: logger, now: time.Now}
}

// Issue creates a token for username and records it as the active one.
func (s *TokenService) Issue(ctx context.Context, username string) (string, error) {
	now := s.now()
	token, err := s.codec.Encode(model.TokenClaims{
		Username:  username,
		ID:        uuid.NewString(),
		IssuedAt:  now,
		ExpiresAt: now.Add(s.ttl),
	})
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}

	if !s.stateless {
		if err := s.store.Set(ctx, username, token, s.ttl); err != nil {
			return "", fmt.Errorf("persist token: %w", err)
		}
	}

	metrics.SessionsIssuedTotal.Inc()
	return token, nil
}

// Validate decodes token and returns the username it was issued for.
func (s *TokenService) Validate(token string) (string, error) {
	claims, err := s.codec.Decode(token)
	if err != nil {
		if errors.Is(err, model.ErrTokenExpired) {
			return "", apierrors.NewErrTokenExpired()
		}
		return "", apierrors.NewErrTokenInvalid()
	}
	return claims.Username, nil
}

// IsActive reports whether token is the token currently recorded for username.
func (s *TokenService) IsActive(ctx context.Context, username, token string) (bool, error) {
	if s.stateless {
		return true, nil
	}

	active, err := s.store.Get(ctx, username)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("get active token: %w", err)
	}

	return subtle.ConstantTimeCompare([]byte(active), []byte(token)) == 1, nil
}

// Authenticate validates token and checks that it is still active. A
// superseded or revoked token is reported as expired.
func (s *TokenService) Authenticate(ctx context.Context, token string) (string, error) {
	username, err := s.Validate(token)
	if err != nil {
		return "", err
	}

	active, err := s.IsActive(ctx, username, token)
	if err != nil {
		s.logger.Error("Token service: failed to check active token",
			"username", username,
			"error", err.Error())
		return "", err
	}
	if !active {
		return "", apierrors.NewErrTokenExpired()
	}

	return username, nil
}

// RevokeAll drops the active token of username.
func (s *TokenService) RevokeAll(ctx context.Context, username string) error {
	if s.stateless {
		s.logger.Debug("Token service: revocation skipped in stateless mode",
			"username", username)
		return nil
	}

	if err := s.store.Delete(ctx, username); err != nil {
		return fmt.Errorf("revoke tokens: %w", err)
	}
	return nil
}
