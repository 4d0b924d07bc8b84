package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/dtroode/piggyvault/internal/model"
)

const tokenKeyPrefix = "token-"

var _ model.SessionStore = (*SessionStore)(nil)

// SessionStore keeps the active token of each user under token-<username>
// with a TTL, so expiry is enforced by Redis.
type SessionStore struct {
	client *redis.Client
}

func NewSessionStore(client *redis.Client) *SessionStore {
	return &SessionStore{client: client}
}

func (s *SessionStore) Set(ctx context.Context, username, token string, ttl time.Duration) error {
	if err := s.client.SetEX(ctx, tokenKey(username), token, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store session token: %w", err)
	}
	return nil
}

func (s *SessionStore) Get(ctx context.Context, username string) (string, error) {
	token, err := s.client.Get(ctx, tokenKey(username)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", model.ErrNotFound
		}
		return "", fmt.Errorf("failed to get session token: %w", err)
	}
	return token, nil
}

func (s *SessionStore) Delete(ctx context.Context, username string) error {
	if err := s.client.Del(ctx, tokenKey(username)).Err(); err != nil {
		return fmt.Errorf("failed to delete session token: %w", err)
	}
	return nil
}

func tokenKey(username string) string {
	return tokenKeyPrefix + username
}
