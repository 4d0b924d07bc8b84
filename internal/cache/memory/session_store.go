package memory

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/allegro/bigcache/v3"

	"github.com/dtroode/piggyvault/internal/model"
)

var _ model.SessionStore = (*SessionStore)(nil)

// SessionStore keeps session records in bigcache. bigcache has a single
// global life window, so each entry carries its own deadline in the first
// eight bytes and is treated as missing once that deadline passes.
type SessionStore struct {
	cache *bigcache.BigCache
	now   func() time.Time
}

// NewSessionStore creates a store whose entries are evicted by bigcache
// after lifeWindow at the latest.
func NewSessionStore(ctx context.Context, lifeWindow time.Duration) (*SessionStore, error) {
	cfg := bigcache.DefaultConfig(lifeWindow)
	cfg.CleanWindow = time.Minute
	cfg.Verbose = false

	cache, err := bigcache.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create session cache: %w", err)
	}
	return &SessionStore{cache: cache, now: time.Now}, nil
}

func (s *SessionStore) Set(_ context.Context, username, token string, ttl time.Duration) error {
	entry := make([]byte, 8+len(token))
	binary.BigEndian.PutUint64(entry, uint64(s.now().Add(ttl).UnixNano()))
	copy(entry[8:], token)

	if err := s.cache.Set(username, entry); err != nil {
		return fmt.Errorf("failed to store session token: %w", err)
	}
	return nil
}

func (s *SessionStore) Get(_ context.Context, username string) (string, error) {
	entry, err := s.cache.Get(username)
	if err != nil {
		if errors.Is(err, bigcache.ErrEntryNotFound) {
			return "", model.ErrNotFound
		}
		return "", fmt.Errorf("failed to get session token: %w", err)
	}
	if len(entry) < 8 {
		return "", model.ErrNotFound
	}

	deadline := time.Unix(0, int64(binary.BigEndian.Uint64(entry)))
	if !s.now().Before(deadline) {
		return "", model.ErrNotFound
	}
	return string(entry[8:]), nil
}

func (s *SessionStore) Delete(_ context.Context, username string) error {
	err := s.cache.Delete(username)
	if err != nil && !errors.Is(err, bigcache.ErrEntryNotFound) {
		return fmt.Errorf("failed to delete session token: %w", err)
	}
	return nil
}

func (s *SessionStore) Close() error {
	return s.cache.Close()
}
