// Package memory holds in-process cache backends.
package memory

import (
	"context"
	"sync"

	"github.com/dtroode/piggyvault/internal/model"
)

var (
	_ model.UserCache = (*UserCache)(nil)
	_ model.UserCache = NoneCache{}
)

// UserCache is a map-backed user cache for single-process deployments.
type UserCache struct {
	mu    sync.RWMutex
	users map[string]model.User
}

func NewUserCache() *UserCache {
	return &UserCache{users: make(map[string]model.User)}
}

func (c *UserCache) Get(_ context.Context, username string) (model.User, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	user, ok := c.users[username]
	if !ok {
		return model.User{}, model.ErrNotFound
	}
	return user, nil
}

func (c *UserCache) Put(_ context.Context, user model.User) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.users[user.Username] = user
	return nil
}

func (c *UserCache) Remove(_ context.Context, username string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.users, username)
	return nil
}

// Flush drops every entry, as a cache restart would.
func (c *UserCache) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.users = make(map[string]model.User)
}

func (c *UserCache) Ping(_ context.Context) error {
	return nil
}

// NoneCache disables caching: every lookup misses.
type NoneCache struct{}

func (NoneCache) Get(_ context.Context, _ string) (model.User, error) {
	return model.User{}, model.ErrNotFound
}

func (NoneCache) Put(_ context.Context, _ model.User) error { return nil }

func (NoneCache) Remove(_ context.Context, _ string) error { return nil }

func (NoneCache) Ping(_ context.Context) error { return nil }
