package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"

	"github.com/dtroode/piggyvault/internal/model"
)

const (
	userKeyPrefix  = "user:"
	fieldChallenge = "challenge"
	fieldAnswer    = "answer"
)

var _ model.UserCache = (*UserCache)(nil)

// UserCache stores each user as a hash with challenge and answer fields.
// Entries never expire.
type UserCache struct {
	client *redis.Client
}

func NewUserCache(client *redis.Client) *UserCache {
	return &UserCache{client: client}
}

func (c *UserCache) Get(ctx context.Context, username string) (model.User, error) {
	data, err := c.client.HGetAll(ctx, userKey(username)).Result()
	if err != nil {
		return model.User{}, fmt.Errorf("failed to get cached user: %w", err)
	}

	challenge, okChallenge := data[fieldChallenge]
	answer, okAnswer := data[fieldAnswer]
	if !okChallenge || !okAnswer {
		return model.User{}, model.ErrNotFound
	}

	return model.User{Username: username, Challenge: challenge, Answer: answer}, nil
}

// Put writes both fields in one HSET so readers never see half an entry.
func (c *UserCache) Put(ctx context.Context, user model.User) error {
	err := c.client.HSet(ctx, userKey(user.Username),
		fieldChallenge, user.Challenge,
		fieldAnswer, user.Answer,
	).Err()
	if err != nil {
		return fmt.Errorf("failed to cache user: %w", err)
	}
	return nil
}

func (c *UserCache) Remove(ctx context.Context, username string) error {
	if err := c.client.Del(ctx, userKey(username)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("failed to remove cached user: %w", err)
	}
	return nil
}

func (c *UserCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func userKey(username string) string {
	return userKeyPrefix + username
}
