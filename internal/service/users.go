package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/dtroode/piggyvault/internal/apierrors"
	"github.com/dtroode/piggyvault/internal/logger"
	"github.com/dtroode/piggyvault/internal/metrics"
	"github.com/dtroode/piggyvault/internal/model"
)

// Users composes the durable user store with the user cache. The durable
// store is authoritative; the cache may lag and is repaired on reads and
// on registration conflicts.
type Users struct {
	store  model.UserStore
	cache  model.UserCache
	logger *logger.Logger
}

func NewUsers(store model.UserStore, cache model.UserCache, logger *logger.Logger) *Users {
	return &Users{store: store, cache: cache, logger: logger}
}

// FindUser reads through the cache and falls back to the durable store.
// A failure to populate the cache does not fail the lookup.
func (u *Users) FindUser(ctx context.Context, username string) (model.User, error) {
	cached, err := u.cache.Get(ctx, username)
	switch {
	case err == nil:
		metrics.UserCacheLookupsTotal.WithLabelValues(metrics.CacheHit).Inc()
		return cached, nil
	case errors.Is(err, model.ErrNotFound):
		metrics.UserCacheLookupsTotal.WithLabelValues(metrics.CacheMiss).Inc()
	default:
		metrics.UserCacheLookupsTotal.WithLabelValues(metrics.CacheError).Inc()
		u.logger.Warn("Users service: cache read failed, falling back to durable store",
			"username", username,
			"error", err.Error())
	}

	user, err := u.store.Find(ctx, username)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.User{}, apierrors.NewErrUserDoesNotExist()
		}
		u.logger.Error("Users service: failed to find user",
			"username", username,
			"error", err.Error())
		return model.User{}, fmt.Errorf("failed to find user: %w", err)
	}

	if err := u.cache.Put(ctx, user); err != nil {
		u.logger.Warn("Users service: failed to populate cache",
			"username", username,
			"error", err.Error())
	}

	return user, nil
}

// AddUser creates the durable record first and returns the challenge read
// back from it. On a conflict the cache is made to agree with the durable
// store before UserExists is returned.
func (u *Users) AddUser(ctx context.Context, user model.User) (string, error) {
	u.logger.Debug("Users service: adding user",
		"username", user.Username)

	stored, err := u.store.Create(ctx, user)
	if err != nil {
		if errors.Is(err, model.ErrAlreadyExists) {
			if repairErr := u.repairCache(ctx, user.Username); repairErr != nil {
				return "", repairErr
			}
			u.logger.Info("Users service: user already exists",
				"username", user.Username)
			return "", apierrors.NewErrUserExists()
		}
		u.logger.Error("Users service: failed to create user",
			"username", user.Username,
			"error", err.Error())
		return "", fmt.Errorf("failed to create user: %w", err)
	}

	if err := u.cache.Put(ctx, model.User{Username: user.Username, Challenge: stored, Answer: user.Answer}); err != nil {
		u.logger.Warn("Users service: failed to cache new user",
			"username", user.Username,
			"error", err.Error())
	}

	u.logger.Info("Users service: user added",
		"username", user.Username)

	return stored, nil
}

// RemoveUser deletes the user's files and durable record. The cache entry
// is evicted before and after the durable delete, so a failed eviction
// never leaves a cached user that no longer exists.
func (u *Users) RemoveUser(ctx context.Context, user model.User) error {
	if err := u.evict(ctx, user.Username); err != nil {
		return err
	}

	if err := u.store.Delete(ctx, user); err != nil {
		u.logger.Error("Users service: failed to delete user",
			"username", user.Username,
			"error", err.Error())
		if apierrors.IsKind(err, apierrors.KindMultipleFilesRemove) {
			return err
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}

	// a concurrent FindUser may have cached the user again
	if err := u.evict(ctx, user.Username); err != nil {
		return err
	}

	u.logger.Info("Users service: user removed",
		"username", user.Username)

	return nil
}

func (u *Users) evict(ctx context.Context, username string) error {
	if err := u.cache.Remove(ctx, username); err != nil {
		u.logger.Error("Users service: failed to remove cached user",
			"username", username,
			"error", err.Error())
		return fmt.Errorf("failed to remove cached user: %w", err)
	}
	return nil
}

func (u *Users) repairCache(ctx context.Context, username string) error {
	metrics.UserCacheRepairsTotal.Inc()

	user, err := u.store.Find(ctx, username)
	if errors.Is(err, model.ErrNotFound) {
		// the claim exists but the record does not; make sure no stale
		// entry claims otherwise
		if err := u.cache.Remove(ctx, username); err != nil {
			return fmt.Errorf("failed to repair user cache: %w", err)
		}
		return nil
	}
	if err != nil {
		u.logger.Error("Users service: failed to read user for cache repair",
			"username", username,
			"error", err.Error())
		return fmt.Errorf("failed to repair user cache: %w", err)
	}

	if err := u.cache.Put(ctx, user); err != nil {
		u.logger.Error("Users service: failed to repair user cache",
			"username", username,
			"error", err.Error())
		return fmt.Errorf("failed to repair user cache: %w", err)
	}
	return nil
}
