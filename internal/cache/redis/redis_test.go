package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/piggyvault/internal/model"
)

func newTestClient(t *testing.T) (*miniredis.Miniredis, context.Context) {
	t.Helper()
	return miniredis.RunT(t), context.Background()
}

func TestNewClient(t *testing.T) {
	mr, ctx := newTestClient(t)

	client, err := NewClient(ctx, mr.Addr(), "", 0)
	require.NoError(t, err)
	require.NoError(t, client.Close())

	addr := mr.Addr()
	mr.Close()
	_, err = NewClient(ctx, addr, "", 0)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect to redis")
}

func TestUserCache(t *testing.T) {
	mr, ctx := newTestClient(t)
	client, err := NewClient(ctx, mr.Addr(), "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	cache := NewUserCache(client)
	require.NoError(t, cache.Ping(ctx))

	_, err = cache.Get(ctx, "foo")
	assert.ErrorIs(t, err, model.ErrNotFound)

	user := model.User{Username: "foo", Challenge: "chal", Answer: "aa"}
	require.NoError(t, cache.Put(ctx, user))
	assert.Equal(t, "chal", mr.HGet("user:foo", "challenge"))
	assert.False(t, mr.Exists("foo"))

	got, err := cache.Get(ctx, "foo")
	require.NoError(t, err)
	assert.Equal(t, user, got)

	// a half-written hash is a miss, not a user with an empty answer
	mr.HSet("user:bar", "challenge", "c")
	_, err = cache.Get(ctx, "bar")
	assert.ErrorIs(t, err, model.ErrNotFound)

	require.NoError(t, cache.Remove(ctx, "foo"))
	require.NoError(t, cache.Remove(ctx, "foo"))
	_, err = cache.Get(ctx, "foo")
	assert.ErrorIs(t, err, model.ErrNotFound)

	mr.SetError("LOADING")
	_, err = cache.Get(ctx, "foo")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, model.ErrNotFound)
}

func TestSessionStore(t *testing.T) {
	mr, ctx := newTestClient(t)
	client, err := NewClient(ctx, mr.Addr(), "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	store := NewSessionStore(client)

	_, err = store.Get(ctx, "foo")
	assert.ErrorIs(t, err, model.ErrNotFound)

	require.NoError(t, store.Set(ctx, "foo", "tok-1", time.Hour))
	assert.Equal(t, time.Hour, mr.TTL("token-foo"))

	token, err := store.Get(ctx, "foo")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", token)

	require.NoError(t, store.Set(ctx, "foo", "tok-2", time.Hour))
	token, err = store.Get(ctx, "foo")
	require.NoError(t, err)
	assert.Equal(t, "tok-2", token)

	mr.FastForward(2 * time.Hour)
	_, err = store.Get(ctx, "foo")
	assert.ErrorIs(t, err, model.ErrNotFound)

	require.NoError(t, store.Set(ctx, "foo", "tok-3", time.Hour))
	require.NoError(t, store.Delete(ctx, "foo"))
	_, err = store.Get(ctx, "foo")
	assert.ErrorIs(t, err, model.ErrNotFound)
}
