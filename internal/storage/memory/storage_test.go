package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/piggyvault/internal/model"
)

func TestStorage_CreateObjectIfAbsent(t *testing.T) {
	ctx := context.Background()
	s := New("bucket")

	etag, err := s.CreateObjectIfAbsent(ctx, "a", []byte("one"))
	require.NoError(t, err)
	assert.NotEmpty(t, etag)

	_, err = s.CreateObjectIfAbsent(ctx, "a", []byte("two"))
	assert.ErrorIs(t, err, model.ErrAlreadyExists)

	content, err := s.GetObjectContent(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []byte("one"), content)
}

func TestStorage_ListAndDelete(t *testing.T) {
	ctx := context.Background()
	s := New("bucket")
	s.PutObject("users/foo/b", []byte("b"))
	s.PutObject("users/foo/a", []byte("a"))
	s.PutObject("users/foobar/a", []byte("a"))

	objects, err := s.ListObjectsByPrefix(ctx, "users/foo/")
	require.NoError(t, err)
	require.Len(t, objects, 2)
	assert.Equal(t, "users/foo/a", objects[0].Name)
	assert.Equal(t, "users/foo/b", objects[1].Name)

	s.FailDelete["users/foo/b"] = true
	failed, err := s.DeleteObjects(ctx, []string{"users/foo/a", "users/foo/b"})
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, "users/foo/b", failed[0].Name)

	_, err = s.StatObject(ctx, "users/foo/a")
	assert.ErrorIs(t, err, model.ErrNotFound)
	_, err = s.StatObject(ctx, "users/foobar/a")
	assert.NoError(t, err)

	require.NoError(t, s.DeleteObject(ctx, "users/foobar/a"))
	_, err = s.GetObjectContent(ctx, "users/foobar/a")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestStorage_Presign(t *testing.T) {
	ctx := context.Background()
	s := New("bucket")

	u, err := s.PresignGet(ctx, "users/foo/a", time.Minute)
	require.NoError(t, err)
	assert.Contains(t, u, "memory://bucket/users/foo/a")

	u, fields, err := s.PresignPost(ctx, "users/foo/a", time.Minute, 1024)
	require.NoError(t, err)
	assert.Equal(t, "memory://bucket/", u)
	assert.Equal(t, "users/foo/a", fields["key"])
	assert.Equal(t, "1024", fields["max"])

	ok, err := s.BucketExists(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}
