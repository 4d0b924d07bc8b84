package context

import (
	stdctx "context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestManager_SetAndGetUsername(t *testing.T) {
	m := NewManager()
	ctx := m.SetUsernameToContext(stdctx.Background(), "foo")

	got, ok := m.GetUsernameFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, "foo", got)
}

func TestManager_GetUsername_NotFound(t *testing.T) {
	m := NewManager()
	_, ok := m.GetUsernameFromContext(stdctx.Background())
	assert.False(t, ok)
}

func TestManager_GetUsername_Empty(t *testing.T) {
	m := NewManager()
	ctx := m.SetUsernameToContext(stdctx.Background(), "")
	_, ok := m.GetUsernameFromContext(ctx)
	assert.False(t, ok)
}

func TestManager_SetUsername_Overrides(t *testing.T) {
	m := NewManager()
	ctx := m.SetUsernameToContext(stdctx.Background(), "foo")
	ctx = m.SetUsernameToContext(ctx, "bar")

	got, ok := m.GetUsernameFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, "bar", got)
}
