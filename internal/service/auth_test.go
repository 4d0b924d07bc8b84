package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/piggyvault/internal/apierrors"
	"github.com/dtroode/piggyvault/internal/cache/memory"
	"github.com/dtroode/piggyvault/internal/mocks"
	"github.com/dtroode/piggyvault/internal/model"
	"github.com/dtroode/piggyvault/internal/repository/objectstore"
	memstorage "github.com/dtroode/piggyvault/internal/storage/memory"
	"github.com/dtroode/piggyvault/internal/testutil"
)

func newAuth(t *testing.T, allowList ...string) (*Auth, *TokenService) {
	t.Helper()
	users, _, _ := newMemoryUsers(t)
	tokens := NewTokenService(newAEAD(t), newSessionStore(t), time.Hour, testutil.MakeNoopLogger())
	return NewAuth(users, tokens, allowList, testutil.MakeNoopLogger()), tokens
}

func TestAuth_Handshake(t *testing.T) {
	ctx := context.Background()
	auth, tokens := newAuth(t)

	session, err := auth.Register(ctx, model.Registration{Username: "foo", Challenge: "chal", Answer: answerA})
	require.NoError(t, err)
	assert.Equal(t, "chal", session.Challenge)
	assert.NotEmpty(t, session.Token)

	challenge, err := auth.RequestChallenge(ctx, "foo")
	require.NoError(t, err)
	assert.Equal(t, "chal", challenge)

	tok, err := auth.AnswerChallenge(ctx, "foo", answerA)
	require.NoError(t, err)

	username, err := tokens.Authenticate(ctx, tok)
	require.NoError(t, err)
	assert.Equal(t, "foo", username)

	// the registration token is superseded by the new one
	_, err = tokens.Authenticate(ctx, session.Token)
	assert.True(t, apierrors.IsKind(err, apierrors.KindTokenExpired))
}

func TestAuth_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("duplicate", func(t *testing.T) {
		auth, _ := newAuth(t)
		_, err := auth.Register(ctx, model.Registration{Username: "foo", Challenge: "chal", Answer: answerA})
		require.NoError(t, err)

		_, err = auth.Register(ctx, model.Registration{Username: "foo", Challenge: "again", Answer: answerA})
		assert.True(t, apierrors.IsKind(err, apierrors.KindUserExists))

		challenge, err := auth.RequestChallenge(ctx, "foo")
		require.NoError(t, err)
		assert.Equal(t, "chal", challenge)
	})

	t.Run("allow list", func(t *testing.T) {
		auth, _ := newAuth(t, "alice")

		_, err := auth.Register(ctx, model.Registration{Username: "bob", Challenge: "chal", Answer: answerA})
		require.True(t, apierrors.IsKind(err, apierrors.KindUserNotAllowed))
		assert.Contains(t, err.Error(), "bob")

		_, err = auth.Register(ctx, model.Registration{Username: "alice", Challenge: "chal", Answer: answerA})
		assert.NoError(t, err)
	})

	t.Run("stored challenge differs", func(t *testing.T) {
		store := mocks.NewUserStore(t)
		cache := mocks.NewUserCache(t)
		user := model.User{Username: "foo", Challenge: "chal", Answer: answerA}
		store.On("Create", ctx, user).Return("corrupted", nil).Once()
		cache.On("Put", ctx, model.User{Username: "foo", Challenge: "corrupted", Answer: answerA}).Return(nil).Once()

		tokens := NewTokenService(mocks.NewTokenCodec(t), mocks.NewSessionStore(t), time.Hour, testutil.MakeNoopLogger())
		auth := NewAuth(NewUsers(store, cache, testutil.MakeNoopLogger()), tokens, nil, testutil.MakeNoopLogger())

		_, err := auth.Register(ctx, model.Registration{Username: "foo", Challenge: "chal", Answer: answerA})
		require.Error(t, err)
		assert.Equal(t, apierrors.KindInternal, apierrors.KindOf(err))
	})
}

func TestAuth_AnswerChallenge(t *testing.T) {
	ctx := context.Background()
	auth, _ := newAuth(t)
	_, err := auth.Register(ctx, model.Registration{Username: "foo", Challenge: "chal", Answer: answerA})
	require.NoError(t, err)

	tests := []struct {
		name     string
		username string
		answer   string
		wantKind apierrors.Kind
	}{
		{name: "wrong answer", username: "foo", answer: strings.Repeat("b", 32), wantKind: apierrors.KindChallengeMismatch},
		{name: "short answer", username: "foo", answer: "a", wantKind: apierrors.KindChallengeMismatch},
		{name: "unknown user", username: "ghost", answer: answerA, wantKind: apierrors.KindUserDoesNotExist},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := auth.AnswerChallenge(ctx, tt.username, tt.answer)
			assert.True(t, apierrors.IsKind(err, tt.wantKind))
		})
	}
}

func TestAuth_DeleteUser(t *testing.T) {
	ctx := context.Background()
	auth, tokens := newAuth(t)

	session, err := auth.Register(ctx, model.Registration{Username: "foo", Challenge: "chal", Answer: answerA})
	require.NoError(t, err)
	_, err = auth.Register(ctx, model.Registration{Username: "foo-bar", Challenge: "chal", Answer: answerA})
	require.NoError(t, err)

	require.NoError(t, auth.DeleteUser(ctx, "foo"))

	_, err = tokens.Authenticate(ctx, session.Token)
	assert.True(t, apierrors.IsKind(err, apierrors.KindTokenExpired))

	_, err = auth.RequestChallenge(ctx, "foo")
	assert.True(t, apierrors.IsKind(err, apierrors.KindUserDoesNotExist))

	challenge, err := auth.RequestChallenge(ctx, "foo-bar")
	require.NoError(t, err)
	assert.Equal(t, "chal", challenge)

	err = auth.DeleteUser(ctx, "foo")
	assert.True(t, apierrors.IsKind(err, apierrors.KindUserDoesNotExist))

	_, err = auth.Register(ctx, model.Registration{Username: "foo", Challenge: "fresh", Answer: answerA})
	assert.NoError(t, err)
}

// flakyCache is a memory cache whose Remove fails while down is set.
type flakyCache struct {
	*memory.UserCache
	down bool
}

func (c *flakyCache) Remove(ctx context.Context, username string) error {
	if c.down {
		return errors.New("cache down")
	}
	return c.UserCache.Remove(ctx, username)
}

func TestAuth_DeleteUserRevokesSessionOnFailure(t *testing.T) {
	ctx := context.Background()

	t.Run("cache removal fails", func(t *testing.T) {
		storage := memstorage.New("bucket")
		files := objectstore.NewFileRepository(storage, time.Hour, 1<<20)
		store := objectstore.NewUserRepository(storage, files, time.Minute, testutil.MakeNoopLogger())
		cache := &flakyCache{UserCache: memory.NewUserCache()}
		tokens := NewTokenService(newAEAD(t), newSessionStore(t), time.Hour, testutil.MakeNoopLogger())
		auth := NewAuth(NewUsers(store, cache, testutil.MakeNoopLogger()), tokens, nil, testutil.MakeNoopLogger())

		session, err := auth.Register(ctx, model.Registration{Username: "foo", Challenge: "chal", Answer: answerA})
		require.NoError(t, err)

		cache.down = true
		assert.ErrorContains(t, auth.DeleteUser(ctx, "foo"), "cache down")

		_, err = tokens.Authenticate(ctx, session.Token)
		assert.True(t, apierrors.IsKind(err, apierrors.KindTokenExpired))

		// nothing durable was removed, so the user and the cache agree
		_, err = store.Find(ctx, "foo")
		require.NoError(t, err)
		challenge, err := auth.RequestChallenge(ctx, "foo")
		require.NoError(t, err)
		assert.Equal(t, "chal", challenge)

		cache.down = false
		require.NoError(t, auth.DeleteUser(ctx, "foo"))

		_, err = auth.AnswerChallenge(ctx, "foo", answerA)
		assert.True(t, apierrors.IsKind(err, apierrors.KindUserDoesNotExist))
	})

	t.Run("durable delete fails", func(t *testing.T) {
		storage := memstorage.New("bucket")
		files := objectstore.NewFileRepository(storage, time.Hour, 1<<20)
		store := objectstore.NewUserRepository(storage, files, time.Minute, testutil.MakeNoopLogger())
		tokens := NewTokenService(newAEAD(t), newSessionStore(t), time.Hour, testutil.MakeNoopLogger())
		auth := NewAuth(NewUsers(store, memory.NewUserCache(), testutil.MakeNoopLogger()), tokens, nil, testutil.MakeNoopLogger())

		session, err := auth.Register(ctx, model.Registration{Username: "foo", Challenge: "chal", Answer: answerA})
		require.NoError(t, err)
		storage.FailDelete["admin$/challenges/foo$"+answerA] = true

		err = auth.DeleteUser(ctx, "foo")
		assert.True(t, apierrors.IsKind(err, apierrors.KindMultipleFilesRemove))

		_, err = tokens.Authenticate(ctx, session.Token)
		assert.True(t, apierrors.IsKind(err, apierrors.KindTokenExpired))
	})
}

func TestAuth_Logout(t *testing.T) {
	ctx := context.Background()
	auth, tokens := newAuth(t)

	session, err := auth.Register(ctx, model.Registration{Username: "foo", Challenge: "chal", Answer: answerA})
	require.NoError(t, err)

	require.NoError(t, auth.Logout(ctx, "foo"))

	_, err = tokens.Authenticate(ctx, session.Token)
	assert.True(t, apierrors.IsKind(err, apierrors.KindTokenExpired))
}
