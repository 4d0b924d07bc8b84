package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/dtroode/piggyvault/internal/model"
)

// UserStore is a mock of model.UserStore.
type UserStore struct{ mock.Mock }

func NewUserStore(t testingT) *UserStore {
	m := &UserStore{}
	register(&m.Mock, t)
	return m
}

func (m *UserStore) Create(ctx context.Context, user model.User) (string, error) {
	ret := m.Called(ctx, user)
	return ret.String(0), errorAt(ret, 1)
}

func (m *UserStore) Find(ctx context.Context, username string) (model.User, error) {
	ret := m.Called(ctx, username)
	return ret.Get(0).(model.User), errorAt(ret, 1)
}

func (m *UserStore) Delete(ctx context.Context, user model.User) error {
	ret := m.Called(ctx, user)
	return errorAt(ret, 0)
}

// UserCache is a mock of model.UserCache.
type UserCache struct{ mock.Mock }

func NewUserCache(t testingT) *UserCache {
	m := &UserCache{}
	register(&m.Mock, t)
	return m
}

func (m *UserCache) Get(ctx context.Context, username string) (model.User, error) {
	ret := m.Called(ctx, username)
	return ret.Get(0).(model.User), errorAt(ret, 1)
}

func (m *UserCache) Put(ctx context.Context, user model.User) error {
	ret := m.Called(ctx, user)
	return errorAt(ret, 0)
}

func (m *UserCache) Remove(ctx context.Context, username string) error {
	ret := m.Called(ctx, username)
	return errorAt(ret, 0)
}

func (m *UserCache) Ping(ctx context.Context) error {
	ret := m.Called(ctx)
	return errorAt(ret, 0)
}

// SessionStore is a mock of model.SessionStore.
type SessionStore struct{ mock.Mock }

func NewSessionStore(t testingT) *SessionStore {
	m := &SessionStore{}
	register(&m.Mock, t)
	return m
}

func (m *SessionStore) Set(ctx context.Context, username, token string, ttl time.Duration) error {
	ret := m.Called(ctx, username, token, ttl)
	return errorAt(ret, 0)
}

func (m *SessionStore) Get(ctx context.Context, username string) (string, error) {
	ret := m.Called(ctx, username)
	return ret.String(0), errorAt(ret, 1)
}

func (m *SessionStore) Delete(ctx context.Context, username string) error {
	ret := m.Called(ctx, username)
	return errorAt(ret, 0)
}

// TokenCodec is a mock of model.TokenCodec.
type TokenCodec struct{ mock.Mock }

func NewTokenCodec(t testingT) *TokenCodec {
	m := &TokenCodec{}
	register(&m.Mock, t)
	return m
}

func (m *TokenCodec) Encode(claims model.TokenClaims) (string, error) {
	ret := m.Called(claims)
	return ret.String(0), errorAt(ret, 1)
}

func (m *TokenCodec) Decode(token string) (model.TokenClaims, error) {
	ret := m.Called(token)
	return ret.Get(0).(model.TokenClaims), errorAt(ret, 1)
}

// FileStore is a mock of model.FileStore.
type FileStore struct{ mock.Mock }

func NewFileStore(t testingT) *FileStore {
	m := &FileStore{}
	register(&m.Mock, t)
	return m
}

func (m *FileStore) List(ctx context.Context, username string) ([]model.File, error) {
	ret := m.Called(ctx, username)
	files, _ := ret.Get(0).([]model.File)
	return files, errorAt(ret, 1)
}

func (m *FileStore) UploadForm(ctx context.Context, username, filename string) (model.UploadForm, error) {
	ret := m.Called(ctx, username, filename)
	return ret.Get(0).(model.UploadForm), errorAt(ret, 1)
}

func (m *FileStore) Remove(ctx context.Context, username, filename string) error {
	ret := m.Called(ctx, username, filename)
	return errorAt(ret, 0)
}

func (m *FileStore) RemoveAll(ctx context.Context, username string) error {
	ret := m.Called(ctx, username)
	return errorAt(ret, 0)
}
