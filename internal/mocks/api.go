package mocks

import (
	"context"
	"net"

	"github.com/stretchr/testify/mock"

	"github.com/dtroode/piggyvault/internal/model"
)

// AuthService is a mock of the handler's auth dependency.
type AuthService struct{ mock.Mock }

func NewAuthService(t testingT) *AuthService {
	m := &AuthService{}
	register(&m.Mock, t)
	return m
}

func (m *AuthService) Register(ctx context.Context, reg model.Registration) (model.Session, error) {
	ret := m.Called(ctx, reg)
	return ret.Get(0).(model.Session), errorAt(ret, 1)
}

func (m *AuthService) RequestChallenge(ctx context.Context, username string) (string, error) {
	ret := m.Called(ctx, username)
	return ret.String(0), errorAt(ret, 1)
}

func (m *AuthService) AnswerChallenge(ctx context.Context, username, answer string) (string, error) {
	ret := m.Called(ctx, username, answer)
	return ret.String(0), errorAt(ret, 1)
}

func (m *AuthService) DeleteUser(ctx context.Context, username string) error {
	ret := m.Called(ctx, username)
	return errorAt(ret, 0)
}

func (m *AuthService) Logout(ctx context.Context, username string) error {
	ret := m.Called(ctx, username)
	return errorAt(ret, 0)
}

// FilesService is a mock of the handler's files dependency.
type FilesService struct{ mock.Mock }

func NewFilesService(t testingT) *FilesService {
	m := &FilesService{}
	register(&m.Mock, t)
	return m
}

func (m *FilesService) List(ctx context.Context, username string) ([]model.File, error) {
	ret := m.Called(ctx, username)
	files, _ := ret.Get(0).([]model.File)
	return files, errorAt(ret, 1)
}

func (m *FilesService) UploadForm(ctx context.Context, username, filename string) (model.UploadForm, error) {
	ret := m.Called(ctx, username, filename)
	return ret.Get(0).(model.UploadForm), errorAt(ret, 1)
}

func (m *FilesService) Delete(ctx context.Context, username, filename string) error {
	ret := m.Called(ctx, username, filename)
	return errorAt(ret, 0)
}

// HealthChecker is a mock of the health dependency.
type HealthChecker struct{ mock.Mock }

func NewHealthChecker(t testingT) *HealthChecker {
	m := &HealthChecker{}
	register(&m.Mock, t)
	return m
}

func (m *HealthChecker) Check(ctx context.Context) ([]model.ComponentStatus, bool) {
	ret := m.Called(ctx)
	statuses, _ := ret.Get(0).([]model.ComponentStatus)
	return statuses, ret.Bool(1)
}

// TokenService is a mock of the guard's token dependency.
type TokenService struct{ mock.Mock }

func NewTokenService(t testingT) *TokenService {
	m := &TokenService{}
	register(&m.Mock, t)
	return m
}

func (m *TokenService) Authenticate(ctx context.Context, token string) (string, error) {
	ret := m.Called(ctx, token)
	return ret.String(0), errorAt(ret, 1)
}

type SecurityLayer struct{ mock.Mock }

func NewSecurityLayer(t testingT) *SecurityLayer {
	m := &SecurityLayer{}
	register(&m.Mock, t)
	return m
}

func (m *SecurityLayer) Listen(protocol, addr string) (net.Listener, error) {
	ret := m.Called(protocol, addr)
	ln, _ := ret.Get(0).(net.Listener)
	return ln, errorAt(ret, 1)
}
