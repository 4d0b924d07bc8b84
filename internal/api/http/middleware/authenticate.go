package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/dtroode/piggyvault/internal/api/http/handler"
	"github.com/dtroode/piggyvault/internal/apierrors"
	"github.com/dtroode/piggyvault/internal/logger"
	"github.com/dtroode/piggyvault/internal/metrics"
	"github.com/dtroode/piggyvault/internal/model"
)

// TokenService resolves the username of an active session token.
type TokenService interface {
	Authenticate(ctx context.Context, token string) (string, error)
}

// Authenticate guards routes with a bearer session token and injects the
// username into the request context.
type Authenticate struct {
	tokenService   TokenService
	contextManager model.ContextManager
	responder      *handler.Responder
	logger         *logger.Logger
}

func NewAuthenticate(tokenService TokenService, contextManager model.ContextManager, responder *handler.Responder, logger *logger.Logger) *Authenticate {
	return &Authenticate{
		tokenService:   tokenService,
		contextManager: contextManager,
		responder:      responder,
		logger:         logger,
	}
}

// Handle is the chi middleware.
func (m *Authenticate) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r.Header.Get("Authorization"))
		if !ok {
			metrics.AuthFailuresTotal.WithLabelValues(apierrors.KindTokenInvalid.String()).Inc()
			m.logger.Debug("Authenticate middleware: malformed or missing bearer token",
				"path", r.URL.Path)
			m.responder.Error(w, r, apierrors.NewErrTokenInvalid())
			return
		}

		username, err := m.tokenService.Authenticate(r.Context(), token)
		if err != nil {
			metrics.AuthFailuresTotal.WithLabelValues(apierrors.KindOf(err).String()).Inc()
			m.logger.Debug("Authenticate middleware: token rejected",
				"path", r.URL.Path,
				"error", err.Error())
			m.responder.Error(w, r, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(m.contextManager.SetUsernameToContext(r.Context(), username)))
	})
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}
	for _, c := range token {
		if !isTokenChar(c) {
			return "", false
		}
	}
	return token, true
}

// isTokenChar accepts the base64url alphabet and the dots of a JWT.
func isTokenChar(c rune) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	case c == '-', c == '_', c == '.':
		return true
	}
	return false
}
