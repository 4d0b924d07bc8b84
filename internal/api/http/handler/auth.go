package handler

import (
	"context"
	"net/http"

	"github.com/dtroode/piggyvault/internal/apierrors"
	"github.com/dtroode/piggyvault/internal/logger"
	"github.com/dtroode/piggyvault/internal/model"
	"github.com/dtroode/piggyvault/internal/validate"
)

// AuthService defines the handshake and account operations.
type AuthService interface {
	Register(ctx context.Context, reg model.Registration) (model.Session, error)
	RequestChallenge(ctx context.Context, username string) (string, error)
	AnswerChallenge(ctx context.Context, username, answer string) (string, error)
	DeleteUser(ctx context.Context, username string) error
	Logout(ctx context.Context, username string) error
}

// Auth handles user and handshake endpoints.
type Auth struct {
	authService    AuthService
	contextManager model.ContextManager
	responder      *Responder
	logger         *logger.Logger
}

func NewAuth(authService AuthService, contextManager model.ContextManager, responder *Responder, logger *logger.Logger) *Auth {
	return &Auth{
		authService:    authService,
		contextManager: contextManager,
		responder:      responder,
		logger:         logger,
	}
}

// Root lists the entry points of the API.
func (h *Auth) Root(w http.ResponseWriter, _ *http.Request) {
	h.responder.OK(w, nil, h.responder.rootLinks())
}

// Register creates a user and returns its first session token.
func (h *Auth) Register(w http.ResponseWriter, r *http.Request) {
	payload, err := h.responder.decodePayload(w, r)
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}

	reg, err := validate.NewUser(payload)
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}

	h.logger.Debug("Auth handler: processing registration request",
		"username", reg.Username)

	session, err := h.authService.Register(r.Context(), reg)
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}

	h.responder.OK(w, map[string]string{
		"challenge": session.Challenge,
		"token":     session.Token,
	}, h.responder.fileLinks())
}

// RequestChallenge returns the stored challenge of the user in the query.
func (h *Auth) RequestChallenge(w http.ResponseWriter, r *http.Request) {
	payload := validate.Payload{}
	if query := r.URL.Query(); query.Has("username") {
		payload["username"] = query.Get("username")
	}

	username, err := validate.RequestChallenge(payload)
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}

	challenge, err := h.authService.RequestChallenge(r.Context(), username)
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}

	h.responder.OK(w, map[string]string{"challenge": challenge}, h.responder.challengeLinks())
}

// AnswerChallenge exchanges a correct answer for a new session token.
func (h *Auth) AnswerChallenge(w http.ResponseWriter, r *http.Request) {
	payload, err := h.responder.decodePayload(w, r)
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}

	username, answer, err := validate.AnswerChallenge(payload)
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}

	token, err := h.authService.AnswerChallenge(r.Context(), username, answer)
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}

	h.responder.OK(w, map[string]string{"token": token}, h.responder.fileLinks())
}

// DeleteUser removes the authenticated user with all of its files.
func (h *Auth) DeleteUser(w http.ResponseWriter, r *http.Request) {
	username, ok := h.contextManager.GetUsernameFromContext(r.Context())
	if !ok {
		h.responder.Error(w, r, apierrors.NewErrTokenInvalid())
		return
	}

	if err := h.authService.DeleteUser(r.Context(), username); err != nil {
		h.responder.Error(w, r, err)
		return
	}

	h.logger.Info("Auth handler: user deleted",
		"username", username)

	h.responder.OK(w, struct{}{}, h.responder.createUserLinks())
}

// Logout revokes the session of the authenticated user.
func (h *Auth) Logout(w http.ResponseWriter, r *http.Request) {
	username, ok := h.contextManager.GetUsernameFromContext(r.Context())
	if !ok {
		h.responder.Error(w, r, apierrors.NewErrTokenInvalid())
		return
	}

	if err := h.authService.Logout(r.Context(), username); err != nil {
		h.responder.Error(w, r, err)
		return
	}

	h.responder.OK(w, struct{}{}, Links{
		"request_auth_challenge": h.responder.Link(RelUser, PathRequestChallenge),
	})
}
