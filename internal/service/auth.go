package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/dtroode/piggyvault/internal/apierrors"
	"github.com/dtroode/piggyvault/internal/logger"
	"github.com/dtroode/piggyvault/internal/metrics"
	"github.com/dtroode/piggyvault/internal/model"
)

// Auth runs the challenge-response handshake.
type Auth struct {
	users        *Users
	tokenService *TokenService
	allowList    map[string]struct{}
	logger       *logger.Logger
}

// NewAuth creates the handshake service. An empty allowList lets anyone register.
func NewAuth(users *Users, tokenService *TokenService, allowList []string, logger *logger.Logger) *Auth {
	allowed := make(map[string]struct{}, len(allowList))
	for _, name := range allowList {
		allowed[name] = struct{}{}
	}
	return &Auth{
		users:        users,
		tokenService: tokenService,
		allowList:    allowed,
		logger:       logger,
	}
}

// Register creates the user and opens a first session. The challenge is
// read back from storage and must equal the one submitted.
func (a *Auth) Register(ctx context.Context, reg model.Registration) (model.Session, error) {
	a.logger.Debug("Auth service: starting user registration",
		"username", reg.Username)

	if !a.isAllowed(reg.Username) {
		a.logger.Info("Auth service: user is not allowed to register",
			"username", reg.Username)
		return model.Session{}, apierrors.NewErrUserNotAllowed(reg.Username)
	}

	stored, err := a.users.AddUser(ctx, model.User{
		Username:  reg.Username,
		Challenge: reg.Challenge,
		Answer:    reg.Answer,
	})
	if err != nil {
		return model.Session{}, err
	}

	if stored != reg.Challenge {
		a.logger.Error("Auth service: stored challenge differs from submitted one",
			"username", reg.Username)
		return model.Session{}, fmt.Errorf("stored challenge for %q does not match the submitted one", reg.Username)
	}

	token, err := a.tokenService.Issue(ctx, reg.Username)
	if err != nil {
		a.logger.Error("Auth service: failed to issue token",
			"username", reg.Username,
			"error", err.Error())
		return model.Session{}, fmt.Errorf("failed to issue token: %w", err)
	}

	a.logger.Info("Auth service: user registered successfully",
		"username", reg.Username)

	return model.Session{Token: token, Challenge: stored}, nil
}

// RequestChallenge returns the stored challenge of username.
func (a *Auth) RequestChallenge(ctx context.Context, username string) (string, error) {
	user, err := a.users.FindUser(ctx, username)
	if err != nil {
		return "", err
	}
	return user.Challenge, nil
}

// AnswerChallenge compares answer with the stored one in constant time and
// issues a new token on a match, superseding any earlier token.
func (a *Auth) AnswerChallenge(ctx context.Context, username, answer string) (string, error) {
	a.logger.Debug("Auth service: answering challenge",
		"username", username)

	user, err := a.users.FindUser(ctx, username)
	if err != nil {
		metrics.AuthFailuresTotal.WithLabelValues(apierrors.KindOf(err).String()).Inc()
		return "", err
	}

	if subtle.ConstantTimeCompare([]byte(user.Answer), []byte(answer)) != 1 {
		metrics.AuthFailuresTotal.WithLabelValues(apierrors.KindChallengeMismatch.String()).Inc()
		a.logger.Info("Auth service: challenge mismatch",
			"username", username)
		return "", apierrors.NewErrChallengeMismatch()
	}

	token, err := a.tokenService.Issue(ctx, username)
	if err != nil {
		a.logger.Error("Auth service: failed to issue token",
			"username", username,
			"error", err.Error())
		return "", fmt.Errorf("failed to issue token: %w", err)
	}

	a.logger.Info("Auth service: user authenticated successfully",
		"username", username)

	return token, nil
}

// DeleteUser removes the user's files and record and revokes the session.
func (a *Auth) DeleteUser(ctx context.Context, username string) error {
	user, err := a.users.FindUser(ctx, username)
	if err != nil {
		return err
	}

	// the session goes even if the removal fails halfway
	removeErr := a.users.RemoveUser(ctx, user)

	if err := a.tokenService.RevokeAll(ctx, username); err != nil {
		a.logger.Error("Auth service: failed to revoke tokens",
			"username", username,
			"error", err.Error())
		return errors.Join(removeErr, fmt.Errorf("failed to revoke tokens: %w", err))
	}

	if removeErr != nil {
		return removeErr
	}

	a.logger.Info("Auth service: user deleted",
		"username", username)

	return nil
}

// Logout revokes the active session of username.
func (a *Auth) Logout(ctx context.Context, username string) error {
	if err := a.tokenService.RevokeAll(ctx, username); err != nil {
		a.logger.Error("Auth service: failed to revoke tokens",
			"username", username,
			"error", err.Error())
		return fmt.Errorf("failed to revoke tokens: %w", err)
	}
	return nil
}

func (a *Auth) isAllowed(username string) bool {
	if len(a.allowList) == 0 {
		return true
	}
	_, ok := a.allowList[username]
	return ok
}
