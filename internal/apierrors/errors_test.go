package apierrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dtroode/piggyvault/internal/model"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name    string
		err     *APIError
		kind    Kind
		code    int
		status  int
		message string
	}{
		{"user exists", NewErrUserExists(), KindUserExists, 1000, http.StatusConflict, "User already exists"},
		{"user does not exist", NewErrUserDoesNotExist(), KindUserDoesNotExist, 1005, http.StatusUnauthorized, "The user does not exist"},
		{"challenge mismatch", NewErrChallengeMismatch(), KindChallengeMismatch, 1006, http.StatusForbidden, "The challenge does not match"},
		{"token expired", NewErrTokenExpired(), KindTokenExpired, 1007, http.StatusConflict, "The token has expired"},
		{"token invalid", NewErrTokenInvalid(), KindTokenInvalid, 1008, http.StatusConflict, "The token is not valid"},
		{"field required", NewErrFieldRequired("username"), KindFieldRequired, 1002, http.StatusConflict, "This field is required: username"},
		{"field type", NewErrFieldType("answer", "string"), KindFieldType, 1003, http.StatusConflict, "Expected answer to be a string"},
		{"field length", NewErrFieldLength("answer", 32), KindFieldLength, 1011, http.StatusConflict, "Expected answer to be 32 characters long"},
		{"field max length", NewErrFieldMaxLength("username", 50), KindFieldMaxLength, 1019, http.StatusConflict, "Expected username to be at most 50 characters long"},
		{"user not allowed", NewErrUserNotAllowed("eve"), KindUserNotAllowed, 1014, http.StatusForbidden, "The user is not allowed: eve"},
		{"internal", NewErrInternal(), KindInternal, 500, http.StatusInternalServerError, "Internal Server Error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.kind, tt.err.Kind)
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.status, tt.err.Status)
			assert.Equal(t, tt.message, tt.err.Error())
		})
	}
}

func TestNewErrMultipleFilesRemove(t *testing.T) {
	failed := []model.ObjectError{
		{Name: "users/foo/a.txt", Code: "AccessDenied", Message: "denied"},
		{Name: "users/foo/b.txt", Code: "InternalError", Message: "boom"},
	}

	err := NewErrMultipleFilesRemove(failed)

	assert.Equal(t, 1013, err.Code)
	assert.Equal(t, http.StatusInternalServerError, err.Status)
	assert.Equal(t, failed, err.Failed)
	assert.Equal(t,
		"There was an error deleting some files: users/foo/a.txt [AccessDenied: denied], users/foo/b.txt [InternalError: boom]",
		err.Message)
}

func TestIsKind(t *testing.T) {
	wrapped := fmt.Errorf("failed to find user: %w", NewErrUserDoesNotExist())

	assert.True(t, IsKind(wrapped, KindUserDoesNotExist))
	assert.False(t, IsKind(wrapped, KindUserExists))
	assert.False(t, IsKind(errors.New("plain"), KindUserExists))
	assert.True(t, errors.Is(wrapped, NewErrUserDoesNotExist()))
	assert.False(t, errors.Is(wrapped, NewErrTokenInvalid()))
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindTokenInvalid, KindOf(fmt.Errorf("x: %w", NewErrTokenInvalid())))
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
	assert.Equal(t, "token_invalid", KindTokenInvalid.String())
	assert.Equal(t, "kind(99)", Kind(99).String())
}
