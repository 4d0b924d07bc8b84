// Package apierrors defines the domain error taxonomy surfaced to clients.
package apierrors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/dtroode/piggyvault/internal/model"
)

// Kind identifies a class of domain error.
type Kind int

const (
	KindInternal Kind = iota
	KindUserExists
	KindUsernameFormat
	KindFieldRequired
	KindFieldType
	KindFieldEmpty
	KindUserDoesNotExist
	KindChallengeMismatch
	KindTokenExpired
	KindTokenInvalid
	KindFileExists
	KindFileDoesNotExist
	KindFieldLength
	KindFieldHex
	KindMultipleFilesRemove
	KindUserNotAllowed
	KindBucketDoesNotExist
	KindBucketAccessDenied
	KindBucketAccessTimeout
	KindFieldMaxLength
)

var kindNames = map[Kind]string{
	KindInternal:            "internal",
	KindUserExists:          "user_exists",
	KindUsernameFormat:      "username_format",
	KindFieldRequired:       "field_required",
	KindFieldType:           "field_type",
	KindFieldEmpty:          "field_empty",
	KindUserDoesNotExist:    "user_does_not_exist",
	KindChallengeMismatch:   "challenge_mismatch",
	KindTokenExpired:        "token_expired",
	KindTokenInvalid:        "token_invalid",
	KindFileExists:          "file_exists",
	KindFileDoesNotExist:    "file_does_not_exist",
	KindFieldLength:         "field_length",
	KindFieldHex:            "field_hex",
	KindMultipleFilesRemove: "multiple_files_remove",
	KindUserNotAllowed:      "user_not_allowed",
	KindBucketDoesNotExist:  "bucket_does_not_exist",
	KindBucketAccessDenied:  "bucket_access_denied",
	KindBucketAccessTimeout: "bucket_access_timeout",
	KindFieldMaxLength:      "field_max_length",
}

// String returns a stable snake_case name, used as a metrics label.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// APIError is a domain error with its client-facing code and HTTP status.
type APIError struct {
	Kind    Kind
	Code    int
	Status  int
	Message string
	// Failed lists per-object failures for KindMultipleFilesRemove.
	Failed []model.ObjectError
}

func (e *APIError) Error() string {
	return e.Message
}

// Is matches any APIError of the same kind.
func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// IsKind reports whether err wraps an APIError of the given kind.
func IsKind(err error, kind Kind) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Kind == kind
}

// KindOf returns the kind of the wrapped APIError or KindInternal.
func KindOf(err error) Kind {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return KindInternal
	}
	return apiErr.Kind
}

func newErr(kind Kind, code, status int, msg string) *APIError {
	return &APIError{Kind: kind, Code: code, Status: status, Message: msg}
}

func NewErrInternal() *APIError {
	return newErr(KindInternal, 500, http.StatusInternalServerError, "Internal Server Error")
}

func NewErrUserExists() *APIError {
	return newErr(KindUserExists, 1000, http.StatusConflict, "User already exists")
}

func NewErrUsernameFormat() *APIError {
	return newErr(KindUsernameFormat, 1001, http.StatusConflict, "Username is not valid")
}

func NewErrFieldRequired(field string) *APIError {
	return newErr(KindFieldRequired, 1002, http.StatusConflict, "This field is required: "+field)
}

func NewErrFieldType(field, typ string) *APIError {
	return newErr(KindFieldType, 1003, http.StatusConflict, fmt.Sprintf("Expected %s to be a %s", field, typ))
}

func NewErrFieldEmpty(field string) *APIError {
	return newErr(KindFieldEmpty, 1004, http.StatusConflict, fmt.Sprintf("Expected %s to not be empty", field))
}

// NewErrUserDoesNotExist is answered with 401 and a link to registration.
func NewErrUserDoesNotExist() *APIError {
	return newErr(KindUserDoesNotExist, 1005, http.StatusUnauthorized, "The user does not exist")
}

func NewErrChallengeMismatch() *APIError {
	return newErr(KindChallengeMismatch, 1006, http.StatusForbidden, "The challenge does not match")
}

func NewErrTokenExpired() *APIError {
	return newErr(KindTokenExpired, 1007, http.StatusConflict, "The token has expired")
}

func NewErrTokenInvalid() *APIError {
	return newErr(KindTokenInvalid, 1008, http.StatusConflict, "The token is not valid")
}

func NewErrFileExists() *APIError {
	return newErr(KindFileExists, 1009, http.StatusConflict, "A file with that name already exists")
}

func NewErrFileDoesNotExist() *APIError {
	return newErr(KindFileDoesNotExist, 1010, http.StatusConflict, "The file does not exist")
}

func NewErrFieldLength(field string, length int) *APIError {
	return newErr(KindFieldLength, 1011, http.StatusConflict, fmt.Sprintf("Expected %s to be %d characters long", field, length))
}

func NewErrFieldHex(field string) *APIError {
	return newErr(KindFieldHex, 1012, http.StatusConflict, "This field is not in hex format: "+field)
}

// NewErrMultipleFilesRemove reports every object that could not be removed.
func NewErrMultipleFilesRemove(failed []model.ObjectError) *APIError {
	parts := make([]string, 0, len(failed))
	for _, f := range failed {
		parts = append(parts, fmt.Sprintf("%s [%s: %s]", f.Name, f.Code, f.Message))
	}
	e := newErr(KindMultipleFilesRemove, 1013, http.StatusInternalServerError,
		"There was an error deleting some files: "+strings.Join(parts, ", "))
	e.Failed = failed
	return e
}

func NewErrUserNotAllowed(username string) *APIError {
	return newErr(KindUserNotAllowed, 1014, http.StatusForbidden, "The user is not allowed: "+username)
}

func NewErrBucketDoesNotExist(bucket string) *APIError {
	return newErr(KindBucketDoesNotExist, 1015, http.StatusInternalServerError, "The configured bucket does not exist: "+bucket)
}

func NewErrBucketAccessDenied() *APIError {
	return newErr(KindBucketAccessDenied, 1017, http.StatusInternalServerError, "The access to the bucket is denied")
}

func NewErrBucketAccessTimeout() *APIError {
	return newErr(KindBucketAccessTimeout, 1018, http.StatusInternalServerError, "Request timed out when trying to access the bucket")
}

func NewErrFieldMaxLength(field string, length int) *APIError {
	return newErr(KindFieldMaxLength, 1019, http.StatusConflict, fmt.Sprintf("Expected %s to be at most %d characters long", field, length))
}
