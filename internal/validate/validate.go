// Package validate checks decoded request payloads and normalizes usernames.
package validate

import (
	"regexp"
	"strings"

	"github.com/dtroode/piggyvault/internal/apierrors"
	"github.com/dtroode/piggyvault/internal/model"
)

// Payload is a decoded JSON request body.
type Payload map[string]any

// FilenameMaxLength is the longest accepted file name.
const FilenameMaxLength = 255

var usernamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// NewUser validates a registration payload.
func NewUser(p Payload) (model.Registration, error) {
	if err := requireFields(p, "username", "challenge", "answer"); err != nil {
		return model.Registration{}, err
	}

	username, err := Username("username", p["username"])
	if err != nil {
		return model.Registration{}, err
	}
	challenge, err := stringField(p, "challenge")
	if err != nil {
		return model.Registration{}, err
	}
	answer, err := stringField(p, "answer")
	if err != nil {
		return model.Registration{}, err
	}
	if len(answer) != model.AnswerLength {
		return model.Registration{}, apierrors.NewErrFieldLength("answer", model.AnswerLength)
	}
	if !isHex(answer) {
		return model.Registration{}, apierrors.NewErrFieldHex("answer")
	}
	if challenge == "" {
		return model.Registration{}, apierrors.NewErrFieldEmpty("challenge")
	}

	return model.Registration{Username: username, Challenge: challenge, Answer: answer}, nil
}

// RequestChallenge validates the username of a challenge request.
func RequestChallenge(p Payload) (string, error) {
	if err := requireFields(p, "username"); err != nil {
		return "", err
	}
	return Username("username", p["username"])
}

// AnswerChallenge validates an answer payload. The answer length is not
// checked here: a wrong length is a mismatch, not a malformed request.
func AnswerChallenge(p Payload) (username, answer string, err error) {
	if err = requireFields(p, "username", "answer"); err != nil {
		return "", "", err
	}
	answer, err = stringField(p, "answer")
	if err != nil {
		return "", "", err
	}
	username, err = Username("username", p["username"])
	if err != nil {
		return "", "", err
	}
	return username, answer, nil
}

// Filename validates the filename field used by upload and delete requests.
func Filename(p Payload) (string, error) {
	if err := requireFields(p, "filename"); err != nil {
		return "", err
	}
	name, err := stringField(p, "filename")
	if err != nil {
		return "", err
	}
	if name == "" {
		return "", apierrors.NewErrFieldEmpty("filename")
	}
	if len(name) > FilenameMaxLength {
		return "", apierrors.NewErrFieldMaxLength("filename", FilenameMaxLength)
	}
	if strings.Contains(name, "/") || name == "." || name == ".." {
		return "", apierrors.NewErrFieldType("filename", "plain file name")
	}
	return name, nil
}

// Username trims and lower-cases raw and checks it against the username rules.
func Username(field string, raw any) (string, error) {
	s, ok := raw.(string)
	if !ok {
		return "", apierrors.NewErrFieldType(field, "string")
	}

	username := strings.ToLower(strings.TrimSpace(s))

	if username == "" {
		return "", apierrors.NewErrFieldEmpty(field)
	}
	if len(username) > model.UsernameMaxLength {
		return "", apierrors.NewErrFieldMaxLength(field, model.UsernameMaxLength)
	}
	if !usernamePattern.MatchString(username) {
		return "", apierrors.NewErrUsernameFormat()
	}
	return username, nil
}

func requireFields(p Payload, fields ...string) error {
	for _, f := range fields {
		if v, ok := p[f]; !ok || v == nil {
			return apierrors.NewErrFieldRequired(f)
		}
	}
	return nil
}

func stringField(p Payload, field string) (string, error) {
	s, ok := p[field].(string)
	if !ok {
		return "", apierrors.NewErrFieldType(field, "string")
	}
	return s, nil
}

func isHex(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}
