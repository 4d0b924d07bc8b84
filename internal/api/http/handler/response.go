package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/dtroode/piggyvault/internal/apierrors"
	"github.com/dtroode/piggyvault/internal/logger"
	"github.com/dtroode/piggyvault/internal/validate"
)

// Link relations.
const (
	RelUser = "user"
	RelFile = "file"
)

// Paths of the REST surface, relative to the public URL.
const (
	PathRoot             = "/"
	PathUser             = "/user/"
	PathRequestChallenge = "/user/auth/request-challenge"
	PathAnswerChallenge  = "/user/auth/answer-challenge"
	PathLogout           = "/user/logout"
	PathFiles            = "/files/"
	PathRequestUploadURL = "/file/request-upload-url"
	PathDeleteFile       = "/file/delete"
	PathHealth           = "/health"
	PathMetrics          = "/metrics"
)

type Link struct {
	Href string `json:"href"`
	Rel  string `json:"rel"`
}

type Links map[string]Link

type errorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type envelope struct {
	Status  int        `json:"status"`
	Content any        `json:"content,omitempty"`
	Error   *errorBody `json:"error,omitempty"`
	Links   Links      `json:"links,omitempty"`
}

// Responder writes JSON envelopes and builds hypermedia links against the
// public URL of the server.
type Responder struct {
	publicURL    string
	maxBodyBytes int64
	logger       *logger.Logger
}

func NewResponder(publicURL string, maxBodyBytes int64, logger *logger.Logger) *Responder {
	return &Responder{
		publicURL:    strings.TrimRight(publicURL, "/"),
		maxBodyBytes: maxBodyBytes,
		logger:       logger,
	}
}

// Link returns an absolute link to path.
func (r *Responder) Link(rel, path string) Link {
	return Link{Href: r.publicURL + path, Rel: rel}
}

func (r *Responder) createUserLinks() Links {
	return Links{"create_user": r.Link(RelUser, PathUser)}
}

func (r *Responder) rootLinks() Links {
	return Links{
		"create_user":            r.Link(RelUser, PathUser),
		"request_auth_challenge": r.Link(RelUser, PathRequestChallenge),
	}
}

func (r *Responder) challengeLinks() Links {
	return Links{
		"answer_auth_challenge": r.Link(RelUser, PathAnswerChallenge),
		"create_user":           r.Link(RelUser, PathUser),
	}
}

func (r *Responder) fileLinks() Links {
	return Links{
		"files_list":         r.Link(RelFile, PathFiles),
		"request_upload_url": r.Link(RelFile, PathRequestUploadURL),
	}
}

// OK writes a 200 envelope.
func (r *Responder) OK(w http.ResponseWriter, content any, links Links) {
	r.write(w, envelope{Status: http.StatusOK, Content: content, Links: links})
}

// Status writes a bare error envelope for a transport-level status such as
// 404 or 405.
func (r *Responder) Status(w http.ResponseWriter, status int) {
	r.write(w, envelope{
		Status: status,
		Error:  &errorBody{Code: status, Message: http.StatusText(status)},
	})
}

// Error maps err to its envelope. Errors that are not API errors are logged
// and reported as an opaque internal error.
func (r *Responder) Error(w http.ResponseWriter, req *http.Request, err error) {
	var statusErr *statusError
	if errors.As(err, &statusErr) {
		r.Status(w, statusErr.status)
		return
	}

	var apiErr *apierrors.APIError
	if !errors.As(err, &apiErr) || apiErr.Kind == apierrors.KindInternal {
		r.logger.Error("HTTP handler: request failed",
			"method", req.Method,
			"path", req.URL.Path,
			"error", err.Error())
		apiErr = apierrors.NewErrInternal()
	}

	env := envelope{
		Status: apiErr.Status,
		Error:  &errorBody{Code: apiErr.Code, Message: apiErr.Message},
	}
	if apiErr.Kind == apierrors.KindUserDoesNotExist {
		env.Links = r.createUserLinks()
	}
	if apiErr.Kind == apierrors.KindMultipleFilesRemove {
		r.logger.Error("HTTP handler: some files were not removed",
			"path", req.URL.Path,
			"error", apiErr.Message)
	}

	r.write(w, env)
}

func (r *Responder) write(w http.ResponseWriter, env envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(env.Status)
	if err := json.NewEncoder(w).Encode(env); err != nil {
		r.logger.Error("HTTP handler: failed to write response",
			"error", err.Error())
	}
}

type statusError struct {
	status int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("http status %d", e.status)
}

// decodePayload reads a JSON object body. An empty body yields an empty
// payload so that field validation reports what is missing.
func (r *Responder) decodePayload(w http.ResponseWriter, req *http.Request) (validate.Payload, error) {
	body := req.Body
	if r.maxBodyBytes > 0 {
		body = http.MaxBytesReader(w, req.Body, r.maxBodyBytes)
	}

	payload := validate.Payload{}
	err := json.NewDecoder(body).Decode(&payload)
	switch {
	case err == nil, errors.Is(err, io.EOF):
		return payload, nil
	default:
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, &statusError{status: http.StatusRequestEntityTooLarge}
		}
		return nil, &statusError{status: http.StatusBadRequest}
	}
}
