package handler

import (
	"context"
	"net/http"

	"github.com/dtroode/piggyvault/internal/apierrors"
	"github.com/dtroode/piggyvault/internal/logger"
	"github.com/dtroode/piggyvault/internal/model"
	"github.com/dtroode/piggyvault/internal/validate"
)

// FilesService defines the per-user file operations.
type FilesService interface {
	List(ctx context.Context, username string) ([]model.File, error)
	UploadForm(ctx context.Context, username, filename string) (model.UploadForm, error)
	Delete(ctx context.Context, username, filename string) error
}

// Files handles file endpoints. Every route behind it is guarded.
type Files struct {
	filesService   FilesService
	contextManager model.ContextManager
	responder      *Responder
	logger         *logger.Logger
}

func NewFiles(filesService FilesService, contextManager model.ContextManager, responder *Responder, logger *logger.Logger) *Files {
	return &Files{
		filesService:   filesService,
		contextManager: contextManager,
		responder:      responder,
		logger:         logger,
	}
}

type fileContent struct {
	Filename string `json:"filename"`
	Checksum string `json:"checksum"`
	Size     int64  `json:"size"`
	URL      string `json:"url"`
}

type fileEntry struct {
	Content fileContent `json:"content"`
	Links   Links       `json:"links"`
}

// List returns the caller's files with presigned read links.
func (h *Files) List(w http.ResponseWriter, r *http.Request) {
	username, ok := h.contextManager.GetUsernameFromContext(r.Context())
	if !ok {
		h.responder.Error(w, r, apierrors.NewErrTokenInvalid())
		return
	}

	files, err := h.filesService.List(r.Context(), username)
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}

	entries := make([]fileEntry, 0, len(files))
	for _, f := range files {
		entries = append(entries, fileEntry{
			Content: fileContent{
				Filename: f.Filename,
				Checksum: f.Checksum,
				Size:     f.Size,
				URL:      f.URL,
			},
			Links: Links{
				"read":   {Href: f.URL, Rel: RelFile},
				"delete": h.responder.Link(RelFile, PathDeleteFile),
			},
		})
	}

	h.responder.OK(w, entries, nil)
}

// RequestUploadURL returns a presigned POST policy for a new file.
func (h *Files) RequestUploadURL(w http.ResponseWriter, r *http.Request) {
	username, ok := h.contextManager.GetUsernameFromContext(r.Context())
	if !ok {
		h.responder.Error(w, r, apierrors.NewErrTokenInvalid())
		return
	}

	payload, err := h.responder.decodePayload(w, r)
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}

	filename, err := validate.Filename(payload)
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}

	form, err := h.filesService.UploadForm(r.Context(), username, filename)
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}

	h.logger.Debug("Files handler: upload form issued",
		"username", username,
		"filename", filename)

	h.responder.OK(w, map[string]any{"form_data": form.Fields}, Links{
		"upload_url": {Href: form.URL, Rel: RelFile},
	})
}

// Delete removes one of the caller's files.
func (h *Files) Delete(w http.ResponseWriter, r *http.Request) {
	username, ok := h.contextManager.GetUsernameFromContext(r.Context())
	if !ok {
		h.responder.Error(w, r, apierrors.NewErrTokenInvalid())
		return
	}

	payload, err := h.responder.decodePayload(w, r)
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}

	filename, err := validate.Filename(payload)
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}

	if err := h.filesService.Delete(r.Context(), username, filename); err != nil {
		h.responder.Error(w, r, err)
		return
	}

	h.responder.OK(w, struct{}{}, nil)
}
