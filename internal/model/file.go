package model

import "context"

// File is a user file as exposed to clients.
type File struct {
	Filename string
	Checksum string
	Size     int64
	URL      string
}

// UploadForm is a presigned browser upload target.
type UploadForm struct {
	URL    string
	Fields map[string]string
}

// FileStore manages the files owned by a single user namespace.
type FileStore interface {
	List(ctx context.Context, username string) ([]File, error)
	UploadForm(ctx context.Context, username, filename string) (UploadForm, error)
	Remove(ctx context.Context, username, filename string) error
	RemoveAll(ctx context.Context, username string) error
}
