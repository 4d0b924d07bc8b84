package model

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	// ErrInconsistentState marks storage contents that violate registry invariants.
	ErrInconsistentState = errors.New("inconsistent storage state")
)

// ObjectInfo describes a stored object.
type ObjectInfo struct {
	Name         string
	Size         int64
	ETag         string
	LastModified time.Time
}

// ObjectError reports a failed removal of a single object.
type ObjectError struct {
	Name    string
	Code    string
	Message string
}

// ObjectStorage is the bucket-scoped object storage collaborator.
type ObjectStorage interface {
	// CreateObjectIfAbsent returns ErrAlreadyExists if name is taken.
	CreateObjectIfAbsent(ctx context.Context, name string, content []byte) (etag string, err error)
	GetObjectContent(ctx context.Context, name string) ([]byte, error)
	StatObject(ctx context.Context, name string) (ObjectInfo, error)
	ListObjectsByPrefix(ctx context.Context, prefix string) ([]ObjectInfo, error)
	DeleteObject(ctx context.Context, name string) error
	DeleteObjects(ctx context.Context, names []string) ([]ObjectError, error)
	BucketExists(ctx context.Context) (bool, error)
	PresignGet(ctx context.Context, name string, expiry time.Duration) (string, error)
	PresignPost(ctx context.Context, name string, expiry time.Duration, maxSize int64) (string, map[string]string, error)
}
