package objectstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dtroode/piggyvault/internal/apierrors"
	"github.com/dtroode/piggyvault/internal/model"
)

var _ model.FileStore = (*FileRepository)(nil)

// FileRepository stores user files under users/<username>/.
type FileRepository struct {
	storage       model.ObjectStorage
	urlExpiry     time.Duration
	maxUploadSize int64
}

func NewFileRepository(storage model.ObjectStorage, urlExpiry time.Duration, maxUploadSize int64) *FileRepository {
	return &FileRepository{storage: storage, urlExpiry: urlExpiry, maxUploadSize: maxUploadSize}
}

// List returns the user's files with temporary download URLs.
func (r *FileRepository) List(ctx context.Context, username string) ([]model.File, error) {
	objects, err := r.storage.ListObjectsByPrefix(ctx, userDir(username))
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}

	files := make([]model.File, 0, len(objects))
	for _, obj := range objects {
		u, err := r.storage.PresignGet(ctx, obj.Name, r.urlExpiry)
		if err != nil {
			return nil, fmt.Errorf("failed to get file url: %w", err)
		}
		files = append(files, model.File{
			Filename: strings.TrimPrefix(obj.Name, userDir(username)),
			Checksum: obj.ETag,
			Size:     obj.Size,
			URL:      u,
		})
	}
	return files, nil
}

// UploadForm returns a presigned POST target for a new file. It returns
// model.ErrAlreadyExists instead of handing out a form that would overwrite.
func (r *FileRepository) UploadForm(ctx context.Context, username, filename string) (model.UploadForm, error) {
	name := fileName(username, filename)

	_, err := r.storage.StatObject(ctx, name)
	if err == nil {
		return model.UploadForm{}, model.ErrAlreadyExists
	}
	if !errors.Is(err, model.ErrNotFound) {
		return model.UploadForm{}, fmt.Errorf("failed to check file: %w", err)
	}

	u, fields, err := r.storage.PresignPost(ctx, name, r.urlExpiry, r.maxUploadSize)
	if err != nil {
		return model.UploadForm{}, fmt.Errorf("failed to get upload url: %w", err)
	}
	return model.UploadForm{URL: u, Fields: fields}, nil
}

func (r *FileRepository) Remove(ctx context.Context, username, filename string) error {
	name := fileName(username, filename)

	_, err := r.storage.StatObject(ctx, name)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.ErrNotFound
		}
		return fmt.Errorf("failed to check file: %w", err)
	}

	if err := r.storage.DeleteObject(ctx, name); err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// RemoveAll deletes every file of the user in one multi-delete.
func (r *FileRepository) RemoveAll(ctx context.Context, username string) error {
	objects, err := r.storage.ListObjectsByPrefix(ctx, userDir(username))
	if err != nil {
		return fmt.Errorf("failed to list files: %w", err)
	}
	if len(objects) == 0 {
		return nil
	}

	names := make([]string, 0, len(objects))
	for _, obj := range objects {
		names = append(names, obj.Name)
	}

	failed, err := r.storage.DeleteObjects(ctx, names)
	if err != nil {
		return fmt.Errorf("failed to delete files: %w", err)
	}
	if len(failed) > 0 {
		return apierrors.NewErrMultipleFilesRemove(failed)
	}
	return nil
}
