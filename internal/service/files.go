package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/dtroode/piggyvault/internal/apierrors"
	"github.com/dtroode/piggyvault/internal/logger"
	"github.com/dtroode/piggyvault/internal/model"
)

// Files serves file operations for authenticated users. Every operation
// resolves the user first so that a deleted user cannot keep using files.
type Files struct {
	users  *Users
	files  model.FileStore
	logger *logger.Logger
}

func NewFiles(users *Users, files model.FileStore, logger *logger.Logger) *Files {
	return &Files{users: users, files: files, logger: logger}
}

func (f *Files) List(ctx context.Context, username string) ([]model.File, error) {
	user, err := f.users.FindUser(ctx, username)
	if err != nil {
		return nil, err
	}

	files, err := f.files.List(ctx, user.Username)
	if err != nil {
		f.logger.Error("Files service: failed to list files",
			"username", username,
			"error", err.Error())
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	return files, nil
}

func (f *Files) UploadForm(ctx context.Context, username, filename string) (model.UploadForm, error) {
	user, err := f.users.FindUser(ctx, username)
	if err != nil {
		return model.UploadForm{}, err
	}

	form, err := f.files.UploadForm(ctx, user.Username, filename)
	if err != nil {
		if errors.Is(err, model.ErrAlreadyExists) {
			return model.UploadForm{}, apierrors.NewErrFileExists()
		}
		f.logger.Error("Files service: failed to create upload form",
			"username", username,
			"filename", filename,
			"error", err.Error())
		return model.UploadForm{}, fmt.Errorf("failed to create upload form: %w", err)
	}
	return form, nil
}

func (f *Files) Delete(ctx context.Context, username, filename string) error {
	user, err := f.users.FindUser(ctx, username)
	if err != nil {
		return err
	}

	if err := f.files.Remove(ctx, user.Username, filename); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return apierrors.NewErrFileDoesNotExist()
		}
		f.logger.Error("Files service: failed to delete file",
			"username", username,
			"filename", filename,
			"error", err.Error())
		return fmt.Errorf("failed to delete file: %w", err)
	}

	f.logger.Info("Files service: file deleted",
		"username", username,
		"filename", filename)

	return nil
}
