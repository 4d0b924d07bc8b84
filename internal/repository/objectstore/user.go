package objectstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dtroode/piggyvault/internal/apierrors"
	"github.com/dtroode/piggyvault/internal/logger"
	"github.com/dtroode/piggyvault/internal/model"
)

var _ model.UserStore = (*UserRepository)(nil)

// UserRepository is the durable user registry.
//
// Each user owns two objects: a claim at admin$/usernames/<username> that
// holds the answer, and a record at admin$/challenges/<username>$<answer>
// that holds the challenge. The claim is created first with a conditional
// write and decides which of several concurrent registrations wins.
//
// A claim without a record is left behind when a registration dies between
// the two writes. Once such a claim is older than claimGrace it is released
// and the name can be registered again.
type UserRepository struct {
	storage    model.ObjectStorage
	files      *FileRepository
	claimGrace time.Duration
	logger     *logger.Logger
	now        func() time.Time
}

// NewUserRepository creates a UserRepository.
//
// Parameters:
//   - storage: bucket holding claims, records and user files
//   - files: file repository used to empty the user's directory on delete
//   - claimGrace: age after which a claim without a record is released
//   - logger: logger
func NewUserRepository(storage model.ObjectStorage, files *FileRepository, claimGrace time.Duration, logger *logger.Logger) *UserRepository {
	return &UserRepository{
		storage:    storage,
		files:      files,
		claimGrace: claimGrace,
		logger:     logger,
		now:        time.Now,
	}
}

// Create registers user if the username is free and returns the challenge
// read back from storage.
func (r *UserRepository) Create(ctx context.Context, user model.User) (string, error) {
	_, err := r.storage.CreateObjectIfAbsent(ctx, claimName(user.Username), []byte(user.Answer))
	if errors.Is(err, model.ErrAlreadyExists) {
		err = r.reclaim(ctx, user)
	}
	if err != nil {
		if errors.Is(err, model.ErrAlreadyExists) {
			return "", model.ErrAlreadyExists
		}
		return "", fmt.Errorf("failed to claim username: %w", err)
	}

	_, err = r.storage.CreateObjectIfAbsent(ctx, recordName(user.Username, user.Answer), []byte(user.Challenge))
	if err != nil {
		if errors.Is(err, model.ErrAlreadyExists) {
			return "", fmt.Errorf("record exists without a claim: %w", model.ErrInconsistentState)
		}
		if rmErr := r.storage.DeleteObject(ctx, claimName(user.Username)); rmErr != nil {
			r.logger.Error("User repository: failed to release username claim",
				"username", user.Username,
				"error", rmErr.Error())
		}
		return "", fmt.Errorf("failed to write user record: %w", err)
	}

	stored, err := r.storage.GetObjectContent(ctx, recordName(user.Username, user.Answer))
	if err != nil {
		return "", fmt.Errorf("failed to read back user record: %w", err)
	}

	return string(stored), nil
}

// reclaim releases an abandoned claim on user's name and claims it again.
// It returns ErrAlreadyExists while the name is legitimately taken.
func (r *UserRepository) reclaim(ctx context.Context, user model.User) error {
	records, err := r.storage.ListObjectsByPrefix(ctx, recordPrefix(user.Username))
	if err != nil {
		return fmt.Errorf("failed to list user records: %w", err)
	}
	if len(records) > 0 {
		return model.ErrAlreadyExists
	}

	claim, err := r.storage.StatObject(ctx, claimName(user.Username))
	switch {
	case errors.Is(err, model.ErrNotFound):
		// released by a concurrent delete
	case err != nil:
		return fmt.Errorf("failed to stat username claim: %w", err)
	case r.now().Sub(claim.LastModified) < r.claimGrace:
		// a registration may still be writing its record
		return model.ErrAlreadyExists
	default:
		r.logger.Warn("User repository: releasing abandoned username claim",
			"username", user.Username,
			"claimed_at", claim.LastModified)
		if err := r.storage.DeleteObject(ctx, claimName(user.Username)); err != nil {
			return fmt.Errorf("failed to release username claim: %w", err)
		}
	}

	if _, err := r.storage.CreateObjectIfAbsent(ctx, claimName(user.Username), []byte(user.Answer)); err != nil {
		return err
	}

	// another registrant may have released the same claim and won it back
	owner, err := r.storage.GetObjectContent(ctx, claimName(user.Username))
	if err != nil {
		return fmt.Errorf("failed to read username claim: %w", err)
	}
	if string(owner) != user.Answer {
		return model.ErrAlreadyExists
	}

	return nil
}

// Find looks a user up by scanning the record prefix. More than one record
// for a username is an inconsistency and is never resolved by picking one.
func (r *UserRepository) Find(ctx context.Context, username string) (model.User, error) {
	objects, err := r.storage.ListObjectsByPrefix(ctx, recordPrefix(username))
	if err != nil {
		return model.User{}, fmt.Errorf("failed to list user records: %w", err)
	}

	switch len(objects) {
	case 0:
		return model.User{}, model.ErrNotFound
	case 1:
	default:
		return model.User{}, fmt.Errorf("found %d records for user %q: %w", len(objects), username, model.ErrInconsistentState)
	}

	answer, ok := parseRecordName(username, objects[0].Name)
	if !ok {
		return model.User{}, fmt.Errorf("malformed user record %q: %w", objects[0].Name, model.ErrInconsistentState)
	}

	challenge, err := r.storage.GetObjectContent(ctx, objects[0].Name)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.User{}, model.ErrNotFound
		}
		return model.User{}, fmt.Errorf("failed to read user record: %w", err)
	}

	return model.User{Username: username, Challenge: string(challenge), Answer: answer}, nil
}

// Delete removes the user's files, then the record and claim. Objects that
// fail to delete are reported as a MultipleFilesRemove error.
func (r *UserRepository) Delete(ctx context.Context, user model.User) error {
	if err := r.files.RemoveAll(ctx, user.Username); err != nil {
		return err
	}

	failed, err := r.storage.DeleteObjects(ctx, []string{
		recordName(user.Username, user.Answer),
		claimName(user.Username),
	})
	if err != nil {
		return fmt.Errorf("failed to delete user record: %w", err)
	}
	if len(failed) > 0 {
		return apierrors.NewErrMultipleFilesRemove(failed)
	}

	return nil
}
