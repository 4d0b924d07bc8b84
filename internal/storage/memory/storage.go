// Package memory provides an in-process object storage used for
// development and tests.
package memory

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dtroode/piggyvault/internal/model"
)

var _ model.ObjectStorage = (*Storage)(nil)

type object struct {
	content      []byte
	etag         string
	lastModified time.Time
}

// Storage keeps objects in a map guarded by a mutex.
type Storage struct {
	mu      sync.RWMutex
	bucket  string
	objects map[string]object
	// FailDelete makes DeleteObjects report these names as failed.
	FailDelete map[string]bool
}

func New(bucket string) *Storage {
	return &Storage{
		bucket:     bucket,
		objects:    make(map[string]object),
		FailDelete: make(map[string]bool),
	}
}

func (s *Storage) CreateObjectIfAbsent(_ context.Context, name string, content []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.objects[name]; ok {
		return "", model.ErrAlreadyExists
	}
	s.objects[name] = newObject(content)
	return s.objects[name].etag, nil
}

// PutObject writes content unconditionally, the way a presigned upload would.
func (s *Storage) PutObject(name string, content []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[name] = newObject(content)
}

func (s *Storage) GetObjectContent(_ context.Context, name string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	obj, ok := s.objects[name]
	if !ok {
		return nil, model.ErrNotFound
	}
	return append([]byte(nil), obj.content...), nil
}

func (s *Storage) StatObject(_ context.Context, name string) (model.ObjectInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	obj, ok := s.objects[name]
	if !ok {
		return model.ObjectInfo{}, model.ErrNotFound
	}
	return obj.info(name), nil
}

func (s *Storage) ListObjectsByPrefix(_ context.Context, prefix string) ([]model.ObjectInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.ObjectInfo
	for name, obj := range s.objects {
		if strings.HasPrefix(name, prefix) {
			out = append(out, obj.info(name))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Storage) DeleteObject(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, name)
	return nil
}

func (s *Storage) DeleteObjects(_ context.Context, names []string) ([]model.ObjectError, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var failed []model.ObjectError
	for _, name := range names {
		if s.FailDelete[name] {
			failed = append(failed, model.ObjectError{Name: name, Code: "InternalError", Message: "injected failure"})
			continue
		}
		delete(s.objects, name)
	}
	return failed, nil
}

func (s *Storage) BucketExists(_ context.Context) (bool, error) {
	return true, nil
}

func (s *Storage) PresignGet(_ context.Context, name string, expiry time.Duration) (string, error) {
	u := url.URL{Scheme: "memory", Host: s.bucket, Path: "/" + name}
	u.RawQuery = url.Values{"expires": {expiry.String()}}.Encode()
	return u.String(), nil
}

func (s *Storage) PresignPost(_ context.Context, name string, expiry time.Duration, maxSize int64) (string, map[string]string, error) {
	u := url.URL{Scheme: "memory", Host: s.bucket, Path: "/"}
	return u.String(), map[string]string{
		"key":     name,
		"expires": expiry.String(),
		"max":     strconv.FormatInt(maxSize, 10),
	}, nil
}

func newObject(content []byte) object {
	sum := md5.Sum(content)
	return object{
		content:      append([]byte(nil), content...),
		etag:         hex.EncodeToString(sum[:]),
		lastModified: time.Now().UTC(),
	}
}

func (o object) info(name string) model.ObjectInfo {
	return model.ObjectInfo{
		Name:         name,
		Size:         int64(len(o.content)),
		ETag:         o.etag,
		LastModified: o.lastModified,
	}
}
