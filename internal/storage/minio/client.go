package minio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"

	"github.com/dtroode/piggyvault/internal/apierrors"
	"github.com/dtroode/piggyvault/internal/model"
)

// Internal adapter interface to enable mocking without a real MinIO server.
type minioAPI interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (io.ReadCloser, error)
	StatObject(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error)
	ListObjects(ctx context.Context, bucketName string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
	RemoveObjects(ctx context.Context, bucketName string, objectsCh <-chan minio.ObjectInfo, opts minio.RemoveObjectsOptions) <-chan minio.RemoveObjectError
	PresignedGetObject(ctx context.Context, bucketName, objectName string, expires time.Duration, reqParams url.Values) (*url.URL, error)
	PresignedPostPolicy(ctx context.Context, policy *minio.PostPolicy) (*url.URL, map[string]string, error)
}

// Wrapper to adapt *minio.Client to minioAPI.
type minioClientWrapper struct{ c *minio.Client }

func (w minioClientWrapper) BucketExists(ctx context.Context, bucketName string) (bool, error) {
	return w.c.BucketExists(ctx, bucketName)
}
func (w minioClientWrapper) MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error {
	return w.c.MakeBucket(ctx, bucketName, opts)
}
func (w minioClientWrapper) PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	return w.c.PutObject(ctx, bucketName, objectName, reader, objectSize, opts)
}
func (w minioClientWrapper) GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (io.ReadCloser, error) {
	obj, err := w.c.GetObject(ctx, bucketName, objectName, opts)
	if err != nil {
		return nil, err
	}
	return obj, nil
}
func (w minioClientWrapper) StatObject(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error) {
	return w.c.StatObject(ctx, bucketName, objectName, opts)
}
func (w minioClientWrapper) ListObjects(ctx context.Context, bucketName string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo {
	return w.c.ListObjects(ctx, bucketName, opts)
}
func (w minioClientWrapper) RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error {
	return w.c.RemoveObject(ctx, bucketName, objectName, opts)
}
func (w minioClientWrapper) RemoveObjects(ctx context.Context, bucketName string, objectsCh <-chan minio.ObjectInfo, opts minio.RemoveObjectsOptions) <-chan minio.RemoveObjectError {
	return w.c.RemoveObjects(ctx, bucketName, objectsCh, opts)
}
func (w minioClientWrapper) PresignedGetObject(ctx context.Context, bucketName, objectName string, expires time.Duration, reqParams url.Values) (*url.URL, error) {
	return w.c.PresignedGetObject(ctx, bucketName, objectName, expires, reqParams)
}
func (w minioClientWrapper) PresignedPostPolicy(ctx context.Context, policy *minio.PostPolicy) (*url.URL, map[string]string, error) {
	return w.c.PresignedPostPolicy(ctx, policy)
}

var _ model.ObjectStorage = (*Client)(nil)

// Options controls the startup bucket probe.
type Options struct {
	// CreateBucket creates a missing bucket instead of failing.
	CreateBucket   bool
	StartupTimeout time.Duration
}

type Client struct {
	api    minioAPI
	bucket string
}

// NewClient creates a new MinIO storage client using a real *minio.Client instance.
func NewClient(ctx context.Context, client *minio.Client, bucket string, opts Options) (*Client, error) {
	return NewClientWithAPI(ctx, minioClientWrapper{c: client}, bucket, opts)
}

// NewClientWithAPI allows injecting a mockable API (used in tests).
func NewClientWithAPI(ctx context.Context, api minioAPI, bucket string, opts Options) (*Client, error) {
	c := &Client{
		api:    api,
		bucket: bucket,
	}

	err := c.ensureBucketExists(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure bucket exists: %w", err)
	}

	return c, nil
}

// ensureBucketExists probes the bucket once. Denied access, a timeout or a
// missing bucket are reported as bucket errors so startup can abort.
func (c *Client) ensureBucketExists(ctx context.Context, opts Options) error {
	if opts.StartupTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.StartupTimeout)
		defer cancel()
	}

	exists, err := c.api.BucketExists(ctx, c.bucket)
	if err != nil {
		return classifyProbeError(err)
	}

	if exists {
		return nil
	}
	if !opts.CreateBucket {
		return apierrors.NewErrBucketDoesNotExist(c.bucket)
	}

	err = c.api.MakeBucket(ctx, c.bucket, minio.MakeBucketOptions{})
	if err != nil {
		return fmt.Errorf("failed to create bucket: %w", err)
	}

	return nil
}

func classifyProbeError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return apierrors.NewErrBucketAccessTimeout()
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return apierrors.NewErrBucketAccessTimeout()
	}

	resp := minio.ToErrorResponse(err)
	if resp.Code == "AccessDenied" || resp.StatusCode == http.StatusForbidden {
		return apierrors.NewErrBucketAccessDenied()
	}

	return fmt.Errorf("failed to check bucket existence: %w", err)
}

// CreateObjectIfAbsent writes content with If-None-Match: * so that only
// one writer can create a given name.
func (c *Client) CreateObjectIfAbsent(ctx context.Context, name string, content []byte) (string, error) {
	opts := minio.PutObjectOptions{ContentType: "text/plain; charset=utf-8"}
	opts.SetMatchETagExcept("*")

	info, err := c.api.PutObject(ctx, c.bucket, name, bytes.NewReader(content), int64(len(content)), opts)
	if err != nil {
		if isPreconditionFailed(err) {
			return "", model.ErrAlreadyExists
		}
		return "", fmt.Errorf("failed to upload object: %w", err)
	}
	return info.ETag, nil
}

// GetObjectContent reads a whole object.
func (c *Client) GetObjectContent(ctx context.Context, name string) ([]byte, error) {
	obj, err := c.api.GetObject(ctx, c.bucket, name, minio.GetObjectOptions{})
	if err != nil {
		if isNotFound(err) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get object: %w", err)
	}
	defer obj.Close()

	content, err := io.ReadAll(obj)
	if err != nil {
		if isNotFound(err) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("failed to read object: %w", err)
	}
	return content, nil
}

func (c *Client) StatObject(ctx context.Context, name string) (model.ObjectInfo, error) {
	info, err := c.api.StatObject(ctx, c.bucket, name, minio.StatObjectOptions{})
	if err != nil {
		if isNotFound(err) {
			return model.ObjectInfo{}, model.ErrNotFound
		}
		return model.ObjectInfo{}, fmt.Errorf("failed to stat object: %w", err)
	}
	return toObjectInfo(info), nil
}

// ListObjectsByPrefix lists every object under prefix, recursively.
func (c *Client) ListObjectsByPrefix(ctx context.Context, prefix string) ([]model.ObjectInfo, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var objects []model.ObjectInfo
	for info := range c.api.ListObjects(ctx, c.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if info.Err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", info.Err)
		}
		objects = append(objects, toObjectInfo(info))
	}
	return objects, nil
}

func (c *Client) DeleteObject(ctx context.Context, name string) error {
	err := c.api.RemoveObject(ctx, c.bucket, name, minio.RemoveObjectOptions{})
	if err != nil {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}

// DeleteObjects removes names in one multi-delete and returns the objects
// that could not be removed.
func (c *Client) DeleteObjects(ctx context.Context, names []string) ([]model.ObjectError, error) {
	if len(names) == 0 {
		return nil, nil
	}

	objectsCh := make(chan minio.ObjectInfo, len(names))
	for _, name := range names {
		objectsCh <- minio.ObjectInfo{Key: name}
	}
	close(objectsCh)

	var failed []model.ObjectError
	for rErr := range c.api.RemoveObjects(ctx, c.bucket, objectsCh, minio.RemoveObjectsOptions{}) {
		if rErr.Err == nil {
			continue
		}
		resp := minio.ToErrorResponse(rErr.Err)
		code := resp.Code
		if code == "" {
			code = "InternalError"
		}
		failed = append(failed, model.ObjectError{
			Name:    rErr.ObjectName,
			Code:    code,
			Message: rErr.Err.Error(),
		})
	}
	if err := ctx.Err(); err != nil {
		return failed, fmt.Errorf("failed to delete objects: %w", err)
	}
	return failed, nil
}

func (c *Client) BucketExists(ctx context.Context) (bool, error) {
	exists, err := c.api.BucketExists(ctx, c.bucket)
	if err != nil {
		return false, fmt.Errorf("failed to check bucket existence: %w", err)
	}
	return exists, nil
}

// PresignGet returns a temporary download URL for name.
func (c *Client) PresignGet(ctx context.Context, name string, expiry time.Duration) (string, error) {
	u, err := c.api.PresignedGetObject(ctx, c.bucket, name, expiry, url.Values{})
	if err != nil {
		return "", fmt.Errorf("failed to presign object url: %w", err)
	}
	return u.String(), nil
}

// PresignPost returns a browser upload target for exactly name, limited to
// maxSize bytes.
func (c *Client) PresignPost(ctx context.Context, name string, expiry time.Duration, maxSize int64) (string, map[string]string, error) {
	policy := minio.NewPostPolicy()
	if err := policy.SetBucket(c.bucket); err != nil {
		return "", nil, fmt.Errorf("failed to set policy bucket: %w", err)
	}
	if err := policy.SetKey(name); err != nil {
		return "", nil, fmt.Errorf("failed to set policy key: %w", err)
	}
	if err := policy.SetExpires(time.Now().UTC().Add(expiry)); err != nil {
		return "", nil, fmt.Errorf("failed to set policy expiry: %w", err)
	}
	if err := policy.SetContentLengthRange(0, maxSize); err != nil {
		return "", nil, fmt.Errorf("failed to set policy size limit: %w", err)
	}

	u, formData, err := c.api.PresignedPostPolicy(ctx, policy)
	if err != nil {
		return "", nil, fmt.Errorf("failed to presign post policy: %w", err)
	}
	return u.String(), formData, nil
}

func toObjectInfo(info minio.ObjectInfo) model.ObjectInfo {
	return model.ObjectInfo{
		Name:         info.Key,
		Size:         info.Size,
		ETag:         strings.Trim(info.ETag, `"`),
		LastModified: info.LastModified,
	}
}

func isNotFound(err error) bool {
	return minio.ToErrorResponse(err).Code == "NoSuchKey"
}

func isPreconditionFailed(err error) bool {
	resp := minio.ToErrorResponse(err)
	return resp.Code == "PreconditionFailed" || resp.StatusCode == http.StatusPreconditionFailed
}
