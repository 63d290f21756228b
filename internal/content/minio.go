package content

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
)

// minioPartSize keeps multipart uploads of unknown length to bounded memory.
const minioPartSize = 8 << 20

// objectClient is the subset of minio.Client used by MinIO.
type objectClient interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (io.ReadCloser, error)
	StatObject(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error)
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	ListIncompleteUploads(ctx context.Context, bucketName, objectPrefix string, recursive bool) <-chan minio.ObjectMultipartInfo
	RemoveIncompleteUpload(ctx context.Context, bucketName, objectName string) error
}

// minioClient adapts *minio.Client to objectClient.
type minioClient struct {
	*minio.Client
}

func (c minioClient) GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (io.ReadCloser, error) {
	return c.Client.GetObject(ctx, bucketName, objectName, opts)
}

// MinIO keeps content as objects in a single bucket.
type MinIO struct {
	client objectClient
	bucket string
}

// NewMinIO wraps a MinIO client. The bucket must already exist.
func NewMinIO(client *minio.Client, bucket string) *MinIO {
	return &MinIO{client: minioClient{client}, bucket: bucket}
}

// Put streams r as a multipart upload of unknown length.
func (m *MinIO) Put(ctx context.Context, key string, r io.Reader, contentType string) (Object, error) {
	if key == "" {
		return Object{}, ErrInvalidKey
	}

	hasher := sha256.New()
	src := &sourceReader{ctx: ctx, r: r}
	counter := &countingWriter{}
	reader := io.TeeReader(src, io.MultiWriter(hasher, counter))

	opts := minio.PutObjectOptions{
		ContentType: contentType,
		PartSize:    minioPartSize,
	}
	if _, err := m.client.PutObject(ctx, m.bucket, key, reader, -1, opts); err != nil {
		if src.err != nil {
			return Object{}, fmt.Errorf("%w: %v", ErrSourceRead, src.err)
		}
		return Object{}, fmt.Errorf("%w: put object: %v", ErrStorageWrite, err)
	}

	return Object{
		Key:      key,
		Location: fmt.Sprintf("minio://%s/%s", m.bucket, key),
		Size:     counter.n,
		Checksum: hex.EncodeToString(hasher.Sum(nil)),
	}, nil
}

// Open stats the object first because GetObject is lazy and would only fail on first read.
func (m *MinIO) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if _, err := m.client.StatObject(ctx, m.bucket, key, minio.StatObjectOptions{}); err != nil {
		if isNoSuchKey(err) {
			return nil, ErrNotExist
		}
		return nil, fmt.Errorf("%w: stat object: %v", ErrStorageRead, err)
	}
	obj, err := m.client.GetObject(ctx, m.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("%w: get object: %v", ErrStorageRead, err)
	}
	return obj, nil
}

// Remove deletes the object. S3 semantics already make this idempotent.
func (m *MinIO) Remove(ctx context.Context, key string) error {
	if err := m.client.RemoveObject(ctx, m.bucket, key, minio.RemoveObjectOptions{}); err != nil && !isNoSuchKey(err) {
		return fmt.Errorf("%w: remove object: %v", ErrStorageWrite, err)
	}
	return nil
}

// Ping checks the bucket is reachable.
func (m *MinIO) Ping(ctx context.Context) error {
	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		return fmt.Errorf("bucket %q does not exist", m.bucket)
	}
	return nil
}

// SweepPartials aborts multipart uploads initiated before olderThan.
func (m *MinIO) SweepPartials(ctx context.Context, olderThan time.Time) (int, error) {
	removed := 0
	for upload := range m.client.ListIncompleteUploads(ctx, m.bucket, "", true) {
		if upload.Err != nil {
			return removed, fmt.Errorf("list incomplete uploads: %w", upload.Err)
		}
		if !upload.Initiated.Before(olderThan) {
			continue
		}
		if err := m.client.RemoveIncompleteUpload(ctx, m.bucket, upload.Key); err != nil {
			return removed, fmt.Errorf("abort upload %q: %w", upload.Key, err)
		}
		removed++
	}
	return removed, nil
}

func isNoSuchKey(err error) bool {
	var resp minio.ErrorResponse
	if errors.As(err, &resp) {
		return resp.Code == "NoSuchKey"
	}
	return false
}

type countingWriter struct {
	n int64
}

func (w *countingWriter) Write(p []byte) (int, error) {
	w.n += int64(len(p))
	return len(p), nil
}
