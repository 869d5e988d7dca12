// internal/app/provider/blob/minio.go
package blob

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// urlExpiry bounds how long a presigned download locator stays valid.
const urlExpiry = 7 * 24 * time.Hour

var errBucketMissing = errors.New("bucket does not exist")

// MinioStore implements Store over an S3-compatible endpoint.
type MinioStore struct {
	client *minio.Client
	bucket string
	log    *zap.Logger
}

// MinioConfig holds connection settings for an S3-compatible endpoint.
type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// NewMinioStore connects a MinioStore. The bucket must already exist.
func NewMinioStore(cfg MinioConfig, logger *zap.Logger) (*MinioStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, &Error{Code: CodeUnavailable, Op: "connect", Err: err}
	}
	return &MinioStore{client: client, bucket: cfg.Bucket, log: logger}, nil
}

func (s *MinioStore) Put(ctx context.Context, path string, r io.Reader, size int64, contentType string, progress ProgressFunc) error {
	reader := NewProgressReader(r, size, progress)
	_, err := s.client.PutObject(ctx, s.bucket, path, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return &Error{Code: CodeTransfer, Op: "put", Err: err}
	}
	return nil
}

func (s *MinioStore) URL(ctx context.Context, path string) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, s.bucket, path, urlExpiry, nil)
	if err != nil {
		return "", &Error{Code: CodeUnavailable, Op: "url", Err: err}
	}
	return u.String(), nil
}

func (s *MinioStore) Remove(ctx context.Context, path string) error {
	err := s.client.RemoveObject(ctx, s.bucket, path, minio.RemoveObjectOptions{})
	if err != nil {
		return &Error{Code: CodeUnavailable, Op: "remove", Err: err}
	}
	return nil
}

// Ping verifies the endpoint answers and the bucket exists.
func (s *MinioStore) Ping(ctx context.Context) error {
	ok, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return &Error{Code: CodeUnavailable, Op: "ping", Err: err}
	}
	if !ok {
		return &Error{Code: CodeNotFound, Op: "ping", Err: errBucketMissing}
	}
	return nil
}
