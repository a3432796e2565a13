package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/watchpost/watchpost/internal/config"
	"github.com/watchpost/watchpost/internal/errors"
)

// S3Service stores objects in an S3-compatible bucket (MinIO, AWS).
type S3Service struct {
	client *minio.Client
	bucket string
}

// NewS3Service creates an S3 storage service from the configuration.
// The bucket is created on first use if it does not exist.
func NewS3Service(cfg config.S3Config) (*S3Service, error) {
	if cfg.Endpoint == "" || cfg.Bucket == "" {
		return nil, errors.ConfigError("s3 endpoint and bucket must be configured", nil)
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, errors.NetworkError("failed to create s3 client", err)
	}

	return &S3Service{client: client, bucket: cfg.Bucket}, nil
}

// Name implements Service.
func (s *S3Service) Name() string { return "s3" }

// ensureBucket creates the bucket if missing.
func (s *S3Service) ensureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return errors.NetworkError("failed to check bucket", err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return errors.NetworkError("failed to create bucket", err)
	}
	return nil
}

// Upload implements Service.
func (s *S3Service) Upload(ctx context.Context, localPath, key string) (string, error) {
	if err := s.ensureBucket(ctx); err != nil {
		return "", err
	}
	if _, err := s.client.FPutObject(ctx, s.bucket, key, localPath, minio.PutObjectOptions{}); err != nil {
		return "", errors.New(errors.ErrCodeUploadFailed,
			fmt.Sprintf("failed to upload %s", key), err)
	}
	return key, nil
}

// Download implements Service.
func (s *S3Service) Download(ctx context.Context, key, localPath string) error {
	if err := s.client.FGetObject(ctx, s.bucket, key, localPath, minio.GetObjectOptions{}); err != nil {
		return errors.New(errors.ErrCodeFileNotFound,
			fmt.Sprintf("failed to download %s", key), err)
	}
	return nil
}

// List implements Service.
func (s *S3Service) List(ctx context.Context, prefix string) ([]Object, error) {
	var out []Object
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, errors.NetworkError("failed to list objects", obj.Err)
		}
		out = append(out, Object{Key: obj.Key, Size: obj.Size, ModifiedAt: obj.LastModified})
	}
	return out, nil
}

// Delete implements Service.
func (s *S3Service) Delete(ctx context.Context, key string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return errors.NetworkError(fmt.Sprintf("failed to delete %s", key), err)
	}
	return nil
}

// URL implements Service, returning a presigned GET link.
func (s *S3Service) URL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	if expiry <= 0 {
		expiry = time.Hour
	}
	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, expiry, nil)
	if err != nil {
		return "", errors.NetworkError(fmt.Sprintf("failed to presign %s", key), err)
	}
	return u.String(), nil
}

var _ Service = (*S3Service)(nil)
