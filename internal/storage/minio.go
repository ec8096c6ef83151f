package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"encore/internal/config"
	"encore/internal/middleware"
	"encore/internal/observability"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioStore implements ObjectStore against any S3-compatible endpoint.
type MinioStore struct {
	client     *minio.Client
	bucket     string
	publicBase string
}

// NewMinioStore builds a store from the MEDIA_* settings.
func NewMinioStore(cfg *config.Config) (*MinioStore, error) {
	client, err := minio.New(cfg.MediaEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MediaAccessKey, cfg.MediaSecretKey, ""),
		Secure: cfg.MediaUseSSL,
		Region: cfg.MediaRegion,
	})
	if err != nil {
		return nil, fmt.Errorf("create object store client: %w", err)
	}
	return &MinioStore{
		client:     client,
		bucket:     cfg.MediaBucket,
		publicBase: cfg.MediaPublicBaseURL,
	}, nil
}

// Bucket returns the bucket every key lives in.
func (s *MinioStore) Bucket() string {
	return s.bucket
}

// EnsureBucket creates the media bucket if it does not exist yet.
func (s *MinioStore) EnsureBucket(ctx context.Context, region string) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", s.bucket, err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: region}); err != nil {
		return fmt.Errorf("create bucket %s: %w", s.bucket, err)
	}
	middleware.Logger.InfoContext(ctx, "Created media bucket", slog.String("bucket", s.bucket))
	return nil
}

func (s *MinioStore) PresignPut(ctx context.Context, key string, ttl time.Duration) (string, error) {
	ctx, span := observability.StartClientSpan(ctx, "object_store", "presign_put")
	defer span.End()
	done := observability.ObserveStoreCall("presign_put")

	u, err := s.client.PresignedPutObject(ctx, s.bucket, key, ttl)
	done(err)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("presign %s: %w", key, err)
	}
	return u.String(), nil
}

func (s *MinioStore) Head(ctx context.Context, key string) (int64, bool, error) {
	ctx, span := observability.StartClientSpan(ctx, "object_store", "head")
	defer span.End()
	done := observability.ObserveStoreCall("head")

	info, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		switch minio.ToErrorResponse(err).Code {
		case "NoSuchKey", "NotFound":
			done(nil)
			return 0, false, nil
		}
		done(err)
		span.RecordError(err)
		return 0, false, fmt.Errorf("head %s: %w", key, err)
	}
	done(nil)
	return info.Size, true, nil
}

func (s *MinioStore) PublicURL(key string) string {
	return JoinPublicURL(s.publicBase, key)
}
