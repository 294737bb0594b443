package gcs

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/studyden/studyden-backend/internal/platform/logger"
)

// BucketService is the object-store collaborator of the ingestion pipeline.
// Uploads happen client-side against the external store; the backend only
// downloads file bytes for extraction and removes objects on file deletion.
type BucketService interface {
	DownloadFile(ctx context.Context, key string) (io.ReadCloser, error)
	DeleteFile(ctx context.Context, key string) error
	ObjectSize(ctx context.Context, key string) (int64, error)
}

type bucketService struct {
	log    *logger.Logger
	client *storage.Client
	bucket string
}

func clientOptionsFromEnv() []option.ClientOption {
	var opts []option.ClientOption
	if creds := strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS_JSON")); creds != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(creds)))
	}
	return opts
}

func NewBucketService(log *logger.Logger) (BucketService, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	bucket := strings.TrimSpace(os.Getenv("TOPIC_FILES_BUCKET"))
	if bucket == "" {
		return nil, fmt.Errorf("missing TOPIC_FILES_BUCKET")
	}
	client, err := storage.NewClient(context.Background(), clientOptionsFromEnv()...)
	if err != nil {
		return nil, fmt.Errorf("storage client: %w", err)
	}
	return &bucketService{
		log:    log.With("service", "BucketService"),
		client: client,
		bucket: bucket,
	}, nil
}

func (bs *bucketService) DownloadFile(ctx context.Context, key string) (io.ReadCloser, error) {
	if strings.TrimSpace(key) == "" {
		return nil, fmt.Errorf("empty storage key")
	}
	rc, err := bs.client.Bucket(bs.bucket).Object(key).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("open object %q: %w", key, err)
	}
	return rc, nil
}

func (bs *bucketService) DeleteFile(ctx context.Context, key string) error {
	if strings.TrimSpace(key) == "" {
		return nil
	}
	if err := bs.client.Bucket(bs.bucket).Object(key).Delete(ctx); err != nil {
		if err == storage.ErrObjectNotExist {
			bs.log.Warn("object already gone", "storage_key", key)
			return nil
		}
		return fmt.Errorf("delete object %q: %w", key, err)
	}
	return nil
}

func (bs *bucketService) ObjectSize(ctx context.Context, key string) (int64, error) {
	attrs, err := bs.client.Bucket(bs.bucket).Object(key).Attrs(ctx)
	if err != nil {
		return 0, fmt.Errorf("stat object %q: %w", key, err)
	}
	return attrs.Size, nil
}
