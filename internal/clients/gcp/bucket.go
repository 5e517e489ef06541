package gcp

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/ariqhikari/SnaillyJaya/internal/logger"
)

type BucketCategory string

const (
	BucketCategoryScreenshot BucketCategory = "screenshot"
	BucketCategoryModel      BucketCategory = "model"
)

// BucketService stores device screenshots and archived model artifacts in
// GCS, one bucket per category.
type BucketService interface {
	UploadFile(ctx context.Context, category BucketCategory, key string, file io.Reader) error
	DownloadFile(ctx context.Context, category BucketCategory, key string) (io.ReadCloser, error)
	DeleteFile(ctx context.Context, category BucketCategory, key string) error
	ListKeys(ctx context.Context, category BucketCategory, prefix string) ([]string, error)
	GetPublicURL(category BucketCategory, key string) string
}

type bucketService struct {
	log              *logger.Logger
	storageClient    *storage.Client
	screenshotBucket string
	modelBucket      string
}

func NewBucketService(log *logger.Logger) (BucketService, error) {
	serviceLog := log.With("service", "BucketService")

	screenshotBucket := os.Getenv("SCREENSHOT_GCS_BUCKET_NAME")
	modelBucket := os.Getenv("MODEL_GCS_BUCKET_NAME")
	if screenshotBucket == "" {
		return nil, fmt.Errorf("missing env var SCREENSHOT_GCS_BUCKET_NAME")
	}
	if modelBucket == "" {
		return nil, fmt.Errorf("missing env var MODEL_GCS_BUCKET_NAME")
	}

	opts := ClientOptionsFromEnv()
	opts = append(opts, option.WithScopes(storage.ScopeReadWrite))
	stClient, err := storage.NewClient(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	return &bucketService{
		log:              serviceLog,
		storageClient:    stClient,
		screenshotBucket: screenshotBucket,
		modelBucket:      modelBucket,
	}, nil
}

func (b *bucketService) bucketFor(category BucketCategory) (string, error) {
	switch category {
	case BucketCategoryScreenshot:
		return b.screenshotBucket, nil
	case BucketCategoryModel:
		return b.modelBucket, nil
	default:
		return "", fmt.Errorf("unknown bucket category %q", category)
	}
}

func (b *bucketService) UploadFile(ctx context.Context, category BucketCategory, key string, file io.Reader) error {
	bucket, err := b.bucketFor(category)
	if err != nil {
		return err
	}
	w := b.storageClient.Bucket(bucket).Object(key).NewWriter(ctx)
	if _, err := io.Copy(w, file); err != nil {
		_ = w.Close()
		return fmt.Errorf("upload %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalize %s: %w", key, err)
	}
	b.log.Debug("Object uploaded", "bucket", bucket, "key", key)
	return nil
}

func (b *bucketService) DownloadFile(ctx context.Context, category BucketCategory, key string) (io.ReadCloser, error) {
	bucket, err := b.bucketFor(category)
	if err != nil {
		return nil, err
	}
	r, err := b.storageClient.Bucket(bucket).Object(key).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", key, err)
	}
	return r, nil
}

func (b *bucketService) DeleteFile(ctx context.Context, category BucketCategory, key string) error {
	bucket, err := b.bucketFor(category)
	if err != nil {
		return err
	}
	if err := b.storageClient.Bucket(bucket).Object(key).Delete(ctx); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

func (b *bucketService) ListKeys(ctx context.Context, category BucketCategory, prefix string) ([]string, error) {
	bucket, err := b.bucketFor(category)
	if err != nil {
		return nil, err
	}
	it := b.storageClient.Bucket(bucket).Objects(ctx, &storage.Query{Prefix: prefix})
	var keys []string
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", prefix, err)
		}
		keys = append(keys, attrs.Name)
	}
	return keys, nil
}

func (b *bucketService) GetPublicURL(category BucketCategory, key string) string {
	bucket, err := b.bucketFor(category)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", bucket, strings.TrimPrefix(key, "/"))
}
