package gcs

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// Storage puts assets into a Cloud Storage bucket under the same keys the
// local deployment uses on disk.
type Storage struct {
	client    *storage.Client
	bucket    string
	publicURL string
}

func New(ctx context.Context, bucket, credentialsPath, publicURL string) (*Storage, error) {
	if bucket == "" {
		return nil, errors.New("gcs bucket is required")
	}
	var opts []option.ClientOption
	if credentialsPath != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsPath))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return &Storage{client: client, bucket: bucket, publicURL: publicURL}, nil
}

func (s *Storage) Put(ctx context.Context, key string, data []byte, contentType string) error {
	wc := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
	wc.ContentType = contentType
	wc.CacheControl = "public, max-age=86400"
	if _, err := wc.Write(data); err != nil {
		_ = wc.Close()
		return fmt.Errorf("failed to write %s to GCS: %w", key, err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("failed to close writer for %s: %w", key, err)
	}
	return nil
}

func (s *Storage) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.Bucket(s.bucket).Object(key).Attrs(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *Storage) URL(key string) string {
	return objectURL(s.publicURL, s.bucket, key)
}

func (s *Storage) Close() error {
	return s.client.Close()
}

func objectURL(publicURL, bucket, key string) string {
	if publicURL != "" {
		return strings.TrimSuffix(publicURL, "/") + "/" + key
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", bucket, key)
}
