package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"cloud.google.com/go/storage"
)

type gcsStore struct {
	client     *storage.Client
	bucketName string
}

// NewGCSStore creates an ObjectStore backed by a Cloud Storage bucket. The returned close
// function releases the client.
func NewGCSStore(ctx context.Context, bucketName string) (ObjectStore, func() error, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return &gcsStore{client: client, bucketName: bucketName}, client.Close, nil
}

func (s *gcsStore) Put(ctx context.Context, objectPath, contentType string, data io.Reader) (int64, error) {
	obj := s.client.Bucket(s.bucketName).Object(objectPath).If(storage.Conditions{DoesNotExist: true})

	writer := obj.NewWriter(ctx)
	writer.ContentType = contentType
	writer.CacheControl = "private, max-age=3600"

	written, err := io.Copy(writer, data)
	if err != nil {
		_ = writer.Close()
		return written, fmt.Errorf("failed to write to storage: %w", err)
	}
	if err := writer.Close(); err != nil {
		return written, fmt.Errorf("failed to close writer: %w", err)
	}
	return written, nil
}

func (s *gcsStore) SignedURL(_ context.Context, objectPath string, expires time.Time) (string, error) {
	opts := &storage.SignedURLOptions{
		Scheme:  storage.SigningSchemeV4,
		Method:  http.MethodGet,
		Expires: expires,
	}
	return s.client.Bucket(s.bucketName).SignedURL(objectPath, opts)
}

func (s *gcsStore) Delete(ctx context.Context, objectPath string) error {
	return s.client.Bucket(s.bucketName).Object(objectPath).Delete(ctx)
}
