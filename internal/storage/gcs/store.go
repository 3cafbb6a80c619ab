// Package gcs provides a Google Cloud Storage object store.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	gstorage "cloud.google.com/go/storage"

	"voicemail-notify-service/internal/storage"
)

// Store implements storage.ObjectStore on Google Cloud Storage.
// Requires GOOGLE_APPLICATION_CREDENTIALS to be set.
type Store struct {
	client *gstorage.Client
}

// New creates a new GCS-backed object store.
func New(ctx context.Context) (*Store, error) {
	c, err := gstorage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("gcs: create client: %w", err)
	}
	return &Store{client: c}, nil
}

// Exists reports whether the object exists.
func (s *Store) Exists(ctx context.Context, bucket, key string) (bool, error) {
	_, err := s.client.Bucket(bucket).Object(key).Attrs(ctx)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, gstorage.ErrObjectNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("gcs: head %s/%s: %w", bucket, key, err)
}

// Fetch reads the full object content.
func (s *Store) Fetch(ctx context.Context, bucket, key string) ([]byte, error) {
	r, err := s.client.Bucket(bucket).Object(key).NewReader(ctx)
	if err != nil {
		if errors.Is(err, gstorage.ErrObjectNotExist) {
			return nil, fmt.Errorf("gcs: %s/%s: %w", bucket, key, storage.ErrObjectNotFound)
		}
		return nil, fmt.Errorf("gcs: open %s/%s: %w", bucket, key, err)
	}
	defer r.Close()

	body, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("gcs: read %s/%s: %w", bucket, key, err)
	}
	return body, nil
}

// SignedURL returns a V4-signed URL for temporary read access.
func (s *Store) SignedURL(bucket, key string, expiry time.Duration) (string, error) {
	url, err := s.client.Bucket(bucket).SignedURL(key, &gstorage.SignedURLOptions{
		Method:  "GET",
		Expires: time.Now().Add(expiry),
		Scheme:  gstorage.SigningSchemeV4,
	})
	if err != nil {
		return "", fmt.Errorf("gcs: sign %s/%s: %w", bucket, key, err)
	}
	return url, nil
}

// Close releases the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}
