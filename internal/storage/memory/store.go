// Package memory provides an in-memory object store for local development
// and tests.
package memory

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"voicemail-notify-service/internal/storage"
)

// Store implements storage.ObjectStore with an in-memory map.
// Safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{objects: make(map[string][]byte)}
}

// Put stores an object. Test helper.
func (s *Store) Put(bucket, key string, body []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[bucket+"/"+key] = body
}

// Exists reports whether the object exists.
func (s *Store) Exists(_ context.Context, bucket, key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.objects[bucket+"/"+key]
	return ok, nil
}

// Fetch reads the full object content.
func (s *Store) Fetch(_ context.Context, bucket, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	body, ok := s.objects[bucket+"/"+key]
	if !ok {
		return nil, fmt.Errorf("memory: %s/%s: %w", bucket, key, storage.ErrObjectNotFound)
	}
	out := make([]byte, len(body))
	copy(out, body)
	return out, nil
}

// SignedURL returns a stable fake URL carrying the expiry.
func (s *Store) SignedURL(bucket, key string, expiry time.Duration) (string, error) {
	return fmt.Sprintf("https://storage.invalid/%s/%s?ttl=%d",
		bucket, url.PathEscape(key), int64(expiry.Seconds())), nil
}
