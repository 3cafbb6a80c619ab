// Package storage defines the interface for object-store collaborators.
package storage

import (
	"context"
	"errors"
	"time"
)

// ErrObjectNotFound is returned by Fetch when the key does not exist.
var ErrObjectNotFound = errors.New("object not found")

// ObjectStore is the boundary to the object-store collaborator. The pipeline
// consumes exactly three operations: existence check, content fetch, and
// time-limited URL generation.
type ObjectStore interface {
	// Exists reports whether the object exists. A missing object is not an
	// error; errors are reserved for storage faults.
	Exists(ctx context.Context, bucket, key string) (bool, error)

	// Fetch reads the full object content.
	Fetch(ctx context.Context, bucket, key string) ([]byte, error)

	// SignedURL returns a URL granting temporary read access to the object.
	SignedURL(bucket, key string, expiry time.Duration) (string, error)
}
