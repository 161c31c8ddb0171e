// Package storage defines the interface for object storage operations.
// Swap implementations by changing the concrete type injected at startup —
// the MinIO implementation works with any S3-compatible provider (MinIO, AWS S3).
package storage

import (
	"context"
	"errors"
	"io"
)

// ErrObjectTooLarge is returned by Put when the source exceeds maxBytes.
// The implementation guarantees no partial object remains in the store.
var ErrObjectTooLarge = errors.New("storage: object exceeds size limit")

// StoreResult describes a successfully written object.
type StoreResult struct {
	Key  string `json:"key"`
	URL  string `json:"url"`
	ETag string `json:"etag"`
}

// ObjectStore is the interface for writing and removing objects.
type ObjectStore interface {
	// Put streams reader to the store under key. size is the exact byte
	// count, or -1 when unknown. maxBytes caps the object size in either
	// case; exceeding it fails with ErrObjectTooLarge and leaves nothing
	// behind.
	Put(ctx context.Context, key, contentType string, reader io.Reader, size, maxBytes int64) (StoreResult, error)
	// Remove deletes an object identified by key.
	Remove(ctx context.Context, key string) error
	// PublicURL constructs the browser-accessible URL for a given key.
	PublicURL(key string) string
}
