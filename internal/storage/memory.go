package storage

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
	"sync"
)

// MemoryStore is an in-memory ObjectStore for tests and local development.
// ETags follow the S3 convention: hex-encoded MD5 of the object bytes.
type MemoryStore struct {
	mu         sync.Mutex
	objects    map[string]memObject
	publicBase string
	putCalls   int

	// PutErr, when set, makes every Put fail with it. Lets tests exercise
	// store-failure paths.
	PutErr error
}

type memObject struct {
	data        []byte
	contentType string
}

// NewMemoryStore returns an empty MemoryStore serving URLs under publicBase.
func NewMemoryStore(publicBase string) *MemoryStore {
	return &MemoryStore{
		objects:    make(map[string]memObject),
		publicBase: strings.TrimRight(publicBase, "/"),
	}
}

// Put stores the full content of reader under key, subject to maxBytes.
func (s *MemoryStore) Put(ctx context.Context, key, contentType string, reader io.Reader, size, maxBytes int64) (StoreResult, error) {
	s.mu.Lock()
	s.putCalls++
	failErr := s.PutErr
	s.mu.Unlock()

	if failErr != nil {
		return StoreResult{}, failErr
	}
	if maxBytes > 0 && size > maxBytes {
		return StoreResult{}, ErrObjectTooLarge
	}

	limit := maxBytes
	if limit <= 0 {
		limit = 1<<63 - 1
	}
	data, err := io.ReadAll(io.LimitReader(reader, limit+1))
	if err != nil {
		return StoreResult{}, fmt.Errorf("read object %q: %w", key, err)
	}
	if int64(len(data)) > limit {
		return StoreResult{}, ErrObjectTooLarge
	}
	if err := ctx.Err(); err != nil {
		return StoreResult{}, err
	}

	sum := md5.Sum(data)

	s.mu.Lock()
	s.objects[key] = memObject{data: data, contentType: contentType}
	s.mu.Unlock()

	return StoreResult{
		Key:  key,
		URL:  s.PublicURL(key),
		ETag: hex.EncodeToString(sum[:]),
	}, nil
}

// Remove deletes the object at key. Removing a missing key is not an error.
func (s *MemoryStore) Remove(ctx context.Context, key string) error {
	s.mu.Lock()
	delete(s.objects, key)
	s.mu.Unlock()
	return nil
}

// PublicURL returns the URL the object would be served from.
func (s *MemoryStore) PublicURL(key string) string {
	return s.publicBase + "/" + key
}

// Object returns the stored bytes and content type for key.
func (s *MemoryStore) Object(key string) ([]byte, string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.objects[key]
	return obj.data, obj.contentType, ok
}

// Len reports how many objects the store currently holds.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}

// PutCalls reports how many Put attempts were made, successful or not.
func (s *MemoryStore) PutCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.putCalls
}
