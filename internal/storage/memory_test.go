package storage

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
)

func TestMemoryStorePutAndObject(t *testing.T) {
	store := NewMemoryStore("http://localhost:9000/images/")

	res, err := store.Put(context.Background(), "images/1-abc-a.png", "image/png", strings.NewReader("hello"), 5, 1<<20)
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if res.URL != "http://localhost:9000/images/images/1-abc-a.png" {
		t.Fatalf("unexpected url %q", res.URL)
	}
	// MD5 of "hello"
	if res.ETag != "5d41402abc4b2a76b9719d911017c592" {
		t.Fatalf("unexpected etag %q", res.ETag)
	}

	data, contentType, ok := store.Object("images/1-abc-a.png")
	if !ok || !bytes.Equal(data, []byte("hello")) || contentType != "image/png" {
		t.Fatalf("stored object mismatch: ok=%v data=%q type=%q", ok, data, contentType)
	}
}

func TestMemoryStoreSizeCeiling(t *testing.T) {
	store := NewMemoryStore("http://example.com")

	// Declared size over the cap: rejected before reading.
	_, err := store.Put(context.Background(), "k1", "image/png", strings.NewReader("xx"), 100, 10)
	if !errors.Is(err, ErrObjectTooLarge) {
		t.Fatalf("want ErrObjectTooLarge, got %v", err)
	}

	// Unknown size streaming past the cap: rejected, nothing stored.
	_, err = store.Put(context.Background(), "k2", "image/png", strings.NewReader(strings.Repeat("x", 11)), -1, 10)
	if !errors.Is(err, ErrObjectTooLarge) {
		t.Fatalf("want ErrObjectTooLarge, got %v", err)
	}

	// Exactly at the cap is fine.
	if _, err := store.Put(context.Background(), "k3", "image/png", strings.NewReader(strings.Repeat("x", 10)), -1, 10); err != nil {
		t.Fatalf("put at cap: %v", err)
	}

	if store.Len() != 1 {
		t.Fatalf("want 1 stored object, got %d", store.Len())
	}
	if store.PutCalls() != 3 {
		t.Fatalf("want 3 put attempts, got %d", store.PutCalls())
	}
}

func TestMemoryStorePutErr(t *testing.T) {
	store := NewMemoryStore("http://example.com")
	boom := errors.New("boom")
	store.PutErr = boom

	_, err := store.Put(context.Background(), "k", "image/png", strings.NewReader("x"), 1, 10)
	if !errors.Is(err, boom) {
		t.Fatalf("want injected error, got %v", err)
	}
	if store.Len() != 0 {
		t.Fatalf("failed put must not store anything")
	}
}

func TestMemoryStoreRemove(t *testing.T) {
	store := NewMemoryStore("http://example.com")

	if _, err := store.Put(context.Background(), "k", "image/png", strings.NewReader("x"), 1, 10); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := store.Remove(context.Background(), "k"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := store.Remove(context.Background(), "missing"); err != nil {
		t.Fatalf("remove missing key: %v", err)
	}
	if store.Len() != 0 {
		t.Fatalf("want empty store, got %d objects", store.Len())
	}
}

func TestCappedReaderOverflow(t *testing.T) {
	src := strings.NewReader(strings.Repeat("x", 11))
	cr := &cappedReader{r: src, remaining: 10}

	buf := make([]byte, 64)
	total := 0
	var readErr error
	for {
		n, err := cr.Read(buf)
		total += n
		if err != nil {
			readErr = err
			break
		}
	}

	if !errors.Is(readErr, ErrObjectTooLarge) {
		t.Fatalf("want ErrObjectTooLarge, got %v", readErr)
	}
	if !cr.exceeded {
		t.Fatal("exceeded flag not set")
	}
	if total != 10 {
		t.Fatalf("want 10 bytes let through, got %d", total)
	}
}
