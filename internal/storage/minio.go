package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog/log"
)

// MinioStorage implements ObjectStore using a MinIO (or any S3-compatible)
// backend. To point it at AWS S3 or another provider, change the endpoint and
// credentials — no code changes are needed.
type MinioStorage struct {
	client     *minio.Client
	bucket     string
	publicBase string
}

// NewMinioStorage creates a MinIO client, ensures the bucket exists with a
// public-read policy, and returns a ready-to-use MinioStorage.
func NewMinioStorage(endpoint, accessKey, secretKey, bucket, publicBase string, useSSL bool) (*MinioStorage, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	ctx := context.Background()

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket existence: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %q: %w", bucket, err)
		}
		log.Info().Str("bucket", bucket).Msg("created bucket")
	}

	if err := client.SetBucketPolicy(ctx, bucket, publicReadPolicy(bucket)); err != nil {
		return nil, fmt.Errorf("set bucket policy: %w", err)
	}

	return &MinioStorage{
		client:     client,
		bucket:     bucket,
		publicBase: strings.TrimRight(publicBase, "/"),
	}, nil
}

// Put streams reader to MinIO under key, enforcing maxBytes. A known size is
// checked before any byte is sent; an unknown size (-1) streams through a
// capped reader and the partial object is removed when the cap is exceeded.
func (s *MinioStorage) Put(ctx context.Context, key, contentType string, reader io.Reader, size, maxBytes int64) (StoreResult, error) {
	var capped *cappedReader
	if maxBytes > 0 {
		if size > maxBytes {
			return StoreResult{}, ErrObjectTooLarge
		}
		if size < 0 {
			capped = &cappedReader{r: reader, remaining: maxBytes}
			reader = capped
		}
	}

	info, err := s.client.PutObject(ctx, s.bucket, key, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		if capped != nil && capped.exceeded {
			if rmErr := s.Remove(context.WithoutCancel(ctx), key); rmErr != nil {
				log.Warn().Err(rmErr).Str("key", key).Msg("remove oversize partial object")
			}
			return StoreResult{}, ErrObjectTooLarge
		}
		return StoreResult{}, fmt.Errorf("put object %q: %w", key, err)
	}

	return StoreResult{Key: key, URL: s.PublicURL(key), ETag: info.ETag}, nil
}

// Remove deletes the object at key from the bucket.
func (s *MinioStorage) Remove(ctx context.Context, key string) error {
	return s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
}

// PublicURL returns the browser-accessible URL for the given key.
// For local MinIO: "http://localhost:9000/images/<key>"
// For AWS S3: "https://<bucket>.s3.<region>.amazonaws.com/<key>"
func (s *MinioStorage) PublicURL(key string) string {
	return s.publicBase + "/" + key
}

// cappedReader lets at most remaining bytes through and flags overflow.
type cappedReader struct {
	r         io.Reader
	remaining int64
	exceeded  bool
}

func (c *cappedReader) Read(p []byte) (int, error) {
	if c.remaining <= 0 {
		// Probe one byte to tell a source that ends exactly at the cap
		// apart from one that overflows it.
		var b [1]byte
		if n, _ := c.r.Read(b[:]); n > 0 {
			c.exceeded = true
			return 0, ErrObjectTooLarge
		}
		return 0, io.EOF
	}
	if int64(len(p)) > c.remaining {
		p = p[:c.remaining]
	}
	n, err := c.r.Read(p)
	c.remaining -= int64(n)
	return n, err
}

// publicReadPolicy returns an S3 bucket policy JSON that allows anonymous GET
// on all objects.
func publicReadPolicy(bucket string) string {
	policy := map[string]interface{}{
		"Version": "2012-10-17",
		"Statement": []map[string]interface{}{
			{
				"Effect":    "Allow",
				"Principal": "*",
				"Action":    "s3:GetObject",
				"Resource":  fmt.Sprintf("arn:aws:s3:::%s/*", bucket),
			},
		},
	}
	b, _ := json.Marshal(policy)
	return string(b)
}
