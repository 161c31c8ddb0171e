// Package upload implements the image ingestion pipeline: normalizing each
// wire format into file candidates, validating them against the type and size
// policy, and streaming accepted files into the object store under
// collision-resistant keys.
package upload

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"io"
	"mime/multipart"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/imagebin/service/internal/storage"
)

// Service runs the shared validate-then-store pipeline for all upload modes.
type Service struct {
	store storage.ObjectStore
}

// NewService creates a Service writing to the given store.
func NewService(store storage.ObjectStore) *Service {
	return &Service{store: store}
}

// candidate is one normalized file taken from a request. The byte source is
// opened lazily, after every candidate in the request has passed validation.
type candidate struct {
	filename    string
	contentType string
	size        int64 // -1 when unknown up front
	open        func() (io.ReadCloser, error)
}

func fromPart(fh *multipart.FileHeader) candidate {
	return candidate{
		filename:    fh.Filename,
		contentType: fh.Header.Get("Content-Type"),
		size:        fh.Size,
		open:        func() (io.ReadCloser, error) { return fh.Open() },
	}
}

// Single stores one multipart file part.
func (s *Service) Single(ctx context.Context, fh *multipart.FileHeader) (storage.StoreResult, error) {
	results, err := s.ingest(ctx, []candidate{fromPart(fh)})
	if err != nil {
		return storage.StoreResult{}, err
	}
	return results[0], nil
}

// Multiple stores up to MaxFiles multipart file parts, all-or-nothing: the
// request fails on the first invalid part, in part order, before any write.
func (s *Service) Multiple(ctx context.Context, parts []*multipart.FileHeader) ([]storage.StoreResult, error) {
	if len(parts) == 0 {
		return nil, E(KindMissingInput, "No files uploaded")
	}
	if len(parts) > MaxFiles {
		return nil, Errorf(KindTooManyFiles, "at most %d files per request, got %d", MaxFiles, len(parts))
	}

	cands := make([]candidate, len(parts))
	for i, fh := range parts {
		cands[i] = fromPart(fh)
	}
	return s.ingest(ctx, cands)
}

// Base64Request is the JSON body of the base64 upload endpoint. Base64Data
// must be a data URL of the form "data:image/<subtype>;base64,<payload>".
type Base64Request struct {
	Base64Data string `json:"base64Data"`
	Filename   string `json:"filename"`
}

// FromBase64 decodes a data-URL payload and stores the raw bytes.
func (s *Service) FromBase64(ctx context.Context, req Base64Request) (storage.StoreResult, error) {
	if req.Base64Data == "" || req.Filename == "" {
		return storage.StoreResult{}, E(KindMissingInput, "base64Data and filename are required")
	}

	contentType, data, err := decodeDataURL(req.Base64Data)
	if err != nil {
		return storage.StoreResult{}, err
	}

	results, err := s.ingest(ctx, []candidate{{
		filename:    req.Filename,
		contentType: contentType,
		size:        int64(len(data)),
		open:        func() (io.ReadCloser, error) { return io.NopCloser(bytes.NewReader(data)), nil },
	}})
	if err != nil {
		return storage.StoreResult{}, err
	}
	return results[0], nil
}

// decodeDataURL splits "data:image/<subtype>;base64,<payload>" into the
// reconstructed MIME type and the decoded payload bytes.
func decodeDataURL(s string) (string, []byte, error) {
	meta, payload, found := strings.Cut(s, ",")
	if !found {
		return "", nil, E(KindMalformedInput, "Invalid base64 format")
	}
	subtype, hasPrefix := strings.CutPrefix(meta, "data:image/")
	subtype, hasSuffix := strings.CutSuffix(subtype, ";base64")
	if !hasPrefix || !hasSuffix || subtype == "" {
		return "", nil, E(KindMalformedInput, "Invalid base64 format")
	}

	contentType := "image/" + subtype
	if !allowedTypes[contentType] {
		return "", nil, E(KindValidation, "Only images are allowed")
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, Errorf(KindMalformedInput, "decode base64 payload: %w", err)
	}
	return contentType, data, nil
}

// ingest validates every candidate, then writes them through the store. No
// byte is written until all candidates pass. Writes run concurrently since
// keys are independently unique; results keep request order regardless of
// write completion order.
func (s *Service) ingest(ctx context.Context, cands []candidate) ([]storage.StoreResult, error) {
	for _, c := range cands {
		if err := validate(c.contentType, c.size); err != nil {
			return nil, err
		}
	}

	results := make([]storage.StoreResult, len(cands))
	g, gctx := errgroup.WithContext(ctx)
	for i, c := range cands {
		i, c := i, c
		g.Go(func() error {
			src, err := c.open()
			if err != nil {
				return Errorf(KindMalformedInput, "read file %q: %w", c.filename, err)
			}
			defer src.Close()

			res, err := s.store.Put(gctx, NewKey(c.filename), c.contentType, src, c.size, MaxFileBytes)
			if err != nil {
				if errors.Is(err, storage.ErrObjectTooLarge) {
					return Errorf(KindValidation, "file %q exceeds the %d MiB size limit", c.filename, MaxFileBytes>>20)
				}
				return &Error{Kind: KindStore, Message: "storing file failed", Err: err}
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.discard(ctx, results)
		return nil, err
	}
	return results, nil
}

// discard removes objects already written by a failed request, best-effort,
// so a failed multi-upload leaves nothing behind.
func (s *Service) discard(ctx context.Context, results []storage.StoreResult) {
	for _, res := range results {
		if res.Key == "" {
			continue
		}
		if err := s.store.Remove(context.WithoutCancel(ctx), res.Key); err != nil {
			log.Warn().Err(err).Str("key", res.Key).Msg("remove object after failed upload")
		}
	}
}
