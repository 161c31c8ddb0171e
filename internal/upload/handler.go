package upload

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/imagebin/service/internal/response"
)

const (
	fieldImage  = "image"
	fieldImages = "images"

	// multipart bodies buffer to disk past this threshold
	maxFormMemory = 8 << 20

	// request body ceilings, leaving headroom for multipart framing and
	// base64 inflation (4/3)
	maxSingleBody   = MaxFileBytes + 1<<20
	maxMultipleBody = MaxFiles*MaxFileBytes + 1<<20
	maxBase64Body   = MaxFileBytes/3*4 + 1<<20
)

// Handler holds HTTP handlers for the upload endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates a new upload Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Health reports service liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"healthy"}`))
}

// Single handles one file part under the "image" field.
func (h *Handler) Single(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxSingleBody)

	file, header, err := r.FormFile(fieldImage)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			h.fail(w, r, E(KindMissingInput, "No file uploaded"))
		} else {
			h.fail(w, r, Errorf(KindMalformedInput, "parse multipart form: %v", err))
		}
		return
	}
	_ = file.Close() // the pipeline reopens the part from its header

	res, err := h.svc.Single(r.Context(), header)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.OK(w, "File uploaded successfully", res)
}

// Multiple handles up to MaxFiles file parts under the repeated "images" field.
func (h *Handler) Multiple(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxMultipleBody)

	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		h.fail(w, r, Errorf(KindMalformedInput, "parse multipart form: %v", err))
		return
	}

	results, err := h.svc.Multiple(r.Context(), r.MultipartForm.File[fieldImages])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.OK(w, fmt.Sprintf("%d files uploaded successfully", len(results)), results)
}

// Base64 handles a JSON body carrying a base64 data URL.
func (h *Handler) Base64(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBase64Body)

	var req Base64Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.fail(w, r, Errorf(KindMalformedInput, "decode request body: %v", err))
		return
	}

	res, err := h.svc.FromBase64(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.OK(w, "File uploaded successfully", res)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("upload failed")
	}

	var uerr *Error
	if !errors.As(err, &uerr) {
		response.Error(w, status, "internal server error")
		return
	}
	response.Error(w, status, uerr.Message)
}
