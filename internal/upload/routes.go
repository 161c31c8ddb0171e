package upload

import "github.com/go-chi/chi/v5"

// RegisterRoutes mounts the upload API onto r.
func RegisterRoutes(r chi.Router, h *Handler) {
	r.Get("/health", h.Health)
	r.Post("/upload", h.Single)
	r.Post("/upload-base64", h.Base64)
	r.Post("/upload-multiple", h.Multiple)
}
