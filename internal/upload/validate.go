package upload

import "fmt"

// MaxFileBytes is the per-file size ceiling: 10 MiB.
const MaxFileBytes = 10 << 20

// MaxFiles caps the number of parts accepted by a multi-file upload.
const MaxFiles = 10

// allowedTypes is the exact set of accepted MIME types. Declared types are
// matched case-sensitively; bytes are never sniffed.
var allowedTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// validate applies the upload policy to a declared content type and size.
// Pass size -1 when the byte count is unknown up front; the store write then
// enforces the same ceiling while streaming.
func validate(contentType string, size int64) error {
	if !allowedTypes[contentType] {
		return Errorf(KindValidation, "unsupported content type %q, only jpeg, png, gif and webp images are allowed", contentType)
	}
	if size > MaxFileBytes {
		return E(KindValidation, fmt.Sprintf("file exceeds the %d MiB size limit", MaxFileBytes>>20))
	}
	return nil
}
