package upload

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an upload failure. The first four are caller-fixable and
// detected before any store write; KindStore covers transport, permission and
// timeout failures from the object store.
type Kind int

const (
	// KindMissingInput means a required field or file part was absent.
	KindMissingInput Kind = iota
	// KindMalformedInput means the payload was structurally invalid.
	KindMalformedInput
	// KindValidation means the payload was well-formed but rejected by
	// policy (unsupported type or too large).
	KindValidation
	// KindTooManyFiles means a multi-upload exceeded the part cap.
	KindTooManyFiles
	// KindStore means the object store write failed.
	KindStore
)

// Error is a tagged upload failure. Handlers map Kind to an HTTP status once,
// centrally, via StatusFor — never by inspecting message text.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Err }

// E builds an Error with a fixed message.
func E(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Errorf builds an Error with a formatted message, wrapping any error passed
// as a format argument.
func Errorf(kind Kind, format string, args ...interface{}) *Error {
	err := fmt.Errorf(format, args...)
	return &Error{Kind: kind, Message: err.Error(), Err: errors.Unwrap(err)}
}

// StatusFor maps an error to the HTTP status code of the failure response.
// Unrecognized errors are treated as internal.
func StatusFor(err error) int {
	var uerr *Error
	if !errors.As(err, &uerr) {
		return http.StatusInternalServerError
	}
	if uerr.Kind == KindStore {
		return http.StatusInternalServerError
	}
	return http.StatusBadRequest
}
