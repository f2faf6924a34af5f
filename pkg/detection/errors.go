package detection

import (
	"errors"
	"fmt"
)

// Sentinel errors for common conditions.
var (
	// ErrModelNotFound is returned when the YuNet model file is missing.
	ErrModelNotFound = errors.New("detection: model file not found")

	// ErrEmptyImage is returned when a frame decodes to nothing.
	ErrEmptyImage = errors.New("detection: empty image")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("detection: closed")

	// ErrBadTransform is returned when the sidecar sends a transform that is
	// not 4x4.
	ErrBadTransform = errors.New("detection: transform must have 16 values")
)

// APIError is a non-2xx response from the landmark sidecar.
type APIError struct {
	StatusCode int
	Message    string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("detection: sidecar error %d: %s", e.StatusCode, e.Message)
}

// IsRetryable reports whether the request may succeed if repeated.
func (e *APIError) IsRetryable() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}
