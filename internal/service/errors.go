// Package service provides the application-level operations exposed to
// collaborators: creating transcription jobs and querying their status.
package service

import "errors"

// Common service errors - sentinel errors callers check with errors.Is().
// The API layer maps them to HTTP status codes.
var (
	// ErrJobNotFound indicates the requested job does not exist.
	// API layer should map this to HTTP 404 Not Found.
	ErrJobNotFound = errors.New("transcription job not found")

	// ErrResourceNotFound indicates the referenced media resource does
	// not exist or is unreadable.
	// API layer should map this to HTTP 404 Not Found.
	ErrResourceNotFound = errors.New("media resource not found")

	// ErrResourceTooLarge indicates the media resource exceeds the
	// configured submission size limit.
	// API layer should map this to HTTP 413 Request Entity Too Large.
	ErrResourceTooLarge = errors.New("media resource exceeds size limit")

	// ErrPermissionDenied indicates the caller may not create jobs for
	// this observation. Ownership checks live with the collaborator that
	// fronts this service; the sentinel exists so they share a vocabulary.
	// API layer should map this to HTTP 403 Forbidden.
	ErrPermissionDenied = errors.New("permission denied")
)

// JobServiceError wraps unexpected errors from the job service with
// operation context.
type JobServiceError struct {
	Operation string
	Message   string
	Err       error
}

// Error implements the error interface.
func (e *JobServiceError) Error() string {
	if e.Err != nil {
		return e.Operation + ": " + e.Message + ": " + e.Err.Error()
	}
	return e.Operation + ": " + e.Message
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *JobServiceError) Unwrap() error {
	return e.Err
}
