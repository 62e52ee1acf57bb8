// Package transcriber defines the interface to the external asynchronous
// transcription service and the error taxonomy the submission and polling
// paths distinguish.
package transcriber

import (
	"context"
	"errors"
)

var (
	// ErrRejected indicates the external service refused the request in a
	// non-retryable way (malformed payload, unsupported media). Callers
	// fail the job immediately instead of consuming remaining attempts.
	ErrRejected = errors.New("submission rejected by transcription service")

	// ErrUnavailable indicates a transient condition: network error,
	// 5xx, or timeout. Submission callers count an attempt and retry on
	// a later tick; status callers leave the job untouched.
	ErrUnavailable = errors.New("transcription service unavailable")
)

// JobState is the external service's status vocabulary mapped onto three
// values the poller understands.
type JobState string

const (
	StateRunning   JobState = "running"
	StateSucceeded JobState = "succeeded"
	StateFailed    JobState = "failed"
)

// Request is one submission to the external service: the prompt text
// plus the media bytes with their declared mime type.
type Request struct {
	Prompt   string
	Media    []byte
	MIMEType string
}

// Result is the outcome of a status check. Text is set only when State
// is StateSucceeded; ErrorDetail only when State is StateFailed.
type Result struct {
	State       JobState
	Text        string
	ErrorDetail string
}

// Transcriber submits transcription work and checks its status by the
// opaque handle the service returned.
// Version: 1.0
type Transcriber interface {
	// Submit sends one request to the external service and returns the
	// opaque handle identifying the remote job. Exactly one network call
	// per invocation; the service offers no idempotency key, so a
	// timeout after remote acceptance may yield a duplicate remote job
	// on retry (accepted risk).
	Submit(ctx context.Context, req Request) (string, error)

	// Status queries the remote job identified by handle.
	Status(ctx context.Context, handle string) (*Result, error)
}
