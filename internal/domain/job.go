package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// JobStatus represents the lifecycle state of a transcription job.
type JobStatus string

// Possible job status values. Complete and Failed are terminal: a job in
// either state never transitions again and is absent from the queue index.
const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusComplete   JobStatus = "complete"
	JobStatusFailed     JobStatus = "failed"
)

// MaxSubmissionAttempts caps how many times a job may be submitted to the
// external service. Only failed submissions consume attempts; polling and
// precondition failures never do.
const MaxSubmissionAttempts = 3

// Common validation errors for TranscriptionJob
var (
	ErrEmptyJobID         = errors.New("job ID cannot be empty")
	ErrEmptyOwnerEmail    = errors.New("job owner email cannot be empty")
	ErrEmptyObservationID = errors.New("job observation ID cannot be empty")
	ErrEmptyResourceKey   = errors.New("job resource key cannot be empty")
	ErrInvalidJobStatus   = errors.New("invalid job status")
	ErrNegativeAttempts   = errors.New("job attempts cannot be negative")
)

// MediaResource is the opaque reference to the input recording. The bytes
// themselves live in object storage; the job only carries the key plus the
// size and mime type captured at creation time.
type MediaResource struct {
	Key      string `json:"key"`
	Size     int64  `json:"size"`
	MIMEType string `json:"mime_type"`
}

// TranscriptionJob tracks a single media resource submitted for external
// asynchronous transcription, from creation through a terminal state.
type TranscriptionJob struct {
	ID            uuid.UUID     `json:"id"`
	OwnerEmail    string        `json:"owner_email"`
	ObservationID uuid.UUID     `json:"observation_id"`
	Resource      MediaResource `json:"resource"`
	Prompt        string        `json:"prompt"`
	Status        JobStatus     `json:"status"`

	// ExternalHandle is the opaque identifier returned by the external
	// service on successful submission. Set at most once.
	ExternalHandle string `json:"external_handle,omitempty"`

	// Attempts counts failed submission attempts only.
	Attempts  int    `json:"attempts"`
	LastError string `json:"last_error,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	SubmittedAt *time.Time `json:"submitted_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// TranscriptID references the artifact created on completion.
	TranscriptID *uuid.UUID `json:"transcript_id,omitempty"`
}

// NewTranscriptionJob creates a pending job for the given owner,
// observation, and resource. It generates the job ID and sets the creation
// timestamp. Returns an error if validation fails.
func NewTranscriptionJob(
	ownerEmail string,
	observationID uuid.UUID,
	resource MediaResource,
	prompt string,
) (*TranscriptionJob, error) {
	job := &TranscriptionJob{
		ID:            uuid.New(),
		OwnerEmail:    ownerEmail,
		ObservationID: observationID,
		Resource:      resource,
		Prompt:        prompt,
		Status:        JobStatusPending,
		CreatedAt:     time.Now().UTC(),
	}

	if err := job.Validate(); err != nil {
		return nil, err
	}

	return job, nil
}

// Validate checks that the job has valid data.
func (j *TranscriptionJob) Validate() error {
	if j.ID == uuid.Nil {
		return ErrEmptyJobID
	}

	if j.OwnerEmail == "" {
		return ErrEmptyOwnerEmail
	}

	if j.ObservationID == uuid.Nil {
		return ErrEmptyObservationID
	}

	if j.Resource.Key == "" {
		return ErrEmptyResourceKey
	}

	if !isValidJobStatus(j.Status) {
		return ErrInvalidJobStatus
	}

	if j.Attempts < 0 {
		return ErrNegativeAttempts
	}

	return nil
}

// IsTerminal reports whether the job has reached a terminal state.
func (j *TranscriptionJob) IsTerminal() bool {
	return j.Status == JobStatusComplete || j.Status == JobStatusFailed
}

// MarkProcessing records a successful submission: it sets the external
// handle and submission time and advances the status. The handle is only
// accepted once; a second call is rejected.
func (j *TranscriptionJob) MarkProcessing(handle string, submittedAt time.Time) error {
	if j.ExternalHandle != "" {
		return errors.New("external handle already set")
	}
	if handle == "" {
		return errors.New("external handle cannot be empty")
	}

	j.ExternalHandle = handle
	j.Status = JobStatusProcessing
	t := submittedAt.UTC()
	j.SubmittedAt = &t
	return nil
}

// MarkComplete finalizes the job with the created transcript.
func (j *TranscriptionJob) MarkComplete(transcriptID uuid.UUID, completedAt time.Time) {
	j.Status = JobStatusComplete
	t := completedAt.UTC()
	j.CompletedAt = &t
	j.TranscriptID = &transcriptID
}

// MarkFailed moves the job to the failed terminal state with the given
// error detail.
func (j *TranscriptionJob) MarkFailed(reason string, failedAt time.Time) {
	j.Status = JobStatusFailed
	j.LastError = reason
	t := failedAt.UTC()
	j.CompletedAt = &t
}

// TerminalAt returns the timestamp the retention sweeper measures age
// against: the completion time when present, otherwise the creation time
// (jobs that failed before ever being submitted).
func (j *TranscriptionJob) TerminalAt() time.Time {
	if j.CompletedAt != nil {
		return *j.CompletedAt
	}
	return j.CreatedAt
}

// isValidJobStatus checks if the given status is a valid JobStatus.
func isValidJobStatus(status JobStatus) bool {
	switch status {
	case JobStatusPending, JobStatusProcessing, JobStatusComplete, JobStatusFailed:
		return true
	default:
		return false
	}
}
