package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/wrenhall/warbler-api/internal/domain"
)

// JobStore defines the interface for transcription-job persistence plus
// the ordered queue index of non-terminal job IDs.
//
// Every operation is individually atomic. Multi-step workflows (update a
// record AND remove it from the queue) are the caller's responsibility to
// sequence, and to guard with the distributed lock where atomicity across
// steps matters. Record writes are whole-record, last-writer-wins.
// Version: 1.0
type JobStore interface {
	// CreateJob saves a new job to the store.
	// Returns validation errors from the domain job if data is invalid.
	CreateJob(ctx context.Context, job *domain.TranscriptionJob) error

	// GetJob retrieves a job by its unique ID.
	// Returns ErrJobNotFound if the job does not exist.
	GetJob(ctx context.Context, id uuid.UUID) (*domain.TranscriptionJob, error)

	// UpdateJob replaces an existing job record.
	// Returns ErrJobNotFound if the job does not exist.
	UpdateJob(ctx context.Context, job *domain.TranscriptionJob) error

	// DeleteJob removes a job record. Used by the retention sweeper only.
	// Returns ErrJobNotFound if the job does not exist.
	DeleteJob(ctx context.Context, id uuid.UUID) error

	// PurgeTerminalBefore deletes every terminal job whose terminal
	// timestamp (completed_at, falling back to created_at) is older than
	// the cutoff. Non-terminal jobs are never deleted regardless of age.
	// Returns the number of records removed.
	PurgeTerminalBefore(ctx context.Context, cutoff time.Time) (int, error)

	// Enqueue appends the job ID to the queue index. Idempotent: a no-op
	// if the ID is already present, so the queue never holds duplicates.
	Enqueue(ctx context.Context, id uuid.UUID) error

	// RemoveFromQueue deletes the job ID from the queue index. A no-op if
	// the ID is not present.
	RemoveFromQueue(ctx context.Context, id uuid.UUID) error

	// QueueSnapshot returns the queue index in enqueue order. Read-only.
	QueueSnapshot(ctx context.Context) ([]uuid.UUID, error)
}

// TranscriptStore defines the interface for transcript artifact
// persistence.
// Version: 1.0
type TranscriptStore interface {
	// CreateTranscript saves a new transcript artifact.
	// Returns validation errors from the domain transcript if invalid.
	CreateTranscript(ctx context.Context, transcript *domain.Transcript) error

	// GetTranscript retrieves a transcript by its unique ID.
	// Returns ErrTranscriptNotFound if the transcript does not exist.
	GetTranscript(ctx context.Context, id uuid.UUID) (*domain.Transcript, error)
}
