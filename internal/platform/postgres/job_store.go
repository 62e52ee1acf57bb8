package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/wrenhall/warbler-api/internal/domain"
	"github.com/wrenhall/warbler-api/internal/store"
)

// JobStore implements store.JobStore on PostgreSQL. Job records live in
// transcription_jobs; the queue index is the transcription_queue table,
// ordered by a bigserial position so snapshots preserve enqueue order.
type JobStore struct {
	db store.DBTX
}

// NewJobStore creates a JobStore.
func NewJobStore(db store.DBTX) *JobStore {
	return &JobStore{db: db}
}

// Ensure interface compliance.
var _ store.JobStore = (*JobStore)(nil)

// CreateJob implements store.JobStore.
func (s *JobStore) CreateJob(ctx context.Context, job *domain.TranscriptionJob) error {
	if err := job.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO transcription_jobs
			(id, owner_email, observation_id, resource_key, resource_size,
			 resource_mime_type, prompt, status, external_handle, attempts,
			 last_error, created_at, submitted_at, completed_at, transcript_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	_, err := s.db.ExecContext(ctx, query,
		job.ID,
		job.OwnerEmail,
		job.ObservationID,
		job.Resource.Key,
		job.Resource.Size,
		job.Resource.MIMEType,
		job.Prompt,
		job.Status,
		nullString(job.ExternalHandle),
		job.Attempts,
		nullString(job.LastError),
		job.CreatedAt,
		job.SubmittedAt,
		job.CompletedAt,
		job.TranscriptID,
	)
	if err != nil {
		return fmt.Errorf("failed to create job: %w", MapError(err))
	}
	return nil
}

// GetJob implements store.JobStore.
func (s *JobStore) GetJob(ctx context.Context, id uuid.UUID) (*domain.TranscriptionJob, error) {
	query := `
		SELECT id, owner_email, observation_id, resource_key, resource_size,
		       resource_mime_type, prompt, status, external_handle, attempts,
		       last_error, created_at, submitted_at, completed_at, transcript_id
		FROM transcription_jobs
		WHERE id = $1
	`

	job, err := scanJob(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get job: %w", MapError(err))
	}
	return job, nil
}

// UpdateJob implements store.JobStore. Whole-record replace,
// last-writer-wins; callers needing read-modify-write atomicity hold the
// distributed lock around the sequence.
func (s *JobStore) UpdateJob(ctx context.Context, job *domain.TranscriptionJob) error {
	if err := job.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		UPDATE transcription_jobs
		SET owner_email = $2, observation_id = $3, resource_key = $4,
		    resource_size = $5, resource_mime_type = $6, prompt = $7,
		    status = $8, external_handle = $9, attempts = $10,
		    last_error = $11, submitted_at = $12, completed_at = $13,
		    transcript_id = $14
		WHERE id = $1
	`

	result, err := s.db.ExecContext(ctx, query,
		job.ID,
		job.OwnerEmail,
		job.ObservationID,
		job.Resource.Key,
		job.Resource.Size,
		job.Resource.MIMEType,
		job.Prompt,
		job.Status,
		nullString(job.ExternalHandle),
		job.Attempts,
		nullString(job.LastError),
		job.SubmittedAt,
		job.CompletedAt,
		job.TranscriptID,
	)
	if err != nil {
		return fmt.Errorf("failed to update job: %w", MapError(err))
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return store.ErrJobNotFound
	}
	return nil
}

// DeleteJob implements store.JobStore.
func (s *JobStore) DeleteJob(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM transcription_jobs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete job: %w", MapError(err))
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return store.ErrJobNotFound
	}
	return nil
}

// PurgeTerminalBefore implements store.JobStore.
func (s *JobStore) PurgeTerminalBefore(ctx context.Context, cutoff time.Time) (int, error) {
	query := `
		DELETE FROM transcription_jobs
		WHERE status IN ($1, $2)
		  AND COALESCE(completed_at, created_at) < $3
	`

	result, err := s.db.ExecContext(ctx, query,
		domain.JobStatusComplete, domain.JobStatusFailed, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to purge terminal jobs: %w", MapError(err))
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return int(rows), nil
}

// Enqueue implements store.JobStore. ON CONFLICT DO NOTHING makes the
// append idempotent without a read-check race.
func (s *JobStore) Enqueue(ctx context.Context, id uuid.UUID) error {
	query := `
		INSERT INTO transcription_queue (job_id)
		VALUES ($1)
		ON CONFLICT (job_id) DO NOTHING
	`

	if _, err := s.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to enqueue job: %w", MapError(err))
	}
	return nil
}

// RemoveFromQueue implements store.JobStore.
func (s *JobStore) RemoveFromQueue(ctx context.Context, id uuid.UUID) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM transcription_queue WHERE job_id = $1`, id); err != nil {
		return fmt.Errorf("failed to dequeue job: %w", MapError(err))
	}
	return nil
}

// QueueSnapshot implements store.JobStore.
func (s *JobStore) QueueSnapshot(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT job_id FROM transcription_queue ORDER BY position ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to read queue: %w", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan queue entry: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate queue: %w", err)
	}
	return ids, nil
}

// rowScanner abstracts *sql.Row and *sql.Rows for scanJob.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*domain.TranscriptionJob, error) {
	var (
		job            domain.TranscriptionJob
		externalHandle sql.NullString
		lastError      sql.NullString
		submittedAt    sql.NullTime
		completedAt    sql.NullTime
		transcriptID   uuid.NullUUID
	)

	err := row.Scan(
		&job.ID,
		&job.OwnerEmail,
		&job.ObservationID,
		&job.Resource.Key,
		&job.Resource.Size,
		&job.Resource.MIMEType,
		&job.Prompt,
		&job.Status,
		&externalHandle,
		&job.Attempts,
		&lastError,
		&job.CreatedAt,
		&submittedAt,
		&completedAt,
		&transcriptID,
	)
	if err != nil {
		return nil, err
	}

	job.ExternalHandle = externalHandle.String
	job.LastError = lastError.String
	if submittedAt.Valid {
		t := submittedAt.Time
		job.SubmittedAt = &t
	}
	if completedAt.Valid {
		t := completedAt.Time
		job.CompletedAt = &t
	}
	if transcriptID.Valid {
		id := transcriptID.UUID
		job.TranscriptID = &id
	}
	return &job, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
