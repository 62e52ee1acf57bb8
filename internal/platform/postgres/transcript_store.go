package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/wrenhall/warbler-api/internal/domain"
	"github.com/wrenhall/warbler-api/internal/store"
)

// TranscriptStore implements store.TranscriptStore on PostgreSQL.
type TranscriptStore struct {
	db store.DBTX
}

// NewTranscriptStore creates a TranscriptStore.
func NewTranscriptStore(db store.DBTX) *TranscriptStore {
	return &TranscriptStore{db: db}
}

var _ store.TranscriptStore = (*TranscriptStore)(nil)

// CreateTranscript implements store.TranscriptStore.
func (s *TranscriptStore) CreateTranscript(ctx context.Context, transcript *domain.Transcript) error {
	if err := transcript.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO transcripts (id, observation_id, job_id, text, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := s.db.ExecContext(ctx, query,
		transcript.ID,
		transcript.ObservationID,
		transcript.JobID,
		transcript.Text,
		transcript.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create transcript: %w", MapError(err))
	}
	return nil
}

// GetTranscript implements store.TranscriptStore.
func (s *TranscriptStore) GetTranscript(ctx context.Context, id uuid.UUID) (*domain.Transcript, error) {
	query := `
		SELECT id, observation_id, job_id, text, created_at
		FROM transcripts
		WHERE id = $1
	`

	var tr domain.Transcript
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&tr.ID,
		&tr.ObservationID,
		&tr.JobID,
		&tr.Text,
		&tr.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrTranscriptNotFound
		}
		return nil, fmt.Errorf("failed to get transcript: %w", MapError(err))
	}
	return &tr, nil
}
