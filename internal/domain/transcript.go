package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Common validation errors for Transcript
var (
	ErrEmptyTranscriptID   = errors.New("transcript ID cannot be empty")
	ErrEmptyTranscriptText = errors.New("transcript text cannot be empty")
	ErrEmptyTranscriptJob  = errors.New("transcript job ID cannot be empty")
)

// Transcript is the persisted artifact produced by a successfully
// completed transcription job, linked back to the owning observation.
type Transcript struct {
	ID            uuid.UUID `json:"id"`
	ObservationID uuid.UUID `json:"observation_id"`
	JobID         uuid.UUID `json:"job_id"`
	Text          string    `json:"text"`
	CreatedAt     time.Time `json:"created_at"`
}

// NewTranscript creates a transcript artifact for the given observation
// and job. Returns an error if validation fails.
func NewTranscript(observationID, jobID uuid.UUID, text string) (*Transcript, error) {
	tr := &Transcript{
		ID:            uuid.New(),
		ObservationID: observationID,
		JobID:         jobID,
		Text:          text,
		CreatedAt:     time.Now().UTC(),
	}

	if err := tr.Validate(); err != nil {
		return nil, err
	}

	return tr, nil
}

// Validate checks that the transcript has valid data.
func (t *Transcript) Validate() error {
	if t.ID == uuid.Nil {
		return ErrEmptyTranscriptID
	}

	if t.ObservationID == uuid.Nil {
		return ErrEmptyObservationID
	}

	if t.JobID == uuid.Nil {
		return ErrEmptyTranscriptJob
	}

	if t.Text == "" {
		return ErrEmptyTranscriptText
	}

	return nil
}
