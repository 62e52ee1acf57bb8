package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validResource() MediaResource {
	return MediaResource{
		Key:      "recordings/obs-42.mp3",
		Size:     2048,
		MIMEType: "audio/mpeg",
	}
}

func TestNewTranscriptionJob(t *testing.T) {
	t.Parallel()

	t.Run("creates pending job with valid inputs", func(t *testing.T) {
		observationID := uuid.New()
		job, err := NewTranscriptionJob("owner@example.com", observationID, validResource(), "Transcribe this recording.")

		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, job.ID)
		assert.Equal(t, "owner@example.com", job.OwnerEmail)
		assert.Equal(t, observationID, job.ObservationID)
		assert.Equal(t, JobStatusPending, job.Status)
		assert.Zero(t, job.Attempts)
		assert.Empty(t, job.ExternalHandle)
		assert.False(t, job.CreatedAt.IsZero())
		assert.Nil(t, job.SubmittedAt)
		assert.Nil(t, job.CompletedAt)
		assert.Nil(t, job.TranscriptID)
	})

	t.Run("fails with empty owner email", func(t *testing.T) {
		_, err := NewTranscriptionJob("", uuid.New(), validResource(), "prompt")
		assert.Equal(t, ErrEmptyOwnerEmail, err)
	})

	t.Run("fails with nil observation ID", func(t *testing.T) {
		_, err := NewTranscriptionJob("owner@example.com", uuid.Nil, validResource(), "prompt")
		assert.Equal(t, ErrEmptyObservationID, err)
	})

	t.Run("fails with empty resource key", func(t *testing.T) {
		_, err := NewTranscriptionJob("owner@example.com", uuid.New(), MediaResource{}, "prompt")
		assert.Equal(t, ErrEmptyResourceKey, err)
	})
}

func TestTranscriptionJobValidate(t *testing.T) {
	t.Parallel()

	newValid := func() *TranscriptionJob {
		job, err := NewTranscriptionJob("owner@example.com", uuid.New(), validResource(), "prompt")
		require.NoError(t, err)
		return job
	}

	t.Run("rejects invalid status", func(t *testing.T) {
		job := newValid()
		job.Status = JobStatus("archived")
		assert.Equal(t, ErrInvalidJobStatus, job.Validate())
	})

	t.Run("rejects negative attempts", func(t *testing.T) {
		job := newValid()
		job.Attempts = -1
		assert.Equal(t, ErrNegativeAttempts, job.Validate())
	})

	t.Run("rejects nil ID", func(t *testing.T) {
		job := newValid()
		job.ID = uuid.Nil
		assert.Equal(t, ErrEmptyJobID, job.Validate())
	})
}

func TestTranscriptionJobMarkProcessing(t *testing.T) {
	t.Parallel()

	job, err := NewTranscriptionJob("owner@example.com", uuid.New(), validResource(), "prompt")
	require.NoError(t, err)

	submittedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, job.MarkProcessing("batches/handle-1", submittedAt))

	assert.Equal(t, JobStatusProcessing, job.Status)
	assert.Equal(t, "batches/handle-1", job.ExternalHandle)
	require.NotNil(t, job.SubmittedAt)
	assert.Equal(t, submittedAt, *job.SubmittedAt)

	t.Run("rejects second handle", func(t *testing.T) {
		err := job.MarkProcessing("batches/handle-2", time.Now())
		assert.Error(t, err)
		assert.Equal(t, "batches/handle-1", job.ExternalHandle)
	})

	t.Run("rejects empty handle", func(t *testing.T) {
		fresh, err := NewTranscriptionJob("owner@example.com", uuid.New(), validResource(), "prompt")
		require.NoError(t, err)
		assert.Error(t, fresh.MarkProcessing("", time.Now()))
		assert.Equal(t, JobStatusPending, fresh.Status)
	})
}

func TestTranscriptionJobTerminalStates(t *testing.T) {
	t.Parallel()

	t.Run("complete is terminal and links the transcript", func(t *testing.T) {
		job, err := NewTranscriptionJob("owner@example.com", uuid.New(), validResource(), "prompt")
		require.NoError(t, err)

		transcriptID := uuid.New()
		completedAt := time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)
		job.MarkComplete(transcriptID, completedAt)

		assert.True(t, job.IsTerminal())
		assert.Equal(t, JobStatusComplete, job.Status)
		require.NotNil(t, job.TranscriptID)
		assert.Equal(t, transcriptID, *job.TranscriptID)
		assert.Equal(t, completedAt, job.TerminalAt())
	})

	t.Run("failed is terminal and records the reason", func(t *testing.T) {
		job, err := NewTranscriptionJob("owner@example.com", uuid.New(), validResource(), "prompt")
		require.NoError(t, err)

		failedAt := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
		job.MarkFailed("resource too large", failedAt)

		assert.True(t, job.IsTerminal())
		assert.Equal(t, JobStatusFailed, job.Status)
		assert.Equal(t, "resource too large", job.LastError)
		assert.Equal(t, failedAt, job.TerminalAt())
	})

	t.Run("pending and processing are not terminal", func(t *testing.T) {
		job, err := NewTranscriptionJob("owner@example.com", uuid.New(), validResource(), "prompt")
		require.NoError(t, err)
		assert.False(t, job.IsTerminal())

		require.NoError(t, job.MarkProcessing("batches/h", time.Now()))
		assert.False(t, job.IsTerminal())
	})

	t.Run("terminal time falls back to creation when never completed", func(t *testing.T) {
		job, err := NewTranscriptionJob("owner@example.com", uuid.New(), validResource(), "prompt")
		require.NoError(t, err)
		assert.Equal(t, job.CreatedAt, job.TerminalAt())
	})
}
