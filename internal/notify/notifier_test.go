package notify

import (
	"context"
	"log/slog"
	"net/smtp"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wrenhall/warbler-api/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func terminalJob(t *testing.T, succeeded bool) *domain.TranscriptionJob {
	t.Helper()
	job, err := domain.NewTranscriptionJob(
		"owner@example.com",
		uuid.New(),
		domain.MediaResource{Key: "recordings/obs.mp3", Size: 1024, MIMEType: "audio/mpeg"},
		"Transcribe this.",
	)
	require.NoError(t, err)

	if succeeded {
		job.MarkComplete(uuid.New(), time.Now())
	} else {
		job.MarkFailed("submission failed after 3 attempts", time.Now())
	}
	return job
}

func TestSubjectAndBody(t *testing.T) {
	t.Parallel()

	t.Run("success message links the transcript", func(t *testing.T) {
		job := terminalJob(t, true)

		subject := Subject(job, true)
		body := Body(job, true)

		assert.Contains(t, subject, "Transcription ready")
		assert.Contains(t, subject, job.ObservationID.String())
		assert.Contains(t, body, job.TranscriptID.String())
		assert.Contains(t, body, job.ID.String())
	})

	t.Run("failure message carries the reason and manual path", func(t *testing.T) {
		job := terminalJob(t, false)

		subject := Subject(job, false)
		body := Body(job, false)

		assert.Contains(t, subject, "Transcription failed")
		assert.Contains(t, body, "submission failed after 3 attempts")
		assert.Contains(t, body, "manually")
	})
}

func TestSMTPNotifier(t *testing.T) {
	t.Parallel()

	t.Run("sends mail to the job owner", func(t *testing.T) {
		job := terminalJob(t, true)

		var gotAddr, gotFrom string
		var gotTo []string
		var gotMsg []byte

		n := NewSMTPNotifier(SMTPConfig{
			Host: "mail.example.com",
			Port: 587,
			From: "warbler@example.com",
		}, testLogger())
		n.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
			gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, msg
			return nil
		}

		require.NoError(t, n.Notify(context.Background(), job, true))

		assert.Equal(t, "mail.example.com:587", gotAddr)
		assert.Equal(t, "warbler@example.com", gotFrom)
		assert.Equal(t, []string{"owner@example.com"}, gotTo)
		assert.Contains(t, string(gotMsg), "Subject: Transcription ready")
		assert.Contains(t, string(gotMsg), "To: owner@example.com")
	})

	t.Run("fails when the job has no owner email", func(t *testing.T) {
		job := terminalJob(t, false)
		job.OwnerEmail = ""

		n := NewSMTPNotifier(SMTPConfig{Host: "mail.example.com", Port: 587}, testLogger())
		n.send = func(_ string, _ smtp.Auth, _ string, _ []string, _ []byte) error {
			t.Error("send should not be reached without a recipient")
			return nil
		}

		assert.Error(t, n.Notify(context.Background(), job, false))
	})

	t.Run("wraps delivery failures", func(t *testing.T) {
		job := terminalJob(t, false)

		n := NewSMTPNotifier(SMTPConfig{Host: "mail.example.com", Port: 587}, testLogger())
		n.send = func(_ string, _ smtp.Auth, _ string, _ []string, _ []byte) error {
			return assert.AnError
		}

		err := n.Notify(context.Background(), job, false)
		assert.ErrorIs(t, err, assert.AnError)
	})
}

func TestLogNotifier(t *testing.T) {
	t.Parallel()

	n := NewLogNotifier(testLogger())
	assert.NoError(t, n.Notify(context.Background(), terminalJob(t, true), true))
	assert.NoError(t, n.Notify(context.Background(), terminalJob(t, false), false))
}
