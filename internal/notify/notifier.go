// Package notify dispatches best-effort terminal-state messages to job
// owners. Delivery failure is logged and never affects job state.
package notify

import (
	"context"
	"fmt"

	"github.com/wrenhall/warbler-api/internal/domain"
)

// Notifier sends a terminal-state message to the job's owner.
// Version: 1.0
type Notifier interface {
	// Notify reports the job's outcome to its owner. succeeded selects
	// between the completion and failure message bodies.
	Notify(ctx context.Context, job *domain.TranscriptionJob, succeeded bool) error
}

// Subject returns the message subject line for a terminal job.
func Subject(job *domain.TranscriptionJob, succeeded bool) string {
	if succeeded {
		return fmt.Sprintf("Transcription ready for observation %s", job.ObservationID)
	}
	return fmt.Sprintf("Transcription failed for observation %s", job.ObservationID)
}

// Body returns the message body for a terminal job. On success it points
// at the created transcript; on failure it carries the recorded error and
// directs the owner to the manual transcription path.
func Body(job *domain.TranscriptionJob, succeeded bool) string {
	if succeeded {
		transcriptID := ""
		if job.TranscriptID != nil {
			transcriptID = job.TranscriptID.String()
		}
		return fmt.Sprintf(
			"Your transcription job %s finished.\n\nTranscript: %s\nObservation: %s\n",
			job.ID, transcriptID, job.ObservationID,
		)
	}
	return fmt.Sprintf(
		"Your transcription job %s could not be completed.\n\nReason: %s\n\n"+
			"You can retry by running the transcription manually from the observation page.\n",
		job.ID, job.LastError,
	)
}
