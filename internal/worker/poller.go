package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/wrenhall/warbler-api/internal/domain"
	"github.com/wrenhall/warbler-api/internal/store"
	"github.com/wrenhall/warbler-api/internal/transcriber"
)

// PollerConfig holds the polling-side limits.
type PollerConfig struct {
	// MaxProcessingAge bounds how long a job may sit in processing
	// before it is escalated to failed. Zero disables escalation.
	MaxProcessingAge time.Duration
}

// DefaultPollerConfig returns a PollerConfig with reasonable defaults.
func DefaultPollerConfig() PollerConfig {
	return PollerConfig{
		MaxProcessingAge: 24 * time.Hour,
	}
}

// Poller checks in-flight jobs against the external service and maps its
// status vocabulary onto the internal state machine. Successful results
// are handed to the Completer; external failures go terminal through the
// normal failure path. Polling never consumes submission attempts.
type Poller struct {
	jobs      store.JobStore
	trans     transcriber.Transcriber
	completer *Completer
	notifier  Notifier
	config    PollerConfig
	logger    *slog.Logger
	now       func() time.Time
}

// NewPoller creates a Poller.
func NewPoller(
	jobs store.JobStore,
	tr transcriber.Transcriber,
	completer *Completer,
	notifier Notifier,
	config PollerConfig,
	logger *slog.Logger,
) (*Poller, error) {
	if jobs == nil {
		return nil, ErrNilJobStore
	}
	if tr == nil {
		return nil, ErrNilTranscriber
	}
	if completer == nil {
		return nil, fmt.Errorf("completer cannot be nil")
	}
	if notifier == nil {
		return nil, ErrNilNotifier
	}
	if logger == nil {
		return nil, ErrNilLogger
	}

	return &Poller{
		jobs:      jobs,
		trans:     tr,
		completer: completer,
		notifier:  notifier,
		config:    config,
		logger:    logger.With("component", "poller"),
		now:       time.Now,
	}, nil
}

// Poll checks one processing job. Unknown or unreachable external status
// leaves the job untouched for the next tick.
func (p *Poller) Poll(ctx context.Context, jobID uuid.UUID) error {
	job, err := p.jobs.GetJob(ctx, jobID)
	if err != nil {
		return fmt.Errorf("failed to load job %s: %w", jobID, err)
	}

	log := p.logger.With("job_id", job.ID)

	if job.Status != domain.JobStatusProcessing {
		log.Debug("skipping poll, job is not processing", "status", job.Status)
		return nil
	}
	if job.ExternalHandle == "" {
		// Should be unreachable: the handle is set in the same write
		// that moves the job to processing.
		log.Error("processing job has no external handle")
		return p.failAndDequeue(ctx, job, "job is processing but has no external handle")
	}

	if p.config.MaxProcessingAge > 0 && job.SubmittedAt != nil {
		if age := p.now().Sub(*job.SubmittedAt); age > p.config.MaxProcessingAge {
			log.Warn("job exceeded max processing age, failing",
				"age", age, "limit", p.config.MaxProcessingAge)
			return p.failAndDequeue(ctx, job, fmt.Sprintf(
				"transcription timed out after %s", age.Truncate(time.Second)))
		}
	}

	result, err := p.trans.Status(ctx, job.ExternalHandle)
	if err != nil {
		// Transient: leave state unchanged, the next tick retries.
		log.Warn("status check failed, will retry next tick", "error", err)
		return nil
	}

	switch result.State {
	case transcriber.StateRunning:
		log.Debug("job still running externally")
		return nil

	case transcriber.StateSucceeded:
		return p.completer.Complete(ctx, job.ID, result.Text)

	case transcriber.StateFailed:
		log.Warn("external transcription failed", "detail", result.ErrorDetail)
		reason := result.ErrorDetail
		if reason == "" {
			reason = "transcription service reported failure"
		}
		return p.failAndDequeue(ctx, job, reason)

	default:
		log.Warn("unrecognized external job state, leaving unchanged",
			"state", result.State)
		return nil
	}
}

// failAndDequeue mirrors the completer's failure path for errors the
// poller itself detects.
func (p *Poller) failAndDequeue(ctx context.Context, job *domain.TranscriptionJob, reason string) error {
	job.MarkFailed(reason, p.now())
	if err := p.jobs.UpdateJob(ctx, job); err != nil {
		return fmt.Errorf("failed to persist failed job %s: %w", job.ID, err)
	}
	if err := p.jobs.RemoveFromQueue(ctx, job.ID); err != nil {
		return fmt.Errorf("failed to dequeue failed job %s: %w", job.ID, err)
	}
	if err := p.notifier.Notify(ctx, job, false); err != nil {
		p.logger.Error("failed to send failure notification",
			"job_id", job.ID, "error", err)
	}
	return nil
}
