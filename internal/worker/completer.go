package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/wrenhall/warbler-api/internal/domain"
	"github.com/wrenhall/warbler-api/internal/lock"
	"github.com/wrenhall/warbler-api/internal/store"
)

// CompleterConfig holds the completion critical-section settings.
type CompleterConfig struct {
	// LockTimeout bounds how long Complete waits for the per-job lock
	// before giving up for this tick.
	LockTimeout time.Duration

	// LockTTL bounds how long the lease survives a crashed holder.
	LockTTL time.Duration
}

// DefaultCompleterConfig returns a CompleterConfig with reasonable
// defaults.
func DefaultCompleterConfig() CompleterConfig {
	return CompleterConfig{
		LockTimeout: 5 * time.Second,
		LockTTL:     2 * time.Minute,
	}
}

// Completer finalizes successfully transcribed jobs: it materializes the
// transcript artifact, links it to the observation, marks the job
// complete, removes it from the queue, and notifies the owner. The whole
// sequence runs under a named per-job lock so that overlapping ticks
// produce at most one artifact per job.
type Completer struct {
	jobs        store.JobStore
	transcripts store.TranscriptStore
	locker      lock.Locker
	notifier    Notifier
	config      CompleterConfig
	logger      *slog.Logger
	now         func() time.Time
}

// NewCompleter creates a Completer.
func NewCompleter(
	jobs store.JobStore,
	transcripts store.TranscriptStore,
	locker lock.Locker,
	notifier Notifier,
	config CompleterConfig,
	logger *slog.Logger,
) (*Completer, error) {
	if jobs == nil {
		return nil, ErrNilJobStore
	}
	if transcripts == nil {
		return nil, ErrNilTranscriptStore
	}
	if locker == nil {
		return nil, ErrNilLocker
	}
	if notifier == nil {
		return nil, ErrNilNotifier
	}
	if logger == nil {
		return nil, ErrNilLogger
	}
	defaults := DefaultCompleterConfig()
	if config.LockTimeout <= 0 {
		config.LockTimeout = defaults.LockTimeout
	}
	if config.LockTTL <= 0 {
		config.LockTTL = defaults.LockTTL
	}

	return &Completer{
		jobs:        jobs,
		transcripts: transcripts,
		locker:      locker,
		notifier:    notifier,
		config:      config,
		logger:      logger.With("component", "completer"),
		now:         time.Now,
	}, nil
}

// completionLockName returns the lock name serializing completion of one
// job.
func completionLockName(jobID uuid.UUID) string {
	return "transcription:complete:" + jobID.String()
}

// Complete finalizes one job with the transcript text the poller
// extracted. If the lock cannot be acquired within the configured
// timeout the call returns without side effects; the poll result is
// rediscovered on the next tick, so skipping here is safe. Once the lock
// is held, the job record is re-read and the call no-ops if another
// invocation already finished it.
func (c *Completer) Complete(ctx context.Context, jobID uuid.UUID, text string) error {
	log := c.logger.With("job_id", jobID)

	lockCtx, cancel := context.WithTimeout(ctx, c.config.LockTimeout)
	defer cancel()

	lease, err := c.locker.Acquire(lockCtx, completionLockName(jobID), c.config.LockTTL)
	if err != nil {
		if errors.Is(err, lock.ErrNotAcquired) {
			log.Info("completion lock held elsewhere, retrying next tick")
			return nil
		}
		return fmt.Errorf("failed to acquire completion lock for job %s: %w", jobID, err)
	}
	defer func() {
		if releaseErr := lease.Release(ctx); releaseErr != nil {
			log.Error("failed to release completion lock", "error", releaseErr)
		}
	}()

	job, err := c.jobs.GetJob(ctx, jobID)
	if err != nil {
		return fmt.Errorf("failed to load job %s: %w", jobID, err)
	}

	// Idempotence guard: a concurrent invocation may have finished the
	// job between the poll and our lock acquisition.
	if job.IsTerminal() {
		log.Debug("job already terminal, nothing to complete", "status", job.Status)
		return nil
	}

	if text == "" {
		log.Warn("transcription result is empty, failing job")
		return c.failAndDequeue(ctx, job, "transcription service returned an empty result")
	}

	transcript, err := domain.NewTranscript(job.ObservationID, job.ID, text)
	if err != nil {
		log.Error("failed to build transcript", "error", err)
		return c.failAndDequeue(ctx, job, fmt.Sprintf("invalid transcript: %s", err.Error()))
	}

	if err := c.transcripts.CreateTranscript(ctx, transcript); err != nil {
		log.Error("failed to persist transcript", "error", err)
		return c.failAndDequeue(ctx, job, fmt.Sprintf("failed to store transcript: %s", err.Error()))
	}

	job.MarkComplete(transcript.ID, c.now())
	if err := c.jobs.UpdateJob(ctx, job); err != nil {
		return fmt.Errorf("failed to finalize job %s: %w", job.ID, err)
	}
	if err := c.jobs.RemoveFromQueue(ctx, job.ID); err != nil {
		return fmt.Errorf("failed to dequeue completed job %s: %w", job.ID, err)
	}

	if err := c.notifier.Notify(ctx, job, true); err != nil {
		log.Error("failed to send completion notification", "error", err)
	}

	log.Info("job completed", "transcript_id", transcript.ID)
	return nil
}

// failAndDequeue marks the job failed but still removes it from the
// queue and notifies, so a broken completion never strands a processing
// record.
func (c *Completer) failAndDequeue(ctx context.Context, job *domain.TranscriptionJob, reason string) error {
	job.MarkFailed(reason, c.now())
	if err := c.jobs.UpdateJob(ctx, job); err != nil {
		return fmt.Errorf("failed to persist failed job %s: %w", job.ID, err)
	}
	if err := c.jobs.RemoveFromQueue(ctx, job.ID); err != nil {
		return fmt.Errorf("failed to dequeue failed job %s: %w", job.ID, err)
	}
	if err := c.notifier.Notify(ctx, job, false); err != nil {
		c.logger.Error("failed to send failure notification",
			"job_id", job.ID, "error", err)
	}
	return nil
}
