package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/wrenhall/warbler-api/internal/domain"
	"github.com/wrenhall/warbler-api/internal/media"
	"github.com/wrenhall/warbler-api/internal/store"
	"github.com/wrenhall/warbler-api/internal/transcriber"
)

// Common construction errors shared by the worker components.
var (
	ErrNilJobStore        = errors.New("job store cannot be nil")
	ErrNilTranscriptStore = errors.New("transcript store cannot be nil")
	ErrNilMediaStore      = errors.New("media store cannot be nil")
	ErrNilTranscriber     = errors.New("transcriber cannot be nil")
	ErrNilNotifier        = errors.New("notifier cannot be nil")
	ErrNilLocker          = errors.New("locker cannot be nil")
	ErrNilLogger          = errors.New("logger cannot be nil")
)

// SubmitterConfig holds the submission-side limits.
type SubmitterConfig struct {
	// MaxResourceBytes is the largest resource the external service
	// accepts. Checked before any network call; oversized resources fail
	// permanently without consuming an attempt.
	MaxResourceBytes int64

	// MaxAttempts caps failed submission attempts before the job goes
	// terminal.
	MaxAttempts int
}

// DefaultSubmitterConfig returns a SubmitterConfig with the standard
// limits.
func DefaultSubmitterConfig() SubmitterConfig {
	return SubmitterConfig{
		MaxResourceBytes: 37 << 20,
		MaxAttempts:      domain.MaxSubmissionAttempts,
	}
}

// Submitter turns pending jobs into external-service requests. On
// success it records the opaque external handle and advances the job to
// processing; on transient failure it counts an attempt and leaves the
// job pending for a later tick.
type Submitter struct {
	jobs        store.JobStore
	mediaStore  media.Store
	transcriber transcriber.Transcriber
	notifier    Notifier
	config      SubmitterConfig
	logger      *slog.Logger
	now         func() time.Time
}

// NewSubmitter creates a Submitter.
func NewSubmitter(
	jobs store.JobStore,
	mediaStore media.Store,
	tr transcriber.Transcriber,
	notifier Notifier,
	config SubmitterConfig,
	logger *slog.Logger,
) (*Submitter, error) {
	if jobs == nil {
		return nil, ErrNilJobStore
	}
	if mediaStore == nil {
		return nil, ErrNilMediaStore
	}
	if tr == nil {
		return nil, ErrNilTranscriber
	}
	if notifier == nil {
		return nil, ErrNilNotifier
	}
	if logger == nil {
		return nil, ErrNilLogger
	}
	if config.MaxResourceBytes <= 0 {
		config.MaxResourceBytes = DefaultSubmitterConfig().MaxResourceBytes
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = domain.MaxSubmissionAttempts
	}

	return &Submitter{
		jobs:        jobs,
		mediaStore:  mediaStore,
		transcriber: tr,
		notifier:    notifier,
		config:      config,
		logger:      logger.With("component", "submitter"),
		now:         time.Now,
	}, nil
}

// Submit processes one pending job. It makes at most one network call to
// the external service; the service has no idempotency key, so a timeout
// after remote acceptance can produce a duplicate remote job on a later
// retry (accepted, bounded by the attempts cap).
func (s *Submitter) Submit(ctx context.Context, jobID uuid.UUID) error {
	job, err := s.jobs.GetJob(ctx, jobID)
	if err != nil {
		return fmt.Errorf("failed to load job %s: %w", jobID, err)
	}

	log := s.logger.With("job_id", job.ID)

	if job.Status != domain.JobStatusPending {
		log.Debug("skipping submission, job is not pending", "status", job.Status)
		return nil
	}

	// Precondition checks: permanent failures, zero attempts consumed.
	if job.Resource.Size > s.config.MaxResourceBytes {
		log.Warn("resource exceeds size limit",
			"size", job.Resource.Size,
			"limit", s.config.MaxResourceBytes)
		return s.failJob(ctx, job, fmt.Sprintf(
			"resource is %d bytes, limit is %d", job.Resource.Size, s.config.MaxResourceBytes))
	}

	mediaBytes, err := s.mediaStore.Get(ctx, job.Resource.Key)
	if err != nil {
		if errors.Is(err, media.ErrResourceNotFound) {
			log.Warn("resource missing or unreadable", "key", job.Resource.Key)
			return s.failJob(ctx, job, "media resource is missing or unreadable")
		}
		// Storage wobble is transient; leave the job untouched for the
		// next tick rather than charging an attempt for a call that
		// never reached the external service.
		return fmt.Errorf("failed to read resource %s: %w", job.Resource.Key, err)
	}

	handle, err := s.transcriber.Submit(ctx, transcriber.Request{
		Prompt:   job.Prompt,
		Media:    mediaBytes,
		MIMEType: job.Resource.MIMEType,
	})
	if err != nil {
		return s.handleSubmissionError(ctx, job, err)
	}

	if err := job.MarkProcessing(handle, s.now()); err != nil {
		return fmt.Errorf("failed to record external handle for job %s: %w", job.ID, err)
	}
	if err := s.jobs.UpdateJob(ctx, job); err != nil {
		return fmt.Errorf("failed to persist submitted job %s: %w", job.ID, err)
	}

	log.Info("job submitted to transcription service",
		"external_handle", handle,
		"attempts", job.Attempts)
	return nil
}

// handleSubmissionError applies the retry policy: rejections fail
// immediately, transient errors consume an attempt and retry until the
// cap, then go terminal.
func (s *Submitter) handleSubmissionError(ctx context.Context, job *domain.TranscriptionJob, err error) error {
	log := s.logger.With("job_id", job.ID)

	if errors.Is(err, transcriber.ErrRejected) {
		log.Warn("submission rejected, failing job", "error", err)
		return s.failJob(ctx, job, err.Error())
	}

	job.Attempts++
	job.LastError = err.Error()

	if job.Attempts >= s.config.MaxAttempts {
		log.Warn("submission attempts exhausted, failing job",
			"attempts", job.Attempts, "error", err)
		job.MarkFailed(fmt.Sprintf(
			"submission failed after %d attempts: %s", job.Attempts, err.Error()), s.now())
		return s.finalizeFailed(ctx, job)
	}

	if updateErr := s.jobs.UpdateJob(ctx, job); updateErr != nil {
		return fmt.Errorf("failed to record submission attempt for job %s: %w", job.ID, updateErr)
	}

	log.Info("transient submission failure, will retry",
		"attempts", job.Attempts,
		"max_attempts", s.config.MaxAttempts,
		"error", err)
	return nil
}

// failJob moves a pending job to failed without consuming an attempt.
func (s *Submitter) failJob(ctx context.Context, job *domain.TranscriptionJob, reason string) error {
	job.MarkFailed(reason, s.now())
	return s.finalizeFailed(ctx, job)
}

// finalizeFailed persists the terminal record, removes the job from the
// queue, and dispatches the failure notification.
func (s *Submitter) finalizeFailed(ctx context.Context, job *domain.TranscriptionJob) error {
	if err := s.jobs.UpdateJob(ctx, job); err != nil {
		return fmt.Errorf("failed to persist failed job %s: %w", job.ID, err)
	}
	if err := s.jobs.RemoveFromQueue(ctx, job.ID); err != nil {
		return fmt.Errorf("failed to dequeue failed job %s: %w", job.ID, err)
	}

	if err := s.notifier.Notify(ctx, job, false); err != nil {
		s.logger.Error("failed to send failure notification",
			"job_id", job.ID, "error", err)
	}
	return nil
}
