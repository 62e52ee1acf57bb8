package service

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
)

// CreateJobResult is returned to the collaborator that submitted a job.
type CreateJobResult struct {
	JobID                uuid.UUID
	EstimatedWaitMinutes int
}

// JobStatusResult is the collaborator-facing view of a job's progress.
type JobStatusResult struct {
	Status       domain.JobStatus
	TranscriptID *uuid.UUID
	LastError    string
}

// JobService exposes the creation and query operations collaborators use.
// Version: 1.0
type JobService interface {
	// CreateTranscriptionJob validates the resource, persists a pending
	// job, and enqueues it for the next drain tick.
	CreateTranscriptionJob(
		ctx context.Context,
		ownerEmail string,
		observationID uuid.UUID,
		resourceKey string,
		prompt string,
	) (*CreateJobResult, error)

	// GetJobStatus returns the job's current state.
	GetJobStatus(ctx context.Context, jobID uuid.UUID) (*JobStatusResult, error)
}

// JobServiceConfig holds the knobs the wait estimate and size precheck
// depend on.
type JobServiceConfig struct {
	// MaxResourceBytes mirrors the submitter's limit so oversized
	// resources are rejected at creation time, before a job exists.
	MaxResourceBytes int64

	// TickInterval and SubmitBatchSize feed the wait estimate.
	TickInterval    time.Duration
	SubmitBatchSize int
}

type jobService struct {
	jobs       store.JobStore
	mediaStore media.Store
	config     JobServiceConfig
	logger     *slog.Logger
}

// NewJobService creates a JobService.
func NewJobService(
	jobs store.JobStore,
	mediaStore media.Store,
	config JobServiceConfig,
	logger *slog.Logger,
) (JobService, error) {
	if jobs == nil {
		return nil, errors.New("job store cannot be nil")
	}
	if mediaStore == nil {
		return nil, errors.New("media store cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if config.MaxResourceBytes <= 0 {
		config.MaxResourceBytes = 37 << 20
	}
	if config.TickInterval <= 0 {
		config.TickInterval = 15 * time.Minute
	}
	if config.SubmitBatchSize <= 0 {
		config.SubmitBatchSize = 5
	}

	return &jobService{
		jobs:       jobs,
		mediaStore: mediaStore,
		config:     config,
		logger:     logger.With("component", "job_service"),
	}, nil
}

// CreateTranscriptionJob implements JobService.
func (s *jobService) CreateTranscriptionJob(
	ctx context.Context,
	ownerEmail string,
	observationID uuid.UUID,
	resourceKey string,
	prompt string,
) (*CreateJobResult, error) {
	info, err := s.mediaStore.Head(ctx, resourceKey)
	if err != nil {
		if errors.Is(err, media.ErrResourceNotFound) {
			return nil, ErrResourceNotFound
		}
		return nil, &JobServiceError{
			Operation: "create_transcription_job",
			Message:   "failed to inspect media resource",
			Err:       err,
		}
	}

	if info.Size > s.config.MaxResourceBytes {
		return nil, fmt.Errorf("%w: %d bytes, limit %d",
			ErrResourceTooLarge, info.Size, s.config.MaxResourceBytes)
	}

	job, err := domain.NewTranscriptionJob(ownerEmail, observationID, domain.MediaResource{
		Key:      resourceKey,
		Size:     info.Size,
		MIMEType: info.MIMEType,
	}, prompt)
	if err != nil {
		return nil, &JobServiceError{
			Operation: "create_transcription_job",
			Message:   "invalid job",
			Err:       err,
		}
	}

	// Read the queue before inserting so the estimate reflects the jobs
	// ahead of this one.
	snapshot, err := s.jobs.QueueSnapshot(ctx)
	if err != nil {
		return nil, &JobServiceError{
			Operation: "create_transcription_job",
			Message:   "failed to read queue",
			Err:       err,
		}
	}

	if err := s.jobs.CreateJob(ctx, job); err != nil {
		return nil, &JobServiceError{
			Operation: "create_transcription_job",
			Message:   "failed to persist job",
			Err:       err,
		}
	}
	if err := s.jobs.Enqueue(ctx, job.ID); err != nil {
		return nil, &JobServiceError{
			Operation: "create_transcription_job",
			Message:   "failed to enqueue job",
			Err:       err,
		}
	}

	s.logger.InfoContext(ctx, "transcription job created",
		"job_id", job.ID,
		"observation_id", observationID,
		"resource_key", resourceKey,
		"resource_size", info.Size)

	return &CreateJobResult{
		JobID:                job.ID,
		EstimatedWaitMinutes: s.estimateWaitMinutes(len(snapshot)),
	}, nil
}

// GetJobStatus implements JobService.
func (s *jobService) GetJobStatus(ctx context.Context, jobID uuid.UUID) (*JobStatusResult, error) {
	job, err := s.jobs.GetJob(ctx, jobID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, ErrJobNotFound
		}
		return nil, &JobServiceError{
			Operation: "get_job_status",
			Message:   "failed to load job",
			Err:       err,
		}
	}

	return &JobStatusResult{
		Status:       job.Status,
		TranscriptID: job.TranscriptID,
		LastError:    job.LastError,
	}, nil
}

// estimateWaitMinutes approximates how long a newly enqueued job waits
// before submission: the number of full batches ahead of it times the
// tick interval, plus the tick that submits it.
func (s *jobService) estimateWaitMinutes(queuePosition int) int {
	ticksAhead := queuePosition/s.config.SubmitBatchSize + 1
	minutes := int(s.config.TickInterval.Minutes()) * ticksAhead
	if minutes < 1 {
		minutes = 1
	}
	return minutes
}
