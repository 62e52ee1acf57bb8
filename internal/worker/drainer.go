package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/wrenhall/warbler-api/internal/domain"
	"github.com/wrenhall/warbler-api/internal/store"
)

// DrainerConfig holds the per-tick execution limits.
type DrainerConfig struct {
	// TimeBudget is the wall-clock allowance for one tick. It must sit
	// safely below the host's hard execution ceiling; the drainer checks
	// elapsed time before every poll or submission and stops early.
	TimeBudget time.Duration

	// SubmitBatchSize caps how many pending jobs one tick submits.
	SubmitBatchSize int
}

// DefaultDrainerConfig returns a DrainerConfig with reasonable defaults.
func DefaultDrainerConfig() DrainerConfig {
	return DrainerConfig{
		TimeBudget:      4 * time.Minute,
		SubmitBatchSize: 5,
	}
}

// Drainer is the scheduler-tick orchestrator. Each tick is an
// independent, memory-isolated invocation: it reads a fresh queue
// snapshot, polls in-flight jobs first (the cheaper operation), then
// submits a bounded batch of pending jobs in FIFO order, stopping early
// when the time budget runs out. One job's failure never aborts the
// tick.
type Drainer struct {
	jobs      store.JobStore
	submitter *Submitter
	poller    *Poller
	config    DrainerConfig
	logger    *slog.Logger
	now       func() time.Time
}

// NewDrainer creates a Drainer.
func NewDrainer(
	jobs store.JobStore,
	submitter *Submitter,
	poller *Poller,
	config DrainerConfig,
	logger *slog.Logger,
) (*Drainer, error) {
	if jobs == nil {
		return nil, ErrNilJobStore
	}
	if submitter == nil {
		return nil, fmt.Errorf("submitter cannot be nil")
	}
	if poller == nil {
		return nil, fmt.Errorf("poller cannot be nil")
	}
	if logger == nil {
		return nil, ErrNilLogger
	}
	defaults := DefaultDrainerConfig()
	if config.TimeBudget <= 0 {
		config.TimeBudget = defaults.TimeBudget
	}
	if config.SubmitBatchSize <= 0 {
		config.SubmitBatchSize = defaults.SubmitBatchSize
	}

	return &Drainer{
		jobs:      jobs,
		submitter: submitter,
		poller:    poller,
		config:    config,
		logger:    logger.With("component", "drainer"),
		now:       time.Now,
	}, nil
}

// RunTick executes one drain pass.
func (d *Drainer) RunTick(ctx context.Context) error {
	start := d.now()

	snapshot, err := d.jobs.QueueSnapshot(ctx)
	if err != nil {
		return fmt.Errorf("failed to read queue snapshot: %w", err)
	}
	if len(snapshot) == 0 {
		d.logger.Debug("queue empty, nothing to drain")
		return nil
	}

	pending, processing := d.partition(ctx, snapshot)

	d.logger.Info("drain tick started",
		"queued", len(snapshot),
		"pending", len(pending),
		"processing", len(processing))

	polled, submitted := 0, 0
	budgetHit := false

	for _, id := range processing {
		if d.overBudget(start) {
			budgetHit = true
			break
		}
		if err := d.poller.Poll(ctx, id); err != nil {
			d.logger.Error("poll failed", "job_id", id, "error", err)
			continue
		}
		polled++
	}

	if !budgetHit {
		for _, id := range pending {
			if submitted >= d.config.SubmitBatchSize {
				break
			}
			if d.overBudget(start) {
				budgetHit = true
				break
			}
			if err := d.submitter.Submit(ctx, id); err != nil {
				d.logger.Error("submission failed", "job_id", id, "error", err)
				continue
			}
			submitted++
		}
	}

	d.logger.Info("drain tick finished",
		"polled", polled,
		"submitted", submitted,
		"budget_exhausted", budgetHit,
		"elapsed", d.now().Sub(start))
	return nil
}

// partition splits the snapshot into pending and processing IDs in
// enqueue order. An ID whose record is gone violates the index invariant
// (terminal jobs leave the queue in the same step that finalizes them),
// so it is logged and removed.
func (d *Drainer) partition(ctx context.Context, snapshot []uuid.UUID) (pending, processing []uuid.UUID) {
	for _, id := range snapshot {
		job, err := d.jobs.GetJob(ctx, id)
		if err != nil {
			if store.IsNotFoundError(err) {
				d.logger.Warn("queued job record missing, removing from queue", "job_id", id)
				if rmErr := d.jobs.RemoveFromQueue(ctx, id); rmErr != nil {
					d.logger.Error("failed to remove orphan queue entry",
						"job_id", id, "error", rmErr)
				}
				continue
			}
			d.logger.Error("failed to load queued job", "job_id", id, "error", err)
			continue
		}

		switch job.Status {
		case domain.JobStatusPending:
			pending = append(pending, id)
		case domain.JobStatusProcessing:
			processing = append(processing, id)
		default:
			// Terminal records must not sit in the queue; self-heal.
			d.logger.Warn("terminal job found in queue, removing",
				"job_id", id, "status", job.Status)
			if rmErr := d.jobs.RemoveFromQueue(ctx, id); rmErr != nil {
				d.logger.Error("failed to remove terminal queue entry",
					"job_id", id, "error", rmErr)
			}
		}
	}
	return pending, processing
}

func (d *Drainer) overBudget(start time.Time) bool {
	return d.now().Sub(start) >= d.config.TimeBudget
}
