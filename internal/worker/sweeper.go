package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/wrenhall/warbler-api/internal/store"
)

// SweeperConfig holds retention settings.
type SweeperConfig struct {
	// Retention is how long terminal job records are kept before the
	// sweeper deletes them.
	Retention time.Duration
}

// DefaultSweeperConfig returns a SweeperConfig with the standard
// retention horizon.
func DefaultSweeperConfig() SweeperConfig {
	return SweeperConfig{
		Retention: 7 * 24 * time.Hour,
	}
}

// Sweeper periodically deletes terminal job records older than the
// retention horizon. Non-terminal jobs are never deleted regardless of
// age.
type Sweeper struct {
	jobs   store.JobStore
	config SweeperConfig
	logger *slog.Logger
	now    func() time.Time
}

// NewSweeper creates a Sweeper.
func NewSweeper(jobs store.JobStore, config SweeperConfig, logger *slog.Logger) (*Sweeper, error) {
	if jobs == nil {
		return nil, ErrNilJobStore
	}
	if logger == nil {
		return nil, ErrNilLogger
	}
	if config.Retention <= 0 {
		config.Retention = DefaultSweeperConfig().Retention
	}

	return &Sweeper{
		jobs:   jobs,
		config: config,
		logger: logger.With("component", "sweeper"),
		now:    time.Now,
	}, nil
}

// Sweep deletes expired terminal records in one pass.
func (s *Sweeper) Sweep(ctx context.Context) error {
	cutoff := s.now().Add(-s.config.Retention)

	removed, err := s.jobs.PurgeTerminalBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("retention sweep failed: %w", err)
	}

	s.logger.Info("retention sweep finished",
		"removed", removed,
		"cutoff", cutoff.UTC().Format(time.RFC3339))
	return nil
}
