// Package scheduler installs the periodic drain and sweep triggers. Each
// trigger invocation is stateless: all coordination happens through the
// persisted job store, so overlapping or restarted ticks are safe.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	cronlib "github.com/robfig/cron/v3"
)

// TickIntervals are the supported drain periods, in minutes.
var TickIntervals = map[int]struct{}{5: {}, 15: {}, 30: {}, 60: {}}

// Drainer is the per-tick queue drain.
type Drainer interface {
	RunTick(ctx context.Context) error
}

// Sweeper is the periodic retention sweep.
type Sweeper interface {
	Sweep(ctx context.Context) error
}

// Scheduler owns the cron runner and the installed triggers.
type Scheduler struct {
	cron   *cronlib.Cron
	logger *slog.Logger

	// tickCeiling bounds each trigger invocation's context. It sits
	// above the drainer's own time budget so the budget check, not the
	// context, is the normal stop.
	tickCeiling time.Duration

	drainEntry cronlib.EntryID
	sweepEntry cronlib.EntryID
}

// New creates a Scheduler.
func New(logger *slog.Logger, tickCeiling time.Duration) *Scheduler {
	if tickCeiling <= 0 {
		tickCeiling = 5 * time.Minute
	}
	return &Scheduler{
		cron:        cronlib.New(),
		logger:      logger.With("component", "scheduler"),
		tickCeiling: tickCeiling,
	}
}

// InstallDrain schedules the drainer every intervalMinutes. Only the
// preset intervals are accepted. Re-installing replaces any prior drain
// trigger.
func (s *Scheduler) InstallDrain(d Drainer, intervalMinutes int) error {
	if _, ok := TickIntervals[intervalMinutes]; !ok {
		return fmt.Errorf("unsupported tick interval %d minutes", intervalMinutes)
	}

	if s.drainEntry != 0 {
		s.cron.Remove(s.drainEntry)
	}

	spec := fmt.Sprintf("@every %dm", intervalMinutes)
	id, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.tickCeiling)
		defer cancel()
		if err := d.RunTick(ctx); err != nil {
			s.logger.Error("drain tick failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to install drain trigger: %w", err)
	}

	s.drainEntry = id
	s.logger.Info("drain trigger installed", "interval_minutes", intervalMinutes)
	return nil
}

// InstallSweep schedules the retention sweep with a cron expression
// (standard 5-field). Re-installing replaces any prior sweep trigger.
func (s *Scheduler) InstallSweep(sw Sweeper, spec string) error {
	if s.sweepEntry != 0 {
		s.cron.Remove(s.sweepEntry)
	}

	id, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.tickCeiling)
		defer cancel()
		if err := sw.Sweep(ctx); err != nil {
			s.logger.Error("retention sweep failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to install sweep trigger: %w", err)
	}

	s.sweepEntry = id
	s.logger.Info("sweep trigger installed", "schedule", spec)
	return nil
}

// Start begins firing installed triggers.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the runner and waits for in-flight invocations.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}
