package scheduler

import (
	"context"
	"log/slog"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

type countingDrainer struct {
	ticks atomic.Int64
}

func (d *countingDrainer) RunTick(_ context.Context) error {
	d.ticks.Add(1)
	return nil
}

type countingSweeper struct {
	sweeps atomic.Int64
}

func (s *countingSweeper) Sweep(_ context.Context) error {
	s.sweeps.Add(1)
	return nil
}

func TestInstallDrain(t *testing.T) {
	t.Parallel()

	t.Run("accepts the preset intervals", func(t *testing.T) {
		for _, minutes := range []int{5, 15, 30, 60} {
			s := New(testLogger(), time.Minute)
			assert.NoError(t, s.InstallDrain(&countingDrainer{}, minutes))
		}
	})

	t.Run("rejects intervals outside the presets", func(t *testing.T) {
		for _, minutes := range []int{0, 1, 10, 45, 120, -5} {
			s := New(testLogger(), time.Minute)
			err := s.InstallDrain(&countingDrainer{}, minutes)
			assert.Error(t, err, "interval %d should be rejected", minutes)
		}
	})

	t.Run("reinstalling replaces the previous trigger", func(t *testing.T) {
		s := New(testLogger(), time.Minute)
		require.NoError(t, s.InstallDrain(&countingDrainer{}, 5))
		require.NoError(t, s.InstallDrain(&countingDrainer{}, 15))
		assert.Len(t, s.cron.Entries(), 1)
	})
}

func TestInstallSweep(t *testing.T) {
	t.Parallel()

	t.Run("accepts a standard cron expression", func(t *testing.T) {
		s := New(testLogger(), time.Minute)
		assert.NoError(t, s.InstallSweep(&countingSweeper{}, "0 3 * * *"))
	})

	t.Run("rejects a malformed expression", func(t *testing.T) {
		s := New(testLogger(), time.Minute)
		assert.Error(t, s.InstallSweep(&countingSweeper{}, "not a schedule"))
	})

	t.Run("reinstalling replaces the previous trigger", func(t *testing.T) {
		s := New(testLogger(), time.Minute)
		require.NoError(t, s.InstallSweep(&countingSweeper{}, "0 3 * * *"))
		require.NoError(t, s.InstallSweep(&countingSweeper{}, "30 2 * * *"))
		assert.Len(t, s.cron.Entries(), 1)
	})
}

func TestStartAndStop(t *testing.T) {
	t.Parallel()

	s := New(testLogger(), time.Minute)
	require.NoError(t, s.InstallDrain(&countingDrainer{}, 60))

	s.Start()
	s.Stop()
}
