package worker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wrenhall/warbler-api/internal/platform/memory"
	"github.com/wrenhall/warbler-api/internal/store"
)

func TestNewSweeper(t *testing.T) {
	t.Parallel()

	st := memory.NewStore()

	t.Run("applies default retention", func(t *testing.T) {
		s, err := NewSweeper(st, SweeperConfig{}, testLogger())
		require.NoError(t, err)
		assert.Equal(t, 7*24*time.Hour, s.config.Retention)
	})

	t.Run("fails with nil job store", func(t *testing.T) {
		_, err := NewSweeper(nil, SweeperConfig{}, testLogger())
		assert.Equal(t, ErrNilJobStore, err)
	})

	t.Run("fails with nil logger", func(t *testing.T) {
		_, err := NewSweeper(st, SweeperConfig{}, nil)
		assert.Equal(t, ErrNilLogger, err)
	})
}

func TestSweeperSweep(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st := memory.NewStore()
	now := time.Now()

	// Failed eight days ago: expired.
	expired := newQueuedJob(t, st, 2048)
	require.NoError(t, st.RemoveFromQueue(ctx, expired.ID))
	expired.MarkFailed("boom", now.Add(-8*24*time.Hour))
	require.NoError(t, st.UpdateJob(ctx, expired))

	// Completed yesterday: kept.
	recent := newProcessingJob(t, st)
	require.NoError(t, st.RemoveFromQueue(ctx, recent.ID))
	recent.MarkFailed("boom", now.Add(-24*time.Hour))
	require.NoError(t, st.UpdateJob(ctx, recent))

	// Still processing for two weeks: never swept regardless of age.
	stale := newProcessingJob(t, st)
	created := now.Add(-14 * 24 * time.Hour)
	stale.CreatedAt = created
	stale.SubmittedAt = &created
	require.NoError(t, st.UpdateJob(ctx, stale))

	s, err := NewSweeper(st, SweeperConfig{Retention: 7 * 24 * time.Hour}, testLogger())
	require.NoError(t, err)

	require.NoError(t, s.Sweep(ctx))

	_, err = st.GetJob(ctx, expired.ID)
	assert.ErrorIs(t, err, store.ErrJobNotFound)

	_, err = st.GetJob(ctx, recent.ID)
	assert.NoError(t, err)

	_, err = st.GetJob(ctx, stale.ID)
	assert.NoError(t, err)
}
