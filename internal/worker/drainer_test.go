package worker

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wrenhall/warbler-api/internal/domain"
	"github.com/wrenhall/warbler-api/internal/lock"
	"github.com/wrenhall/warbler-api/internal/platform/memory"
	"github.com/wrenhall/warbler-api/internal/transcriber"
)

func newTestDrainer(
	t *testing.T,
	st *memory.Store,
	tr *fakeTranscriber,
	config DrainerConfig,
) *Drainer {
	t.Helper()

	notifier := &recordingNotifier{}
	submitter, err := NewSubmitter(st, &fakeMediaStore{}, tr, notifier, SubmitterConfig{}, testLogger())
	require.NoError(t, err)
	completer, err := NewCompleter(st, st, lock.NewLocalLocker(), notifier, CompleterConfig{}, testLogger())
	require.NoError(t, err)
	poller, err := NewPoller(st, tr, completer, notifier, PollerConfig{}, testLogger())
	require.NoError(t, err)
	d, err := NewDrainer(st, submitter, poller, config, testLogger())
	require.NoError(t, err)
	return d
}

func TestDrainerEmptyQueue(t *testing.T) {
	t.Parallel()

	st := memory.NewStore()
	d := newTestDrainer(t, st, &fakeTranscriber{}, DrainerConfig{})

	require.NoError(t, d.RunTick(context.Background()))
}

func TestDrainerSubmitsPendingInOrder(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st := memory.NewStore()

	jobs := make([]*domain.TranscriptionJob, 3)
	for i := range jobs {
		jobs[i] = newQueuedJob(t, st, 2048)
	}

	var submittedPrompts []string
	tr := &fakeTranscriber{
		SubmitFunc: func(_ context.Context, req transcriber.Request) (string, error) {
			submittedPrompts = append(submittedPrompts, req.Prompt)
			return "batches/" + uuid.NewString(), nil
		},
	}
	d := newTestDrainer(t, st, tr, DrainerConfig{SubmitBatchSize: 5})

	require.NoError(t, d.RunTick(ctx))

	assert.Equal(t, 3, tr.SubmitCalls())
	for _, job := range jobs {
		stored, err := st.GetJob(ctx, job.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.JobStatusProcessing, stored.Status)
	}
}

func TestDrainerBatchCap(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st := memory.NewStore()

	for i := 0; i < 7; i++ {
		newQueuedJob(t, st, 2048)
	}

	tr := &fakeTranscriber{}
	d := newTestDrainer(t, st, tr, DrainerConfig{SubmitBatchSize: 5})

	require.NoError(t, d.RunTick(ctx))
	assert.Equal(t, 5, tr.SubmitCalls())

	// The remaining two go out on the next tick.
	require.NoError(t, d.RunTick(ctx))
	assert.Equal(t, 7, tr.SubmitCalls())
}

func TestDrainerPollsBeforeSubmitting(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st := memory.NewStore()

	processing := newProcessingJob(t, st)
	pending := newQueuedJob(t, st, 2048)

	var order []string
	tr := &fakeTranscriber{
		SubmitFunc: func(_ context.Context, _ transcriber.Request) (string, error) {
			order = append(order, "submit")
			return "batches/" + uuid.NewString(), nil
		},
		StatusFunc: func(_ context.Context, _ string) (*transcriber.Result, error) {
			order = append(order, "poll")
			return &transcriber.Result{State: transcriber.StateRunning}, nil
		},
	}
	d := newTestDrainer(t, st, tr, DrainerConfig{})

	require.NoError(t, d.RunTick(ctx))

	require.Equal(t, []string{"poll", "submit"}, order)

	storedProcessing, err := st.GetJob(ctx, processing.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusProcessing, storedProcessing.Status)

	storedPending, err := st.GetJob(ctx, pending.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusProcessing, storedPending.Status)
}

func TestDrainerTimeBudget(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st := memory.NewStore()

	for i := 0; i < 3; i++ {
		newQueuedJob(t, st, 2048)
	}

	tr := &fakeTranscriber{}
	d := newTestDrainer(t, st, tr, DrainerConfig{TimeBudget: time.Minute})

	// Advance the clock past the budget after the first submission.
	base := time.Now()
	calls := 0
	d.now = func() time.Time {
		calls++
		if calls <= 3 {
			return base
		}
		return base.Add(2 * time.Minute)
	}

	require.NoError(t, d.RunTick(ctx))

	// The tick stopped early; not everything was submitted.
	assert.Less(t, tr.SubmitCalls(), 3)
}

func TestDrainerRemovesOrphanQueueEntries(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st := memory.NewStore()

	// A queue entry whose job record is gone.
	orphanID := uuid.New()
	require.NoError(t, st.Enqueue(ctx, orphanID))

	tr := &fakeTranscriber{}
	d := newTestDrainer(t, st, tr, DrainerConfig{})

	require.NoError(t, d.RunTick(ctx))
	assert.Zero(t, tr.SubmitCalls())

	snapshot, err := st.QueueSnapshot(ctx)
	require.NoError(t, err)
	assert.NotContains(t, snapshot, orphanID)
}

func TestDrainerRemovesTerminalQueueEntries(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st := memory.NewStore()

	job := newQueuedJob(t, st, 2048)
	job.MarkFailed("failed elsewhere", time.Now())
	require.NoError(t, st.UpdateJob(ctx, job))

	tr := &fakeTranscriber{}
	d := newTestDrainer(t, st, tr, DrainerConfig{})

	require.NoError(t, d.RunTick(ctx))
	assert.Zero(t, tr.SubmitCalls())

	snapshot, err := st.QueueSnapshot(ctx)
	require.NoError(t, err)
	assert.NotContains(t, snapshot, job.ID)
}

func TestDrainerOneFailureDoesNotAbortTick(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st := memory.NewStore()

	first := newQueuedJob(t, st, 2048)
	second := newQueuedJob(t, st, 2048)

	tr := &fakeTranscriber{
		SubmitFunc: func(_ context.Context, req transcriber.Request) (string, error) {
			return "batches/" + uuid.NewString(), nil
		},
	}

	// Break the first job's media fetch; the second must still submit.
	submitter, err := NewSubmitter(st, &fakeMediaStore{
		GetFunc: func(_ context.Context, key string) ([]byte, error) {
			if key == first.Resource.Key {
				return nil, context.DeadlineExceeded
			}
			return []byte("audio"), nil
		},
	}, tr, &recordingNotifier{}, SubmitterConfig{}, testLogger())
	require.NoError(t, err)

	completer, err := NewCompleter(st, st, lock.NewLocalLocker(), &recordingNotifier{}, CompleterConfig{}, testLogger())
	require.NoError(t, err)
	poller, err := NewPoller(st, tr, completer, &recordingNotifier{}, PollerConfig{}, testLogger())
	require.NoError(t, err)
	d, err := NewDrainer(st, submitter, poller, DrainerConfig{}, testLogger())
	require.NoError(t, err)

	require.NoError(t, d.RunTick(ctx))

	storedFirst, err := st.GetJob(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusPending, storedFirst.Status)

	storedSecond, err := st.GetJob(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusProcessing, storedSecond.Status)
}
