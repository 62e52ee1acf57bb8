package worker

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/wrenhall/warbler-api/internal/domain"
	"github.com/wrenhall/warbler-api/internal/lock"
	"github.com/wrenhall/warbler-api/internal/media"
	"github.com/wrenhall/warbler-api/internal/platform/memory"
	"github.com/wrenhall/warbler-api/internal/transcriber"
)

// testLogger returns a quiet logger for tests.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

// fakeMediaStore is a media.Store with swappable behavior.
type fakeMediaStore struct {
	HeadFunc func(ctx context.Context, key string) (*media.ResourceInfo, error)
	GetFunc  func(ctx context.Context, key string) ([]byte, error)
}

func (f *fakeMediaStore) Head(ctx context.Context, key string) (*media.ResourceInfo, error) {
	if f.HeadFunc != nil {
		return f.HeadFunc(ctx, key)
	}
	return &media.ResourceInfo{Key: key, Size: 1024, MIMEType: "audio/mpeg"}, nil
}

func (f *fakeMediaStore) Get(ctx context.Context, key string) ([]byte, error) {
	if f.GetFunc != nil {
		return f.GetFunc(ctx, key)
	}
	return []byte("audio-bytes"), nil
}

// fakeTranscriber is a transcriber.Transcriber with swappable behavior.
type fakeTranscriber struct {
	SubmitFunc func(ctx context.Context, req transcriber.Request) (string, error)
	StatusFunc func(ctx context.Context, handle string) (*transcriber.Result, error)

	mu          sync.Mutex
	submitCalls int
}

func (f *fakeTranscriber) Submit(ctx context.Context, req transcriber.Request) (string, error) {
	f.mu.Lock()
	f.submitCalls++
	f.mu.Unlock()
	if f.SubmitFunc != nil {
		return f.SubmitFunc(ctx, req)
	}
	return "batches/test-handle", nil
}

func (f *fakeTranscriber) Status(ctx context.Context, handle string) (*transcriber.Result, error) {
	if f.StatusFunc != nil {
		return f.StatusFunc(ctx, handle)
	}
	return &transcriber.Result{State: transcriber.StateRunning}, nil
}

func (f *fakeTranscriber) SubmitCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.submitCalls
}

// notifierCall records one Notify invocation.
type notifierCall struct {
	JobID     uuid.UUID
	Succeeded bool
}

// recordingNotifier captures notifications for assertions.
type recordingNotifier struct {
	mu    sync.Mutex
	calls []notifierCall
	err   error
}

func (n *recordingNotifier) Notify(_ context.Context, job *domain.TranscriptionJob, succeeded bool) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, notifierCall{JobID: job.ID, Succeeded: succeeded})
	return n.err
}

func (n *recordingNotifier) Calls() []notifierCall {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]notifierCall, len(n.calls))
	copy(out, n.calls)
	return out
}

// busyLocker always reports the lock as held elsewhere.
type busyLocker struct{}

func (busyLocker) Acquire(_ context.Context, _ string, _ time.Duration) (lock.Lease, error) {
	return nil, lock.ErrNotAcquired
}

// newQueuedJob builds a pending job, persists it, and enqueues it.
func newQueuedJob(t *testing.T, st *memory.Store, size int64) *domain.TranscriptionJob {
	t.Helper()

	job, err := domain.NewTranscriptionJob(
		"owner@example.com",
		uuid.New(),
		domain.MediaResource{Key: "recordings/" + uuid.NewString() + ".mp3", Size: size, MIMEType: "audio/mpeg"},
		"Transcribe the attached field recording.",
	)
	if err != nil {
		t.Fatalf("failed to build job: %v", err)
	}
	if err := st.CreateJob(context.Background(), job); err != nil {
		t.Fatalf("failed to store job: %v", err)
	}
	if err := st.Enqueue(context.Background(), job.ID); err != nil {
		t.Fatalf("failed to enqueue job: %v", err)
	}
	return job
}
