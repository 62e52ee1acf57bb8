// Package memory implements the store interfaces in process memory.
// It backs unit tests and single-node development; the semantics match
// the persisted backends, including queue idempotence and ordering.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wrenhall/warbler-api/internal/domain"
	"github.com/wrenhall/warbler-api/internal/store"
)

// Store implements store.JobStore and store.TranscriptStore.
type Store struct {
	mu          sync.RWMutex
	jobs        map[uuid.UUID]*domain.TranscriptionJob
	transcripts map[uuid.UUID]*domain.Transcript
	queue       []uuid.UUID
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		jobs:        make(map[uuid.UUID]*domain.TranscriptionJob),
		transcripts: make(map[uuid.UUID]*domain.Transcript),
	}
}

var (
	_ store.JobStore        = (*Store)(nil)
	_ store.TranscriptStore = (*Store)(nil)
)

// CreateJob implements store.JobStore.
func (s *Store) CreateJob(_ context.Context, job *domain.TranscriptionJob) error {
	if err := job.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[job.ID]; exists {
		return store.ErrDuplicate
	}
	s.jobs[job.ID] = cloneJob(job)
	return nil
}

// GetJob implements store.JobStore.
func (s *Store) GetJob(_ context.Context, id uuid.UUID) (*domain.TranscriptionJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, store.ErrJobNotFound
	}
	return cloneJob(job), nil
}

// UpdateJob implements store.JobStore.
func (s *Store) UpdateJob(_ context.Context, job *domain.TranscriptionJob) error {
	if err := job.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[job.ID]; !ok {
		return store.ErrJobNotFound
	}
	s.jobs[job.ID] = cloneJob(job)
	return nil
}

// DeleteJob implements store.JobStore.
func (s *Store) DeleteJob(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[id]; !ok {
		return store.ErrJobNotFound
	}
	delete(s.jobs, id)
	return nil
}

// PurgeTerminalBefore implements store.JobStore.
func (s *Store) PurgeTerminalBefore(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, job := range s.jobs {
		if job.IsTerminal() && job.TerminalAt().Before(cutoff) {
			delete(s.jobs, id)
			removed++
		}
	}
	return removed, nil
}

// Enqueue implements store.JobStore.
func (s *Store) Enqueue(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, queued := range s.queue {
		if queued == id {
			return nil
		}
	}
	s.queue = append(s.queue, id)
	return nil
}

// RemoveFromQueue implements store.JobStore.
func (s *Store) RemoveFromQueue(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, queued := range s.queue {
		if queued == id {
			s.queue = append(s.queue[:i], s.queue[i+1:]...)
			return nil
		}
	}
	return nil
}

// QueueSnapshot implements store.JobStore.
func (s *Store) QueueSnapshot(_ context.Context) ([]uuid.UUID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := make([]uuid.UUID, len(s.queue))
	copy(snapshot, s.queue)
	return snapshot, nil
}

// CreateTranscript implements store.TranscriptStore.
func (s *Store) CreateTranscript(_ context.Context, transcript *domain.Transcript) error {
	if err := transcript.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.transcripts[transcript.ID]; exists {
		return store.ErrDuplicate
	}
	cp := *transcript
	s.transcripts[transcript.ID] = &cp
	return nil
}

// GetTranscript implements store.TranscriptStore.
func (s *Store) GetTranscript(_ context.Context, id uuid.UUID) (*domain.Transcript, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tr, ok := s.transcripts[id]
	if !ok {
		return nil, store.ErrTranscriptNotFound
	}
	cp := *tr
	return &cp, nil
}

// TranscriptCount reports how many transcripts have been stored. Test
// helper.
func (s *Store) TranscriptCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.transcripts)
}

func cloneJob(job *domain.TranscriptionJob) *domain.TranscriptionJob {
	cp := *job
	if job.SubmittedAt != nil {
		t := *job.SubmittedAt
		cp.SubmittedAt = &t
	}
	if job.CompletedAt != nil {
		t := *job.CompletedAt
		cp.CompletedAt = &t
	}
	if job.TranscriptID != nil {
		id := *job.TranscriptID
		cp.TranscriptID = &id
	}
	return &cp
}
