package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/wrenhall/warbler-api/internal/domain"
	"github.com/wrenhall/warbler-api/internal/store"
)

// Store implements store.JobStore and store.TranscriptStore on Redis.
// Each record is one JSON value per key; the queue index is a List so a
// snapshot preserves enqueue order. Queue membership mutations go through
// small Lua scripts to keep each operation individually atomic.
type Store struct {
	client *goredis.Client
}

// NewStore creates a Store on the given client.
func NewStore(client *goredis.Client) *Store {
	return &Store{client: client}
}

var (
	_ store.JobStore        = (*Store)(nil)
	_ store.TranscriptStore = (*Store)(nil)
)

// enqueueScript appends the ID to the queue only if absent, making
// Enqueue idempotent without a check-then-push race.
var enqueueScript = goredis.NewScript(`
	local pos = redis.call("LPOS", KEYS[1], ARGV[1])
	if pos == false then
		redis.call("RPUSH", KEYS[1], ARGV[1])
	end
	return 1
`)

// CreateJob implements store.JobStore.
func (s *Store) CreateJob(ctx context.Context, job *domain.TranscriptionJob) error {
	if err := job.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	ok, err := s.client.SetNX(ctx, jobKey(job.ID.String()), data, 0).Result()
	if err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: job %s", store.ErrDuplicate, job.ID)
	}

	if err := s.client.SAdd(ctx, jobIDsKey, job.ID.String()).Err(); err != nil {
		return fmt.Errorf("failed to index job id: %w", err)
	}
	return nil
}

// GetJob implements store.JobStore.
func (s *Store) GetJob(ctx context.Context, id uuid.UUID) (*domain.TranscriptionJob, error) {
	data, err := s.client.Get(ctx, jobKey(id.String())).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, store.ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	var job domain.TranscriptionJob
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job %s: %w", id, err)
	}
	return &job, nil
}

// UpdateJob implements store.JobStore. Whole-record replace,
// last-writer-wins.
func (s *Store) UpdateJob(ctx context.Context, job *domain.TranscriptionJob) error {
	if err := job.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	key := jobKey(job.ID.String())
	exists, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("failed to check job existence: %w", err)
	}
	if exists == 0 {
		return store.ErrJobNotFound
	}

	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}
	if err := s.client.Set(ctx, key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to update job: %w", err)
	}
	return nil
}

// DeleteJob implements store.JobStore.
func (s *Store) DeleteJob(ctx context.Context, id uuid.UUID) error {
	removed, err := s.client.Del(ctx, jobKey(id.String())).Result()
	if err != nil {
		return fmt.Errorf("failed to delete job: %w", err)
	}
	if removed == 0 {
		return store.ErrJobNotFound
	}
	if err := s.client.SRem(ctx, jobIDsKey, id.String()).Err(); err != nil {
		return fmt.Errorf("failed to unindex job id: %w", err)
	}
	return nil
}

// PurgeTerminalBefore implements store.JobStore by scanning the job ID
// set. Terminal records older than the cutoff are deleted; anything
// non-terminal is left alone.
func (s *Store) PurgeTerminalBefore(ctx context.Context, cutoff time.Time) (int, error) {
	ids, err := s.client.SMembers(ctx, jobIDsKey).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to enumerate jobs: %w", err)
	}

	removed := 0
	for _, raw := range ids {
		id, err := uuid.Parse(raw)
		if err != nil {
			continue
		}

		job, err := s.GetJob(ctx, id)
		if err != nil {
			if errors.Is(err, store.ErrJobNotFound) {
				// Stale index entry; drop it.
				_ = s.client.SRem(ctx, jobIDsKey, raw).Err()
				continue
			}
			return removed, err
		}

		if !job.IsTerminal() || !job.TerminalAt().Before(cutoff) {
			continue
		}
		if err := s.DeleteJob(ctx, id); err != nil && !errors.Is(err, store.ErrJobNotFound) {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

// Enqueue implements store.JobStore.
func (s *Store) Enqueue(ctx context.Context, id uuid.UUID) error {
	if err := enqueueScript.Run(ctx, s.client, []string{queueKey}, id.String()).Err(); err != nil {
		return fmt.Errorf("failed to enqueue job: %w", err)
	}
	return nil
}

// RemoveFromQueue implements store.JobStore.
func (s *Store) RemoveFromQueue(ctx context.Context, id uuid.UUID) error {
	if err := s.client.LRem(ctx, queueKey, 0, id.String()).Err(); err != nil {
		return fmt.Errorf("failed to dequeue job: %w", err)
	}
	return nil
}

// QueueSnapshot implements store.JobStore.
func (s *Store) QueueSnapshot(ctx context.Context) ([]uuid.UUID, error) {
	raw, err := s.client.LRange(ctx, queueKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read queue: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(raw))
	for _, r := range raw {
		id, err := uuid.Parse(r)
		if err != nil {
			return nil, fmt.Errorf("malformed queue entry %q: %w", r, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// CreateTranscript implements store.TranscriptStore.
func (s *Store) CreateTranscript(ctx context.Context, transcript *domain.Transcript) error {
	if err := transcript.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	data, err := json.Marshal(transcript)
	if err != nil {
		return fmt.Errorf("failed to marshal transcript: %w", err)
	}

	ok, err := s.client.SetNX(ctx, transcriptKey(transcript.ID.String()), data, 0).Result()
	if err != nil {
		return fmt.Errorf("failed to create transcript: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: transcript %s", store.ErrDuplicate, transcript.ID)
	}
	return nil
}

// GetTranscript implements store.TranscriptStore.
func (s *Store) GetTranscript(ctx context.Context, id uuid.UUID) (*domain.Transcript, error) {
	data, err := s.client.Get(ctx, transcriptKey(id.String())).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, store.ErrTranscriptNotFound
		}
		return nil, fmt.Errorf("failed to get transcript: %w", err)
	}

	var tr domain.Transcript
	if err := json.Unmarshal(data, &tr); err != nil {
		return nil, fmt.Errorf("failed to unmarshal transcript %s: %w", id, err)
	}
	return &tr, nil
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
