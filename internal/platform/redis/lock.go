package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/wrenhall/warbler-api/internal/lock"
)

// Locker implements lock.Locker with SET NX PX. The lease carries a
// random token so Release only deletes a lock it still owns (an expired
// lease must not delete a successor's lock).
type Locker struct {
	client *goredis.Client
	retry  time.Duration
}

// NewLocker creates a Locker.
func NewLocker(client *goredis.Client) *Locker {
	return &Locker{client: client, retry: 100 * time.Millisecond}
}

var _ lock.Locker = (*Locker)(nil)

// releaseScript deletes the lock only if the token still matches.
var releaseScript = goredis.NewScript(`
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("DEL", KEYS[1])
	end
	return 0
`)

// Acquire implements lock.Locker.
func (l *Locker) Acquire(ctx context.Context, name string, ttl time.Duration) (lock.Lease, error) {
	key := lockKey(name)
	token := uuid.NewString()

	for {
		ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to set lock key: %w", err)
		}
		if ok {
			return &redisLease{client: l.client, key: key, token: token}, nil
		}

		select {
		case <-ctx.Done():
			return nil, lock.ErrNotAcquired
		case <-time.After(l.retry):
		}
	}
}

type redisLease struct {
	client *goredis.Client
	key    string
	token  string
}

func (r *redisLease) Release(ctx context.Context) error {
	if err := releaseScript.Run(ctx, r.client, []string{r.key}, r.token).Err(); err != nil {
		return fmt.Errorf("failed to release lock: %w", err)
	}
	return nil
}
