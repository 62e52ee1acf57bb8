package lock

import (
	"context"
	"sync"
	"time"
)

// LocalLocker is an in-process Locker backed by a mutex map. It provides
// the same acquire/release semantics as the distributed implementations
// and backs tests and single-node development; multi-invocation
// deployments use the redis or postgres Locker.
type LocalLocker struct {
	mu    sync.Mutex
	held  map[string]struct{}
	retry time.Duration
}

// NewLocalLocker creates a LocalLocker.
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{
		held:  make(map[string]struct{}),
		retry: 10 * time.Millisecond,
	}
}

// Acquire implements Locker. The TTL is ignored: an in-process holder
// cannot crash independently of the process.
func (l *LocalLocker) Acquire(ctx context.Context, name string, _ time.Duration) (Lease, error) {
	for {
		l.mu.Lock()
		if _, taken := l.held[name]; !taken {
			l.held[name] = struct{}{}
			l.mu.Unlock()
			return &localLease{locker: l, name: name}, nil
		}
		l.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil, ErrNotAcquired
		case <-time.After(l.retry):
		}
	}
}

type localLease struct {
	locker *LocalLocker
	name   string
	once   sync.Once
}

func (l *localLease) Release(_ context.Context) error {
	l.once.Do(func() {
		l.locker.mu.Lock()
		delete(l.locker.held, l.name)
		l.locker.mu.Unlock()
	})
	return nil
}
