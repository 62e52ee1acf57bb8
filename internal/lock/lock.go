// Package lock provides named, timeout-bounded mutual exclusion usable
// across independent invocations that share only persisted state. The
// completer acquires a per-job lock here to guarantee at-most-one
// successful completion even under overlapping scheduler ticks.
package lock

import (
	"context"
	"errors"
	"time"
)

// ErrNotAcquired is returned when the lock is held elsewhere and could
// not be obtained within the caller's deadline. Callers treat this as a
// retry-next-tick condition, not a failure.
var ErrNotAcquired = errors.New("lock not acquired")

// Lease represents a held lock. Release must be called on every exit
// path; releasing an expired or already-released lease is a no-op.
type Lease interface {
	Release(ctx context.Context) error
}

// Locker acquires named exclusive locks. The TTL bounds how long a lease
// survives if the holder crashes without releasing.
type Locker interface {
	// Acquire attempts to take the named lock, retrying until ctx is
	// done. Returns ErrNotAcquired if the deadline passes first.
	Acquire(ctx context.Context, name string, ttl time.Duration) (Lease, error)
}
