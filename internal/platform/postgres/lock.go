package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/wrenhall/warbler-api/internal/lock"
)

// AdvisoryLocker implements lock.Locker on PostgreSQL session advisory
// locks. Each lease pins a dedicated connection for its lifetime; the
// lock dies with the connection, which is what bounds a crashed holder.
// The TTL argument is unused because Postgres releases session locks
// when the session ends.
type AdvisoryLocker struct {
	db    *sql.DB
	retry time.Duration
}

// NewAdvisoryLocker creates an AdvisoryLocker.
func NewAdvisoryLocker(db *sql.DB) *AdvisoryLocker {
	return &AdvisoryLocker{db: db, retry: 100 * time.Millisecond}
}

var _ lock.Locker = (*AdvisoryLocker)(nil)

// Acquire implements lock.Locker.
func (l *AdvisoryLocker) Acquire(ctx context.Context, name string, _ time.Duration) (lock.Lease, error) {
	key := advisoryKey(name)

	conn, err := l.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open lock connection: %w", err)
	}

	for {
		var acquired bool
		if err := conn.QueryRowContext(ctx,
			`SELECT pg_try_advisory_lock($1)`, key).Scan(&acquired); err != nil {
			_ = conn.Close()
			if ctx.Err() != nil {
				return nil, lock.ErrNotAcquired
			}
			return nil, fmt.Errorf("advisory lock query failed: %w", err)
		}
		if acquired {
			return &advisoryLease{conn: conn, key: key}, nil
		}

		select {
		case <-ctx.Done():
			_ = conn.Close()
			return nil, lock.ErrNotAcquired
		case <-time.After(l.retry):
		}
	}
}

type advisoryLease struct {
	conn *sql.Conn
	key  int64
}

// Release unlocks and returns the pinned connection. Closing the
// connection releases the lock even if the unlock statement fails.
func (a *advisoryLease) Release(ctx context.Context) error {
	_, err := a.conn.ExecContext(ctx, `SELECT pg_advisory_unlock($1)`, a.key)
	closeErr := a.conn.Close()
	if err != nil {
		return fmt.Errorf("advisory unlock failed: %w", err)
	}
	return closeErr
}

// advisoryKey hashes a lock name into the bigint keyspace Postgres
// advisory locks use.
func advisoryKey(name string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(name))
	return int64(h.Sum64())
}
