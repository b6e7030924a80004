package database

import (
	"context"
	"database/sql"
	"fmt"
	"hash/fnv"
)

// ErrRunInProgress is returned when another distribution run or restore holds
// the per-table lock.
var ErrRunInProgress = fmt.Errorf("another run is in progress for this table")

// AdvisoryRunLocker provides per-table mutual exclusion for distribution runs
// and restores using Postgres session-level advisory locks. The lock is held
// on a dedicated connection so it survives across the multiple transactions
// of one run and works across processes.
type AdvisoryRunLocker struct {
	db *sql.DB
}

func NewAdvisoryRunLocker(db *sql.DB) *AdvisoryRunLocker {
	return &AdvisoryRunLocker{db: db}
}

// Acquire takes the advisory lock for tableName without blocking. It returns
// ErrRunInProgress when the lock is already held. The returned release
// function unlocks and frees the underlying connection; it must be called on
// every path.
func (l *AdvisoryRunLocker) Acquire(ctx context.Context, tableName string) (func(), error) {
	conn, err := l.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection for run lock: %w", err)
	}

	key := lockKey(tableName)
	var acquired bool
	if err := conn.QueryRowContext(ctx, `SELECT pg_try_advisory_lock($1)`, key).Scan(&acquired); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to acquire run lock for %q: %w", tableName, err)
	}
	if !acquired {
		conn.Close()
		return nil, fmt.Errorf("%w: %s", ErrRunInProgress, tableName)
	}

	release := func() {
		// Unlock on a background context: release must succeed even when the
		// run's context is already cancelled. Closing the connection would
		// drop the lock anyway, the explicit unlock just keeps it tidy.
		_, _ = conn.ExecContext(context.Background(), `SELECT pg_advisory_unlock($1)`, key)
		_ = conn.Close()
	}
	return release, nil
}

// lockKey maps a table name onto the bigint advisory-lock keyspace.
func lockKey(tableName string) int64 {
	h := fnv.New64a()
	h.Write([]byte(tableName))
	return int64(h.Sum64())
}
