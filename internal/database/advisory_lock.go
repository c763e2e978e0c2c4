package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// runLockClass is the first half of every run lock key ("tigr" in ASCII).
// The second half is hashtext(scope), so runs that publish to different
// buckets never contend even when they share a database.
const runLockClass int32 = 0x74696772

const (
	tryLockSQL = `SELECT pg_try_advisory_lock($1, hashtext($2))`
	unlockSQL  = `SELECT pg_advisory_unlock($1, hashtext($2))`
	ownerSQL   = `SELECT pid FROM pg_locks
WHERE locktype = 'advisory' AND granted
  AND database = (SELECT oid FROM pg_database WHERE datname = current_database())
  AND classid = $1::int4::oid AND objid = hashtext($2)::oid AND objsubid = 2
LIMIT 1`
)

// RunLock is a session-level advisory lock pinned to one pooled connection
// for the length of a committing run.
type RunLock struct {
	conn  *pgxpool.Conn
	scope string
	pid   uint32
}

// AcquireRunLock takes the run lock for scope without waiting. If another
// backend holds it, the returned ErrLockNotAcquired names that backend's pid.
func AcquireRunLock(ctx context.Context, pool *pgxpool.Pool, scope string) (*RunLock, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: reserving lock connection: %w", ErrConnectionFailed, err)
	}

	var ok bool
	if err := conn.QueryRow(ctx, tryLockSQL, runLockClass, scope).Scan(&ok); err != nil {
		conn.Release()
		return nil, fmt.Errorf("taking run lock %q: %w", scope, err)
	}

	if ok {
		return &RunLock{conn: conn, scope: scope, pid: conn.Conn().PgConn().PID()}, nil
	}

	defer conn.Release()

	var owner int32
	if err := conn.QueryRow(ctx, ownerSQL, runLockClass, scope).Scan(&owner); err != nil {
		// The holder may have let go between the two queries.
		return nil, fmt.Errorf("%w: scope %q", ErrLockNotAcquired, scope)
	}

	return nil, fmt.Errorf("%w: scope %q held by backend pid %d", ErrLockNotAcquired, scope, owner)
}

// Scope is the name the lock key was derived from.
func (l *RunLock) Scope() string { return l.scope }

// PID is the backend process holding the lock.
func (l *RunLock) PID() uint32 { return l.pid }

// Release unlocks and hands the connection back to the pool. A nil or
// already released lock is a no-op.
func (l *RunLock) Release(ctx context.Context) error {
	if l == nil || l.conn == nil {
		return nil
	}

	conn := l.conn
	l.conn = nil

	defer conn.Release()

	var released bool
	if err := conn.QueryRow(ctx, unlockSQL, runLockClass, l.scope).Scan(&released); err != nil {
		return fmt.Errorf("releasing run lock %q: %w", l.scope, err)
	}

	if !released {
		return fmt.Errorf("releasing run lock %q: not held by backend pid %d", l.scope, l.pid)
	}

	return nil
}
