package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Supported drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Settings selects and tunes the SQL target.
type Settings struct {
	Driver           string
	DSN              string
	LockTimeout      time.Duration
	StatementTimeout time.Duration
	// LockScope keys the run lock; runs with different scopes do not
	// exclude each other. Empty means DefaultLockScope.
	LockScope string
}

// DefaultLockScope is the run lock scope when Settings.LockScope is empty.
const DefaultLockScope = "tiger"

type execer interface {
	Exec(ctx context.Context, sql string) error
}

// Session is an open SQL target for one invocation.
type Session struct {
	driver string
	pool   *pgxpool.Pool
	lite   *SQLiteTarget
	target execer
	scope  string
	lock   *RunLock
	logger *slog.Logger
}

// Open connects to the target named by s.Driver. An empty driver means
// PostgreSQL.
func Open(ctx context.Context, s Settings, logger *slog.Logger) (*Session, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	scope := s.LockScope
	if scope == "" {
		scope = DefaultLockScope
	}

	switch s.Driver {
	case "", DriverPostgres:
		pool, err := NewPool(ctx, s.DSN,
			WithLockTimeout(s.LockTimeout),
			WithStatementTimeout(s.StatementTimeout),
		)
		if err != nil {
			return nil, err
		}

		return &Session{driver: DriverPostgres, pool: pool, target: NewPoolTarget(pool), scope: scope, logger: logger}, nil
	case DriverSQLite:
		lite, err := OpenSQLite(ctx, s.DSN)
		if err != nil {
			return nil, err
		}

		return &Session{driver: DriverSQLite, lite: lite, target: lite, scope: scope, logger: logger}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, s.Driver)
	}
}

// Driver reports which target the session talks to.
func (s *Session) Driver() string { return s.driver }

// Exec runs one script verbatim.
func (s *Session) Exec(ctx context.Context, sql string) error {
	return s.target.Exec(ctx, sql)
}

// Lock takes the run lock for the session's scope on PostgreSQL. SQLite
// serialises writers itself, so Lock is a no-op there. Locking twice is a
// no-op.
func (s *Session) Lock(ctx context.Context) error {
	if s.pool == nil || s.lock != nil {
		return nil
	}

	l, err := AcquireRunLock(ctx, s.pool, s.scope)
	if err != nil {
		s.logger.Warn("run lock busy", "scope", s.scope, "error", err)
		return err
	}

	s.lock = l
	s.logger.Info("run lock acquired", "scope", l.Scope(), "pid", l.PID())

	return nil
}

// Close releases the lock, if held, and then the connections.
func (s *Session) Close(ctx context.Context) error {
	var err error

	if s.lock != nil {
		err = s.lock.Release(ctx)
		s.logger.Debug("run lock released", "scope", s.scope)
		s.lock = nil
	}

	if s.pool != nil {
		s.pool.Close()
	}

	if s.lite != nil {
		if cerr := s.lite.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}

	return err
}
