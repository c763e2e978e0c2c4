package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const defaultMaxConns = 5

// PoolOption configures session settings applied to every pooled connection.
type PoolOption func(*pgxpool.Config)

// WithLockTimeout makes statements fail fast when they cannot acquire a lock
// within d instead of queueing behind other sessions. Zero leaves the server
// default.
func WithLockTimeout(d time.Duration) PoolOption {
	return func(c *pgxpool.Config) {
		if d > 0 {
			c.ConnConfig.RuntimeParams["lock_timeout"] = millis(d)
		}
	}
}

// WithStatementTimeout bounds how long a single script may run.
func WithStatementTimeout(d time.Duration) PoolOption {
	return func(c *pgxpool.Config) {
		if d > 0 {
			c.ConnConfig.RuntimeParams["statement_timeout"] = millis(d)
		}
	}
}

func millis(d time.Duration) string {
	return fmt.Sprintf("%dms", d.Milliseconds())
}

// NewPool creates a pgx connection pool for the given database URL.
// It parses the connection string, sets a conservative max connection limit,
// and pings the database to verify connectivity.
func NewPool(ctx context.Context, databaseURL string, opts ...PoolOption) (*pgxpool.Pool, error) {
	poolCfg, err := parsePoolConfig(databaseURL, opts...)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()

		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	return pool, nil
}

func parsePoolConfig(databaseURL string, opts ...PoolOption) (*pgxpool.Config, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("%w: empty connection string", ErrInvalidDatabaseURL)
	}

	poolCfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDatabaseURL, err)
	}

	poolCfg.MaxConns = defaultMaxConns

	for _, opt := range opts {
		opt(poolCfg)
	}

	return poolCfg, nil
}

// PoolTarget executes change scripts on a pgx pool.
type PoolTarget struct {
	pool *pgxpool.Pool
}

// NewPoolTarget wraps pool.
func NewPoolTarget(pool *pgxpool.Pool) *PoolTarget {
	return &PoolTarget{pool: pool}
}

// Exec sends sql as a single batch. Without arguments pgx uses the simple
// query protocol, so a script may hold several statements.
func (t *PoolTarget) Exec(ctx context.Context, sql string) error {
	if _, err := t.pool.Exec(ctx, sql); err != nil {
		return err
	}

	return nil
}
