package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

// SQLiteTarget executes change scripts on a SQLite database.
type SQLiteTarget struct {
	db *sql.DB
}

// OpenSQLite opens the database at dsn (a path or ":memory:") and verifies it
// responds.
func OpenSQLite(ctx context.Context, dsn string) (*SQLiteTarget, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("%w: empty sqlite path", ErrInvalidDatabaseURL)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	// A single connection keeps ":memory:" databases alive across calls.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	return &SQLiteTarget{db: db}, nil
}

// Exec runs sql, which may contain several statements.
func (t *SQLiteTarget) Exec(ctx context.Context, sql string) error {
	if _, err := t.db.ExecContext(ctx, sql); err != nil {
		return err
	}

	return nil
}

// DB exposes the handle for callers that need to inspect results.
func (t *SQLiteTarget) DB() *sql.DB { return t.db }

// Close releases the handle.
func (t *SQLiteTarget) Close() error {
	if t == nil || t.db == nil {
		return nil
	}

	return t.db.Close()
}
