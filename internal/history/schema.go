package history

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is stored in SQLite's user_version header field. There are no
// migrations: a ledger written by another version is refused.
const schemaVersion = 1

// ErrSchemaMismatch reports a ledger written with a different table layout.
var ErrSchemaMismatch = errors.New("run history schema mismatch")

func (s *Store) migrate(ctx context.Context) error {
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read run history version: %w", err)
	}
	switch version {
	case schemaVersion:
		return nil
	case 0:
		var tables int
		if err := s.db.QueryRowContext(ctx,
			"SELECT COUNT(1) FROM sqlite_master WHERE type = 'table' AND name = 'runs'",
		).Scan(&tables); err != nil {
			return fmt.Errorf("inspect run history: %w", err)
		}
		if tables == 0 {
			return s.createTables(ctx)
		}
	}
	return fmt.Errorf("%w: %s has version %d, this build writes version %d; move the file aside to start a new history",
		ErrSchemaMismatch, s.path, version, schemaVersion)
}

func (s *Store) createTables(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("create run history: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create run history tables: %w", err)
	}
	// PRAGMA does not accept bound parameters.
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		return fmt.Errorf("stamp run history version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("create run history: %w", err)
	}
	return nil
}
