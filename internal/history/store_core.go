package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"makeupexam/internal/config"
)

// Store is the run ledger. One file holds every run, its class submissions and
// the student selections made inside each class.
type Store struct {
	db   *sql.DB
	path string
}

// connPragmas are applied by the driver to every pooled connection, so
// foreign keys stay enforced no matter which connection runs a statement.
var connPragmas = []string{
	"busy_timeout(5000)",
	"journal_mode(WAL)",
	"foreign_keys(1)",
}

// lockRetry bounds how often a write is repeated while another process (a CLI
// history command next to a running server, say) holds the database lock.
var lockRetry = struct {
	attempts int
	first    time.Duration
	max      time.Duration
}{attempts: 5, first: 10 * time.Millisecond, max: 200 * time.Millisecond}

func orBackground(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}

// isLocked reports SQLITE_BUSY and SQLITE_LOCKED, including their extended
// result codes.
func isLocked(err error) bool {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() & 0xff {
		case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
			return true
		}
		return false
	}
	return err != nil && strings.Contains(err.Error(), "database is locked")
}

// withLockRetry runs write until it succeeds, fails for a reason other than
// lock contention, or the retry budget is spent.
func withLockRetry(ctx context.Context, write func() error) error {
	wait := lockRetry.first
	for attempt := 1; ; attempt++ {
		err := write()
		if err == nil || !isLocked(err) || attempt >= lockRetry.attempts {
			return err
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		wait = min(wait*2, lockRetry.max)
	}
}

func (s *Store) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	ctx = orBackground(ctx)
	var res sql.Result
	err := withLockRetry(ctx, func() error {
		var err error
		res, err = s.db.ExecContext(ctx, query, args...)
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Open opens the run ledger at the configured state directory.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("prepare history directory: %w", err)
	}
	return OpenPath(cfg.HistoryPath())
}

// OpenPath opens the run ledger stored at dbPath, creating it when missing.
func OpenPath(dbPath string) (*Store, error) {
	params := make([]string, 0, len(connPragmas))
	for _, pragma := range connPragmas {
		params = append(params, "_pragma="+pragma)
	}
	db, err := sql.Open("sqlite", dbPath+"?"+strings.Join(params, "&"))
	if err != nil {
		return nil, fmt.Errorf("open run history %s: %w", dbPath, err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open run history %s: %w", dbPath, err)
	}

	store := &Store{db: db, path: dbPath}
	if err := store.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
