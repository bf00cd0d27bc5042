package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/MrSnakeDoc/mysa/internal/domain"
	"github.com/MrSnakeDoc/mysa/internal/store"
)

//go:embed schema.sql
var schema string

// Config configures the SQLite backend.
type Config struct {
	Path        string
	BusyTimeout time.Duration // 0 means driver default
}

// Store keeps entries in a single table. Save replaces the table contents
// inside one transaction.
type Store struct {
	db *sql.DB
}

// Open creates the database file if needed and applies the schema.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, errors.New("sqlite path is required")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create sqlite directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	// One writer at a time; also keeps ":memory:" on a single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if cfg.BusyTimeout > 0 {
		_, _ = db.ExecContext(ctx, fmt.Sprintf("PRAGMA busy_timeout = %d", cfg.BusyTimeout.Milliseconds()))
	}
	_, _ = db.ExecContext(ctx, "PRAGMA journal_mode = WAL")
	_, _ = db.ExecContext(ctx, "PRAGMA synchronous = NORMAL")

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply sqlite schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Backend() string { return store.BackendSQLite }

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Ping reports whether the database is usable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Load(ctx context.Context) ([]domain.Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, kind, reference, interval_minutes FROM entries ORDER BY position`)
	if err != nil {
		return nil, store.LoadError(store.BackendSQLite, err)
	}
	defer func() { _ = rows.Close() }()

	entries := []domain.Entry{}
	for rows.Next() {
		var (
			e    domain.Entry
			kind string
		)
		if err := rows.Scan(&e.ID, &kind, &e.Ref.Value, &e.IntervalMinutes); err != nil {
			return nil, store.LoadError(store.BackendSQLite, err)
		}
		e.Ref.Kind = domain.Kind(kind)
		if err := e.Validate(); err != nil {
			return nil, store.LoadError(store.BackendSQLite, fmt.Errorf("entry %s: %w", e.ID, err))
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, store.LoadError(store.BackendSQLite, err)
	}
	return entries, nil
}

func (s *Store) Save(ctx context.Context, entries []domain.Entry) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return store.SaveError(store.BackendSQLite, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM entries`); err != nil {
		return store.SaveError(store.BackendSQLite, err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO entries (id, position, kind, reference, interval_minutes) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return store.SaveError(store.BackendSQLite, err)
	}
	defer func() { _ = stmt.Close() }()

	for i, e := range entries {
		if _, err = stmt.ExecContext(ctx, e.ID, i, string(e.Ref.Kind), e.Ref.Value, e.IntervalMinutes); err != nil {
			return store.SaveError(store.BackendSQLite, fmt.Errorf("entry %s: %w", e.ID, err))
		}
	}

	if err = tx.Commit(); err != nil {
		return store.SaveError(store.BackendSQLite, err)
	}
	return nil
}
