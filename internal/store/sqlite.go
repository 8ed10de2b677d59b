package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"medmatch/internal/batch"
	"medmatch/internal/logging"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current schema version. Bump this when the schema changes.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database schema version doesn't match the expected version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// SQLiteStore persists the mapping in a SQLite database.
type SQLiteStore struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// OpenSQLite opens or creates the database at path.
func OpenSQLite(ctx context.Context, path string, logger *slog.Logger) (*SQLiteStore, error) {
	ctx = ensureContext(ctx)
	if logger == nil {
		logger = logging.NewNop()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, wrap("open", "create store directory", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, wrap("open", "open sqlite db", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, wrap("open", fmt.Sprintf("apply pragma %q", pragma), execErr)
		}
	}

	s := &SQLiteStore{db: db, path: path, logger: logging.NewComponentLogger(logger, "store")}
	if err := s.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, wrap("open", "init schema", err)
	}
	return s, nil
}

// Location returns the database path.
func (s *SQLiteStore) Location() string { return s.path }

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}
	if tableExists == 0 {
		return s.createSchema(ctx)
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (run 'medmatch mapping clear' or delete the database)",
			ErrSchemaMismatch, version, schemaVersion)
	}
	return nil
}

func (s *SQLiteStore) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	return tx.Commit()
}

// Get returns every stored row. The mapping is absent until the first Set.
func (s *SQLiteStore) Get(ctx context.Context) (batch.MatchedFileMap, bool, error) {
	ctx = ensureContext(ctx)
	var (
		m       batch.MatchedFileMap
		present bool
	)
	err := retryOnBusy(ctx, func() error {
		var count int
		if err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM mapping_state").Scan(&count); err != nil {
			return err
		}
		present = count > 0
		if !present {
			m = nil
			return nil
		}
		rows, err := s.db.QueryContext(ctx, "SELECT catalog_id, path FROM matched_files ORDER BY catalog_id")
		if err != nil {
			return err
		}
		defer rows.Close()
		m = batch.MatchedFileMap{}
		for rows.Next() {
			var id, p string
			if err := rows.Scan(&id, &p); err != nil {
				return err
			}
			m[id] = p
		}
		return rows.Err()
	})
	if err != nil {
		return nil, false, wrap("get", "query mapping", err)
	}
	return m, present, nil
}

// Set replaces the stored mapping in one transaction.
func (s *SQLiteStore) Set(ctx context.Context, m batch.MatchedFileMap) error {
	ctx = ensureContext(ctx)
	now := time.Now().UTC().Format(time.RFC3339Nano)
	err := retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback() }()

		if _, err := tx.ExecContext(ctx, "DELETE FROM matched_files"); err != nil {
			return err
		}
		stmt, err := tx.PrepareContext(ctx, "INSERT INTO matched_files (catalog_id, path, updated_at) VALUES (?, ?, ?)")
		if err != nil {
			return err
		}
		defer stmt.Close()
		for id, p := range m {
			if _, err := stmt.ExecContext(ctx, id, p, now); err != nil {
				return fmt.Errorf("insert %s: %w", id, err)
			}
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO mapping_state (singleton, updated_at) VALUES (1, ?) ON CONFLICT(singleton) DO UPDATE SET updated_at = excluded.updated_at",
			now); err != nil {
			return err
		}
		return tx.Commit()
	})
	if err != nil {
		return wrap("set", "replace mapping", err)
	}
	s.logger.Debug("stored matched file map",
		logging.Int("entry_count", len(m)),
		logging.String("path", s.path))
	return nil
}

// Remove deletes all rows and the presence marker.
func (s *SQLiteStore) Remove(ctx context.Context) error {
	ctx = ensureContext(ctx)
	err := retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback() }()
		if _, err := tx.ExecContext(ctx, "DELETE FROM matched_files"); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM mapping_state"); err != nil {
			return err
		}
		return tx.Commit()
	})
	if err != nil {
		return wrap("remove", "clear mapping", err)
	}
	return nil
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}
