package prefs

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jayteealao/gitbean/internal/errors"
	"github.com/jayteealao/gitbean/internal/lock"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
)

//go:embed migrations/001_initial.sql
var initialMigration string

// migrationLock names the file lock held while the schema is migrated.
const migrationLock = "prefs-migrate"

// Store persists preferences in SQLite.
type Store struct {
	db      *sql.DB
	dataDir string
}

// Preference is a stored key/value pair.
type Preference struct {
	Key       string
	Value     string
	UpdatedAt time.Time
}

// Ensure Store satisfies Getter
var _ Getter = (*Store)(nil)

// New opens the store at <dataDir>/prefs.db, creating it when needed.
func New(ctx context.Context, dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "prefs.db")
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite doesn't handle concurrent writes well
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	store := &Store{
		db:      db,
		dataDir: dataDir,
	}

	if err := store.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DataDir returns the data directory path.
func (s *Store) DataDir() string {
	return s.dataDir
}

// migrate brings the schema up to date while holding the migration lock,
// so concurrent first runs don't race on table creation.
func (s *Store) migrate(ctx context.Context) error {
	locks, err := lock.NewManager(s.dataDir)
	if err != nil {
		return err
	}
	l, err := locks.TryAcquire(migrationLock)
	if err != nil {
		return err
	}
	if l == nil {
		if _, pid, err := locks.IsLocked(migrationLock); err == nil && pid != 0 {
			logrus.WithField("pid", pid).Debug("waiting for preference migration lock")
		}
		if l, err = locks.Acquire(ctx, migrationLock); err != nil {
			return err
		}
	}
	defer l.Release()

	var version int
	err = s.db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&version)
	if err != nil {
		// Table doesn't exist yet
		version = 0
	}

	if version < 1 {
		if _, err := s.db.ExecContext(ctx, initialMigration); err != nil {
			return fmt.Errorf("failed to run initial migration: %w", err)
		}
	}

	return nil
}

// Get returns the stored value for key. It satisfies Getter, so lookup
// failures other than a missing row are reported as absent.
func (s *Store) Get(key string) (string, bool) {
	p, err := s.Lookup(context.Background(), key)
	if err != nil {
		return "", false
	}
	return p.Value, true
}

// Lookup returns the stored preference for key.
func (s *Store) Lookup(ctx context.Context, key string) (*Preference, error) {
	var p Preference
	err := s.db.QueryRowContext(ctx,
		`SELECT key, value, updated_at FROM preferences WHERE key = ?`, key,
	).Scan(&p.Key, &p.Value, &p.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%w: %s", errors.ErrPreferenceNotFound, key)
		}
		return nil, fmt.Errorf("failed to get preference: %w", err)
	}
	return &p, nil
}

// Set stores value under key, replacing any previous value.
func (s *Store) Set(ctx context.Context, key, value string) error {
	if strings.TrimSpace(key) == "" {
		return errors.ErrInvalidPreferenceKey
	}

	query := `
		INSERT INTO preferences (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`
	if _, err := s.db.ExecContext(ctx, query, key, value); err != nil {
		return fmt.Errorf("failed to set preference: %w", err)
	}
	return nil
}

// Delete removes key.
func (s *Store) Delete(ctx context.Context, key string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM preferences WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("failed to delete preference: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", errors.ErrPreferenceNotFound, key)
	}
	return nil
}

// List returns all stored preferences ordered by key.
func (s *Store) List(ctx context.Context) ([]*Preference, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value, updated_at FROM preferences ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("failed to list preferences: %w", err)
	}
	defer rows.Close()

	var prefs []*Preference
	for rows.Next() {
		var p Preference
		if err := rows.Scan(&p.Key, &p.Value, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan preference: %w", err)
		}
		prefs = append(prefs, &p)
	}

	return prefs, rows.Err()
}
