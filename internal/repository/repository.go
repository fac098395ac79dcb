// Package repository persists user-editable preferences (search shortcuts,
// snippets, favorites and boolean settings) as JSON values in SQLite.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/igusev/qlaunch/internal/logger"
	"go.uber.org/zap"
)

// Preference keys
const (
	keySearchShortcuts = "search_shortcuts"
	keySnippets        = "snippets"
	keyFavorites       = "favorites"

	// PrefIndexWebURLs gates manual web bookmark indexing
	PrefIndexWebURLs = "index_web_urls"
)

// Store is the SQLite-backed preference repository
type Store struct {
	db   *sql.DB
	path string
	log  *zap.Logger
}

// Open opens (or creates) the preference database at dbPath
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	// WAL mode lets the HTTP server and indexers read while a write is in flight
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, path: dbPath, log: logger.Named("repository")}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS preferences (
			key        TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			updated_at INTEGER NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("creating preferences table: %w", err)
	}
	return nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path
func (s *Store) Path() string {
	return s.path
}

// getRaw returns the stored value for key; found is false if the key is absent
func (s *Store) getRaw(ctx context.Context, key string) (value string, found bool, err error) {
	row := s.db.QueryRowContext(ctx, "SELECT value FROM preferences WHERE key = ?", key)
	if err := row.Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("reading %s: %w", key, err)
	}
	return value, true, nil
}

// getJSON decodes key into v. Malformed JSON is logged and reported as not found,
// so callers fall back to their defaults.
func (s *Store) getJSON(ctx context.Context, key string, v any) (bool, error) {
	raw, found, err := s.getRaw(ctx, key)
	if err != nil || !found {
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		s.log.Warn("malformed preference, using defaults", zap.String("key", key), zap.Error(err))
		return false, nil
	}
	return true, nil
}

func (s *Store) putJSON(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", key, err)
	}
	return s.putRaw(ctx, key, string(data))
}

func (s *Store) putRaw(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO preferences (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	return nil
}

// Bool returns a boolean preference, def if unset or malformed
func (s *Store) Bool(ctx context.Context, key string, def bool) (bool, error) {
	var v bool
	found, err := s.getJSON(ctx, key, &v)
	if err != nil {
		return def, err
	}
	if !found {
		return def, nil
	}
	return v, nil
}

// SetBool stores a boolean preference
func (s *Store) SetBool(ctx context.Context, key string, v bool) error {
	return s.putJSON(ctx, key, v)
}

// Reset deletes every stored preference
func (s *Store) Reset(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM preferences"); err != nil {
		return fmt.Errorf("clearing preferences: %w", err)
	}
	return nil
}
