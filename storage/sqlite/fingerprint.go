package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/poiesic/docindex/storage"
	_ "modernc.org/sqlite"
)

// DriverName is the database/sql driver registered by modernc.org/sqlite.
const DriverName = "sqlite"

const schema = `CREATE TABLE IF NOT EXISTS fingerprints (
	key        TEXT PRIMARY KEY,
	hash       TEXT NOT NULL,
	updated_at INTEGER NOT NULL
)`

// FingerprintStore implements storage.FingerprintStore on a SQLite file.
type FingerprintStore struct {
	db     *sql.DB
	closed atomic.Bool
}

var _ storage.FingerprintStore = (*FingerprintStore)(nil)

// Open opens or creates the fingerprint database at path.
// Use ":memory:" for a throwaway store.
func Open(path string) (*FingerprintStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open(DriverName, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Single connection: one writer, and ":memory:" databases are per-connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if path != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &FingerprintStore{db: db}, nil
}

// Get returns the recorded hash for key.
func (s *FingerprintStore) Get(ctx context.Context, key string) (string, error) {
	if s.closed.Load() {
		return "", storage.ErrStorageClosed
	}

	var hash string
	err := s.db.QueryRowContext(ctx, "SELECT hash FROM fingerprints WHERE key = ?", key).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", storage.ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return hash, nil
}

// Set records hash for key.
func (s *FingerprintStore) Set(ctx context.Context, key, hash string) error {
	if s.closed.Load() {
		return storage.ErrStorageClosed
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO fingerprints (key, hash, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET hash = excluded.hash, updated_at = excluded.updated_at`,
		key, hash, time.Now().UTC().Unix())
	return err
}

// Count returns the number of recorded fingerprints.
func (s *FingerprintStore) Count(ctx context.Context) (int, error) {
	if s.closed.Load() {
		return 0, storage.ErrStorageClosed
	}

	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM fingerprints").Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// Close closes the database.
func (s *FingerprintStore) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.db.Close()
}
