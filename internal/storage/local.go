// Package storage is the durable local state of the client: a small SQLite
// file holding opaque JSON blobs keyed by well-known names (the persisted
// session and the offline queue snapshot). Blobs carry no schema version; a
// malformed or foreign-shaped blob is treated as absent by callers, cleared
// rather than repaired.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Well-known state keys.
const (
	KeyAuth         = "onepocket_auth"
	KeyOfflineQueue = "onepocket_offline_queue"
)

// ErrNotFound reports a key with no stored value.
var ErrNotFound = errors.New("state key not found")

// LocalState is the SQLite-backed key/value store.
type LocalState struct {
	db *sql.DB
}

func Open(dbPath string) (*LocalState, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create state directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &LocalState{db: db}, nil
}

func (s *LocalState) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Get reads the raw blob stored under key. Returns ErrNotFound when absent.
func (s *LocalState) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM local_state WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get state %q: %w", key, err)
	}
	return value, nil
}

// Put stores the blob under key, replacing any previous value.
func (s *LocalState) Put(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO local_state (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		key, value)
	if err != nil {
		return fmt.Errorf("put state %q: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting an absent key is not an error.
func (s *LocalState) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM local_state WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete state %q: %w", key, err)
	}
	return nil
}

// GetJSON decodes the blob stored under key into out. A malformed blob is
// reported as ErrNotFound after clearing the key, matching the
// treat-as-absent policy for unversioned local state.
func (s *LocalState) GetJSON(ctx context.Context, key string, out any) error {
	raw, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		slog.WarnContext(ctx, "Discarding malformed state blob", "key", key, "error", err)
		_ = s.Delete(ctx, key)
		return ErrNotFound
	}
	return nil
}

// PutJSON encodes v and stores it under key.
func (s *LocalState) PutJSON(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal state %q: %w", key, err)
	}
	return s.Put(ctx, key, raw)
}
