package keyvalue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"aiga/internal/adapters/storage"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db  storage.SQLDB
	now func() time.Time
}

// NewSQLiteStore creates a new key-value store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db, now: time.Now}
}

// Get retrieves the value stored under key.
// PRE: key is non-empty
// POST: Returns the stored value or ErrNotFound
// INVARIANT: Store state is not mutated
func (s *SQLiteStore) Get(ctx context.Context, key string) (string, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM key_value WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get key_value: %w", err)
	}
	return string(value), nil
}

// Set upserts the value stored under key.
// PRE: key is non-empty
// POST: A subsequent Get(key) returns value
// INVARIANT: No other keys are modified
func (s *SQLiteStore) Set(ctx context.Context, key, value string) error {
	if key == "" {
		return errors.New("key is required")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO key_value (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value=excluded.value,
			updated_at=excluded.updated_at
	`, key, []byte(value), s.now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("set key_value: %w", err)
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
// POST: A subsequent Get(key) returns ErrNotFound
func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM key_value WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete key_value: %w", err)
	}
	return nil
}
