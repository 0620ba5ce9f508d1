package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ericfisherdev/clusterpanel/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.StateStore = (*StateRepo)(nil)

// StateRepo is the SQLite implementation of the StateStore port: a durable
// string key/value store scoped to this application.
type StateRepo struct {
	db *DB
}

// NewStateRepo creates a new StateRepo.
func NewStateRepo(db *DB) *StateRepo {
	return &StateRepo{db: db}
}

// Get returns the value stored under key. The boolean is false when the key
// has never been written.
func (r *StateRepo) Get(ctx context.Context, key string) (string, bool, error) {
	const query = `SELECT value FROM state WHERE key = ?`

	var value string
	err := r.db.Reader.QueryRowContext(ctx, query, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get state %q: %w", key, err)
	}
	return value, true, nil
}

// Update stores value under key, replacing any previous value.
func (r *StateRepo) Update(ctx context.Context, key, value string) error {
	const query = `
		INSERT INTO state (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`

	if _, err := r.db.Writer.ExecContext(ctx, query, key, value); err != nil {
		return fmt.Errorf("update state %q: %w", key, err)
	}
	return nil
}
