package db

import (
	"context"
	"fmt"
	"time"
)

// VariableRepository persists each editing session's variable cache so values
// follow a name across separate promptpad invocations.
type VariableRepository struct {
	db *DB
}

// NewVariableRepository creates a new VariableRepository.
func NewVariableRepository(db *DB) *VariableRepository {
	return &VariableRepository{db: db}
}

// Load returns the cached values for a session.
func (r *VariableRepository) Load(ctx context.Context, sessionID string) (map[string]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT name, value FROM variable_cache WHERE session_id = ?`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query variable cache: %w", err)
	}
	defer rows.Close()

	values := make(map[string]string)
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return nil, fmt.Errorf("failed to scan variable: %w", err)
		}
		values[name] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating variables: %w", err)
	}

	return values, nil
}

// Replace makes the stored cache for sessionID equal to values.
func (r *VariableRepository) Replace(ctx context.Context, sessionID string, values map[string]string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM variable_cache WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("failed to clear variable cache: %w", err)
	}

	now := formatTime(time.Now())
	for name, value := range values {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO variable_cache (session_id, name, value, updated_at)
			VALUES (?, ?, ?, ?)
		`, sessionID, name, value, now); err != nil {
			return fmt.Errorf("failed to store variable %q: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit variable cache: %w", err)
	}
	return nil
}

// Reset drops every cached value for a session and returns how many were removed.
func (r *VariableRepository) Reset(ctx context.Context, sessionID string) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM variable_cache WHERE session_id = ?`, sessionID)
	if err != nil {
		return 0, fmt.Errorf("failed to reset variable cache: %w", err)
	}
	return result.RowsAffected()
}

// Sessions lists session IDs that have cached values.
func (r *VariableRepository) Sessions(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT session_id FROM variable_cache ORDER BY session_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, id)
	}
	return sessions, rows.Err()
}
