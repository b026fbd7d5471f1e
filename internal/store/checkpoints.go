package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/kilupskalvis/gitnotify/internal/models"
)

// GetCheckpoint returns the revision stored under key.
func (s *Store) GetCheckpoint(ctx context.Context, key string) (string, bool, error) {
	var rev string
	err := s.db.QueryRowContext(ctx, "SELECT revision FROM checkpoints WHERE key = ?", key).Scan(&rev)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get checkpoint %s: %w", key, err)
	}
	return rev, true, nil
}

// SetCheckpoint stores rev under key and records the move in the history.
func (s *Store) SetCheckpoint(ctx context.Context, key, rev string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err = tx.ExecContext(ctx,
		`INSERT INTO checkpoints (key, revision, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET revision = excluded.revision, updated_at = excluded.updated_at`,
		key, rev, now,
	)
	if err != nil {
		return fmt.Errorf("set checkpoint %s: %w", key, err)
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO checkpoint_history (key, revision, updated_at) VALUES (?, ?, ?)",
		key, rev, now,
	)
	if err != nil {
		return fmt.Errorf("record checkpoint history: %w", err)
	}

	return tx.Commit()
}

// ListCheckpoints returns all checkpoints ordered by key.
func (s *Store) ListCheckpoints(ctx context.Context) ([]*models.Checkpoint, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT key, revision, COALESCE(updated_at, '') FROM checkpoints ORDER BY key")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanCheckpoints(rows)
}

// CheckpointHistory returns the moves of a checkpoint, newest first.
// A limit of 0 returns the full history.
func (s *Store) CheckpointHistory(ctx context.Context, key string, limit int) ([]*models.Checkpoint, error) {
	query := "SELECT key, revision, COALESCE(updated_at, '') FROM checkpoint_history WHERE key = ? ORDER BY id DESC"
	args := []interface{}{key}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanCheckpoints(rows)
}

func scanCheckpoints(rows *sql.Rows) ([]*models.Checkpoint, error) {
	var checkpoints []*models.Checkpoint
	for rows.Next() {
		var cp models.Checkpoint
		var updatedAt string
		if err := rows.Scan(&cp.Key, &cp.Revision, &updatedAt); err != nil {
			return nil, err
		}
		cp.UpdatedAt = parseTimestamp(updatedAt)
		checkpoints = append(checkpoints, &cp)
	}
	return checkpoints, rows.Err()
}
