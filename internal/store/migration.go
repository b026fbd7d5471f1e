package store

import (
	"database/sql"
	"fmt"
	"time"
)

const currentSchemaVersion = 2

// RunMigrations applies any pending database migrations
func (s *Store) RunMigrations() error {
	version, err := s.getSchemaVersion()
	if err != nil {
		return err
	}

	if version < 2 {
		if err := s.migrateToV2(); err != nil {
			return fmt.Errorf("migration to v2 failed: %w", err)
		}
	}

	return nil
}

// getSchemaVersion returns the current schema version, 1 if not set
func (s *Store) getSchemaVersion() (int, error) {
	var tableName string
	err := s.db.QueryRow(`
		SELECT name FROM sqlite_master
		WHERE type='table' AND name='gitnotify_schema_version'
	`).Scan(&tableName)

	if err == sql.ErrNoRows {
		return 1, nil
	}
	if err != nil {
		return 0, err
	}

	var version int
	err = s.db.QueryRow("SELECT COALESCE(MAX(version), 1) FROM gitnotify_schema_version").Scan(&version)
	if err != nil {
		return 1, nil
	}

	return version, nil
}

// columnExists checks if a column exists in a table
func (s *Store) columnExists(table, column string) bool {
	var count int
	err := s.db.QueryRow(`
		SELECT COUNT(*) FROM pragma_table_info(?)
		WHERE name = ?
	`, table, column).Scan(&count)
	return err == nil && count > 0
}

// migrateToV2 adds update times and the checkpoint history, seeding the
// history with the checkpoints that already exist.
func (s *Store) migrateToV2() error {
	hasUpdatedAt := s.columnExists("checkpoints", "updated_at")

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if !hasUpdatedAt {
		if _, err := tx.Exec(`ALTER TABLE checkpoints ADD COLUMN updated_at DATETIME`); err != nil {
			return err
		}
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	if _, err := tx.Exec(`UPDATE checkpoints SET updated_at = ? WHERE updated_at IS NULL`, now); err != nil {
		return err
	}

	migrations := []string{
		`CREATE TABLE IF NOT EXISTS checkpoint_history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			key TEXT NOT NULL,
			revision TEXT NOT NULL,
			updated_at DATETIME
		)`,
		`CREATE INDEX IF NOT EXISTS idx_checkpoint_history_key ON checkpoint_history(key)`,
		`INSERT INTO checkpoint_history (key, revision, updated_at)
			SELECT c.key, c.revision, c.updated_at FROM checkpoints c
			WHERE NOT EXISTS (SELECT 1 FROM checkpoint_history h WHERE h.key = c.key)`,
	}
	for _, migration := range migrations {
		if _, err := tx.Exec(migration); err != nil {
			return err
		}
	}

	if _, err := tx.Exec("INSERT OR REPLACE INTO gitnotify_schema_version (version) VALUES (?)", 2); err != nil {
		return err
	}

	return tx.Commit()
}
