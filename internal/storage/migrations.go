package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
// If the database cannot be migrated to this version, it's a fatal error.
const ExpectedSchemaVersion = 3

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Key-value store and processed message ledger",
		Up: func(tx *sql.Tx) error {
			return execAll(tx,
				`CREATE TABLE IF NOT EXISTS kv_store (
					key TEXT PRIMARY KEY,
					value BLOB NOT NULL,
					updated_at DATETIME NOT NULL
				)`,
				`CREATE TABLE IF NOT EXISTS processed_messages (
					id TEXT PRIMARY KEY,
					sender TEXT NOT NULL DEFAULT '',
					received_at DATETIME,
					claimed_at DATETIME NOT NULL,
					outcome TEXT NOT NULL DEFAULT ''
				)`,
				`CREATE INDEX idx_processed_messages_outcome ON processed_messages(outcome)`,
			)
		},
	},
	{
		Version:     2,
		Description: "Persistence ledger and extraction reports",
		Up: func(tx *sql.Tx) error {
			return execAll(tx,
				`CREATE TABLE IF NOT EXISTS persisted_suggestions (
					suggestion_id TEXT PRIMARY KEY,
					source_message_id TEXT NOT NULL DEFAULT '',
					status TEXT NOT NULL CHECK (status IN ('pending', 'succeeded', 'failed')),
					attempts INTEGER NOT NULL DEFAULT 0,
					remote_id TEXT NOT NULL DEFAULT '',
					last_error TEXT NOT NULL DEFAULT '',
					updated_at DATETIME NOT NULL
				)`,
				`CREATE INDEX idx_persisted_suggestions_status ON persisted_suggestions(status)`,
				`CREATE TABLE IF NOT EXISTS extraction_reports (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					message_id TEXT NOT NULL DEFAULT '',
					raw_message TEXT NOT NULL,
					parsed_json TEXT NOT NULL,
					reported_at DATETIME NOT NULL
				)`,
			)
		},
	},
	{
		Version:     3,
		Description: "Pending message queue",
		Up: func(tx *sql.Tx) error {
			return execAll(tx,
				`CREATE TABLE IF NOT EXISTS pending_messages (
					seq INTEGER PRIMARY KEY AUTOINCREMENT,
					id TEXT UNIQUE NOT NULL,
					sender TEXT NOT NULL DEFAULT '',
					body TEXT NOT NULL,
					received_at DATETIME,
					is_read INTEGER NOT NULL DEFAULT 0,
					queued_at DATETIME NOT NULL
				)`,
			)
		},
	},
}

func execAll(tx *sql.Tx, queries ...string) error {
	for _, query := range queries {
		if _, err := tx.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}
	return nil
}

// Migrate applies all pending database migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	var currentVersion int
	err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Debug("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	var finalVersion int
	err = s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&finalVersion)
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}

	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}

// SchemaVersion reports the database's current user_version.
func (s *SQLiteStorage) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get schema version: %w", err)
	}
	return version, nil
}
