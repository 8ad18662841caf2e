package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Veraticus/smsledger/internal/common"
	"github.com/Veraticus/smsledger/internal/service"
)

// GetPersistRecord returns the ledger entry for a suggestion, or
// common.ErrNotFound.
func (s *SQLiteStorage) GetPersistRecord(ctx context.Context, suggestionID string) (*service.PersistRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(suggestionID, "suggestion id"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT suggestion_id, source_message_id, status, attempts, remote_id, last_error, updated_at
		FROM persisted_suggestions
		WHERE suggestion_id = ?
	`, suggestionID)

	record, err := scanPersistRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: suggestion %s", common.ErrNotFound, suggestionID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get persist record: %w", err)
	}
	return &record, nil
}

// SavePersistRecord inserts or replaces a ledger entry. A succeeded entry
// is never downgraded.
func (s *SQLiteStorage) SavePersistRecord(ctx context.Context, record service.PersistRecord) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validatePersistRecord(record); err != nil {
		return err
	}
	if record.UpdatedAt.IsZero() {
		record.UpdatedAt = s.now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO persisted_suggestions
			(suggestion_id, source_message_id, status, attempts, remote_id, last_error, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(suggestion_id) DO UPDATE SET
			source_message_id = excluded.source_message_id,
			status = excluded.status,
			attempts = excluded.attempts,
			remote_id = excluded.remote_id,
			last_error = excluded.last_error,
			updated_at = excluded.updated_at
		WHERE persisted_suggestions.status != 'succeeded'
	`, record.SuggestionID, record.SourceMessageID, string(record.Status), record.Attempts,
		record.RemoteID, record.LastError, record.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to save persist record: %w", err)
	}
	return nil
}

// ListPersistRecords returns ledger entries, newest first. An empty status
// lists everything.
func (s *SQLiteStorage) ListPersistRecords(ctx context.Context, status service.PersistStatus) ([]service.PersistRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `
		SELECT suggestion_id, source_message_id, status, attempts, remote_id, last_error, updated_at
		FROM persisted_suggestions`
	var args []any
	if status != "" {
		if err := validateStatus(status); err != nil {
			return nil, err
		}
		query += ` WHERE status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY updated_at DESC, suggestion_id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list persist records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []service.PersistRecord
	for rows.Next() {
		record, err := scanPersistRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan persist record: %w", err)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPersistRecord(row rowScanner) (service.PersistRecord, error) {
	var (
		record service.PersistRecord
		status string
	)
	err := row.Scan(&record.SuggestionID, &record.SourceMessageID, &status, &record.Attempts,
		&record.RemoteID, &record.LastError, &record.UpdatedAt)
	record.Status = service.PersistStatus(status)
	return record, err
}
