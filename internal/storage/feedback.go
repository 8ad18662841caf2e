package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Veraticus/smsledger/internal/service"
)

// SaveExtractionReport stores a user report about a misread message.
func (s *SQLiteStorage) SaveExtractionReport(ctx context.Context, report service.ExtractionReport) (int64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if err := validateString(report.RawMessage, "raw message"); err != nil {
		return 0, err
	}

	parsed, err := json.Marshal(report.Parsed)
	if err != nil {
		return 0, fmt.Errorf("failed to encode parsed transaction: %w", err)
	}
	if report.ReportedAt.IsZero() {
		report.ReportedAt = s.now()
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO extraction_reports (message_id, raw_message, parsed_json, reported_at)
		VALUES (?, ?, ?, ?)
	`, report.MessageID, report.RawMessage, string(parsed), report.ReportedAt.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to save extraction report: %w", err)
	}
	return res.LastInsertId()
}

// ListExtractionReports returns up to limit reports, newest first.
func (s *SQLiteStorage) ListExtractionReports(ctx context.Context, limit int) ([]service.ExtractionReport, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateLimit(limit); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, message_id, raw_message, parsed_json, reported_at
		FROM extraction_reports
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list extraction reports: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var reports []service.ExtractionReport
	for rows.Next() {
		var (
			r      service.ExtractionReport
			parsed string
		)
		if err := rows.Scan(&r.ID, &r.MessageID, &r.RawMessage, &parsed, &r.ReportedAt); err != nil {
			return nil, fmt.Errorf("failed to scan extraction report: %w", err)
		}
		if err := json.Unmarshal([]byte(parsed), &r.Parsed); err != nil {
			return nil, fmt.Errorf("failed to decode report %d: %w", r.ID, err)
		}
		reports = append(reports, r)
	}
	return reports, rows.Err()
}
