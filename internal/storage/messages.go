package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/Veraticus/smsledger/internal/common"
	"github.com/Veraticus/smsledger/internal/model"
)

// ClaimMessage records msg as consumed. It returns false when the ID was
// already claimed, which is how redelivered messages are recognized.
func (s *SQLiteStorage) ClaimMessage(ctx context.Context, msg model.IncomingMessage) (bool, error) {
	if err := validateContext(ctx); err != nil {
		return false, err
	}
	if err := validateMessage(msg); err != nil {
		return false, err
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO processed_messages (id, sender, received_at, claimed_at)
		VALUES (?, ?, ?, ?)
	`, msg.ID, msg.Sender, nullTime(msg.ReceivedAt), s.now())
	if err != nil {
		return false, fmt.Errorf("failed to claim message %s: %w", msg.ID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to claim message %s: %w", msg.ID, err)
	}
	return n == 1, nil
}

// RecordOutcome stores what happened to a claimed message.
func (s *SQLiteStorage) RecordOutcome(ctx context.Context, messageID, outcome string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(messageID, "message id"); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `UPDATE processed_messages SET outcome = ? WHERE id = ?`, outcome, messageID)
	if err != nil {
		return fmt.Errorf("failed to record outcome for %s: %w", messageID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: message %s", common.ErrNotFound, messageID)
	}
	return nil
}

// MessageOutcome returns the recorded outcome of a claimed message.
func (s *SQLiteStorage) MessageOutcome(ctx context.Context, messageID string) (string, error) {
	var outcome string
	err := s.db.QueryRowContext(ctx, `SELECT outcome FROM processed_messages WHERE id = ?`, messageID).Scan(&outcome)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("%w: message %s", common.ErrNotFound, messageID)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read outcome for %s: %w", messageID, err)
	}
	return outcome, nil
}

// PushPending parks msg until an identity is configured. Pushing the same
// ID twice keeps the first copy.
func (s *SQLiteStorage) PushPending(ctx context.Context, msg model.IncomingMessage) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateMessage(msg); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO pending_messages (id, sender, body, received_at, is_read, queued_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, msg.ID, msg.Sender, msg.Body, nullTime(msg.ReceivedAt), msg.Read, s.now())
	if err != nil {
		return fmt.Errorf("failed to queue message %s: %w", msg.ID, err)
	}
	return nil
}

// PopPending removes and returns up to limit parked messages, oldest first.
func (s *SQLiteStorage) PopPending(ctx context.Context, limit int) ([]model.IncomingMessage, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateLimit(limit); err != nil {
		return nil, err
	}

	var msgs []model.IncomingMessage
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, `
			SELECT seq, id, sender, body, received_at, is_read
			FROM pending_messages
			ORDER BY seq
			LIMIT ?
		`, limit)
		if err != nil {
			return fmt.Errorf("failed to query pending messages: %w", err)
		}
		defer func() { _ = rows.Close() }()

		var seqs []any
		for rows.Next() {
			var (
				seq      int64
				msg      model.IncomingMessage
				received sql.NullTime
			)
			if err := rows.Scan(&seq, &msg.ID, &msg.Sender, &msg.Body, &received, &msg.Read); err != nil {
				return fmt.Errorf("failed to scan pending message: %w", err)
			}
			if received.Valid {
				msg.ReceivedAt = received.Time
			}
			seqs = append(seqs, seq)
			msgs = append(msgs, msg)
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("failed to iterate pending messages: %w", err)
		}
		if len(seqs) == 0 {
			return nil
		}

		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(seqs)), ",")
		query := "DELETE FROM pending_messages WHERE seq IN (" + placeholders + ")" //nolint:gosec // placeholders only
		if _, err := tx.ExecContext(ctx, query, seqs...); err != nil {
			return fmt.Errorf("failed to remove pending messages: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return msgs, nil
}

// CountPending returns how many messages are parked.
func (s *SQLiteStorage) CountPending(ctx context.Context) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pending_messages`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count pending messages: %w", err)
	}
	return n, nil
}
