// Package storage provides the SQLite persistence layer.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/smsledger/internal/model"
	"github.com/Veraticus/smsledger/internal/service"
)

// Validation errors.
var (
	ErrNilContext    = errors.New("context cannot be nil")
	ErrEmptyString   = errors.New("string parameter cannot be empty")
	ErrInvalidLimit  = errors.New("limit must be positive")
	ErrInvalidStatus = errors.New("invalid persistence status")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

func validateLimit(limit int) error {
	if limit <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidLimit, limit)
	}
	return nil
}

func validateMessage(msg model.IncomingMessage) error {
	return validateString(msg.ID, "message id")
}

func validateStatus(status service.PersistStatus) error {
	switch status {
	case service.PersistPending, service.PersistSucceeded, service.PersistFailed:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
}

func validatePersistRecord(record service.PersistRecord) error {
	if err := validateString(record.SuggestionID, "suggestion id"); err != nil {
		return err
	}
	if record.Attempts < 0 {
		return fmt.Errorf("%w: attempts cannot be negative", ErrInvalidLimit)
	}
	return validateStatus(record.Status)
}
