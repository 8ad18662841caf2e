// Package common provides shared utilities and types used across the application.
package common

import (
	"context"
	"errors"
	"fmt"
)

// Common application errors.
var (
	// Storage errors.
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")

	// Pipeline errors.
	ErrNotRelevant      = errors.New("message not relevant")
	ErrExtractionFailed = errors.New("extraction failed")
	ErrBelowThreshold   = errors.New("confidence below threshold")
	ErrBelowMinimum     = errors.New("amount below configured minimum")

	// Capability errors.
	ErrPermissionDenied    = errors.New("permission denied")
	ErrMonitoringInactive  = errors.New("monitoring inactive")
	ErrNoVisibleSuggestion = errors.New("no visible suggestion")
	ErrStaleSuggestion     = errors.New("suggestion is no longer visible")

	// Persistence errors.
	ErrPersistenceExhausted = errors.New("persistence retries exhausted")
	ErrPersistenceRejected  = errors.New("persistence rejected by backend")
	ErrAlreadyPersisted     = errors.New("suggestion already persisted")

	// Configuration errors.
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}

// IsRetryable determines if an error should trigger a retry.
func IsRetryable(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var retryableErr *RetryableError
	if errors.As(err, &retryableErr) {
		return retryableErr.Retryable
	}

	return false
}
