// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/Veraticus/smsledger/internal/model"
)

// KeyValueStore is an opaque get/set store for JSON blobs.
// Get returns common.ErrNotFound when the key is absent.
type KeyValueStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// MessageLedger remembers which message IDs were already consumed.
type MessageLedger interface {
	// ClaimMessage records msg as seen. It returns false if the ID was
	// already claimed.
	ClaimMessage(ctx context.Context, msg model.IncomingMessage) (bool, error)
	RecordOutcome(ctx context.Context, messageID, outcome string) error
}

// PersistStatus is the state of a suggestion in the persistence ledger.
type PersistStatus string

// Persistence ledger statuses.
const (
	PersistPending   PersistStatus = "pending"
	PersistSucceeded PersistStatus = "succeeded"
	PersistFailed    PersistStatus = "failed"
)

// PersistRecord is one row of the persistence ledger.
type PersistRecord struct {
	UpdatedAt       time.Time
	SuggestionID    string
	SourceMessageID string
	RemoteID        string
	LastError       string
	Status          PersistStatus
	Attempts        int
}

// PersistenceLedger tracks backend submissions per suggestion.
type PersistenceLedger interface {
	GetPersistRecord(ctx context.Context, suggestionID string) (*PersistRecord, error)
	SavePersistRecord(ctx context.Context, record PersistRecord) error
	ListPersistRecords(ctx context.Context, status PersistStatus) ([]PersistRecord, error)
}

// ExtractionReport is a user report that a message was misread.
type ExtractionReport struct {
	ReportedAt time.Time
	MessageID  string
	RawMessage string
	Parsed     model.TransactionView
	ID         int64
}

// FeedbackStore keeps incorrect-extraction reports locally.
type FeedbackStore interface {
	SaveExtractionReport(ctx context.Context, report ExtractionReport) (int64, error)
	ListExtractionReports(ctx context.Context, limit int) ([]ExtractionReport, error)
}

// PendingQueue parks messages that arrive before an identity is configured.
type PendingQueue interface {
	PushPending(ctx context.Context, msg model.IncomingMessage) error
	// PopPending removes and returns up to limit messages, oldest first.
	PopPending(ctx context.Context, limit int) ([]model.IncomingMessage, error)
	CountPending(ctx context.Context) (int, error)
}

// Storage is the full local persistence layer.
type Storage interface {
	KeyValueStore
	MessageLedger
	PersistenceLedger
	FeedbackStore
	PendingQueue

	Migrate(ctx context.Context) error
	Close() error
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// DefaultRetryOptions yields 3 attempts waiting 2s then 4s.
func DefaultRetryOptions() RetryOptions {
	return RetryOptions{
		MaxAttempts:  3,
		InitialDelay: time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2,
	}
}
