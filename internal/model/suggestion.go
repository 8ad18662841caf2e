package model

import (
	"time"

	"github.com/google/uuid"
)

// SuggestionState is the lifecycle position of a Suggestion.
type SuggestionState string

// Suggestion states. Notified is terminal and used only by the fallback path.
const (
	SuggestionQueued    SuggestionState = "QUEUED"
	SuggestionVisible   SuggestionState = "VISIBLE"
	SuggestionDismissed SuggestionState = "DISMISSED"
	SuggestionConfirmed SuggestionState = "CONFIRMED"
	SuggestionNotified  SuggestionState = "NOTIFIED"
)

// DismissReason explains why a visible suggestion went away.
type DismissReason string

// Dismiss reasons.
const (
	DismissByUser       DismissReason = "user"
	DismissByTimeout    DismissReason = "timeout"
	DismissByBackground DismissReason = "background"
	DismissByConfirm    DismissReason = "confirmed"
	DismissByReport     DismissReason = "reported"
)

// Overrides holds fields the user edited before confirming.
type Overrides struct {
	Title      string `json:"title,omitempty"`
	CategoryID string `json:"category_id,omitempty"`
}

// Suggestion is a candidate transaction waiting for a user decision.
type Suggestion struct {
	CreatedAt   time.Time
	ID          string
	RawMessage  string
	State       SuggestionState
	Overrides   Overrides
	Transaction ExtractedTransaction
	DisplayFor  time.Duration
}

// NewSuggestion wraps a transaction in a fresh suggestion.
func NewSuggestion(tx ExtractedTransaction, raw string, now time.Time, displayFor time.Duration) Suggestion {
	return Suggestion{
		ID:          uuid.New().String(),
		Transaction: tx,
		RawMessage:  raw,
		CreatedAt:   now,
		DisplayFor:  displayFor,
	}
}

// Title returns the user title, falling back to the merchant.
func (s Suggestion) Title() string {
	if s.Overrides.Title != "" {
		return s.Overrides.Title
	}
	if m := s.Transaction.MerchantName(); m != "" {
		return m
	}
	return "SMS transaction"
}

// IsTerminal reports whether the suggestion can no longer change state.
func (s Suggestion) IsTerminal() bool {
	switch s.State {
	case SuggestionDismissed, SuggestionConfirmed, SuggestionNotified:
		return true
	default:
		return false
	}
}
