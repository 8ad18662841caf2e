// Package model contains the core data types shared across smsledger.
package model

import "time"

// IncomingMessage is a text notification delivered by the host platform.
// It is immutable once received; ID is the idempotency key.
type IncomingMessage struct {
	ReceivedAt time.Time `json:"received_at"`
	ID         string    `json:"id"`
	Sender     string    `json:"sender"`
	Body       string    `json:"body"`
	Read       bool      `json:"read"`
}

// HasReceiptTime reports whether the platform supplied a receipt timestamp.
func (m IncomingMessage) HasReceiptTime() bool {
	return !m.ReceivedAt.IsZero()
}
