// Package messages builds incoming message fixtures for tests.
//
//	msgs := messages.NewBuilder(t).
//		WithFixture(messages.FixtureAmazonDebit).
//		WithMessage("AX-BANK", "Rs.10 debited").
//		Build()
package messages

import (
	"fmt"
	"testing"
	"time"

	"github.com/Veraticus/smsledger/internal/model"
)

// Builder accumulates messages with sequential IDs and receipt times.
type Builder struct {
	t        *testing.T
	start    time.Time
	messages []model.IncomingMessage
	step     time.Duration
}

// NewBuilder creates a builder whose first message is received at
// 2024-01-01 09:00 UTC, one minute apart.
func NewBuilder(t *testing.T) *Builder {
	t.Helper()
	return &Builder{
		t:     t,
		start: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
		step:  time.Minute,
	}
}

// StartingAt changes the receipt time of the first message.
func (b *Builder) StartingAt(ts time.Time) *Builder {
	b.start = ts
	return b
}

// WithFixture appends a fixture message.
func (b *Builder) WithFixture(f Fixture) *Builder {
	return b.WithMessage(f.Sender, f.Body)
}

// WithFixtures appends several fixtures in order.
func (b *Builder) WithFixtures(fs ...Fixture) *Builder {
	for _, f := range fs {
		b.WithFixture(f)
	}
	return b
}

// WithMessage appends a message from sender with body.
func (b *Builder) WithMessage(sender, body string) *Builder {
	n := len(b.messages)
	b.messages = append(b.messages, model.IncomingMessage{
		ID:         fmt.Sprintf("sms-%03d", n+1),
		Sender:     sender,
		Body:       body,
		ReceivedAt: b.start.Add(time.Duration(n) * b.step),
	})
	return b
}

// WithoutReceiptTime clears ReceivedAt on the last message.
func (b *Builder) WithoutReceiptTime() *Builder {
	b.t.Helper()
	if len(b.messages) == 0 {
		b.t.Fatal("WithoutReceiptTime called on an empty builder")
	}
	b.messages[len(b.messages)-1].ReceivedAt = time.Time{}
	return b
}

// Build returns the messages.
func (b *Builder) Build() []model.IncomingMessage {
	return append([]model.IncomingMessage(nil), b.messages...)
}

// One builds a single message and fails the test if there is not exactly one.
func (b *Builder) One() model.IncomingMessage {
	b.t.Helper()
	if len(b.messages) != 1 {
		b.t.Fatalf("expected exactly one message, have %d", len(b.messages))
	}
	return b.messages[0]
}

// Message is shorthand for a single fixture message with a fixed ID.
func Message(id string, f Fixture) model.IncomingMessage {
	return model.IncomingMessage{
		ID:         id,
		Sender:     f.Sender,
		Body:       f.Body,
		ReceivedAt: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
	}
}
