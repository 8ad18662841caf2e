// Package source delivers incoming messages from files, streams and
// in-process channels.
package source

import (
	"context"
	"sync"

	"github.com/Veraticus/smsledger/internal/model"
)

// Source produces messages until its context ends or input is exhausted.
// The returned channel is closed when delivery stops. Sources may
// redeliver a message; consumers dedupe by ID.
type Source interface {
	Messages(ctx context.Context) (<-chan model.IncomingMessage, error)
}

// Channel is an in-process Source fed by Deliver.
type Channel struct {
	ch     chan model.IncomingMessage
	once   sync.Once
	closed bool
	mu     sync.Mutex
}

// NewChannel creates a Channel with the given buffer size.
func NewChannel(buffer int) *Channel {
	return &Channel{ch: make(chan model.IncomingMessage, buffer)}
}

// Messages returns the delivery channel.
func (c *Channel) Messages(context.Context) (<-chan model.IncomingMessage, error) {
	return c.ch, nil
}

// Deliver sends msg, blocking until it is consumed, buffered or ctx ends.
// It reports false if the channel was closed.
func (c *Channel) Deliver(ctx context.Context, msg model.IncomingMessage) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.ch <- msg:
		return true
	case <-ctx.Done():
		return false
	}
}

// Close stops delivery.
func (c *Channel) Close() {
	c.once.Do(func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.closed = true
		close(c.ch)
	})
}
