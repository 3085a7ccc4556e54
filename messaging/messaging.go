// Package messaging publishes task messages to a broker queue.
package messaging

import (
	"context"
	"errors"
	"time"
)

// ErrClosed is returned by Publish after Close.
var ErrClosed = errors.New("messaging: publisher closed")

// Message is a single broker message.
type Message struct {
	ID          string
	ContentType string
	Body        []byte
	Headers     map[string]any
	Timestamp   time.Time
}

// Publisher sends messages to named queues.
type Publisher interface {
	// Publish delivers msg to queue. The queue is declared durable on first use.
	Publish(ctx context.Context, queue string, msg Message) error

	// Close releases the broker connection.
	Close() error
}
