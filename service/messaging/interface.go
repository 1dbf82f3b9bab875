// Package messaging defines the queue abstraction the kernel event bus
// publishes through.
package messaging

import (
	"context"
	"errors"
)

// ErrQueueFull is returned by a non-blocking queue that dropped a message.
var ErrQueueFull = errors.New("messaging: queue full")

// ErrCannotOffer is returned when a queue has no non-blocking enqueue.
var ErrCannotOffer = errors.New("messaging: queue cannot offer")

// Queue represents a message queue for any payload type
type Queue[T any] interface {
	// Publish adds a new message with payload to the queue
	Publish(ctx context.Context, t *T) error

	// Consume retrieves a single message from the queue
	Consume(ctx context.Context) (Message[T], error)
}

// Offerer is implemented by queues that can enqueue without waiting for room
type Offerer[T any] interface {
	// Offer adds a message or fails with ErrQueueFull when the buffer is full
	Offer(t *T) error
}

// Message represents a message retrieved from a queue
type Message[T any] interface {
	// ID returns the message identifier
	ID() string

	// T returns the payload of this message
	T() *T

	// Ack acknowledges successful processing of this message
	Ack() error

	// Nack indicates failure in processing this message
	Nack(err error) error
}
