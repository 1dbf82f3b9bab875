package event

import (
	"context"

	"github.com/viant/minikernel/service/messaging"
)

// Publisher publishes typed events to a queue
type Publisher[T any] struct {
	queue messaging.Queue[Event[T]]
}

// NewPublisher creates a publisher
func NewPublisher[T any](queue messaging.Queue[Event[T]]) *Publisher[T] {
	return &Publisher[T]{queue: queue}
}

// Publish enqueues an event
func (p *Publisher[T]) Publish(ctx context.Context, event *Event[T]) error {
	return p.queue.Publish(ctx, event)
}

// Offer enqueues an event without waiting; a full queue yields
// messaging.ErrQueueFull.
func (p *Publisher[T]) Offer(event *Event[T]) error {
	offerer, ok := p.queue.(messaging.Offerer[Event[T]])
	if !ok {
		return messaging.ErrCannotOffer
	}
	return offerer.Offer(event)
}

// Receive dequeues the next message; the caller acks or nacks it
func (p *Publisher[T]) Receive(ctx context.Context) (messaging.Message[Event[T]], error) {
	return p.queue.Consume(ctx)
}

// Consume dequeues and acknowledges the next event
func (p *Publisher[T]) Consume(ctx context.Context) (*Event[T], error) {
	msg, err := p.Receive(ctx)
	if err != nil || msg == nil {
		return nil, err
	}
	if err = msg.Ack(); err != nil {
		return nil, err
	}
	return msg.T(), nil
}
