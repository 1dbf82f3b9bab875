package event

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/viant/minikernel/service/messaging"
)

// Handler processes one event; an error nacks the event so the queue
// redelivers it or moves it to its dead letter queue.
type Handler[T any] func(event *Event[T]) error

// Listener drains a publisher on its own goroutine
type Listener[T any] struct {
	publisher *Publisher[T]
	handler   Handler[T]
	logger    *logrus.Entry
	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewListener creates a listener
func NewListener[T any](publisher *Publisher[T], handler Handler[T], logger *logrus.Entry) *Listener[T] {
	ctx, cancel := context.WithCancel(context.Background())
	return &Listener[T]{
		publisher: publisher,
		handler:   handler,
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
	}
}

// Stop stops consuming and waits for the running handler to return
func (l *Listener[T]) Stop() {
	l.cancel()
	<-l.done
}

// Start starts consuming
func (l *Listener[T]) Start() {
	go func() {
		defer close(l.done)
		for {
			msg, err := l.publisher.Receive(l.ctx)
			if l.ctx.Err() != nil {
				return
			}
			if err != nil {
				l.logger.WithError(err).Warn("failed to consume event")
				continue
			}
			if msg != nil {
				l.handle(msg)
			}
		}
	}()
}

func (l *Listener[T]) handle(msg messaging.Message[Event[T]]) {
	event := msg.T()
	if err := l.handler(event); err != nil {
		l.logger.WithError(err).WithFields(logrus.Fields{"event": event.Type, "id": event.ID}).Warn("event handler failed")
		if nackErr := msg.Nack(err); nackErr != nil {
			l.logger.WithError(nackErr).Warn("failed to nack event")
		}
		return
	}
	if err := msg.Ack(); err != nil {
		l.logger.WithError(err).Warn("failed to ack event")
	}
}
