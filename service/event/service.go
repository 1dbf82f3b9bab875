// Package event is the kernel event bus: typed publishers over in-memory
// queues plus background listeners.
package event

import (
	"reflect"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/viant/minikernel/service/messaging/memory"
)

// Service keeps one queue per event payload type
type Service struct {
	publishers     map[reflect.Type]any
	listeners      map[reflect.Type]stopper
	queues         map[reflect.Type]queueCounter
	mux            sync.RWMutex
	newQueueConfig func(name string) memory.Config
	logger         *logrus.Entry
}

type stopper interface{ Stop() }

type queueCounter interface {
	Dropped() int
	DLQSize() int
}

// New creates an event service
func New(opts ...Option) *Service {
	ret := &Service{
		publishers:     make(map[reflect.Type]any),
		listeners:      make(map[reflect.Type]stopper),
		queues:         make(map[reflect.Type]queueCounter),
		newQueueConfig: func(string) memory.Config { return memory.DefaultConfig() },
		logger:         logrus.NewEntry(logrus.StandardLogger()).WithField("component", "event"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

func keyOf[T any]() reflect.Type {
	var t T
	rType := reflect.TypeOf(t)
	if rType.Kind() == reflect.Ptr {
		rType = rType.Elem()
	}
	return rType
}

// PublisherOf returns the publisher for the provided payload type
func PublisherOf[T any](s *Service) *Publisher[T] {
	key := keyOf[T]()
	s.mux.RLock()
	ret, ok := s.publishers[key]
	s.mux.RUnlock()
	if ok {
		return ret.(*Publisher[T])
	}
	s.mux.Lock()
	defer s.mux.Unlock()
	if ret, ok = s.publishers[key]; ok {
		return ret.(*Publisher[T])
	}
	queue := memory.NewQueue[Event[T]](s.newQueueConfig(key.String()))
	publisher := NewPublisher[T](queue)
	s.publishers[key] = publisher
	s.queues[key] = queue
	return publisher
}

// SetListenerOf replaces the listener for the provided payload type
func SetListenerOf[T any](s *Service, handler Handler[T]) {
	key := keyOf[T]()
	publisher := PublisherOf[T](s)
	s.mux.Lock()
	previous := s.listeners[key]
	listener := NewListener[T](publisher, handler, s.logger)
	s.listeners[key] = listener
	s.mux.Unlock()
	if previous != nil {
		previous.Stop()
	}
	listener.Start()
}

// Dropped returns the number of events dropped on full queues
func (s *Service) Dropped() int {
	s.mux.RLock()
	defer s.mux.RUnlock()
	total := 0
	for _, queue := range s.queues {
		total += queue.Dropped()
	}
	return total
}

// DeadLetters returns the number of events whose handler kept failing
// after every retry
func (s *Service) DeadLetters() int {
	s.mux.RLock()
	defer s.mux.RUnlock()
	total := 0
	for _, queue := range s.queues {
		total += queue.DLQSize()
	}
	return total
}

// Close stops every listener
func (s *Service) Close() {
	s.mux.Lock()
	listeners := s.listeners
	s.listeners = make(map[reflect.Type]stopper)
	s.mux.Unlock()
	for _, listener := range listeners {
		listener.Stop()
	}
}
