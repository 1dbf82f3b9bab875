package event

import (
	"github.com/sirupsen/logrus"
	"github.com/viant/minikernel/service/messaging/memory"
)

// Option customises the event service
type Option func(s *Service)

// WithNewQueueConfig sets the memory queue configuration factory
func WithNewQueueConfig(newConfig func(name string) memory.Config) Option {
	return func(s *Service) {
		s.newQueueConfig = newConfig
	}
}

// WithLogger sets the logger listeners report consume errors to
func WithLogger(logger *logrus.Entry) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}
