package kernel

import (
	"github.com/sirupsen/logrus"
	"github.com/viant/minikernel/service/dao/accounting"
	"github.com/viant/minikernel/service/event"
	"github.com/viant/minikernel/stats"
)

// Option customises a kernel
type Option func(k *Kernel)

// WithLimits sets the kernel capacities
func WithLimits(limits Limits) Option {
	return func(k *Kernel) {
		k.limits = limits
	}
}

// WithLogger sets the kernel console logger
func WithLogger(logger *logrus.Entry) Option {
	return func(k *Kernel) {
		if logger != nil {
			k.logger = logger
		}
	}
}

// WithPublisher sets the kernel event publisher
func WithPublisher(publisher *event.Publisher[Record]) Option {
	return func(k *Kernel) {
		k.publisher = publisher
	}
}

// WithAccounting sets the store ended processes are recorded in
func WithAccounting(service accounting.Service) Option {
	return func(k *Kernel) {
		k.accounting = service
	}
}

// WithStats sets the counters the kernel updates
func WithStats(s *stats.Stats) Option {
	return func(k *Kernel) {
		if s != nil {
			k.stats = s
		}
	}
}

// WithBootID tags accounting records with the boot identifier
func WithBootID(id string) Option {
	return func(k *Kernel) {
		k.bootID = id
	}
}
