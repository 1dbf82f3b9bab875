package minikernel

import (
	"io"

	"github.com/sirupsen/logrus"
	"github.com/viant/minikernel/kernel"
	"github.com/viant/minikernel/program"
	"github.com/viant/minikernel/service/dao/accounting"
	"github.com/viant/minikernel/service/event"
	"github.com/viant/minikernel/user"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Option customises the service
type Option func(s *Service)

// WithConfig sets the configuration
func WithConfig(config *Config) Option {
	return func(s *Service) {
		if config != nil {
			s.config = config
		}
	}
}

// WithLogger sets the kernel console logger; Config.Log is then ignored
func WithLogger(logger *logrus.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithProgram registers a program next to the built-in ones
func WithProgram(name string, main func(sys *user.Sys)) Option {
	return func(s *Service) {
		s.programs.RegisterMain(name, main)
	}
}

// WithPrograms replaces the program registry
func WithPrograms(registry *program.Registry) Option {
	return func(s *Service) {
		if registry != nil {
			s.programs = registry
		}
	}
}

// WithConsole sets the machine console device
func WithConsole(w io.Writer) Option {
	return func(s *Service) {
		s.console = w
	}
}

// WithAccountingDAO sets the store ended processes are recorded in
func WithAccountingDAO(dao accounting.Service) Option {
	return func(s *Service) {
		s.accounting = dao
	}
}

// WithEventService enables kernel events on the supplied service
func WithEventService(service *event.Service) Option {
	return func(s *Service) {
		s.events = service
	}
}

// WithEventHandler sets the handler the configured event bus listener calls
// for every kernel event. A handler error redelivers the event up to
// events.queue.maxRetries times before it is dead-lettered.
func WithEventHandler(handler func(e *event.Event[kernel.Record]) error) Option {
	return func(s *Service) {
		s.onEvent = handler
	}
}

// WithTracing enables system-call tracing with the stdout exporter, writing
// to outputFile when set.
func WithTracing(serviceName, serviceVersion, outputFile string) Option {
	return func(s *Service) {
		s.tracing = &TracingConfig{Enabled: true, ServiceName: serviceName, ServiceVersion: serviceVersion, OutputFile: outputFile}
	}
}

// WithTracingExporter enables system-call tracing with a custom exporter
func WithTracingExporter(serviceName, serviceVersion string, exporter sdktrace.SpanExporter) Option {
	return func(s *Service) {
		s.tracing = &TracingConfig{Enabled: true, ServiceName: serviceName, ServiceVersion: serviceVersion}
		s.exporter = exporter
	}
}
