package minikernel

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/viant/minikernel/hal"
	"github.com/viant/minikernel/hal/sim"
	"github.com/viant/minikernel/internal/idgen"
	"github.com/viant/minikernel/kernel"
	"github.com/viant/minikernel/program"
	"github.com/viant/minikernel/service/dao/accounting"
	fsaccounting "github.com/viant/minikernel/service/dao/accounting/fs"
	amemory "github.com/viant/minikernel/service/dao/accounting/memory"
	"github.com/viant/minikernel/service/event"
	"github.com/viant/minikernel/service/messaging/memory"
	"github.com/viant/minikernel/stats"
	"github.com/viant/minikernel/tracing"
	"github.com/viant/minikernel/user"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Service represents a bootable machine with its kernel
type Service struct {
	config     *Config
	logger     *logrus.Logger
	logFile    io.Closer
	programs   *program.Registry
	console    io.Writer
	accounting accounting.Service
	events     *event.Service
	ownEvents  bool
	onEvent    event.Handler[kernel.Record]
	tracing    *TracingConfig
	exporter   sdktrace.SpanExporter
	stats      *stats.Stats
	bootID     string

	machine *sim.Machine
	kernel  *kernel.Kernel
}

func (s *Service) init(ctx context.Context, options []Option) error {
	for _, option := range options {
		option(s)
	}
	if err := s.config.Validate(); err != nil {
		return err
	}
	if s.logger == nil {
		logger, closer, err := s.config.Log.NewLogger()
		if err != nil {
			return err
		}
		s.logger, s.logFile = logger, closer
	}
	entry := s.logger.WithField("boot", s.bootID)
	if err := s.ensureBaseSetup(ctx, entry); err != nil {
		return err
	}
	s.machine = sim.New(
		sim.WithConfig(s.config.Machine),
		sim.WithConsole(s.console),
		sim.WithPrograms(s.programs),
	)
	kernelOptions := []kernel.Option{
		kernel.WithLimits(s.config.Limits),
		kernel.WithLogger(entry),
		kernel.WithAccounting(s.accounting),
		kernel.WithStats(s.stats),
		kernel.WithBootID(s.bootID),
	}
	if s.events != nil {
		kernelOptions = append(kernelOptions, kernel.WithPublisher(event.PublisherOf[kernel.Record](s.events)))
	}
	var err error
	s.kernel, err = kernel.New(s.machine, kernelOptions...)
	return err
}

func (s *Service) ensureBaseSetup(ctx context.Context, logger *logrus.Entry) error {
	if s.console == nil {
		s.console = os.Stdout
	}
	if s.accounting == nil {
		if URL := s.config.Accounting.URL; URL != "" {
			store, err := fsaccounting.New(ctx, URL, logger)
			if err != nil {
				return err
			}
			s.accounting = store
		} else {
			s.accounting = amemory.New()
		}
	}
	if s.events == nil && s.config.Events.Enabled {
		queueConfig := s.config.Events.Queue
		s.events = event.New(
			event.WithNewQueueConfig(func(string) memory.Config { return queueConfig }),
			event.WithLogger(logger.WithField("component", "event")),
		)
		s.ownEvents = true
		handler := s.onEvent
		event.SetListenerOf[kernel.Record](s.events, func(e *event.Event[kernel.Record]) error {
			logger.WithFields(logrus.Fields{"event": e.Type, "tick": e.Tick, "pid": e.Data.PID}).Debug(e.Data.Detail)
			if handler == nil {
				return nil
			}
			return handler(e)
		})
	}
	if s.tracing == nil && s.config.Tracing.Enabled {
		s.tracing = &s.config.Tracing
	}
	if s.tracing != nil {
		var err error
		if s.exporter != nil {
			err = tracing.InitWithExporter(s.tracing.ServiceName, s.tracing.ServiceVersion, s.exporter)
		} else {
			err = tracing.Init(s.tracing.ServiceName, s.tracing.ServiceVersion, s.tracing.OutputFile)
		}
		if err != nil {
			return fmt.Errorf("failed to initialise tracing: %w", err)
		}
	}
	return nil
}

// Run boots the machine with Config.Init and returns once it powers off,
// panics, reaches its tick limit or ctx is done. A service runs once.
func (s *Service) Run(ctx context.Context) error {
	logger := s.logger.WithFields(logrus.Fields{"boot": s.bootID, "init": s.config.Init})
	logger.Info("starting machine")
	err := s.machine.Run(ctx, func() { s.kernel.Boot(ctx, s.config.Init) })
	snapshot := s.stats.Snapshot()
	logger.WithFields(logrus.Fields{
		"ticks":     snapshot.Ticks,
		"idle":      snapshot.IdleTicks,
		"switches":  snapshot.ContextSwitches,
		"processes": snapshot.ProcessesCreated,
		"faults":    snapshot.Faults,
	}).Info("machine stopped")
	if s.tracing != nil {
		if shutdownErr := tracing.Shutdown(context.Background()); shutdownErr != nil {
			logger.WithError(shutdownErr).Warn("failed to flush traces")
		}
	}
	if s.ownEvents {
		s.events.Close()
	}
	if s.logFile != nil {
		_ = s.logFile.Close()
	}
	return err
}

// Register adds a program; call before Run
func (s *Service) Register(name string, main func(sys *user.Sys)) {
	s.programs.RegisterMain(name, main)
}

// Programs returns the program registry
func (s *Service) Programs() *program.Registry {
	return s.programs
}

// Post raises an asynchronous interrupt, e.g. hal.SoftwareInterrupt
func (s *Service) Post(v hal.Vector) {
	s.machine.Post(v)
}

// Type types a character on the machine terminal
func (s *Service) Type(c byte) {
	s.machine.Type(c)
}

// Stats returns a snapshot of the kernel counters
func (s *Service) Stats() stats.Stats {
	return s.stats.Snapshot()
}

// OnStats registers a callback fired on every counter change
func (s *Service) OnStats(cb func(stats.Stats)) {
	s.stats.OnChange(cb)
}

// Accounting returns the store ended processes are recorded in
func (s *Service) Accounting() accounting.Service {
	return s.accounting
}

// DeadLetters returns the number of kernel events the event handler kept
// rejecting after every retry
func (s *Service) DeadLetters() int {
	if s.events == nil {
		return 0
	}
	return s.events.DeadLetters()
}

// Kernel returns the kernel
func (s *Service) Kernel() *kernel.Kernel {
	return s.kernel
}

// BootID returns the identifier accounting records of this boot carry
func (s *Service) BootID() string {
	return s.bootID
}

// Config returns the effective configuration
func (s *Service) Config() *Config {
	return s.config
}

// New creates a service; options override DefaultConfig
func New(options ...Option) (*Service, error) {
	ret := &Service{
		config:   DefaultConfig(),
		programs: program.Builtin(),
		stats:    &stats.Stats{},
		bootID:   idgen.New(),
	}
	if err := ret.init(context.Background(), options); err != nil {
		return nil, err
	}
	return ret, nil
}
