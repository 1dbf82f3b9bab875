package minikernel

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/viant/afs"
	"github.com/viant/minikernel/hal/sim"
	"github.com/viant/minikernel/kernel"
	"github.com/viant/minikernel/service/messaging/memory"
	"github.com/viant/minikernel/service/meta"
)

// Config is a serialisable representation of the machine and kernel
// configuration. The zero value of a nested section keeps the defaults of
// DefaultConfig when decoded over it.
type Config struct {
	// Init is the program the first process runs.
	Init       string           `json:"init" yaml:"init"`
	Limits     kernel.Limits    `json:"limits" yaml:"limits"`
	Machine    sim.Config       `json:"machine" yaml:"machine"`
	Log        LogConfig        `json:"log" yaml:"log"`
	Tracing    TracingConfig    `json:"tracing" yaml:"tracing"`
	Events     EventsConfig     `json:"events" yaml:"events"`
	Accounting AccountingConfig `json:"accounting" yaml:"accounting"`
}

// LogConfig controls the kernel console log
type LogConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"`
	// Output is a file the log is written to in addition to stdout.
	Output string `json:"output,omitempty" yaml:"output,omitempty"`
}

// TracingConfig controls system-call tracing
type TracingConfig struct {
	Enabled        bool   `json:"enabled" yaml:"enabled"`
	ServiceName    string `json:"serviceName" yaml:"serviceName"`
	ServiceVersion string `json:"serviceVersion" yaml:"serviceVersion"`
	OutputFile     string `json:"outputFile,omitempty" yaml:"outputFile,omitempty"`
}

// EventsConfig controls the kernel event bus
type EventsConfig struct {
	Enabled bool          `json:"enabled" yaml:"enabled"`
	Queue   memory.Config `json:"queue" yaml:"queue"`
}

// AccountingConfig controls where ended processes are recorded
type AccountingConfig struct {
	// URL selects the afs backed store; empty keeps records in memory.
	URL string `json:"url,omitempty" yaml:"url,omitempty"`
}

// DefaultConfig returns the stock configuration
func DefaultConfig() *Config {
	return &Config{
		Init:    "init",
		Limits:  kernel.DefaultLimits(),
		Machine: sim.DefaultConfig(),
		Log:     LogConfig{Level: "info", Format: "text"},
		Tracing: TracingConfig{ServiceName: "minikernel", ServiceVersion: "0.1.0"},
		Events:  EventsConfig{Queue: memory.DefaultConfig()},
	}
}

// LoadConfig decodes the YAML document at URL over DefaultConfig
func LoadConfig(ctx context.Context, URL string) (*Config, error) {
	config := DefaultConfig()
	if err := meta.New(afs.New()).Load(ctx, URL, config); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %v: %w", URL, err)
	}
	return config, nil
}

// Validate returns an error describing the first invalid setting or nil.
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}
	if c.Init == "" {
		return fmt.Errorf("init program was empty")
	}
	if err := c.Limits.Validate(); err != nil {
		return err
	}
	switch c.Machine.Clock {
	case "", sim.ClockSimulated, sim.ClockRealtime:
	default:
		return fmt.Errorf("unsupported machine.clock: %v", c.Machine.Clock)
	}
	if c.Machine.MaxTicks < 0 || c.Machine.ConsoleTicks < 0 {
		return fmt.Errorf("machine.maxTicks and machine.consoleTicks must not be negative")
	}
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("invalid log.level: %w", err)
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("unsupported log.format: %v", c.Log.Format)
	}
	return nil
}

// NewLogger builds the console logger described by c
func (c *LogConfig) NewLogger() (*logrus.Logger, io.Closer, error) {
	logger := logrus.New()
	level, err := logrus.ParseLevel(c.Level)
	if err != nil {
		return nil, nil, err
	}
	logger.SetLevel(level)
	if c.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	if c.Output == "" {
		return logger, nil, nil
	}
	file, err := os.OpenFile(c.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log output %v: %w", c.Output, err)
	}
	logger.SetOutput(io.MultiWriter(os.Stdout, file))
	return logger, file, nil
}
