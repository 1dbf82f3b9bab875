package minikernel

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/minikernel/abi"
	"github.com/viant/minikernel/hal/sim"
	"github.com/viant/minikernel/kernel"
	"github.com/viant/minikernel/service/dao/accounting"
	"github.com/viant/minikernel/service/event"
	"github.com/viant/minikernel/stats"
	"github.com/viant/minikernel/user"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func testConfig(init string) *Config {
	config := DefaultConfig()
	config.Init = init
	config.Limits.TicksPerSecond = 5
	config.Machine.MaxTicks = 10000
	return config
}

func runService(t *testing.T, srv *Service) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Run(ctx)
}

func TestService_Run(t *testing.T) {
	console := &bytes.Buffer{}
	srv, err := New(
		WithConfig(testConfig("hello")),
		WithLogger(quietLogger()),
		WithConsole(console),
		WithProgram("hello", func(sys *user.Sys) {
			sys.Printf("hello %d\n", sys.GetPID())
			_, err := sys.CreateProcess("world")
			assert.NoError(t, err)
		}),
	)
	require.NoError(t, err)
	srv.Register("world", func(sys *user.Sys) {
		sys.Sleep(1)
		sys.Printf("world %d\n", sys.GetPID())
	})
	var changes int
	srv.OnStats(func(stats.Stats) { changes++ })

	require.NoError(t, runService(t, srv))
	assert.Equal(t, "hello 0\nworld 1\n", console.String())
	snapshot := srv.Stats()
	assert.Equal(t, 2, snapshot.ProcessesCreated)
	assert.Equal(t, 2, snapshot.ProcessesEnded)
	assert.Greater(t, changes, 0)
	assert.Contains(t, srv.Programs().Names(), "simplon")

	records, err := srv.Accounting().List(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)
	for _, record := range records {
		assert.Equal(t, srv.BootID(), record.BootID)
		assert.Equal(t, accounting.ReasonExit, record.Reason)
	}
}

func TestService_Builtin(t *testing.T) {
	console := &bytes.Buffer{}
	srv, err := New(WithConfig(testConfig("init")), WithLogger(quietLogger()), WithConsole(console))
	require.NoError(t, err)
	require.NoError(t, runService(t, srv))
	output := console.String()
	assert.Contains(t, output, "init: pid 0")
	assert.Contains(t, output, "simplon: ends")
	assert.Contains(t, output, "producer: item 2")
	assert.Contains(t, output, "consumer: item 2")
	assert.Contains(t, output, "faulty: dividing by zero")
	assert.NotContains(t, output, "faulty: 0")
	assert.Equal(t, 1, srv.Stats().Faults)
	assert.Empty(t, srv.Kernel().Processes())
}

func TestService_TickLimit(t *testing.T) {
	config := testConfig("spin")
	config.Machine.MaxTicks = 50
	srv, err := New(WithConfig(config), WithLogger(quietLogger()), WithProgram("spin", func(sys *user.Sys) {
		for {
			sys.Spin(10)
		}
	}))
	require.NoError(t, err)
	assert.ErrorIs(t, runService(t, srv), sim.ErrTickLimit)
}

func TestService_Events(t *testing.T) {
	events := event.New()
	defer events.Close()
	srv, err := New(
		WithConfig(testConfig("single")),
		WithLogger(quietLogger()),
		WithConsole(io.Discard),
		WithEventService(events),
		WithProgram("single", func(sys *user.Sys) {
			_, _ = sys.MutexCreate("once", abi.NonRecursive)
		}),
	)
	require.NoError(t, err)
	require.NoError(t, runService(t, srv))

	publisher := event.PublisherOf[kernel.Record](events)
	var types []string
	for {
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		e, err := publisher.Consume(ctx)
		cancel()
		if err != nil {
			break
		}
		types = append(types, e.Type)
	}
	assert.Contains(t, types, kernel.EventProcessCreated)
	assert.Contains(t, types, kernel.EventMutexCreated)
	assert.Contains(t, types, kernel.EventMutexReclaimed)
	assert.Contains(t, types, kernel.EventProcessEnded)
}

func TestService_ConfiguredEventsAndAccounting(t *testing.T) {
	config := testConfig("single")
	config.Events.Enabled = true
	config.Accounting.URL = "mem://localhost/minikernel/service-test/accounting"
	srv, err := New(
		WithConfig(config),
		WithLogger(quietLogger()),
		WithConsole(io.Discard),
		WithProgram("single", func(sys *user.Sys) {}),
	)
	require.NoError(t, err)
	require.NoError(t, runService(t, srv))

	records, err := srv.Accounting().List(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "single", records[0].Program)
}

func TestService_EventHandlerFailuresDeadLetter(t *testing.T) {
	config := testConfig("single")
	config.Events.Enabled = true
	config.Events.Queue.MaxRetries = 0
	var srv *Service
	var err error
	var rejected int
	srv, err = New(
		WithConfig(config),
		WithLogger(quietLogger()),
		WithConsole(io.Discard),
		WithEventHandler(func(e *event.Event[kernel.Record]) error {
			if e.Type == kernel.EventMutexCreated {
				return fmt.Errorf("rejecting %v", e.Data.Mutex)
			}
			return nil
		}),
		WithProgram("single", func(sys *user.Sys) {
			_, _ = sys.MutexCreate("once", abi.NonRecursive)
			deadline := time.Now().Add(5 * time.Second)
			for srv.DeadLetters() == 0 && time.Now().Before(deadline) {
				time.Sleep(time.Millisecond)
			}
			rejected = srv.DeadLetters()
		}),
	)
	require.NoError(t, err)
	require.NoError(t, runService(t, srv))
	assert.Equal(t, 1, rejected)
	assert.Equal(t, 1, srv.DeadLetters())
}

func TestService_Tracing(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	var names []string
	srv, err := New(
		WithConfig(testConfig("traced")),
		WithLogger(quietLogger()),
		WithTracingExporter("minikernel", "test", exporter),
		WithProgram("traced", func(sys *user.Sys) {
			sys.GetPID()
			sys.Times(nil)
			for _, span := range exporter.GetSpans() {
				names = append(names, span.Name)
			}
		}),
	)
	require.NoError(t, err)
	require.NoError(t, runService(t, srv))
	assert.Equal(t, []string{"syscall.get_pid", "syscall.get_times"}, names)
}

func TestNew_InvalidConfig(t *testing.T) {
	config := DefaultConfig()
	config.Limits.MaxMutexes = -1
	_, err := New(WithConfig(config), WithLogger(quietLogger()))
	assert.Error(t, err)
}
