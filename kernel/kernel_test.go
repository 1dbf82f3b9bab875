package kernel

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/minikernel/abi"
	"github.com/viant/minikernel/hal"
	"github.com/viant/minikernel/hal/sim"
	"github.com/viant/minikernel/program"
	"github.com/viant/minikernel/service/dao/accounting"
	"github.com/viant/minikernel/service/dao/accounting/memory"
	"github.com/viant/minikernel/user"
)

type harness struct {
	machine *sim.Machine
	kernel  *Kernel
	console *bytes.Buffer
	records *memory.Service
	trace   []string
}

func testLimits() Limits {
	limits := DefaultLimits()
	limits.TicksPerSecond = 2
	return limits
}

func newHarness(t *testing.T, limits Limits, programs map[string]hal.Program, options ...Option) *harness {
	return newMachineHarness(t, sim.Config{MaxTicks: 100000, ConsoleTicks: 1}, limits, programs, options...)
}

func newMachineHarness(t *testing.T, config sim.Config, limits Limits, programs map[string]hal.Program, options ...Option) *harness {
	registry := program.New()
	for name, prog := range programs {
		registry.Register(name, prog)
	}
	h := &harness{console: &bytes.Buffer{}, records: memory.New()}
	h.machine = sim.New(
		sim.WithConfig(config),
		sim.WithConsole(h.console),
		sim.WithPrograms(registry),
	)
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	options = append([]Option{WithLimits(limits), WithLogger(logrus.NewEntry(logger)), WithAccounting(h.records)}, options...)
	var err error
	h.kernel, err = New(h.machine, options...)
	require.NoError(t, err)
	return h
}

func (h *harness) run(init string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return h.machine.Run(ctx, func() { h.kernel.Boot(ctx, init) })
}

func (h *harness) log(format string, args ...interface{}) {
	h.trace = append(h.trace, fmt.Sprintf(format, args...))
}

func (h *harness) mutex(name string) (MutexInfo, bool) {
	for _, info := range h.kernel.Mutexes() {
		if info.Name == name {
			return info, true
		}
	}
	return MutexInfo{}, false
}

func (h *harness) ended(t *testing.T) []*accounting.Record {
	records, err := h.records.List(context.Background())
	require.NoError(t, err)
	return records
}

func starter(names ...string) hal.Program {
	return user.Wrap(func(sys *user.Sys) {
		for _, name := range names {
			_, _ = sys.CreateProcess(name)
		}
	})
}

func TestNew(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)
	_, err = New(sim.New(), WithLimits(Limits{MaxProcesses: 1}))
	assert.Error(t, err)
	k, err := New(sim.New())
	require.NoError(t, err)
	assert.Equal(t, DefaultLimits(), k.Limits())
	assert.Equal(t, -1, k.Current())
}

func TestKernel_CreateAndEnd(t *testing.T) {
	var h *harness
	h = newHarness(t, testLimits(), map[string]hal.Program{
		"init": user.Wrap(func(sys *user.Sys) {
			h.log("init %d", sys.GetPID())
			for i := 0; i < 2; i++ {
				_, err := sys.CreateProcess("child")
				assert.NoError(t, err)
			}
		}),
		"child": user.Wrap(func(sys *user.Sys) {
			h.log("child %d", sys.GetPID())
			sys.Printf("child %d\n", sys.GetPID())
		}),
	})
	require.NoError(t, h.run("init"))

	assert.Equal(t, []string{"init 0", "child 1", "child 2"}, h.trace)
	assert.Equal(t, "child 1\nchild 2\n", h.console.String())
	assert.Empty(t, h.kernel.Processes())
	assert.Equal(t, 0, h.machine.LiveImages())
	assert.Equal(t, 0, h.machine.LiveStacks())

	snapshot := h.kernel.Stats()
	assert.Equal(t, 3, snapshot.ProcessesCreated)
	assert.Equal(t, 3, snapshot.ProcessesEnded)
	assert.Equal(t, 2, snapshot.ContextSwitches)

	records := h.ended(t)
	require.Len(t, records, 3)
	assert.Equal(t, "init", records[0].Program)
	assert.Equal(t, 0, records[0].SystemTicks)
	for _, record := range records[1:] {
		assert.Equal(t, "child", record.Program)
		assert.Equal(t, accounting.ReasonExit, record.Reason)
		assert.Equal(t, 1, record.SystemTicks)
	}
}

func TestKernel_ProcessTableFull(t *testing.T) {
	limits := testLimits()
	limits.MaxProcesses = 2
	var pids []int
	var errs []error
	var h *harness
	h = newHarness(t, limits, map[string]hal.Program{
		"init": user.Wrap(func(sys *user.Sys) {
			for _, name := range []string{"child", "child"} {
				pid, err := sys.CreateProcess(name)
				pids, errs = append(pids, pid), append(errs, err)
			}
			sys.Sleep(1)
			for _, name := range []string{"missing", "child"} {
				pid, err := sys.CreateProcess(name)
				pids, errs = append(pids, pid), append(errs, err)
			}
			assert.LessOrEqual(t, len(h.kernel.Processes()), limits.MaxProcesses)
		}),
		"child": user.Wrap(func(sys *user.Sys) {}),
	})
	require.NoError(t, h.run("init"))
	assert.Equal(t, []int{1, -1, -1, 1}, pids)
	assert.Equal(t, []error{nil, abi.ErrProcessTableFull, abi.ErrNoImage, nil}, errs)
	assert.Len(t, h.ended(t), 3)
}

func TestKernel_Sleep(t *testing.T) {
	limits := testLimits()
	limits.TicksPerSecond = 5
	type observed struct {
		before, after int
		times         abi.Times
	}
	var sleeper, spinner, napper observed
	h := newHarness(t, limits, map[string]hal.Program{
		"init": starter("sleeper", "spinner"),
		"sleeper": user.Wrap(func(sys *user.Sys) {
			sleeper.before = sys.Times(nil)
			sys.Sleep(2)
			sleeper.after = sys.Times(&sleeper.times)
		}),
		"spinner": user.Wrap(func(sys *user.Sys) {
			spinner.before = sys.Times(nil)
			sys.Spin(30)
			spinner.after = sys.Times(&spinner.times)
		}),
	})
	require.NoError(t, h.run("init"))

	assert.Equal(t, 0, sleeper.before)
	assert.GreaterOrEqual(t, sleeper.after-sleeper.before, 2*limits.TicksPerSecond)
	assert.Equal(t, 30, sleeper.after)
	assert.Equal(t, abi.Times{}, sleeper.times)
	assert.Equal(t, abi.Times{User: 30}, spinner.times)

	var skipped int
	h = newHarness(t, limits, map[string]hal.Program{
		"init": starter("napper"),
		"napper": user.Wrap(func(sys *user.Sys) {
			napper.before = sys.Times(nil)
			sys.Sleep(0)
			sys.Sleep(-1)
			skipped = sys.Times(nil)
			sys.Sleep(2)
			napper.after = sys.Times(&napper.times)
		}),
	})
	require.NoError(t, h.run("init"))
	assert.Equal(t, napper.before, skipped)
	assert.Equal(t, 10, napper.after-napper.before)
	assert.Equal(t, abi.Times{}, napper.times)
	assert.Equal(t, 10, h.kernel.Stats().IdleTicks)
}

func TestKernel_SleepLongerThanTheTickCounter(t *testing.T) {
	limits := testLimits()
	limits.TicksPerSecond = 4
	var sleeping ProcessInfo
	var h *harness
	h = newMachineHarness(t, sim.Config{MaxTicks: 20, ConsoleTicks: 1}, limits, map[string]hal.Program{
		"init": starter("sleeper", "checker"),
		"sleeper": user.Wrap(func(sys *user.Sys) {
			sys.Sleep(math.MaxInt/2 + 2)
			h.log("sleeper woke")
		}),
		"checker": user.Wrap(func(sys *user.Sys) {
			sys.Spin(10)
			for _, info := range h.kernel.Processes() {
				if info.Program == "sleeper" {
					sleeping = info
				}
			}
		}),
	})
	assert.ErrorIs(t, h.run("init"), sim.ErrTickLimit)
	assert.Empty(t, h.trace)
	assert.Equal(t, "sleeping", sleeping.Queue)
}

func TestKernel_Times(t *testing.T) {
	var afterWrite, afterSpin abi.Times
	ticks := -1
	h := newHarness(t, testLimits(), map[string]hal.Program{
		"init": user.Wrap(func(sys *user.Sys) {
			sys.Printf("abc")
			sys.Times(&afterWrite)
			sys.Spin(2)
			sys.Times(&afterSpin)
			ticks = sys.Call(abi.GetTimes, (*abi.Times)(nil))
		}),
	})
	require.NoError(t, h.run("init"))
	assert.Equal(t, abi.Times{System: 1}, afterWrite)
	assert.Equal(t, abi.Times{User: 2, System: 1}, afterSpin)
	assert.Equal(t, 3, ticks)
	assert.Equal(t, "abc", h.console.String())
	assert.Equal(t, 3, h.kernel.Ticks())
	records := h.ended(t)
	require.Len(t, records, 1)
	assert.Equal(t, accounting.ReasonExit, records[0].Reason)
}
