package sim

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/viant/minikernel/hal"
)

// Clock modes
const (
	ClockSimulated = "simulated"
	ClockRealtime  = "realtime"
)

// ErrTickLimit is returned by Run when the machine reached Config.MaxTicks.
var ErrTickLimit = errors.New("sim: tick limit reached")

// PanicError is returned by Run after a kernel panic.
type PanicError struct {
	Reason string
}

func (e *PanicError) Error() string {
	return "kernel panic: " + e.Reason
}

// Config represents machine configuration
type Config struct {
	// Clock is either simulated (a halted CPU advances time itself) or realtime.
	Clock string `json:"clock" yaml:"clock"`
	// TickInterval is the clock period in realtime mode.
	TickInterval time.Duration `json:"tickInterval" yaml:"tickInterval"`
	// MaxTicks stops the machine after that many clock ticks, 0 means no limit.
	MaxTicks int `json:"maxTicks" yaml:"maxTicks"`
	// ConsoleTicks is the number of clock ticks a console write takes.
	ConsoleTicks int `json:"consoleTicks" yaml:"consoleTicks"`
}

// DefaultConfig returns the default machine configuration
func DefaultConfig() Config {
	return Config{
		Clock:        ClockSimulated,
		TickInterval: 10 * time.Millisecond,
		ConsoleTicks: 1,
	}
}

// Programs resolves program names to entry points.
type Programs interface {
	Lookup(name string) (hal.Program, bool)
}

// ProgramMap is the simplest Programs implementation.
type ProgramMap map[string]hal.Program

// Lookup returns a program by name
func (p ProgramMap) Lookup(name string) (hal.Program, bool) {
	prog, ok := p[name]
	return prog, ok
}

type frame struct {
	user  bool
	level hal.Level
}

// Machine is a single-CPU machine. Every execution context runs on its own
// goroutine; exactly one of them holds the CPU and the others are parked on
// their resume channel, so CPU state needs no locking. Only the pending
// interrupt set and the keyboard buffer are shared with outside goroutines.
type Machine struct {
	config   Config
	programs Programs
	console  io.Writer
	handlers [hal.NumVectors]hal.Handler

	// state of the context holding the CPU
	regs   [hal.NumRegisters]interface{}
	level  hal.Level
	user   bool
	frames []frame

	ticks      int
	contexts   int
	liveImages int
	liveStacks int
	running    bool
	mu         sync.Mutex
	pending    [hal.NumVectors]bool
	keys       []byte
	wake       chan struct{}
	quit       chan struct{}
	done       chan struct{}
	stopOnce   sync.Once
	err        error
}

var _ hal.HAL = (*Machine)(nil)
var _ hal.CPU = (*Machine)(nil)

// New creates a machine
func New(options ...Option) *Machine {
	m := &Machine{
		config:   DefaultConfig(),
		programs: ProgramMap{},
		console:  os.Stdout,
		wake:     make(chan struct{}, 1),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range options {
		opt(m)
	}
	if m.config.Clock == "" {
		m.config.Clock = ClockSimulated
	}
	if m.config.TickInterval <= 0 {
		m.config.TickInterval = DefaultConfig().TickInterval
	}
	return m
}

// Run boots the machine: boot runs in kernel mode with every interrupt
// excluded and is expected to switch to the first context. Run returns once
// the machine powers off (nil), panics (*PanicError), reaches its tick
// limit (ErrTickLimit) or ctx is done.
func (m *Machine) Run(ctx context.Context, boot func()) error {
	if m.running {
		return fmt.Errorf("machine already started")
	}
	m.running = true
	if m.config.Clock == ClockRealtime {
		go m.clock()
	}
	go func() {
		m.user = false
		m.level = hal.Level3
		boot()
		m.Panic("boot code returned")
	}()
	select {
	case <-m.done:
	case <-ctx.Done():
		m.stop(ctx.Err())
	}
	return m.err
}

// Ticks returns the number of clock interrupts serviced so far.
func (m *Machine) Ticks() int {
	return m.ticks
}

// LiveImages returns the number of images not yet released.
func (m *Machine) LiveImages() int {
	return m.liveImages
}

// LiveStacks returns the number of stacks not yet released.
func (m *Machine) LiveStacks() int {
	return m.liveStacks
}

// Post marks an asynchronous interrupt pending. It is safe to call from any goroutine.
func (m *Machine) Post(v hal.Vector) {
	if !v.Asynchronous() {
		return
	}
	m.mu.Lock()
	m.pending[v] = true
	m.mu.Unlock()
	select {
	case m.wake <- struct{}{}:
	default:
	}
}

// Type queues a keyboard character and posts a terminal interrupt.
func (m *Machine) Type(c byte) {
	m.mu.Lock()
	m.keys = append(m.keys, c)
	m.mu.Unlock()
	m.Post(hal.TerminalInterrupt)
}

// ReadTerminal reads the terminal data port. The interrupt stays asserted
// while unread characters remain.
func (m *Machine) ReadTerminal() byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.keys) == 0 {
		return 0
	}
	c := m.keys[0]
	m.keys = m.keys[1:]
	if len(m.keys) > 0 {
		m.pending[hal.TerminalInterrupt] = true
	}
	return c
}

// ReadRegister returns register n
func (m *Machine) ReadRegister(n int) interface{} {
	if n < 0 || n >= hal.NumRegisters {
		return nil
	}
	return m.regs[n]
}

// WriteRegister sets register n
func (m *Machine) WriteRegister(n int, value interface{}) {
	if n < 0 || n >= hal.NumRegisters {
		return
	}
	m.regs[n] = value
}

// Install sets the handler of vector v
func (m *Machine) Install(v hal.Vector, handler hal.Handler) {
	if v < 0 || v >= hal.NumVectors {
		return
	}
	m.handlers[v] = handler
}

// SetLevel sets the exclusion level, delivering anything it unmasks.
func (m *Machine) SetLevel(level hal.Level) hal.Level {
	prev := m.level
	m.level = level
	if level < prev {
		m.deliver()
	}
	return prev
}

// FromUserMode reports the mode the running handler interrupted.
func (m *Machine) FromUserMode() bool {
	if len(m.frames) == 0 {
		return false
	}
	return m.frames[len(m.frames)-1].user
}

// Halt waits for an interrupt and services it. In simulated mode an idle
// CPU advances time by one clock tick.
func (m *Machine) Halt() {
	m.checkQuit()
	if m.deliverable() {
		m.deliver()
		return
	}
	if m.config.Clock == ClockRealtime {
		select {
		case <-m.wake:
		case <-m.quit:
			runtime.Goexit()
		}
		m.deliver()
		return
	}
	if hal.ClockInterrupt.Priority() <= m.level {
		m.Panic("halted with the clock interrupt excluded")
	}
	m.Post(hal.ClockInterrupt)
	m.deliver()
}

// Raise delivers a synchronous exception from the current mode.
func (m *Machine) Raise(v hal.Vector) {
	m.dispatch(v, m.level)
}

// Trap enters the kernel from user mode.
func (m *Machine) Trap(v hal.Vector) {
	m.checkQuit()
	m.dispatch(v, m.level)
	if m.user {
		m.deliver()
	}
}

// Spin burns ticks clock periods in the current mode.
func (m *Machine) Spin(ticks int) {
	for i := 0; i < ticks; i++ {
		m.Post(hal.ClockInterrupt)
		m.deliver()
	}
}

// Panic stops the machine with a diagnostic.
func (m *Machine) Panic(reason string) {
	m.halt(&PanicError{Reason: reason})
}

// PowerOff stops the machine.
func (m *Machine) PowerOff() {
	m.halt(nil)
}

// Console returns the console device; each write takes ConsoleTicks clock periods.
func (m *Machine) Console() io.Writer {
	return consoleWriter{m: m}
}

type consoleWriter struct {
	m *Machine
}

func (w consoleWriter) Write(p []byte) (int, error) {
	n, err := w.m.console.Write(p)
	w.m.Spin(w.m.config.ConsoleTicks)
	return n, err
}

func (m *Machine) dispatch(v hal.Vector, level hal.Level) {
	if v < 0 || v >= hal.NumVectors || m.handlers[v] == nil {
		m.Panic(fmt.Sprintf("no handler installed for %v", v))
	}
	m.frames = append(m.frames, frame{user: m.user, level: m.level})
	m.user = false
	if level > m.level {
		m.level = level
	}
	m.handlers[v]()
	last := m.frames[len(m.frames)-1]
	m.frames = m.frames[:len(m.frames)-1]
	m.user, m.level = last.user, last.level
}

// deliver services every pending interrupt the current level admits,
// highest priority first.
func (m *Machine) deliver() {
	for {
		m.checkQuit()
		v, ok := m.take()
		if !ok {
			return
		}
		if v == hal.ClockInterrupt {
			m.ticks++
			if m.config.MaxTicks > 0 && m.ticks > m.config.MaxTicks {
				m.halt(ErrTickLimit)
			}
		}
		m.dispatch(v, v.Priority())
	}
}

var byPriority = []hal.Vector{hal.ClockInterrupt, hal.TerminalInterrupt, hal.SoftwareInterrupt}

func (m *Machine) take() (hal.Vector, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range byPriority {
		if m.pending[v] && v.Priority() > m.level {
			m.pending[v] = false
			return v, true
		}
	}
	return 0, false
}

func (m *Machine) deliverable() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range byPriority {
		if m.pending[v] && v.Priority() > m.level {
			return true
		}
	}
	return false
}

func (m *Machine) clock() {
	ticker := time.NewTicker(m.config.TickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-m.quit:
			return
		case <-ticker.C:
			m.Post(hal.ClockInterrupt)
		}
	}
}

func (m *Machine) checkQuit() {
	select {
	case <-m.quit:
		runtime.Goexit()
	default:
	}
}

func (m *Machine) stop(err error) {
	m.stopOnce.Do(func() {
		m.err = err
		close(m.quit)
		close(m.done)
	})
}

// halt stops the machine and abandons the calling goroutine.
func (m *Machine) halt(err error) {
	m.stop(err)
	runtime.Goexit()
}
