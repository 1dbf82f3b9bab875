// Package kernel implements the process and synchronization core: the
// process table, the FIFO scheduler, tick driven sleep, named mutexes, the
// system-call dispatcher and the interrupt front end.
//
// The kernel runs on a single CPU described by hal.HAL. Shared tables and
// queues are only mutated with the interrupt level raised to hal.Level3, so
// the clock handler never observes them half updated.
package kernel

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/viant/minikernel/hal"
	"github.com/viant/minikernel/internal/clock"
	"github.com/viant/minikernel/internal/idgen"
	"github.com/viant/minikernel/kernel/mutex"
	"github.com/viant/minikernel/kernel/proc"
	"github.com/viant/minikernel/service/dao/accounting"
	"github.com/viant/minikernel/service/event"
	"github.com/viant/minikernel/service/messaging"
	"github.com/viant/minikernel/stats"
)

// Kernel is the process-wide kernel state container
type Kernel struct {
	hal    hal.HAL
	limits Limits
	ctx    context.Context

	procs    *proc.Table
	ready    *proc.Queue
	sleeping *proc.Queue
	slotWait *proc.Queue
	current  *proc.PCB
	mutexes  *mutex.Table

	ticks int
	// idle is set while the scheduler waits for an interrupt.
	idle bool
	// userAccess is set while the kernel dereferences a process supplied pointer.
	userAccess bool

	bootID     string
	logger     *logrus.Entry
	publisher  *event.Publisher[Record]
	accounting accounting.Service
	stats      *stats.Stats
}

// New creates a kernel on top of h
func New(h hal.HAL, options ...Option) (*Kernel, error) {
	if h == nil {
		return nil, errors.New("kernel: hal was nil")
	}
	k := &Kernel{
		hal:    h,
		limits: DefaultLimits(),
		ctx:    context.Background(),
		logger: logrus.NewEntry(logrus.StandardLogger()),
		stats:  &stats.Stats{},
	}
	for _, opt := range options {
		opt(k)
	}
	if err := k.limits.Validate(); err != nil {
		return nil, err
	}
	k.logger = k.logger.WithField("component", "kernel")
	k.procs = proc.NewTable(k.limits.MaxProcesses, k.limits.MaxMutexesPerProcess)
	k.ready = k.procs.NewQueue("ready")
	k.sleeping = k.procs.NewQueue("sleeping")
	k.slotWait = k.procs.NewQueue("mutex slot")
	k.mutexes = mutex.NewTable(k.limits.MaxMutexes, k.procs)
	return k, nil
}

// Boot installs the interrupt handlers, creates the first process and
// switches to it. It runs in kernel mode with interrupts excluded and does
// not return.
func (k *Kernel) Boot(ctx context.Context, program string) {
	if ctx != nil {
		k.ctx = ctx
	}
	k.hal.Install(hal.ArithmeticFault, k.arithmeticFault)
	k.hal.Install(hal.MemoryFault, k.memoryFault)
	k.hal.Install(hal.ClockInterrupt, k.clockInterrupt)
	k.hal.Install(hal.TerminalInterrupt, k.terminalInterrupt)
	k.hal.Install(hal.SystemCall, k.systemCall)
	k.hal.Install(hal.SoftwareInterrupt, k.softwareInterrupt)
	k.logger.WithFields(logrus.Fields{"init": program, "limits": fmt.Sprintf("%+v", k.limits)}).Info("booting")

	if _, err := k.createProcess(program); err != nil {
		k.fatal(fmt.Sprintf("initial process %q not created: %v", program, err))
	}
	next := k.pickNext()
	k.setState(next, proc.Running)
	k.current = next
	k.hal.SwitchContext(nil, next.Context)
	k.fatal("kernel reactivated unexpectedly")
}

// Ticks returns the number of clock interrupts serviced
func (k *Kernel) Ticks() int {
	return k.ticks
}

// Limits returns the kernel capacities
func (k *Kernel) Limits() Limits {
	return k.limits
}

// Stats returns a snapshot of the kernel counters
func (k *Kernel) Stats() stats.Stats {
	return k.stats.Snapshot()
}

// Current returns the id of the process holding the CPU, -1 before boot
func (k *Kernel) Current() int {
	if k.current == nil {
		return -1
	}
	return k.current.ID
}

// Processes returns the live processes
func (k *Kernel) Processes() []ProcessInfo {
	var result []ProcessInfo
	for _, p := range k.procs.Processes() {
		info := ProcessInfo{
			ID:          p.ID,
			Program:     p.Program,
			State:       p.State.String(),
			UserTicks:   p.UserTicks,
			SystemTicks: p.SystemTicks,
			Mutexes:     p.MutexCount,
		}
		if q := p.Queue(); q != nil {
			info.Queue = q.Name
		}
		result = append(result, info)
	}
	return result
}

// Mutexes returns the in-use mutexes
func (k *Kernel) Mutexes() []MutexInfo {
	var result []MutexInfo
	for i := 0; i < k.mutexes.Capacity(); i++ {
		m := k.mutexes.Get(i)
		if m.State == mutex.Unused {
			continue
		}
		result = append(result, MutexInfo{
			ID:         m.ID,
			Name:       m.Name,
			Kind:       m.Kind.String(),
			State:      m.State.String(),
			Owner:      m.Owner,
			Depth:      m.Depth,
			Associates: m.Associates(),
			Waiters:    m.Blocked.IDs(),
		})
	}
	return result
}

func (k *Kernel) processLogger(p *proc.PCB) *logrus.Entry {
	return k.logger.WithFields(logrus.Fields{"pid": p.ID, "tick": k.ticks})
}

// publish never waits for queue room; a full queue drops the event.
func (k *Kernel) publish(eventType string, record Record) {
	if k.publisher == nil {
		return
	}
	err := k.publisher.Offer(event.NewEvent(eventType, k.ticks, record))
	switch {
	case err == nil:
	case errors.Is(err, messaging.ErrQueueFull):
		k.stats.Update(stats.Delta{EventsDropped: 1})
	default:
		k.logger.WithError(err).Debug("failed to publish event")
	}
}

func (k *Kernel) account(p *proc.PCB, reason, detail string) {
	if k.accounting == nil {
		return
	}
	record := &accounting.Record{
		ID:          idgen.New(),
		BootID:      k.bootID,
		PID:         p.ID,
		Program:     p.Program,
		UserTicks:   p.UserTicks,
		SystemTicks: p.SystemTicks,
		CreatedTick: p.CreatedTick,
		EndedTick:   k.ticks,
		Reason:      reason,
		Detail:      detail,
		EndedAt:     clock.Now(),
	}
	if err := k.accounting.Save(k.ctx, record); err != nil {
		k.processLogger(p).WithError(err).Warn("failed to save accounting record")
	}
}

// fatal halts the machine after the diagnostic.
func (k *Kernel) fatal(reason string) {
	k.logger.WithField("tick", k.ticks).Error("kernel panic: " + reason)
	k.publish(EventPanic, Record{PID: k.Current(), Detail: reason})
	k.hal.Panic(reason)
}
