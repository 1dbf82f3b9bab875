package kernel

import (
	"github.com/sirupsen/logrus"
	"github.com/viant/minikernel/hal"
	"github.com/viant/minikernel/kernel/proc"
	"github.com/viant/minikernel/stats"
)

// pickNext removes and returns the head of the ready queue, idling until a
// process becomes ready. With no live process left the machine powers off.
// Callers run at hal.Level3.
func (k *Kernel) pickNext() *proc.PCB {
	for k.ready.Empty() {
		if k.procs.Live() == 0 {
			k.logger.WithField("tick", k.ticks).Info("no process left, powering off")
			k.hal.PowerOff()
		}
		k.waitInterrupt()
	}
	return k.ready.PopFront()
}

func (k *Kernel) waitInterrupt() {
	k.logger.WithField("tick", k.ticks).Debug("no ready process, waiting for interrupt")
	k.idle = true
	level := k.hal.SetLevel(hal.Level1)
	k.hal.Halt()
	k.hal.SetLevel(level)
	k.idle = false
}

// reschedule hands the CPU from the current process, already queued or
// terminated, to the next ready one. A terminated process is not saved and
// never resumes.
func (k *Kernel) reschedule() {
	prev := k.current
	next := k.pickNext()
	k.setState(next, proc.Running)
	k.current = next
	if prev == next {
		return
	}
	k.stats.Update(stats.Delta{ContextSwitches: 1})
	k.logger.WithFields(logrus.Fields{"from": prev.ID, "to": next.ID, "tick": k.ticks}).Info("context switch")
	k.publish(EventContextSwitch, Record{PID: next.ID, Program: next.Program, Detail: prev.Program})
	if prev.State == proc.Terminated {
		k.hal.SwitchContext(nil, next.Context)
		return
	}
	k.hal.SwitchContext(prev.Context, next.Context)
}

// block parks the current process on q and switches away until woken.
func (k *Kernel) block(q *proc.Queue) {
	p := k.current
	k.setState(p, proc.Blocked)
	q.PushBack(p)
	k.processLogger(p).Infof("blocked on %v", q.Name)
	k.reschedule()
}

// wake makes p ready.
func (k *Kernel) wake(p *proc.PCB) {
	k.setState(p, proc.Ready)
	k.ready.PushBack(p)
}

func (k *Kernel) setState(p *proc.PCB, state proc.State) {
	if p.State == state {
		return
	}
	k.processLogger(p).Debugf("state %v -> %v", p.State, state)
	p.State = state
	k.publish(EventProcessState, Record{PID: p.ID, Program: p.Program, State: state.String()})
}
