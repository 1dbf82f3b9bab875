package kernel

import (
	"github.com/viant/minikernel/hal"
	"github.com/viant/minikernel/service/dao/accounting"
	"github.com/viant/minikernel/stats"
)

func (k *Kernel) arithmeticFault() {
	if !k.hal.FromUserMode() {
		k.fatal("arithmetic fault in kernel mode")
	}
	k.fault(hal.ArithmeticFault)
}

// memoryFault tolerates kernel mode faults raised while accessing process memory.
func (k *Kernel) memoryFault() {
	if !k.hal.FromUserMode() && !k.userAccess {
		k.fatal("memory fault in kernel mode")
	}
	k.fault(hal.MemoryFault)
}

// fault ends the current process only.
func (k *Kernel) fault(v hal.Vector) {
	p := k.current
	k.processLogger(p).WithField("program", p.Program).Warnf("%v, ending process", v)
	k.stats.Update(stats.Delta{Faults: 1})
	k.publish(EventFault, Record{PID: p.ID, Program: p.Program, Detail: v.String()})
	k.terminate(accounting.ReasonFault, v.String())
}

func (k *Kernel) terminalInterrupt() {
	c := k.hal.ReadTerminal()
	k.logger.WithField("tick", k.ticks).Infof("terminal interrupt %q", c)
}

func (k *Kernel) softwareInterrupt() {
	k.logger.WithField("tick", k.ticks).Info("software interrupt")
}
