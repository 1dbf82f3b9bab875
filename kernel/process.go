package kernel

import (
	"github.com/viant/minikernel/abi"
	"github.com/viant/minikernel/hal"
	"github.com/viant/minikernel/kernel/proc"
	"github.com/viant/minikernel/service/dao/accounting"
	"github.com/viant/minikernel/stats"
)

// createProcess loads program into a free slot and queues it as ready.
func (k *Kernel) createProcess(program string) (int, error) {
	level := k.hal.SetLevel(hal.Level3)
	defer k.hal.SetLevel(level)
	p, err := k.procs.Allocate()
	if err != nil {
		k.logger.WithField("program", program).Warn("process table full")
		return 0, err
	}
	image, entry, err := k.hal.CreateImage(program)
	if err != nil {
		k.logger.WithField("program", program).WithError(err).Warn("failed to create image")
		return 0, abi.ErrNoImage
	}
	p.Program = program
	p.Image = image
	p.Stack = k.hal.CreateStack(k.limits.StackSize)
	p.Context = k.hal.NewContext(image, p.Stack, entry)
	p.CreatedTick = k.ticks
	k.wake(p)
	k.stats.Update(stats.Delta{ProcessesCreated: 1})
	k.processLogger(p).WithField("program", program).Info("process created")
	k.publish(EventProcessCreated, Record{PID: p.ID, Program: program})
	return p.ID, nil
}

// terminate ends the current process: its mutexes are closed, image and
// stack released, and the CPU handed to the next ready process for good.
func (k *Kernel) terminate(reason, detail string) {
	k.hal.SetLevel(hal.Level3)
	k.userAccess = false
	p := k.current
	for descriptor := range p.Descriptors {
		if _, ok := p.Mutex(descriptor); ok {
			_ = k.closeMutex(p, descriptor)
		}
	}
	k.hal.ReleaseImage(p.Image)
	k.hal.ReleaseStack(p.Stack)
	p.Image, p.Stack = nil, nil
	k.setState(p, proc.Terminated)
	k.account(p, reason, detail)
	k.stats.Update(stats.Delta{ProcessesEnded: 1})
	k.processLogger(p).WithField("reason", reason).Info("process ended")
	k.publish(EventProcessEnded, Record{PID: p.ID, Program: p.Program, Detail: reason})
	k.reschedule()
}

func (k *Kernel) sysCreateProcess() (int, error) {
	program, ok := k.hal.ReadRegister(abi.RegArg1).(string)
	if !ok {
		return 0, abi.ErrInvalidArgument
	}
	return k.createProcess(program)
}

func (k *Kernel) sysEndProcess() (int, error) {
	k.terminate(accounting.ReasonExit, "")
	return 0, nil
}

// sysWrite copies the process buffer to the console. A length beyond the
// buffer is a fault on process memory and ends the caller.
func (k *Kernel) sysWrite() (int, error) {
	length, ok := k.intArg(abi.RegArg2)
	if !ok {
		return 0, abi.ErrInvalidArgument
	}
	k.userAccess = true
	var data []byte
	switch buffer := k.hal.ReadRegister(abi.RegArg1).(type) {
	case []byte:
		if length >= 0 && length <= len(buffer) {
			data = append(data, buffer[:length]...)
		}
	case string:
		if length >= 0 && length <= len(buffer) {
			data = append(data, buffer[:length]...)
		}
	}
	if len(data) != length {
		k.hal.Raise(hal.MemoryFault)
	}
	k.userAccess = false
	if _, err := k.hal.Console().Write(data); err != nil {
		k.processLogger(k.current).WithError(err).Warn("console write failed")
	}
	return 0, nil
}

func (k *Kernel) sysGetPID() (int, error) {
	return k.current.ID, nil
}

func (k *Kernel) sysSleep() (int, error) {
	seconds, ok := k.intArg(abi.RegArg1)
	if !ok {
		return 0, abi.ErrInvalidArgument
	}
	k.sleep(seconds)
	return 0, nil
}

// sysGetTimes returns the tick count and, given a non-nil *abi.Times, fills
// in the caller's accounting.
func (k *Kernel) sysGetTimes() (int, error) {
	level := k.hal.SetLevel(hal.Level3)
	defer k.hal.SetLevel(level)
	if out := k.hal.ReadRegister(abi.RegArg1); out != nil {
		k.userAccess = true
		times, ok := out.(*abi.Times)
		if !ok {
			k.hal.Raise(hal.MemoryFault)
		}
		if times != nil {
			times.User = k.current.UserTicks
			times.System = k.current.SystemTicks
		}
		k.userAccess = false
	}
	return k.ticks, nil
}
