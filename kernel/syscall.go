package kernel

import (
	"github.com/viant/minikernel/abi"
	"github.com/viant/minikernel/stats"
	"github.com/viant/minikernel/tracing"
)

type service func(k *Kernel) (int, error)

var services = [abi.NumCalls]service{
	abi.CreateProcess: (*Kernel).sysCreateProcess,
	abi.EndProcess:    (*Kernel).sysEndProcess,
	abi.Write:         (*Kernel).sysWrite,
	abi.GetPID:        (*Kernel).sysGetPID,
	abi.Sleep:         (*Kernel).sysSleep,
	abi.GetTimes:      (*Kernel).sysGetTimes,
	abi.MutexCreate:   (*Kernel).sysMutexCreate,
	abi.MutexOpen:     (*Kernel).sysMutexOpen,
	abi.MutexClose:    (*Kernel).sysMutexClose,
	abi.MutexLock:     (*Kernel).sysMutexLock,
	abi.MutexUnlock:   (*Kernel).sysMutexUnlock,
}

// systemCall reads the call number from RegCall, runs the service and
// writes its result to RegResult. Unknown calls fail with ErrGeneric.
func (k *Kernel) systemCall() {
	number, ok := k.intArg(abi.RegCall)
	call := abi.Call(number)
	if !ok || call < 0 || call >= abi.NumCalls {
		k.processLogger(k.current).Warnf("unknown system call %v", k.hal.ReadRegister(abi.RegCall))
		k.hal.WriteRegister(abi.RegResult, int(abi.ErrGeneric))
		return
	}
	k.stats.Update(stats.Delta{SystemCalls: 1})
	if call == abi.EndProcess {
		k.processLogger(k.current).Info("end process")
		services[call](k)
		return
	}
	pid := k.current.ID
	_, span := tracing.StartSpan(k.ctx, "syscall."+call.String(), "SERVER")
	span.WithInt("pid", pid)
	result, err := services[call](k)
	if err != nil {
		result = abi.Code(err)
		k.logger.WithField("pid", pid).WithError(err).Debugf("%v failed", call)
	}
	span.WithInt("result", result)
	tracing.EndSpan(span, err)
	k.hal.WriteRegister(abi.RegResult, result)
}

func (k *Kernel) sysMutexCreate() (int, error) {
	name, ok := k.hal.ReadRegister(abi.RegArg1).(string)
	if !ok {
		return 0, abi.ErrInvalidArgument
	}
	kind, ok := k.intArg(abi.RegArg2)
	if !ok {
		return 0, abi.ErrInvalidArgument
	}
	return k.mutexCreate(name, abi.MutexKind(kind))
}

func (k *Kernel) sysMutexOpen() (int, error) {
	name, ok := k.hal.ReadRegister(abi.RegArg1).(string)
	if !ok {
		return 0, abi.ErrInvalidArgument
	}
	return k.mutexOpen(name)
}

func (k *Kernel) sysMutexClose() (int, error) {
	descriptor, ok := k.intArg(abi.RegArg1)
	if !ok {
		return 0, abi.ErrNotFound
	}
	return 0, k.mutexClose(descriptor)
}

func (k *Kernel) sysMutexLock() (int, error) {
	descriptor, ok := k.intArg(abi.RegArg1)
	if !ok {
		return 0, abi.ErrNotFound
	}
	return 0, k.mutexLock(descriptor)
}

func (k *Kernel) sysMutexUnlock() (int, error) {
	descriptor, ok := k.intArg(abi.RegArg1)
	if !ok {
		return 0, abi.ErrNotFound
	}
	return 0, k.mutexUnlock(descriptor)
}

// intArg reads an integer register; named integer types are accepted.
func (k *Kernel) intArg(n int) (int, bool) {
	switch v := k.hal.ReadRegister(n).(type) {
	case int:
		return v, true
	case abi.Call:
		return int(v), true
	case abi.MutexKind:
		return int(v), true
	}
	return 0, false
}
