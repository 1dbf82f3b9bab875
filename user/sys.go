// Package user is the process side of the system-call interface: typed stubs
// that load the registers, trap into the kernel and decode the result.
package user

import (
	"fmt"

	"github.com/viant/minikernel/abi"
	"github.com/viant/minikernel/hal"
)

// Sys issues system calls on behalf of a process
type Sys struct {
	cpu hal.CPU
}

// New creates the system-call stubs for cpu
func New(cpu hal.CPU) *Sys {
	return &Sys{cpu: cpu}
}

// Wrap turns main into a program that ends its process when main returns
func Wrap(main func(sys *Sys)) hal.Program {
	return func(cpu hal.CPU) {
		sys := New(cpu)
		main(sys)
		sys.EndProcess()
	}
}

// Call issues call with args loaded into the argument registers and returns RegResult
func (s *Sys) Call(call abi.Call, args ...interface{}) int {
	s.cpu.WriteRegister(abi.RegCall, int(call))
	for i, arg := range args {
		s.cpu.WriteRegister(abi.RegArg1+i, arg)
	}
	s.cpu.Trap(hal.SystemCall)
	result, ok := s.cpu.ReadRegister(abi.RegResult).(int)
	if !ok {
		return int(abi.ErrGeneric)
	}
	return result
}

func (s *Sys) descriptor(call abi.Call, args ...interface{}) (int, error) {
	result := s.Call(call, args...)
	if err := abi.Result(result); err != nil {
		return -1, err
	}
	return result, nil
}

// CreateProcess starts program and returns its pid
func (s *Sys) CreateProcess(program string) (int, error) {
	return s.descriptor(abi.CreateProcess, program)
}

// EndProcess ends the calling process; it does not return
func (s *Sys) EndProcess() {
	s.Call(abi.EndProcess)
}

// Write writes p to the console
func (s *Sys) Write(p []byte) (int, error) {
	if err := abi.Result(s.Call(abi.Write, p, len(p))); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Printf formats to the console
func (s *Sys) Printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(s, format, args...)
}

// GetPID returns the caller's pid
func (s *Sys) GetPID() int {
	return s.Call(abi.GetPID)
}

// Sleep blocks the caller for seconds
func (s *Sys) Sleep(seconds int) {
	s.Call(abi.Sleep, seconds)
}

// Times returns the clock ticks since boot and fills out, when set, with the caller's accounting
func (s *Sys) Times(out *abi.Times) int {
	if out == nil {
		return s.Call(abi.GetTimes, nil)
	}
	return s.Call(abi.GetTimes, out)
}

// MutexCreate creates a mutex and returns its descriptor
func (s *Sys) MutexCreate(name string, kind abi.MutexKind) (int, error) {
	return s.descriptor(abi.MutexCreate, name, int(kind))
}

// MutexOpen opens an existing mutex and returns its descriptor
func (s *Sys) MutexOpen(name string) (int, error) {
	return s.descriptor(abi.MutexOpen, name)
}

// MutexClose closes a descriptor
func (s *Sys) MutexClose(descriptor int) error {
	return abi.Result(s.Call(abi.MutexClose, descriptor))
}

// Lock acquires a mutex
func (s *Sys) Lock(descriptor int) error {
	return abi.Result(s.Call(abi.MutexLock, descriptor))
}

// Unlock releases a mutex
func (s *Sys) Unlock(descriptor int) error {
	return abi.Result(s.Call(abi.MutexUnlock, descriptor))
}

// Spin computes for ticks clock periods without entering the kernel
func (s *Sys) Spin(ticks int) {
	s.cpu.Spin(ticks)
}

// Divide divides a by b; a zero divisor raises an arithmetic fault
func (s *Sys) Divide(a, b int) int {
	if b == 0 {
		s.cpu.Trap(hal.ArithmeticFault)
	}
	return a / b
}
