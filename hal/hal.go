// Package hal describes the hardware/runtime collaborator the kernel runs on:
// register access, execution contexts, interrupt control, resource handles,
// mode introspection and the console. The kernel only consumes these
// interfaces; package sim provides a simulated machine.
package hal

import "io"

// Vector identifies an interrupt or exception.
type Vector int

const (
	ArithmeticFault Vector = iota
	MemoryFault
	ClockInterrupt
	TerminalInterrupt
	SystemCall
	SoftwareInterrupt

	NumVectors
)

var vectorNames = [NumVectors]string{"arithmetic fault", "memory fault", "clock", "terminal", "system call", "software"}

func (v Vector) String() string {
	if v < 0 || v >= NumVectors {
		return "unknown"
	}
	return vectorNames[v]
}

// Level is the interrupt-exclusion level. An asynchronous interrupt is
// delivered only while its priority is above the current level.
type Level int

const (
	Level0 Level = iota // user mode, everything enabled
	Level1              // software interrupts excluded
	Level2              // terminal interrupts excluded
	Level3              // clock interrupts excluded
)

// Priority returns the level an asynchronous vector runs at, 0 for synchronous ones.
func (v Vector) Priority() Level {
	switch v {
	case ClockInterrupt:
		return Level3
	case TerminalInterrupt:
		return Level2
	case SoftwareInterrupt:
		return Level1
	}
	return Level0
}

// Asynchronous reports whether the vector can be masked by the level.
func (v Vector) Asynchronous() bool {
	return v.Priority() > Level0
}

// NumRegisters is the size of the register file used for parameter passing.
const NumRegisters = 6

type (
	// Handler services one vector.
	Handler func()

	// Context is an opaque saved execution context.
	Context interface{}

	// Image is an opaque handle to a process memory image.
	Image interface{}

	// Stack is an opaque handle to a process execution stack.
	Stack interface{}

	// Program is the entry point of a process image; it runs in user mode.
	Program func(cpu CPU)
)

// Registers gives access to the register file.
type Registers interface {
	ReadRegister(n int) interface{}
	WriteRegister(n int, value interface{})
}

// CPU is the user-mode view of the processor.
type CPU interface {
	Registers
	// Trap enters the kernel synchronously through vector v (system call or exception).
	Trap(v Vector)
	// Spin burns ticks clock periods of user-mode computation.
	Spin(ticks int)
}

// Interrupts controls vectors, exclusion levels and the idle wait.
type Interrupts interface {
	Install(v Vector, handler Handler)
	// SetLevel sets the exclusion level and returns the previous one.
	SetLevel(level Level) Level
	// Halt waits, with the current level, until an interrupt has been serviced.
	Halt()
	// Raise delivers a synchronous exception from the current mode.
	Raise(v Vector)
	// FromUserMode reports whether the running handler interrupted user mode.
	FromUserMode() bool
}

// Contexts builds and switches execution contexts.
type Contexts interface {
	NewContext(image Image, stack Stack, entry Program) Context
	// SwitchContext saves the running context into save (nil abandons it)
	// and resumes restore. With a nil save it never returns.
	SwitchContext(save, restore Context)
}

// Loader creates and releases process resources.
type Loader interface {
	CreateImage(program string) (Image, Program, error)
	ReleaseImage(image Image)
	CreateStack(size int) Stack
	ReleaseStack(stack Stack)
}

// Devices covers the console and terminal ports plus machine control.
type Devices interface {
	Console() io.Writer
	ReadTerminal() byte
	// Panic halts the machine with a diagnostic; it never returns.
	Panic(reason string)
	// PowerOff stops the machine cleanly; it never returns.
	PowerOff()
}

// HAL is everything the kernel consumes from the machine.
type HAL interface {
	Registers
	Interrupts
	Contexts
	Loader
	Devices
}
