package sim

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/viant/minikernel/hal"
)

// ErrNoProgram is returned by CreateImage for unknown program names.
var ErrNoProgram = errors.New("sim: program not found")

// Image is the memory image of a program.
type Image struct {
	Program  string
	released bool
}

// Stack is a process stack region.
type Stack struct {
	Size     int
	released bool
}

// Context is a saved CPU state bound to the goroutine that executes it.
type Context struct {
	ID      int
	Image   *Image
	Stack   *Stack
	entry   hal.Program
	regs    [hal.NumRegisters]interface{}
	level   hal.Level
	user    bool
	frames  []frame
	resume  chan struct{}
	started bool
}

// CreateImage loads program into a new image.
func (m *Machine) CreateImage(program string) (hal.Image, hal.Program, error) {
	entry, ok := m.programs.Lookup(program)
	if !ok || entry == nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrNoProgram, program)
	}
	m.liveImages++
	return &Image{Program: program}, entry, nil
}

// ReleaseImage releases an image created by CreateImage.
func (m *Machine) ReleaseImage(image hal.Image) {
	if img, ok := image.(*Image); ok && !img.released {
		img.released = true
		m.liveImages--
	}
}

// CreateStack allocates a stack region.
func (m *Machine) CreateStack(size int) hal.Stack {
	m.liveStacks++
	return &Stack{Size: size}
}

// ReleaseStack releases a stack created by CreateStack.
func (m *Machine) ReleaseStack(stack hal.Stack) {
	if s, ok := stack.(*Stack); ok && !s.released {
		s.released = true
		m.liveStacks--
	}
}

// NewContext builds the initial user-mode context starting at entry.
func (m *Machine) NewContext(image hal.Image, stack hal.Stack, entry hal.Program) hal.Context {
	m.contexts++
	c := &Context{
		ID:     m.contexts,
		entry:  entry,
		user:   true,
		level:  hal.Level0,
		resume: make(chan struct{}, 1),
	}
	c.Image, _ = image.(*Image)
	c.Stack, _ = stack.(*Stack)
	return c
}

// SwitchContext saves the CPU into save and resumes restore.
func (m *Machine) SwitchContext(save, restore hal.Context) {
	next, ok := restore.(*Context)
	if !ok || next == nil {
		m.Panic("switch to an invalid context")
	}
	var prev *Context
	if save != nil {
		prev, _ = save.(*Context)
	}
	if prev == next {
		return
	}
	if prev != nil {
		m.store(prev)
	}
	m.load(next)
	if next.started {
		next.resume <- struct{}{}
	} else {
		next.started = true
		go m.execute(next)
	}
	if prev == nil {
		runtime.Goexit()
	}
	select {
	case <-prev.resume:
	case <-m.quit:
		runtime.Goexit()
	}
}

func (m *Machine) store(c *Context) {
	c.regs = m.regs
	c.level = m.level
	c.user = m.user
	c.frames = append(c.frames[:0], m.frames...)
}

func (m *Machine) load(c *Context) {
	m.regs = c.regs
	m.level = c.level
	m.user = c.user
	m.frames = append(m.frames[:0:0], c.frames...)
}

// execute runs a context for the first time. A program that returns
// without ending its process jumps nowhere and takes a memory fault.
func (m *Machine) execute(c *Context) {
	m.deliver()
	c.entry(m)
	m.Trap(hal.MemoryFault)
	m.Panic(fmt.Sprintf("context %d outlived its program", c.ID))
}
