package proc

import "github.com/viant/minikernel/hal"

// State represents a process control block state
type State int

const (
	Unused State = iota
	Ready
	Running
	Blocked
	Terminated
)

var stateNames = [...]string{"unused", "ready", "running", "blocked", "terminated"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Live reports whether the state belongs to a process that still exists.
func (s State) Live() bool {
	return s == Ready || s == Running || s == Blocked
}

const noLink = -1

// PCB is a process control block; its ID is its slot in the table.
type PCB struct {
	ID      int
	State   State
	Program string
	Context hal.Context
	Stack   hal.Stack
	Image   hal.Image

	SleepTicks  int
	UserTicks   int
	SystemTicks int
	CreatedTick int

	// Descriptors maps a per-process mutex descriptor to a mutex table slot, -1 when free.
	Descriptors []int
	MutexCount  int

	next  int
	queue *Queue
}

// Queue returns the queue the process is linked on, nil if none.
func (p *PCB) Queue() *Queue {
	return p.queue
}

// FreeDescriptor returns the lowest unused descriptor or -1.
func (p *PCB) FreeDescriptor() int {
	for i, slot := range p.Descriptors {
		if slot < 0 {
			return i
		}
	}
	return -1
}

// Attach maps descriptor to a mutex slot.
func (p *PCB) Attach(descriptor, mutex int) {
	if p.Descriptors[descriptor] < 0 {
		p.MutexCount++
	}
	p.Descriptors[descriptor] = mutex
}

// Detach releases descriptor.
func (p *PCB) Detach(descriptor int) {
	if descriptor < 0 || descriptor >= len(p.Descriptors) || p.Descriptors[descriptor] < 0 {
		return
	}
	p.Descriptors[descriptor] = -1
	p.MutexCount--
}

// Mutex resolves descriptor to a mutex slot.
func (p *PCB) Mutex(descriptor int) (int, bool) {
	if descriptor < 0 || descriptor >= len(p.Descriptors) || p.Descriptors[descriptor] < 0 {
		return -1, false
	}
	return p.Descriptors[descriptor], true
}

// DescriptorOf returns the descriptor mapped to mutex or -1.
func (p *PCB) DescriptorOf(mutex int) int {
	for i, slot := range p.Descriptors {
		if slot == mutex {
			return i
		}
	}
	return -1
}

func (p *PCB) reset() {
	id, descriptors := p.ID, p.Descriptors
	*p = PCB{ID: id, Descriptors: descriptors, next: noLink}
	for i := range p.Descriptors {
		p.Descriptors[i] = -1
	}
}
