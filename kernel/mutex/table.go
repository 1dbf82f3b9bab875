// Package mutex holds the fixed table of named kernel mutexes. The locking
// protocol itself lives in the kernel; this package only keeps slots, names
// and association sets consistent.
package mutex

import (
	"github.com/viant/minikernel/abi"
	"github.com/viant/minikernel/kernel/proc"
)

// State represents a mutex slot state
type State int

const (
	Unused State = iota
	Free
	Locked
)

var stateNames = [...]string{"unused", "free", "locked"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// NoOwner marks a mutex nobody holds.
const NoOwner = -1

// Mutex is one slot of the mutex table.
type Mutex struct {
	ID    int
	Name  string
	Kind  abi.MutexKind
	State State
	Owner int
	Depth int
	// Blocked holds the processes waiting to acquire this mutex.
	Blocked *proc.Queue

	associated []bool
	associates int
}

// Associates returns the number of processes that created or opened the mutex.
func (m *Mutex) Associates() int {
	return m.associates
}

// IsAssociated reports whether pid created or opened the mutex.
func (m *Mutex) IsAssociated(pid int) bool {
	return pid >= 0 && pid < len(m.associated) && m.associated[pid]
}

// OwnedBy reports whether pid holds the lock.
func (m *Mutex) OwnedBy(pid int) bool {
	return m.State == Locked && m.Owner == pid
}

// Table is the fixed mutex table.
type Table struct {
	slots []Mutex
	count int
}

// NewTable allocates capacity slots; each blocked queue links PCBs of procs.
func NewTable(capacity int, procs *proc.Table) *Table {
	t := &Table{slots: make([]Mutex, capacity)}
	for i := range t.slots {
		m := &t.slots[i]
		m.ID = i
		m.Owner = NoOwner
		m.associated = make([]bool, procs.Capacity())
		m.Blocked = procs.NewQueue("mutex")
	}
	return t
}

// Capacity returns the number of slots.
func (t *Table) Capacity() int {
	return len(t.slots)
}

// Count returns the number of slots in use.
func (t *Table) Count() int {
	return t.count
}

// Get returns slot id or nil.
func (t *Table) Get(id int) *Mutex {
	if id < 0 || id >= len(t.slots) {
		return nil
	}
	return &t.slots[id]
}

// Lookup finds an in-use mutex by name.
func (t *Table) Lookup(name string) *Mutex {
	for i := range t.slots {
		if m := &t.slots[i]; m.State != Unused && m.Name == name {
			return m
		}
	}
	return nil
}

// FreeSlot returns the first unused slot or nil when the table is full.
func (t *Table) FreeSlot() *Mutex {
	for i := range t.slots {
		if t.slots[i].State == Unused {
			return &t.slots[i]
		}
	}
	return nil
}

// Claim puts an unused slot into service as a free mutex.
func (t *Table) Claim(m *Mutex, name string, kind abi.MutexKind) {
	m.Name = name
	m.Kind = kind
	m.State = Free
	m.Owner = NoOwner
	m.Depth = 0
	m.Blocked.Name = "mutex " + name
	t.count++
}

// Associate adds pid to the association set; it reports false when pid already belongs.
func (t *Table) Associate(m *Mutex, pid int) bool {
	if m.IsAssociated(pid) {
		return false
	}
	m.associated[pid] = true
	m.associates++
	return true
}

// Dissociate removes pid from the association set.
func (t *Table) Dissociate(m *Mutex, pid int) bool {
	if !m.IsAssociated(pid) {
		return false
	}
	m.associated[pid] = false
	m.associates--
	return true
}

// Reclaim returns a slot without associates to the unused pool.
func (t *Table) Reclaim(m *Mutex) bool {
	if m.State == Unused || m.associates > 0 {
		return false
	}
	m.Name = ""
	m.State = Unused
	m.Owner = NoOwner
	m.Depth = 0
	m.Blocked.Name = "mutex"
	t.count--
	return true
}
