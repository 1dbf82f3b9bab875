package proc

import "github.com/viant/minikernel/abi"

// Table is the fixed process table.
type Table struct {
	slots []PCB
}

// NewTable allocates capacity process slots with descriptors mutex descriptors each.
func NewTable(capacity, descriptors int) *Table {
	t := &Table{slots: make([]PCB, capacity)}
	for i := range t.slots {
		t.slots[i].ID = i
		t.slots[i].Descriptors = make([]int, descriptors)
		t.slots[i].reset()
	}
	return t
}

// Capacity returns the number of slots.
func (t *Table) Capacity() int {
	return len(t.slots)
}

// Allocate returns a cleared free slot. Terminated slots are reclaimed on the scan.
func (t *Table) Allocate() (*PCB, error) {
	for i := range t.slots {
		p := &t.slots[i]
		if p.State == Unused || p.State == Terminated {
			p.reset()
			return p, nil
		}
	}
	return nil, abi.ErrProcessTableFull
}

// Get returns the slot for id or nil.
func (t *Table) Get(id int) *PCB {
	if id < 0 || id >= len(t.slots) {
		return nil
	}
	return &t.slots[id]
}

// Live returns the number of ready, running or blocked processes.
func (t *Table) Live() int {
	count := 0
	for i := range t.slots {
		if t.slots[i].State.Live() {
			count++
		}
	}
	return count
}

// Processes returns the live processes in slot order.
func (t *Table) Processes() []*PCB {
	var result []*PCB
	for i := range t.slots {
		if t.slots[i].State.Live() {
			result = append(result, &t.slots[i])
		}
	}
	return result
}
