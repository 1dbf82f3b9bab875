package proc

import "fmt"

// Queue is a FIFO of PCBs linked by slot index through the table arena.
// A PCB is linked on at most one queue at a time.
type Queue struct {
	Name  string
	table *Table
	head  int
	tail  int
	size  int
}

// NewQueue creates an empty queue over the table slots.
func (t *Table) NewQueue(name string) *Queue {
	return &Queue{Name: name, table: t, head: noLink, tail: noLink}
}

// Len returns the queue length.
func (q *Queue) Len() int {
	return q.size
}

// Empty reports whether the queue has no members.
func (q *Queue) Empty() bool {
	return q.size == 0
}

// Front returns the head of the queue or nil.
func (q *Queue) Front() *PCB {
	return q.table.Get(q.head)
}

// Next returns the member following p or nil.
func (q *Queue) Next(p *PCB) *PCB {
	if p == nil || p.queue != q {
		return nil
	}
	return q.table.Get(p.next)
}

// Contains reports whether p is linked on q.
func (q *Queue) Contains(p *PCB) bool {
	return p != nil && p.queue == q
}

// PushBack appends p; p must not be on any queue.
func (q *Queue) PushBack(p *PCB) {
	if p.queue != nil {
		panic(fmt.Sprintf("proc: process %d queued on %s while on %s", p.ID, q.Name, p.queue.Name))
	}
	p.queue = q
	p.next = noLink
	if q.tail == noLink {
		q.head = p.ID
	} else {
		q.table.slots[q.tail].next = p.ID
	}
	q.tail = p.ID
	q.size++
}

// PopFront unlinks and returns the head or nil.
func (q *Queue) PopFront() *PCB {
	p := q.Front()
	if p == nil {
		return nil
	}
	q.head = p.next
	if q.head == noLink {
		q.tail = noLink
	}
	q.unlink(p)
	return p
}

// Remove unlinks p wherever it is in the queue.
func (q *Queue) Remove(p *PCB) bool {
	if !q.Contains(p) {
		return false
	}
	if q.head == p.ID {
		q.PopFront()
		return true
	}
	prev := q.Front()
	for prev != nil && prev.next != p.ID {
		prev = q.table.Get(prev.next)
	}
	if prev == nil {
		return false
	}
	prev.next = p.next
	if q.tail == p.ID {
		q.tail = prev.ID
	}
	q.unlink(p)
	return true
}

// IDs returns the member ids in queue order.
func (q *Queue) IDs() []int {
	var ids []int
	for p := q.Front(); p != nil; p = q.Next(p) {
		ids = append(ids, p.ID)
	}
	return ids
}

func (q *Queue) unlink(p *PCB) {
	p.next = noLink
	p.queue = nil
	q.size--
}
