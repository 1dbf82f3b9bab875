package kernel

import (
	"github.com/viant/minikernel/abi"
	"github.com/viant/minikernel/hal"
	"github.com/viant/minikernel/kernel/mutex"
	"github.com/viant/minikernel/kernel/proc"
	"github.com/viant/minikernel/stats"
)

// mutexCreate creates a named mutex and returns the caller's descriptor.
// With the table full the caller waits for a close and searches again.
func (k *Kernel) mutexCreate(name string, kind abi.MutexKind) (int, error) {
	if len(name) == 0 || len(name) > k.limits.MaxMutexName {
		return 0, abi.ErrNameLength
	}
	if !kind.Valid() {
		return 0, abi.ErrInvalidArgument
	}
	level := k.hal.SetLevel(hal.Level3)
	defer k.hal.SetLevel(level)
	p := k.current
	for {
		descriptor := p.FreeDescriptor()
		if descriptor < 0 {
			return 0, abi.ErrProcessMutexLimit
		}
		if k.mutexes.Lookup(name) != nil {
			return 0, abi.ErrNameExists
		}
		if m := k.mutexes.FreeSlot(); m != nil {
			k.mutexes.Claim(m, name, kind)
			k.mutexes.Associate(m, p.ID)
			p.Attach(descriptor, m.ID)
			k.stats.Update(stats.Delta{MutexesCreated: 1})
			k.processLogger(p).WithField("mutex", name).Infof("%v mutex created", kind)
			k.publish(EventMutexCreated, Record{PID: p.ID, Program: p.Program, Mutex: name, Detail: kind.String()})
			return descriptor, nil
		}
		k.processLogger(p).WithField("mutex", name).Info("mutex table full")
		k.block(k.slotWait)
	}
}

// mutexOpen associates the caller with an existing mutex. Opening a mutex
// twice returns the same descriptor.
func (k *Kernel) mutexOpen(name string) (int, error) {
	level := k.hal.SetLevel(hal.Level3)
	defer k.hal.SetLevel(level)
	p := k.current
	m := k.mutexes.Lookup(name)
	if m == nil {
		return 0, abi.ErrNotFound
	}
	if descriptor := p.DescriptorOf(m.ID); descriptor >= 0 {
		return descriptor, nil
	}
	descriptor := p.FreeDescriptor()
	if descriptor < 0 {
		return 0, abi.ErrProcessMutexLimit
	}
	k.mutexes.Associate(m, p.ID)
	p.Attach(descriptor, m.ID)
	k.processLogger(p).WithField("mutex", name).Info("mutex opened")
	k.publish(EventMutexOpened, Record{PID: p.ID, Program: p.Program, Mutex: name})
	return descriptor, nil
}

func (k *Kernel) mutexClose(descriptor int) error {
	level := k.hal.SetLevel(hal.Level3)
	defer k.hal.SetLevel(level)
	return k.closeMutex(k.current, descriptor)
}

// closeMutex drops p's association, releasing the lock p holds. The last
// close reclaims the slot. Every close readies one process waiting for a slot.
func (k *Kernel) closeMutex(p *proc.PCB, descriptor int) error {
	m, err := k.resolve(p, descriptor)
	if err != nil {
		return err
	}
	name := m.Name
	if m.OwnedBy(p.ID) {
		m.Depth = 1
		k.release(m)
	}
	k.mutexes.Dissociate(m, p.ID)
	p.Detach(descriptor)
	k.processLogger(p).WithField("mutex", name).Info("mutex closed")
	k.publish(EventMutexClosed, Record{PID: p.ID, Program: p.Program, Mutex: name})
	if k.mutexes.Reclaim(m) {
		k.stats.Update(stats.Delta{MutexesReclaimed: 1})
		k.publish(EventMutexReclaimed, Record{PID: p.ID, Mutex: name})
	}
	if waiter := k.slotWait.PopFront(); waiter != nil {
		k.wake(waiter)
	}
	return nil
}

// mutexLock acquires the mutex, blocking while another process holds it.
// A woken waiter checks the mutex again before taking it.
func (k *Kernel) mutexLock(descriptor int) error {
	level := k.hal.SetLevel(hal.Level3)
	defer k.hal.SetLevel(level)
	p := k.current
	for {
		m, err := k.resolve(p, descriptor)
		if err != nil {
			return err
		}
		if m.State == mutex.Locked && m.Owner != p.ID {
			k.block(m.Blocked)
			continue
		}
		if m.Kind == abi.NonRecursive && m.Depth > 0 {
			return abi.ErrAlreadyLocked
		}
		m.State = mutex.Locked
		m.Owner = p.ID
		m.Depth++
		return nil
	}
}

func (k *Kernel) mutexUnlock(descriptor int) error {
	level := k.hal.SetLevel(hal.Level3)
	defer k.hal.SetLevel(level)
	p := k.current
	m, err := k.resolve(p, descriptor)
	if err != nil {
		return err
	}
	if !m.OwnedBy(p.ID) {
		return abi.ErrNotOwner
	}
	k.release(m)
	return nil
}

// release drops one level of ownership; the last one frees the mutex and
// readies the first waiter without handing it the lock.
func (k *Kernel) release(m *mutex.Mutex) {
	m.Depth--
	if m.Depth > 0 {
		return
	}
	m.Depth = 0
	m.State = mutex.Free
	m.Owner = mutex.NoOwner
	if waiter := m.Blocked.PopFront(); waiter != nil {
		k.wake(waiter)
	}
}

// resolve maps p's descriptor to a mutex p is associated with.
func (k *Kernel) resolve(p *proc.PCB, descriptor int) (*mutex.Mutex, error) {
	slot, ok := p.Mutex(descriptor)
	if !ok {
		return nil, abi.ErrNotFound
	}
	m := k.mutexes.Get(slot)
	if m == nil || m.State == mutex.Unused || !m.IsAssociated(p.ID) {
		return nil, abi.ErrNotFound
	}
	return m, nil
}
