// Package stats keeps aggregated kernel counters. The kernel updates them
// through Delta values from interrupt and system-call handlers; observers
// read snapshots or register a change callback.
package stats

import "sync"

// Delta represents an incremental counter change.
type Delta struct {
	Ticks            int
	IdleTicks        int
	ContextSwitches  int
	ProcessesCreated int
	ProcessesEnded   int
	Faults           int
	MutexesCreated   int
	MutexesReclaimed int
	SystemCalls      int
	EventsDropped    int
}

// Stats keeps kernel counters. It is safe for concurrent use.
type Stats struct {
	Ticks            int `json:"ticks"`
	IdleTicks        int `json:"idleTicks"`
	ContextSwitches  int `json:"contextSwitches"`
	ProcessesCreated int `json:"processesCreated"`
	ProcessesEnded   int `json:"processesEnded"`
	Faults           int `json:"faults"`
	MutexesCreated   int `json:"mutexesCreated"`
	MutexesReclaimed int `json:"mutexesReclaimed"`
	SystemCalls      int `json:"systemCalls"`
	EventsDropped    int `json:"eventsDropped"`

	mu       sync.Mutex
	onChange func(Stats)
}

// Update applies the supplied delta. The onChange callback, if any, runs
// outside the critical section with a copy of the updated counters.
func (s *Stats) Update(d Delta) {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.Ticks += d.Ticks
	s.IdleTicks += d.IdleTicks
	s.ContextSwitches += d.ContextSwitches
	s.ProcessesCreated += d.ProcessesCreated
	s.ProcessesEnded += d.ProcessesEnded
	s.Faults += d.Faults
	s.MutexesCreated += d.MutexesCreated
	s.MutexesReclaimed += d.MutexesReclaimed
	s.SystemCalls += d.SystemCalls
	s.EventsDropped += d.EventsDropped
	snapshot := s.copy()
	cb := s.onChange
	s.mu.Unlock()
	if cb != nil {
		cb(snapshot)
	}
}

// Snapshot returns a copy suitable for read-only inspection.
func (s *Stats) Snapshot() Stats {
	if s == nil {
		return Stats{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copy()
}

// OnChange registers a callback invoked after every Update; nil disables it.
func (s *Stats) OnChange(cb func(Stats)) {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.onChange = cb
	s.mu.Unlock()
}

func (s *Stats) copy() Stats {
	return Stats{
		Ticks:            s.Ticks,
		IdleTicks:        s.IdleTicks,
		ContextSwitches:  s.ContextSwitches,
		ProcessesCreated: s.ProcessesCreated,
		ProcessesEnded:   s.ProcessesEnded,
		Faults:           s.Faults,
		MutexesCreated:   s.MutexesCreated,
		MutexesReclaimed: s.MutexesReclaimed,
		SystemCalls:      s.SystemCalls,
		EventsDropped:    s.EventsDropped,
	}
}
