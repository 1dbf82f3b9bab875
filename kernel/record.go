package kernel

// Kernel event types
const (
	EventProcessCreated = "process.created"
	EventProcessState   = "process.state"
	EventContextSwitch  = "process.switch"
	EventProcessEnded   = "process.ended"
	EventMutexCreated   = "mutex.created"
	EventMutexOpened    = "mutex.opened"
	EventMutexClosed    = "mutex.closed"
	EventMutexReclaimed = "mutex.reclaimed"
	EventFault          = "fault"
	EventPanic          = "panic"
)

// Record is the payload of a kernel event
type Record struct {
	PID     int    `json:"pid"`
	Program string `json:"program,omitempty"`
	State   string `json:"state,omitempty"`
	Mutex   string `json:"mutex,omitempty"`
	Detail  string `json:"detail,omitempty"`
}

// ProcessInfo is a read-only view of a live process
type ProcessInfo struct {
	ID          int    `json:"id"`
	Program     string `json:"program"`
	State       string `json:"state"`
	Queue       string `json:"queue,omitempty"`
	UserTicks   int    `json:"userTicks"`
	SystemTicks int    `json:"systemTicks"`
	Mutexes     int    `json:"mutexes"`
}

// MutexInfo is a read-only view of an in-use mutex
type MutexInfo struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	Kind       string `json:"kind"`
	State      string `json:"state"`
	Owner      int    `json:"owner"`
	Depth      int    `json:"depth"`
	Associates int    `json:"associates"`
	Waiters    []int  `json:"waiters,omitempty"`
}
