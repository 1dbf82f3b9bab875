// Package abi defines the contract between user programs and the kernel:
// system-call numbers, register usage, result codes and the data types that
// cross the boundary.
package abi

// Call identifies a system call; it is passed in RegCall.
type Call int

const (
	CreateProcess Call = iota
	EndProcess
	Write
	GetPID
	Sleep
	GetTimes
	MutexCreate
	MutexOpen
	MutexClose
	MutexLock
	MutexUnlock

	// NumCalls is the size of the kernel service table.
	NumCalls
)

var callNames = [NumCalls]string{
	"create_process",
	"end_process",
	"write",
	"get_pid",
	"sleep",
	"get_times",
	"mutex_create",
	"mutex_open",
	"mutex_close",
	"mutex_lock",
	"mutex_unlock",
}

// String returns the call name
func (c Call) String() string {
	if c < 0 || c >= NumCalls {
		return "unknown"
	}
	return callNames[c]
}

// Register usage for system calls. The call number and the result share
// register 0, arguments follow.
const (
	RegCall   = 0
	RegResult = 0
	RegArg1   = 1
	RegArg2   = 2
	RegArg3   = 3
)

// MutexKind selects mutex semantics.
type MutexKind int

const (
	NonRecursive MutexKind = iota
	Recursive
)

// Valid reports whether the kind is known.
func (k MutexKind) Valid() bool {
	return k == NonRecursive || k == Recursive
}

func (k MutexKind) String() string {
	switch k {
	case NonRecursive:
		return "non-recursive"
	case Recursive:
		return "recursive"
	}
	return "invalid"
}

// Times receives per-process tick accounting from get_times.
type Times struct {
	User   int `json:"user"`
	System int `json:"system"`
}
