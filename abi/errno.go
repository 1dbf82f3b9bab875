package abi

import (
	"errors"
	"fmt"
)

// Errno is a negative result code returned to a process in RegResult.
type Errno int

const (
	ErrGeneric           Errno = -1
	ErrNameLength        Errno = -10
	ErrMutexTableFull    Errno = -11
	ErrNameExists        Errno = -12
	ErrProcessMutexLimit Errno = -13
	ErrNotFound          Errno = -14
	ErrAlreadyLocked     Errno = -15
	ErrNotOwner          Errno = -16
	ErrProcessTableFull  Errno = -20
	ErrNoImage           Errno = -21
	ErrInvalidArgument   Errno = -22
)

var errnoText = map[Errno]string{
	ErrGeneric:           "generic failure",
	ErrNameLength:        "invalid mutex name length",
	ErrMutexTableFull:    "mutex table full",
	ErrNameExists:        "mutex name already exists",
	ErrProcessMutexLimit: "too many mutexes for process",
	ErrNotFound:          "mutex not found",
	ErrAlreadyLocked:     "mutex already locked by caller",
	ErrNotOwner:          "caller does not own mutex",
	ErrProcessTableFull:  "process table full",
	ErrNoImage:           "program image not found",
	ErrInvalidArgument:   "invalid argument",
}

func (e Errno) Error() string {
	if text, ok := errnoText[e]; ok {
		return text
	}
	return fmt.Sprintf("errno %d", int(e))
}

// Code converts a kernel error into the integer written to RegResult.
func Code(err error) int {
	if err == nil {
		return 0
	}
	var errno Errno
	if errors.As(err, &errno) {
		return int(errno)
	}
	return int(ErrGeneric)
}

// Result converts a raw register value into an error, nil for non-negative values.
func Result(value int) error {
	if value >= 0 {
		return nil
	}
	return Errno(value)
}
