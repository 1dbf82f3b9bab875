package dao

import "errors"

// Sentinel errors returned by the accounting stores; wrap them with %w and
// test with errors.Is.
var (
	// ErrNotFound is returned when no record is stored under the id.
	ErrNotFound = errors.New("dao: not found")

	// ErrInvalidID is returned for a record or lookup with an empty id.
	ErrInvalidID = errors.New("dao: invalid id")

	// ErrNilEntity is returned when Save is given a nil record.
	ErrNilEntity = errors.New("dao: nil entity")
)
