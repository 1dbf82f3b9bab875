package idgen

import "github.com/google/uuid"

func defaultNew() string { return uuid.New().String() }

// NewFunc returns a new identifier. Tests may stub it.
var NewFunc = defaultNew

// New returns a new globally unique identifier as string.
func New() string { return NewFunc() }

// Reset restores the uuid generator.
func Reset() { NewFunc = defaultNew }
