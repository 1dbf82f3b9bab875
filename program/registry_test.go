package program

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/viant/minikernel/hal"
)

func TestRegistry(t *testing.T) {
	r := New()
	_, ok := r.Lookup("init")
	assert.False(t, ok)

	r.Register("b", func(cpu hal.CPU) {})
	r.Register("a", func(cpu hal.CPU) {})
	program, ok := r.Lookup("a")
	assert.True(t, ok)
	assert.NotNil(t, program)
	assert.Equal(t, []string{"a", "b"}, r.Names())
}

func TestBuiltin(t *testing.T) {
	names := Builtin().Names()
	for _, expect := range []string{"init", "simplon", "sleeper", "producer", "consumer", "faulty", "runaway"} {
		assert.Contains(t, names, expect)
	}
}
