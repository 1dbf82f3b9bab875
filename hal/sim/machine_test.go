package sim

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/minikernel/hal"
)

// TestMachine_SwitchContext ping-pongs the CPU between two contexts through
// a system-call handler.
func TestMachine_SwitchContext(t *testing.T) {
	var trace []string
	var contexts [2]hal.Context
	current := 0
	m := New()
	m.Install(hal.SystemCall, func() {
		prev := current
		current = 1 - current
		m.SwitchContext(contexts[prev], contexts[current])
	})
	m.Install(hal.MemoryFault, func() { m.PowerOff() })
	program := func(name string) hal.Program {
		return func(cpu hal.CPU) {
			for i := 0; i < 2; i++ {
				trace = append(trace, name)
				cpu.Trap(hal.SystemCall)
			}
			if name == "b" {
				cpu.Trap(hal.MemoryFault)
			}
		}
	}
	err := m.Run(context.Background(), func() {
		contexts[0] = m.NewContext(nil, nil, program("a"))
		contexts[1] = m.NewContext(nil, nil, program("b"))
		m.SwitchContext(nil, contexts[0])
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "a", "b"}, trace)
}

func TestMachine_Levels(t *testing.T) {
	var fromUser []bool
	m := New()
	m.Install(hal.ClockInterrupt, func() { fromUser = append(fromUser, m.FromUserMode()) })
	m.Install(hal.SystemCall, func() {
		prev := m.SetLevel(hal.Level3)
		m.Spin(1) // excluded while at clock level
		m.SetLevel(prev)
		m.PowerOff()
	})
	err := m.Run(context.Background(), func() {
		m.SwitchContext(nil, m.NewContext(nil, nil, func(cpu hal.CPU) {
			cpu.Spin(2)
			cpu.Trap(hal.SystemCall)
		}))
	})
	require.NoError(t, err)
	assert.Equal(t, []bool{true, true, false}, fromUser)
	assert.Equal(t, 3, m.Ticks())
}

func TestMachine_HaltAdvancesClock(t *testing.T) {
	m := New(WithConfig(Config{MaxTicks: 5}))
	m.Install(hal.ClockInterrupt, func() {})
	err := m.Run(context.Background(), func() {
		m.SetLevel(hal.Level1)
		for {
			m.Halt()
		}
	})
	assert.ErrorIs(t, err, ErrTickLimit)
	assert.Equal(t, 6, m.Ticks())
}

func TestMachine_Panic(t *testing.T) {
	m := New()
	err := m.Run(context.Background(), func() {
		m.Halt()
	})
	var panicErr *PanicError
	require.ErrorAs(t, err, &panicErr)
	assert.Contains(t, panicErr.Reason, "clock interrupt excluded")
}

func TestMachine_Terminal(t *testing.T) {
	var typed []byte
	m := New(WithConfig(Config{Clock: ClockRealtime, TickInterval: time.Hour}))
	m.Install(hal.TerminalInterrupt, func() {
		typed = append(typed, m.ReadTerminal())
		if len(typed) == 2 {
			m.PowerOff()
		}
	})
	m.Type('o')
	m.Type('k')
	err := m.Run(context.Background(), func() {
		m.SetLevel(hal.Level1)
		for {
			m.Halt()
		}
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", string(typed))
}

func TestMachine_ResourcesAndConsole(t *testing.T) {
	console := &bytes.Buffer{}
	m := New(WithConsole(console), WithPrograms(ProgramMap{"init": func(cpu hal.CPU) {}}))
	m.Install(hal.ClockInterrupt, func() {})
	err := m.Run(context.Background(), func() {
		_, _, err := m.CreateImage("missing")
		assert.ErrorIs(t, err, ErrNoProgram)
		image, entry, err := m.CreateImage("init")
		assert.NoError(t, err)
		assert.NotNil(t, entry)
		stack := m.CreateStack(64)
		assert.Equal(t, 1, m.LiveImages())
		assert.Equal(t, 1, m.LiveStacks())
		m.ReleaseImage(image)
		m.ReleaseStack(stack)
		m.ReleaseStack(stack)
		m.SetLevel(hal.Level0)
		_, _ = m.Console().Write([]byte("hi"))
		m.PowerOff()
	})
	require.NoError(t, err)
	assert.Equal(t, 0, m.LiveImages())
	assert.Equal(t, 0, m.LiveStacks())
	assert.Equal(t, "hi", console.String())
	assert.Equal(t, 1, m.Ticks())
}
