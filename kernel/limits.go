package kernel

import "fmt"

// Limits are the kernel capacities. Tables are sized once from them and never grow.
type Limits struct {
	MaxProcesses         int `json:"maxProcesses" yaml:"maxProcesses"`
	MaxMutexes           int `json:"maxMutexes" yaml:"maxMutexes"`
	MaxMutexesPerProcess int `json:"maxMutexesPerProcess" yaml:"maxMutexesPerProcess"`
	MaxMutexName         int `json:"maxMutexName" yaml:"maxMutexName"`
	TicksPerSecond       int `json:"ticksPerSecond" yaml:"ticksPerSecond"`
	StackSize            int `json:"stackSize" yaml:"stackSize"`
}

// DefaultLimits returns the stock capacities
func DefaultLimits() Limits {
	return Limits{
		MaxProcesses:         10,
		MaxMutexes:           16,
		MaxMutexesPerProcess: 4,
		MaxMutexName:         8,
		TicksPerSecond:       100,
		StackSize:            32768,
	}
}

// Validate checks that every capacity is positive
func (l Limits) Validate() error {
	values := []struct {
		name  string
		value int
	}{
		{"maxProcesses", l.MaxProcesses},
		{"maxMutexes", l.MaxMutexes},
		{"maxMutexesPerProcess", l.MaxMutexesPerProcess},
		{"maxMutexName", l.MaxMutexName},
		{"ticksPerSecond", l.TicksPerSecond},
		{"stackSize", l.StackSize},
	}
	for _, v := range values {
		if v.value <= 0 {
			return fmt.Errorf("invalid limit %v: %v, must be positive", v.name, v.value)
		}
	}
	return nil
}
