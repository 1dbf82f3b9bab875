package sim

import "io"

// Option customises a Machine
type Option func(m *Machine)

// WithConfig sets the machine configuration
func WithConfig(config Config) Option {
	return func(m *Machine) {
		m.config = config
	}
}

// WithConsole sets the console device
func WithConsole(w io.Writer) Option {
	return func(m *Machine) {
		if w != nil {
			m.console = w
		}
	}
}

// WithPrograms sets the program resolver used by CreateImage
func WithPrograms(programs Programs) Option {
	return func(m *Machine) {
		if programs != nil {
			m.programs = programs
		}
	}
}
