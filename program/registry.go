// Package program keeps the named programs process images are created from.
package program

import (
	"sort"
	"sync"

	"github.com/viant/minikernel/hal"
	"github.com/viant/minikernel/user"
)

// Registry maps program names to entry points; it resolves images for the simulated machine
type Registry struct {
	mu       sync.RWMutex
	programs map[string]hal.Program
}

// New creates an empty registry
func New() *Registry {
	return &Registry{programs: map[string]hal.Program{}}
}

// Register adds or replaces a program
func (r *Registry) Register(name string, program hal.Program) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.programs[name] = program
}

// RegisterMain adds a program whose process ends when main returns
func (r *Registry) RegisterMain(name string, main func(sys *user.Sys)) {
	r.Register(name, user.Wrap(main))
}

// Lookup returns a program by name
func (r *Registry) Lookup(name string) (hal.Program, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	program, ok := r.programs[name]
	return program, ok
}

// Names returns the sorted program names
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.programs))
	for name := range r.programs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
