// Package kernel implements the OpenComp component model: a fixed table of
// statically registered components driven by a cooperative round-robin
// scheduler. Components provide optional init and tick procedures and are
// executed strictly single-threaded, in registration order.
package kernel

import (
	semver "github.com/Masterminds/semver/v3"
)

// Component describes one pluggable unit. A descriptor is immutable once
// handed to a Table: the scheduler only ever reads it.
//
// Init runs exactly once during boot, before any Tick. Tick runs once per
// scheduler pass, forever. Either may be nil, which means "nothing to do".
// Neither has an error return; a component that needs to report a fault does
// so through its own output channel (typically the console).
type Component struct {
	// Name identifies the component in boot messages. Non-empty, unique by
	// convention (not enforced).
	Name string

	// Version is optional and only used for reporting.
	Version *semver.Version

	Init func()
	Tick func()
}

// Table is an ordered, immutable sequence of component descriptors assembled
// before the scheduler starts. Iteration order is construction order; that is
// the only ordering guarantee the kernel offers. Components cannot be added
// or removed once the table exists.
type Table struct {
	components []Component
}

// NewTable builds a component table. The registration list is copied, so the
// caller's slice cannot mutate the table afterwards.
func NewTable(components ...Component) *Table {
	t := &Table{components: make([]Component, len(components))}
	copy(t.components, components)
	return t
}

// Len returns the number of registered components.
func (t *Table) Len() int {
	return len(t.components)
}

// At returns the descriptor at position i in registration order.
func (t *Table) At(i int) Component {
	return t.components[i]
}

// Names returns the component names in registration order.
func (t *Table) Names() []string {
	names := make([]string, len(t.components))
	for i, c := range t.components {
		names[i] = c.Name
	}
	return names
}
