package kernel

import (
	"errors"
	"fmt"
	"io"

	"github.com/opencomp-os/opencomp/internal/logger"
)

// State tracks the scheduler's boot state machine.
type State uint32

const (
	// StateUninitialized means the table has not been scanned yet.
	StateUninitialized State = iota
	// StateInitializing means init procedures are being invoked in table order.
	StateInitializing
	// StateRunning is terminal: the scheduler loops over tick procedures
	// forever and never leaves this state under normal operation.
	StateRunning
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitializing:
		return "initializing"
	case StateRunning:
		return "running"
	default:
		return fmt.Sprintf("state(%d)", uint32(s))
	}
}

var (
	// ErrAlreadyInitialized is returned when Initialize or Boot is called on a
	// scheduler that already ran its init phase.
	ErrAlreadyInitialized = errors.New("kernel: scheduler already initialized")
	// ErrNotRunning is returned by Step before the init phase completed.
	ErrNotRunning = errors.New("kernel: scheduler is not running")
)

// Config carries scheduler construction parameters.
type Config struct {
	// Console receives boot status lines. Defaults to io.Discard.
	Console io.Writer
	// Clock paces passes in Run. Defaults to a TickerClock at
	// DefaultTickInterval.
	Clock Clock
}

// Scheduler drives a component table: one init sweep, then an unbounded
// cooperative tick loop. All methods must be called from a single goroutine;
// the execution model is strictly run-to-completion with no preemption, so a
// component that ticks long delays every other component.
type Scheduler struct {
	table   *Table
	console io.Writer
	clock   Clock
	state   State
	passes  uint64
}

// New builds a scheduler over the given table. The table is expected to be
// fully assembled: nothing can be registered after this point.
func New(table *Table, cfg Config) *Scheduler {
	if cfg.Console == nil {
		cfg.Console = io.Discard
	}
	if cfg.Clock == nil {
		cfg.Clock = NewTickerClock(DefaultTickInterval)
	}
	return &Scheduler{
		table:   table,
		console: cfg.Console,
		clock:   cfg.Clock,
		state:   StateUninitialized,
	}
}

// State returns the current boot state.
func (s *Scheduler) State() State {
	return s.state
}

// Passes returns the number of completed tick passes.
func (s *Scheduler) Passes() uint64 {
	return s.passes
}

// Initialize scans the table once, in order, and invokes each present init
// procedure. A descriptor with an empty name is skipped entirely, matching
// the original table walk. An empty table is reported on the console and is
// not an error; the scheduler still transitions to Running with zero ticking
// components.
func (s *Scheduler) Initialize() error {
	if s.state != StateUninitialized {
		return ErrAlreadyInitialized
	}
	s.state = StateInitializing
	logger.L.Debug("kernel init phase", "components", s.table.Len())

	if s.table.Len() == 0 {
		fmt.Fprint(s.console, "No components found.\n")
		s.state = StateRunning
		return nil
	}

	for i := 0; i < s.table.Len(); i++ {
		c := s.table.At(i)
		if c.Name == "" {
			continue
		}
		if c.Version != nil {
			fmt.Fprintf(s.console, "Component: %s (%s) - init\n", c.Name, c.Version)
		} else {
			fmt.Fprintf(s.console, "Component: %s - init\n", c.Name)
		}
		if c.Init != nil {
			c.Init()
		}
	}

	s.state = StateRunning
	return nil
}

// Step executes exactly one pass: every present tick procedure, in table
// order, run to completion. A pass never interleaves with another pass.
func (s *Scheduler) Step() error {
	if s.state != StateRunning {
		return ErrNotRunning
	}
	for i := 0; i < s.table.Len(); i++ {
		if tick := s.table.At(i).Tick; tick != nil {
			tick()
		}
	}
	s.passes++
	return nil
}

// Run loops passes forever, waiting on the clock between them. It never
// returns. Initialize must have completed first.
func (s *Scheduler) Run() {
	logger.L.Info("kernel entering main loop")
	for {
		s.Step() //nolint:errcheck // only fails before Running
		s.clock.Wait()
	}
}

// Boot is the platform handoff: banner, init sweep, then the main loop. On
// success it never returns. The only failure is booting twice.
func (s *Scheduler) Boot() error {
	if s.state != StateUninitialized {
		return ErrAlreadyInitialized
	}

	fmt.Fprint(s.console, "OpenComp Kernel - Component-Based OS\n")
	fmt.Fprint(s.console, "====================================\n\n")

	if err := s.Initialize(); err != nil {
		return err
	}

	fmt.Fprint(s.console, "\nEntering main loop...\n")

	// Let the init messages sit on screen for one tick, like the settle
	// delay before the original loop.
	s.clock.Wait()

	s.Run()
	return nil // unreachable
}
