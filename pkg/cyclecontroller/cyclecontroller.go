// Package cyclecontroller owns cycle-start/cycle-end semantics: the
// per-(unit, cycle-group) iteration counter, its open/closed status,
// and the regression back to the cycle head that makes a feedback loop
// repeat.
package cyclecontroller

import (
	"errors"
	"fmt"

	"github.com/cuemby/flowsim/pkg/flow"
	"github.com/cuemby/flowsim/pkg/types"
)

// ErrCycleNotStarted means OnTailComplete was called for a (unit, group)
// pair that never went through Start — a caller ordering bug, not a
// condition a valid flow can trigger.
var ErrCycleNotStarted = errors.New("cyclecontroller: tail completed for unstarted cycle")

// Status is where a (unit, cycle-group) pair sits in its lifecycle. The
// Controller moves a pair from StatusOpen straight to StatusClosed on the
// final tail completion; it never assigns StatusClosing.
type Status string

const (
	StatusOpen     Status = "open"
	StatusClosing  Status = "closing"
	StatusClosed   Status = "closed"
)

// Key identifies one cycle instance: a cycle group scoped to one
// simulation unit.
type Key struct {
	Unit  int
	Group string
}

// State is the iteration counter and status for one Key.
type State struct {
	Iteration      int // 1-based, strictly monotonic while open
	Status         Status
	FeederComplete bool // only meaningful for feeder-dependent bounds
}

// Controller tracks cycle state for every unit a simulation run touches.
type Controller struct {
	f      *flow.Flow
	groups map[string]*types.CycleGroup
	states map[Key]*State
}

// New builds a Controller for f's declared cycle groups.
func New(f *flow.Flow) *Controller {
	groups := make(map[string]*types.CycleGroup, len(f.CycleGroups))
	for i := range f.CycleGroups {
		groups[f.CycleGroups[i].Name] = &f.CycleGroups[i]
	}
	return &Controller{f: f, groups: groups, states: make(map[Key]*State)}
}

// Start opens iteration 1 of group for unit, if it is not already open.
// Idempotent: calling it again for the same (unit, group) returns the
// existing state unchanged.
func (c *Controller) Start(unit int, group string) *State {
	key := Key{Unit: unit, Group: group}
	if st, ok := c.states[key]; ok {
		return st
	}
	st := &State{Iteration: 1, Status: StatusOpen}
	c.states[key] = st
	return st
}

// State returns the current state for (unit, group), or nil if the
// cycle has not been started.
func (c *Controller) State(unit int, group string) *State {
	return c.states[Key{Unit: unit, Group: group}]
}

// IsOpenForIteration reports whether iteration k of (unit, group) is the
// currently open iteration — the gate the simulator's ready-check uses
// for every non-head member of a cycle group.
func (c *Controller) IsOpenForIteration(unit int, group string, k int) bool {
	st := c.State(unit, group)
	if st == nil {
		return false
	}
	return st.Status != StatusClosed && st.Iteration == k
}

// OnFeederComplete marks group's designated feeder task as finished for
// unit. The next tail completion observes this and closes the cycle
// instead of opening another iteration — "finish current iteration, then
// close" rather than cutting the in-flight iteration short.
func (c *Controller) OnFeederComplete(unit int, group string) {
	st := c.states[Key{Unit: unit, Group: group}]
	if st == nil {
		return
	}
	st.FeederComplete = true
}

// OnTailComplete advances the cycle after its tail task finishes
// iteration k. It reports the next iteration to open (0 if the cycle is
// now closed) and whether the cycle just closed. Returns
// ErrCycleNotStarted if (unit, group) never went through Start.
func (c *Controller) OnTailComplete(unit int, group string, k int) (nextIteration int, closed bool, err error) {
	key := Key{Unit: unit, Group: group}
	st := c.states[key]
	if st == nil {
		return 0, false, fmt.Errorf("%w: %s unit %d", ErrCycleNotStarted, group, unit)
	}
	cg := c.groups[group]

	mustClose := false
	switch cg.BoundKind {
	case types.CycleBoundFixed:
		mustClose = k >= cg.FixedN
	case types.CycleBoundUntilFeeder:
		mustClose = st.FeederComplete
	}

	if mustClose {
		st.Status = StatusClosed
		return 0, true, nil
	}

	st.Iteration = k + 1
	st.Status = StatusOpen
	return st.Iteration, false, nil
}

// HeadInstanceCount reports how many times group's head has been
// recorded as started for unit — the iteration counter the moment
// before OnTailComplete possibly advances it, used by the universal
// invariant that a fixed-bound cycle produces exactly N head instances.
func (c *Controller) HeadInstanceCount(unit int, group string) int {
	st := c.State(unit, group)
	if st == nil {
		return 0
	}
	if st.Status == StatusClosed {
		return st.Iteration
	}
	return st.Iteration
}
