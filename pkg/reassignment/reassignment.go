// Package reassignment applies the rules that move a worker from one
// task's active assignment to another's when a trigger fires. It never
// preempts a running instance and only ever shifts a worker that
// already exists in the run, applying one decision at a time against
// shared state and reporting what it did rather than mutating silently.
package reassignment

import (
	"time"

	"github.com/cuemby/flowsim/pkg/ledger"
	"github.com/cuemby/flowsim/pkg/types"
)

// Outcome reports what Apply actually did, for the trace's reason log.
type Outcome string

const (
	OutcomeApplied    Outcome = "applied"
	OutcomeDeferred   Outcome = "deferred"    // worker still busy on a different instance
	OutcomeSuppressed Outcome = "suppressed"  // target already staffed and rule requires otherwise
)

// TargetStaffing reports whether rule.TargetTaskID currently has at
// least one worker active for its current iteration.
type TargetStaffing func(targetTaskID string) bool

// Controller evaluates reassignment rules against the shared ledger.
type Controller struct {
	l *ledger.Ledger
}

// New returns a Controller writing splices to l.
func New(l *ledger.Ledger) *Controller {
	return &Controller{l: l}
}

// Apply evaluates rule at time `at`. Because the simulator reserves a
// worker's intervals for its full duration the moment it is scheduled,
// "the worker is busy on a different instance" is exactly the ledger
// reporting that the worker is not free at `at`; Apply reads that
// straight off the ledger instead of the caller tracking it separately.
// On OutcomeDeferred the caller should retry Apply at the returned time.
func (c *Controller) Apply(rule *types.ReassignmentRule, at time.Time, staffed TargetStaffing) (Outcome, time.Time) {
	free := c.l.EarliestAvailable(rule.Worker, at)
	if free.After(at) {
		return OutcomeDeferred, free
	}

	if rule.OnlyIfTargetNotStaffed && staffed(rule.TargetTaskID) {
		return OutcomeSuppressed, time.Time{}
	}

	if err := c.l.Splice(rule.Worker, at, rule.SourceTaskID, rule.TargetTaskID); err != nil {
		// No open interval to splice (the worker never actually ran the
		// source task at this instant) — nothing to move.
		return OutcomeSuppressed, time.Time{}
	}
	return OutcomeApplied, time.Time{}
}

// ShouldFire reports whether rule's trigger condition holds for the
// given (trigger kind, iteration) pair observed on the source task.
func ShouldFire(rule *types.ReassignmentRule, trigger types.ReassignTrigger, iteration int) bool {
	if rule.Trigger != trigger {
		return false
	}
	if trigger == types.TriggerOnIterationK {
		return iteration == rule.IterationK
	}
	return true
}
