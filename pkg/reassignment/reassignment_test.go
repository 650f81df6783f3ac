package reassignment

import (
	"testing"
	"time"

	"github.com/cuemby/flowsim/pkg/ledger"
	"github.com/cuemby/flowsim/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func t0() time.Time { return time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC) }

func TestApplyMovesWorkerOnComplete(t *testing.T) {
	l := ledger.New()
	require.NoError(t, l.Reserve("W1", t0(), t0().Add(30*time.Minute), "A"))
	c := New(l)

	rule := &types.ReassignmentRule{Worker: "W1", SourceTaskID: "A", Trigger: types.TriggerOnComplete, TargetTaskID: "B"}
	outcome, _ := c.Apply(rule, t0().Add(30*time.Minute), func(string) bool { return false })
	assert.Equal(t, OutcomeApplied, outcome)

	avail := l.EarliestAvailable("W1", t0())
	assert.Equal(t, t0().Add(30*time.Minute), avail)
}

func TestApplyDefersWhileWorkerBusy(t *testing.T) {
	l := ledger.New()
	// W1 is already reserved on a different task-instance "A2" until 08:30;
	// Apply must defer rather than preempt it.
	require.NoError(t, l.Reserve("W1", t0(), t0().Add(30*time.Minute), "A2"))
	c := New(l)
	rule := &types.ReassignmentRule{Worker: "W1", SourceTaskID: "A", Trigger: types.TriggerOnComplete, TargetTaskID: "B"}

	outcome, resumeAt := c.Apply(rule, t0().Add(10*time.Minute), func(string) bool { return false })
	assert.Equal(t, OutcomeDeferred, outcome)
	assert.Equal(t, t0().Add(30*time.Minute), resumeAt)
}

func TestApplySuppressedWhenTargetAlreadyStaffed(t *testing.T) {
	l := ledger.New()
	require.NoError(t, l.Reserve("W1", t0(), t0().Add(10*time.Minute), "A"))
	c := New(l)
	rule := &types.ReassignmentRule{
		Worker: "W1", SourceTaskID: "A", Trigger: types.TriggerOnComplete,
		TargetTaskID: "B", OnlyIfTargetNotStaffed: true,
	}
	outcome, _ := c.Apply(rule, t0().Add(10*time.Minute), func(target string) bool { return target == "B" })
	assert.Equal(t, OutcomeSuppressed, outcome)
}

func TestShouldFireMatchesIterationTrigger(t *testing.T) {
	rule := &types.ReassignmentRule{Trigger: types.TriggerOnIterationK, IterationK: 2}
	assert.True(t, ShouldFire(rule, types.TriggerOnIterationK, 2))
	assert.False(t, ShouldFire(rule, types.TriggerOnIterationK, 1))
	assert.False(t, ShouldFire(rule, types.TriggerOnComplete, 2))
}
