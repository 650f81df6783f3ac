package cyclecontroller

import (
	"errors"
	"testing"

	"github.com/cuemby/flowsim/pkg/flow"
	"github.com/cuemby/flowsim/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedFlow(t *testing.T, n int) *flow.Flow {
	spec := types.FlowSpec{
		Tasks: []types.TaskDefinition{
			{ID: "H", Kind: types.TaskKindCycleHead, StartCondition: types.StartAutoOnEvent},
			{ID: "B", Kind: types.TaskKindOrdinary, StartCondition: types.StartAfterPredecessors},
			{ID: "T", Kind: types.TaskKindCycleTail, StartCondition: types.StartAfterPredecessors},
		},
		Dependencies: []types.DependencyEdge{
			{Predecessor: "H", Successor: "B"},
			{Predecessor: "B", Successor: "T"},
			{Predecessor: "T", Successor: "H", Cyclic: true},
		},
		CycleGroups: []types.CycleGroup{{
			Name: "loop", HeadTaskID: "H", TailTaskID: "T",
			MemberTaskIDs: []string{"H", "B", "T"},
			BoundKind:     types.CycleBoundFixed, FixedN: n,
		}},
	}
	f, err := flow.Build(spec)
	require.NoError(t, err)
	return f
}

func TestFixedBoundClosesAfterN(t *testing.T) {
	f := fixedFlow(t, 3)
	c := New(f)
	c.Start(0, "loop")

	next, closed, err := c.OnTailComplete(0, "loop", 1)
	require.NoError(t, err)
	assert.False(t, closed)
	assert.Equal(t, 2, next)

	next, closed, err = c.OnTailComplete(0, "loop", 2)
	require.NoError(t, err)
	assert.False(t, closed)
	assert.Equal(t, 3, next)

	_, closed, err = c.OnTailComplete(0, "loop", 3)
	require.NoError(t, err)
	assert.True(t, closed)
	assert.Equal(t, StatusClosed, c.State(0, "loop").Status)
}

func TestFixedBoundOneBehavesLikeLinearChain(t *testing.T) {
	f := fixedFlow(t, 1)
	c := New(f)
	c.Start(0, "loop")

	_, closed, err := c.OnTailComplete(0, "loop", 1)
	require.NoError(t, err)
	assert.True(t, closed)
}

func TestFeederDependentBoundWaitsForFeeder(t *testing.T) {
	spec := types.FlowSpec{
		Tasks: []types.TaskDefinition{
			{ID: "H", Kind: types.TaskKindCycleHead, StartCondition: types.StartAutoOnEvent},
			{ID: "T", Kind: types.TaskKindCycleTail, StartCondition: types.StartAfterPredecessors},
			{ID: "Feeder", Kind: types.TaskKindOrdinary, StartCondition: types.StartAfterPredecessors},
		},
		Dependencies: []types.DependencyEdge{
			{Predecessor: "H", Successor: "T"},
			{Predecessor: "T", Successor: "H", Cyclic: true},
		},
		CycleGroups: []types.CycleGroup{{
			Name: "loop", HeadTaskID: "H", TailTaskID: "T",
			MemberTaskIDs: []string{"H", "T"},
			BoundKind:     types.CycleBoundUntilFeeder, FeederTaskID: "Feeder",
		}},
	}
	f, err := flow.Build(spec)
	require.NoError(t, err)

	c := New(f)
	c.Start(0, "loop")

	next, closed, err := c.OnTailComplete(0, "loop", 1)
	require.NoError(t, err)
	require.False(t, closed)
	require.Equal(t, 2, next)

	c.OnFeederComplete(0, "loop")

	_, closed, err = c.OnTailComplete(0, "loop", 2)
	require.NoError(t, err)
	assert.True(t, closed)
}

func TestIsOpenForIteration(t *testing.T) {
	f := fixedFlow(t, 3)
	c := New(f)
	c.Start(0, "loop")

	assert.True(t, c.IsOpenForIteration(0, "loop", 1))
	assert.False(t, c.IsOpenForIteration(0, "loop", 2))

	_, _, err := c.OnTailComplete(0, "loop", 1)
	require.NoError(t, err)
	assert.True(t, c.IsOpenForIteration(0, "loop", 2))
	assert.False(t, c.IsOpenForIteration(0, "loop", 1))
}

func TestOnTailCompleteReportsUnstartedCycleAsError(t *testing.T) {
	f := fixedFlow(t, 3)
	c := New(f)

	_, closed, err := c.OnTailComplete(0, "loop", 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCycleNotStarted))
	assert.False(t, closed)
}
