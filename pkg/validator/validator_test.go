package validator

import (
	"testing"

	"github.com/cuemby/flowsim/pkg/flow"
	"github.com/cuemby/flowsim/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func task(id string, start types.StartCondition) types.TaskDefinition {
	return types.TaskDefinition{ID: id, Kind: types.TaskKindOrdinary, DurationMinutes: 10, StartCondition: start}
}

func TestValidLinearFlowPasses(t *testing.T) {
	spec := types.FlowSpec{
		Tasks: []types.TaskDefinition{
			task("A", types.StartAfterPredecessors),
			task("B", types.StartAfterPredecessors),
			task("C", types.StartAfterPredecessors),
		},
		Dependencies: []types.DependencyEdge{
			{Predecessor: "A", Successor: "B"},
			{Predecessor: "B", Successor: "C"},
		},
	}
	f, err := flow.Build(spec)
	require.NoError(t, err)

	c, err := Validate(f)
	require.NoError(t, err)
	assert.Empty(t, c.Warnings)
	assert.False(t, c.AutoTriggered[f.IndexOf("A")])
}

func TestCycleGroupValidatesPath(t *testing.T) {
	spec := types.FlowSpec{
		Tasks: []types.TaskDefinition{
			task("H", types.StartAutoOnEvent),
			task("M", types.StartAfterPredecessors),
			task("T", types.StartAfterPredecessors),
		},
		Dependencies: []types.DependencyEdge{
			{Predecessor: "H", Successor: "M"},
			{Predecessor: "M", Successor: "T"},
			{Predecessor: "T", Successor: "H", Cyclic: true},
		},
		CycleGroups: []types.CycleGroup{{
			Name: "cycle1", HeadTaskID: "H", TailTaskID: "T",
			MemberTaskIDs: []string{"H", "M", "T"},
			BoundKind:     types.CycleBoundFixed, FixedN: 3,
		}},
	}
	f, err := flow.Build(spec)
	require.NoError(t, err)

	c, err := Validate(f)
	require.NoError(t, err)
	assert.Equal(t, "cycle1", c.CycleOf[f.IndexOf("H")])
	assert.Equal(t, "cycle1", c.CycleOf[f.IndexOf("T")])
}

func TestMissingBackEdgeIsFatal(t *testing.T) {
	spec := types.FlowSpec{
		Tasks: []types.TaskDefinition{
			task("H", types.StartAutoOnEvent),
			task("T", types.StartAfterPredecessors),
		},
		Dependencies: []types.DependencyEdge{
			{Predecessor: "H", Successor: "T"},
		},
		CycleGroups: []types.CycleGroup{{
			Name: "cycle1", HeadTaskID: "H", TailTaskID: "T",
			MemberTaskIDs: []string{"H", "T"},
			BoundKind:     types.CycleBoundFixed, FixedN: 2,
		}},
	}
	f, err := flow.Build(spec)
	require.NoError(t, err)

	_, err = Validate(f)
	require.Error(t, err)
	var invalid *types.FlowInvalidError
	require.ErrorAs(t, err, &invalid)
	assert.NotEmpty(t, invalid.FatalIssues())
}

func TestOrdinaryCycleWithoutMarkingIsFatal(t *testing.T) {
	spec := types.FlowSpec{
		Tasks: []types.TaskDefinition{
			task("A", types.StartAfterPredecessors),
			task("B", types.StartAfterPredecessors),
		},
		Dependencies: []types.DependencyEdge{
			{Predecessor: "A", Successor: "B"},
			{Predecessor: "B", Successor: "A"},
		},
	}
	f, err := flow.Build(spec)
	require.NoError(t, err)

	_, err = Validate(f)
	require.ErrorIs(t, err, types.ErrFlowInvalid)
}

func TestMultipleIndependentRootsPass(t *testing.T) {
	spec := types.FlowSpec{
		Tasks: []types.TaskDefinition{
			task("A", types.StartAfterPredecessors),
			task("B", types.StartAfterPredecessors),
			task("Orphan", types.StartAfterPredecessors),
		},
		Dependencies: []types.DependencyEdge{
			{Predecessor: "A", Successor: "B"},
		},
	}
	f, err := flow.Build(spec)
	require.NoError(t, err)

	_, err = Validate(f)
	require.NoError(t, err)
	assert.Len(t, f.Roots(), 2) // A and Orphan both have in-degree 0
}

func TestSequentialGroupDuplicatePositionIsFatal(t *testing.T) {
	a := task("A", types.StartAfterPredecessors)
	a.GroupKey, a.GroupPosition = "seq", 0
	b := task("B", types.StartAfterPredecessors)
	b.GroupKey, b.GroupPosition = "seq", 0

	spec := types.FlowSpec{Tasks: []types.TaskDefinition{a, b}}
	f, err := flow.Build(spec)
	require.NoError(t, err)

	_, err = Validate(f)
	require.ErrorIs(t, err, types.ErrFlowInvalid)
}

func TestAutoTriggeredOnlyFlowWithNoSeedIsFatal(t *testing.T) {
	// Neither task is a graph root, and neither is declared as a
	// cycle-head, so nothing ever runs to raise the event either one
	// waits on.
	spec := types.FlowSpec{
		Tasks: []types.TaskDefinition{
			task("A", types.StartAutoOnEvent),
			task("B", types.StartAutoOnEvent),
		},
		Dependencies: []types.DependencyEdge{
			{Predecessor: "A", Successor: "B", Cyclic: true},
			{Predecessor: "B", Successor: "A", Cyclic: true},
		},
	}
	f, err := flow.Build(spec)
	require.NoError(t, err)

	_, err = Validate(f)
	require.ErrorIs(t, err, types.ErrFlowInvalid)
}
