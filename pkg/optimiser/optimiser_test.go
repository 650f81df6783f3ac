package optimiser

import (
	"errors"
	"testing"
	"time"

	"github.com/cuemby/flowsim/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func t0() time.Time { return time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC) }

// makespanForWorkers fakes the scenario-6 flow: three independent 60m
// tasks that can run one-per-worker in parallel. With w workers the
// makespan is ceil(3/w) serialized batches of 60 minutes each.
func makespanForWorkers(w int) time.Duration {
	batches := 3
	if w > 0 {
		batches = (3 + w - 1) / w
	}
	return time.Duration(batches*60) * time.Minute
}

func evaluateScenario6(vector types.WorkerCountVector) (*types.SimulationResult, error) {
	w := vector["workers"]
	return &types.SimulationResult{
		Makespan: types.Makespan{Start: t0(), End: t0().Add(makespanForWorkers(w))},
	}, nil
}

func TestRunFindsMinimumWorkersForParallelTasks(t *testing.T) {
	var evaluated []types.WorkerCountVector
	progress := func(r ProgressRecord) {
		evaluated = append(evaluated, r.Vector)
	}

	req := types.OptimiserRequest{
		Deadline:    t0().Add(90 * time.Minute),
		SearchSpace: map[string][2]int{"workers": {1, 3}},
	}
	result, err := Run(req, evaluateScenario6, progress, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Vector["workers"])
	assert.Equal(t, 60.0, result.Makespan.Minutes())
	assert.Equal(t, 2, result.CandidatesEvaluated)

	// Candidate 1 (the floor) is never evaluated directly: infeasibility
	// there is proven by monotonicity from candidate 2.
	for _, v := range evaluated {
		assert.NotEqual(t, 1, v["workers"])
	}
}

func TestRunReportsInfeasibleWhenCeilingMisses(t *testing.T) {
	req := types.OptimiserRequest{
		Deadline:    t0().Add(10 * time.Minute),
		SearchSpace: map[string][2]int{"workers": {1, 3}},
	}
	_, err := Run(req, evaluateScenario6, nil, nil)
	require.Error(t, err)
	var infeasible *types.InfeasibleError
	require.ErrorAs(t, err, &infeasible)
	assert.Equal(t, 1, infeasible.CandidatesEvaluated)
	assert.True(t, errors.Is(err, types.ErrInfeasible))
}

func TestRunHonoursAbort(t *testing.T) {
	calls := 0
	abort := func() bool {
		calls++
		return calls > 1
	}
	req := types.OptimiserRequest{
		Deadline:    t0().Add(90 * time.Minute),
		SearchSpace: map[string][2]int{"workers": {1, 3}},
	}
	_, err := Run(req, evaluateScenario6, nil, abort)
	require.Error(t, err)
	var cancelled *types.CancelledError
	require.ErrorAs(t, err, &cancelled)
	assert.True(t, errors.Is(err, types.ErrCancelled))
}

func TestRunCoordinateDescentOverTwoRoles(t *testing.T) {
	// Two roles, each contributing its own independent 60m-batch chain;
	// total makespan is the slower of the two chains.
	evaluate := func(vector types.WorkerCountVector) (*types.SimulationResult, error) {
		a := makespanForWorkers(vector["assembly"])
		b := makespanForWorkers(vector["packing"])
		worst := a
		if b > worst {
			worst = b
		}
		return &types.SimulationResult{Makespan: types.Makespan{Start: t0(), End: t0().Add(worst)}}, nil
	}

	req := types.OptimiserRequest{
		Deadline: t0().Add(90 * time.Minute),
		SearchSpace: map[string][2]int{
			"assembly": {1, 3},
			"packing":  {1, 3},
		},
	}
	result, err := Run(req, evaluate, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Vector["assembly"])
	assert.Equal(t, 3, result.Vector["packing"])
	assert.LessOrEqual(t, result.Makespan.Minutes(), 90.0)
}

func TestRunRejectsEmptySearchSpace(t *testing.T) {
	_, err := Run(types.OptimiserRequest{}, evaluateScenario6, nil, nil)
	assert.Error(t, err)
}
