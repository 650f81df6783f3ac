package simulator_test

import (
	"testing"
	"time"

	"github.com/cuemby/flowsim/pkg/calendar"
	"github.com/cuemby/flowsim/pkg/flow"
	"github.com/cuemby/flowsim/pkg/simulator"
	"github.com/cuemby/flowsim/pkg/types"
	"github.com/cuemby/flowsim/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func weekdayCalendar(t *testing.T) *calendar.Calendar {
	t.Helper()
	cal, err := calendar.New(types.CalendarSpec{
		Weekdays: []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday},
		Shifts:   []types.ShiftInterval{{Start: "08:00", End: "16:00"}},
	})
	require.NoError(t, err)
	return cal
}

func monday() time.Time { return time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC) }

func buildClassified(t *testing.T, spec types.FlowSpec) *validator.Classified {
	t.Helper()
	f, err := flow.Build(spec)
	require.NoError(t, err)
	cls, err := validator.Validate(f)
	require.NoError(t, err)
	return cls
}

func instanceByTaskID(result *types.SimulationResult, id string) types.TaskInstance {
	for _, inst := range result.Instances {
		if inst.TaskID == id {
			return inst
		}
	}
	return types.TaskInstance{}
}

func TestRunEmptyDemandProducesEmptyResult(t *testing.T) {
	cls := buildClassified(t, types.FlowSpec{
		ID:    "f",
		Tasks: []types.TaskDefinition{{ID: "A", DurationMinutes: 30, Workers: []string{"W1"}}},
	})
	cal := weekdayCalendar(t)
	result, err := simulator.Run(cls, cal, nil, monday())
	require.NoError(t, err)
	assert.Empty(t, result.Instances)
	assert.Zero(t, result.Makespan.Minutes())
}

func TestRunLinearChainTwoWorkers(t *testing.T) {
	cls := buildClassified(t, types.FlowSpec{
		ID: "f",
		Tasks: []types.TaskDefinition{
			{ID: "A", Kind: types.TaskKindOrdinary, DurationMinutes: 30, Workers: []string{"W1"}, Order: 0},
			{ID: "B", Kind: types.TaskKindOrdinary, DurationMinutes: 30, Workers: []string{"W2"}, Order: 1},
		},
		Dependencies: []types.DependencyEdge{{Predecessor: "A", Successor: "B"}},
	})
	cal := weekdayCalendar(t)
	start := monday()

	result, err := simulator.Run(cls, cal, []simulator.UnitSeed{{Index: 0}}, start)
	require.NoError(t, err)
	require.Len(t, result.Instances, 2)

	a := instanceByTaskID(result, "A")
	b := instanceByTaskID(result, "B")
	assert.Equal(t, start, a.Start)
	assert.Equal(t, start.Add(30*time.Minute), a.End)
	assert.Equal(t, a.End, b.Start)
	assert.Equal(t, b.Start.Add(30*time.Minute), b.End)
	assert.Equal(t, b.End, result.Makespan.End)
	assert.True(t, cal.Contains(a.Start, a.End))
	assert.True(t, cal.Contains(b.Start, b.End))
}

func TestRunTwoWorkerFanOutRunsInParallel(t *testing.T) {
	cls := buildClassified(t, types.FlowSpec{
		ID: "f",
		Tasks: []types.TaskDefinition{
			{ID: "R", DurationMinutes: 10, Workers: []string{"W1"}, Order: 0},
			{ID: "P", DurationMinutes: 60, Workers: []string{"W1"}, Order: 1},
			{ID: "Q", DurationMinutes: 60, Workers: []string{"W2"}, Order: 2},
		},
		Dependencies: []types.DependencyEdge{
			{Predecessor: "R", Successor: "P"},
			{Predecessor: "R", Successor: "Q"},
		},
	})
	cal := weekdayCalendar(t)
	start := monday()

	result, err := simulator.Run(cls, cal, []simulator.UnitSeed{{Index: 0}}, start)
	require.NoError(t, err)
	require.Len(t, result.Instances, 3)

	r := instanceByTaskID(result, "R")
	p := instanceByTaskID(result, "P")
	q := instanceByTaskID(result, "Q")

	assert.Equal(t, start, r.Start)
	assert.Equal(t, start.Add(10*time.Minute), r.End)

	assert.Equal(t, r.End, p.Start)
	assert.Equal(t, r.End, q.Start, "P and Q both become ready the instant R finishes")
	assert.Equal(t, p.Start.Add(60*time.Minute), p.End)
	assert.Equal(t, q.Start.Add(60*time.Minute), q.End)
	assert.Equal(t, p.End, q.End, "P and Q run concurrently on distinct workers")

	assert.Equal(t, start.Add(70*time.Minute), result.Makespan.End)
}

func TestRunWorkerContentionDelaysSecondRootAndTagsReason(t *testing.T) {
	cls := buildClassified(t, types.FlowSpec{
		ID: "f",
		Tasks: []types.TaskDefinition{
			{ID: "A", DurationMinutes: 60, Workers: []string{"W1"}, Order: 0},
			{ID: "C", DurationMinutes: 30, Workers: []string{"W1"}, Order: 1},
		},
	})
	cal := weekdayCalendar(t)
	start := monday()

	result, err := simulator.Run(cls, cal, []simulator.UnitSeed{{Index: 0}}, start)
	require.NoError(t, err)

	a := instanceByTaskID(result, "A")
	c := instanceByTaskID(result, "C")
	assert.Equal(t, start, a.Start)
	assert.Equal(t, start.Add(60*time.Minute), a.End)
	assert.Equal(t, a.End, c.Start, "C must wait for W1 to free up after A")
	assert.Equal(t, types.ReasonWaitedOnWorker, c.Reason)

	var attributed bool
	for _, e := range result.ReasonLog {
		if e.TaskID == "C" && e.Reason == types.ReasonWaitedOnWorker && e.Resource == "W1" {
			attributed = true
		}
	}
	assert.True(t, attributed, "reason log should attribute C's wait to W1")
}

func TestRunMachineContentionTagsReason(t *testing.T) {
	cls := buildClassified(t, types.FlowSpec{
		ID: "f",
		Tasks: []types.TaskDefinition{
			{ID: "A", Kind: types.TaskKindMechanicalProc, DurationMinutes: 60, Machine: "M1", Order: 0},
			{ID: "C", Kind: types.TaskKindMechanicalProc, DurationMinutes: 30, Machine: "M1", Order: 1},
		},
	})
	cal := weekdayCalendar(t)
	start := monday()

	result, err := simulator.Run(cls, cal, []simulator.UnitSeed{{Index: 0}}, start)
	require.NoError(t, err)

	c := instanceByTaskID(result, "C")
	assert.Equal(t, start.Add(60*time.Minute), c.Start)
	assert.Equal(t, types.ReasonWaitedOnMachine, c.Reason)
	assert.Equal(t, "M1", result.Bottleneck.Resource)
}

func TestRunLongTaskCrossesCalendarBoundary(t *testing.T) {
	cls := buildClassified(t, types.FlowSpec{
		ID:    "f",
		Tasks: []types.TaskDefinition{{ID: "A", DurationMinutes: 600, Workers: []string{"W1"}}},
	})
	cal := weekdayCalendar(t)
	start := monday() // Monday 08:00

	result, err := simulator.Run(cls, cal, []simulator.UnitSeed{{Index: 0}}, start)
	require.NoError(t, err)

	a := instanceByTaskID(result, "A")
	assert.Equal(t, types.ReasonWaitedOnCalendar, a.Reason)
	// 480 minutes Monday (08:00-16:00) + 120 minutes Tuesday (08:00-10:00).
	want := time.Date(2026, 1, 6, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, want, a.End)
}

func TestRunFixedCycleProducesExactlyNIterations(t *testing.T) {
	cls := buildClassified(t, types.FlowSpec{
		ID: "f",
		Tasks: []types.TaskDefinition{
			{ID: "H", Kind: types.TaskKindCycleHead, DurationMinutes: 30, Workers: []string{"W1"}, Order: 0},
			{ID: "T", Kind: types.TaskKindCycleTail, DurationMinutes: 30, Workers: []string{"W1"}, Order: 1},
		},
		Dependencies: []types.DependencyEdge{
			{Predecessor: "H", Successor: "T"},
			{Predecessor: "T", Successor: "H", Cyclic: true},
		},
		CycleGroups: []types.CycleGroup{
			{Name: "loop", HeadTaskID: "H", TailTaskID: "T", MemberTaskIDs: []string{"H", "T"}, BoundKind: types.CycleBoundFixed, FixedN: 2},
		},
	})
	cal := weekdayCalendar(t)
	start := monday()

	result, err := simulator.Run(cls, cal, []simulator.UnitSeed{{Index: 0}}, start)
	require.NoError(t, err)
	require.Len(t, result.Instances, 4)

	heads, tails := 0, 0
	for _, inst := range result.Instances {
		switch inst.TaskID {
		case "H":
			heads++
		case "T":
			tails++
		}
		assert.Equal(t, "loop", inst.CycleGroup)
	}
	assert.Equal(t, 2, heads)
	assert.Equal(t, 2, tails)
	assert.Equal(t, start.Add(2*time.Hour), result.Makespan.End)
}

func TestRunReassignmentMovesWorkerOnComplete(t *testing.T) {
	cls := buildClassified(t, types.FlowSpec{
		ID: "f",
		Tasks: []types.TaskDefinition{
			{
				ID: "A", DurationMinutes: 30, Workers: []string{"W1"}, Order: 0,
				Reassignment: &types.ReassignmentRule{
					Worker: "W1", SourceTaskID: "A", Trigger: types.TriggerOnComplete, TargetTaskID: "B",
				},
			},
			{ID: "B", Kind: types.TaskKindAutoTriggered, StartCondition: types.StartAutoOnEvent, DurationMinutes: 30, Order: 1},
		},
	})
	cal := weekdayCalendar(t)
	start := monday()

	result, err := simulator.Run(cls, cal, []simulator.UnitSeed{{Index: 0}}, start)
	require.NoError(t, err)

	a := instanceByTaskID(result, "A")
	b := instanceByTaskID(result, "B")
	assert.Equal(t, start.Add(30*time.Minute), a.End)
	assert.Equal(t, a.End, b.Start)
	assert.Equal(t, []string{"W1"}, b.Workers)
}

func TestRunDailyPreparationSkipsSecondUnitSameDay(t *testing.T) {
	cls := buildClassified(t, types.FlowSpec{
		ID: "f",
		Tasks: []types.TaskDefinition{
			{ID: "P", Kind: types.TaskKindPreparation, DailyPreparation: true, DurationMinutes: 15, Workers: []string{"W1"}, Order: 0},
		},
	})
	cal := weekdayCalendar(t)
	start := monday()

	result, err := simulator.Run(cls, cal, []simulator.UnitSeed{{Index: 0}, {Index: 1}}, start)
	require.NoError(t, err)
	require.Len(t, result.Instances, 2)

	var real, skipped int
	for _, inst := range result.Instances {
		if inst.Reason == types.ReasonDailyPrepSkipped {
			skipped++
			assert.Equal(t, inst.Start, inst.End)
		} else {
			real++
			assert.Equal(t, start.Add(15*time.Minute), inst.End)
		}
	}
	assert.Equal(t, 1, real)
	assert.Equal(t, 1, skipped)
}

func TestRunDeadlockWhenTaskNeverStaffed(t *testing.T) {
	cls := buildClassified(t, types.FlowSpec{
		ID: "f",
		Tasks: []types.TaskDefinition{
			{ID: "A", DurationMinutes: 30, Workers: []string{"W1"}, Order: 0},
			{ID: "B", Kind: types.TaskKindAutoTriggered, StartCondition: types.StartAutoOnEvent, DurationMinutes: 30, Order: 1},
		},
	})
	cal := weekdayCalendar(t)
	start := monday()

	_, err := simulator.Run(cls, cal, []simulator.UnitSeed{{Index: 0}}, start)
	require.Error(t, err)
	var deadlockErr *types.DeadlockError
	require.ErrorAs(t, err, &deadlockErr)
	assert.Contains(t, deadlockErr.BlockedTaskIDs, "B")
}

func TestRunZeroDurationTaskCompletesAtCalendarStart(t *testing.T) {
	cls := buildClassified(t, types.FlowSpec{
		ID:    "f",
		Tasks: []types.TaskDefinition{{ID: "A", DurationMinutes: 0, Workers: []string{"W1"}}},
	})
	cal := weekdayCalendar(t)
	start := monday()

	result, err := simulator.Run(cls, cal, []simulator.UnitSeed{{Index: 0}}, start)
	require.NoError(t, err)
	require.Len(t, result.Instances, 1)
	a := result.Instances[0]
	assert.Equal(t, start, a.Start)
	assert.Equal(t, start, a.End)
}
