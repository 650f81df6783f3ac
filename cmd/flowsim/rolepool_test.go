package main

import (
	"testing"

	"github.com/cuemby/flowsim/pkg/types"
	"github.com/stretchr/testify/assert"
)

func threeIndependentTasks() types.FlowSpec {
	return types.FlowSpec{
		ID: "scenario-6",
		Tasks: []types.TaskDefinition{
			{ID: "a", DurationMinutes: 60, Workers: []string{"assembly"}, Order: 0},
			{ID: "b", DurationMinutes: 60, Workers: []string{"assembly"}, Order: 1},
			{ID: "c", DurationMinutes: 60, Workers: []string{"assembly"}, Order: 2},
		},
	}
}

func TestScaleFlowAssignsDistinctInstancesUpToCount(t *testing.T) {
	scaled := scaleFlow(threeIndependentTasks(), types.WorkerCountVector{"assembly": 3})

	seen := map[string]bool{}
	for _, task := range scaled.Tasks {
		assert.Len(t, task.Workers, 1)
		seen[task.Workers[0]] = true
	}
	assert.Len(t, seen, 3)
}

func TestScaleFlowSharesOneInstanceAtCountOne(t *testing.T) {
	scaled := scaleFlow(threeIndependentTasks(), types.WorkerCountVector{"assembly": 1})

	for _, task := range scaled.Tasks {
		assert.Equal(t, []string{"assembly-1"}, task.Workers)
	}
}

func TestScaleFlowRoundRobinsWhenCountBelowTaskCount(t *testing.T) {
	scaled := scaleFlow(threeIndependentTasks(), types.WorkerCountVector{"assembly": 2})

	assert.Equal(t, []string{"assembly-1"}, scaled.Tasks[0].Workers)
	assert.Equal(t, []string{"assembly-2"}, scaled.Tasks[1].Workers)
	assert.Equal(t, []string{"assembly-1"}, scaled.Tasks[2].Workers)
}

func TestScaleFlowLeavesLiteralWorkersUntouched(t *testing.T) {
	base := types.FlowSpec{
		Tasks: []types.TaskDefinition{
			{ID: "inspect", DurationMinutes: 15, Workers: []string{"QA-inspector"}, Order: 0},
		},
	}
	scaled := scaleFlow(base, types.WorkerCountVector{"assembly": 3})
	assert.Equal(t, []string{"QA-inspector"}, scaled.Tasks[0].Workers)
}

func TestParseSearchSpaceParsesRoleBounds(t *testing.T) {
	space, err := parseSearchSpace([]string{"assembly=1:3", "packing=2:5"})
	assert.NoError(t, err)
	assert.Equal(t, [2]int{1, 3}, space["assembly"])
	assert.Equal(t, [2]int{2, 5}, space["packing"])
}

func TestParseSearchSpaceRejectsMalformedEntry(t *testing.T) {
	_, err := parseSearchSpace([]string{"assembly"})
	assert.Error(t, err)
}
