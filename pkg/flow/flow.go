// Package flow holds the in-memory Flow graph: tasks stored in a
// contiguous arena and addressed by small integer index, dependencies as
// index pairs with a cyclic flag, and cycle groups as sets of indices.
// Arena indices plus back-edge marking stand in for a pointer graph with
// real back-references, so a Flow with feedback loops never needs
// cyclic pointers.
package flow

import (
	"fmt"

	"github.com/cuemby/flowsim/pkg/types"
)

// Edge is a dependency between two task indices in a Flow's arena.
type Edge struct {
	Predecessor int
	Successor   int
	Cyclic      bool
}

// Flow is the canonical, arena-indexed production flow.
type Flow struct {
	ID          string
	CalendarRef string
	Tasks       []types.TaskDefinition // arena; index is the task's id
	indexByID   map[string]int
	Edges       []Edge
	CycleGroups []types.CycleGroup

	preds    [][]int // non-cyclic predecessor indices, per task index
	succs    [][]int // non-cyclic successor indices, per task index
	cycPreds [][]int // cyclic (back-edge) predecessor indices
	cycSuccs [][]int // cyclic (back-edge) successor indices
}

// IndexOf returns the arena index of taskID, or -1 if unknown.
func (f *Flow) IndexOf(taskID string) int {
	i, ok := f.indexByID[taskID]
	if !ok {
		return -1
	}
	return i
}

// Task returns the TaskDefinition at index i.
func (f *Flow) Task(i int) *types.TaskDefinition {
	return &f.Tasks[i]
}

// Predecessors returns the non-cyclic predecessor indices of task i.
func (f *Flow) Predecessors(i int) []int { return f.preds[i] }

// Successors returns the non-cyclic successor indices of task i.
func (f *Flow) Successors(i int) []int { return f.succs[i] }

// CyclicPredecessors returns the back-edge predecessor indices of task i
// (non-empty only for a cycle-head, whose back-edge arrives from the
// cycle-tail).
func (f *Flow) CyclicPredecessors(i int) []int { return f.cycPreds[i] }

// CyclicSuccessors returns the back-edge successor indices of task i.
func (f *Flow) CyclicSuccessors(i int) []int { return f.cycSuccs[i] }

// Roots returns the indices of every task with in-degree 0 across all
// edges (cyclic and non-cyclic) — a task reachable only via a back-edge
// is not a root.
func (f *Flow) Roots() []int {
	var roots []int
	for i := range f.Tasks {
		if len(f.preds[i]) == 0 && len(f.cycPreds[i]) == 0 {
			roots = append(roots, i)
		}
	}
	return roots
}

// Build indexes a FlowSpec into an arena-addressed Flow. It performs no
// validation beyond resolving ids to indices; Build fails only if two
// tasks share an id, or an edge, cycle group, or reassignment rule
// references an id that is not declared in Spec.Tasks.
func Build(spec types.FlowSpec) (*Flow, error) {
	f := &Flow{
		ID:          spec.ID,
		CalendarRef: spec.CalendarRef,
		Tasks:       append([]types.TaskDefinition(nil), spec.Tasks...),
		indexByID:   make(map[string]int, len(spec.Tasks)),
		CycleGroups: append([]types.CycleGroup(nil), spec.CycleGroups...),
	}
	for i, t := range f.Tasks {
		if _, dup := f.indexByID[t.ID]; dup {
			return nil, fmt.Errorf("duplicate task id %q", t.ID)
		}
		f.indexByID[t.ID] = i
	}

	n := len(f.Tasks)
	f.preds = make([][]int, n)
	f.succs = make([][]int, n)
	f.cycPreds = make([][]int, n)
	f.cycSuccs = make([][]int, n)

	for _, e := range spec.Dependencies {
		pi, ok := f.indexByID[e.Predecessor]
		if !ok {
			return nil, fmt.Errorf("dependency references unknown predecessor %q", e.Predecessor)
		}
		si, ok := f.indexByID[e.Successor]
		if !ok {
			return nil, fmt.Errorf("dependency references unknown successor %q", e.Successor)
		}
		f.Edges = append(f.Edges, Edge{Predecessor: pi, Successor: si, Cyclic: e.Cyclic})
		if e.Cyclic {
			f.cycSuccs[pi] = append(f.cycSuccs[pi], si)
			f.cycPreds[si] = append(f.cycPreds[si], pi)
		} else {
			f.succs[pi] = append(f.succs[pi], si)
			f.preds[si] = append(f.preds[si], pi)
		}
	}

	for _, cg := range f.CycleGroups {
		for _, id := range append([]string{cg.HeadTaskID, cg.TailTaskID}, cg.MemberTaskIDs...) {
			if _, ok := f.indexByID[id]; !ok {
				return nil, fmt.Errorf("cycle group %q references unknown task %q", cg.Name, id)
			}
		}
		if cg.BoundKind == types.CycleBoundUntilFeeder {
			if _, ok := f.indexByID[cg.FeederTaskID]; !ok {
				return nil, fmt.Errorf("cycle group %q references unknown feeder %q", cg.Name, cg.FeederTaskID)
			}
		}
	}

	for _, t := range f.Tasks {
		if t.Reassignment == nil {
			continue
		}
		if _, ok := f.indexByID[t.Reassignment.TargetTaskID]; !ok {
			return nil, fmt.Errorf("task %q reassignment references unknown target %q", t.ID, t.Reassignment.TargetTaskID)
		}
	}

	return f, nil
}

// CycleGroupOf returns the cycle group owning task index i, or nil if
// the task is not part of any cycle.
func (f *Flow) CycleGroupOf(i int) *types.CycleGroup {
	id := f.Tasks[i].ID
	for gi := range f.CycleGroups {
		cg := &f.CycleGroups[gi]
		for _, m := range cg.MemberTaskIDs {
			if m == id {
				return cg
			}
		}
	}
	return nil
}
