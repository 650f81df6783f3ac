// Package validator runs the single pre-flight validation pass over a
// Flow before it is ever handed to the simulator: every id reference
// resolves, the ordinary-edge subgraph is a DAG, each cycle group is a
// single simple path from head to tail closed by exactly one back-edge,
// sequential groups form a clean chain, and every task is reachable
// from a root or a cycle-head seed, collecting every issue in one pass
// instead of failing on the first.
package validator

import (
	"github.com/cuemby/flowsim/pkg/flow"
	"github.com/cuemby/flowsim/pkg/types"
)

// Classified is a Flow annotated with the facts the validator derives:
// which cycle group (if any) owns each task, and which tasks are
// auto-triggered rather than predecessor-gated.
type Classified struct {
	Flow          *flow.Flow
	CycleOf       []string // per task index; "" if not in a cycle
	AutoTriggered []bool   // per task index
	Warnings      []types.ValidationIssue
}

// Validate runs every structural check against f. On success it returns
// a Classified flow and a nil error. If any fatal issue is found it
// returns a *types.FlowInvalidError carrying every issue (fatal and
// non-fatal) discovered during the pass.
func Validate(f *flow.Flow) (*Classified, error) {
	var issues []types.ValidationIssue
	n := len(f.Tasks)

	issues = append(issues, checkCycleGroups(f)...)
	issues = append(issues, checkOrdinaryEdgesAreDAG(f)...)
	issues = append(issues, checkGroupChains(f)...)

	cycleOf := make([]string, n)
	for i := range f.Tasks {
		if cg := f.CycleGroupOf(i); cg != nil {
			cycleOf[i] = cg.Name
		}
	}

	autoTriggered := make([]bool, n)
	for i := range f.Tasks {
		autoTriggered[i] = classifyAutoTriggered(f, i, cycleOf)
	}

	// A cycle-head's first iteration is always seeded directly by the
	// simulator, independent of its back-edge — only its second and later
	// iterations wait on the tail's completion. A plain auto-triggered
	// task that is not a cycle-head has no such external seed: something
	// else in the flow must run first to raise the event it waits on.
	cycleHead := make([]bool, n)
	for _, cg := range f.CycleGroups {
		if i := f.IndexOf(cg.HeadTaskID); i >= 0 {
			cycleHead[i] = true
		}
	}

	seeds := append([]int(nil), f.Roots()...)
	for i, isHead := range cycleHead {
		if isHead {
			seeds = append(seeds, i)
		}
	}
	if len(seeds) == 0 {
		issues = append(issues, types.ValidationIssue{
			Message: "flow has no root or cycle-head task: the simulator has nothing to seed at t0",
			Fatal:   true,
		})
	}

	issues = append(issues, checkReachability(f, seeds, autoTriggered)...)

	c := &Classified{Flow: f, CycleOf: cycleOf, AutoTriggered: autoTriggered}
	fatal := false
	for _, is := range issues {
		if is.Fatal {
			fatal = true
		} else {
			c.Warnings = append(c.Warnings, is)
		}
	}
	if fatal {
		return nil, &types.FlowInvalidError{Issues: issues}
	}
	return c, nil
}

// classifyAutoTriggered reports whether task i starts on an external
// event rather than on its ordinary predecessors completing: either it
// is declared StartAutoOnEvent, or every incoming edge it has is a
// cyclic back-edge from within its own cycle group (the cycle-head
// case), meaning it has no ordinary predecessor to wait on at all.
func classifyAutoTriggered(f *flow.Flow, i int, cycleOf []string) bool {
	t := f.Task(i)
	if t.StartCondition == types.StartAutoOnEvent {
		return true
	}
	if len(f.Predecessors(i)) > 0 {
		return false
	}
	cyc := f.CyclicPredecessors(i)
	if len(cyc) == 0 {
		return false
	}
	for _, p := range cyc {
		if cycleOf[p] != cycleOf[i] || cycleOf[i] == "" {
			return false
		}
	}
	return true
}

// checkCycleGroups verifies each cycle group is a single simple path
// from head to tail inside the ordinary-edge subgraph, closed by
// exactly one cyclic back-edge from tail to head.
func checkCycleGroups(f *flow.Flow) []types.ValidationIssue {
	var issues []types.ValidationIssue
	seen := make(map[string]bool)

	for _, cg := range f.CycleGroups {
		if seen[cg.Name] {
			issues = append(issues, types.ValidationIssue{
				Message: "cycle group name " + cg.Name + " is declared more than once",
				Fatal:   true,
			})
			continue
		}
		seen[cg.Name] = true

		members := make(map[int]bool, len(cg.MemberTaskIDs))
		for _, id := range cg.MemberTaskIDs {
			members[f.IndexOf(id)] = true
		}
		head := f.IndexOf(cg.HeadTaskID)
		tail := f.IndexOf(cg.TailTaskID)
		if !members[head] || !members[tail] {
			issues = append(issues, types.ValidationIssue{
				TaskID:  cg.Name,
				Message: "cycle group head/tail must be members of the group",
				Fatal:   true,
			})
			continue
		}

		backEdgeFound := false
		for _, s := range f.CyclicSuccessors(tail) {
			if s == head {
				backEdgeFound = true
			}
		}
		if !backEdgeFound {
			issues = append(issues, types.ValidationIssue{
				TaskID:  cg.Name,
				Message: "cycle group tail has no back-edge to its head",
				Fatal:   true,
			})
		}

		// Walk the ordinary-edge path from head; every member except the
		// tail must have exactly one ordinary successor within the group,
		// and every member except the head must have exactly one ordinary
		// predecessor within the group.
		for m := range members {
			predInGroup := 0
			for _, p := range f.Predecessors(m) {
				if members[p] {
					predInGroup++
				}
			}
			succInGroup := 0
			for _, s := range f.Successors(m) {
				if members[s] {
					succInGroup++
				}
			}
			if m != head && predInGroup != 1 {
				issues = append(issues, types.ValidationIssue{
					TaskID:  f.Task(m).ID,
					Message: "cycle member must have exactly one ordinary predecessor inside its group",
					Fatal:   true,
				})
			}
			if m != tail && succInGroup != 1 {
				issues = append(issues, types.ValidationIssue{
					TaskID:  f.Task(m).ID,
					Message: "cycle member must have exactly one ordinary successor inside its group",
					Fatal:   true,
				})
			}
		}

		if cg.BoundKind == types.CycleBoundFixed && cg.FixedN < 1 {
			issues = append(issues, types.ValidationIssue{
				TaskID:  cg.Name,
				Message: "fixed cycle bound must be at least 1",
				Fatal:   true,
			})
		}
	}
	return issues
}

// checkOrdinaryEdgesAreDAG reports a fatal issue if the subgraph formed
// by non-cyclic edges alone contains a cycle — a back-edge must always
// be explicitly marked Cyclic; an unmarked cycle is a flow-authoring
// error.
func checkOrdinaryEdgesAreDAG(f *flow.Flow) []types.ValidationIssue {
	n := len(f.Tasks)
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make([]int, n)
	var onCycle []int

	var visit func(i int) bool
	visit = func(i int) bool {
		color[i] = gray
		for _, s := range f.Successors(i) {
			if color[s] == gray {
				onCycle = append(onCycle, s)
				return true
			}
			if color[s] == white && visit(s) {
				return true
			}
		}
		color[i] = black
		return false
	}

	for i := 0; i < n; i++ {
		if color[i] == white && visit(i) {
			break
		}
	}
	if len(onCycle) == 0 {
		return nil
	}
	return []types.ValidationIssue{{
		TaskID:  f.Task(onCycle[0]).ID,
		Message: "ordinary (non-cyclic) dependency edges form a cycle; mark the feedback edge cyclic",
		Fatal:   true,
	}}
}

// checkGroupChains verifies every sequential GroupKey forms a single
// linear chain with positions 0..len-1 unique and contiguous.
func checkGroupChains(f *flow.Flow) []types.ValidationIssue {
	var issues []types.ValidationIssue
	byKey := make(map[string][]int)
	for i, t := range f.Tasks {
		if t.GroupKey != "" {
			byKey[t.GroupKey] = append(byKey[t.GroupKey], i)
		}
	}
	for key, members := range byKey {
		positions := make(map[int]int)
		for _, m := range members {
			positions[f.Task(m).GroupPosition]++
		}
		for pos := 0; pos < len(members); pos++ {
			if positions[pos] != 1 {
				issues = append(issues, types.ValidationIssue{
					TaskID:  key,
					Message: "sequential group must have a unique task at every position 0..n-1",
					Fatal:   true,
				})
				break
			}
		}
	}
	return issues
}

// checkReachability reports a fatal issue for any task that is neither
// a seed (root or cycle-head), nor reachable via ordinary edges from one,
// nor classified auto-triggered — such a task can never become ready.
func checkReachability(f *flow.Flow, seeds []int, autoTriggered []bool) []types.ValidationIssue {
	n := len(f.Tasks)
	reachable := make([]bool, n)
	var stack []int
	for _, r := range seeds {
		if !reachable[r] {
			reachable[r] = true
			stack = append(stack, r)
		}
	}
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, s := range f.Successors(i) {
			if !reachable[s] {
				reachable[s] = true
				stack = append(stack, s)
			}
		}
	}

	var issues []types.ValidationIssue
	for i := range f.Tasks {
		if reachable[i] || autoTriggered[i] {
			continue
		}
		issues = append(issues, types.ValidationIssue{
			TaskID:  f.Task(i).ID,
			Message: "task is unreachable: no root or auto-triggered path leads to it",
			Fatal:   true,
		})
	}
	return issues
}
