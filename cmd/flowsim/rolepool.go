package main

import (
	"fmt"
	"sort"

	"github.com/cuemby/flowsim/pkg/types"
)

// scaleFlow expands a candidate worker-count vector into a concrete
// FlowSpec for one optimiser evaluation. Every task's Workers entry
// that equals a role named in vector is a tunable pool: the tasks
// referencing that role are walked in declared Order and handed one of
// vector[role] generated instances ("role-1".."role-N") round-robin, so
// two tasks sharing the same instance serialize on it while tasks that
// land on distinct instances run in parallel. A Workers entry that
// names no role in vector is a literal, non-tunable assignment and
// passes through unchanged.
func scaleFlow(base types.FlowSpec, vector types.WorkerCountVector) types.FlowSpec {
	out := base
	out.Tasks = append([]types.TaskDefinition(nil), base.Tasks...)

	order := make([]int, len(out.Tasks))
	for i := range out.Tasks {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return out.Tasks[order[i]].Order < out.Tasks[order[j]].Order
	})

	seq := make(map[string]int, len(vector))
	for _, idx := range order {
		t := out.Tasks[idx]
		workers := append([]string(nil), t.Workers...)
		changed := false
		for wi, w := range workers {
			n, isRole := vector[w]
			if !isRole {
				continue
			}
			if n < 1 {
				n = 1
			}
			instance := fmt.Sprintf("%s-%d", w, seq[w]%n+1)
			seq[w]++
			workers[wi] = instance
			changed = true
		}
		if changed {
			t.Workers = workers
			out.Tasks[idx] = t
		}
	}
	return out
}
