// Package ledger is the Resource Ledger: it tracks, for every worker and
// machine, the sorted set of occupied intervals and the pending
// next-free timestamp. Occupancy is indexed with github.com/google/btree
// so earliest_available and overlap checks are O(log n) instead of a
// linear scan of every interval ever recorded.
package ledger

import (
	"fmt"
	"time"

	"github.com/cuemby/flowsim/pkg/types"
	"github.com/google/btree"
)

// Interval is one occupied span on a resource.
type Interval struct {
	Start  time.Time
	End    time.Time
	TaskID string
}

func lessByStart(a, b Interval) bool { return a.Start.Before(b.Start) }

type resourceState struct {
	intervals *btree.BTreeG[Interval]
	nextFree  time.Time
}

// Ledger is the append-only record of resource occupancy. It is mutated
// exclusively by the simulator core and the reassignment controller; all
// other components only read from it.
type Ledger struct {
	resources map[string]*resourceState
}

// New returns an empty Ledger.
func New() *Ledger {
	return &Ledger{resources: make(map[string]*resourceState)}
}

func (l *Ledger) state(resource string) *resourceState {
	rs, ok := l.resources[resource]
	if !ok {
		rs = &resourceState{intervals: btree.NewG(32, lessByStart)}
		l.resources[resource] = rs
	}
	return rs
}

// conflictEnd reports the end time of an occupied interval that covers
// instant t, if any.
func (rs *resourceState) conflictEnd(t time.Time) (time.Time, bool) {
	var end time.Time
	found := false
	rs.intervals.DescendLessOrEqual(Interval{Start: t}, func(it Interval) bool {
		if it.End.After(t) {
			end = it.End
			found = true
		}
		return false
	})
	return end, found
}

// overlaps reports whether [start,end) intersects any already-recorded
// interval on rs.
func (rs *resourceState) overlaps(start, end time.Time) bool {
	if _, found := rs.conflictEnd(start); found {
		return true
	}
	conflict := false
	rs.intervals.AscendGreaterOrEqual(Interval{Start: start}, func(it Interval) bool {
		if it.Start.Before(end) {
			conflict = true
		}
		return false
	})
	return conflict
}

// Reserve records a new occupied interval [start,end) on resource,
// tagged with taskID. It fails with types.ErrOverlapDetected if the
// interval would overlap an existing reservation on the same resource.
func (l *Ledger) Reserve(resource string, start, end time.Time, taskID string) error {
	rs := l.state(resource)
	if rs.overlaps(start, end) {
		return fmt.Errorf("reserve %s [%s,%s) for %s: %w", resource, start, end, taskID, types.ErrOverlapDetected)
	}
	rs.intervals.ReplaceOrInsert(Interval{Start: start, End: end, TaskID: taskID})
	if end.After(rs.nextFree) {
		rs.nextFree = end
	}
	return nil
}

// EarliestAvailable returns the smallest t >= notBefore at which a new
// interval could begin on resource without overlapping an existing one.
func (l *Ledger) EarliestAvailable(resource string, notBefore time.Time) time.Time {
	rs := l.state(resource)
	candidate := notBefore
	for {
		end, found := rs.conflictEnd(candidate)
		if !found {
			return candidate
		}
		candidate = end
	}
}

// Splice closes the worker's current assignment on fromTaskID at "at"
// and marks the resource free starting at "at" for toTaskID, used
// exclusively by the reassignment controller. Because reassignment
// never preempts a running instance (§4.6), "at" is ordinarily exactly
// the end of fromTaskID's recorded interval; if it falls earlier, the
// interval is truncated to end at "at".
func (l *Ledger) Splice(resource string, at time.Time, fromTaskID, toTaskID string) error {
	rs := l.state(resource)
	var found *Interval
	rs.intervals.DescendLessOrEqual(Interval{Start: at}, func(it Interval) bool {
		if it.TaskID == fromTaskID && !it.Start.After(at) {
			v := it
			found = &v
		}
		return false
	})
	if found == nil {
		return fmt.Errorf("splice %s at %s: no open interval for task %s", resource, at, fromTaskID)
	}
	if found.End.After(at) {
		rs.intervals.Delete(*found)
		found.End = at
		rs.intervals.ReplaceOrInsert(*found)
	}
	if at.After(rs.nextFree) {
		rs.nextFree = at
	}
	return nil
}

// Occupancy returns all recorded intervals for resource, in start order.
func (l *Ledger) Occupancy(resource string) []types.OccupancyInterval {
	rs, ok := l.resources[resource]
	if !ok {
		return nil
	}
	var out []types.OccupancyInterval
	rs.intervals.Ascend(func(it Interval) bool {
		out = append(out, types.OccupancyInterval{Resource: resource, TaskID: it.TaskID, Start: it.Start, End: it.End})
		return true
	})
	return out
}

// Resources returns the names of every resource with at least one
// recorded reservation.
func (l *Ledger) Resources() []string {
	out := make([]string, 0, len(l.resources))
	for name := range l.resources {
		out = append(out, name)
	}
	return out
}

// Disjoint reports whether every pair of recorded intervals on resource
// is non-overlapping — the universal invariant that no resource is
// double-booked.
func (l *Ledger) Disjoint(resource string) bool {
	rs, ok := l.resources[resource]
	if !ok {
		return true
	}
	var prevEnd time.Time
	ok2 := true
	first := true
	rs.intervals.Ascend(func(it Interval) bool {
		if !first && it.Start.Before(prevEnd) {
			ok2 = false
			return false
		}
		prevEnd = it.End
		first = false
		return true
	})
	return ok2
}
