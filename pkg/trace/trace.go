package trace

import (
	"sort"
	"sync"

	"github.com/cuemby/flowsim/pkg/types"
)

// Subscriber receives every task-instance as it completes, in completion
// order. Buffered so a slow watcher cannot stall the simulator; a full
// subscriber simply misses instances rather than blocking RecordInstance.
type Subscriber chan types.TaskInstance

// Recorder accumulates one simulation run's output: completed
// task-instances in completion order and the reason-log entries the
// ready-check logic attaches along the way. It also fans completed
// instances out to any live subscribers, the same broadcast shape as the
// teacher's events.Broker, specialised to one payload type instead of a
// generic envelope.
type Recorder struct {
	mu          sync.Mutex
	instances   []types.TaskInstance
	reasonLog   []types.ReasonLogEntry
	subscribers map[Subscriber]bool
}

// New returns an empty Recorder.
func New() *Recorder {
	return &Recorder{subscribers: make(map[Subscriber]bool)}
}

// Subscribe registers a new Subscriber. Callers must Unsubscribe when
// done watching.
func (r *Recorder) Subscribe() Subscriber {
	r.mu.Lock()
	defer r.mu.Unlock()
	sub := make(Subscriber, 32)
	r.subscribers[sub] = true
	return sub
}

// Unsubscribe removes and closes sub. A no-op if sub is not registered.
func (r *Recorder) Unsubscribe(sub Subscriber) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.subscribers[sub] {
		delete(r.subscribers, sub)
		close(sub)
	}
}

// SubscriberCount reports how many subscribers are currently registered.
func (r *Recorder) SubscriberCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.subscribers)
}

// RecordInstance appends a completed task-instance and broadcasts it to
// every live subscriber.
func (r *Recorder) RecordInstance(inst types.TaskInstance) {
	r.mu.Lock()
	r.instances = append(r.instances, inst)
	subs := make([]Subscriber, 0, len(r.subscribers))
	for s := range r.subscribers {
		subs = append(subs, s)
	}
	r.mu.Unlock()

	for _, s := range subs {
		select {
		case s <- inst:
		default:
			// subscriber is behind; drop rather than block the run.
		}
	}
}

// RecordReason appends one reason-log entry.
func (r *Recorder) RecordReason(entry types.ReasonLogEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reasonLog = append(r.reasonLog, entry)
}

// Instances returns a copy of every instance recorded so far, in
// completion order.
func (r *Recorder) Instances() []types.TaskInstance {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]types.TaskInstance, len(r.instances))
	copy(out, r.instances)
	return out
}

// ReasonLog returns a copy of the reason log recorded so far.
func (r *Recorder) ReasonLog() []types.ReasonLogEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]types.ReasonLogEntry, len(r.reasonLog))
	copy(out, r.reasonLog)
	return out
}

// Bottleneck tallies reason-log entries by the resource they were
// attributed to and returns the resource with the most hits. Entries with
// no resource (predecessor and calendar waits) do not count toward any
// resource's tally; every entry that names a resource counts, including
// the reassignment and daily-prep-skip entries the simulator attributes
// to a worker. Ties are broken by whichever
// resource's first hit appears earliest in the log.
func Bottleneck(reasonLog []types.ReasonLogEntry) types.BottleneckReport {
	counts := make(map[string]int)
	order := make(map[string]int)
	for i, e := range reasonLog {
		if e.Resource == "" {
			continue
		}
		if _, seen := order[e.Resource]; !seen {
			order[e.Resource] = i
		}
		counts[e.Resource]++
	}

	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return order[names[i]] < order[names[j]] })

	var best types.BottleneckReport
	for _, name := range names {
		if counts[name] > best.WaitHits {
			best = types.BottleneckReport{Resource: name, WaitHits: counts[name]}
		}
	}
	return best
}
