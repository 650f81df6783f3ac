package eventqueue

import (
	"container/heap"
	"time"
)

// Kind discriminates the payload carried by an Event.
type Kind string

const (
	KindReadyCheck          Kind = "ready-check"
	KindWorkerFree          Kind = "worker-free"
	KindMachineFree         Kind = "machine-free"
	KindTaskComplete        Kind = "task-complete"
	KindReassignmentTrigger Kind = "reassignment-trigger"
	KindIterationAdvance    Kind = "iteration-advance"
)

// Event is one scheduled occurrence. Payload is opaque to the queue;
// the simulator type-asserts it based on Kind.
type Event struct {
	At      time.Time
	Seq     uint64
	Kind    Kind
	Payload any

	index int // heap bookkeeping, unused outside this package
}

// eventHeap implements heap.Interface over a slice of *Event, ordered by
// (At, Seq) so that ties fire in insertion order.
type eventHeap []*Event

func (h eventHeap) Len() int { return len(h) }

func (h eventHeap) Less(i, j int) bool {
	if h[i].At.Equal(h[j].At) {
		return h[i].Seq < h[j].Seq
	}
	return h[i].At.Before(h[j].At)
}

func (h eventHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *eventHeap) Push(x any) {
	e := x.(*Event)
	e.index = len(*h)
	*h = append(*h, e)
}

func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*h = old[:n-1]
	return e
}

// Queue is a monotonic min-priority store of future events keyed by
// (time, sequence), supporting O(log N) insert and O(log N) pop of the
// minimum.
type Queue struct {
	h       eventHeap
	nextSeq uint64
}

// New returns an empty Queue.
func New() *Queue {
	q := &Queue{}
	heap.Init(&q.h)
	return q
}

// Push schedules an event to fire at "at", stamping it with the next
// monotonic sequence number, and returns the stamped event.
func (q *Queue) Push(at time.Time, kind Kind, payload any) *Event {
	e := &Event{At: at, Seq: q.nextSeq, Kind: kind, Payload: payload}
	q.nextSeq++
	heap.Push(&q.h, e)
	return e
}

// Pop removes and returns the event with the smallest (At, Seq), or nil
// if the queue is empty.
func (q *Queue) Pop() *Event {
	if q.Len() == 0 {
		return nil
	}
	return heap.Pop(&q.h).(*Event)
}

// Peek returns the next event to fire without removing it, or nil if
// the queue is empty.
func (q *Queue) Peek() *Event {
	if q.Len() == 0 {
		return nil
	}
	return q.h[0]
}

// Len reports the number of pending events.
func (q *Queue) Len() int { return q.h.Len() }
