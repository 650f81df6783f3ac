/*
Package optimiser wraps repeated simulator runs in a deadline search
over worker-count configurations: a run/dispatch loop shaped like a
background scheduler's, minus the ticker — here each "tick" is one
candidate instead of one fixed interval — using
golang.org/x/sync/errgroup to evaluate a round's independent candidates
concurrently, since each is a fresh simulator instance with no shared
mutable state.

The package never constructs a Flow itself: callers supply a
CandidateFunc that turns a worker-count vector into a SimulationResult,
so optimiser stays agnostic to how a vector is applied to a product's
flow (pooling extra workers onto tasks that declare a role, adding
machine shifts, or anything else a caller's flow-scaling logic decides).
*/
package optimiser
