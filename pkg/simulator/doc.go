/*
Package simulator runs the discrete-event core: given a validated Flow,
a Calendar, and the set of units to build, it walks a monotonic event
queue (package eventqueue) forward in time, reserving worker and machine
intervals on a Ledger as each task instance becomes ready, gating cycle
members through a cyclecontroller, and applying reassignment rules as
their triggers fire: a run/dispatch pair with a component logger and
a whole-run timer, generalized from "one schedule pass per tick" to
"drain the event queue to quiescence".

The simulator performs no I/O and holds no goroutines of its own; a
single call to Run drives the whole run synchronously and returns a
types.SimulationResult once the event queue is empty.
*/
package simulator
