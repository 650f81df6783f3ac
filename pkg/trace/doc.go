/*
Package trace is the Simulator's sole output channel: a Recorder
accumulates completed task-instances and reason-log entries as the run
progresses, and the simulator reads them back to assemble its
types.SimulationResult at the end.
It also exposes a channel-based broadcast of completions so a CLI or
other long-lived watcher can stream them as they happen instead of
waiting for the run to finish.
*/
package trace
