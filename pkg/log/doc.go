/*
Package log provides structured logging for flowsim using zerolog.

It wraps zerolog to give every package a component-scoped logger with a
shared level and output format, so a simulation run's log stream can be
filtered by component (calendar, validator, simulator, optimiser, ...)
without each package managing its own logger lifecycle.

# Architecture

	┌──────────────────── LOGGING SYSTEM ──────────────────────┐
	│                                                            │
	│  ┌────────────────────────────────────────────┐          │
	│  │            Global Logger                    │          │
	│  │  - zerolog instance, set once via Init()    │          │
	│  │  - safe for concurrent use                  │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │           Configuration                     │          │
	│  │  - Level: debug/info/warn/error             │          │
	│  │  - Format: JSON or console (human)          │          │
	│  │  - Output: stdout, file, or custom writer   │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │         Component Loggers                   │          │
	│  │  - WithComponent("simulator")                │          │
	│  │  - WithFlowID("flow-1")                      │          │
	│  │  - WithUnitIndex(3)                          │          │
	│  │  - WithTaskID("task-mix")                    │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │            Log Output                       │          │
	│  │  JSON: {"level":"info","component":"simulator", │      │
	│  │         "time":"...","message":"task ready"} │         │
	│  │  Console: 10:30AM INF task ready component=simulator │ │
	│  └────────────────────────────────────────────┘           │
	└────────────────────────────────────────────────────────┘

# Usage

	log.Init(log.Config{Level: log.InfoLevel, JSONOutput: true})
	logger := log.WithComponent("simulator")
	logger.Info().Str("task_id", "mix").Msg("task started")

Component loggers are cheap to create (zerolog shares the underlying
writer) and are safe to hold for the lifetime of a run.
*/
package log
