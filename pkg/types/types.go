// Package types holds the canonical data model shared by every flowsim
// package: the Flow graph (tasks, dependencies, cycle groups,
// reassignment rules), the Calendar, demand/lot definitions, and the
// simulation outputs (task instances, traces, results).
package types

import "time"

// TaskKind classifies a Task Definition's role in the flow.
type TaskKind string

const (
	TaskKindOrdinary         TaskKind = "ordinary"
	TaskKindPreparation      TaskKind = "preparation"
	TaskKindMechanicalProc   TaskKind = "mechanical-process"
	TaskKindCycleHead        TaskKind = "cycle-head"
	TaskKindCycleTail        TaskKind = "cycle-tail"
	TaskKindAutoTriggered    TaskKind = "auto-triggered"
)

// StartCondition governs when a task instance is permitted to begin.
type StartCondition string

const (
	StartAfterPredecessors StartCondition = "after-predecessors"
	StartManualTrigger     StartCondition = "manual-trigger"
	StartAutoOnEvent       StartCondition = "auto-on-event"
)

// ReassignTrigger names the moment a reassignment rule fires.
type ReassignTrigger string

const (
	TriggerOnStart      ReassignTrigger = "on-start"
	TriggerOnComplete   ReassignTrigger = "on-complete"
	TriggerOnIterationK ReassignTrigger = "on-iteration"
)

// ReassignmentRule moves a worker from a source task to a target task
// when its trigger fires.
type ReassignmentRule struct {
	Worker                     string
	SourceTaskID               string
	Trigger                    ReassignTrigger
	IterationK                 int // only meaningful when Trigger == TriggerOnIterationK
	TargetTaskID               string
	OnlyIfTargetNotStaffed     bool
}

// TaskDefinition is a node in a Flow's dependency graph.
type TaskDefinition struct {
	ID               string
	Kind             TaskKind
	DurationMinutes  int
	Workers          []string
	Machine          string // empty if no machine requirement
	PreparationRef   string // id of a preparation-step task, if any
	StartCondition   StartCondition
	Reassignment     *ReassignmentRule
	GroupKey         string // sequential group key, empty if none
	GroupPosition    int
	DailyPreparation bool // preparation steps only: runs at most once per worker per day
	Order            int  // declared order in the editor, used for tie-breaks
}

// DependencyEdge is a directed edge from Predecessor to Successor.
type DependencyEdge struct {
	Predecessor string
	Successor   string
	Cyclic      bool
}

// CycleBoundKind distinguishes a fixed iteration count from a
// feeder-dependent bound.
type CycleBoundKind string

const (
	CycleBoundFixed      CycleBoundKind = "fixed"
	CycleBoundUntilFeeder CycleBoundKind = "until-upstream-complete"
)

// CycleGroup is a named feedback loop inside a Flow.
type CycleGroup struct {
	Name         string
	HeadTaskID   string
	TailTaskID   string
	MemberTaskIDs []string // all member ids, including head and tail
	BoundKind    CycleBoundKind
	FixedN       int    // used when BoundKind == CycleBoundFixed, N >= 1
	FeederTaskID string // used when BoundKind == CycleBoundUntilFeeder
}

// FlowDefinition is the serialisable description of a production flow,
// matching the apiVersion/kind/metadata/spec envelope used by the CLI's
// "apply" command.
type FlowDefinition struct {
	APIVersion string           `yaml:"apiVersion"`
	Kind       string           `yaml:"kind"`
	Metadata   ResourceMetadata `yaml:"metadata"`
	Spec       FlowSpec         `yaml:"spec"`
}

// ResourceMetadata names a document applied via the CLI.
type ResourceMetadata struct {
	Name   string            `yaml:"name"`
	Labels map[string]string `yaml:"labels,omitempty"`
}

// FlowSpec is the body of a FlowDefinition.
type FlowSpec struct {
	ID           string             `yaml:"id"`
	CalendarRef  string             `yaml:"calendarRef"`
	Tasks        []TaskDefinition   `yaml:"tasks"`
	Dependencies []DependencyEdge   `yaml:"dependencies"`
	CycleGroups  []CycleGroup       `yaml:"cycleGroups"`
}

// CalendarDefinition is the serialisable calendar/shift configuration.
type CalendarDefinition struct {
	APIVersion string           `yaml:"apiVersion"`
	Kind       string           `yaml:"kind"`
	Metadata   ResourceMetadata `yaml:"metadata"`
	Spec       CalendarSpec     `yaml:"spec"`
}

// CalendarSpec describes the working-day template.
type CalendarSpec struct {
	Weekdays []time.Weekday  `yaml:"weekdays"`
	Shifts   []ShiftInterval `yaml:"shifts"`
	Breaks   []ShiftInterval `yaml:"breaks"`
	Holidays []string        `yaml:"holidays"` // "2006-01-02"
}

// ShiftInterval is a local-time [Start,End) window, e.g. "08:00"-"16:00".
type ShiftInterval struct {
	Start string `yaml:"start"`
	End   string `yaml:"end"`
}

// Lot groups a batch of units of one product behind a priority.
type Lot struct {
	ProductCode string `yaml:"productCode"`
	Units       int    `yaml:"units"`
	Priority    int    `yaml:"priority"` // lower runs first
}

// Demand is either a flat unit count or a prioritized list of lots.
type Demand struct {
	APIVersion string      `yaml:"apiVersion"`
	Kind       string      `yaml:"kind"`
	Metadata   ResourceMetadata `yaml:"metadata"`
	Spec       DemandSpec  `yaml:"spec"`
}

// DemandSpec is the body of a Demand document.
type DemandSpec struct {
	Units int   `yaml:"units,omitempty"`
	Lots  []Lot `yaml:"lots,omitempty"`
}

// TaskInstanceStatus is the lifecycle state of a materialised task instance.
type TaskInstanceStatus string

const (
	StatusPending   TaskInstanceStatus = "pending"
	StatusReady     TaskInstanceStatus = "ready"
	StatusRunning   TaskInstanceStatus = "running"
	StatusCompleted TaskInstanceStatus = "completed"
	StatusCancelled TaskInstanceStatus = "cancelled"
)

// ReasonTag explains why a task instance waited before it could run.
type ReasonTag string

const (
	ReasonWaitedOnPredecessor  ReasonTag = "waited-on-predecessor"
	ReasonWaitedOnWorker       ReasonTag = "waited-on-worker"
	ReasonWaitedOnMachine      ReasonTag = "waited-on-machine"
	ReasonWaitedOnCalendar     ReasonTag = "waited-on-calendar"
	ReasonCycleIterationOpen   ReasonTag = "cycle-iteration-open"
	ReasonReassignmentDeferred ReasonTag = "reassignment-deferred"
	ReasonDailyPrepSkipped     ReasonTag = "daily-prep-skipped"
)

// TaskInstance is a materialised occurrence of a TaskDefinition for one
// (unit, iteration) pair.
type TaskInstance struct {
	ID            string
	TaskID        string
	UnitIndex     int
	IterationIndex int // 1-based; 0 for non-cyclic tasks
	Start         time.Time
	End           time.Time
	Workers       []string
	Machine       string
	Status        TaskInstanceStatus
	CycleGroup    string // empty if not part of a cycle
	Reason        ReasonTag
}

// OccupancyInterval is one reserved span on a worker or machine.
type OccupancyInterval struct {
	Resource string
	TaskID   string
	Start    time.Time
	End      time.Time
}

// Makespan is the overall span of a simulation run.
type Makespan struct {
	Start time.Time
	End   time.Time
}

// Minutes reports the makespan's duration in minutes.
func (m Makespan) Minutes() float64 {
	if m.Start.IsZero() || m.End.IsZero() {
		return 0
	}
	return m.End.Sub(m.Start).Minutes()
}

// BottleneckReport names the resource most often observed on the
// critical path of a run, i.e. the resource a ready-check most often
// waited on.
type BottleneckReport struct {
	Resource string
	WaitHits int
}

// SimulationResult is the output of one simulation run.
type SimulationResult struct {
	Makespan           Makespan
	Instances          []TaskInstance
	WorkerOccupancy    map[string][]OccupancyInterval
	MachineOccupancy   map[string][]OccupancyInterval
	Bottleneck         BottleneckReport
	ReasonLog          []ReasonLogEntry
}

// ReasonLogEntry is one ordered entry in the simulation's reason log.
type ReasonLogEntry struct {
	At       time.Time
	TaskID   string
	Unit     int
	Reason   ReasonTag
	Resource string // worker or machine name the entry's wait was attributed to, if any
}

// WorkerCountVector maps a role (worker name, in flowsim's flat worker
// model) to a candidate worker count. The optimiser searches over these.
type WorkerCountVector map[string]int

// OptimiserRequest bundles the inputs to a deadline search.
type OptimiserRequest struct {
	Deadline     time.Time
	SearchSpace  map[string][2]int // role -> [min, max]
	InitialGuess WorkerCountVector
}

// OptimiserResult is the output of a deadline search.
type OptimiserResult struct {
	Vector             WorkerCountVector
	Makespan           Makespan
	CandidatesEvaluated int
	Infeasible         bool
	Cancelled          bool
}
