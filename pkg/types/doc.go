/*
Package types holds flowsim's data model: the Flow graph (tasks,
dependencies, cycle groups, reassignment rules), the Calendar, demand and
lot definitions, and the outputs a simulation run produces (task
instances, occupancy intervals, traces, results).

Nothing in this package performs I/O or scheduling logic — it is the
shared vocabulary every other flowsim package imports.

# Lifecycle

TaskDefinitions and CycleGroups are authored once (typically loaded from
a FlowDefinition YAML document), validated, then frozen for the run. A
TaskInstance is created lazily the first time its TaskDefinition becomes
ready for a given (unit, iteration) pair, and every field on it is final
once its Status reaches StatusCompleted — nothing rewrites a finished
instance.
*/
package types
