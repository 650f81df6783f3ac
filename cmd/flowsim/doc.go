/*
Command flowsim is the CLI entry point over the core packages: validate
a flow, run one simulation, search for a deadline-feasible worker count
with optimise, or apply a Flow/Calendar/Demand document into a BoltDB
store for reuse by name. Persistent --log-level/--log-json flags are
wired through cobra.OnInitialize, and apply dispatches on a document's
declared kind the same way its sibling commands dispatch on a flag.
*/
package main
