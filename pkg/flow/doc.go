/*
Package flow is the frozen, arena-indexed form of a production flow.
Flow Definitions arrive as the YAML-described types.FlowSpec; Build
resolves every id reference to an integer arena index once, so the
validator, cycle controller, and simulator all walk plain int slices
instead of re-hashing string ids on every lookup.
*/
package flow
