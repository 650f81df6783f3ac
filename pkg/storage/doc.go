/*
Package storage is an optional, CLI-facing persistence convenience: a
BoltDB-backed store for Flow/Calendar/Demand documents and completed
SimulationResults, one bucket per document kind, JSON-marshalled
values, upsert-by-Put.

The core simulator never touches this package; only cmd/flowsim reaches
for it, to let `apply` stage a document for later `simulate`/`optimise`
runs by name and to let `simulate`/`optimise` optionally keep a history
of completed runs.
*/
package storage
