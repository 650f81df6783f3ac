/*
Package ledger tracks per-worker and per-machine occupancy. Workers may
hold multi-resource reservations (a worker and the machine it is
operating are reserved for the same interval); machines are never
double-booked, without exception — Reserve enforces that uniformly by
resource name, and callers simply reserve the worker and the machine
separately for the same [start,end) when a task needs both.
*/
package ledger
