/*
Package reassignment is driven exclusively by the simulator core on
task-start, task-complete, and iteration-advance events; it holds no
state of its own beyond the ledger it writes splices into.
*/
package reassignment
