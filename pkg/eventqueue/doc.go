/*
Package eventqueue provides the simulator's event store: a min-heap over
(fire-time, monotonic sequence) pairs, built directly on container/heap
since no generic priority-queue library fits better.
*/
package eventqueue
