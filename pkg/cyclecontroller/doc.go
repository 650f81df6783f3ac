/*
Package cyclecontroller is consulted by the simulator core on every
ready-check for a cycle member and on every tail completion; it never
touches the event queue or the ledger directly.
*/
package cyclecontroller
