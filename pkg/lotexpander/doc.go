/*
Package lotexpander turns a Demand (a flat unit count or a prioritized
list of product lots) into the ordered unit-index sequence the simulator
instantiates task instances against: walk a requested count and emit one
addressable unit per slot rather than materializing a duplicate template
per unit.
*/
package lotexpander
