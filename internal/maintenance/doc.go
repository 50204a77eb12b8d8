// Package maintenance holds the pure rules of the tracker: when a
// maintenance type is due for a vehicle, how much a vehicle has cost, how
// the odometer ratchets forward and which types a new account starts with.
//
// Nothing in this package performs I/O; callers pass snapshots read from
// the store and a reference time.
package maintenance
