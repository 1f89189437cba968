// Package engine implements the process-wide state machine that owns a
// flow run: Start spawns a worker per simulated user, Stop drains them
// with a bounded grace timeout, and Snapshot returns a consistent read of
// status plus metrics, per spec.md §4.9.
package engine
