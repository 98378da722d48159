// Package history implements a bounded undo/redo stack of immutable
// snapshots.
//
// A Manager stores deep copies of caller-provided states. Callers push the
// state captured before a mutation; Undo and Redo exchange the caller's
// current state for the stored one. The manager never inspects the states
// beyond the State interface, so it works for any snapshot type.
package history
