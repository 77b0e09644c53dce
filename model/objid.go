// Package model implements the operational model of a target program:
// visible objects, runners, transitions, and the program state tree that
// the coordinator drives and the DPOR search explores.
package model

// ObjID is an opaque dense identifier assigned to a visible object the
// first time it is observed. It is stable within a single exploration run.
type ObjID int64

// InvalidObjID is the reserved sentinel returned when no object exists for
// a given lookup.
const InvalidObjID ObjID = -1

// RunnerID identifies a runner (an OS thread inside the target, as seen
// by the coordinator). Runner 0 is always the target's main thread.
type RunnerID int

// InvalidRunnerID is the reserved sentinel used where no runner applies,
// e.g. a thread that has not yet been joined by anyone.
const InvalidRunnerID RunnerID = -1

// MainRunner is the runner id of the target's initial thread.
const MainRunner RunnerID = 0
