// Package realworld implements the concrete process_source/process_handle
// pair of spec §4.B/4.J/4.K: the only part of the core that actually owns
// an OS process. Everything above this package talks to a process_handle
// purely through execute_runner and never inspects pids, fds, or exit
// codes directly — mirroring the way the teacher's runner package keeps
// transport concerns (grpc, goroutines) behind the narrow NodeController
// interface rather than leaking them into the simulator.
package realworld

import (
	"errors"
	"time"

	"mcmini/mailbox"
)

// Addr is the process_handle's own alias for mailbox.Addr: the opaque
// remote address handed back across the mailbox, never dereferenced.
type Addr = mailbox.Addr

// Sentinel errors, matching the teacher's errors.Is-compatible style
// (scheduler.RunEndedError, scheduler.NoRunsError) rather than a bespoke
// exception hierarchy — per spec §7's eight error kinds.
var (
	// ErrSpawn is returned by force_new_process when the target cannot be
	// launched at all (binary missing, exec failure, mapping failure).
	ErrSpawn = errors.New("realworld: process source failed to produce a new process")

	// ErrDeadProcess is returned by execute_runner when the target has
	// already exited (observed, not merely suspected).
	ErrDeadProcess = errors.New("realworld: process handle is dead")

	// ErrTimeout is returned by execute_runner when a configured timeout
	// elapses waiting for "done" on the mailbox.
	ErrTimeout = errors.New("realworld: process handle timed out waiting for runner")
)

// ProcessSource is the spec's process_source trait: a factory for fresh
// target processes committed to a known initial state.
type ProcessSource interface {
	// ForceNewProcess spawns (or resumes) a target process and returns a
	// handle to it. Fails with ErrSpawn if the target cannot be produced.
	ForceNewProcess() (ProcessHandle, error)
}

// ProcessHandle is the spec's process_handle trait.
type ProcessHandle interface {
	// ExecuteRunner drives runner r until it reaches its next interception
	// point (or exits), returning the raw mailbox payload it wrote. Fails
	// with ErrDeadProcess if the process has terminated, ErrTimeout if a
	// configured deadline elapses first.
	ExecuteRunner(r Addr) ([]byte, error)

	// Release terminates the process, freeing its mailbox mappings. Safe
	// to call more than once; the scoped-release semantics of spec §4.B
	// ("implicit scoped release that terminates the process on drop") are
	// made explicit here since Go has no destructors.
	Release()
}

// Timeout bounds how long ExecuteRunner waits for "done" on the mailbox
// before failing with ErrTimeout. Zero means wait forever, matching
// "fails with Timeout if configured" — unconfigured is the default.
type Timeout = time.Duration
