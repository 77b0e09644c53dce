// Package report implements SPEC_FULL.md §4.L: the DPOR driver's
// undefined-behavior/deadlock/starvation callbacks are plain Go funcs
// (dpor.Options.OnUndefinedBehavior etc.), and this package supplies the
// Sink shape those callbacks adapt into plus the teacher-grounded sinks
// (stdlib log, Newick export via the teacher's tree package, JSON) that
// cmd/mcmini wires them to.
package report

import (
	"fmt"

	"github.com/google/uuid"

	"mcmini/coordinator"
)

// Kind identifies which terminal condition of spec §7 (plus the §3
// starvation addition) a Report describes.
type Kind int

const (
	UndefinedBehavior Kind = iota
	Deadlock
	Starvation
)

func (k Kind) String() string {
	switch k {
	case UndefinedBehavior:
		return "undefined-behavior"
	case Deadlock:
		return "deadlock"
	case Starvation:
		return "starvation"
	default:
		return fmt.Sprintf("report.Kind(%d)", int(k))
	}
}

// Report is one terminal condition the DPOR search observed, plus the
// trace prefix that produced it.
type Report struct {
	ID    uuid.UUID
	Kind  Kind
	Trace []coordinator.PrefixEntry
	Err   error // set only for Kind == UndefinedBehavior
}

// Sink receives Reports as the search finds them. A Sink must return
// quickly — spec §4.H's cancellation point is polled between backtrack
// decisions, not inside a sink call, so a slow sink stalls the whole
// search.
type Sink interface {
	Report(r Report)
}

// MultiSink fans one Report out to every sink in order, matching
// spec §4.L's "fan-out, not mutually exclusive" requirement.
type MultiSink []Sink

func (m MultiSink) Report(r Report) {
	for _, s := range m {
		s.Report(r)
	}
}

// NewReport stamps a fresh correlation ID onto a Report, so independent
// sinks (log line, Newick file, JSON blob) can be joined back together by
// an external tool.
func NewReport(kind Kind, trace []coordinator.PrefixEntry, err error) Report {
	return Report{ID: uuid.New(), Kind: kind, Trace: trace, Err: err}
}
