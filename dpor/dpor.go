// Package dpor implements the classic DPOR search of spec §4.H: a
// stateless depth-first exploration of a target's interleavings, driven
// entirely through a coordinator.Coordinator. Search never mutates
// program state directly — it reads it to compute backtrack/sleep sets
// and calls ExecuteRunner/ResetTo, matching the coordinator's exclusive
// ownership of the process and the live state (spec §3 "Ownership").
package dpor

import (
	"errors"
	"fmt"
	"sync"

	"mcmini/coordinator"
	"mcmini/model"
)

// frame is one entry of the DPOR stack (spec §4.H): the state just
// before choosing a runner to run at this step, plus the backtrack/done/
// sleep bookkeeping for that step.
type frame struct {
	state     *model.State
	backtrack map[model.RunnerID]bool
	done      map[model.RunnerID]bool
	sleep     map[model.RunnerID]bool
}

func newFrame(s *model.State) *frame {
	return &frame{
		state:     s,
		backtrack: map[model.RunnerID]bool{},
		done:      map[model.RunnerID]bool{},
		sleep:     map[model.RunnerID]bool{},
	}
}

// pickBacktrack returns a runner in backtrack \ (done ∪ sleep), or
// InvalidRunnerID if none remains. Deterministic (ascending RunnerID) so
// two runs of the same target explore identically, matching property P4.
func (f *frame) pickBacktrack() model.RunnerID {
	best := model.InvalidRunnerID
	for r := range f.backtrack {
		if f.done[r] || f.sleep[r] {
			continue
		}
		if best == model.InvalidRunnerID || r < best {
			best = r
		}
	}
	return best
}

// step is one entry of the flat trace the search has executed so far,
// parallel to the frame stack: step[i] is the (runner, transition) that
// took the search from frame i to frame i+1.
type step struct {
	runner     model.RunnerID
	transition model.Transition
}

// Options configures one Search. Zero value is usable: unbounded depth,
// continue past undefined behavior and deadlock, report everything.
type Options struct {
	// MaxDepthPerThread bounds how many transitions any single runner may
	// contribute to one trace before the branch is abandoned. Zero means
	// unbounded.
	MaxDepthPerThread int

	// FirstDeadlock stops the whole search as soon as one deadlock (or
	// undefined-behavior) trace has been reported, instead of continuing
	// to explore siblings.
	FirstDeadlock bool

	// CheckForwardProgress gates the starved/plain-deadlock distinction
	// (SPEC_FULL.md §3's addition) behind original_source's
	// ENV_CHECK_FORWARD_PROGRESS: when false, a deadlocked state is
	// always reported as a plain deadlock, matching the source's default
	// of not paying for the forward-progress check at all.
	CheckForwardProgress bool

	// Cancel, if non-nil, is polled at every backtrack decision (spec
	// §5's "cancellation flag at each backtrack decision"). A closed
	// channel cancels the search.
	Cancel <-chan struct{}

	OnUndefinedBehavior func(trace []coordinator.PrefixEntry, err error)
	OnDeadlock          func(trace []coordinator.PrefixEntry)

	// OnStarvation fires for the SPEC_FULL.md §3 addition: a deadlocked
	// state in which at least one runner already reached thread_exit
	// while another never will, distinct from a deadlock in which no
	// runner ever made it out.
	OnStarvation func(trace []coordinator.PrefixEntry)

	// PrintAtTraceID, matching the source's --print-at-traceId, names a
	// 1-based ordinal among fully-finished traces (not every popped
	// branch). When OnPrintTrace is set and the search completes the
	// matching trace, OnPrintTrace fires with it. Zero disables this.
	PrintAtTraceID int
	OnPrintTrace   func(traceID int, trace []coordinator.PrefixEntry)
}

// Stats summarizes one completed Search.Run, used by the rpc snapshot
// component and by cmd/mcmini's final report line.
type Stats struct {
	TracesExplored int
	Deadlocks      int
	Starvations    int
	UndefinedCases int
	MaxDepthSeen   int
}

// Search drives one coordinator through the classic DPOR algorithm of
// spec §4.H to exhaustion (modulo max-depth pruning). Each frame carries
// a sleep set, but no step ever adds a runner to one, so sleep sets stay
// empty and prune nothing.
type Search struct {
	coord *coordinator.Coordinator
	opts  Options

	// statsMu guards stats: Run's own goroutine updates it on every
	// step, while Snapshot/Stats may be called concurrently from an
	// rpc.DebugServer handler (spec §4.N — "never on the hot path of
	// execute_runner", i.e. this lock is held only for a plain struct
	// copy, never across a mailbox round trip).
	statsMu sync.Mutex
	stats   Stats
}

func New(coord *coordinator.Coordinator, opts Options) *Search {
	return &Search{coord: coord, opts: opts}
}

// Stats returns a snapshot of the search's running totals.
func (s *Search) Stats() Stats {
	s.statsMu.Lock()
	defer s.statsMu.Unlock()
	return s.stats
}

// Snapshot is Stats under the name SPEC_FULL.md §4.N's debug RPC server
// wires to: the read-only progress view external tooling polls.
func (s *Search) Snapshot() Stats { return s.Stats() }

func (s *Search) bumpStats(f func(*Stats)) {
	s.statsMu.Lock()
	defer s.statsMu.Unlock()
	f(&s.stats)
}

// Run explores every trace reachable under the current backtrack-set
// pruning, starting from a freshly started process (step 1: S0 with
// backtrack={main}). It returns the first fatal (non-UB, non-deadlock)
// error encountered, or nil if the search ran to completion or was
// cancelled.
func (s *Search) Run() error {
	if err := s.coord.Start(); err != nil {
		return fmt.Errorf("dpor: starting initial process: %w", err)
	}

	root := newFrame(s.coord.State().Clone())
	root.backtrack[model.MainRunner] = true
	stack := []*frame{root}
	var trace []step

	for len(stack) > 0 {
		if s.cancelled() {
			return nil
		}

		top := stack[len(stack)-1]
		k := len(stack) - 1

		r := top.pickBacktrack()
		if r == model.InvalidRunnerID {
			// Step 2: nothing left to explore from this state, pop.
			// Frame i always corresponds to trace length i (frame i is
			// the state just before step i ran), so dropping frame k
			// also drops trace entry k-1, the step that led into it.
			stack = stack[:k]
			if len(stack) == 0 {
				break
			}
			trace = trace[:k-1]
			// Step 6: rewind the live process to the prefix leading to
			// the new top before the parent tries its next candidate.
			if err := s.coord.ResetTo(toPrefix(trace)); err != nil {
				return fmt.Errorf("dpor: reset_to on pop: %w", err)
			}
			continue
		}
		top.done[r] = true

		if s.atMaxDepth(trace, r) {
			// Treat a depth-bounded runner as explored for this branch
			// without ever scheduling it, per the "bounded by the
			// optional per-thread max-depth configuration" termination
			// clause.
			continue
		}

		tk, err := s.coord.ExecuteRunner(r)
		if err != nil {
			if errors.Is(err, coordinator.ErrUndefinedBehavior) {
				s.bumpStats(func(st *Stats) { st.UndefinedCases++ })
				if s.opts.OnUndefinedBehavior != nil {
					s.opts.OnUndefinedBehavior(toPrefix(trace), err)
				}
				if s.opts.FirstDeadlock {
					return nil
				}
				continue
			}
			return fmt.Errorf("dpor: execute_runner(%d): %w", r, err)
		}

		trace = append(trace, step{runner: r, transition: tk})
		s.bumpStats(func(st *Stats) {
			if d := len(trace); d > st.MaxDepthSeen {
				st.MaxDepthSeen = d
			}
		})

		// Step 3: update earlier frames' backtrack sets with any race
		// this new step opens up against them.
		s.updateBacktrackSets(stack, trace, r, tk)

		next := s.coord.State().Clone()

		if deadlocked(next) {
			if s.opts.CheckForwardProgress && starved(next) {
				s.bumpStats(func(st *Stats) { st.Starvations++ })
				if s.opts.OnStarvation != nil {
					s.opts.OnStarvation(toPrefix(trace))
				}
			} else {
				s.bumpStats(func(st *Stats) { st.Deadlocks++ })
				if s.opts.OnDeadlock != nil {
					s.opts.OnDeadlock(toPrefix(trace))
				}
			}
			if s.opts.FirstDeadlock {
				return nil
			}
		}

		// Step 4: sleep[k+1] = sleep[k] minus runners whose next
		// transition is dependent with tk.
		nf := newFrame(next)
		for sleeper := range top.sleep {
			if pending, ok := next.Pending(sleeper); ok && pending.DependsOn(tk) {
				continue
			}
			nf.sleep[sleeper] = true
		}
		// Seed the new frame's backtrack set with one enabled runner —
		// the lowest-id one, by convention — so exploration has a
		// default direction to continue in. Race detection (step 3)
		// adds further candidates to *earlier* frames once a later step
		// proves they were needed; nothing seeds this frame beyond the
		// default, since it has no "earlier steps" of its own yet.
		if seed, ok := lowestSchedulable(next); ok {
			nf.backtrack[seed] = true
		}
		stack = append(stack, nf)

		if allFinished(next) {
			var explored int
			s.bumpStats(func(st *Stats) {
				st.TracesExplored++
				explored = st.TracesExplored
			})
			if s.opts.PrintAtTraceID == explored && s.opts.OnPrintTrace != nil {
				s.opts.OnPrintTrace(explored, toPrefix(trace))
			}
		}
	}

	return nil
}

func (s *Search) cancelled() bool {
	if s.opts.Cancel == nil {
		return false
	}
	select {
	case <-s.opts.Cancel:
		return true
	default:
		return false
	}
}

func (s *Search) atMaxDepth(trace []step, r model.RunnerID) bool {
	if s.opts.MaxDepthPerThread <= 0 {
		return false
	}
	n := 0
	for _, st := range trace {
		if st.runner == r {
			n++
		}
	}
	return n >= s.opts.MaxDepthPerThread
}

// updateBacktrackSets implements step 3 of spec §4.H: for each earlier
// step j with a different executor whose transition is dependent with
// tk, and for which no intermediate step (executed by neither that
// executor nor r) breaks the race, add a representative runner to
// backtrack[j].
//
// "Race between e and r at step j: r is enabled in state_j, and every
// intermediate tᵤ (j<u<k) executed by neither r nor e is independent of
// tⱼ." Because this check already requires r schedulable in state_j, r
// is always a member of the race set E when the race holds, so the
// "preferring r itself if r ∈ E" tie-break reduces to adding r directly.
// "Schedulable" rather than strictly "enabled" so a race that would
// surface undefined behavior at j is not missed — see schedulable.
func (s *Search) updateBacktrackSets(stack []*frame, trace []step, r model.RunnerID, tk model.Transition) {
	k := len(trace) - 1 // tk is trace[k]; stack[j] is the state before trace[j] ran.
	for j := k - 1; j >= 0; j-- {
		e := trace[j].runner
		tj := trace[j].transition
		if e == r {
			continue
		}
		if !tj.DependsOn(tk) {
			continue
		}

		raceBroken := false
		for u := j + 1; u < k; u++ {
			eu := trace[u].runner
			if eu == r || eu == e {
				continue
			}
			if trace[u].transition.DependsOn(tj) {
				raceBroken = true
				break
			}
		}
		if raceBroken {
			continue
		}

		stateJ := stack[j].state
		pendingR, ok := stateJ.Pending(r)
		if !ok || !schedulable(pendingR, stateJ) {
			continue
		}

		stack[j].backtrack[r] = true
	}
}

// schedulable reports whether t is safe to hand to
// coordinator.ExecuteRunner right now: either it is actually Enabled, or
// it is a Violation the coordinator will reject immediately without
// ever touching the real process (spec §4.G's execute_runner checks
// Violation before doing anything else). A transition that is neither —
// ordinary blocking, like a mutex_lock on a mutex someone else holds —
// would hang the real target if scheduled, so it is never schedulable.
func schedulable(t model.Transition, s *model.State) bool {
	return t.Enabled(s) || t.Violation(s)
}

// deadlocked reports spec §4.H step 5: no runner has a schedulable
// pending transition and at least one runner has not finished. A
// Violation-pending runner does not count as deadlocked: scheduling it
// resolves immediately as undefined behavior rather than blocking.
func deadlocked(s *model.State) bool {
	anyLive := false
	for _, r := range s.Runners() {
		anyLive = true
		t, ok := s.Pending(r)
		if !ok {
			continue
		}
		if schedulable(t, s) {
			return false
		}
	}
	return anyLive
}

// starved reports whether next — already known deadlocked — has at
// least one runner that reached thread_exit, the SPEC_FULL.md §3
// distinction between starvation (forward progress happened, then
// stalled) and an ordinary deadlock (no runner ever got out).
func starved(next *model.State) bool {
	for _, e := range next.Trace() {
		if e.Transition.Kind() == model.ThreadExitKind {
			return true
		}
	}
	return false
}

// lowestSchedulable returns the smallest-id live runner whose pending
// transition is currently schedulable, if any.
func lowestSchedulable(s *model.State) (model.RunnerID, bool) {
	for _, r := range s.Runners() {
		t, ok := s.Pending(r)
		if ok && schedulable(t, s) {
			return r, true
		}
	}
	return model.InvalidRunnerID, false
}

// allFinished reports whether every live runner has reached thread_exit
// (Finish removes it from liveRunners, so "live" already excludes them).
func allFinished(s *model.State) bool {
	return len(s.Runners()) == 0
}

func toPrefix(trace []step) []coordinator.PrefixEntry {
	prefix := make([]coordinator.PrefixEntry, len(trace))
	for i, st := range trace {
		prefix[i] = coordinator.PrefixEntry{Runner: st.runner, Transition: st.transition}
	}
	return prefix
}
