package checking

import "mcmini/model"

// Predicate is a function evaluated over one completed Trace. It returns
// true if the property holds for that trace.
type Predicate func(t Trace) bool

// Eventually adapts pred so it is only evaluated once the trace has
// reached a terminal condition — the direct analogue of the teacher's
// Eventually[S], which only evaluates its wrapped predicate on terminal
// states and otherwise lets the run continue unchallenged.
func Eventually(pred Predicate) Predicate {
	return func(t Trace) bool {
		if !t.IsTerminal() {
			return true
		}
		return pred(t)
	}
}

// ForAllRunners checks cond against every runner the trace ever observed
// — live or already finished — the single-trace analogue of the
// teacher's ForAllNodes over a GlobalState's LocalStates map.
func ForAllRunners(cond func(r model.RunnerID, s *model.State) bool) Predicate {
	return func(t Trace) bool {
		seen := finishedRunners(t)
		for _, r := range t.Final.Runners() {
			seen[r] = true
		}
		for r := range seen {
			if !cond(r, t.Final) {
				return false
			}
		}
		return true
	}
}

// DeadlockFree is the built-in predicate matching spec §7's Deadlock error
// kind: the trace never hit a state with no schedulable runner and some
// runner unfinished.
func DeadlockFree(t Trace) bool { return !t.Deadlocked }

// UndefinedBehaviorFree is the built-in predicate matching spec §7's
// UndefinedBehavior error kind.
func UndefinedBehaviorFree(t Trace) bool { return t.UndefinedAt == nil }

// StarvationFree is the built-in predicate for SPEC_FULL.md §3's
// starvation addition: no runner is left live, with some other runner
// having already finished, and no further transition of its own enabled
// in the final state.
func StarvationFree(t Trace) bool {
	finished := finishedRunners(t)
	if len(finished) == 0 {
		return true
	}
	for _, r := range t.Final.Runners() {
		pending, ok := t.Final.Pending(r)
		if !ok {
			continue
		}
		if pending.Enabled(t.Final) {
			continue
		}
		return false
	}
	return true
}
