package checking

import "fmt"

type predicateCheckerResponse struct {
	result bool
	trace  Trace
	failed int // index into the predicates slice; -1 if result is true
}

func (r predicateCheckerResponse) Response() (bool, string) {
	if r.result {
		return true, "all predicates hold"
	}
	return false, fmt.Sprintf("predicate %d broken over a %d-step trace (deadlocked=%v, undefined=%v)",
		r.failed, len(r.trace.Entries), r.trace.Deadlocked, r.trace.UndefinedAt)
}

func (r predicateCheckerResponse) Export() []int {
	if r.result {
		return []int{}
	}
	out := make([]int, len(r.trace.Entries))
	for i, e := range r.trace.Entries {
		out[i] = e.Index
	}
	return out
}

// PredicateChecker evaluates a fixed list of predicates against one
// trace, stopping at the first one that fails — the single-trace
// analogue of the teacher's tree-walking PredicateChecker[S], simplified
// because McMini never retains more than one trace at a time.
type PredicateChecker struct {
	predicates []Predicate
}

func NewPredicateChecker(predicates ...Predicate) *PredicateChecker {
	return &PredicateChecker{predicates: predicates}
}

func (pc *PredicateChecker) Check(t Trace) CheckerResponse {
	for i, pred := range pc.predicates {
		if !pred(t) {
			return predicateCheckerResponse{result: false, trace: t, failed: i}
		}
	}
	return predicateCheckerResponse{result: true, failed: -1}
}
