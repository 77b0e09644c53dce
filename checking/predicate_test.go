package checking

import (
	"errors"
	"testing"

	"mcmini/model"
)

func TestEventuallyOnlyEvaluatesOnTerminalTrace(t *testing.T) {
	calls := 0
	pred := Eventually(func(Trace) bool { calls++; return true })

	nonTerminal := Trace{Final: model.NewState()}
	if !pred(nonTerminal) {
		t.Fatalf("expected Eventually to pass through non-terminal traces")
	}
	if calls != 0 {
		t.Fatalf("expected the wrapped predicate not to run on a non-terminal trace")
	}

	s := model.NewState()
	s.Finish(model.MainRunner)
	terminal := Trace{Final: s}
	if !pred(terminal) {
		t.Fatalf("expected Eventually to evaluate the wrapped predicate on a terminal trace")
	}
	if calls != 1 {
		t.Fatalf("expected the wrapped predicate to run exactly once, ran %d times", calls)
	}
}

func TestDeadlockFree(t *testing.T) {
	clean := Trace{Final: model.NewState(), Deadlocked: false}
	if !DeadlockFree(clean) {
		t.Fatalf("expected a non-deadlocked trace to pass DeadlockFree")
	}
	broken := Trace{Final: model.NewState(), Deadlocked: true}
	if DeadlockFree(broken) {
		t.Fatalf("expected a deadlocked trace to fail DeadlockFree")
	}
}

func TestUndefinedBehaviorFree(t *testing.T) {
	clean := Trace{Final: model.NewState()}
	if !UndefinedBehaviorFree(clean) {
		t.Fatalf("expected a trace with no undefined behavior to pass")
	}
	broken := Trace{Final: model.NewState(), UndefinedAt: errors.New("boom")}
	if UndefinedBehaviorFree(broken) {
		t.Fatalf("expected a trace with undefined behavior to fail")
	}
}

func TestStarvationFreeNoOtherRunnerFinished(t *testing.T) {
	trace := Trace{Final: model.NewState()}
	if !StarvationFree(trace) {
		t.Fatalf("expected StarvationFree to hold when nobody has finished yet")
	}
}

// TestStarvationFreeBlockedWhileOthersFinished builds a final state where
// main is blocked forever on a mutex no one will ever unlock, alongside a
// trace entry recording that some other runner already exited — the
// textbook "everyone else finished, this one is permanently stuck" shape.
func TestStarvationFreeBlockedWhileOthersFinished(t *testing.T) {
	s := model.NewState()
	other, _ := s.AddRunner()
	otherThreadObj := s.AddObject(model.NewThread(other, model.ThreadRunning))
	s.BindThreadObj(other, otherThreadObj)

	mu := s.AddObject(model.NewMutex())
	s.SetPending(model.MainRunner, model.NewMutexLock(model.MainRunner, mu))

	entries := []model.TraceEntry{
		{Index: 0, Runner: other, Transition: model.NewThreadExit(other, otherThreadObj)},
	}
	trace := Trace{Final: s, Entries: entries}
	if StarvationFree(trace) {
		t.Fatalf("expected a runner permanently blocked while another finished to be reported starved")
	}
}

// TestForAllRunnersCoversLiveAndFinishedRunners checks cond against both
// a still-live runner (reported by State.Runners) and one that already
// exited (only visible via the trace entries), mirroring the teacher's
// ForAllNodes walking every LocalState regardless of node status.
func TestForAllRunnersCoversLiveAndFinishedRunners(t *testing.T) {
	s := model.NewState()
	other, _ := s.AddRunner()
	otherThreadObj := s.AddObject(model.NewThread(other, model.ThreadRunning))
	s.BindThreadObj(other, otherThreadObj)

	entries := []model.TraceEntry{
		{Index: 0, Runner: other, Transition: model.NewThreadExit(other, otherThreadObj)},
	}
	trace := Trace{Final: s, Entries: entries}

	seen := map[model.RunnerID]bool{}
	pass := ForAllRunners(func(r model.RunnerID, st *model.State) bool {
		seen[r] = true
		return true
	})
	if !pass(trace) {
		t.Fatalf("expected a cond that always passes to leave ForAllRunners satisfied")
	}
	if !seen[model.MainRunner] || !seen[other] {
		t.Fatalf("expected ForAllRunners to visit both the live runner and the already-finished one, got %v", seen)
	}

	fail := ForAllRunners(func(r model.RunnerID, st *model.State) bool {
		return r != other
	})
	if fail(trace) {
		t.Fatalf("expected ForAllRunners to fail once cond rejects the finished runner")
	}
}

func TestPredicateCheckerStopsAtFirstFailure(t *testing.T) {
	pc := NewPredicateChecker(
		func(Trace) bool { return true },
		DeadlockFree,
		func(Trace) bool { t.Fatalf("should not evaluate past the first failure"); return true },
	)
	resp := pc.Check(Trace{Final: model.NewState(), Deadlocked: true})
	ok, _ := resp.Response()
	if ok {
		t.Fatalf("expected Check to report failure")
	}
}
