package model

// ThreadCreate is pthread_create: the executor (parent) spawns a brand
// new runner and synthesizes that runner's thread_start continuation.
type ThreadCreate struct {
	executor  RunnerID
	Child     RunnerID
	ChildObj  ObjID
}

func (t *ThreadCreate) Executor() RunnerID   { return t.executor }
func (t *ThreadCreate) Kind() TransitionKind { return ThreadCreateKind }
func (t *ThreadCreate) Operands() []ObjID    { return []ObjID{t.ChildObj} }
func (t *ThreadCreate) String() string       { return "thread_create(" + itoa(int(t.Child)) + ")" }

// Enabled is unconditional: creating a thread never waits on anything.
func (t *ThreadCreate) Enabled(*State) bool  { return true }
func (t *ThreadCreate) Violation(*State) bool { return false }

func (t *ThreadCreate) Apply(s *State) error {
	s.BindThreadObj(t.Child, t.ChildObj)
	if th, ok := Object[*Thread](s, t.ChildObj); ok {
		th.Phase = ThreadRunning
	}
	s.SetPending(t.Child, &ThreadStart{executor: t.Child, threadObj: t.ChildObj})
	s.ClearPending(t.executor)
	return nil
}

// DependsOn: a thread_create depends on everything its child ever does
// (the child cannot exist until it is created), captured here by pairing
// against any transition executed by the child runner.
func (t *ThreadCreate) DependsOn(other Transition) bool {
	return other.Executor() == t.Child
}

// CoenabledWith: "thread_create(t) is not co-enabled with any
// transition by t" — the child cannot be simultaneously enabled to run
// anything and not yet exist.
func (t *ThreadCreate) CoenabledWith(other Transition) bool {
	return other.Executor() != t.Child
}

func (t *ThreadCreate) CloneIn(s *State) Transition {
	cpy := *t
	return &cpy
}

// ThreadStart is the synthetic continuation that dispatches a freshly
// created runner into its entry point. It never arrives over the
// mailbox; thread_create's Apply sets it directly.
type ThreadStart struct {
	executor  RunnerID
	threadObj ObjID
}

func (t *ThreadStart) Executor() RunnerID   { return t.executor }
func (t *ThreadStart) Kind() TransitionKind { return ThreadStartKind }
func (t *ThreadStart) Operands() []ObjID    { return []ObjID{t.threadObj} }
func (t *ThreadStart) String() string       { return "thread_start(" + itoa(int(t.executor)) + ")" }

func (t *ThreadStart) thread(s *State) (*Thread, bool) { return Object[*Thread](s, t.threadObj) }

func (t *ThreadStart) Enabled(s *State) bool {
	th, ok := t.thread(s)
	return ok && th.Phase == ThreadRunning
}

func (t *ThreadStart) Violation(*State) bool { return false }

// Apply is a pure bookkeeping step: per the table, thread_start makes no
// state change, it just consumes the pending slot marking entry into the
// thread body.
func (t *ThreadStart) Apply(s *State) error {
	s.ClearPending(t.executor)
	return nil
}

func (t *ThreadStart) DependsOn(Transition) bool        { return false }
func (t *ThreadStart) CoenabledWith(Transition) bool     { return true }

func (t *ThreadStart) CloneIn(s *State) Transition {
	cpy := *t
	return &cpy
}

// ThreadExit is pthread_exit / fall off the entry point.
type ThreadExit struct {
	executor  RunnerID
	threadObj ObjID
}

func (t *ThreadExit) Executor() RunnerID   { return t.executor }
func (t *ThreadExit) Kind() TransitionKind { return ThreadExitKind }
func (t *ThreadExit) Operands() []ObjID    { return []ObjID{t.threadObj} }
func (t *ThreadExit) String() string       { return "thread_exit(" + itoa(int(t.executor)) + ")" }

func (t *ThreadExit) thread(s *State) (*Thread, bool) { return Object[*Thread](s, t.threadObj) }

func (t *ThreadExit) Enabled(s *State) bool {
	th, ok := t.thread(s)
	return ok && th.Phase == ThreadRunning
}

func (t *ThreadExit) Violation(s *State) bool { return !t.Enabled(s) }

func (t *ThreadExit) Apply(s *State) error {
	th, _ := t.thread(s)
	th.Phase = ThreadFinished
	s.Finish(t.executor)
	return nil
}

func (t *ThreadExit) DependsOn(other Transition) bool {
	o, ok := other.(*ThreadJoin)
	return ok && o.Other == t.executor
}

func (t *ThreadExit) CoenabledWith(Transition) bool { return true }

func (t *ThreadExit) CloneIn(s *State) Transition {
	cpy := *t
	return &cpy
}

// ThreadJoin is pthread_join(other): blocks the executor until other's
// thread object reaches Finished.
type ThreadJoin struct {
	executor   RunnerID
	Other      RunnerID
	OtherObj   ObjID
}

func (t *ThreadJoin) Executor() RunnerID   { return t.executor }
func (t *ThreadJoin) Kind() TransitionKind { return ThreadJoinKind }
func (t *ThreadJoin) Operands() []ObjID    { return []ObjID{t.OtherObj} }
func (t *ThreadJoin) String() string {
	return "thread_join(" + itoa(int(t.executor)) + "," + itoa(int(t.Other)) + ")"
}

func (t *ThreadJoin) thread(s *State) (*Thread, bool) { return Object[*Thread](s, t.OtherObj) }

func (t *ThreadJoin) Enabled(s *State) bool {
	th, ok := t.thread(s)
	return ok && th.Phase == ThreadFinished
}

// Violation is always false: joining a thread that has not finished yet
// is ordinary blocking — it becomes a deadlock report at the search
// level only if it can never resolve, not an immediate violation here.
func (t *ThreadJoin) Violation(*State) bool { return false }

func (t *ThreadJoin) Apply(s *State) error {
	s.ClearPending(t.executor)
	return nil
}

func (t *ThreadJoin) DependsOn(other Transition) bool {
	o, ok := other.(*ThreadExit)
	return ok && o.executor == t.Other
}

// CoenabledWith: "thread_join(t) not co-enabled with any live
// transition by t" — t is the joinee here, not the joiner.
func (t *ThreadJoin) CoenabledWith(other Transition) bool {
	return other.Executor() != t.Other
}

func (t *ThreadJoin) CloneIn(s *State) Transition {
	cpy := *t
	return &cpy
}
