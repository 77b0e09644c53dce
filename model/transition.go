package model

// TransitionKind names one of the primitive operations a runner can be
// caught performing (spec §4.D).
type TransitionKind int

const (
	MutexInit TransitionKind = iota
	MutexLock
	MutexUnlock
	MutexDestroy
	CondInit
	CondEnqueueKind
	CondAwakeKind
	CondSignal
	CondBroadcast
	CondDestroy
	SemInit
	SemWaitKind
	SemPost
	ThreadCreateKind
	ThreadStartKind
	ThreadExitKind
	ThreadJoinKind
)

func (k TransitionKind) String() string {
	switch k {
	case MutexInit:
		return "mutex_init"
	case MutexLock:
		return "mutex_lock"
	case MutexUnlock:
		return "mutex_unlock"
	case MutexDestroy:
		return "mutex_destroy"
	case CondInit:
		return "cond_init"
	case CondEnqueueKind:
		return "cond_enqueue"
	case CondAwakeKind:
		return "cond_awake"
	case CondSignal:
		return "cond_signal"
	case CondBroadcast:
		return "cond_broadcast"
	case CondDestroy:
		return "cond_destroy"
	case SemInit:
		return "sem_init"
	case SemWaitKind:
		return "sem_wait"
	case SemPost:
		return "sem_post"
	case ThreadCreateKind:
		return "thread_create"
	case ThreadStartKind:
		return "thread_start"
	case ThreadExitKind:
		return "thread_exit"
	case ThreadJoinKind:
		return "thread_join"
	default:
		return "?"
	}
}

// Transition is one primitive operation a runner performs against the
// model (spec §4.D). Every concrete transition is a small value owned by
// whichever *State it was produced against; CloneIn re-homes it onto a
// cloned state.
//
// Enabled and Violation are deliberately distinct predicates. Enabled
// answers "can this run right now, given interleaving so far" and is the
// one DPOR and coenabled-ness reasoning use. Violation answers "is this
// call wrong independently of how the schedule plays out" — e.g.
// unlocking a mutex you never locked can never become valid by waiting,
// whereas a mutex_lock that finds the mutex held by someone else is
// ordinary, legitimate blocking. The coordinator checks Violation once,
// immediately after decoding a runner's intent, and reports it as
// undefined behavior rather than letting the runner sit blocked forever.
type Transition interface {
	Executor() RunnerID
	Kind() TransitionKind
	Operands() []ObjID
	Enabled(s *State) bool
	Violation(s *State) bool
	Apply(s *State) error
	DependsOn(other Transition) bool
	CoenabledWith(other Transition) bool
	CloneIn(s *State) Transition
	String() string
}

// Coenabled is the canonical entry point for spec §4.D's co-enabled
// relation (P3: "coenabled_with is symmetric"). A single transition's
// CoenabledWith only has to get its own half of a pair right — ANDing
// both directions makes the combined answer symmetric even when one
// side's implementation only special-cases the pair from its own
// vantage point, the same way the type-specific DependsOn methods rely
// on being paired up rather than each covering every other kind.
func Coenabled(a, b Transition) bool {
	return a.CoenabledWith(b) && b.CoenabledWith(a)
}
