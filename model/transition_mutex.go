package model

// MutexInitT is pthread_mutex_init(m).
type MutexInitT struct {
	executor RunnerID
	Mutex    ObjID
}

func (t *MutexInitT) Executor() RunnerID      { return t.executor }
func (t *MutexInitT) Kind() TransitionKind    { return MutexInit }
func (t *MutexInitT) Operands() []ObjID       { return []ObjID{t.Mutex} }
func (t *MutexInitT) String() string          { return "mutex_init(" + itoa(int(t.Mutex)) + ")" }

func (t *MutexInitT) mutex(s *State) (*Mutex, bool) { return Object[*Mutex](s, t.Mutex) }

func (t *MutexInitT) Enabled(s *State) bool {
	m, ok := t.mutex(s)
	return ok && (m.Phase == MutexUninitialized || m.Phase == MutexDestroyed)
}

// Violation reports re-init of a live mutex: POSIX makes this undefined,
// and unlike contention it can never resolve by waiting.
func (t *MutexInitT) Violation(s *State) bool { return !t.Enabled(s) }

func (t *MutexInitT) Apply(s *State) error {
	m, _ := t.mutex(s)
	m.Phase = MutexUnlocked
	m.Holder = InvalidRunnerID
	s.ClearPending(t.executor)
	return nil
}

func (t *MutexInitT) DependsOn(other Transition) bool {
	o, ok := other.(*MutexInitT)
	return ok && o.Mutex == t.Mutex
}

// CoenabledWith: the spec's co-enabled table lists no exclusion for
// mutex_init/mutex_init — two inits of the same uninitialized m by
// different runners are both enabled in that shared starting state, so
// they are co-enabled even though only one of them can apply there.
func (t *MutexInitT) CoenabledWith(Transition) bool { return true }

func (t *MutexInitT) CloneIn(s *State) Transition {
	cpy := *t
	return &cpy
}

// MutexLockT is pthread_mutex_lock(m).
type MutexLockT struct {
	executor RunnerID
	Mutex    ObjID
}

func (t *MutexLockT) Executor() RunnerID   { return t.executor }
func (t *MutexLockT) Kind() TransitionKind { return MutexLock }
func (t *MutexLockT) Operands() []ObjID    { return []ObjID{t.Mutex} }
func (t *MutexLockT) String() string       { return "mutex_lock(" + itoa(int(t.Mutex)) + ")" }

func (t *MutexLockT) mutex(s *State) (*Mutex, bool) { return Object[*Mutex](s, t.Mutex) }

func (t *MutexLockT) Enabled(s *State) bool {
	m, ok := t.mutex(s)
	return ok && m.Phase == MutexUnlocked
}

// Violation reports locking a mutex that is not live (uninitialized or
// destroyed). Contention (mutex held by someone else) is ordinary
// blocking, not a violation.
func (t *MutexLockT) Violation(s *State) bool {
	m, ok := t.mutex(s)
	return !ok || m.Phase == MutexUninitialized || m.Phase == MutexDestroyed
}

func (t *MutexLockT) Apply(s *State) error {
	m, _ := t.mutex(s)
	m.Phase = MutexLocked
	m.Holder = t.executor
	s.ClearPending(t.executor)
	return nil
}

func (t *MutexLockT) DependsOn(other Transition) bool {
	switch o := other.(type) {
	case *MutexLockT:
		return o.Mutex == t.Mutex
	case *MutexUnlockT:
		return o.Mutex == t.Mutex
	case *MutexDestroyT:
		return o.Mutex == t.Mutex
	case *MutexInitT:
		return o.Mutex == t.Mutex
	}
	return false
}

// CoenabledWith matches the spec's literal rule: mutex_lock(m) IS
// co-enabled with mutex_lock(m) by a different runner — only one of
// them wins the race, but both are enabled in the shared unlocked
// state — and is NOT co-enabled with mutex_unlock(m) by the same
// runner, since that runner cannot be simultaneously blocked on a lock
// it already holds and unlocking it.
func (t *MutexLockT) CoenabledWith(other Transition) bool {
	if o, ok := other.(*MutexUnlockT); ok {
		return o.Mutex != t.Mutex || o.Executor() != t.Executor()
	}
	return true
}

func (t *MutexLockT) CloneIn(s *State) Transition {
	cpy := *t
	return &cpy
}

// MutexUnlockT is pthread_mutex_unlock(m).
type MutexUnlockT struct {
	executor RunnerID
	Mutex    ObjID
}

func (t *MutexUnlockT) Executor() RunnerID   { return t.executor }
func (t *MutexUnlockT) Kind() TransitionKind { return MutexUnlock }
func (t *MutexUnlockT) Operands() []ObjID    { return []ObjID{t.Mutex} }
func (t *MutexUnlockT) String() string       { return "mutex_unlock(" + itoa(int(t.Mutex)) + ")" }

func (t *MutexUnlockT) mutex(s *State) (*Mutex, bool) { return Object[*Mutex](s, t.Mutex) }

func (t *MutexUnlockT) Enabled(s *State) bool {
	m, ok := t.mutex(s)
	return ok && m.LockedBy(t.executor)
}

// Violation: unlock is synchronous — once issued it cannot become valid
// later by waiting, so any non-enabled unlock (unbalanced unlock, unlock
// of an uninitialized/destroyed mutex) is reported immediately.
func (t *MutexUnlockT) Violation(s *State) bool { return !t.Enabled(s) }

func (t *MutexUnlockT) Apply(s *State) error {
	m, _ := t.mutex(s)
	m.Phase = MutexUnlocked
	m.Holder = InvalidRunnerID
	s.ClearPending(t.executor)
	return nil
}

func (t *MutexUnlockT) DependsOn(other Transition) bool {
	switch o := other.(type) {
	case *MutexLockT:
		return o.Mutex == t.Mutex
	case *MutexUnlockT:
		return o.Mutex == t.Mutex
	case *MutexDestroyT:
		return o.Mutex == t.Mutex
	}
	return false
}

// CoenabledWith mirrors MutexLockT's half of the same rule: not
// co-enabled with a mutex_lock(m) held by the same runner doing the
// unlocking.
func (t *MutexUnlockT) CoenabledWith(other Transition) bool {
	if o, ok := other.(*MutexLockT); ok {
		return o.Mutex != t.Mutex || o.Executor() != t.Executor()
	}
	return true
}

func (t *MutexUnlockT) CloneIn(s *State) Transition {
	cpy := *t
	return &cpy
}

// MutexDestroyT is pthread_mutex_destroy(m).
type MutexDestroyT struct {
	executor RunnerID
	Mutex    ObjID
}

func (t *MutexDestroyT) Executor() RunnerID   { return t.executor }
func (t *MutexDestroyT) Kind() TransitionKind { return MutexDestroy }
func (t *MutexDestroyT) Operands() []ObjID    { return []ObjID{t.Mutex} }
func (t *MutexDestroyT) String() string       { return "mutex_destroy(" + itoa(int(t.Mutex)) + ")" }

func (t *MutexDestroyT) mutex(s *State) (*Mutex, bool) { return Object[*Mutex](s, t.Mutex) }

func (t *MutexDestroyT) Enabled(s *State) bool {
	m, ok := t.mutex(s)
	return ok && m.Phase == MutexUnlocked
}

func (t *MutexDestroyT) Violation(s *State) bool { return !t.Enabled(s) }

func (t *MutexDestroyT) Apply(s *State) error {
	m, _ := t.mutex(s)
	m.Phase = MutexDestroyed
	m.Holder = InvalidRunnerID
	s.ClearPending(t.executor)
	return nil
}

func (t *MutexDestroyT) DependsOn(other Transition) bool {
	switch o := other.(type) {
	case *MutexLockT:
		return o.Mutex == t.Mutex
	case *MutexUnlockT:
		return o.Mutex == t.Mutex
	case *MutexDestroyT:
		return o.Mutex == t.Mutex
	case *MutexInitT:
		return o.Mutex == t.Mutex
	}
	return false
}

func (t *MutexDestroyT) CoenabledWith(Transition) bool { return true }

func (t *MutexDestroyT) CloneIn(s *State) Transition {
	cpy := *t
	return &cpy
}
