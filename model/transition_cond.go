package model

// CondInitT is pthread_cond_init(c).
type CondInitT struct {
	executor RunnerID
	Cond     ObjID
}

func (t *CondInitT) Executor() RunnerID   { return t.executor }
func (t *CondInitT) Kind() TransitionKind { return CondInit }
func (t *CondInitT) Operands() []ObjID    { return []ObjID{t.Cond} }
func (t *CondInitT) String() string       { return "cond_init(" + itoa(int(t.Cond)) + ")" }

func (t *CondInitT) cond(s *State) (*ConditionVariable, bool) { return Object[*ConditionVariable](s, t.Cond) }

func (t *CondInitT) Enabled(s *State) bool {
	c, ok := t.cond(s)
	return ok && (c.Phase == CondUninitialized || c.Phase == CondDestroyed)
}

func (t *CondInitT) Violation(s *State) bool { return !t.Enabled(s) }

func (t *CondInitT) Apply(s *State) error {
	c, _ := t.cond(s)
	c.Phase = CondValid
	c.Mutex = InvalidObjID
	c.Queue = nil
	c.Signaled = map[RunnerID]bool{}
	s.ClearPending(t.executor)
	return nil
}

func (t *CondInitT) DependsOn(other Transition) bool {
	o, ok := other.(*CondInitT)
	return ok && o.Cond == t.Cond
}

func (t *CondInitT) CoenabledWith(Transition) bool { return true }

func (t *CondInitT) CloneIn(s *State) Transition {
	cpy := *t
	return &cpy
}

// CondEnqueue is pthread_cond_wait(c, m): atomically unlocks m, enqueues
// the executor on c, and synthesizes the cond_awake continuation that
// will resume it once it is at the front of the queue (or signalled) and
// m is free again. Grounded in original_source's MCCondEnqueue, which
// performs the same "phantom unlock" as part of a single applied effect.
type CondEnqueue struct {
	executor RunnerID
	Cond     ObjID
	Mutex    ObjID
}

func (t *CondEnqueue) Executor() RunnerID   { return t.executor }
func (t *CondEnqueue) Kind() TransitionKind { return CondEnqueueKind }
func (t *CondEnqueue) Operands() []ObjID    { return []ObjID{t.Cond, t.Mutex} }
func (t *CondEnqueue) String() string {
	return "cond_enqueue(" + itoa(int(t.Cond)) + "," + itoa(int(t.Mutex)) + ")"
}

func (t *CondEnqueue) cond(s *State) (*ConditionVariable, bool) { return Object[*ConditionVariable](s, t.Cond) }
func (t *CondEnqueue) mutex(s *State) (*Mutex, bool)            { return Object[*Mutex](s, t.Mutex) }

func (t *CondEnqueue) Enabled(s *State) bool {
	c, ok := t.cond(s)
	if !ok || c.Phase != CondValid {
		return false
	}
	m, ok := t.mutex(s)
	if !ok || !m.LockedBy(t.executor) {
		return false
	}
	return c.Mutex == InvalidObjID || c.Mutex == t.Mutex
}

// Violation: pthread_cond_wait requires the caller already hold m and
// use a single mutex consistently with c; this is a precondition of the
// call itself, not something scheduling can satisfy later.
func (t *CondEnqueue) Violation(s *State) bool { return !t.Enabled(s) }

func (t *CondEnqueue) Apply(s *State) error {
	c, _ := t.cond(s)
	m, _ := t.mutex(s)
	c.Mutex = t.Mutex
	c.Queue = append(c.Queue, t.executor)
	m.Phase = MutexUnlocked
	m.Holder = InvalidRunnerID
	s.SetPending(t.executor, &CondAwake{executor: t.executor, Cond: t.Cond, Mutex: t.Mutex})
	return nil
}

func (t *CondEnqueue) DependsOn(other Transition) bool {
	switch o := other.(type) {
	case *CondEnqueue:
		return o.Cond == t.Cond || o.Mutex == t.Mutex
	case *CondSignalT:
		return o.Cond == t.Cond
	case *CondBroadcastT:
		return o.Cond == t.Cond
	case *CondDestroyT:
		return o.Cond == t.Cond
	case *MutexLockT:
		return o.Mutex == t.Mutex
	case *MutexUnlockT:
		return o.Mutex == t.Mutex
	}
	return false
}

// CoenabledWith: "cond_enqueue pairs on the same variable are mutually
// exclusive (only one acquires the associated mutex at enqueue time)."
func (t *CondEnqueue) CoenabledWith(other Transition) bool {
	o, ok := other.(*CondEnqueue)
	return !(ok && o.Cond == t.Cond)
}

func (t *CondEnqueue) CloneIn(s *State) Transition {
	cpy := *t
	return &cpy
}

// CondAwake is the synthetic continuation of CondEnqueue: it never
// arrives over the mailbox, it is produced directly by CondEnqueue's
// Apply (and re-checked, never re-decoded, until it becomes enabled).
type CondAwake struct {
	executor RunnerID
	Cond     ObjID
	Mutex    ObjID
}

func (t *CondAwake) Executor() RunnerID   { return t.executor }
func (t *CondAwake) Kind() TransitionKind { return CondAwakeKind }
func (t *CondAwake) Operands() []ObjID    { return []ObjID{t.Cond, t.Mutex} }
func (t *CondAwake) String() string {
	return "cond_awake(" + itoa(int(t.Cond)) + "," + itoa(int(t.Mutex)) + ")"
}

func (t *CondAwake) cond(s *State) (*ConditionVariable, bool) { return Object[*ConditionVariable](s, t.Cond) }
func (t *CondAwake) mutex(s *State) (*Mutex, bool)            { return Object[*Mutex](s, t.Mutex) }

func (t *CondAwake) Enabled(s *State) bool {
	c, ok := t.cond(s)
	if !ok || !c.InQueue(t.executor) {
		return false
	}
	if !(c.Front(t.executor) || c.Signaled[t.executor]) {
		return false
	}
	m, ok := t.mutex(s)
	return ok && m.Phase == MutexUnlocked
}

// Violation is always false: cond_enqueue already validated every
// precondition, so cond_awake is purely a legitimate, transient block.
func (t *CondAwake) Violation(*State) bool { return false }

func (t *CondAwake) Apply(s *State) error {
	c, _ := t.cond(s)
	m, _ := t.mutex(s)
	c.dequeue(t.executor)
	m.Phase = MutexLocked
	m.Holder = t.executor
	s.ClearPending(t.executor)
	return nil
}

func (t *CondAwake) DependsOn(other Transition) bool {
	switch o := other.(type) {
	case *CondSignalT:
		return o.Cond == t.Cond
	case *CondBroadcastT:
		return o.Cond == t.Cond
	case *MutexUnlockT:
		return o.Mutex == t.Mutex
	case *MutexLockT:
		return o.Mutex == t.Mutex
	case *CondAwake:
		return o.Mutex == t.Mutex
	}
	return false
}

// CoenabledWith: cond_awake's final acquisition step is the same kind
// of race as mutex_lock — two waiters on the same now-unlocked mutex
// are both enabled, only one of them wins, so they are co-enabled, not
// excluded.
func (t *CondAwake) CoenabledWith(Transition) bool { return true }

func (t *CondAwake) CloneIn(s *State) Transition {
	cpy := *t
	return &cpy
}

// CondSignalT is pthread_cond_signal(c): wakes at most the head waiter.
type CondSignalT struct {
	executor RunnerID
	Cond     ObjID
}

func (t *CondSignalT) Executor() RunnerID   { return t.executor }
func (t *CondSignalT) Kind() TransitionKind { return CondSignal }
func (t *CondSignalT) Operands() []ObjID    { return []ObjID{t.Cond} }
func (t *CondSignalT) String() string       { return "cond_signal(" + itoa(int(t.Cond)) + ")" }

func (t *CondSignalT) cond(s *State) (*ConditionVariable, bool) { return Object[*ConditionVariable](s, t.Cond) }

func (t *CondSignalT) Enabled(s *State) bool {
	c, ok := t.cond(s)
	return ok && c.Phase == CondValid
}

func (t *CondSignalT) Violation(s *State) bool { return !t.Enabled(s) }

func (t *CondSignalT) Apply(s *State) error {
	c, _ := t.cond(s)
	if len(c.Queue) > 0 {
		c.Signaled[c.Queue[0]] = true
	}
	s.ClearPending(t.executor)
	return nil
}

func (t *CondSignalT) DependsOn(other Transition) bool {
	switch o := other.(type) {
	case *CondEnqueue:
		return o.Cond == t.Cond
	case *CondSignalT:
		return o.Cond == t.Cond
	case *CondBroadcastT:
		return o.Cond == t.Cond
	case *CondDestroyT:
		return o.Cond == t.Cond
	}
	return false
}

func (t *CondSignalT) CoenabledWith(Transition) bool { return true }

func (t *CondSignalT) CloneIn(s *State) Transition {
	cpy := *t
	return &cpy
}

// CondBroadcastT is pthread_cond_broadcast(c): wakes every waiter.
type CondBroadcastT struct {
	executor RunnerID
	Cond     ObjID
}

func (t *CondBroadcastT) Executor() RunnerID   { return t.executor }
func (t *CondBroadcastT) Kind() TransitionKind { return CondBroadcast }
func (t *CondBroadcastT) Operands() []ObjID    { return []ObjID{t.Cond} }
func (t *CondBroadcastT) String() string       { return "cond_broadcast(" + itoa(int(t.Cond)) + ")" }

func (t *CondBroadcastT) cond(s *State) (*ConditionVariable, bool) { return Object[*ConditionVariable](s, t.Cond) }

func (t *CondBroadcastT) Enabled(s *State) bool {
	c, ok := t.cond(s)
	return ok && c.Phase == CondValid
}

func (t *CondBroadcastT) Violation(s *State) bool { return !t.Enabled(s) }

func (t *CondBroadcastT) Apply(s *State) error {
	c, _ := t.cond(s)
	for _, r := range c.Queue {
		c.Signaled[r] = true
	}
	s.ClearPending(t.executor)
	return nil
}

func (t *CondBroadcastT) DependsOn(other Transition) bool {
	switch o := other.(type) {
	case *CondEnqueue:
		return o.Cond == t.Cond
	case *CondSignalT:
		return o.Cond == t.Cond
	case *CondBroadcastT:
		return o.Cond == t.Cond
	case *CondDestroyT:
		return o.Cond == t.Cond
	}
	return false
}

func (t *CondBroadcastT) CoenabledWith(Transition) bool { return true }

func (t *CondBroadcastT) CloneIn(s *State) Transition {
	cpy := *t
	return &cpy
}

// CondDestroyT is pthread_cond_destroy(c).
type CondDestroyT struct {
	executor RunnerID
	Cond     ObjID
}

func (t *CondDestroyT) Executor() RunnerID   { return t.executor }
func (t *CondDestroyT) Kind() TransitionKind { return CondDestroy }
func (t *CondDestroyT) Operands() []ObjID    { return []ObjID{t.Cond} }
func (t *CondDestroyT) String() string       { return "cond_destroy(" + itoa(int(t.Cond)) + ")" }

func (t *CondDestroyT) cond(s *State) (*ConditionVariable, bool) { return Object[*ConditionVariable](s, t.Cond) }

func (t *CondDestroyT) Enabled(s *State) bool {
	c, ok := t.cond(s)
	return ok && len(c.Queue) == 0
}

// Violation adds the lifecycle check the table's "queue = ∅" condition
// alone does not cover: destroying a cond var that was never a live,
// valid cond var is undefined behavior regardless of its (empty) queue.
func (t *CondDestroyT) Violation(s *State) bool {
	c, ok := t.cond(s)
	return !ok || c.Phase != CondValid || len(c.Queue) != 0
}

func (t *CondDestroyT) Apply(s *State) error {
	c, _ := t.cond(s)
	c.Phase = CondDestroyed
	s.ClearPending(t.executor)
	return nil
}

func (t *CondDestroyT) DependsOn(other Transition) bool {
	switch o := other.(type) {
	case *CondInitT:
		return o.Cond == t.Cond
	case *CondEnqueue:
		return o.Cond == t.Cond
	case *CondSignalT:
		return o.Cond == t.Cond
	case *CondBroadcastT:
		return o.Cond == t.Cond
	case *CondDestroyT:
		return o.Cond == t.Cond
	}
	return false
}

func (t *CondDestroyT) CoenabledWith(Transition) bool { return true }

func (t *CondDestroyT) CloneIn(s *State) Transition {
	cpy := *t
	return &cpy
}
