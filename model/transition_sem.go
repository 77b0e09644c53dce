package model

// SemInitT is sem_init(s, n).
type SemInitT struct {
	executor RunnerID
	Sem      ObjID
	Initial  int
}

func (t *SemInitT) Executor() RunnerID   { return t.executor }
func (t *SemInitT) Kind() TransitionKind { return SemInit }
func (t *SemInitT) Operands() []ObjID    { return []ObjID{t.Sem} }
func (t *SemInitT) String() string       { return "sem_init(" + itoa(int(t.Sem)) + ")" }

func (t *SemInitT) sem(s *State) (*Semaphore, bool) { return Object[*Semaphore](s, t.Sem) }

func (t *SemInitT) Enabled(s *State) bool {
	sem, ok := t.sem(s)
	return ok && !sem.initialized
}

func (t *SemInitT) Violation(s *State) bool { return !t.Enabled(s) }

func (t *SemInitT) Apply(s *State) error {
	sem, _ := t.sem(s)
	sem.initialized = true
	sem.Count = t.Initial
	sem.Queue = nil
	s.ClearPending(t.executor)
	return nil
}

func (t *SemInitT) DependsOn(other Transition) bool {
	o, ok := other.(*SemInitT)
	return ok && o.Sem == t.Sem
}

func (t *SemInitT) CoenabledWith(Transition) bool { return true }

func (t *SemInitT) CloneIn(s *State) Transition {
	cpy := *t
	return &cpy
}

// SemWait is sem_wait(s).
type SemWait struct {
	executor RunnerID
	Sem      ObjID
}

func (t *SemWait) Executor() RunnerID   { return t.executor }
func (t *SemWait) Kind() TransitionKind { return SemWaitKind }
func (t *SemWait) Operands() []ObjID    { return []ObjID{t.Sem} }
func (t *SemWait) String() string       { return "sem_wait(" + itoa(int(t.Sem)) + ")" }

func (t *SemWait) sem(s *State) (*Semaphore, bool) { return Object[*Semaphore](s, t.Sem) }

func (t *SemWait) Enabled(s *State) bool {
	sem, ok := t.sem(s)
	return ok && sem.initialized && sem.Count > 0
}

// Violation is only the object-lifecycle case: waiting on a never
// initialized semaphore. count == 0 is ordinary, legitimate blocking.
func (t *SemWait) Violation(s *State) bool {
	sem, ok := t.sem(s)
	return !ok || !sem.initialized
}

func (t *SemWait) Apply(s *State) error {
	sem, _ := t.sem(s)
	sem.Count--
	sem.dequeue(t.executor)
	s.ClearPending(t.executor)
	return nil
}

func (t *SemWait) DependsOn(other Transition) bool {
	switch o := other.(type) {
	case *SemWait:
		return o.Sem == t.Sem
	case *SemPostT:
		return o.Sem == t.Sem
	}
	return false
}

func (t *SemWait) CoenabledWith(Transition) bool { return true }

func (t *SemWait) CloneIn(s *State) Transition {
	cpy := *t
	return &cpy
}

// SemPostT is sem_post(s).
type SemPostT struct {
	executor RunnerID
	Sem      ObjID
}

func (t *SemPostT) Executor() RunnerID   { return t.executor }
func (t *SemPostT) Kind() TransitionKind { return SemPost }
func (t *SemPostT) Operands() []ObjID    { return []ObjID{t.Sem} }
func (t *SemPostT) String() string       { return "sem_post(" + itoa(int(t.Sem)) + ")" }

func (t *SemPostT) sem(s *State) (*Semaphore, bool) { return Object[*Semaphore](s, t.Sem) }

func (t *SemPostT) Enabled(s *State) bool {
	sem, ok := t.sem(s)
	return ok && sem.initialized
}

func (t *SemPostT) Violation(s *State) bool { return !t.Enabled(s) }

func (t *SemPostT) Apply(s *State) error {
	sem, _ := t.sem(s)
	sem.Count++
	s.ClearPending(t.executor)
	return nil
}

func (t *SemPostT) DependsOn(other Transition) bool {
	o, ok := other.(*SemWait)
	return ok && o.Sem == t.Sem
}

func (t *SemPostT) CoenabledWith(Transition) bool { return true }

func (t *SemPostT) CloneIn(s *State) Transition {
	cpy := *t
	return &cpy
}
