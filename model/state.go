package model

import "sort"

// TraceEntry records one applied transition together with the index at
// which it was applied (spec §3 addition: lets reporting refer to "step
// k" the way the source's --print-at-traceId does).
type TraceEntry struct {
	Index      int
	Runner     RunnerID
	Transition Transition
}

// State is the program state (spec §3, §4.E): the triple of visible
// objects, a per-runner pending transition map, and the trace of applied
// transitions. State exclusively owns its visible objects; transitions
// only ever hold ObjIDs.
type State struct {
	objects   map[ObjID]VisibleObject
	nextObjID ObjID

	pending      map[RunnerID]Transition
	liveRunners  map[RunnerID]bool
	nextRunnerID RunnerID
	threadObjOf  map[RunnerID]ObjID

	trace []TraceEntry
}

// NewState builds the initial state S0 described by DPOR step 1: a single
// running main thread with pending transition thread_start(main).
func NewState() *State {
	s := &State{
		objects:      map[ObjID]VisibleObject{},
		pending:      map[RunnerID]Transition{},
		liveRunners:  map[RunnerID]bool{},
		nextRunnerID: MainRunner,
		threadObjOf:  map[RunnerID]ObjID{},
	}
	r, _ := s.AddRunner()
	tid := s.AddObject(NewThread(r, ThreadRunning))
	s.BindThreadObj(r, tid)
	s.pending[r] = &ThreadStart{executor: r, threadObj: tid}
	return s
}

// BindThreadObj records which ObjID holds runner r's Thread object, so
// later transitions (thread_start/exit/join, decoded independently of
// thread_create) can find it without scanning every visible object.
func (s *State) BindThreadObj(r RunnerID, obj ObjID) {
	s.threadObjOf[r] = obj
}

// ThreadObj returns the ObjID of runner r's Thread visible object.
func (s *State) ThreadObj(r RunnerID) (ObjID, bool) {
	id, ok := s.threadObjOf[r]
	return id, ok
}

// AddObject assigns the next dense ObjID to o and takes ownership of it.
func (s *State) AddObject(o VisibleObject) ObjID {
	id := s.nextObjID
	s.nextObjID++
	s.objects[id] = o
	return id
}

// AddRunner allocates the next dense RunnerID and marks it live. It does
// not create the runner's Thread visible object; callers that need one
// (everyone but NewState, which inlines it to bootstrap runner 0) should
// call AddObject(NewThread(...)) themselves and keep the returned ObjID.
func (s *State) AddRunner() (RunnerID, bool) {
	r := s.nextRunnerID
	s.nextRunnerID++
	if s.liveRunners[r] {
		return InvalidRunnerID, false
	}
	s.liveRunners[r] = true
	return r, true
}

// Object looks up the object with the given id and asserts it has type T.
func Object[T VisibleObject](s *State, id ObjID) (T, bool) {
	var zero T
	o, ok := s.objects[id]
	if !ok {
		return zero, false
	}
	t, ok := o.(T)
	return t, ok
}

// Runners returns the live runner ids in ascending order.
func (s *State) Runners() []RunnerID {
	out := make([]RunnerID, 0, len(s.liveRunners))
	for r := range s.liveRunners {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (s *State) IsLive(r RunnerID) bool { return s.liveRunners[r] }

// Pending returns the transition a runner is waiting to perform, if any.
func (s *State) Pending(r RunnerID) (Transition, bool) {
	t, ok := s.pending[r]
	return t, ok
}

func (s *State) SetPending(r RunnerID, t Transition) { s.pending[r] = t }

func (s *State) ClearPending(r RunnerID) { delete(s.pending, r) }

// Finish removes a runner that has reached thread_exit: invariant 5
// requires a finished runner have no further pending transition.
func (s *State) Finish(r RunnerID) {
	delete(s.liveRunners, r)
	delete(s.pending, r)
}

// Trace returns the ordered sequence of transitions applied so far.
func (s *State) Trace() []TraceEntry { return s.trace }

// Apply mutates the state by invoking t.Apply and appends t to the trace.
// It is undefined behavior at the caller level to call Apply on a
// transition for which Enabled returned false; Apply does not re-check.
func (s *State) Apply(r RunnerID, t Transition) error {
	if err := t.Apply(s); err != nil {
		return err
	}
	s.trace = append(s.trace, TraceEntry{Index: len(s.trace), Runner: r, Transition: t})
	return nil
}

// Clone returns a deep copy of s in O(|state|), used by DPOR to keep a
// stack of states for backtracking and by the coordinator's reset_to.
func (s *State) Clone() *State {
	cpy := &State{
		objects:      make(map[ObjID]VisibleObject, len(s.objects)),
		nextObjID:    s.nextObjID,
		pending:      make(map[RunnerID]Transition, len(s.pending)),
		liveRunners:  make(map[RunnerID]bool, len(s.liveRunners)),
		nextRunnerID: s.nextRunnerID,
		threadObjOf:  make(map[RunnerID]ObjID, len(s.threadObjOf)),
		trace:        append([]TraceEntry(nil), s.trace...),
	}
	for id, o := range s.objects {
		cpy.objects[id] = o.Clone()
	}
	for r, ok := range s.liveRunners {
		cpy.liveRunners[r] = ok
	}
	for r, id := range s.threadObjOf {
		cpy.threadObjOf[r] = id
	}
	for r, t := range s.pending {
		cpy.pending[r] = t.CloneIn(cpy)
	}
	return cpy
}

// Validate checks that invariants 1, 2, 4 and 5 of spec §3 hold in s;
// invariants 3 and 6 are not checked. It is used by tests, not by the
// hot path.
func (s *State) Validate() error {
	for id, o := range s.objects {
		switch obj := o.(type) {
		case *Mutex:
			if obj.Phase == MutexLocked {
				th, ok := s.threadFor(obj.Holder)
				if !ok || th.Phase != ThreadRunning {
					return &invariantError{1, id}
				}
			}
		case *ConditionVariable:
			for _, r := range obj.Queue {
				t, ok := s.pending[r]
				if !ok {
					return &invariantError{2, id}
				}
				ca, ok := t.(*CondAwake)
				if !ok || ca.Cond != id {
					return &invariantError{2, id}
				}
			}
		case *Semaphore:
			if obj.Count < 0 {
				return &invariantError{4, id}
			}
			for _, r := range obj.Queue {
				t, ok := s.pending[r]
				if !ok {
					return &invariantError{4, id}
				}
				sw, ok := t.(*SemWait)
				if !ok || sw.Sem != id {
					return &invariantError{4, id}
				}
			}
		case *Thread:
			if obj.Phase == ThreadFinished {
				if _, ok := s.pending[obj.Runner]; ok {
					return &invariantError{5, id}
				}
			}
		}
	}
	return nil
}

func (s *State) threadFor(r RunnerID) (*Thread, bool) {
	for _, o := range s.objects {
		if t, ok := o.(*Thread); ok && t.Runner == r {
			return t, true
		}
	}
	return nil, false
}

type invariantError struct {
	invariant int
	object    ObjID
}

func (e *invariantError) Error() string {
	return "model: invariant " + itoa(e.invariant) + " violated at object " + itoa(int(e.object))
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
