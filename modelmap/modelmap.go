// Package modelmap implements the model-to-system map (spec §4.F): the
// coordinator-owned bijection between remote addresses observed over the
// mailbox and the dense object/runner ids the operational model uses
// internally. Go's native map sidesteps the probe-chain hash-table defect
// noted against the original source's hashtable.c (see DESIGN.md) —
// there is no linear-probe remove-shifts-live-entries hazard to begin
// with.
package modelmap

import (
	"mcmini/mailbox"
	"mcmini/model"
)

// Map is not safe for concurrent use: per §5, it is coordinator-only and
// the coordinator itself is single-threaded by construction.
type Map struct {
	objects map[mailbox.Addr]model.ObjID
	runners map[mailbox.Addr]model.RunnerID
	addrOf  map[model.RunnerID]mailbox.Addr
}

func New() *Map {
	return &Map{
		objects: map[mailbox.Addr]model.ObjID{},
		runners: map[mailbox.Addr]model.RunnerID{},
		addrOf:  map[model.RunnerID]mailbox.Addr{},
	}
}

func (m *Map) Contains(addr mailbox.Addr) bool {
	_, ok := m.objects[addr]
	return ok
}

func (m *Map) GetModelOf(addr mailbox.Addr) model.ObjID {
	id, ok := m.objects[addr]
	if !ok {
		return model.InvalidObjID
	}
	return id
}

// ObserveObject is idempotent: the first call with a given addr creates
// the object via newState and owns its id; every later call with that
// addr returns the same id and ignores newState, per §4.F and property
// P6 ("observe_object called twice with the same a returns the same id
// and leaves the pre-existing object's state untouched").
func (m *Map) ObserveObject(addr mailbox.Addr, s *model.State, newObject func() model.VisibleObject) model.ObjID {
	if id, ok := m.objects[addr]; ok {
		return id
	}
	id := s.AddObject(newObject())
	m.objects[addr] = id
	return id
}

// ObserveRunner is the runner-id analogue of ObserveObject. On first
// observation it allocates a runner id, installs a Thread visible
// object for it, and seeds pending(new_runner) with firstTransition —
// mirroring thread_create(child)'s "pending(child) := thread_start(child)"
// effect. The thread_create decoder is its caller; the initial main
// runner is bound through BindRunner instead.
func (m *Map) ObserveRunner(
	addr mailbox.Addr,
	s *model.State,
	initialPhase model.ThreadPhase,
	firstTransition func(r model.RunnerID, threadObj model.ObjID) model.Transition,
) model.RunnerID {
	if r, ok := m.runners[addr]; ok {
		return r
	}
	r, ok := s.AddRunner()
	if !ok {
		return model.InvalidRunnerID
	}
	threadObj := s.AddObject(model.NewThread(r, initialPhase))
	s.BindThreadObj(r, threadObj)
	s.SetPending(r, firstTransition(r, threadObj))
	m.runners[addr] = r
	m.addrOf[r] = addr
	return r
}

// BindRunner installs an addr↔runner binding for a runner the coordinator
// already created directly (the bootstrap main runner, which exists
// before any mailbox traffic names it), rather than one discovered via
// ObserveRunner from a thread_create payload.
func (m *Map) BindRunner(addr mailbox.Addr, r model.RunnerID) {
	m.runners[addr] = r
	m.addrOf[r] = addr
}

func (m *Map) RunnerOf(addr mailbox.Addr) (model.RunnerID, bool) {
	r, ok := m.runners[addr]
	return r, ok
}

// AddrOf is the inverse of RunnerOf: the remote address the coordinator
// must hand to process_handle.execute_runner to drive r.
func (m *Map) AddrOf(r model.RunnerID) (mailbox.Addr, bool) {
	addr, ok := m.addrOf[r]
	return addr, ok
}
