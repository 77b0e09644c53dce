// Package coordinator implements the coordinator of spec §4.G: the only
// party that may force a new target process and advance a runner. It
// owns the current program state and the current process handle, and is
// the bridge between the model-to-system map/registry (decoding mailbox
// traffic into transitions) and the DPOR search (which only ever reads
// program state and calls ExecuteRunner/ResetTo).
package coordinator

import (
	"errors"
	"fmt"

	"mcmini/model"
	"mcmini/modelmap"
	"mcmini/realworld"
	"mcmini/registry"
)

// shadowObjectSource is implemented by process sources that reconstruct
// their initial visible-object set from something other than live
// mailbox traffic — CheckpointSource, concretely (spec §4.K, §9's
// checkpoint-restart Open Question) — rather than discovering objects
// incrementally the way ForkExecSource does via ObserveObject. An
// interface check rather than a type switch on the concrete type, so a
// future third process source can opt in the same way without this
// package naming it.
type shadowObjectSource interface {
	InitialObjects() ([]realworld.ShadowObject, error)
}

// Sentinel errors, errors.Is-compatible per spec §7.
var (
	ErrUndefinedBehavior = errors.New("coordinator: transition is undefined behavior")
	ErrReplayDivergence  = errors.New("coordinator: replay diverged from recorded prefix")
	ErrNoPending         = errors.New("coordinator: runner has no pending transition")
)

// Coordinator drives a single target process through a chosen
// interleaving, one runner at a time, per spec §4.G.
type Coordinator struct {
	source   realworld.ProcessSource
	reg      *registry.Registry
	process  realworld.ProcessHandle
	state    *model.State
	modelMap *modelmap.Map
}

// New creates a coordinator bound to source and reg, with no process and
// no state yet — callers must call ResetTo(nil) (or Start) before the
// first ExecuteRunner.
func New(source realworld.ProcessSource, reg *registry.Registry) *Coordinator {
	return &Coordinator{source: source, reg: reg}
}

// State returns the coordinator's current program state, read-only from
// the DPOR search's point of view — only the coordinator ever calls
// State.Apply.
func (c *Coordinator) State() *model.State { return c.state }

// Start forces a brand-new process and a brand-new state, equivalent to
// ResetTo(nil).
func (c *Coordinator) Start() error {
	return c.ResetTo(nil)
}

// PrefixEntry is one step of a replay prefix: the runner scheduled and
// the transition execute_runner is expected to reproduce.
type PrefixEntry struct {
	Runner     model.RunnerID
	Transition model.Transition
}

// ResetTo discards the current process (if any), asks the process
// source for a new one, builds a fresh program state and model map, and
// replays prefix by calling ExecuteRunner(r) for each entry and asserting
// the produced transition equals the recorded one. This is the only
// legitimate way for DPOR to traverse upward in the search (spec §4.G).
func (c *Coordinator) ResetTo(prefix []PrefixEntry) error {
	if c.process != nil {
		c.process.Release()
		c.process = nil
	}

	proc, err := c.source.ForceNewProcess()
	if err != nil {
		return fmt.Errorf("%w: %v", realworld.ErrSpawn, err)
	}
	c.process = proc
	c.state = model.NewState()
	c.modelMap = modelmap.New()
	c.modelMap.BindRunner(realworld.Addr(model.MainRunner), model.MainRunner)

	if shadow, ok := c.source.(shadowObjectSource); ok {
		if err := c.seedShadowObjects(shadow); err != nil {
			return err
		}
	}

	for _, entry := range prefix {
		got, err := c.ExecuteRunner(entry.Runner)
		if err != nil {
			return err
		}
		if got.String() != entry.Transition.String() {
			return fmt.Errorf("%w: runner %d expected %s, got %s",
				ErrReplayDivergence, entry.Runner, entry.Transition, got)
		}
	}
	return nil
}

// ExecuteRunner implements spec §4.G's execute_runner(r): requires
// pending(r) to exist, applies it, and — unless applying it synthesized
// a brand new pending(r) for the same runner (the only case is
// CondEnqueue producing CondAwake) — drives the real process one more
// mailbox round trip to decode r's next transition and stash it as the
// new pending(r).
//
// Every other transition kind only ever clears its own executor's
// pending slot, so after applying oldPending the pending map has no
// entry for r and this function must ask the process what r does next.
// CondEnqueue is the one exception: its Apply sets pending(r) to
// CondAwake directly, and CondAwake is never independently decoded off
// the mailbox — it only ever becomes enabled by later scheduling. This
// function detects that case by checking whether pending(r) is already
// populated right after Apply and, if so, skips the process call.
func (c *Coordinator) ExecuteRunner(r model.RunnerID) (model.Transition, error) {
	oldPending, ok := c.state.Pending(r)
	if !ok {
		return nil, fmt.Errorf("%w: runner %d", ErrNoPending, r)
	}

	if oldPending.Violation(c.state) {
		return nil, fmt.Errorf("%w: %s", ErrUndefinedBehavior, oldPending)
	}

	if err := c.state.Apply(r, oldPending); err != nil {
		return nil, err
	}

	if _, stillPending := c.state.Pending(r); stillPending {
		return oldPending, nil
	}

	if oldPending.Kind() == model.ThreadExitKind {
		return oldPending, nil
	}

	addr, ok := c.modelMap.AddrOf(r)
	if !ok {
		return nil, fmt.Errorf("%w: runner %d has no bound remote address", model.ErrUnknownObject, r)
	}

	buf, err := c.process.ExecuteRunner(addr)
	if err != nil {
		return nil, err
	}

	next, err := c.reg.Decode(r, buf, c.modelMap, c.state)
	if err != nil {
		return nil, err
	}
	c.state.SetPending(r, next)
	return oldPending, nil
}

// seedShadowObjects walks shadow's shadow-object list and ObserveObjects
// each one before the first ExecuteRunner call, giving a
// checkpoint-restored run the same starting visible-object set
// ObserveObject would have built incrementally for a freshly forked
// process — satisfying "the core treats both uniformly" upstream of
// this function. The checkpoint image records only (addr, kind), not
// the object's exact runtime state (locked/unlocked, queue contents);
// each shadow object is seeded in its freshly-initialized state, a
// recorded simplification (DESIGN.md) since spec §9 leaves DMTCP's
// internal state format out of scope beyond "reconstructs the initial
// program state."
func (c *Coordinator) seedShadowObjects(shadow shadowObjectSource) error {
	objs, err := shadow.InitialObjects()
	if err != nil {
		return fmt.Errorf("coordinator: seeding shadow objects: %w", err)
	}
	for _, obj := range objs {
		newObject, err := shadowObjectConstructor(obj.Kind)
		if err != nil {
			return err
		}
		c.modelMap.ObserveObject(obj.Addr, c.state, newObject)
	}
	return nil
}

// shadowObjectConstructor resolves a shadow object's recorded kind (one
// of the registry package's *_Init wire type ids, reused here as an
// object-kind tag) to the same VisibleObject constructor the
// registry's own decoders use for a live mailbox-observed object of
// that kind.
func shadowObjectConstructor(kind uint32) (func() model.VisibleObject, error) {
	switch kind {
	case uint32(registry.TypeMutexInit):
		return func() model.VisibleObject { return model.NewMutex() }, nil
	case uint32(registry.TypeCondInit):
		return func() model.VisibleObject { return model.NewConditionVariable() }, nil
	case uint32(registry.TypeSemInit):
		return func() model.VisibleObject { return model.NewSemaphore() }, nil
	default:
		return nil, fmt.Errorf("coordinator: shadow object has unrecognized kind %d", kind)
	}
}
