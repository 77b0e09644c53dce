package model

// ThreadPhase is the state of a Thread object (spec §3).
type ThreadPhase int

const (
	ThreadEmbryo ThreadPhase = iota
	ThreadRunning
	ThreadSleeping
	ThreadFinished
)

func (p ThreadPhase) String() string {
	switch p {
	case ThreadEmbryo:
		return "embryo"
	case ThreadRunning:
		return "running"
	case ThreadSleeping:
		return "sleeping"
	case ThreadFinished:
		return "finished"
	default:
		return "?"
	}
}

// Thread is the visible-object representation of a runner's own lifecycle,
// distinct from RunnerID: the ObjID lets thread_create/thread_join refer
// to "the thread object for runner r" without holding r directly.
type Thread struct {
	Runner RunnerID
	Phase  ThreadPhase
}

func NewThread(r RunnerID, phase ThreadPhase) *Thread {
	return &Thread{Runner: r, Phase: phase}
}

func (t *Thread) Kind() ObjectKind { return KindThread }

func (t *Thread) Clone() VisibleObject {
	cpy := *t
	return &cpy
}
