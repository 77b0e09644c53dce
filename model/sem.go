package model

// Semaphore is the visible-object representation of a sem_t. Queue holds
// waiting runners in FIFO order, but no transition appends to it (sem_wait
// only removes its executor when it applies), so it stays empty; a waiting
// runner is known only by its pending sem_wait. initialized mirrors the
// uninitialized/destroyed split mutex and cond carry explicitly — this
// spec's transition table has no sem_destroy, so a single bit suffices.
type Semaphore struct {
	Count       int
	Queue       []RunnerID
	initialized bool
}

func NewSemaphore() *Semaphore {
	return &Semaphore{}
}

func (s *Semaphore) Kind() ObjectKind { return KindSem }

func (s *Semaphore) Clone() VisibleObject {
	return &Semaphore{
		Count:       s.Count,
		Queue:       append([]RunnerID(nil), s.Queue...),
		initialized: s.initialized,
	}
}

func (s *Semaphore) enqueue(r RunnerID) {
	for _, q := range s.Queue {
		if q == r {
			return
		}
	}
	s.Queue = append(s.Queue, r)
}

func (s *Semaphore) dequeue(r RunnerID) {
	for i, q := range s.Queue {
		if q == r {
			s.Queue = append(s.Queue[:i], s.Queue[i+1:]...)
			return
		}
	}
}
