package dpor

import (
	"testing"

	"mcmini/coordinator"
	"mcmini/mailbox"
	"mcmini/model"
	"mcmini/realworld"
	"mcmini/registry"
)

// queueHandle replays a fixed, per-address sequence of mailbox payloads:
// each call to ExecuteRunner(addr) pops the next payload queued for that
// specific address, independent of every other address's queue. This is
// what lets a single fake process stand in for several runners at once,
// unlike coordinator_test.go's single flat script.
type queueHandle struct {
	queues map[realworld.Addr][][]byte
	idx    map[realworld.Addr]int
}

func (h *queueHandle) ExecuteRunner(addr realworld.Addr) ([]byte, error) {
	q := h.queues[addr]
	i := h.idx[addr]
	if i >= len(q) {
		return nil, realworld.ErrDeadProcess
	}
	h.idx[addr] = i + 1
	return q[i], nil
}

func (h *queueHandle) Release() {}

// queueSource hands out a fresh queueHandle — reading the same per-address
// scripts from index zero — every time the coordinator forces a new
// process, which is exactly what replaying a prefix after a pop needs.
type queueSource struct {
	queues map[realworld.Addr][][]byte
}

func (s *queueSource) ForceNewProcess() (realworld.ProcessHandle, error) {
	idx := make(map[realworld.Addr]int, len(s.queues))
	for addr := range s.queues {
		idx[addr] = 0
	}
	return &queueHandle{queues: s.queues, idx: idx}, nil
}

const (
	mainAddr    = realworld.Addr(model.MainRunner)
	thread1Addr = realworld.Addr(0x100)
	thread2Addr = realworld.Addr(0x200)
	mutex1Addr  = uint64(0x10)
	mutex2Addr  = uint64(0x20)
)

// twoLocksTwoThreadsSource builds the scenario of spec §8 end-to-end test
// 1: two mutexes initialized by main, two child threads each locking them
// in opposite order, main joining both before exiting.
func twoLocksTwoThreadsSource() *queueSource {
	return &queueSource{queues: map[realworld.Addr][][]byte{
		mainAddr: {
			mailbox.Encode(registry.TypeMutexInit, mutex1Addr),
			mailbox.Encode(registry.TypeMutexInit, mutex2Addr),
			mailbox.Encode(registry.TypeThreadCreate, uint64(thread1Addr)),
			mailbox.Encode(registry.TypeThreadCreate, uint64(thread2Addr)),
			mailbox.Encode(registry.TypeThreadJoin, uint64(thread1Addr)),
			mailbox.Encode(registry.TypeThreadJoin, uint64(thread2Addr)),
			mailbox.Encode(registry.TypeThreadExit),
		},
		thread1Addr: {
			mailbox.Encode(registry.TypeMutexLock, mutex1Addr),
			mailbox.Encode(registry.TypeMutexLock, mutex2Addr),
			mailbox.Encode(registry.TypeMutexUnlock, mutex2Addr),
			mailbox.Encode(registry.TypeMutexUnlock, mutex1Addr),
			mailbox.Encode(registry.TypeThreadExit),
		},
		thread2Addr: {
			mailbox.Encode(registry.TypeMutexLock, mutex2Addr),
			mailbox.Encode(registry.TypeMutexLock, mutex1Addr),
			mailbox.Encode(registry.TypeMutexUnlock, mutex1Addr),
			mailbox.Encode(registry.TypeMutexUnlock, mutex2Addr),
			mailbox.Encode(registry.TypeThreadExit),
		},
	}}
}

// TestSearchFindsTwoLocksDeadlock drives the classic two-threads-opposite-
// lock-order scenario and checks that exploring every backtrack-reachable
// interleaving surfaces at least one deadlock, per spec §8 scenario 1.
func TestSearchFindsTwoLocksDeadlock(t *testing.T) {
	coord := coordinator.New(twoLocksTwoThreadsSource(), registry.NewDefault())
	var deadlocks int
	search := New(coord, Options{
		OnDeadlock: func(trace []coordinator.PrefixEntry) { deadlocks++ },
		OnUndefinedBehavior: func(trace []coordinator.PrefixEntry, err error) {
			t.Fatalf("unexpected undefined behavior: %v", err)
		},
	})

	if err := search.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if deadlocks == 0 {
		t.Fatalf("expected at least one deadlock trace, found none (stats: %+v)", search.Stats())
	}
	stats := search.Stats()
	if stats.TracesExplored == 0 {
		t.Fatalf("expected at least one clean (non-deadlocked) trace alongside the deadlock")
	}
	if total := stats.TracesExplored + stats.Deadlocks; total > 6 {
		t.Fatalf("expected at most 6 distinct traces under classic DPOR, got %d (stats: %+v)", total, stats)
	}
}

// producerConsumerSource builds spec §8 scenario 3: a counting semaphore
// initialized to 0, a producer that posts once, a consumer that waits
// once, both exiting — no deadlock. The search completes two traces for
// this program; the test checks only that none deadlocks and that at
// least one completes.
func producerConsumerSource() *queueSource {
	const (
		producerAddr = realworld.Addr(0x100)
		consumerAddr = realworld.Addr(0x200)
		semAddr      = uint64(0x30)
	)
	return &queueSource{queues: map[realworld.Addr][][]byte{
		mainAddr: {
			mailbox.Encode(registry.TypeSemInit, semAddr, 0),
			mailbox.Encode(registry.TypeThreadCreate, uint64(producerAddr)),
			mailbox.Encode(registry.TypeThreadCreate, uint64(consumerAddr)),
			mailbox.Encode(registry.TypeThreadJoin, uint64(producerAddr)),
			mailbox.Encode(registry.TypeThreadJoin, uint64(consumerAddr)),
			mailbox.Encode(registry.TypeThreadExit),
		},
		producerAddr: {
			mailbox.Encode(registry.TypeSemPost, semAddr),
			mailbox.Encode(registry.TypeThreadExit),
		},
		consumerAddr: {
			mailbox.Encode(registry.TypeSemWait, semAddr),
			mailbox.Encode(registry.TypeThreadExit),
		},
	}}
}

// TestSearchProducerConsumerNoDeadlock checks the semaphore handoff never
// deadlocks and that the search terminates.
func TestSearchProducerConsumerNoDeadlock(t *testing.T) {
	coord := coordinator.New(producerConsumerSource(), registry.NewDefault())
	search := New(coord, Options{
		OnDeadlock: func(trace []coordinator.PrefixEntry) {
			t.Fatalf("unexpected deadlock in producer/consumer scenario")
		},
		OnUndefinedBehavior: func(trace []coordinator.PrefixEntry, err error) {
			t.Fatalf("unexpected undefined behavior: %v", err)
		},
	})
	if err := search.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if search.Stats().TracesExplored == 0 {
		t.Fatalf("expected at least one completed trace")
	}
}

// unbalancedUnlockSource builds spec §8 scenario 4: T1 locks m, T2
// (main, here, for simplicity) unlocks m without ever holding it.
func unbalancedUnlockSource() *queueSource {
	return &queueSource{queues: map[realworld.Addr][][]byte{
		mainAddr: {
			mailbox.Encode(registry.TypeMutexInit, mutex1Addr),
			mailbox.Encode(registry.TypeThreadCreate, uint64(thread1Addr)),
			mailbox.Encode(registry.TypeThreadJoin, uint64(thread1Addr)),
			mailbox.Encode(registry.TypeThreadExit),
		},
		thread1Addr: {
			mailbox.Encode(registry.TypeMutexUnlock, mutex1Addr),
			mailbox.Encode(registry.TypeThreadExit),
		},
	}}
}

// TestSearchReportsUndefinedBehaviorOnUnbalancedUnlock checks spec §8
// scenario 4: unlocking a mutex never locked is reported as undefined
// behavior, not silently dropped or treated as a fatal search error.
func TestSearchReportsUndefinedBehaviorOnUnbalancedUnlock(t *testing.T) {
	coord := coordinator.New(unbalancedUnlockSource(), registry.NewDefault())
	var ubCount int
	search := New(coord, Options{
		OnUndefinedBehavior: func(trace []coordinator.PrefixEntry, err error) { ubCount++ },
		FirstDeadlock:       true,
	})
	if err := search.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if ubCount == 0 {
		t.Fatalf("expected at least one undefined-behavior report")
	}
}

// readerWriterSource builds spec §8 scenario 2: the reader-preferred
// reader/writer lock from
// original_source/test/deadlock_program/reader_writer/reader_writer_lock_reader_preferred_deadlock.c,
// with NUM_READERS=1, NUM_WRITERS=1, NUM_LOOP=1. The reader's script
// below is the one mailbox trace that program produces for a single
// reader: num_readers goes 0->1 on the way in, so the reader also takes
// rw, and 1->0 on the way out, so it releases rw again — readOnly only
// ever guards that counter, never rw directly, across the whole run.
func readerWriterSource() *queueSource {
	const (
		readerAddr   = realworld.Addr(0x100)
		writerAddr   = realworld.Addr(0x200)
		rwAddr       = uint64(0x10)
		readOnlyAddr = uint64(0x20)
	)
	return &queueSource{queues: map[realworld.Addr][][]byte{
		mainAddr: {
			mailbox.Encode(registry.TypeMutexInit, readOnlyAddr),
			mailbox.Encode(registry.TypeMutexInit, rwAddr),
			mailbox.Encode(registry.TypeThreadCreate, uint64(readerAddr)),
			mailbox.Encode(registry.TypeThreadCreate, uint64(writerAddr)),
			mailbox.Encode(registry.TypeThreadJoin, uint64(readerAddr)),
			mailbox.Encode(registry.TypeThreadJoin, uint64(writerAddr)),
			mailbox.Encode(registry.TypeThreadExit),
		},
		readerAddr: {
			mailbox.Encode(registry.TypeMutexLock, readOnlyAddr),
			mailbox.Encode(registry.TypeMutexLock, rwAddr),
			mailbox.Encode(registry.TypeMutexUnlock, readOnlyAddr),
			mailbox.Encode(registry.TypeMutexLock, readOnlyAddr),
			mailbox.Encode(registry.TypeMutexUnlock, rwAddr),
			mailbox.Encode(registry.TypeMutexUnlock, readOnlyAddr),
			mailbox.Encode(registry.TypeThreadExit),
		},
		writerAddr: {
			mailbox.Encode(registry.TypeMutexLock, rwAddr),
			mailbox.Encode(registry.TypeMutexUnlock, rwAddr),
			mailbox.Encode(registry.TypeThreadExit),
		},
	}}
}

// TestSearchReaderWriterReaderPreferredNoDeadlock checks spec §8 scenario
// 2: with one reader and one writer the reader-preferred lock never
// deadlocks under any interleaving DPOR explores.
func TestSearchReaderWriterReaderPreferredNoDeadlock(t *testing.T) {
	coord := coordinator.New(readerWriterSource(), registry.NewDefault())
	search := New(coord, Options{
		OnDeadlock: func(trace []coordinator.PrefixEntry) {
			t.Fatalf("unexpected deadlock in reader/writer scenario")
		},
		OnUndefinedBehavior: func(trace []coordinator.PrefixEntry, err error) {
			t.Fatalf("unexpected undefined behavior: %v", err)
		},
	})
	if err := search.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if search.Stats().TracesExplored == 0 {
		t.Fatalf("expected at least one completed trace")
	}
}

// TestSearchStopsAtMaxDepthPerThread checks the per-thread depth bound
// actually prunes a branch rather than being ignored.
func TestSearchStopsAtMaxDepthPerThread(t *testing.T) {
	coord := coordinator.New(twoLocksTwoThreadsSource(), registry.NewDefault())
	search := New(coord, Options{MaxDepthPerThread: 1})
	if err := search.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	// Main's thread_start already spends its one-transition budget, so it
	// can never even reach mutex_init, let alone finish; no trace ever
	// reaches a fully-finished state.
	if search.Stats().TracesExplored != 0 {
		t.Fatalf("expected no completed traces under a depth-1 cap, got %d", search.Stats().TracesExplored)
	}
}
