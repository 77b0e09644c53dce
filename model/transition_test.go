package model

import "testing"

func newMutexState(t *testing.T) (*State, ObjID) {
	t.Helper()
	s := NewState()
	return s, s.AddObject(NewMutex())
}

func TestMutexLockUnlockRoundTrip(t *testing.T) {
	s, m := newMutexState(t)
	r := RunnerID(1)
	s.liveRunners[r] = true

	init := &MutexInitT{executor: r, Mutex: m}
	if !init.Enabled(s) {
		t.Fatalf("mutex_init should be enabled on an uninitialized mutex")
	}
	if err := s.Apply(r, init); err != nil {
		t.Fatalf("apply mutex_init: %v", err)
	}

	lock := &MutexLockT{executor: r, Mutex: m}
	if !lock.Enabled(s) {
		t.Fatalf("mutex_lock should be enabled on an unlocked mutex")
	}
	if err := s.Apply(r, lock); err != nil {
		t.Fatalf("apply mutex_lock: %v", err)
	}

	unlock := &MutexUnlockT{executor: r, Mutex: m}
	if !unlock.Enabled(s) {
		t.Fatalf("mutex_unlock should be enabled for the holder")
	}
	if err := s.Apply(r, unlock); err != nil {
		t.Fatalf("apply mutex_unlock: %v", err)
	}

	obj, ok := Object[*Mutex](s, m)
	if !ok || obj.Phase != MutexUnlocked {
		t.Fatalf("expected mutex unlocked, got %v", obj)
	}
}

func TestUnbalancedUnlockIsUndefinedBehavior(t *testing.T) {
	s, m := newMutexState(t)
	r1, r2 := RunnerID(1), RunnerID(2)
	s.liveRunners[r1] = true
	s.liveRunners[r2] = true

	if err := s.Apply(r1, &MutexInitT{executor: r1, Mutex: m}); err != nil {
		t.Fatal(err)
	}
	if err := s.Apply(r1, &MutexLockT{executor: r1, Mutex: m}); err != nil {
		t.Fatal(err)
	}

	bad := &MutexUnlockT{executor: r2, Mutex: m}
	if bad.Enabled(s) {
		t.Fatalf("r2 must not be able to unlock a mutex r1 holds")
	}
	if !bad.Violation(s) {
		t.Fatalf("unbalanced unlock must be reported as undefined behavior")
	}
}

func TestDoubleMutexInitIsUndefinedBehavior(t *testing.T) {
	s, m := newMutexState(t)
	r := RunnerID(1)
	s.liveRunners[r] = true

	if err := s.Apply(r, &MutexInitT{executor: r, Mutex: m}); err != nil {
		t.Fatal(err)
	}
	again := &MutexInitT{executor: r, Mutex: m}
	if again.Enabled(s) {
		t.Fatalf("re-init of a live mutex should not be enabled")
	}
	if !again.Violation(s) {
		t.Fatalf("re-init of a live mutex should be reported as undefined behavior")
	}
}

func TestCondSignalWithNoWaitersIsNoOp(t *testing.T) {
	s := NewState()
	c := s.AddObject(NewConditionVariable())
	r := RunnerID(1)
	s.liveRunners[r] = true

	if err := s.Apply(r, &CondInitT{executor: r, Cond: c}); err != nil {
		t.Fatal(err)
	}
	signal := &CondSignalT{executor: r, Cond: c}
	if !signal.Enabled(s) {
		t.Fatalf("signal on a valid, empty cond should be enabled")
	}
	if err := s.Apply(r, signal); err != nil {
		t.Fatal(err)
	}
	cond, _ := Object[*ConditionVariable](s, c)
	if len(cond.Signaled) != 0 {
		t.Fatalf("signal with no waiters must not mark anyone signaled")
	}
}

func TestCondEnqueueThenAwake(t *testing.T) {
	s := NewState()
	c := s.AddObject(NewConditionVariable())
	m := s.AddObject(NewMutex())
	r := RunnerID(1)
	s.liveRunners[r] = true

	mustApply := func(t *testing.T, tr Transition) {
		t.Helper()
		if err := s.Apply(r, tr); err != nil {
			t.Fatalf("apply %v: %v", tr, err)
		}
	}
	mustApply(t, &CondInitT{executor: r, Cond: c})
	mustApply(t, &MutexInitT{executor: r, Mutex: m})
	mustApply(t, &MutexLockT{executor: r, Mutex: m})

	enqueue := &CondEnqueue{executor: r, Cond: c, Mutex: m}
	if !enqueue.Enabled(s) {
		t.Fatalf("cond_enqueue should be enabled while holding the mutex")
	}
	mustApply(t, enqueue)

	mu, _ := Object[*Mutex](s, m)
	if mu.Phase != MutexUnlocked {
		t.Fatalf("cond_enqueue must release the mutex, got %v", mu.Phase)
	}

	pending, ok := s.Pending(r)
	if !ok {
		t.Fatalf("cond_enqueue must leave a pending cond_awake for the waiter")
	}
	awake, ok := pending.(*CondAwake)
	if !ok {
		t.Fatalf("expected *CondAwake pending, got %T", pending)
	}
	if !awake.Enabled(s) {
		t.Fatalf("cond_awake should be enabled for the waiter at the front of the queue once the mutex is free")
	}

	cond, _ := Object[*ConditionVariable](s, c)
	cond.Signaled[r] = true
	mu.Phase = MutexUnlocked

	if !awake.Enabled(s) {
		t.Fatalf("cond_awake should be enabled once signalled with the mutex free")
	}
	if err := s.Apply(r, awake); err != nil {
		t.Fatal(err)
	}
	mu, _ = Object[*Mutex](s, m)
	if !mu.LockedBy(r) {
		t.Fatalf("cond_awake must re-acquire the mutex for the waiter")
	}
}

func TestSemaphoreWaitBlocksUntilPost(t *testing.T) {
	s := NewState()
	sem := s.AddObject(NewSemaphore())
	r1, r2 := RunnerID(1), RunnerID(2)
	s.liveRunners[r1] = true
	s.liveRunners[r2] = true

	if err := s.Apply(r1, &SemInitT{executor: r1, Sem: sem, Initial: 0}); err != nil {
		t.Fatal(err)
	}

	wait := &SemWait{executor: r2, Sem: sem}
	if wait.Enabled(s) {
		t.Fatalf("sem_wait on a zero-count semaphore must not be enabled")
	}
	if wait.Violation(s) {
		t.Fatalf("blocking on an initialized semaphore is not undefined behavior")
	}

	if err := s.Apply(r1, &SemPostT{executor: r1, Sem: sem}); err != nil {
		t.Fatal(err)
	}
	if !wait.Enabled(s) {
		t.Fatalf("sem_wait should become enabled after sem_post")
	}
}

func TestThreadCreateStartExitJoin(t *testing.T) {
	s := NewState()
	parent := RunnerID(1)
	s.liveRunners[parent] = true

	child, _ := s.AddRunner()
	childObj := s.AddObject(NewThread(child, ThreadEmbryo))

	create := &ThreadCreate{executor: parent, Child: child, ChildObj: childObj}
	if err := s.Apply(parent, create); err != nil {
		t.Fatal(err)
	}

	pending, ok := s.Pending(child)
	if !ok {
		t.Fatalf("thread_create must leave a pending thread_start for the child")
	}
	start, ok := pending.(*ThreadStart)
	if !ok {
		t.Fatalf("expected *ThreadStart, got %T", pending)
	}
	if !start.Enabled(s) {
		t.Fatalf("thread_start should always be enabled")
	}
	if err := s.Apply(child, start); err != nil {
		t.Fatal(err)
	}

	join := &ThreadJoin{executor: parent, Other: child, OtherObj: childObj}
	if join.Enabled(s) {
		t.Fatalf("join must not be enabled before the child exits")
	}

	exit := &ThreadExit{executor: child, threadObj: childObj}
	if !exit.Enabled(s) {
		t.Fatalf("thread_exit should be enabled for a running thread")
	}
	if err := s.Apply(child, exit); err != nil {
		t.Fatal(err)
	}

	if s.IsLive(child) {
		t.Fatalf("a finished runner must be removed from the live set")
	}
	if !join.Enabled(s) {
		t.Fatalf("join should become enabled once the child has exited")
	}
}

func TestTwoLockDeadlockShape(t *testing.T) {
	s := NewState()
	a := s.AddObject(NewMutex())
	b := s.AddObject(NewMutex())
	r1, r2 := RunnerID(1), RunnerID(2)
	s.liveRunners[r1] = true
	s.liveRunners[r2] = true

	for _, init := range []Transition{
		&MutexInitT{executor: r1, Mutex: a},
		&MutexInitT{executor: r1, Mutex: b},
	} {
		if err := s.Apply(r1, init); err != nil {
			t.Fatal(err)
		}
	}

	if err := s.Apply(r1, &MutexLockT{executor: r1, Mutex: a}); err != nil {
		t.Fatal(err)
	}
	if err := s.Apply(r2, &MutexLockT{executor: r2, Mutex: b}); err != nil {
		t.Fatal(err)
	}

	lockBByR1 := &MutexLockT{executor: r1, Mutex: b}
	lockAByR2 := &MutexLockT{executor: r2, Mutex: a}
	if lockBByR1.Enabled(s) || lockAByR2.Enabled(s) {
		t.Fatalf("classic two-lock deadlock must leave both remaining acquisitions disabled")
	}
}
