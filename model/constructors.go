package model

// Constructors for every concrete Transition, used by packages outside
// model (registry, in particular) that only ever see the exported
// Transition interface and must not poke at unexported fields directly.

func NewMutexInit(executor RunnerID, mutex ObjID) *MutexInitT {
	return &MutexInitT{executor: executor, Mutex: mutex}
}

func NewMutexLock(executor RunnerID, mutex ObjID) *MutexLockT {
	return &MutexLockT{executor: executor, Mutex: mutex}
}

func NewMutexUnlock(executor RunnerID, mutex ObjID) *MutexUnlockT {
	return &MutexUnlockT{executor: executor, Mutex: mutex}
}

func NewMutexDestroy(executor RunnerID, mutex ObjID) *MutexDestroyT {
	return &MutexDestroyT{executor: executor, Mutex: mutex}
}

func NewCondInit(executor RunnerID, cond ObjID) *CondInitT {
	return &CondInitT{executor: executor, Cond: cond}
}

func NewCondEnqueue(executor RunnerID, cond, mutex ObjID) *CondEnqueue {
	return &CondEnqueue{executor: executor, Cond: cond, Mutex: mutex}
}

func NewCondSignal(executor RunnerID, cond ObjID) *CondSignalT {
	return &CondSignalT{executor: executor, Cond: cond}
}

func NewCondBroadcast(executor RunnerID, cond ObjID) *CondBroadcastT {
	return &CondBroadcastT{executor: executor, Cond: cond}
}

func NewCondDestroy(executor RunnerID, cond ObjID) *CondDestroyT {
	return &CondDestroyT{executor: executor, Cond: cond}
}

func NewSemInit(executor RunnerID, sem ObjID, initial int) *SemInitT {
	return &SemInitT{executor: executor, Sem: sem, Initial: initial}
}

func NewSemWait(executor RunnerID, sem ObjID) *SemWait {
	return &SemWait{executor: executor, Sem: sem}
}

func NewSemPost(executor RunnerID, sem ObjID) *SemPostT {
	return &SemPostT{executor: executor, Sem: sem}
}

func NewThreadCreate(executor, child RunnerID, childObj ObjID) *ThreadCreate {
	return &ThreadCreate{executor: executor, Child: child, ChildObj: childObj}
}

func NewThreadStart(executor RunnerID, threadObj ObjID) *ThreadStart {
	return &ThreadStart{executor: executor, threadObj: threadObj}
}

func NewThreadExit(executor RunnerID, threadObj ObjID) *ThreadExit {
	return &ThreadExit{executor: executor, threadObj: threadObj}
}

func NewThreadJoin(executor, other RunnerID, otherObj ObjID) *ThreadJoin {
	return &ThreadJoin{executor: executor, Other: other, OtherObj: otherObj}
}
