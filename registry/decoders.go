package registry

import (
	"mcmini/mailbox"
	"mcmini/model"
	"mcmini/modelmap"
)

// Wire type ids, one per transition kind (spec §6): the contract a
// preloaded interception shim and this registry must agree on.
const (
	TypeMutexInit mailbox.TypeID = iota + 1
	TypeMutexLock
	TypeMutexUnlock
	TypeMutexDestroy
	TypeCondInit
	TypeCondEnqueue
	TypeCondSignal
	TypeCondBroadcast
	TypeCondDestroy
	TypeSemInit
	TypeSemWait
	TypeSemPost
	TypeThreadCreate
	TypeThreadStart
	TypeThreadExit
	TypeThreadJoin
)

// NewDefault builds the registry binding one decode callback per row of
// the transition table in spec §4.D, each resolving its remote addresses
// through m before constructing the transition.
func NewDefault() *Registry {
	reg := New()

	reg.Register(TypeMutexInit, mutexDecoder(func(r model.RunnerID, mu model.ObjID) model.Transition { return model.NewMutexInit(r, mu) }))
	reg.Register(TypeMutexLock, mutexDecoder(func(r model.RunnerID, mu model.ObjID) model.Transition { return model.NewMutexLock(r, mu) }))
	reg.Register(TypeMutexUnlock, mutexDecoder(func(r model.RunnerID, mu model.ObjID) model.Transition { return model.NewMutexUnlock(r, mu) }))
	reg.Register(TypeMutexDestroy, mutexDecoder(func(r model.RunnerID, mu model.ObjID) model.Transition { return model.NewMutexDestroy(r, mu) }))

	reg.Register(TypeCondInit, condDecoder(func(r model.RunnerID, c model.ObjID) model.Transition { return model.NewCondInit(r, c) }))
	reg.Register(TypeCondSignal, condDecoder(func(r model.RunnerID, c model.ObjID) model.Transition { return model.NewCondSignal(r, c) }))
	reg.Register(TypeCondBroadcast, condDecoder(func(r model.RunnerID, c model.ObjID) model.Transition { return model.NewCondBroadcast(r, c) }))
	reg.Register(TypeCondDestroy, condDecoder(func(r model.RunnerID, c model.ObjID) model.Transition { return model.NewCondDestroy(r, c) }))

	reg.Register(TypeCondEnqueue, func(r model.RunnerID, msg *mailbox.Reader, m *modelmap.Map, s *model.State) (model.Transition, error) {
		cAddr, err := msg.Addr()
		if err != nil {
			return nil, err
		}
		muAddr, err := msg.Addr()
		if err != nil {
			return nil, err
		}
		c := m.ObserveObject(cAddr, s, func() model.VisibleObject { return model.NewConditionVariable() })
		mu := m.ObserveObject(muAddr, s, func() model.VisibleObject { return model.NewMutex() })
		return model.NewCondEnqueue(r, c, mu), nil
	})

	reg.Register(TypeSemInit, func(r model.RunnerID, msg *mailbox.Reader, m *modelmap.Map, s *model.State) (model.Transition, error) {
		addr, err := msg.Addr()
		if err != nil {
			return nil, err
		}
		n, err := msg.Int()
		if err != nil {
			return nil, err
		}
		id := m.ObserveObject(addr, s, func() model.VisibleObject { return model.NewSemaphore() })
		return model.NewSemInit(r, id, n), nil
	})
	reg.Register(TypeSemWait, semDecoder(func(r model.RunnerID, sem model.ObjID) model.Transition { return model.NewSemWait(r, sem) }))
	reg.Register(TypeSemPost, semDecoder(func(r model.RunnerID, sem model.ObjID) model.Transition { return model.NewSemPost(r, sem) }))

	reg.Register(TypeThreadCreate, func(r model.RunnerID, msg *mailbox.Reader, m *modelmap.Map, s *model.State) (model.Transition, error) {
		childAddr, err := msg.Addr()
		if err != nil {
			return nil, err
		}
		child := m.ObserveRunner(childAddr, s, model.ThreadEmbryo, func(cr model.RunnerID, threadObj model.ObjID) model.Transition {
			return model.NewThreadStart(cr, threadObj)
		})
		childObj, ok := s.ThreadObj(child)
		if !ok {
			return nil, model.ErrUnknownObject
		}
		return model.NewThreadCreate(r, child, childObj), nil
	})
	reg.Register(TypeThreadStart, func(r model.RunnerID, msg *mailbox.Reader, m *modelmap.Map, s *model.State) (model.Transition, error) {
		obj, ok := s.ThreadObj(r)
		if !ok {
			return nil, model.ErrUnknownObject
		}
		return model.NewThreadStart(r, obj), nil
	})
	reg.Register(TypeThreadExit, func(r model.RunnerID, msg *mailbox.Reader, m *modelmap.Map, s *model.State) (model.Transition, error) {
		obj, ok := s.ThreadObj(r)
		if !ok {
			return nil, model.ErrUnknownObject
		}
		return model.NewThreadExit(r, obj), nil
	})
	reg.Register(TypeThreadJoin, func(r model.RunnerID, msg *mailbox.Reader, m *modelmap.Map, s *model.State) (model.Transition, error) {
		otherAddr, err := msg.Addr()
		if err != nil {
			return nil, err
		}
		other, ok := m.RunnerOf(otherAddr)
		if !ok {
			return nil, model.ErrUnknownObject
		}
		obj, ok := s.ThreadObj(other)
		if !ok {
			return nil, model.ErrUnknownObject
		}
		return model.NewThreadJoin(r, other, obj), nil
	})

	return reg
}

// mutexDecoder adapts any "one mutex operand" constructor (mutex_init,
// mutex_lock, mutex_unlock, mutex_destroy) into a DecodeFunc: decode the
// remote address, resolve it through the model map, build the transition.
func mutexDecoder(build func(executor model.RunnerID, mutex model.ObjID) model.Transition) DecodeFunc {
	return func(r model.RunnerID, msg *mailbox.Reader, m *modelmap.Map, s *model.State) (model.Transition, error) {
		addr, err := msg.Addr()
		if err != nil {
			return nil, err
		}
		id := m.ObserveObject(addr, s, func() model.VisibleObject { return model.NewMutex() })
		return build(r, id), nil
	}
}

// condDecoder is the same shape for the "one condition-variable operand"
// transitions: cond_init, cond_signal, cond_broadcast, cond_destroy.
func condDecoder(build func(executor model.RunnerID, cond model.ObjID) model.Transition) DecodeFunc {
	return func(r model.RunnerID, msg *mailbox.Reader, m *modelmap.Map, s *model.State) (model.Transition, error) {
		addr, err := msg.Addr()
		if err != nil {
			return nil, err
		}
		id := m.ObserveObject(addr, s, func() model.VisibleObject { return model.NewConditionVariable() })
		return build(r, id), nil
	}
}

// semDecoder is the same shape for the "one semaphore operand"
// transitions: sem_wait, sem_post.
func semDecoder(build func(executor model.RunnerID, sem model.ObjID) model.Transition) DecodeFunc {
	return func(r model.RunnerID, msg *mailbox.Reader, m *modelmap.Map, s *model.State) (model.Transition, error) {
		addr, err := msg.Addr()
		if err != nil {
			return nil, err
		}
		id := m.ObserveObject(addr, s, func() model.VisibleObject { return model.NewSemaphore() })
		return build(r, id), nil
	}
}
