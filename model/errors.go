package model

import "errors"

// ErrUnknownObject is returned when a transition or lookup refers to an
// object or runner the state has never observed — a registry/coordinator
// bug (stale ObjID, address observed out of order), not a target error.
var ErrUnknownObject = errors.New("model: unknown object or runner")
