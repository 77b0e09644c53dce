// Package registry implements the transition registry (spec §4.F): a
// mapping from the mailbox's runtime-type-id word to a decode callback
// that turns a raw mailbox message into a model.Transition, resolving
// remote addresses through the model-to-system map as it goes.
package registry

import (
	"errors"
	"fmt"

	"mcmini/mailbox"
	"mcmini/model"
	"mcmini/modelmap"
)

// ErrUnknownTransitionType is returned when a mailbox message carries a
// type id with no registered decoder — registry misconfiguration, fatal
// per spec §7.3.
var ErrUnknownTransitionType = errors.New("registry: unknown transition type")

// DecodeFunc turns a mailbox payload into a transition bound to r,
// resolving the remote addresses it carries through m.
type DecodeFunc func(r model.RunnerID, msg *mailbox.Reader, m *modelmap.Map, s *model.State) (model.Transition, error)

// Registry dispatches on mailbox.TypeID.
type Registry struct {
	decoders map[mailbox.TypeID]DecodeFunc
}

func New() *Registry {
	return &Registry{decoders: map[mailbox.TypeID]DecodeFunc{}}
}

// Register installs decode for typ, overwriting any previous entry —
// callers build the full set once at startup via NewDefault.
func (reg *Registry) Register(typ mailbox.TypeID, decode DecodeFunc) {
	reg.decoders[typ] = decode
}

// Decode looks up typ's decoder and invokes it, returning an error that
// wraps ErrUnknownTransitionType if none is registered.
func (reg *Registry) Decode(r model.RunnerID, buf []byte, m *modelmap.Map, s *model.State) (model.Transition, error) {
	reader, typ, err := mailbox.NewReader(buf)
	if err != nil {
		return nil, &MailboxDecodeError{Cause: err}
	}
	decode, ok := reg.decoders[typ]
	if !ok {
		return nil, fmt.Errorf("%w: type %d", ErrUnknownTransitionType, typ)
	}
	t, err := decode(r, reader, m, s)
	if err != nil {
		return nil, &MailboxDecodeError{Cause: err}
	}
	return t, nil
}

// MailboxDecodeError wraps a lower-level decode failure (short buffer,
// wrong field count) as the spec's fatal *MailboxDecodeError kind.
type MailboxDecodeError struct {
	Cause error
}

func (e *MailboxDecodeError) Error() string { return "registry: mailbox decode error: " + e.Cause.Error() }
func (e *MailboxDecodeError) Unwrap() error { return e.Cause }
