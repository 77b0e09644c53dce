// Package mailbox implements the wire format described for the
// coordinator/runner shared-memory region: a type-id word followed by a
// bounded, operation-specific payload. Encoding is packed little-endian,
// mirroring the remote target's C struct layout, via encoding/binary the
// way the rest of the pack reaches for it instead of hand-rolled bit
// shifting.
package mailbox

import (
	"encoding/binary"
	"fmt"
)

// TypeID is the registry key carried in the mailbox's first word.
type TypeID uint32

// MaxPayload bounds the opaque payload buffer. 64 bytes comfortably fits
// every payload shape in §6 (one or two remote addresses plus an int).
const MaxPayload = 64

// Message is the decoded contents of one mailbox round trip: the type-id
// word plus its payload, already sliced to the shape the type expects.
type Message struct {
	Type    TypeID
	Payload [MaxPayload]byte
}

// Addr is an opaque remote address: never dereferenced by the core,
// only ever compared and used as a model_to_system_map key.
type Addr uint64

// Encode writes the type id into buf[0:4] and copies fields (already
// little-endian laid out) after it. Mirrors the runner side of the
// protocol; the core only ever reads through NewReader, but Encode exists for
// tests that need to synthesize mailbox traffic without a real target.
func Encode(typ TypeID, fields ...uint64) []byte {
	buf := make([]byte, 4+8*len(fields))
	binary.LittleEndian.PutUint32(buf[0:4], uint32(typ))
	for i, f := range fields {
		binary.LittleEndian.PutUint64(buf[4+8*i:4+8*i+8], f)
	}
	return buf
}

// Reader walks a raw mailbox buffer, decoding the type-id word and then
// successive little-endian uint64 fields from the payload.
type Reader struct {
	buf []byte
	off int
}

func NewReader(buf []byte) (*Reader, TypeID, error) {
	if len(buf) < 4 {
		return nil, 0, fmt.Errorf("mailbox: buffer too short for type-id word: %d bytes", len(buf))
	}
	typ := TypeID(binary.LittleEndian.Uint32(buf[0:4]))
	return &Reader{buf: buf, off: 4}, typ, nil
}

// Addr reads the next field as a remote address.
func (r *Reader) Addr() (Addr, error) {
	v, err := r.uint64()
	return Addr(v), err
}

// Int reads the next field as a signed count (sem_init's initial value).
func (r *Reader) Int() (int, error) {
	v, err := r.uint64()
	return int(int64(v)), err
}

func (r *Reader) uint64() (uint64, error) {
	if r.off+8 > len(r.buf) {
		return 0, fmt.Errorf("mailbox: payload exhausted at offset %d of %d", r.off, len(r.buf))
	}
	v := binary.LittleEndian.Uint64(r.buf[r.off : r.off+8])
	r.off += 8
	return v, nil
}

// ErrDecodeMismatch is wrapped into MailboxDecodeError-class failures by
// the registry package when a payload's shape does not match what its
// type id promises.
var ErrDecodeMismatch = fmt.Errorf("mailbox: payload does not match declared shape")
