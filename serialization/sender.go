package serialization

import (
	"encoding/binary"

	"beam/beamerr"
	"beam/buffer"
)

// Sender shuttles a registered Value onto a buffer.Buffer, prefixed
// with the tag its TypeRegistry assigned to the value's UID (spec
// §4.5 step 2: "look up UID -> tag, write tag, then the value's own
// fields").
type Sender struct {
	registry *TypeRegistry
	out      buffer.Buffer
}

// NewSender constructs a Sender bound to registry.
func NewSender(registry *TypeRegistry) *Sender {
	return &Sender{registry: registry}
}

// Send serializes v into a fresh buffer and returns it.
func (s *Sender) Send(v Value) (buffer.Buffer, error) {
	tag, ok := s.registry.TagFor(v.TypeUID())
	if !ok {
		return nil, beamerr.Wrap("type not registered: "+v.TypeUID(), beamerr.ErrEncoder)
	}
	s.out = buffer.NewShared()
	header := s.out.Grow(2)
	binary.LittleEndian.PutUint16(header, tag)
	if err := v.Shuttle(s); err != nil {
		return nil, err
	}
	return s.out, nil
}

// The Put* helpers below are what a Value's Shuttle method calls to
// append its own fields, in the order Unshuttle will read them back.

func (s *Sender) PutUint32(v uint32) {
	b := s.out.Grow(4)
	binary.LittleEndian.PutUint32(b, v)
}

func (s *Sender) PutUint64(v uint64) {
	b := s.out.Grow(8)
	binary.LittleEndian.PutUint64(b, v)
}

func (s *Sender) PutBool(v bool) {
	b := s.out.Grow(1)
	if v {
		b[0] = 1
	} else {
		b[0] = 0
	}
}

func (s *Sender) PutBytes(v []byte) {
	s.PutUint32(uint32(len(v)))
	if len(v) > 0 {
		_ = s.out.Append(v)
	}
}

func (s *Sender) PutString(v string) {
	s.PutBytes([]byte(v))
}

// PutValue recursively shuttles a nested registered Value (spec §4.5
// "nested Shuttle calls for composite messages" — e.g. a Response's
// embedded exception payload).
func (s *Sender) PutValue(v Value) error {
	tag, ok := s.registry.TagFor(v.TypeUID())
	if !ok {
		return beamerr.Wrap("type not registered: "+v.TypeUID(), beamerr.ErrEncoder)
	}
	header := s.out.Grow(2)
	binary.LittleEndian.PutUint16(header, tag)
	return v.Shuttle(s)
}
