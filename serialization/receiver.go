package serialization

import (
	"encoding/binary"

	"beam/beamerr"
)

// Receiver reverses a Sender's output: it reads the leading tag,
// constructs a zero Value of the matching registered type, and lets
// that value pull its own fields back off the stream via Unshuttle.
type Receiver struct {
	registry *TypeRegistry
	data     []byte
	pos      int
}

// NewReceiver constructs a Receiver over data, resolving tags against
// registry.
func NewReceiver(registry *TypeRegistry, data []byte) *Receiver {
	return &Receiver{registry: registry, data: data}
}

// Receive reconstructs the next registered Value from the stream.
func (r *Receiver) Receive() (Value, error) {
	tag, err := r.GetUint16()
	if err != nil {
		return nil, err
	}
	v, err := r.registry.New(tag)
	if err != nil {
		return nil, err
	}
	if err := v.Unshuttle(r); err != nil {
		return nil, err
	}
	return v, nil
}

func (r *Receiver) need(n int) error {
	if r.pos+n > len(r.data) {
		return beamerr.ErrDecoder
	}
	return nil
}

func (r *Receiver) GetUint16() (uint16, error) {
	if err := r.need(2); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint16(r.data[r.pos : r.pos+2])
	r.pos += 2
	return v, nil
}

func (r *Receiver) GetUint32() (uint32, error) {
	if err := r.need(4); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(r.data[r.pos : r.pos+4])
	r.pos += 4
	return v, nil
}

func (r *Receiver) GetUint64() (uint64, error) {
	if err := r.need(8); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint64(r.data[r.pos : r.pos+8])
	r.pos += 8
	return v, nil
}

func (r *Receiver) GetBool() (bool, error) {
	if err := r.need(1); err != nil {
		return false, err
	}
	v := r.data[r.pos] != 0
	r.pos++
	return v, nil
}

func (r *Receiver) GetBytes() ([]byte, error) {
	n, err := r.GetUint32()
	if err != nil {
		return nil, err
	}
	if err := r.need(int(n)); err != nil {
		return nil, err
	}
	v := append([]byte(nil), r.data[r.pos:r.pos+int(n)]...)
	r.pos += int(n)
	return v, nil
}

func (r *Receiver) GetString() (string, error) {
	b, err := r.GetBytes()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// GetValue recursively receives a nested registered Value, the
// counterpart to Sender.PutValue.
func (r *Receiver) GetValue() (Value, error) {
	return r.Receive()
}
