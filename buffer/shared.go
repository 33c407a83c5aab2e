package buffer

import "sync/atomic"

// core is the ref-counted byte region backing one or more Shared
// buffers. Several Shared values can point at the same core until one
// of them mutates, at which point MutableData forces an unshare.
type core struct {
	data []byte
	refs atomic.Int32
}

// Shared is a growable, copy-on-write Buffer. Taking a logical copy
// with Clone is cheap — it just bumps the core's refcount; the first
// mutation through MutableData after such a copy allocates a private
// core, so logical copies never see each other's writes. A plain value
// copy of the struct does not bump the refcount and is not a logical
// copy.
//
// Capacity always grows to the next power of two >= the requested size,
// trading a little memory for amortized O(1) append, same rationale as
// Go's own slice growth but made explicit since Grow's return value is
// part of the contract other layers rely on (MessageProtocol reserves
// space this way, spec §4.5 step 1).
type Shared struct {
	core *core
	size int
}

// NewShared constructs an empty Shared buffer.
func NewShared() *Shared {
	return &Shared{core: &core{}}
}

// NewSharedFrom constructs a Shared buffer that owns a copy of src.
func NewSharedFrom(src []byte) *Shared {
	b := NewShared()
	_ = b.Append(src)
	return b
}

func nextPow2(n int) int {
	if n <= 0 {
		return 0
	}
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

func (b *Shared) Len() int { return b.size }

func (b *Shared) Cap() int { return len(b.core.data) }

func (b *Shared) Data() []byte {
	if b.size == 0 {
		return nil
	}
	return b.core.data[:b.size]
}

// unshare ensures this Shared has a private core, copying the
// underlying bytes if another Shared instance references the same
// core. Refcounting is approximate (no true shared ownership across
// independent cores, since Go lacks manual lifetime control) but
// preserves the copy-on-write invariant: a mutation never becomes
// visible through a value that was copied before the mutation.
func (b *Shared) unshare() {
	if b.core.refs.Load() == 0 {
		return
	}
	newCore := &core{data: append([]byte(nil), b.core.data...)}
	b.core.refs.Add(-1)
	b.core = newCore
}

// Clone returns an independent logical copy sharing storage until
// either copy mutates.
func (b *Shared) Clone() *Shared {
	b.core.refs.Add(1)
	return &Shared{core: b.core, size: b.size}
}

func (b *Shared) MutableData() []byte {
	b.unshare()
	if b.size == 0 {
		return nil
	}
	return b.core.data[:b.size]
}

func (b *Shared) Grow(n int) []byte {
	if n <= 0 {
		return nil
	}
	b.unshare()
	needed := b.size + n
	if needed > cap(b.core.data) {
		grown := make([]byte, nextPow2(needed))
		copy(grown, b.core.data[:b.size])
		b.core.data = grown
	} else if needed > len(b.core.data) {
		b.core.data = b.core.data[:cap(b.core.data)]
	}
	acquired := b.core.data[b.size:needed]
	b.size = needed
	return acquired
}

func (b *Shared) Shrink(n int) {
	if n <= 0 {
		return
	}
	if n > b.size {
		n = b.size
	}
	b.size -= n
}

func (b *Shared) Append(src []byte) error {
	if len(src) == 0 {
		return nil
	}
	dst := b.Grow(len(src))
	copy(dst, src)
	return nil
}

func (b *Shared) Write(index int, src []byte) error {
	if index > b.size {
		return &ErrWriteIndex{Index: index, Size: b.size}
	}
	b.unshare()
	end := index + len(src)
	if end > b.size {
		b.Grow(end - b.size)
	}
	copy(b.core.data[index:end], src)
	return nil
}

func (b *Shared) Reset() {
	b.core = &core{}
	b.size = 0
}
