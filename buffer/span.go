package buffer

// Span is a non-owning Buffer view over externally-owned storage (spec
// §4.1 "Span / ValueSpan"). Grow and Shrink clamp to the underlying
// slice's capacity; a write past the end fails rather than
// reallocating, since Span never owns the memory it points into.
type Span struct {
	data []byte
	size int
}

// NewSpan wraps storage in-place. The returned Span's size starts at
// len(storage); callers that want an empty, growable-to-cap view should
// pass storage[:0].
func NewSpan(storage []byte) *Span {
	return &Span{data: storage, size: len(storage)}
}

func (b *Span) Len() int { return b.size }

func (b *Span) Cap() int { return cap(b.data) }

func (b *Span) Data() []byte {
	if b.size == 0 {
		return nil
	}
	return b.data[:b.size]
}

func (b *Span) MutableData() []byte {
	return b.Data()
}

func (b *Span) Grow(n int) []byte {
	if n <= 0 {
		return nil
	}
	room := cap(b.data) - b.size
	if n > room {
		n = room
	}
	if n <= 0 {
		return nil
	}
	b.data = b.data[:b.size+n]
	acquired := b.data[b.size : b.size+n]
	b.size += n
	return acquired
}

func (b *Span) Shrink(n int) {
	if n <= 0 {
		return
	}
	if n > b.size {
		n = b.size
	}
	b.size -= n
}

func (b *Span) Append(src []byte) error {
	return b.Write(b.size, src)
}

func (b *Span) Write(index int, src []byte) error {
	if index > b.size {
		return &ErrWriteIndex{Index: index, Size: b.size}
	}
	end := index + len(src)
	if end > cap(b.data) {
		return &ErrOutOfRange{Requested: end, Available: cap(b.data)}
	}
	if end > len(b.data) {
		b.data = b.data[:end]
	}
	copy(b.data[index:end], src)
	if end > b.size {
		b.size = end
	}
	return nil
}

func (b *Span) Reset() {
	b.size = 0
}

// ValueSpan borrows the memory of a single trivially-copyable Go value
// via unsafe reinterpretation, the way the original's ValueSpan<T>
// treats a POD struct as a byte span. Go has no generic "trivially
// copyable" constraint, so ValueSpan is parameterized over a fixed-size
// array instead, which is the common case the original uses it for
// (wire-format structs of known layout).
type ValueSpan struct {
	*Span
}

// NewValueSpan wraps a fixed-size byte array (e.g. a [16]byte UUID, a
// [4]byte length prefix) as a Buffer without copying.
func NewValueSpan(value []byte) *ValueSpan {
	return &ValueSpan{Span: NewSpan(value)}
}
