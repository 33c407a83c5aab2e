package buffer

// Static is a Buffer with a fixed inline capacity, set once at
// construction (the Go analogue of the original's Static<N> template
// parameter, since Go generics can't parameterize a type by an integer
// value without an array type — a fixed-size slice serves the same
// purpose without forcing every caller to pick N at compile time).
//
// Grow never exceeds the fixed capacity: it returns only what fits.
// Write past the capacity fails with ErrOutOfRange.
type Static struct {
	data []byte
	size int
}

// NewStatic constructs a Static buffer with the given fixed capacity.
func NewStatic(capacity int) *Static {
	return &Static{data: make([]byte, capacity)}
}

func (b *Static) Len() int { return b.size }

func (b *Static) Cap() int { return len(b.data) }

func (b *Static) Data() []byte {
	if b.size == 0 {
		return nil
	}
	return b.data[:b.size]
}

func (b *Static) MutableData() []byte {
	if b.size == 0 {
		return nil
	}
	return b.data[:b.size]
}

// Grow returns only the bytes that fit within the fixed capacity; it
// never reallocates. If there's no room left it returns an empty
// slice rather than failing, matching spec §4.1 ("grow returns only
// what fits").
func (b *Static) Grow(n int) []byte {
	if n <= 0 {
		return nil
	}
	room := len(b.data) - b.size
	if n > room {
		n = room
	}
	if n <= 0 {
		return nil
	}
	acquired := b.data[b.size : b.size+n]
	b.size += n
	return acquired
}

func (b *Static) Shrink(n int) {
	if n <= 0 {
		return
	}
	if n > b.size {
		n = b.size
	}
	b.size -= n
}

func (b *Static) Append(src []byte) error {
	return b.Write(b.size, src)
}

func (b *Static) Write(index int, src []byte) error {
	if index > b.size {
		return &ErrWriteIndex{Index: index, Size: b.size}
	}
	end := index + len(src)
	if end > len(b.data) {
		return &ErrOutOfRange{Requested: end, Available: len(b.data)}
	}
	copy(b.data[index:end], src)
	if end > b.size {
		b.size = end
	}
	return nil
}

func (b *Static) Reset() {
	b.size = 0
}
