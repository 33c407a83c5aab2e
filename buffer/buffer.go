// Package buffer implements Beam's growable byte container family (spec
// §3, §4.1). Every higher layer — codecs, serialization, framing —
// consumes bytes through the Buffer interface rather than a concrete
// type, the same way the teacher's codec layer treats []byte as an
// opaque payload: a Buffer is just a payload with a capacity policy.
package buffer

// Buffer is the concept surface shared by every variant in this package.
// Implementations differ only in their capacity policy (see Shared,
// Static, Span, Suffix) — the contract is identical:
//
//	0 <= Len() <= Cap()
//	Data() returns nil only when Len() == 0
//	Append(p) == Write(Len(), p) followed by growth
type Buffer interface {
	// Len returns the number of valid bytes currently stored.
	Len() int

	// Cap returns the current capacity.
	Cap() int

	// Data returns the valid region for reading. The caller must not
	// retain it past the next mutation.
	Data() []byte

	// MutableData returns the valid region for in-place mutation. On a
	// copy-on-write buffer this forces an unshare.
	MutableData() []byte

	// Grow extends the logical size by n bytes and returns the slice
	// of newly-acquired bytes, which is never longer than n. A
	// fixed-capacity variant acquires and returns only what fits.
	Grow(n int) []byte

	// Shrink reduces the logical size by n bytes, clamping at 0.
	Shrink(n int)

	// Append writes src at the end of the buffer, growing as needed.
	Append(src []byte) error

	// Write overwrites len(src) bytes starting at index, growing if
	// index+len(src) exceeds the current size (but never silently
	// skipping past the end — index must be <= Len()).
	Write(index int, src []byte) error

	// Reset releases storage and returns the buffer to empty.
	Reset()
}

// ErrOutOfRange is returned by a fixed-capacity Buffer (Static, Span,
// Suffix) when a write would exceed its backing storage.
type ErrOutOfRange struct {
	Requested int
	Available int
}

func (e *ErrOutOfRange) Error() string {
	return "buffer: write out of range"
}

// ErrWriteIndex is returned when Write is called with an index beyond
// the buffer's current size (spec §3 "write(index<=size)").
type ErrWriteIndex struct {
	Index int
	Size  int
}

func (e *ErrWriteIndex) Error() string {
	return "buffer: write index beyond current size"
}
