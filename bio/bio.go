// Package bio implements Beam's channel-independent I/O abstractions
// (spec §4.2, component C2): Reader and Writer interfaces that move
// bytes into and out of a buffer.Buffer, plus the adapters
// (size-declarative framing, piped in-process transport, queued
// buffering, coded wrapping) that higher layers compose to build a
// Channel out of raw bytes.
package bio

import (
	"context"

	"beam/beamerr"
	"beam/buffer"
)

// Reader reads bytes into a buffer.Buffer. Read appends everything
// currently available up to the requested size and reports how much it
// appended; it returns beamerr.ErrEndOfFile once the source is
// exhausted and will never produce more data.
type Reader interface {
	// Read appends up to size bytes to into and returns the number of
	// bytes appended. A size of 0 means "whatever is immediately
	// available."
	Read(ctx context.Context, into buffer.Buffer, size int) (int, error)
}

// Writer writes the contents of a buffer.Buffer to some destination.
type Writer interface {
	// Write sends data's full contents. Write either sends everything
	// or returns an error; it never partially writes.
	Write(ctx context.Context, data buffer.Buffer) error
}

// ReadWriter combines Reader and Writer, the shape most Channel
// implementations expose as their I/O surface.
type ReadWriter interface {
	Reader
	Writer
}

var (
	_ = beamerr.ErrEndOfFile
	_ = beamerr.ErrIO
)
