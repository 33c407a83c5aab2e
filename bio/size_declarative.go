package bio

import (
	"context"
	"encoding/binary"

	"beam/beamerr"
	"beam/buffer"
)

// sizePrefixLen is the width of the little-endian length prefix that
// precedes every frame on the wire (spec §3 "u32 length (LE) ||
// codec(payload)").
const sizePrefixLen = 4

// SizeDeclarativeWriter prefixes each write with a 4-byte little-endian
// length, so the peer's SizeDeclarativeReader knows exactly how many
// bytes to read for one frame without needing an end-of-message
// delimiter.
type SizeDeclarativeWriter struct {
	inner Writer
}

// NewSizeDeclarativeWriter wraps inner with length-prefix framing.
func NewSizeDeclarativeWriter(inner Writer) *SizeDeclarativeWriter {
	return &SizeDeclarativeWriter{inner: inner}
}

func (w *SizeDeclarativeWriter) Write(ctx context.Context, data buffer.Buffer) error {
	framed := buffer.NewShared()
	header := framed.Grow(sizePrefixLen)
	binary.LittleEndian.PutUint32(header, uint32(data.Len()))
	if err := framed.Append(data.Data()); err != nil {
		return err
	}
	return w.inner.Write(ctx, framed)
}

// SizeDeclarativeReader reads exactly one length-prefixed frame per
// Read call, blocking on the inner Reader until the full frame body
// has arrived.
type SizeDeclarativeReader struct {
	inner Reader
}

// NewSizeDeclarativeReader wraps inner with length-prefix de-framing.
func NewSizeDeclarativeReader(inner Reader) *SizeDeclarativeReader {
	return &SizeDeclarativeReader{inner: inner}
}

// Read ignores the caller-supplied size hint: a frame is an atomic
// unit, so it always reads exactly one complete frame's payload into
// into and returns its length.
func (r *SizeDeclarativeReader) Read(ctx context.Context, into buffer.Buffer, size int) (int, error) {
	header := buffer.NewShared()
	if err := r.readExactly(ctx, header, sizePrefixLen); err != nil {
		return 0, err
	}
	length := int(binary.LittleEndian.Uint32(header.Data()))

	body := buffer.NewShared()
	if length > 0 {
		if err := r.readExactly(ctx, body, length); err != nil {
			return 0, err
		}
	}
	if err := into.Append(body.Data()); err != nil {
		return 0, err
	}
	return length, nil
}

func (r *SizeDeclarativeReader) readExactly(ctx context.Context, into buffer.Buffer, n int) error {
	for into.Len() < n {
		_, err := r.inner.Read(ctx, into, n-into.Len())
		if err != nil {
			return err
		}
	}
	if into.Len() != n {
		return beamerr.ErrDecoder
	}
	return nil
}
