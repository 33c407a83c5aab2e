package codec

import (
	"context"
	"encoding/binary"

	"beam/beamerr"
	"beam/buffer"
)

// SizeDeclarativeCodec prefixes an inner codec's encoded output with
// the original (pre-encoding) source size as a 4-byte big-endian
// value, so the decoder knows how many bytes the decoded tail must
// produce (spec §4.4 "SizeDeclarative[Inner]"). The encoded tail runs
// to the end of the buffer. This is distinct from bio's
// SizeDeclarativeWriter/Reader, which frame whole wire messages with a
// little-endian length; the two prefixes are independently specified
// and must not be unified.
type SizeDeclarativeCodec struct {
	inner Codec
}

// NewSizeDeclarativeCodec wraps inner with a length prefix.
func NewSizeDeclarativeCodec(inner Codec) *SizeDeclarativeCodec {
	return &SizeDeclarativeCodec{inner: inner}
}

func (c *SizeDeclarativeCodec) Encode(ctx context.Context, src buffer.Buffer, dst buffer.Buffer) error {
	encoded := buffer.NewShared()
	if err := c.inner.Encode(ctx, src, encoded); err != nil {
		return err
	}
	header := dst.Grow(4)
	binary.BigEndian.PutUint32(header, uint32(src.Len()))
	return dst.Append(encoded.Data())
}

func (c *SizeDeclarativeCodec) Decode(ctx context.Context, src buffer.Buffer, dst buffer.Buffer) error {
	data := src.Data()
	if len(data) < 4 {
		return beamerr.ErrDecoder
	}
	size := int(binary.BigEndian.Uint32(data[:4]))
	before := dst.Len()
	if err := c.inner.Decode(ctx, buffer.NewSharedFrom(data[4:]), dst); err != nil {
		return err
	}
	if dst.Len()-before != size {
		return beamerr.ErrDecoder
	}
	return nil
}

func (c *SizeDeclarativeCodec) Type() CodecType { return CodecTypeSized }
