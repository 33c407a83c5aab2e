package codec

import "context"

import "beam/buffer"

// NullCodec copies bytes through unchanged. It's the default wire
// codec (spec §3 "codec defaults to identity") and the base every
// other codec wraps when composed with SizeDeclarativeCodec.
type NullCodec struct{}

// NewNullCodec constructs a pass-through codec.
func NewNullCodec() *NullCodec { return &NullCodec{} }

func (c *NullCodec) Encode(ctx context.Context, src buffer.Buffer, dst buffer.Buffer) error {
	return dst.Append(src.Data())
}

func (c *NullCodec) Decode(ctx context.Context, src buffer.Buffer, dst buffer.Buffer) error {
	return dst.Append(src.Data())
}

func (c *NullCodec) Type() CodecType { return CodecTypeNull }
