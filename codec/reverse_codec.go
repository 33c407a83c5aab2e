package codec

import "context"

import "beam/buffer"

// ReverseCodec reverses byte order on encode and decode. It exists
// purely so tests can assert that a codec's transform actually ran end
// to end without depending on zlib's specific compressed output (spec
// §4.4 "Reverse (test-only)").
type ReverseCodec struct{}

// NewReverseCodec constructs a byte-reversing codec, for tests only.
func NewReverseCodec() *ReverseCodec { return &ReverseCodec{} }

func reversed(b []byte) []byte {
	out := make([]byte, len(b))
	for i, v := range b {
		out[len(b)-1-i] = v
	}
	return out
}

func (c *ReverseCodec) Encode(ctx context.Context, src buffer.Buffer, dst buffer.Buffer) error {
	return dst.Append(reversed(src.Data()))
}

func (c *ReverseCodec) Decode(ctx context.Context, src buffer.Buffer, dst buffer.Buffer) error {
	return dst.Append(reversed(src.Data()))
}

func (c *ReverseCodec) Type() CodecType { return CodecTypeNull }
