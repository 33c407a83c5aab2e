package codec

import (
	"bytes"
	"context"
	"fmt"

	"github.com/klauspost/compress/zlib"

	"beam/beamerr"
	"beam/buffer"
)

// ZLibCodec compresses payloads with zlib, trading CPU for wire size on
// chatty connections (spec §4.4 "ZLib codec"). It uses
// klauspost/compress's zlib implementation, the same compression
// library the rest of the example pack reaches for over the standard
// library's slower pure-Go deflate.
type ZLibCodec struct{}

// NewZLibCodec constructs a zlib-backed codec.
func NewZLibCodec() *ZLibCodec { return &ZLibCodec{} }

func (c *ZLibCodec) Encode(ctx context.Context, src buffer.Buffer, dst buffer.Buffer) error {
	var out bytes.Buffer
	zw := zlib.NewWriter(&out)
	if _, err := zw.Write(src.Data()); err != nil {
		return fmt.Errorf("zlib encode failed: %w: %w", beamerr.ErrEncoder, err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("zlib encode failed: %w: %w", beamerr.ErrEncoder, err)
	}
	return dst.Append(out.Bytes())
}

func (c *ZLibCodec) Decode(ctx context.Context, src buffer.Buffer, dst buffer.Buffer) error {
	zr, err := zlib.NewReader(bytes.NewReader(src.Data()))
	if err != nil {
		return fmt.Errorf("zlib decode failed: %w: %w", beamerr.ErrDecoder, err)
	}
	defer zr.Close()

	var out bytes.Buffer
	if _, err := out.ReadFrom(zr); err != nil {
		return fmt.Errorf("zlib decode failed: %w: %w", beamerr.ErrDecoder, err)
	}
	return dst.Append(out.Bytes())
}

func (c *ZLibCodec) Type() CodecType { return CodecTypeZLib }
