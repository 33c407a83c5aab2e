// Package codec implements Beam's wire-codec layer (spec §4.4,
// component C4): the Encoder/Decoder pair that transforms a buffer
// before (or after) it crosses a Channel, independent of what the
// payload means. A codec never looks inside the bytes it's given — it
// only transforms them — which is what lets the same Null, ZLib, and
// SizeDeclarative implementations sit under any message format.
package codec

import "context"

import "beam/buffer"

// CodecType identifies the wire codec in use, carried alongside a
// frame the same way the teacher's protocol frame carries a codec
// byte, so a receiver configured for multiple codecs knows which one
// decoded a given payload.
type CodecType byte

const (
	CodecTypeNull  CodecType = 0
	CodecTypeZLib  CodecType = 1
	CodecTypeSized CodecType = 2
)

// Encoder transforms src into dst. It never mutates src.
type Encoder interface {
	Encode(ctx context.Context, src buffer.Buffer, dst buffer.Buffer) error
	Type() CodecType
}

// Decoder reverses an Encoder's transform.
type Decoder interface {
	Decode(ctx context.Context, src buffer.Buffer, dst buffer.Buffer) error
	Type() CodecType
}

// Codec bundles an Encoder and a Decoder for one wire format, the
// Strategy interface every layer above codec programs against.
type Codec interface {
	Encoder
	Decoder
}

// GetCodec is a factory returning the Codec registered for codecType.
// It defaults to Null for an unrecognized type rather than failing,
// matching the teacher's GetCodec fallback-to-default behavior.
func GetCodec(codecType CodecType) Codec {
	switch codecType {
	case CodecTypeZLib:
		return NewZLibCodec()
	case CodecTypeSized:
		return NewSizeDeclarativeCodec(NewNullCodec())
	default:
		return NewNullCodec()
	}
}
