package bio

import (
	"context"

	"beam/buffer"
)

// Encoder and Decoder mirror the codec package's interfaces
// structurally (Go's structural typing satisfies this without bio
// importing codec back) so CodedReader/CodedWriter can wrap any codec
// implementation without a dependency cycle between the two packages.
type Encoder interface {
	Encode(ctx context.Context, src buffer.Buffer, dst buffer.Buffer) error
}

type Decoder interface {
	Decode(ctx context.Context, src buffer.Buffer, dst buffer.Buffer) error
}

// CodedWriter runs every outgoing buffer through an Encoder before
// handing it to the inner Writer (spec §4.2 "CodedReader/CodedWriter",
// the glue between C2 and C4).
type CodedWriter struct {
	inner   Writer
	encoder Encoder
}

// NewCodedWriter wraps inner so every Write is first passed through
// encoder.
func NewCodedWriter(inner Writer, encoder Encoder) *CodedWriter {
	return &CodedWriter{inner: inner, encoder: encoder}
}

func (w *CodedWriter) Write(ctx context.Context, data buffer.Buffer) error {
	encoded := buffer.NewShared()
	if err := w.encoder.Encode(ctx, data, encoded); err != nil {
		return err
	}
	return w.inner.Write(ctx, encoded)
}

// CodedReader runs every incoming buffer through a Decoder before
// returning it to the caller.
type CodedReader struct {
	inner   Reader
	decoder Decoder
}

// NewCodedReader wraps inner so every Read result is first passed
// through decoder.
func NewCodedReader(inner Reader, decoder Decoder) *CodedReader {
	return &CodedReader{inner: inner, decoder: decoder}
}

func (r *CodedReader) Read(ctx context.Context, into buffer.Buffer, size int) (int, error) {
	raw := buffer.NewShared()
	if _, err := r.inner.Read(ctx, raw, size); err != nil {
		return 0, err
	}
	before := into.Len()
	if err := r.decoder.Decode(ctx, raw, into); err != nil {
		return 0, err
	}
	return into.Len() - before, nil
}
