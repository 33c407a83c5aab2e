package bio

import (
	"context"

	"beam/beamerr"
	"beam/buffer"
)

// BufferReader adapts an already-fully-populated buffer.Buffer into a
// Reader, the way tests and in-memory fixtures feed canned bytes
// through the same Reader surface a real channel uses (spec §4.2
// "BufferReader").
type BufferReader struct {
	source []byte
	pos    int
}

// NewBufferReader wraps the current contents of source. Subsequent
// mutation of source after construction is not observed.
func NewBufferReader(source buffer.Buffer) *BufferReader {
	return &BufferReader{source: append([]byte(nil), source.Data()...)}
}

func (r *BufferReader) Read(ctx context.Context, into buffer.Buffer, size int) (int, error) {
	if r.pos >= len(r.source) {
		return 0, beamerr.ErrEndOfFile
	}
	remaining := r.source[r.pos:]
	n := len(remaining)
	if size > 0 && size < n {
		n = size
	}
	if err := into.Append(remaining[:n]); err != nil {
		return 0, err
	}
	r.pos += n
	return n, nil
}
