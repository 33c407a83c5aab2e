package bio

import (
	"context"

	"beam/buffer"
)

// QueuedReader accumulates bytes from an inner Reader into a private
// backlog and serves Read calls from that backlog first, only pulling
// from the inner Reader when the backlog can't satisfy the request
// (spec §4.2 "QueuedReader"). This absorbs the case where a transport
// delivers more bytes in one read than the caller asked for — e.g. a
// TCP socket handing back two frames' worth of bytes in a single
// recv() — without losing the excess.
type QueuedReader struct {
	inner   Reader
	backlog []byte
}

// NewQueuedReader wraps inner with a read-ahead backlog.
func NewQueuedReader(inner Reader) *QueuedReader {
	return &QueuedReader{inner: inner}
}

func (r *QueuedReader) Read(ctx context.Context, into buffer.Buffer, size int) (int, error) {
	if len(r.backlog) == 0 {
		pulled := buffer.NewShared()
		// Pull a reasonably large chunk so a slow peer sending many
		// small frames doesn't force one syscall per frame.
		pullSize := size
		if pullSize < 4096 {
			pullSize = 4096
		}
		if _, err := r.inner.Read(ctx, pulled, pullSize); err != nil {
			return 0, err
		}
		r.backlog = pulled.Data()
	}

	n := len(r.backlog)
	if size > 0 && size < n {
		n = size
	}
	if err := into.Append(r.backlog[:n]); err != nil {
		return 0, err
	}
	r.backlog = r.backlog[n:]
	return n, nil
}
