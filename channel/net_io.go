package channel

import (
	"context"
	"errors"
	"io"
	"net"
	"time"

	"beam/beamerr"
	"beam/buffer"
)

// netReader and netWriter adapt a net.Conn to bio.Reader/bio.Writer.
// Both apply ctx's deadline, if it has one, as the connection's
// read/write deadline for the duration of the call rather than closing
// the connection, so one timed-out call doesn't take down a Channel
// other goroutines still depend on. Cancellation of a ctx without a
// deadline does not interrupt a call in progress.
type netReader struct {
	conn net.Conn
}

func (r *netReader) Read(ctx context.Context, into buffer.Buffer, size int) (int, error) {
	if dl, ok := ctx.Deadline(); ok {
		_ = r.conn.SetReadDeadline(dl)
		defer r.conn.SetReadDeadline(time.Time{})
	}
	if size <= 0 {
		size = 4096
	}
	dst := into.Grow(size)
	n, err := r.conn.Read(dst)
	if n < size {
		into.Shrink(size - n)
	}
	if err != nil {
		if n > 0 {
			return n, nil
		}
		return 0, mapNetError(err)
	}
	return n, nil
}

type netWriter struct {
	conn net.Conn
}

func (w *netWriter) Write(ctx context.Context, data buffer.Buffer) error {
	if dl, ok := ctx.Deadline(); ok {
		_ = w.conn.SetWriteDeadline(dl)
		defer w.conn.SetWriteDeadline(time.Time{})
	}
	_, err := w.conn.Write(data.Data())
	if err != nil {
		return mapNetError(err)
	}
	return nil
}

func mapNetError(err error) error {
	if errors.Is(err, io.EOF) {
		return beamerr.ErrEndOfFile
	}
	return beamerr.Wrap("net i/o error", err)
}
