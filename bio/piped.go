package bio

import (
	"context"
	"sync"

	"beam/beamerr"
	"beam/buffer"
)

// pipe is the shared state behind a PipedReader/PipedWriter pair: an
// in-process byte conduit with no socket underneath it, used to test
// Channel consumers and to wire two servlets together inside a single
// process (spec §4.2 "PipedReader/PipedWriter").
type pipe struct {
	mu     sync.Mutex
	cond   *sync.Cond
	data   []byte
	closed bool
}

func newPipe() *pipe {
	p := &pipe{}
	p.cond = sync.NewCond(&p.mu)
	return p
}

// PipedWriter is the write end of an in-process pipe.
type PipedWriter struct {
	p *pipe
}

// PipedReader is the read end of an in-process pipe.
type PipedReader struct {
	p *pipe
}

// NewPipe returns a connected PipedReader/PipedWriter pair. Bytes
// written to the PipedWriter become available to the PipedReader in
// the order written.
func NewPipe() (*PipedReader, *PipedWriter) {
	p := newPipe()
	return &PipedReader{p: p}, &PipedWriter{p: p}
}

func (w *PipedWriter) Write(ctx context.Context, data buffer.Buffer) error {
	w.p.mu.Lock()
	defer w.p.mu.Unlock()
	if w.p.closed {
		return beamerr.ErrIO
	}
	w.p.data = append(w.p.data, data.Data()...)
	w.p.cond.Broadcast()
	return nil
}

// Close signals end-of-file to the reader once buffered data is
// drained.
func (w *PipedWriter) Close() error {
	w.p.mu.Lock()
	defer w.p.mu.Unlock()
	w.p.closed = true
	w.p.cond.Broadcast()
	return nil
}

func (r *PipedReader) Read(ctx context.Context, into buffer.Buffer, size int) (int, error) {
	r.p.mu.Lock()
	defer r.p.mu.Unlock()

	if len(r.p.data) == 0 && !r.p.closed && ctx.Err() == nil {
		// One watcher per blocking call: wakes the cond on cancellation
		// without leaking past this Read (it exits the moment ctx is
		// done or the pipe delivers something).
		woken := make(chan struct{})
		defer close(woken)
		go func() {
			select {
			case <-ctx.Done():
				r.p.mu.Lock()
				r.p.cond.Broadcast()
				r.p.mu.Unlock()
			case <-woken:
			}
		}()
	}

	for len(r.p.data) == 0 && !r.p.closed {
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		r.p.cond.Wait()
	}

	if ctx.Err() != nil {
		return 0, ctx.Err()
	}

	if len(r.p.data) == 0 {
		return 0, beamerr.ErrEndOfFile
	}

	n := len(r.p.data)
	if size > 0 && size < n {
		n = size
	}
	if err := into.Append(r.p.data[:n]); err != nil {
		return 0, err
	}
	r.p.data = r.p.data[n:]
	return n, nil
}
