package bio

import (
	"context"
	"sync"

	"beam/buffer"
)

// AsyncWriter serialises writes to the underlying Writer by queuing
// them on a channel and draining them from a single background
// goroutine, preserving write order (spec §4.2 "AsyncWriter").
// Submission is not fire-and-forget: each Write waits until its own
// job has been written, so the caller still sees the underlying
// Writer's latency and gets that write's error directly.
type AsyncWriter struct {
	inner Writer
	queue chan asyncJob
	done  chan struct{}

	closeOnce sync.Once
}

type asyncJob struct {
	data buffer.Buffer
	done chan error
}

// NewAsyncWriter starts the background drain goroutine. depth bounds
// how many jobs can sit in the queue; once it is full, further
// concurrent Writes wait to enqueue.
func NewAsyncWriter(inner Writer, depth int) *AsyncWriter {
	w := &AsyncWriter{
		inner: inner,
		queue: make(chan asyncJob, depth),
		done:  make(chan struct{}),
	}
	go w.run()
	return w
}

func (w *AsyncWriter) run() {
	defer close(w.done)
	for job := range w.queue {
		job.done <- w.inner.Write(context.Background(), job.data)
	}
}

// Write enqueues data and blocks until it has actually been written,
// waiting for queue space first if the queue is full. It returns early
// with ctx.Err() if ctx is cancelled first.
func (w *AsyncWriter) Write(ctx context.Context, data buffer.Buffer) error {
	job := asyncJob{data: data, done: make(chan error, 1)}
	select {
	case w.queue <- job:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-job.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting new writes and waits for the queue to drain.
func (w *AsyncWriter) Close() {
	w.closeOnce.Do(func() {
		close(w.queue)
	})
	<-w.done
}
