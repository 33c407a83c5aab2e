package bio

import (
	"context"
	"testing"

	"beam/buffer"
)

func TestPipeRoundTrip(t *testing.T) {
	r, w := NewPipe()
	ctx := context.Background()

	go func() {
		_ = w.Write(ctx, buffer.NewSharedFrom([]byte("hello")))
		w.Close()
	}()

	got := buffer.NewShared()
	n, err := r.Read(ctx, got, 0)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if n != 5 || string(got.Data()) != "hello" {
		t.Fatalf("Read = %d %q, want 5 %q", n, got.Data(), "hello")
	}

	_, err = r.Read(ctx, buffer.NewShared(), 0)
	if err == nil {
		t.Fatalf("expected EOF after writer closed and backlog drained")
	}
}

func TestSizeDeclarativeRoundTrip(t *testing.T) {
	ctx := context.Background()
	r, w := NewPipe()
	sw := NewSizeDeclarativeWriter(w)
	sr := NewSizeDeclarativeReader(NewQueuedReader(r))

	payload := buffer.NewSharedFrom([]byte("the message body"))
	go func() {
		_ = sw.Write(ctx, payload)
	}()

	got := buffer.NewShared()
	n, err := sr.Read(ctx, got, 0)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if n != payload.Len() || string(got.Data()) != string(payload.Data()) {
		t.Fatalf("Read = %d %q, want %d %q", n, got.Data(), payload.Len(), payload.Data())
	}
}

func TestBufferReaderExhausts(t *testing.T) {
	src := buffer.NewSharedFrom([]byte("abc"))
	br := NewBufferReader(src)
	ctx := context.Background()

	dst := buffer.NewShared()
	n, err := br.Read(ctx, dst, 0)
	if err != nil || n != 3 {
		t.Fatalf("Read = %d, %v; want 3, nil", n, err)
	}
	if _, err := br.Read(ctx, buffer.NewShared(), 0); err == nil {
		t.Fatalf("expected EOF on exhausted BufferReader")
	}
}

func TestAsyncWriterPreservesOrder(t *testing.T) {
	r, w := NewPipe()
	aw := NewAsyncWriter(w, 4)
	ctx := context.Background()

	for _, s := range []string{"a", "b", "c"} {
		if err := aw.Write(ctx, buffer.NewSharedFrom([]byte(s))); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
	}
	aw.Close()
	w.Close()

	got := buffer.NewShared()
	for got.Len() < 3 {
		if _, err := r.Read(ctx, got, 0); err != nil {
			t.Fatalf("Read failed: %v", err)
		}
	}
	if string(got.Data()) != "abc" {
		t.Fatalf("got %q, want order-preserving %q", got.Data(), "abc")
	}
}
