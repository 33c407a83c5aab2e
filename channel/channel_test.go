package channel

import (
	"context"
	"testing"

	"beam/buffer"
)

func TestPipeChannelPairRoundTrip(t *testing.T) {
	a, b := NewPipeChannelPair()
	defer a.Close()
	defer b.Close()

	ctx := context.Background()
	if err := a.Writer().Write(ctx, buffer.NewSharedFrom([]byte("ping"))); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	got := buffer.NewShared()
	if _, err := b.Reader().Read(ctx, got, 0); err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if string(got.Data()) != "ping" {
		t.Errorf("got %q, want %q", got.Data(), "ping")
	}
}

func TestPipeChannelIdentifiersAreDistinct(t *testing.T) {
	a, b := NewPipeChannelPair()
	defer a.Close()
	defer b.Close()

	if a.Identifier().String() == b.Identifier().String() {
		t.Errorf("paired channels should have distinct identifiers")
	}
}

type pairDialer struct {
	peers chan *PipeChannel
}

func (d *pairDialer) Dial(ctx context.Context, addr string) (Connection, error) {
	a, b := NewPipeChannelPair()
	d.peers <- b
	return a, nil
}

func TestPoolReusesReturnedConnections(t *testing.T) {
	dialer := &pairDialer{peers: make(chan *PipeChannel, 8)}
	pool := NewPool("test-addr", 2, dialer)
	ctx := context.Background()

	c1, err := pool.Get(ctx)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	firstID := c1.Identifier().String()
	pool.Put(c1)

	c2, err := pool.Get(ctx)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if c2.Identifier().String() != firstID {
		t.Errorf("pool should reuse the returned connection instead of dialing a new one")
	}
}
