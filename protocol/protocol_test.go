package protocol

import (
	"context"
	"testing"

	"beam/bio"
	"beam/codec"
	"beam/message"
	"beam/serialization"
)

func newPair(t *testing.T) (*MessageProtocol, *MessageProtocol) {
	t.Helper()
	aReader, bWriter := bio.NewPipe()
	bReader, aWriter := bio.NewPipe()

	regA := serialization.NewTypeRegistry()
	message.RegisterAll(regA)
	regB := serialization.NewTypeRegistry()
	message.RegisterAll(regB)

	a := New(aReader, aWriter, codec.NewNullCodec(), regA)
	b := New(bReader, bWriter, codec.NewNullCodec(), regB)
	return a, b
}

func TestSendReceiveRequest(t *testing.T) {
	a, b := newPair(t)
	ctx := context.Background()

	req := &message.Request{RequestID: 1, Method: "Arith.Add", Params: []byte("args")}
	go func() {
		_ = a.Send(ctx, req)
	}()

	got, err := b.Receive(ctx)
	if err != nil {
		t.Fatalf("Receive failed: %v", err)
	}
	decoded, ok := got.(*message.Request)
	if !ok {
		t.Fatalf("Receive returned %T, want *message.Request", got)
	}
	if decoded.RequestID != req.RequestID || decoded.Method != req.Method {
		t.Errorf("round trip mismatch: got %+v, want %+v", decoded, req)
	}
}

func TestSendReceiveWithZLibCodec(t *testing.T) {
	aReader, bWriter := bio.NewPipe()
	bReader, aWriter := bio.NewPipe()
	regA := serialization.NewTypeRegistry()
	message.RegisterAll(regA)
	regB := serialization.NewTypeRegistry()
	message.RegisterAll(regB)

	a := New(aReader, aWriter, codec.NewZLibCodec(), regA)
	b := New(bReader, bWriter, codec.NewZLibCodec(), regB)
	ctx := context.Background()

	resp := &message.Response{RequestID: 1, Payload: []byte("the reply body, repeated repeated repeated")}
	go func() {
		_ = a.Send(ctx, resp)
	}()

	got, err := b.Receive(ctx)
	if err != nil {
		t.Fatalf("Receive failed: %v", err)
	}
	decoded := got.(*message.Response)
	if string(decoded.Payload) != string(resp.Payload) {
		t.Errorf("got %q, want %q", decoded.Payload, resp.Payload)
	}
}

func TestReceiveMultipleFramesInOrder(t *testing.T) {
	a, b := newPair(t)
	ctx := context.Background()

	go func() {
		_ = a.Send(ctx, &message.Request{RequestID: 1, Method: "first"})
		_ = a.Send(ctx, &message.Request{RequestID: 2, Method: "second"})
	}()

	first, err := b.Receive(ctx)
	if err != nil {
		t.Fatalf("Receive failed: %v", err)
	}
	second, err := b.Receive(ctx)
	if err != nil {
		t.Fatalf("Receive failed: %v", err)
	}
	if first.(*message.Request).Method != "first" || second.(*message.Request).Method != "second" {
		t.Errorf("frames arrived out of order: %v, %v", first, second)
	}
}
