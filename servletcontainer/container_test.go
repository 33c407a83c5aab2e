package servletcontainer

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"testing"
	"time"

	"beam/channel"
	"beam/codec"
	"beam/message"
	"beam/protocol"
	"beam/serialization"
	"beam/service"
)

type Args struct {
	A, B int
}

type Reply struct {
	Result int
}

type Arith struct{}

func (a *Arith) Add(args *Args, reply *Reply) error {
	reply.Result = args.A + args.B
	return nil
}

type arithServlet struct{}

func (arithServlet) RegisterSlots(slots *service.Slots) {
	if err := service.RegisterReflect(slots, &Arith{}); err != nil {
		panic(err)
	}
}

func newRegistry() *serialization.TypeRegistry {
	reg := serialization.NewTypeRegistry()
	message.RegisterAll(reg)
	return reg
}

func dialClient(t *testing.T, addr string) *protocol.MessageProtocol {
	t.Helper()
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	ch := channel.NewTCPChannel(conn)
	return protocol.New(ch.Reader(), ch.Writer(), codec.NewNullCodec(), newRegistry())
}

func sendArithRequest(t *testing.T, proto *protocol.MessageProtocol, ctx context.Context, id uint64, a, b int) *message.Response {
	t.Helper()
	params := []byte(fmt.Sprintf(`{"A":%d,"B":%d}`, a, b))
	req := &message.Request{RequestID: id, Method: "Arith.Add", Params: params}
	if err := proto.Send(ctx, req); err != nil {
		t.Fatalf("send failed: %v", err)
	}
	v, err := proto.Receive(ctx)
	if err != nil {
		t.Fatalf("receive failed: %v", err)
	}
	resp, ok := v.(*message.Response)
	if !ok {
		t.Fatalf("expected a Response, got %T", v)
	}
	return resp
}

func decodeArithResult(t *testing.T, payload []byte) int {
	t.Helper()
	var reply Reply
	if err := json.Unmarshal(payload, &reply); err != nil {
		t.Fatalf("unmarshal reply failed: %v", err)
	}
	return reply.Result
}

func startContainer(t *testing.T, policy DispatchPolicy) (*Container, net.Listener, string) {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen failed: %v", err)
	}
	c := NewContainerForServlets([]Servlet{arithServlet{}}, newRegistry(), codec.NewNullCodec(), policy)
	go c.Serve(context.Background(), listener)
	return c, listener, listener.Addr().String()
}

func TestContainerDispatchParallel(t *testing.T) {
	_, listener, addr := startContainer(t, DispatchParallel)
	defer listener.Close()

	proto := dialClient(t, addr)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	for i, tc := range []struct{ a, b, expect int }{{1, 2, 3}, {10, 20, 30}} {
		resp := sendArithRequest(t, proto, ctx, uint64(i+1), tc.a, tc.b)
		if resp.IsException {
			t.Fatalf("unexpected exception: %s", resp.ExceptionMsg)
		}
		if got := decodeArithResult(t, resp.Payload); got != tc.expect {
			t.Fatalf("expected %d, got %d", tc.expect, got)
		}
	}
}

func TestContainerDispatchCooperative(t *testing.T) {
	_, listener, addr := startContainer(t, DispatchCooperative)
	defer listener.Close()

	proto := dialClient(t, addr)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	resp := sendArithRequest(t, proto, ctx, 1, 5, 7)
	if resp.IsException {
		t.Fatalf("unexpected exception: %s", resp.ExceptionMsg)
	}
	if got := decodeArithResult(t, resp.Payload); got != 12 {
		t.Fatalf("expected 12, got %d", got)
	}
}

func TestContainerUnknownMethodIsException(t *testing.T) {
	_, listener, addr := startContainer(t, DispatchParallel)
	defer listener.Close()

	proto := dialClient(t, addr)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	req := &message.Request{RequestID: 1, Method: "Arith.Subtract"}
	if err := proto.Send(ctx, req); err != nil {
		t.Fatalf("send failed: %v", err)
	}
	v, err := proto.Receive(ctx)
	if err != nil {
		t.Fatalf("receive failed: %v", err)
	}
	resp, ok := v.(*message.Response)
	if !ok {
		t.Fatalf("expected a Response, got %T", v)
	}
	if !resp.IsException {
		t.Fatalf("expected an exception response for an unregistered method")
	}
}

type lifecycleServlet struct {
	accepted chan struct{}
	closed   chan struct{}
}

func (s *lifecycleServlet) RegisterSlots(slots *service.Slots) {}

func (s *lifecycleServlet) HandleAccept(ctx context.Context) { close(s.accepted) }
func (s *lifecycleServlet) HandleClose(ctx context.Context)  { close(s.closed) }

func TestContainerCallsAcceptAndCloseHooks(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen failed: %v", err)
	}
	defer listener.Close()

	lifecycle := &lifecycleServlet{accepted: make(chan struct{}), closed: make(chan struct{})}
	c := NewContainerForServlets([]Servlet{arithServlet{}, lifecycle}, newRegistry(), codec.NewNullCodec(), DispatchParallel)
	go c.Serve(context.Background(), listener)

	conn, err := net.Dial("tcp", listener.Addr().String())
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}

	select {
	case <-lifecycle.accepted:
	case <-time.After(2 * time.Second):
		t.Fatal("HandleAccept was never called")
	}

	conn.Close()

	select {
	case <-lifecycle.closed:
	case <-time.After(2 * time.Second):
		t.Fatal("HandleClose was never called")
	}
}

type recordServlet struct {
	received chan *message.RecordMessage
}

func (s *recordServlet) RegisterSlots(slots *service.Slots) {
	slots.RegisterMessage(message.RecordUID, func(ctx context.Context, v serialization.Value) error {
		if rec, ok := v.(*message.RecordMessage); ok {
			s.received <- rec
		}
		return nil
	})
}

func TestContainerRoutesRecordMessageToMessageSlot(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen failed: %v", err)
	}
	defer listener.Close()

	rs := &recordServlet{received: make(chan *message.RecordMessage, 1)}
	c := NewContainerForServlets([]Servlet{rs}, newRegistry(), codec.NewNullCodec(), DispatchParallel)
	go c.Serve(context.Background(), listener)

	proto := dialClient(t, listener.Addr().String())
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := proto.Send(ctx, &message.RecordMessage{Record: []byte("hello")}); err != nil {
		t.Fatalf("send failed: %v", err)
	}

	select {
	case rec := <-rs.received:
		if string(rec.Record) != "hello" {
			t.Fatalf("expected record %q, got %q", "hello", rec.Record)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("message slot was never invoked")
	}
}

func TestContainerShutdownDrainsThenStopsAccepting(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen failed: %v", err)
	}
	c := NewContainerForServlets([]Servlet{arithServlet{}}, newRegistry(), codec.NewNullCodec(), DispatchParallel)

	serveErr := make(chan error, 1)
	go func() { serveErr <- c.Serve(context.Background(), listener) }()

	addr := listener.Addr().String()
	proto := dialClient(t, addr)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	resp := sendArithRequest(t, proto, ctx, 1, 2, 3)
	if resp.IsException {
		t.Fatalf("unexpected exception: %s", resp.ExceptionMsg)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer shutdownCancel()
	if err := c.Shutdown(shutdownCtx); err != nil {
		t.Fatalf("shutdown failed: %v", err)
	}

	select {
	case <-serveErr:
	case <-time.After(2 * time.Second):
		t.Fatalf("Serve did not return after Shutdown")
	}

	if _, err := net.Dial("tcp", addr); err == nil {
		t.Fatalf("expected dialing a shut down container to fail")
	}
}
