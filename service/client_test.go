package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"beam/bio"
	"beam/codec"
	"beam/message"
	"beam/protocol"
	"beam/serialization"
)

// servlet is a minimal stand-in for the real servletcontainer: it
// reads Requests off one end of an in-process pipe, dispatches them
// through Slots, and writes back Responses.
func runServlet(proto *protocol.MessageProtocol, slots *Slots) {
	ctx := context.Background()
	for {
		v, err := proto.Receive(ctx)
		if err != nil {
			return
		}
		req, ok := v.(*message.Request)
		if !ok {
			continue
		}
		go func() {
			resp := slots.Dispatch(ctx, req)
			_ = proto.Send(ctx, resp)
		}()
	}
}

func newConnectedClient(t *testing.T, slots *Slots) *ProtocolClient {
	t.Helper()
	clientReader, servletWriter := bio.NewPipe()
	servletReader, clientWriter := bio.NewPipe()

	clientReg := serialization.NewTypeRegistry()
	message.RegisterAll(clientReg)
	servletReg := serialization.NewTypeRegistry()
	message.RegisterAll(servletReg)

	clientProto := protocol.New(clientReader, clientWriter, codec.NewNullCodec(), clientReg)
	servletProto := protocol.New(servletReader, servletWriter, codec.NewNullCodec(), servletReg)

	go runServlet(servletProto, slots)
	return NewProtocolClient(clientProto, 0)
}

func arithSlots(t *testing.T) *Slots {
	t.Helper()
	slots := NewSlots()
	if err := RegisterReflect(slots, &Arith{}); err != nil {
		t.Fatalf("RegisterReflect failed: %v", err)
	}
	return slots
}

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

func TestProtocolClientSerialRequests(t *testing.T) {
	client := newConnectedClient(t, arithSlots(t))
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	cases := []struct{ a, b, expect int }{
		{1, 2, 3},
		{10, 20, 30},
		{100, 200, 300},
	}
	for _, tc := range cases {
		params := []byte(fmt.Sprintf(`{"A":%d,"B":%d}`, tc.a, tc.b))
		resp, err := client.SendRequest(ctx, "Arith.Add", params)
		if err != nil {
			t.Fatalf("SendRequest failed: %v", err)
		}
		if resp.IsException {
			t.Fatalf("server exception: %s", resp.ExceptionMsg)
		}
		result := decodeResult(t, resp.Payload)
		if result != tc.expect {
			t.Fatalf("expect %d, got %d", tc.expect, result)
		}
	}
}

func TestProtocolClientConcurrentRequests(t *testing.T) {
	client := newConnectedClient(t, arithSlots(t))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			params := []byte(fmt.Sprintf(`{"A":%d,"B":%d}`, n, n))
			resp, err := client.SendRequest(ctx, "Arith.Add", params)
			if err != nil {
				t.Errorf("SendRequest failed: %v", err)
				return
			}
			if resp.IsException {
				t.Errorf("server exception: %s", resp.ExceptionMsg)
				return
			}
			if result := decodeResult(t, resp.Payload); result != n*2 {
				t.Errorf("expect %d, got %d", n*2, result)
			}
		}(i)
	}
	wg.Wait()
}

func TestProtocolClientUnknownMethod(t *testing.T) {
	client := newConnectedClient(t, arithSlots(t))
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	resp, err := client.SendRequest(ctx, "Arith.Subtract", nil)
	if err != nil {
		t.Fatalf("SendRequest failed: %v", err)
	}
	if !resp.IsException {
		t.Fatalf("expected an exception response for an unregistered method")
	}
}

func TestProtocolClientHeartbeatTimeout(t *testing.T) {
	clientReader, servletWriter := bio.NewPipe()
	servletReader, clientWriter := bio.NewPipe()
	_ = servletWriter

	clientReg := serialization.NewTypeRegistry()
	message.RegisterAll(clientReg)

	clientProto := protocol.New(clientReader, clientWriter, codec.NewNullCodec(), clientReg)

	// Nothing ever reads servletReader, so no frame this client sends
	// is ever acknowledged and nothing arrives back; the receive-side
	// watchdog must close the endpoint on its own once the heartbeat
	// interval elapses without an incoming frame.
	_ = servletReader
	client := NewProtocolClient(clientProto, 20*time.Millisecond)
	defer client.Close()

	select {
	case <-client.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("client did not close itself after heartbeat timeout")
	}
	if client.Err() == nil {
		t.Fatal("expected a heartbeat timeout error")
	}
}

func decodeResult(t *testing.T, payload []byte) int {
	t.Helper()
	var reply Reply
	if err := json.Unmarshal(payload, &reply); err != nil {
		t.Fatalf("unmarshal reply failed: %v", err)
	}
	return reply.Result
}
