package service

import (
	"context"
	"errors"
	"testing"

	"beam/message"
	"beam/serialization"
)

func TestSlotsPreHookAbortsDispatch(t *testing.T) {
	slots := NewSlots()
	called := false
	slots.Register("Echo", func(ctx context.Context, params []byte) ([]byte, error) {
		called = true
		return params, nil
	})
	slots.AddPreHook(func(ctx context.Context, req *message.Request) error {
		return errors.New("not logged in")
	})

	resp := slots.Dispatch(context.Background(), &message.Request{RequestID: 1, Method: "Echo"})
	if !resp.IsException {
		t.Fatalf("expected pre-hook failure to produce an exception response")
	}
	if called {
		t.Fatalf("handler should not run when a pre-hook rejects the request")
	}
}

func TestSlotsPreHooksRunInOrder(t *testing.T) {
	slots := NewSlots()
	var order []int
	slots.AddPreHook(func(ctx context.Context, req *message.Request) error {
		order = append(order, 1)
		return nil
	})
	slots.AddPreHook(func(ctx context.Context, req *message.Request) error {
		order = append(order, 2)
		return nil
	})
	slots.Register("Noop", func(ctx context.Context, params []byte) ([]byte, error) {
		order = append(order, 3)
		return nil, nil
	})

	slots.Dispatch(context.Background(), &message.Request{RequestID: 1, Method: "Noop"})
	if len(order) != 3 || order[0] != 1 || order[1] != 2 || order[2] != 3 {
		t.Fatalf("pre-hooks and handler ran out of order: %v", order)
	}
}

func TestSlotsUnknownMethodIsException(t *testing.T) {
	slots := NewSlots()
	resp := slots.Dispatch(context.Background(), &message.Request{RequestID: 1, Method: "Missing"})
	if !resp.IsException {
		t.Fatalf("dispatching an unregistered method should produce an exception response")
	}
}

// TestSlotsAsyncHandlerCompletesLater exercises the request-token
// slot shape: the handler returns immediately without completing the
// token, and a later goroutine finishes the call.
func TestSlotsAsyncHandlerCompletesLater(t *testing.T) {
	slots := NewSlots()
	ready := make(chan *ResponseToken)
	slots.RegisterAsync("Wait.Result", func(ctx context.Context, token *ResponseToken, params []byte) {
		ready <- token
	})

	respCh := make(chan *message.Response, 1)
	go func() {
		respCh <- slots.Dispatch(context.Background(), &message.Request{RequestID: 7, Method: "Wait.Result"})
	}()

	token := <-ready
	token.SetResult([]byte("done"))

	resp := <-respCh
	if resp.IsException || string(resp.Payload) != "done" {
		t.Fatalf("expected async result %q, got exception=%v payload=%q", "done", resp.IsException, resp.Payload)
	}
}

func TestSlotsAsyncHandlerSetExceptionIsIdempotent(t *testing.T) {
	slots := NewSlots()
	slots.RegisterAsync("Wait.Fail", func(ctx context.Context, token *ResponseToken, params []byte) {
		token.SetException(errors.New("boom"))
		token.SetResult([]byte("too late"))
	})

	resp := slots.Dispatch(context.Background(), &message.Request{RequestID: 9, Method: "Wait.Fail"})
	if !resp.IsException || resp.ExceptionMsg != "boom" {
		t.Fatalf("expected the first SetException call to win, got %+v", resp)
	}
}

const testPingUID = "service_test.Ping"

// testPing is a minimal serialization.Value used only to exercise
// Slots.DispatchMessage's type-UID lookup; its Shuttle/Unshuttle never
// run since these tests dispatch the Go value directly.
type testPing struct{ Body []byte }

func (p *testPing) TypeUID() string                               { return testPingUID }
func (p *testPing) Shuttle(s *serialization.Sender) error         { s.PutBytes(p.Body); return nil }
func (p *testPing) Unshuttle(r *serialization.Receiver) error {
	body, err := r.GetBytes()
	if err != nil {
		return err
	}
	p.Body = body
	return nil
}

func TestSlotsDispatchMessage(t *testing.T) {
	slots := NewSlots()
	received := make(chan serialization.Value, 1)
	slots.RegisterMessage(testPingUID, func(ctx context.Context, msg serialization.Value) error {
		received <- msg
		return nil
	})

	msg := &testPing{Body: []byte("hi")}
	if err := slots.DispatchMessage(context.Background(), msg); err != nil {
		t.Fatalf("DispatchMessage failed: %v", err)
	}
	select {
	case got := <-received:
		if got != serialization.Value(msg) {
			t.Fatalf("handler received a different value than was dispatched")
		}
	default:
		t.Fatal("message handler was never invoked")
	}
}

func TestSlotsDispatchMessageNoSlotIsError(t *testing.T) {
	slots := NewSlots()
	if err := slots.DispatchMessage(context.Background(), &testPing{}); err == nil {
		t.Fatal("expected an error for a message type with no registered slot")
	}
}
