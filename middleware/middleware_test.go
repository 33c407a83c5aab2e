package middleware

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"beam/message"
)

func echoHandler(ctx context.Context, req *message.Request) *message.Response {
	return &message.Response{RequestID: req.RequestID, Payload: []byte("ok")}
}

func slowHandler(ctx context.Context, req *message.Request) *message.Response {
	time.Sleep(200 * time.Millisecond)
	return &message.Response{RequestID: req.RequestID, Payload: []byte("ok")}
}

func TestLogging(t *testing.T) {
	handler := LoggingMiddleware(zap.NewNop())(echoHandler)

	req := &message.Request{RequestID: 1, Method: "Arith.Add"}
	resp := handler(context.Background(), req)

	if resp == nil {
		t.Fatal("expect non-nil response")
	}
	if string(resp.Payload) != "ok" {
		t.Fatalf("expect payload 'ok', got '%s'", string(resp.Payload))
	}
}

func TestTimeoutPass(t *testing.T) {
	handler := TimeOutMiddleware(500 * time.Millisecond)(echoHandler)

	req := &message.Request{RequestID: 1, Method: "Arith.Add"}
	resp := handler(context.Background(), req)

	if resp.IsException {
		t.Fatalf("expect no error, got '%s'", resp.ExceptionMsg)
	}
}

func TestTimeoutExceeded(t *testing.T) {
	handler := TimeOutMiddleware(50 * time.Millisecond)(slowHandler)

	req := &message.Request{RequestID: 1, Method: "Arith.Add"}
	resp := handler(context.Background(), req)

	if !resp.IsException || resp.ExceptionMsg != "request timed out" {
		t.Fatalf("expect timeout error, got '%v'", resp)
	}
}

func TestRateLimit(t *testing.T) {
	// rate=1 per second, burst=2: the first 2 calls pass immediately, the 3rd is rejected.
	handler := RateLimitMiddleware(1, 2)(echoHandler)
	req := &message.Request{RequestID: 1, Method: "Arith.Add"}

	for i := 0; i < 2; i++ {
		resp := handler(context.Background(), req)
		if resp.IsException {
			t.Fatalf("request %d should pass, got error: %s", i, resp.ExceptionMsg)
		}
	}

	resp := handler(context.Background(), req)
	if !resp.IsException || resp.ExceptionMsg != "rate limit exceeded" {
		t.Fatalf("request 3 should be rate limited, got: '%v'", resp)
	}
}

func TestRetrySucceedsAfterTransientError(t *testing.T) {
	attempts := 0
	flaky := func(ctx context.Context, req *message.Request) *message.Response {
		attempts++
		if attempts < 2 {
			return &message.Response{RequestID: req.RequestID, IsException: true, ExceptionMsg: "timeout reading frame"}
		}
		return &message.Response{RequestID: req.RequestID, Payload: []byte("ok")}
	}
	handler := RetryMiddleware(zap.NewNop(), 3, time.Millisecond)(flaky)

	req := &message.Request{RequestID: 1, Method: "Arith.Add"}
	resp := handler(context.Background(), req)
	if resp.IsException {
		t.Fatalf("expect eventual success, got '%s'", resp.ExceptionMsg)
	}
	if attempts != 2 {
		t.Fatalf("expect 2 attempts, got %d", attempts)
	}
}

func TestChain(t *testing.T) {
	chained := Chain(LoggingMiddleware(zap.NewNop()), TimeOutMiddleware(500*time.Millisecond))
	handler := chained(echoHandler)

	req := &message.Request{RequestID: 1, Method: "Arith.Add"}
	resp := handler(context.Background(), req)

	if resp == nil {
		t.Fatal("expect non-nil response")
	}
	if resp.IsException {
		t.Fatalf("expect no error, got '%s'", resp.ExceptionMsg)
	}
}
