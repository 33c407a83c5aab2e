package middleware

import (
	"context"
	"time"

	"beam/message"
)

// TimeOutMiddleware enforces a maximum duration for each dispatched
// Request. If the handler doesn't complete within the timeout, it
// returns an exception Response immediately.
//
// Implementation:
//  1. Create a context with timeout (ctx.Done() fires when timeout expires)
//  2. Run the next handler in a goroutine, sending its result to a channel
//  3. Select between the result channel and ctx.Done()
//
// Note: the handler goroutine is NOT cancelled — it continues running in the background.
// The timeout only controls when the caller gives up waiting. For true cancellation,
// the handler must check ctx.Done() internally.
func TimeOutMiddleware(timeout time.Duration) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *message.Request) *message.Response {
			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			done := make(chan *message.Response, 1) // Buffered: prevent goroutine leak if timeout fires
			go func() {
				done <- next(ctx, req)
			}()

			select {
			case resp := <-done:
				return resp
			case <-ctx.Done():
				return &message.Response{
					RequestID:    req.RequestID,
					IsException:  true,
					ExceptionMsg: "request timed out",
				}
			}
		}
	}
}
