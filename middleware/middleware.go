// Package middleware implements the onion-model request chain from the
// teacher repo, retargeted from its bespoke RPCMessage envelope onto
// Beam's own message.Request/message.Response pair so it wraps a
// servletcontainer.Container's dispatch instead of mini-rpc's server
// loop.
//
// Onion model execution order:
//
//	Chain(A, B, C)(handler)  →  A(B(C(handler)))
//
//	Request:   A.before → B.before → C.before → handler
//	Response:  handler → C.after → B.after → A.after
//
// Each middleware can:
//   - Do pre-processing (before calling next)
//   - Call next(ctx, req) to pass to the next layer
//   - Do post-processing (after next returns)
//   - Short-circuit by returning early without calling next (e.g., rate limiting)
package middleware

import (
	"context"

	"beam/message"
)

// HandlerFunc answers one Request with a Response, the granularity a
// servletcontainer.Container dispatches at (spec §4.8 "Dispatch").
type HandlerFunc func(ctx context.Context, req *message.Request) *message.Response

// Middleware takes a handler and returns a new handler that wraps it.
type Middleware func(next HandlerFunc) HandlerFunc

// Chain composes multiple middlewares into a single middleware, the
// first argument becoming the outermost layer.
func Chain(middlewares ...Middleware) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		for i := len(middlewares) - 1; i >= 0; i-- {
			next = middlewares[i](next)
		}
		return next
	}
}
