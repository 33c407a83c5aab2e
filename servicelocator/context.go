package servicelocator

import (
	"context"
	"sync/atomic"

	"beam/serialization"
)

type endpointKey struct{}
type pushKey struct{}

var nextEndpointID uint64

// ConnContext is a servletcontainer.Container.SetConnContext callback:
// it assigns each accepted connection a stable endpoint id (spec
// §4.10's "duplicate login on the same endpoint fails" needs one) and
// stashes the connection's Pusher so subscription handlers can record
// it for later unsolicited delivery.
func ConnContext(ctx context.Context, push func(context.Context, serialization.Value) error) context.Context {
	id := atomic.AddUint64(&nextEndpointID, 1)
	ctx = context.WithValue(ctx, endpointKey{}, endpointIDFor(id))
	return context.WithValue(ctx, pushKey{}, pushFunc(push))
}

func endpointIDFor(id uint64) string {
	const hex = "0123456789abcdef"
	buf := make([]byte, 16)
	for i := 15; i >= 0; i-- {
		buf[i] = hex[id&0xf]
		id >>= 4
	}
	return string(buf)
}

// EndpointIDFromContext returns the stable id ConnContext assigned to
// this connection.
func EndpointIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(endpointKey{}).(string)
	return id, ok
}

func pushFromContext(ctx context.Context) (pushFunc, bool) {
	push, ok := ctx.Value(pushKey{}).(pushFunc)
	return push, ok
}
