// Package servletcontainer implements Beam's ServiceProtocolServletContainer
// (spec §4.9, component C9): the listener loop that accepts Channels,
// builds a MessageProtocol over each one, and dispatches incoming
// Requests to a shared Slots table.
//
// Request processing pipeline:
//
//	Accept conn → handleConnection (single goroutine reads frames)
//	  → for each Request: dispatch (parallel or cooperative)
//	    → Slots.Dispatch (pre-hooks → handler) → MessageProtocol.Send(Response)
//
// Shutdown is built on golang.org/x/sync/errgroup the way the teacher
// repo's Server used a sync.WaitGroup plus a shutdown timeout, except
// cancellation now propagates through a context instead of a bare
// atomic flag, so Shutdown composes with a caller-supplied deadline.
package servletcontainer

import (
	"context"
	"net"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"beam/channel"
	"beam/codec"
	"beam/message"
	"beam/middleware"
	"beam/protocol"
	"beam/serialization"
	"beam/service"
)

// Servlet registers its handlers and pre-hooks onto a shared Slots
// table. A Container can host several Servlets at once — e.g. the
// service locator and the registry servlet sharing one listener —
// the way the original's ServiceLocator and Registry applications can
// be composed into a single servlet container.
type Servlet interface {
	RegisterSlots(slots *service.Slots)
}

// AcceptHandler is implemented by a Servlet that needs to run setup
// once a connection is accepted, after every Servlet's RegisterSlots
// has already run (spec §4.8 "call servlet.handle_accept(endpoint) if
// defined").
type AcceptHandler interface {
	HandleAccept(ctx context.Context)
}

// CloseHandler is implemented by a Servlet that needs to release
// per-connection state — logins, subscriptions — once a connection
// closes (spec §4.8 "on close, call servlet.handle_close(endpoint) if
// defined").
type CloseHandler interface {
	HandleClose(ctx context.Context)
}

// DispatchPolicy controls whether a connection's Requests run
// concurrently or strictly in arrival order (spec §4.9 "parallel or
// cooperative dispatch").
type DispatchPolicy int

const (
	// DispatchParallel runs each Request's handler on its own goroutine,
	// so one slow handler can't stall others on the same connection.
	// This is the default, same tradeoff the teacher's Server made with
	// its per-request goroutine.
	DispatchParallel DispatchPolicy = iota

	// DispatchCooperative processes Requests strictly one at a time, in
	// arrival order, on the connection's own goroutine — for servlets
	// whose handlers mutate shared state in a way that's only safe
	// without concurrent calls from the same client.
	DispatchCooperative
)

// Container is a ServiceProtocolServletContainer: it owns the
// listener, the shared Slots table, and the per-connection protocol
// plumbing (codec + TypeRegistry) every accepted Channel uses.
// Pusher sends an unsolicited Value (e.g. a RecordMessage) down a
// specific connection, outside the normal request/response cycle.
// ConnContext hooks use it to let a handler capture a way to push to
// *this* connection later, from code running on another connection's
// goroutine (subscription broadcast, directory-entry notification).
type Pusher func(ctx context.Context, v serialization.Value) error

type Container struct {
	slots       *service.Slots
	servlets    []Servlet
	registry    *serialization.TypeRegistry
	codec       codec.Codec
	dispatch    DispatchPolicy
	connContext func(ctx context.Context, push Pusher) context.Context
	chain       middleware.Middleware
	logger      *zap.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	group  *errgroup.Group
}

// Use installs mws as the Container's request middleware chain, run
// around every Slots.Dispatch call the way the teacher's Server.Use
// wrapped its own handler (package middleware). Call before Serve;
// mws[0] is the outermost layer.
func (c *Container) Use(mws ...middleware.Middleware) {
	c.chain = middleware.Chain(mws...)
}

// SetConnContext installs f to derive each accepted connection's base
// context before its read loop starts, mirroring net/http.Server's
// ConnContext field. f also receives a Pusher bound to this
// connection's outgoing protocol, so a handler can register it (e.g.
// under a subscription) for later unsolicited pushes. The
// authentication adapter (package auth) uses this to attach a
// per-connection session its pre-hook can read; servicelocator uses it
// to attach the connection's Pusher for subscription delivery.
func (c *Container) SetConnContext(f func(ctx context.Context, push Pusher) context.Context) {
	c.connContext = f
}

// SetLogger installs logger for the Container's own diagnostics (an
// unroutable message-slot frame — nothing Slots.Dispatch already
// reports through a Response); handler panics are not recovered. A
// Container built without one logs nothing.
func (c *Container) SetLogger(logger *zap.Logger) {
	c.logger = logger.Named("servletcontainer")
}

// NewContainer constructs a Container ready to Serve. registry should
// already have message.RegisterAll plus any servlet-specific record
// types registered — every accepted connection shares it, since tags
// only need to agree within one process lifetime, not per connection.
func NewContainer(slots *service.Slots, registry *serialization.TypeRegistry, c codec.Codec, dispatch DispatchPolicy) *Container {
	return &Container{slots: slots, registry: registry, codec: c, dispatch: dispatch, logger: zap.NewNop()}
}

// NewContainerForServlets builds a Slots table from servlets and
// constructs a Container over it — the usual entry point for a
// cmd/beamservlet-style binary that hosts one or more Servlets.
// Servlets implementing AcceptHandler/CloseHandler are notified as
// every connection is accepted and closed.
func NewContainerForServlets(servlets []Servlet, registry *serialization.TypeRegistry, c codec.Codec, dispatch DispatchPolicy) *Container {
	slots := service.NewSlots()
	for _, s := range servlets {
		s.RegisterSlots(slots)
	}
	container := NewContainer(slots, registry, c, dispatch)
	container.servlets = servlets
	return container
}

// Serve accepts connections from listener until parent is cancelled or
// Shutdown is called, blocking until the accept loop exits.
func (c *Container) Serve(parent context.Context, listener net.Listener) error {
	ctx, cancel := context.WithCancel(parent)
	group, gctx := errgroup.WithContext(ctx)

	c.mu.Lock()
	c.cancel = cancel
	c.group = group
	c.mu.Unlock()

	go func() {
		<-gctx.Done()
		listener.Close()
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			if gctx.Err() != nil {
				return nil
			}
			cancel()
			return err
		}
		tcpConn := conn
		group.Go(func() error {
			ch := channel.NewTCPChannel(tcpConn)
			c.handleConnection(gctx, ch)
			return nil
		})
	}
}

// handleConnection runs a single read loop (reads must stay
// sequential to parse frame boundaries) and dispatches each Request
// according to the Container's DispatchPolicy.
func (c *Container) handleConnection(ctx context.Context, ch channel.Channel) {
	defer ch.Close()
	proto := protocol.New(ch.Reader(), ch.Writer(), c.codec, c.registry)

	if c.connContext != nil {
		ctx = c.connContext(ctx, proto.Send)
	}

	for _, s := range c.servlets {
		if h, ok := s.(AcceptHandler); ok {
			h.HandleAccept(ctx)
		}
	}
	defer func() {
		for _, s := range c.servlets {
			if h, ok := s.(CloseHandler); ok {
				h.HandleClose(ctx)
			}
		}
	}()

	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		v, err := proto.Receive(ctx)
		if err != nil {
			return
		}
		req, ok := v.(*message.Request)
		if !ok {
			switch v.(type) {
			case *message.HeartbeatMessage, *message.Response:
				// Heartbeats need no reply; a Response from a client
				// would only answer a request this side never sent.
			default:
				// An unsolicited RecordMessage (or any other registered
				// non-Request value) routes to its message slot, if one
				// is registered for its type (spec §4.7 "add_message_slot").
				if err := c.slots.DispatchMessage(ctx, v); err != nil {
					c.logger.Debug("unhandled message frame", zap.String("type", v.TypeUID()), zap.Error(err))
				}
			}
			continue
		}

		if c.dispatch == DispatchCooperative {
			resp := c.dispatchOne(ctx, req)
			_ = proto.Send(ctx, resp)
			continue
		}

		wg.Add(1)
		go func(req *message.Request) {
			defer wg.Done()
			resp := c.dispatchOne(ctx, req)
			_ = proto.Send(ctx, resp)
		}(req)
	}
}

// dispatchOne runs req through the Container's middleware chain (if
// any), terminating at Slots.Dispatch.
func (c *Container) dispatchOne(ctx context.Context, req *message.Request) *message.Response {
	if c.chain == nil {
		return c.slots.Dispatch(ctx, req)
	}
	return c.chain(c.slots.Dispatch)(ctx, req)
}

// Shutdown cancels the accept loop, stops accepting new connections,
// and waits for in-flight connections to drain or ctx to expire.
func (c *Container) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	cancel := c.cancel
	group := c.group
	c.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()

	done := make(chan error, 1)
	go func() { done <- group.Wait() }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
