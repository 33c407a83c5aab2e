// Package client implements Beam's reconnecting RPC client: the
// ServiceProtocolClientHandler of spec §5 ("Reconnection"). It owns a
// single service.ProtocolClient at a time, resolves the server address
// through a discovery.Registry + loadbalance.Balancer pair instead of
// a fixed address, and on peer loss redials with
// github.com/cenkalti/backoff/v4 before replaying the caller's
// OnConnect hook (re-authenticate, re-register, re-subscribe).
//
// Retargets the teacher's Client (service discovery → load balancing →
// shared transport pool → Call) from a stateless per-call transport
// pool onto Beam's stateful, multiplexed, reconnecting
// service.ProtocolClient — the teacher's Client never had to recover
// from a dropped connection, since every Call re-dialed implicitly via
// getTransport; Beam's RPC identity and subscription model (spec §8
// "Account-update recovery") require one client surviving across
// reconnects.
package client

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"beam/beamerr"
	"beam/channel"
	"beam/codec"
	registry "beam/discovery"
	"beam/loadbalance"
	"beam/protocol"
	"beam/serialization"
	"beam/service"
)

// OnConnect is invoked with a freshly built ProtocolClient every time
// ReconnectHandler establishes (or re-establishes) a connection. A
// caller re-authenticates, re-registers its own services, and
// re-subscribes to whatever push feeds it cares about here (spec §5
// "re-authenticate, re-register services it had registered,
// re-subscribe to account/service updates, diff against its last
// snapshot").
type OnConnect func(ctx context.Context, client *service.ProtocolClient) error

// ReconnectHandler resolves serviceName through discovery and a
// Balancer, dials with dialer, and keeps exactly one
// service.ProtocolClient alive, rebuilding it on failure.
type ReconnectHandler struct {
	discovery   registry.Registry
	balancer    loadbalance.Balancer
	serviceName string
	dialer      channel.Dialer
	codec       codec.Codec
	newRegistry func() *serialization.TypeRegistry
	heartbeat   time.Duration
	onConnect   OnConnect
	backoff     func() backoff.BackOff
	logger      *zap.Logger
	version     string

	mu     sync.Mutex
	client *service.ProtocolClient
	closed bool
	stop   chan struct{}
}

// New constructs a ReconnectHandler. newRegistry must return a fresh
// *serialization.TypeRegistry with every message type this connection
// will carry already registered (message.RegisterAll plus any
// service-specific records) — a fresh one is needed per connection
// attempt since a TypeRegistry's tag assignment is connection-local.
func New(discoveryReg registry.Registry, balancer loadbalance.Balancer, serviceName string, dialer channel.Dialer, c codec.Codec, newRegistry func() *serialization.TypeRegistry, heartbeat time.Duration, onConnect OnConnect, logger *zap.Logger) *ReconnectHandler {
	return &ReconnectHandler{
		discovery:   discoveryReg,
		balancer:    balancer,
		serviceName: serviceName,
		dialer:      dialer,
		codec:       c,
		newRegistry: newRegistry,
		heartbeat:   heartbeat,
		onConnect:   onConnect,
		backoff:     func() backoff.BackOff { return backoff.NewExponentialBackOff() },
		logger:      logger.Named("client.reconnect"),
		stop:        make(chan struct{}),
	}
}

// PinVersion restricts every future Discover result to instances whose
// registry.ServiceInstance.Version matches version, so this handler
// never balances across a rolling upgrade's mixed-version instances.
// Pass "" (the default) to balance across every published instance
// regardless of version.
func (h *ReconnectHandler) PinVersion(version string) *ReconnectHandler {
	h.version = version
	return h
}

// SetBackoffFactory overrides the default exponential backoff policy
// (spec §5 "Backoff is driven by a user-supplied timer factory").
func (h *ReconnectHandler) SetBackoffFactory(f func() backoff.BackOff) {
	h.backoff = f
}

// Start dials the first connection and launches the background
// goroutine that redials on loss. It makes a single connection attempt
// and returns that attempt's error if it fails; backoff-driven
// redialing applies only after an established connection is lost.
func (h *ReconnectHandler) Start(ctx context.Context) error {
	client, err := h.connectOnce(ctx)
	if err != nil {
		return err
	}
	h.mu.Lock()
	h.client = client
	h.mu.Unlock()
	go h.superviseLoop(ctx, client)
	return nil
}

// Client returns the currently live ProtocolClient. Callers should
// re-fetch it after a call fails with an IOException, since a
// reconnect may have replaced it underneath them.
func (h *ReconnectHandler) Client() *service.ProtocolClient {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.client
}

// Close stops the reconnect loop and closes the current client.
func (h *ReconnectHandler) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	client := h.client
	h.mu.Unlock()
	close(h.stop)
	if client != nil {
		return client.Close()
	}
	return nil
}

// superviseLoop waits for the current client to die, then redials with
// backoff and replays OnConnect, repeating until Close or ctx is done.
func (h *ReconnectHandler) superviseLoop(ctx context.Context, client *service.ProtocolClient) {
	for {
		select {
		case <-h.stop:
			return
		case <-ctx.Done():
			return
		case <-client.Done():
		}

		h.mu.Lock()
		closed := h.closed
		h.mu.Unlock()
		if closed {
			return
		}

		h.logger.Warn("connection lost, reconnecting", zap.Error(client.Err()))
		next, err := h.reconnectWithBackoff(ctx)
		if err != nil {
			h.logger.Error("reconnect loop aborted", zap.Error(err))
			return
		}
		h.mu.Lock()
		h.client = next
		h.mu.Unlock()
		client = next
	}
}

func (h *ReconnectHandler) reconnectWithBackoff(ctx context.Context) (*service.ProtocolClient, error) {
	bo := backoff.WithContext(h.backoff(), ctx)
	for {
		client, err := h.connectOnce(ctx)
		if err == nil {
			return client, nil
		}
		h.logger.Warn("reconnect attempt failed", zap.Error(err))
		wait := bo.NextBackOff()
		if wait == backoff.Stop {
			return nil, fmt.Errorf("client: reconnect backoff exhausted: %w", err)
		}
		select {
		case <-time.After(wait):
		case <-h.stop:
			return nil, beamerr.ErrIO
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// connectOnce resolves one address via discovery+balancer, dials it,
// and builds a fresh ProtocolClient, running OnConnect before handing
// it back.
func (h *ReconnectHandler) connectOnce(ctx context.Context) (*service.ProtocolClient, error) {
	instances, err := h.discovery.Discover(h.serviceName)
	if err != nil {
		return nil, fmt.Errorf("client: discover %s: %w", h.serviceName, err)
	}
	instances = registry.FilterByVersion(instances, h.version)
	instance, err := h.balancer.Pick(instances)
	if err != nil {
		return nil, fmt.Errorf("client: pick instance for %s: %w", h.serviceName, err)
	}

	conn, err := h.dialer.Dial(ctx, instance.Addr)
	if err != nil {
		return nil, fmt.Errorf("client: dial %s: %w", instance.Addr, err)
	}

	// generation tags this connect attempt's post-dial log lines so a
	// reconnect cycle's OnConnect replay (re-auth, re-register,
	// re-subscribe) can be told apart from the previous generation's in
	// a shared log stream. Discover, Pick and Dial failures above are
	// returned before a generation is assigned and are not tagged.
	generation := uuid.NewString()
	logger := h.logger.With(zap.String("generation", generation), zap.String("addr", instance.Addr))

	proto := protocol.New(conn.Reader(), conn.Writer(), h.codec, h.newRegistry())
	client := service.NewProtocolClient(proto, h.heartbeat)

	if h.onConnect != nil {
		if err := h.onConnect(ctx, client); err != nil {
			client.Close()
			conn.Close()
			logger.Warn("onConnect failed", zap.Error(err))
			return nil, fmt.Errorf("client: onConnect for %s: %w", instance.Addr, err)
		}
	}
	logger.Info("connected")
	return client, nil
}
