// Package service implements Beam's client- and servlet-side RPC
// machinery (spec §4.7–§4.8, components C7 and C8): ProtocolClient
// multiplexes many in-flight requests over one MessageProtocol and
// keeps the connection alive with heartbeats; Slots dispatches an
// incoming Request to the handler registered for its method, running
// pre-hooks first.
//
// ProtocolClient generalizes the teacher's ClientTransport: the same
// single-reader-goroutine, pending-map-by-id, sending-mutex design,
// but multiplexing message.Request/Response values through a
// protocol.MessageProtocol instead of a raw net.Conn plus a bespoke
// frame header, and adding the RecordMessage/Heartbeat branches the
// teacher's transport never had to handle.
package service

import (
	"context"
	"sync"
	"time"

	"beam/beamerr"
	"beam/message"
	"beam/protocol"
	"beam/serialization"
)

// State is a ProtocolClient's connection lifecycle stage (spec §4.7
// "INIT/OPEN/CLOSING/CLOSED").
type State int

const (
	StateInit State = iota
	StateOpen
	StateClosing
	StateClosed
)

// ProtocolClient manages a single multiplexed connection: each
// request gets a unique request id, and a background goroutine
// (recvLoop) continuously reads responses and routes them to the
// correct caller via pending channels.
//
//	goroutine-1 ──SendRequest(id=1)──┐
//	goroutine-2 ──SendRequest(id=2)──┼──→ MessageProtocol ──→ servlet
//	goroutine-3 ──SendRequest(id=3)──┘
//
//	recvLoop:  ←── Response(id=2) → pending[2] chan ← response → goroutine-2 wakes up
type ProtocolClient struct {
	proto *protocol.MessageProtocol

	mu            sync.Mutex
	state         State
	nextRequestID uint64
	pending       map[uint64]chan *message.Response

	records  chan *message.RecordMessage
	pushes   chan serialization.Value
	closed   chan struct{}
	closeErr error

	heartbeatInterval time.Duration
	timeoutMu         sync.Mutex
	timeoutTimer      *time.Timer
}

// NewProtocolClient starts a ProtocolClient over proto and launches
// its recvLoop and heartbeatLoop. heartbeatInterval <= 0 disables both
// the outgoing heartbeat and the receive-side timeout watchdog.
func NewProtocolClient(proto *protocol.MessageProtocol, heartbeatInterval time.Duration) *ProtocolClient {
	c := &ProtocolClient{
		proto:             proto,
		state:             StateOpen,
		pending:           make(map[uint64]chan *message.Response),
		records:           make(chan *message.RecordMessage, 16),
		pushes:            make(chan serialization.Value, 16),
		closed:            make(chan struct{}),
		heartbeatInterval: heartbeatInterval,
	}
	if heartbeatInterval > 0 {
		c.timeoutTimer = time.AfterFunc(heartbeatInterval, c.onHeartbeatTimeout)
	}
	go c.recvLoop()
	if heartbeatInterval > 0 {
		go c.heartbeatLoop(heartbeatInterval)
	}
	return c
}

// Records returns the channel unsolicited RecordMessages arrive on.
func (c *ProtocolClient) Records() <-chan *message.RecordMessage {
	return c.records
}

// Pushes returns the channel any unsolicited value outside the closed
// message.Request/Response/RecordMessage/HeartbeatMessage set arrives
// on — servicelocator's subscription notifications travel this way,
// registered on the connection's own TypeRegistry rather than wrapped
// in a RecordMessage envelope.
func (c *ProtocolClient) Pushes() <-chan serialization.Value {
	return c.pushes
}

// State reports the client's current lifecycle stage.
func (c *ProtocolClient) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Done returns a channel that closes once the client transitions to
// StateClosed, the signal a reconnect loop (package client) waits on
// to notice peer loss without itself issuing a read (spec §5
// "ServiceProtocolClientHandler ... on peer loss it rebuilds the
// client").
func (c *ProtocolClient) Done() <-chan struct{} {
	return c.closed
}

// Err returns the error that closed the client, if any.
func (c *ProtocolClient) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closeErr
}

// SendRequest issues an RPC call and blocks for its Response, the
// caller's ctx being cancelled, or the connection dying first.
func (c *ProtocolClient) SendRequest(ctx context.Context, method string, params []byte) (*message.Response, error) {
	c.mu.Lock()
	if c.state != StateOpen {
		c.mu.Unlock()
		return nil, beamerr.Wrap("client is not open", beamerr.ErrConnect)
	}
	c.nextRequestID++
	id := c.nextRequestID
	respCh := make(chan *message.Response, 1)
	c.pending[id] = respCh
	c.mu.Unlock()

	req := &message.Request{RequestID: id, Method: method, Params: params}
	if err := c.proto.Send(ctx, req); err != nil {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
		return nil, err
	}

	select {
	case resp := <-respCh:
		if resp == nil {
			// shutdown closed respCh to unblock us rather than deliver a
			// real Response (spec §4.7 "closing a client endpoint fails
			// every pending promise").
			return nil, c.Err()
		}
		return resp, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.closed:
		return nil, c.closeErr
	}
}

// recvLoop is the single goroutine allowed to read from the
// connection; TCP is a byte stream, so reads must stay sequential to
// correctly parse frame boundaries.
func (c *ProtocolClient) recvLoop() {
	ctx := context.Background()
	for {
		v, err := c.proto.Receive(ctx)
		if err != nil {
			c.shutdown(err)
			return
		}
		c.resetHeartbeatTimer()
		switch m := v.(type) {
		case *message.Response:
			c.mu.Lock()
			ch, ok := c.pending[m.RequestID]
			delete(c.pending, m.RequestID)
			c.mu.Unlock()
			if ok {
				ch <- m
			}
		case *message.RecordMessage:
			select {
			case c.records <- m:
			default:
				// Slow consumer: drop rather than block the recv loop
				// and stall every other pending request.
			}
		case *message.HeartbeatMessage:
			// Arrival alone proves liveness; nothing to route.
		default:
			select {
			case c.pushes <- v:
			default:
				// Slow consumer: drop rather than block the recv loop.
			}
		}
	}
}

// heartbeatLoop sends periodic heartbeat frames so a peer (or an
// intermediate load balancer) doesn't time out an otherwise-idle
// connection.
func (c *ProtocolClient) heartbeatLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := c.proto.Send(context.Background(), &message.HeartbeatMessage{}); err != nil {
				c.shutdown(err)
				return
			}
		case <-c.closed:
			return
		}
	}
}

// onHeartbeatTimeout fires when no frame — heartbeat or otherwise —
// arrives within heartbeatInterval of the last one, closing the
// endpoint rather than leaving it blocked on a peer that may be gone
// (spec §4.6 "expiry without a received frame closes the endpoint
// with a timeout error").
func (c *ProtocolClient) onHeartbeatTimeout() {
	c.shutdown(beamerr.ErrHeartbeatTimeout)
}

// resetHeartbeatTimer pushes the timeout watchdog out another
// heartbeatInterval; called after every frame recvLoop successfully
// reads, so traffic of any kind — not just HeartbeatMessage — counts
// as proof of liveness.
func (c *ProtocolClient) resetHeartbeatTimer() {
	if c.heartbeatInterval <= 0 {
		return
	}
	c.timeoutMu.Lock()
	defer c.timeoutMu.Unlock()
	if c.timeoutTimer == nil {
		return
	}
	c.timeoutTimer.Reset(c.heartbeatInterval)
}

// shutdown transitions to Closed and wakes every pending caller so
// none of them block forever.
func (c *ProtocolClient) shutdown(err error) {
	c.mu.Lock()
	if c.state == StateClosed {
		c.mu.Unlock()
		return
	}
	c.state = StateClosed
	c.closeErr = err
	pending := c.pending
	c.pending = nil
	c.mu.Unlock()

	c.timeoutMu.Lock()
	if c.timeoutTimer != nil {
		c.timeoutTimer.Stop()
	}
	c.timeoutMu.Unlock()

	close(c.closed)
	for _, ch := range pending {
		close(ch)
	}
}

// Close gracefully tears down the client.
func (c *ProtocolClient) Close() error {
	c.mu.Lock()
	if c.state == StateClosed {
		c.mu.Unlock()
		return nil
	}
	c.state = StateClosing
	c.mu.Unlock()
	c.shutdown(beamerr.ErrIO)
	return nil
}
