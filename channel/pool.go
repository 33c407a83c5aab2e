// Pool provides a basic connection pool on top of a Dialer.
//
// Pool design: uses a buffered channel as a natural FIFO queue.
// Buffered channels are concurrency-safe, and blocking on empty is
// built-in — the same design the teacher repo used for its raw TCP
// ConnPool, generalized here to pool any Connection a Dialer produces
// (TCP, WebSocket, or an in-process pipe pair) rather than a bare
// net.Conn.
package channel

import (
	"context"
	"fmt"
	"sync"
)

// Pool manages a set of reusable Connections to a single address.
type Pool struct {
	mu       sync.Mutex
	conns    chan *pooledConn
	addr     string
	maxConns int
	curConns int
	dialer   Dialer
}

// pooledConn wraps a Connection with pool metadata.
type pooledConn struct {
	Connection
	pool     *Pool
	unusable bool
}

// NewPool creates a connection pool with the given max size.
// Connections are created lazily — the pool starts empty and grows on
// demand.
func NewPool(addr string, maxConns int, dialer Dialer) *Pool {
	return &Pool{
		conns:    make(chan *pooledConn, maxConns),
		addr:     addr,
		maxConns: maxConns,
		dialer:   dialer,
	}
}

// Get retrieves a connection from the pool.
// Strategy:
//  1. Try to get an existing connection from the channel (non-blocking select)
//  2. If pool is empty but under limit, create a new connection
//  3. If pool is empty and at limit, block until one is returned
func (p *Pool) Get(ctx context.Context) (*pooledConn, error) {
	select {
	case conn := <-p.conns:
		if conn.unusable {
			return p.createNew(ctx)
		}
		return conn, nil
	default:
		if p.curConns < p.maxConns {
			return p.createNew(ctx)
		}
		select {
		case conn := <-p.conns:
			return conn, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Put returns a connection to the pool. If the connection is marked
// unusable (error occurred), it's closed and discarded.
func (p *Pool) Put(conn *pooledConn) {
	if conn.unusable {
		conn.Close()
		p.mu.Lock()
		p.curConns--
		p.mu.Unlock()
		return
	}
	p.conns <- conn
}

// MarkUnusable flags conn so the next Put discards it instead of
// returning it to circulation — call this after a read/write error.
func (p *pooledConn) MarkUnusable() { p.unusable = true }

// Close shuts down the pool and closes all connections.
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	close(p.conns)
	for conn := range p.conns {
		conn.Close()
		p.curConns--
	}
	return nil
}

// createNew dials a new Connection via the pool's Dialer. Protected
// by mutex to prevent exceeding maxConns under concurrent access.
func (p *Pool) createNew(ctx context.Context) (*pooledConn, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.curConns >= p.maxConns {
		return nil, fmt.Errorf("channel: pool exhausted for %s", p.addr)
	}

	conn, err := p.dialer.Dial(ctx, p.addr)
	if err != nil {
		return nil, err
	}

	p.curConns++
	return &pooledConn{Connection: conn, pool: p}, nil
}
