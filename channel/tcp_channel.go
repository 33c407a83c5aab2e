package channel

import (
	"context"
	"net"

	"beam/beamerr"
	"beam/bio"
	"beam/channelid"
)

// TCPChannel is a Channel backed by a plain net.Conn, the default
// transport for both client and servlet-container use (spec §4.3
// "TCP transport").
type TCPChannel struct {
	id     channelid.Identifier
	conn   net.Conn
	reader bio.Reader
	writer bio.Writer
	done   chan struct{}
}

// NewTCPChannel wraps an already-connected net.Conn.
func NewTCPChannel(conn net.Conn) *TCPChannel {
	c := &TCPChannel{
		id:     channelid.New(),
		conn:   conn,
		done:   make(chan struct{}),
	}
	c.reader = bio.NewQueuedReader(&netReader{conn: conn})
	c.writer = &netWriter{conn: conn}
	return c
}

func (c *TCPChannel) Identifier() channelid.Identifier { return c.id }
func (c *TCPChannel) Reader() bio.Reader               { return c.reader }
func (c *TCPChannel) Writer() bio.Writer               { return c.writer }
func (c *TCPChannel) Done() <-chan struct{}            { return c.done }

func (c *TCPChannel) Close() error {
	select {
	case <-c.done:
		return nil
	default:
		close(c.done)
	}
	return c.conn.Close()
}

// TCPDialer opens TCPChannels by dialing a TCP address.
type TCPDialer struct{}

// NewTCPDialer constructs a TCPDialer.
func NewTCPDialer() *TCPDialer { return &TCPDialer{} }

func (d *TCPDialer) Dial(ctx context.Context, addr string) (Connection, error) {
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, beamerr.Wrap("dial failed", err)
	}
	return NewTCPChannel(conn), nil
}
