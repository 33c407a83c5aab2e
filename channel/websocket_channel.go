package channel

import (
	"context"
	"net/url"

	"github.com/gorilla/websocket"

	"beam/beamerr"
	"beam/bio"
	"beam/buffer"
	"beam/channelid"
)

// WebSocketChannel is a Channel backed by a gorilla/websocket
// connection, letting a Beam client run inside a browser-facing
// gateway or behind infrastructure that only forwards HTTP (spec
// §4.3 "alternative transports"). Each wire message maps to one
// websocket binary frame, so this channel's Reader never needs the
// length-prefix framing the TCP transport relies on — the framing is
// already provided by the websocket protocol itself.
type WebSocketChannel struct {
	id   channelid.Identifier
	conn *websocket.Conn
	done chan struct{}
}

// NewWebSocketChannel wraps an already-established *websocket.Conn.
func NewWebSocketChannel(conn *websocket.Conn) *WebSocketChannel {
	return &WebSocketChannel{id: channelid.New(), conn: conn, done: make(chan struct{})}
}

func (c *WebSocketChannel) Identifier() channelid.Identifier { return c.id }
func (c *WebSocketChannel) Done() <-chan struct{}            { return c.done }

func (c *WebSocketChannel) Reader() bio.Reader { return (*wsReader)(c) }
func (c *WebSocketChannel) Writer() bio.Writer { return (*wsWriter)(c) }

func (c *WebSocketChannel) Close() error {
	select {
	case <-c.done:
		return nil
	default:
		close(c.done)
	}
	return c.conn.Close()
}

type wsReader WebSocketChannel

func (r *wsReader) Read(ctx context.Context, into buffer.Buffer, size int) (int, error) {
	_, data, err := r.conn.ReadMessage()
	if err != nil {
		return 0, beamerr.Wrap("websocket read failed", err)
	}
	if err := into.Append(data); err != nil {
		return 0, err
	}
	return len(data), nil
}

type wsWriter WebSocketChannel

func (w *wsWriter) Write(ctx context.Context, data buffer.Buffer) error {
	if err := w.conn.WriteMessage(websocket.BinaryMessage, data.Data()); err != nil {
		return beamerr.Wrap("websocket write failed", err)
	}
	return nil
}

// WebSocketDialer opens WebSocketChannels against a ws:// or wss://
// endpoint.
type WebSocketDialer struct {
	dialer websocket.Dialer
}

// NewWebSocketDialer constructs a WebSocketDialer with the library's
// default handshake timeout and buffer sizes.
func NewWebSocketDialer() *WebSocketDialer {
	return &WebSocketDialer{dialer: websocket.Dialer{}}
}

func (d *WebSocketDialer) Dial(ctx context.Context, addr string) (Connection, error) {
	u := url.URL{Scheme: "ws", Host: addr, Path: "/beam"}
	conn, _, err := d.dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, beamerr.Wrap("dial failed", err)
	}
	return NewWebSocketChannel(conn), nil
}
