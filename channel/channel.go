// Package channel implements Beam's transport-independent Channel
// abstraction (spec §4.3, component C3): an identified, bidirectional
// byte conduit that a bio.Reader/bio.Writer pair rides on top of. A
// Channel doesn't know anything about framing, codecs, or message
// types — those are the layers built on top of it (codec, message,
// protocol).
package channel

import (
	"context"

	"beam/bio"
	"beam/channelid"
)

// Channel is one endpoint of a connection: an identity plus the raw
// reader/writer pair everything above this layer is built from.
type Channel interface {
	Identifier() channelid.Identifier
	Reader() bio.Reader
	Writer() bio.Writer
	Close() error
}

// Connection additionally exposes a way to wait for the remote side to
// close or drop the connection, the piece a reconnect loop needs to
// notice a dead link without attempting a read first.
type Connection interface {
	Channel
	// Done returns a channel that closes when the connection is no
	// longer usable.
	Done() <-chan struct{}
}

// Dialer opens a new Connection to addr. TCPDialer and
// WebSocketDialer both implement this, so client code can be written
// against the interface and parameterized by transport.
type Dialer interface {
	Dial(ctx context.Context, addr string) (Connection, error)
}
