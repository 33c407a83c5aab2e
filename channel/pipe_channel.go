package channel

import (
	"beam/bio"
	"beam/channelid"
)

// PipeChannel is an in-process Channel backed by bio.PipedReader/
// PipedWriter, with no socket underneath it. NewPipeChannelPair wires
// two of them together so unit tests can exercise a client against a
// servlet container without a real TCP listener (spec §4.3 "in-process
// transport for tests").
type PipeChannel struct {
	id     channelid.Identifier
	reader bio.Reader
	writer interface {
		bio.Writer
		Close() error
	}
	done chan struct{}
}

// NewPipeChannelPair returns two connected PipeChannels: writes to one
// become reads on the other.
func NewPipeChannelPair() (*PipeChannel, *PipeChannel) {
	aReader, bWriter := bio.NewPipe()
	bReader, aWriter := bio.NewPipe()

	a := &PipeChannel{id: channelid.New(), reader: aReader, writer: aWriter, done: make(chan struct{})}
	b := &PipeChannel{id: channelid.New(), reader: bReader, writer: bWriter, done: make(chan struct{})}
	return a, b
}

func (c *PipeChannel) Identifier() channelid.Identifier { return c.id }
func (c *PipeChannel) Reader() bio.Reader               { return c.reader }
func (c *PipeChannel) Writer() bio.Writer               { return c.writer }
func (c *PipeChannel) Done() <-chan struct{}            { return c.done }

func (c *PipeChannel) Close() error {
	select {
	case <-c.done:
		return nil
	default:
		close(c.done)
	}
	return c.writer.Close()
}
