// Package channelid implements Beam's channel identity type (spec
// §4.3, part of component C3): a compact, sortable, globally unique
// value that names one end of a Channel for logging, session
// correlation, and load-balancer hashing.
//
// The original implementation generates identifiers from a monotonic
// counter scoped to the process. This port uses ULIDs instead
// (oklog/ulid, already present in the example pack's dependency
// surface) — lexicographically sortable by creation time like the
// original's counter, but globally unique across processes, which a
// distributed deployment of servlets behind a load balancer needs and
// a per-process counter cannot provide.
package channelid

import (
	"fmt"

	"github.com/oklog/ulid/v2"
)

// Identifier names one Channel endpoint.
type Identifier struct {
	value ulid.ULID
}

// New mints a fresh Identifier.
func New() Identifier {
	return Identifier{value: ulid.Make()}
}

// Parse reconstructs an Identifier from its string form (as received
// over the wire inside a handshake, or recovered from a log line).
func Parse(s string) (Identifier, error) {
	v, err := ulid.ParseStrict(s)
	if err != nil {
		return Identifier{}, fmt.Errorf("channelid: invalid identifier %q: %w", s, err)
	}
	return Identifier{value: v}, nil
}

func (id Identifier) String() string { return id.value.String() }

// Bytes returns the identifier's raw 16-byte form, the form Shuttle
// implementations write to the wire.
func (id Identifier) Bytes() []byte {
	b := id.value.Bytes()
	return b[:]
}

// FromBytes reconstructs an Identifier from its raw wire form.
func FromBytes(b []byte) (Identifier, error) {
	var v ulid.ULID
	if err := v.UnmarshalBinary(b); err != nil {
		return Identifier{}, fmt.Errorf("channelid: invalid identifier bytes: %w", err)
	}
	return Identifier{value: v}, nil
}

// Less reports whether id sorts before other — identifiers minted
// later sort later, since ULIDs embed a millisecond timestamp in their
// high bits.
func (id Identifier) Less(other Identifier) bool {
	return id.value.Compare(other.value) < 0
}

func (id Identifier) IsZero() bool {
	var zero ulid.ULID
	return id.value.Compare(zero) == 0
}
