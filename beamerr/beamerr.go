// Package beamerr defines the error taxonomy shared by every layer of the
// protocol stack: transport failures, framing/encoding failures, and
// service-level exceptions that round-trip across the wire.
//
// The original C++ implementation throws a small hierarchy of exception
// types (IOException, EndOfFileException, EncoderException,
// DecoderException, ServiceRequestException, ConnectException) and chains
// a "nested" cause for diagnostics. This package models the same
// taxonomy as sentinel errors plus wrapping constructors so callers can
// use errors.Is/errors.As instead of catching a class hierarchy.
package beamerr

import (
	"errors"
	"fmt"
)

// Sentinel errors identifying the broad category of a failure. Use
// errors.Is against these, not direct equality, since constructors wrap
// them with context.
var (
	// ErrEndOfFile signals that a peer closed its side of a channel, or
	// a queue/pipe was closed, while a read was pending.
	ErrEndOfFile = errors.New("end of file")

	// ErrIO signals an unrecoverable transport failure (a broken
	// socket, a write after close, a dead pipe).
	ErrIO = errors.New("i/o error")

	// ErrEncoder signals an encode-side codec failure.
	ErrEncoder = errors.New("encoder error")

	// ErrDecoder signals a decode-side codec failure, including a
	// corrupted stream or an unknown type tag resolved through a
	// TypeRegistry.
	ErrDecoder = errors.New("decoder error")

	// ErrConnect signals that a session/handshake could not be
	// established (the ConnectException family in the original).
	ErrConnect = errors.New("connect error")

	// ErrHeartbeatTimeout signals that no frame was received from the
	// peer within the agreed heartbeat interval, so the endpoint
	// closed itself rather than wait on a peer that may be gone.
	ErrHeartbeatTimeout = errors.New("heartbeat timeout")
)

// ServiceRequestException is the service-level error sent back across the
// wire as a Response's exception branch (spec §3, §7). It carries a
// human-readable message and an optional nested cause for diagnostic
// chaining, mirroring the original's RethrowNestedServiceException idiom.
type ServiceRequestException struct {
	Message string
	Nested  error
}

// NewServiceException constructs a ServiceRequestException with no
// nested cause.
func NewServiceException(message string) *ServiceRequestException {
	return &ServiceRequestException{Message: message}
}

// Wrap constructs a ServiceRequestException nesting cause, the way a
// handler that caught an unrelated error turns it into a reportable
// exception (spec §7 "other exceptions become
// ServiceRequestException(what())").
func Wrap(message string, cause error) *ServiceRequestException {
	return &ServiceRequestException{Message: message, Nested: cause}
}

func (e *ServiceRequestException) Error() string {
	if e.Nested == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Message, e.Nested.Error())
}

func (e *ServiceRequestException) Unwrap() error {
	return e.Nested
}

// Clone returns a deep copy of the exception, independent of the
// original's nested chain identity. Used by the client to reconstruct a
// polymorphic-safe copy of a server-side exception after deserializing
// it through a TypeRegistry (spec §4.4 "Clone").
func (e *ServiceRequestException) Clone() *ServiceRequestException {
	if e == nil {
		return nil
	}
	clone := &ServiceRequestException{Message: e.Message}
	var nested *ServiceRequestException
	if errors.As(e.Nested, &nested) {
		clone.Nested = nested.Clone()
	} else {
		clone.Nested = e.Nested
	}
	return clone
}

// AuthenticationError is the ConnectException subtype raised when a
// session handshake fails (spec §7 "Authorisation errors" /
// "Authentication errors").
type AuthenticationError struct {
	Reason string
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("authentication failed: %s", e.Reason)
}

func (e *AuthenticationError) Unwrap() error {
	return ErrConnect
}

// ErrInsufficientPermissions is the canned exception every
// permission-gated service returns when the caller lacks the required
// bit (spec §4.10).
func ErrInsufficientPermissions() *ServiceRequestException {
	return NewServiceException("Insufficient permissions.")
}

// ErrNotLoggedIn is the canned exception the authentication adapter's
// pre-hook raises for any request arriving before a successful
// handshake (spec §4.9 scenario 4).
func ErrNotLoggedIn() *ServiceRequestException {
	return NewServiceException("Not logged in.")
}

// ErrSessionNotFound is returned by SessionAuthentication when the
// supplied session id has no corresponding open session (spec §6).
func ErrSessionNotFound() *ServiceRequestException {
	return NewServiceException("Session not found.")
}
