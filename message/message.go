// Package message defines Beam's wire message taxonomy (spec §4.6,
// component C6): the four kinds of value a MessageProtocol can send or
// receive. Each type registers under a stable string UID so a
// serialization.TypeRegistry can resolve it to a numeric tag per
// connection, the same way the teacher's RPCMessage was the one and
// only envelope serialized by its codec layer — Beam generalizes that
// single envelope into a small closed set of message kinds.
package message

import (
	"errors"

	"beam/beamerr"
	"beam/serialization"
)

// Type UIDs are the stable, cross-version names every connection
// registers its TypeRegistry tags under (spec §3 "registered under a
// string UID").
const (
	RequestUID                = "Beam.Services.Request"
	ResponseUID               = "Beam.Services.Response"
	RecordUID                 = "Beam.Services.RecordMessage"
	HeartbeatUID              = "Beam.Services.HeartbeatMessage"
	ServiceRequestExceptionUID = "Beam.Services.ServiceRequestException"
)

// ServiceRequestException is the wire form of a
// beamerr.ServiceRequestException: a Response's exception branch
// travels as this registered Value, with its Nested cause chain
// intact, so the receiving client can reconstruct a polymorphic-safe
// copy through the registry instead of collapsing straight to a flat
// string (spec §3 "exception-clone buffer", §4.6 "Exception cloning").
type ServiceRequestException struct {
	Message string
	Nested  *ServiceRequestException
}

func (m *ServiceRequestException) TypeUID() string { return ServiceRequestExceptionUID }

func (m *ServiceRequestException) Shuttle(s *serialization.Sender) error {
	s.PutString(m.Message)
	s.PutBool(m.Nested != nil)
	if m.Nested != nil {
		return s.PutValue(m.Nested)
	}
	return nil
}

func (m *ServiceRequestException) Unshuttle(r *serialization.Receiver) error {
	var err error
	if m.Message, err = r.GetString(); err != nil {
		return err
	}
	hasNested, err := r.GetBool()
	if err != nil {
		return err
	}
	if hasNested {
		v, err := r.GetValue()
		if err != nil {
			return err
		}
		nested, ok := v.(*ServiceRequestException)
		if !ok {
			return beamerr.ErrDecoder
		}
		m.Nested = nested
	}
	return nil
}

// ToError rebuilds the beamerr.ServiceRequestException this wire value
// represents, recursing through Nested.
func (m *ServiceRequestException) ToError() *beamerr.ServiceRequestException {
	if m == nil {
		return nil
	}
	exc := &beamerr.ServiceRequestException{Message: m.Message}
	if m.Nested != nil {
		exc.Nested = m.Nested.ToError()
	}
	return exc
}

func (m *ServiceRequestException) clone() *ServiceRequestException {
	if m == nil {
		return nil
	}
	return &ServiceRequestException{Message: m.Message, Nested: m.Nested.clone()}
}

// NewServiceRequestException converts err into its wire exception
// shape. A *beamerr.ServiceRequestException keeps its Nested chain
// structured; any other error becomes a single leaf with no nested
// cause, since only beamerr's own type carries one.
func NewServiceRequestException(err error) *ServiceRequestException {
	if err == nil {
		return nil
	}
	var sre *beamerr.ServiceRequestException
	if errors.As(err, &sre) {
		wire := &ServiceRequestException{Message: sre.Message}
		if sre.Nested != nil {
			wire.Nested = NewServiceRequestException(sre.Nested)
		}
		return wire
	}
	return &ServiceRequestException{Message: err.Error()}
}

// Request carries an RPC call: a client-assigned request id and the
// serialized parameters for the service method being invoked.
type Request struct {
	RequestID uint64
	Method    string
	Params    []byte
}

func (m *Request) TypeUID() string { return RequestUID }

func (m *Request) Shuttle(s *serialization.Sender) error {
	s.PutUint64(m.RequestID)
	s.PutString(m.Method)
	s.PutBytes(m.Params)
	return nil
}

func (m *Request) Unshuttle(r *serialization.Receiver) error {
	var err error
	if m.RequestID, err = r.GetUint64(); err != nil {
		return err
	}
	if m.Method, err = r.GetString(); err != nil {
		return err
	}
	if m.Params, err = r.GetBytes(); err != nil {
		return err
	}
	return nil
}

// Response answers a Request by RequestID, carrying either a
// successful Payload or an exception (spec §4.6 "Response", §7
// "exception branch"). ExceptionValue is the structured,
// registry-cloned ServiceRequestException with its Nested chain
// intact; ExceptionMsg mirrors its top-level message for callers that
// only want the flattened text.
type Response struct {
	RequestID      uint64
	IsException    bool
	Payload        []byte
	ExceptionMsg   string
	ExceptionValue *ServiceRequestException
}

func (m *Response) TypeUID() string { return ResponseUID }

func (m *Response) Shuttle(s *serialization.Sender) error {
	s.PutUint64(m.RequestID)
	s.PutBool(m.IsException)
	if m.IsException {
		exc := m.ExceptionValue
		if exc == nil {
			exc = &ServiceRequestException{Message: m.ExceptionMsg}
		}
		return s.PutValue(exc)
	}
	s.PutBytes(m.Payload)
	return nil
}

func (m *Response) Unshuttle(r *serialization.Receiver) error {
	var err error
	if m.RequestID, err = r.GetUint64(); err != nil {
		return err
	}
	if m.IsException, err = r.GetBool(); err != nil {
		return err
	}
	if m.IsException {
		v, err := r.GetValue()
		if err != nil {
			return err
		}
		exc, ok := v.(*ServiceRequestException)
		if !ok {
			return beamerr.ErrDecoder
		}
		m.ExceptionValue = exc
		m.ExceptionMsg = exc.Message
	} else {
		if m.Payload, err = r.GetBytes(); err != nil {
			return err
		}
	}
	return nil
}

// Exception reconstructs the service-level error a Response carried,
// or nil if the call succeeded. When ExceptionValue is set (the
// normal case for a Response that travelled the wire), the returned
// error keeps its full Nested chain; otherwise it falls back to a
// flat exception built from ExceptionMsg.
func (m *Response) Exception() error {
	if !m.IsException {
		return nil
	}
	if m.ExceptionValue != nil {
		return m.ExceptionValue.ToError()
	}
	return beamerr.NewServiceException(m.ExceptionMsg)
}

// Clone returns an independent copy, since a Response's exception
// branch must be safe to hand to one waiter while the protocol layer
// keeps processing further frames (spec §4.6 "Clone").
func (m *Response) Clone() serialization.Value {
	clone := *m
	clone.ExceptionValue = m.ExceptionValue.clone()
	return &clone
}

// RecordMessage is an unsolicited, fire-and-forget value a servlet can
// push to a client outside the request/response cycle — e.g. a
// subscription update (spec §4.6 "RecordMessage").
type RecordMessage struct {
	Record []byte
}

func (m *RecordMessage) TypeUID() string { return RecordUID }

func (m *RecordMessage) Shuttle(s *serialization.Sender) error {
	s.PutBytes(m.Record)
	return nil
}

func (m *RecordMessage) Unshuttle(r *serialization.Receiver) error {
	var err error
	m.Record, err = r.GetBytes()
	return err
}

// HeartbeatMessage is the keepalive probe a ServiceProtocolClient
// sends on a timer and expects echoed back; its absence for too long
// means the connection is dead (spec §4.7 "heartbeat").
type HeartbeatMessage struct{}

func (m *HeartbeatMessage) TypeUID() string { return HeartbeatUID }

func (m *HeartbeatMessage) Shuttle(s *serialization.Sender) error   { return nil }
func (m *HeartbeatMessage) Unshuttle(r *serialization.Receiver) error { return nil }

// RegisterAll registers every taxonomy member with registry, the setup
// every new connection performs before sending or receiving a single
// frame (spec §4.6 "registered per connection").
func RegisterAll(registry *serialization.TypeRegistry) {
	registry.Register(RequestUID, func() serialization.Value { return &Request{} })
	registry.Register(ResponseUID, func() serialization.Value { return &Response{} })
	registry.Register(RecordUID, func() serialization.Value { return &RecordMessage{} })
	registry.Register(HeartbeatUID, func() serialization.Value { return &HeartbeatMessage{} })
	registry.Register(ServiceRequestExceptionUID, func() serialization.Value { return &ServiceRequestException{} })
}
