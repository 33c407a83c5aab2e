package message

import (
	"testing"

	"beam/serialization"
)

func testRegistry() *serialization.TypeRegistry {
	reg := serialization.NewTypeRegistry()
	RegisterAll(reg)
	return reg
}

func TestRequestRoundTrip(t *testing.T) {
	reg := testRegistry()
	sender := serialization.NewSender(reg)

	req := &Request{RequestID: 7, Method: "Arith.Add", Params: []byte(`{"a":1,"b":2}`)}
	out, err := sender.Send(req)
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	got, err := serialization.NewReceiver(reg, out.Data()).Receive()
	if err != nil {
		t.Fatalf("Receive failed: %v", err)
	}
	decoded, ok := got.(*Request)
	if !ok {
		t.Fatalf("Receive returned %T, want *Request", got)
	}
	if decoded.RequestID != req.RequestID || decoded.Method != req.Method || string(decoded.Params) != string(req.Params) {
		t.Errorf("round trip mismatch: got %+v, want %+v", decoded, req)
	}
}

func TestResponseExceptionRoundTrip(t *testing.T) {
	reg := testRegistry()
	sender := serialization.NewSender(reg)

	resp := &Response{RequestID: 7, IsException: true, ExceptionMsg: "Insufficient permissions."}
	out, err := sender.Send(resp)
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	got, err := serialization.NewReceiver(reg, out.Data()).Receive()
	if err != nil {
		t.Fatalf("Receive failed: %v", err)
	}
	decoded := got.(*Response)
	if decoded.Exception() == nil || decoded.Exception().Error() != "Insufficient permissions." {
		t.Errorf("exception did not round trip: %v", decoded.Exception())
	}
}

func TestResponseCloneIsIndependent(t *testing.T) {
	resp := &Response{RequestID: 1, Payload: []byte("a")}
	clone := resp.Clone().(*Response)
	clone.RequestID = 2
	if resp.RequestID != 1 {
		t.Errorf("mutating clone leaked into original: %+v", resp)
	}
}

func TestHeartbeatRoundTrip(t *testing.T) {
	reg := testRegistry()
	sender := serialization.NewSender(reg)

	out, err := sender.Send(&HeartbeatMessage{})
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	got, err := serialization.NewReceiver(reg, out.Data()).Receive()
	if err != nil {
		t.Fatalf("Receive failed: %v", err)
	}
	if _, ok := got.(*HeartbeatMessage); !ok {
		t.Fatalf("Receive returned %T, want *HeartbeatMessage", got)
	}
}

func TestRecordMessageRoundTrip(t *testing.T) {
	reg := testRegistry()
	sender := serialization.NewSender(reg)

	out, err := sender.Send(&RecordMessage{Record: []byte("entry update")})
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	got, err := serialization.NewReceiver(reg, out.Data()).Receive()
	if err != nil {
		t.Fatalf("Receive failed: %v", err)
	}
	record := got.(*RecordMessage)
	if string(record.Record) != "entry update" {
		t.Errorf("got %q, want %q", record.Record, "entry update")
	}
}
