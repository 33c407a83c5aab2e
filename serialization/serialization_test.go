package serialization

import "testing"

type sampleRecord struct {
	Name  string
	Count uint32
}

func (s *sampleRecord) TypeUID() string { return "test.SampleRecord" }

func (s *sampleRecord) Shuttle(sender *Sender) error {
	sender.PutString(s.Name)
	sender.PutUint32(s.Count)
	return nil
}

func (s *sampleRecord) Unshuttle(r *Receiver) error {
	name, err := r.GetString()
	if err != nil {
		return err
	}
	count, err := r.GetUint32()
	if err != nil {
		return err
	}
	s.Name = name
	s.Count = count
	return nil
}

func (s *sampleRecord) Clone() Value {
	clone := *s
	return &clone
}

func newTestRegistry() *TypeRegistry {
	reg := NewTypeRegistry()
	reg.Register("test.SampleRecord", func() Value { return &sampleRecord{} })
	return reg
}

func TestSendReceiveRoundTrip(t *testing.T) {
	reg := newTestRegistry()
	sender := NewSender(reg)

	original := &sampleRecord{Name: "widgets", Count: 42}
	out, err := sender.Send(original)
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	receiver := NewReceiver(reg, out.Data())
	got, err := receiver.Receive()
	if err != nil {
		t.Fatalf("Receive failed: %v", err)
	}

	record, ok := got.(*sampleRecord)
	if !ok {
		t.Fatalf("Receive returned %T, want *sampleRecord", got)
	}
	if record.Name != original.Name || record.Count != original.Count {
		t.Errorf("round trip mismatch: got %+v, want %+v", record, original)
	}
}

func TestSendUnregisteredTypeFails(t *testing.T) {
	reg := NewTypeRegistry()
	sender := NewSender(reg)
	if _, err := sender.Send(&sampleRecord{}); err == nil {
		t.Fatal("expected Send of unregistered type to fail")
	}
}

func TestReceiveUnknownTagFails(t *testing.T) {
	reg := newTestRegistry()
	receiver := NewReceiver(reg, []byte{0xFF, 0xFF})
	if _, err := receiver.Receive(); err == nil {
		t.Fatal("expected Receive of unknown tag to fail")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	original := &sampleRecord{Name: "a", Count: 1}
	clone := original.Clone().(*sampleRecord)
	clone.Count = 2
	if original.Count != 1 {
		t.Errorf("mutating clone leaked into original: %+v", original)
	}
}
