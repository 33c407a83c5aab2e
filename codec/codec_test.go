package codec

import (
	"context"
	"testing"

	"beam/buffer"
)

func roundTrip(t *testing.T, c Codec, payload []byte) []byte {
	t.Helper()
	ctx := context.Background()

	encoded := buffer.NewShared()
	if err := c.Encode(ctx, buffer.NewSharedFrom(payload), encoded); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	decoded := buffer.NewShared()
	if err := c.Decode(ctx, encoded, decoded); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	return decoded.Data()
}

func TestNullCodecRoundTrip(t *testing.T) {
	payload := []byte("pass-through payload")
	got := roundTrip(t, NewNullCodec(), payload)
	if string(got) != string(payload) {
		t.Errorf("got %q, want %q", got, payload)
	}
}

func TestZLibCodecRoundTrip(t *testing.T) {
	payload := []byte("the quick brown fox jumps over the lazy dog, repeated repeated repeated")
	got := roundTrip(t, NewZLibCodec(), payload)
	if string(got) != string(payload) {
		t.Errorf("got %q, want %q", got, payload)
	}
}

func TestSizeDeclarativeCodecRoundTrip(t *testing.T) {
	payload := []byte("nested payload")
	got := roundTrip(t, NewSizeDeclarativeCodec(NewNullCodec()), payload)
	if string(got) != string(payload) {
		t.Errorf("got %q, want %q", got, payload)
	}
}

func TestSizeDeclarativeCodecBigEndianPrefix(t *testing.T) {
	payload := []byte("nested payload")
	ctx := context.Background()
	encoded := buffer.NewShared()
	if err := NewSizeDeclarativeCodec(NewNullCodec()).Encode(ctx, buffer.NewSharedFrom(payload), encoded); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	header := encoded.Data()[:4]
	want := []byte{0, 0, 0, byte(len(payload))}
	for i := range want {
		if header[i] != want[i] {
			t.Fatalf("size prefix = % x, want big-endian % x (got little-endian order)", header, want)
		}
	}
}

func TestReverseCodecRoundTrip(t *testing.T) {
	payload := []byte("reverse me")
	got := roundTrip(t, NewReverseCodec(), payload)
	if string(got) != string(payload) {
		t.Errorf("got %q, want %q", got, payload)
	}
}

func TestGetCodecDefaultsToNull(t *testing.T) {
	c := GetCodec(CodecType(99))
	if c.Type() != CodecTypeNull {
		t.Errorf("unrecognized codec type should default to Null, got %v", c.Type())
	}
}
