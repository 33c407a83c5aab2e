package buffer

import "testing"

func variants() map[string]func() Buffer {
	return map[string]func() Buffer{
		"Shared": func() Buffer { return NewShared() },
		"Static": func() Buffer { return NewStatic(64) },
		"Span":   func() Buffer { return NewSpan(make([]byte, 0, 64)) },
	}
}

func TestBufferDataNilOnlyWhenEmpty(t *testing.T) {
	for name, make := range variants() {
		b := make()
		if data := b.Data(); data != nil {
			t.Errorf("%s: new buffer should have nil Data, got %v", name, data)
		}
		if err := b.Append([]byte("x")); err != nil {
			t.Fatalf("%s: Append failed: %v", name, err)
		}
		if data := b.Data(); data == nil {
			t.Errorf("%s: non-empty buffer returned nil Data", name)
		}
	}
}

func TestBufferAppendRoundTrip(t *testing.T) {
	for name, make := range variants() {
		b := make()
		want := []byte("the quick brown fox")
		if err := b.Append(want); err != nil {
			t.Fatalf("%s: Append failed: %v", name, err)
		}
		if got := string(b.Data()); got != string(want) {
			t.Errorf("%s: round trip mismatch: got %q, want %q", name, got, want)
		}
		if b.Len() != len(want) {
			t.Errorf("%s: Len() = %d, want %d", name, b.Len(), len(want))
		}
	}
}

func TestBufferAppendEqualsWriteAtSize(t *testing.T) {
	for name, make := range variants() {
		a := make()
		b := make()
		chunks := [][]byte{[]byte("abc"), []byte("defgh"), []byte("i")}
		for _, c := range chunks {
			if err := a.Append(c); err != nil {
				t.Fatalf("%s: Append failed: %v", name, err)
			}
			if err := b.Write(b.Len(), c); err != nil {
				t.Fatalf("%s: Write failed: %v", name, err)
			}
		}
		if string(a.Data()) != string(b.Data()) {
			t.Errorf("%s: Append diverged from Write(size, ...): %q vs %q", name, a.Data(), b.Data())
		}
	}
}

func TestBufferShrinkClampsAtZero(t *testing.T) {
	for name, make := range variants() {
		b := make()
		_ = b.Append([]byte("abc"))
		b.Shrink(100)
		if b.Len() != 0 {
			t.Errorf("%s: Shrink past size should clamp to 0, got %d", name, b.Len())
		}
	}
}

func TestBufferWriteBeyondSizeFails(t *testing.T) {
	for name, make := range variants() {
		b := make()
		_ = b.Append([]byte("ab"))
		if err := b.Write(10, []byte("x")); err == nil {
			t.Errorf("%s: Write at index beyond size should fail", name)
		}
	}
}

func TestSharedCloneIsCopyOnWrite(t *testing.T) {
	base := NewSharedFrom([]byte("hello"))
	clone := base.Clone()

	if string(clone.Data()) != "hello" {
		t.Fatalf("clone should see base's data, got %q", clone.Data())
	}

	dst := clone.MutableData()
	dst[0] = 'H'

	if string(base.Data()) != "hello" {
		t.Errorf("mutating clone leaked into base: %q", base.Data())
	}
	if string(clone.Data()) != "Hello" {
		t.Errorf("clone mutation did not apply: %q", clone.Data())
	}
}

func TestStaticGrowClampsToCapacity(t *testing.T) {
	b := NewStatic(4)
	acquired := b.Grow(10)
	if len(acquired) != 4 {
		t.Errorf("Static.Grow should clamp to remaining capacity, got %d bytes", len(acquired))
	}
	if err := b.Write(b.Len(), []byte("x")); err == nil {
		t.Errorf("write past fixed capacity should fail")
	}
}

func TestSuffixForwardsToBase(t *testing.T) {
	base := NewSharedFrom([]byte("0123456789"))
	suffix := NewSuffix(base, 4)

	if string(suffix.Data()) != "456789" {
		t.Fatalf("suffix Data() = %q, want %q", suffix.Data(), "456789")
	}
	if err := suffix.Write(0, []byte("X")); err != nil {
		t.Fatalf("suffix Write failed: %v", err)
	}
	if string(base.Data()) != "0123X56789" {
		t.Errorf("suffix write did not translate through to base: %q", base.Data())
	}
}

func TestRefAndCRefErase(t *testing.T) {
	base := NewSharedFrom([]byte("abc"))
	ref := NewRef(base)
	if err := ref.Append([]byte("d")); err != nil {
		t.Fatalf("Ref.Append failed: %v", err)
	}
	cref := NewCRef(base)
	if string(cref.Data()) != "abcd" {
		t.Errorf("CRef.Data() = %q, want %q", cref.Data(), "abcd")
	}
}
