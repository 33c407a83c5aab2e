package buffer

// Suffix is a windowed alias onto a base Buffer, starting at a fixed
// offset into the base (spec §4.1 "Suffix"). Every operation translates
// its index by the offset and forwards to the base, so mutations
// through a Suffix are visible through the base and vice versa — it
// never owns storage, only a viewpoint onto someone else's.
type Suffix struct {
	base   Buffer
	offset int
}

// NewSuffix returns a Buffer view of base starting at offset. offset
// must be <= base.Len(); a larger offset yields a permanently-empty
// window since there is nothing past the base's current size to view.
func NewSuffix(base Buffer, offset int) *Suffix {
	if offset > base.Len() {
		offset = base.Len()
	}
	return &Suffix{base: base, offset: offset}
}

func (b *Suffix) Len() int {
	n := b.base.Len() - b.offset
	if n < 0 {
		return 0
	}
	return n
}

func (b *Suffix) Cap() int {
	c := b.base.Cap() - b.offset
	if c < 0 {
		return 0
	}
	return c
}

func (b *Suffix) Data() []byte {
	data := b.base.Data()
	if b.offset >= len(data) {
		return nil
	}
	return data[b.offset:]
}

func (b *Suffix) MutableData() []byte {
	data := b.base.MutableData()
	if b.offset >= len(data) {
		return nil
	}
	return data[b.offset:]
}

func (b *Suffix) Grow(n int) []byte {
	return b.base.Grow(n)
}

func (b *Suffix) Shrink(n int) {
	b.base.Shrink(n)
}

func (b *Suffix) Append(src []byte) error {
	return b.base.Append(src)
}

func (b *Suffix) Write(index int, src []byte) error {
	return b.base.Write(b.offset+index, src)
}

func (b *Suffix) Reset() {
	b.offset = b.base.Len()
}
