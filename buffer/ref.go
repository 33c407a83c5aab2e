package buffer

// Ref and CRef are type-erased Buffer handles, used sparingly at package
// boundaries where a concrete Buffer implementation would otherwise leak
// across an API that must stay agnostic to which variant a caller
// chose (spec DESIGN NOTES: "type-erased boxes ... used sparingly").
// Go interfaces already erase the concrete type, so these add only one
// thing an interface alone can't: a read-only view (CRef) that a
// caller cannot widen back into a mutable Buffer by a type assertion.

// Ref is a mutable type-erased reference to some Buffer. It never
// copies the underlying storage; it just forwards.
type Ref struct {
	target Buffer
}

// NewRef erases target's concrete type behind a Ref.
func NewRef(target Buffer) Ref {
	return Ref{target: target}
}

func (r Ref) Len() int               { return r.target.Len() }
func (r Ref) Cap() int               { return r.target.Cap() }
func (r Ref) Data() []byte           { return r.target.Data() }
func (r Ref) MutableData() []byte    { return r.target.MutableData() }
func (r Ref) Grow(n int) []byte      { return r.target.Grow(n) }
func (r Ref) Shrink(n int)           { r.target.Shrink(n) }
func (r Ref) Append(src []byte) error { return r.target.Append(src) }
func (r Ref) Write(index int, src []byte) error {
	return r.target.Write(index, src)
}
func (r Ref) Reset() { r.target.Reset() }

// CRef is a read-only type-erased reference. It exposes only the
// accessors of Buffer — no Grow, Write, Shrink, Reset, or
// MutableData — so a function taking a CRef cannot mutate what it was
// given regardless of the concrete type underneath.
type CRef struct {
	target Buffer
}

// NewCRef erases target's concrete type behind a read-only CRef.
func NewCRef(target Buffer) CRef {
	return CRef{target: target}
}

func (r CRef) Len() int     { return r.target.Len() }
func (r CRef) Cap() int     { return r.target.Cap() }
func (r CRef) Data() []byte { return r.target.Data() }
