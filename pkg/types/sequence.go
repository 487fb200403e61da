package types

import "reflect"

// Sequence is an ordered, integer-addressable, finite collection. Terminal
// sources and combinatorial units both implement it, which is what lets one
// unit act as the source of another.
type Sequence interface {
	// Len returns the number of elements. It never changes after
	// construction.
	Len() int64

	// At returns the element at position i, 0 <= i < Len().
	// Returns an error wrapping ErrRankOutOfRange otherwise.
	At(i int64) (any, error)
}

// Indexer is implemented by sequences that can map an element back to its
// position.
type Indexer interface {
	// Index returns the first position >= from whose element equals x.
	// Returns an error wrapping ErrNotMember if there is none.
	Index(x any, from int64) (int64, error)
}

// IndexSupporter refines the Indexer capability for sequences whose reverse
// lookup depends on other sequences, such as units built on sources that may
// not be indexable.
type IndexSupporter interface {
	SupportsIndex() bool
}

// Widther is implemented by sequences whose elements are terms that splice
// into a concatenated term.
type Widther interface {
	Width() int
}

// Unwrapper is implemented by decorators such as caches so capability
// queries can see the sequence underneath.
type Unwrapper interface {
	Unwrap() Sequence
}

// SupportsIndex reports whether reverse lookup is available on s. It never
// triggers a lookup.
func SupportsIndex(s Sequence) bool {
	if sup, ok := s.(IndexSupporter); ok {
		return sup.SupportsIndex()
	}
	_, ok := s.(Indexer)
	return ok
}

// WidthOf returns how many elements one element of s occupies when spliced
// into a concatenated term, and whether it is spliced at all. Elements of
// sequences without a Width are placed whole, occupying one slot.
func WidthOf(s Sequence) (int, bool) {
	for {
		if w, ok := s.(Widther); ok {
			return w.Width(), true
		}
		u, ok := s.(Unwrapper)
		if !ok {
			return 1, false
		}
		s = u.Unwrap()
	}
}

// Term is one ordered tuple produced by a combinatorial unit. Elements are
// source elements, or Terms when the source is itself a unit.
type Term []any

// Clone returns a copy of t that shares no Term storage with it. Nested Terms
// are copied too; other elements are copied by value.
func (t Term) Clone() Term {
	if t == nil {
		return nil
	}
	out := make(Term, len(t))
	for i, x := range t {
		if inner, ok := x.(Term); ok {
			x = inner.Clone()
		}
		out[i] = x
	}
	return out
}

// Equal reports whether t and o hold equal elements in the same order.
func (t Term) Equal(o Term) bool {
	if len(t) != len(o) {
		return false
	}
	for i := range t {
		if !ElementsEqual(t[i], o[i]) {
			return false
		}
	}
	return true
}

// ElementsEqual compares two source elements. Terms and plain []any slices
// compare element-wise so a decoded JSON array matches a Term; everything
// else falls back to reflect.DeepEqual.
func ElementsEqual(a, b any) bool {
	ta, aok := asTerm(a)
	tb, bok := asTerm(b)
	if aok && bok {
		return ta.Equal(tb)
	}
	if aok != bok {
		return false
	}
	return reflect.DeepEqual(a, b)
}

// AsTerm converts x to a Term when it is a Term or an []any.
func AsTerm(x any) (Term, bool) {
	return asTerm(x)
}

func asTerm(x any) (Term, bool) {
	switch v := x.(type) {
	case Term:
		return v, true
	case []any:
		return Term(v), true
	default:
		return nil, false
	}
}
