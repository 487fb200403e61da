package comb

import (
	"fmt"

	"github.com/mesh-intelligence/slowcomb/pkg/types"
)

// Items is a terminal source over a fixed list of elements. It supports
// reverse lookup by element equality.
type Items []any

// Letters returns an Items source with one string element per rune of s.
func Letters(s string) Items {
	out := make(Items, 0, len(s))
	for _, c := range s {
		out = append(out, string(c))
	}
	return out
}

// Len implements types.Sequence.
func (it Items) Len() int64 { return int64(len(it)) }

// At implements types.Sequence.
func (it Items) At(i int64) (any, error) {
	if i < 0 || i >= int64(len(it)) {
		return nil, fmt.Errorf("%w: %d not in [0, %d)", types.ErrRankOutOfRange, i, len(it))
	}
	return it[i], nil
}

// Index implements types.Indexer.
func (it Items) Index(x any, from int64) (int64, error) {
	if from < 0 {
		from = 0
	}
	for i := from; i < int64(len(it)); i++ {
		if types.ElementsEqual(it[i], x) {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: %v", types.ErrNotMember, x)
}

// Term returns the items as a term, convenient when looking up a rank.
func (it Items) Term() types.Term { return types.Term(it) }

// Func is a terminal source whose elements are computed on demand. It does
// not support reverse lookup, so units built on it report SupportsIndex
// false.
type Func struct {
	n  int64
	fn func(i int64) (any, error)
}

// NewFunc returns a source of n elements computed by fn.
func NewFunc(n int64, fn func(i int64) (any, error)) (*Func, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: negative length %d", types.ErrInvalidSource, n)
	}
	if fn == nil {
		return nil, fmt.Errorf("%w: nil element function", types.ErrInvalidSource)
	}
	return &Func{n: n, fn: fn}, nil
}

// Len implements types.Sequence.
func (f *Func) Len() int64 { return f.n }

// At implements types.Sequence.
func (f *Func) At(i int64) (any, error) {
	if i < 0 || i >= f.n {
		return nil, fmt.Errorf("%w: %d not in [0, %d)", types.ErrRankOutOfRange, i, f.n)
	}
	return f.fn(i)
}
