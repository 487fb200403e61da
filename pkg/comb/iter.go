package comb

import (
	"fmt"
	"iter"

	"github.com/mesh-intelligence/slowcomb/pkg/types"
)

// Slice returns the terms at ranks start, start+step, ... up to but not
// including stop. A negative step walks down from start. Bounds are checked
// before any term is computed.
func (u *Unit) Slice(start, stop, step int64) ([]types.Term, error) {
	if step == 0 {
		return nil, types.ErrInvalidStep
	}
	n := u.Len()
	var count int64
	if step > 0 {
		if start < 0 || stop < start || stop > n {
			return nil, fmt.Errorf("%w: slice [%d:%d] of %d terms", types.ErrRankOutOfRange, start, stop, n)
		}
		if stop > start {
			count = (stop-start-1)/step + 1
		}
	} else {
		if stop < -1 || start < stop || start >= n {
			return nil, fmt.Errorf("%w: slice [%d:%d] of %d terms", types.ErrRankOutOfRange, start, stop, n)
		}
		if start > stop {
			// -(step+1) cannot overflow, even for math.MinInt64.
			mag := uint64(-(step + 1)) + 1
			count = int64((uint64(start-stop)-1)/mag + 1)
		}
	}

	out := make([]types.Term, 0, count)
	for i := int64(0); i < count; i++ {
		t, err := u.TermAt(start + i*step)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// Terms validates rs against the unit and returns an iterator over the terms
// it selects, computed lazily in rank order. An empty rs selects every term.
func (u *Unit) Terms(rs RangeSet) (iter.Seq2[types.Term, error], error) {
	if len(rs) == 0 {
		rs = Span(0, u.Len())
	}
	if err := rs.Validate(u.Len()); err != nil {
		return nil, fmt.Errorf("%s: %w", u.label(), err)
	}
	return func(yield func(types.Term, error) bool) {
		for rank := range rs.Ranks() {
			t, err := u.TermAt(rank)
			if !yield(t, err) || err != nil {
				return
			}
		}
	}, nil
}

// All returns an iterator over every term in rank order. Iteration stops
// after the first error.
func (u *Unit) All() iter.Seq2[types.Term, error] {
	seq, err := u.Terms(nil)
	if err != nil {
		return func(yield func(types.Term, error) bool) { yield(nil, err) }
	}
	return seq
}
