package codec

import (
	"fmt"
	"math"

	"github.com/mesh-intelligence/slowcomb/pkg/types"
)

// RepeatedCombination orders the non-decreasing r-tuples of n positions
// lexicographically. Adding i to the i-th position turns them into the
// strictly increasing r-tuples of n+r-1 positions, so the work is delegated
// to a Combination. Len is C(n+r-1, r).
//
// Boundaries: r = 0 has exactly one (empty) term for any n, including 0.
// n = 0 with r > 0 has no terms.
type RepeatedCombination struct {
	n     int64
	r     int
	inner *Combination // nil when the codec is empty or r == 0
}

// NewRepeatedCombination returns the combination-with-repeats codec for (n, r).
func NewRepeatedCombination(n int64, r int) (*RepeatedCombination, error) {
	rc := &RepeatedCombination{n: n, r: r}
	if r == 0 || n == 0 {
		return rc, nil
	}
	if n > math.MaxInt64-int64(r) {
		return nil, types.ErrLengthOverflow
	}
	inner, err := NewCombination(n+int64(r)-1, r)
	if err != nil {
		return nil, err
	}
	rc.inner = inner
	return rc, nil
}

// Len returns C(n+r-1, r).
func (c *RepeatedCombination) Len() int64 {
	switch {
	case c.r == 0:
		return 1
	case c.n == 0:
		return 0
	default:
		return c.inner.Len()
	}
}

// Decode returns the non-decreasing positions of the term at rank.
func (c *RepeatedCombination) Decode(rank int64) ([]int64, error) {
	if err := checkRank(rank, c.Len()); err != nil {
		return nil, err
	}
	if c.inner == nil {
		return []int64{}, nil
	}
	shifted, err := c.inner.Decode(rank)
	if err != nil {
		return nil, err
	}
	for i := range shifted {
		shifted[i] -= int64(i)
	}
	return shifted, nil
}

// Encode shifts the non-decreasing positions apart and ranks them as a
// combination.
func (c *RepeatedCombination) Encode(positions []int64) (int64, error) {
	if err := checkWidth(positions, c.r); err != nil {
		return 0, err
	}
	if c.r == 0 {
		return 0, nil
	}
	shifted := make([]int64, len(positions))
	for i, p := range positions {
		if err := checkPosition(i, p, c.n); err != nil {
			return 0, err
		}
		if i > 0 && p < positions[i-1] {
			return 0, fmt.Errorf("%w: positions must not decrease, got %d after %d", types.ErrNotMember, p, positions[i-1])
		}
		shifted[i] = p + int64(i)
	}
	return c.inner.Encode(shifted)
}
