package codec

import (
	"fmt"
	"sort"

	"github.com/mesh-intelligence/slowcomb/pkg/types"
)

// Combination orders the r-subsets of n positions lexicographically as
// strictly increasing tuples: rank 0 is 0, 1, ..., r-1 and the last rank is
// n-r, ..., n-1. Len is C(n, r).
//
// Unranking uses the combinatorial number system on the dual rank
// Len()-1-rank: its combinadic c1 > c2 > ... > cr maps to positions n-1-ci,
// which reverses colex order into lex order.
type Combination struct {
	n      int64
	r      int
	length int64
}

// NewCombination returns the combination codec for (n, r).
// Returns ErrInvalidWidth when r > n and ErrLengthOverflow when C(n, r) does
// not fit in an int64.
func NewCombination(n int64, r int) (*Combination, error) {
	if int64(r) > n {
		return nil, fmt.Errorf("%w: r=%d exceeds n=%d", types.ErrInvalidWidth, r, n)
	}
	length, ok := Binomial(n, int64(r))
	if !ok {
		return nil, types.ErrLengthOverflow
	}
	return &Combination{n: n, r: r, length: length}, nil
}

// Len returns C(n, r).
func (c *Combination) Len() int64 { return c.length }

// Decode returns the increasing positions of the term at rank.
func (c *Combination) Decode(rank int64) ([]int64, error) {
	if err := checkRank(rank, c.length); err != nil {
		return nil, err
	}
	dual := c.length - 1 - rank
	out := make([]int64, c.r)
	hi := c.n - 1
	for i := 0; i < c.r; i++ {
		k := int64(c.r - i)
		// Largest v in [k-1, hi] with C(v, k) <= dual.
		lo := k - 1
		span := int(hi - lo + 1)
		above := sort.Search(span, func(j int) bool {
			b, ok := Binomial(lo+int64(j), k)
			return !ok || b > dual
		})
		v := lo + int64(above) - 1
		b, _ := Binomial(v, k)
		dual -= b
		out[i] = c.n - 1 - v
		hi = v - 1
	}
	return out, nil
}

// Encode sums the binomial coefficients of the complemented positions.
// Positions must be strictly increasing.
func (c *Combination) Encode(positions []int64) (int64, error) {
	if err := checkWidth(positions, c.r); err != nil {
		return 0, err
	}
	var dual int64
	for i, p := range positions {
		if err := checkPosition(i, p, c.n); err != nil {
			return 0, err
		}
		if i > 0 && p <= positions[i-1] {
			return 0, fmt.Errorf("%w: positions must increase, got %d after %d", types.ErrNotMember, p, positions[i-1])
		}
		b, _ := Binomial(c.n-1-p, int64(c.r-i))
		dual += b
	}
	return c.length - 1 - dual, nil
}
