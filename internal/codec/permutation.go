package codec

import (
	"fmt"
	"slices"

	"github.com/mesh-intelligence/slowcomb/internal/radix"
	"github.com/mesh-intelligence/slowcomb/pkg/types"
)

// Permutation orders the partial permutations of r positions out of n so that
// the rightmost positions change fastest. Rank 0 is 0, 1, ..., r-1 and the
// last rank is n-1, n-2, ..., n-r. Len is n!/(n-r)!.
type Permutation struct {
	n      int64
	r      int
	places *radix.Number // radices n, n-1, ..., n-r+1
}

// NewPermutation returns the permutation codec for (n, r).
// Returns ErrInvalidWidth when r > n.
func NewPermutation(n int64, r int) (*Permutation, error) {
	if int64(r) > n {
		return nil, fmt.Errorf("%w: r=%d exceeds n=%d", types.ErrInvalidWidth, r, n)
	}
	places, err := radix.Falling(n, r)
	if err != nil {
		return nil, err
	}
	return &Permutation{n: n, r: r, places: places}, nil
}

// Len returns n!/(n-r)!.
func (p *Permutation) Len() int64 { return p.places.Span() }

// Decode splits rank into factoradic digits; each digit picks and removes one
// position from the pool of positions not yet used.
func (p *Permutation) Decode(rank int64) ([]int64, error) {
	if err := checkRank(rank, p.Len()); err != nil {
		return nil, err
	}
	digits, err := p.places.Digits(rank)
	if err != nil {
		return nil, err
	}
	// used stays sorted; the d-th unused position is d shifted past every
	// used position at or below it.
	used := make([]int64, 0, p.r)
	out := make([]int64, p.r)
	for i, d := range digits {
		pos := d
		at := 0
		for ; at < len(used) && used[at] <= pos; at++ {
			pos++
		}
		used = slices.Insert(used, at, pos)
		out[i] = pos
	}
	return out, nil
}

// Encode turns each position into the count of still-unused positions below
// it, then recomposes the factoradic digits.
func (p *Permutation) Encode(positions []int64) (int64, error) {
	if err := checkWidth(positions, p.r); err != nil {
		return 0, err
	}
	digits := make([]int64, p.r)
	for i, pos := range positions {
		if err := checkPosition(i, pos, p.n); err != nil {
			return 0, err
		}
		d := pos
		for _, prev := range positions[:i] {
			if prev == pos {
				return 0, fmt.Errorf("%w: position %d repeats", types.ErrNotMember, pos)
			}
			if prev < pos {
				d--
			}
		}
		digits[i] = d
	}
	return p.places.Value(digits)
}
