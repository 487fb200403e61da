package codec

import (
	"github.com/mesh-intelligence/slowcomb/internal/radix"
)

// RepeatedPermutation treats each of the r term slots as an independent
// choice among n positions. Ranks are base-n numbers, most significant digit
// first. Len is n^r, with 0^0 = 1.
type RepeatedPermutation struct {
	digits *radix.Number
}

// NewRepeatedPermutation returns the permutation-with-repeats codec for (n, r).
func NewRepeatedPermutation(n int64, r int) (*RepeatedPermutation, error) {
	digits, err := radix.Uniform(n, r)
	if err != nil {
		return nil, err
	}
	return &RepeatedPermutation{digits: digits}, nil
}

// Len returns n^r.
func (p *RepeatedPermutation) Len() int64 { return p.digits.Span() }

// Decode returns the base-n digits of rank.
func (p *RepeatedPermutation) Decode(rank int64) ([]int64, error) {
	if err := checkRank(rank, p.Len()); err != nil {
		return nil, err
	}
	return p.digits.Digits(rank)
}

// Encode composes the positions as base-n digits.
func (p *RepeatedPermutation) Encode(positions []int64) (int64, error) {
	if err := checkWidth(positions, p.digits.Len()); err != nil {
		return 0, err
	}
	return p.digits.Value(positions)
}
