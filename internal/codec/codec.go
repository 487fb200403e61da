package codec

import (
	"fmt"

	"github.com/mesh-intelligence/slowcomb/pkg/types"
)

// Codec maps ranks to term positions and back for one fixed (n, r).
type Codec interface {
	// Len returns the number of terms.
	Len() int64

	// Decode returns the source positions of the term at rank.
	// Returns an error wrapping ErrRankOutOfRange for ranks outside [0, Len()).
	Decode(rank int64) ([]int64, error)

	// Encode returns the rank of the term with the given positions.
	// Returns an error wrapping ErrDomain if no term has these positions.
	Encode(positions []int64) (int64, error)
}

// New returns the codec for a single-source family drawing r positions from
// n. CatCombination is built with NewProduct instead.
func New(family types.Family, n int64, r int) (Codec, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: negative source length %d", types.ErrInvalidSource, n)
	}
	if r < 0 {
		return nil, fmt.Errorf("%w: r=%d", types.ErrInvalidWidth, r)
	}
	switch family {
	case types.FamilyPermutation:
		return NewPermutation(n, r)
	case types.FamilyPermutationWithRepeats:
		return NewRepeatedPermutation(n, r)
	case types.FamilyCombination:
		return NewCombination(n, r)
	case types.FamilyCombinationWithRepeats:
		return NewRepeatedCombination(n, r)
	case types.FamilyCatCombination:
		return nil, fmt.Errorf("%w: %s needs per-source lengths", types.ErrInvalidSource, family)
	default:
		return nil, fmt.Errorf("%w: %q", types.ErrUnknownFamily, family)
	}
}

// checkRank validates rank against a codec length.
func checkRank(rank, length int64) error {
	if rank < 0 {
		return fmt.Errorf("%w: %d", types.ErrInvalidRank, rank)
	}
	if rank >= length {
		return fmt.Errorf("%w: %d not in [0, %d)", types.ErrRankOutOfRange, rank, length)
	}
	return nil
}

// checkWidth validates the number of positions handed to Encode.
func checkWidth(positions []int64, r int) error {
	if len(positions) != r {
		return fmt.Errorf("%w: got %d positions, want %d", types.ErrTermWidth, len(positions), r)
	}
	return nil
}

// checkPosition validates one position against the source length.
func checkPosition(i int, p, n int64) error {
	if p < 0 || p >= n {
		return fmt.Errorf("%w: position %d at term index %d not in [0, %d)", types.ErrNotMember, p, i, n)
	}
	return nil
}
