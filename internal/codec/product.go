package codec

import (
	"github.com/mesh-intelligence/slowcomb/internal/radix"
)

// Product addresses one pick from each of several sources. The rank is a
// mixed-radix number whose radices are the source lengths, first source most
// significant, so the last source varies fastest. Len is the product of the
// lengths.
type Product struct {
	digits *radix.Number
}

// NewProduct returns the codec for sources of the given lengths.
func NewProduct(lengths []int64) (*Product, error) {
	digits, err := radix.New(lengths)
	if err != nil {
		return nil, err
	}
	return &Product{digits: digits}, nil
}

// Len returns the product of the source lengths.
func (p *Product) Len() int64 { return p.digits.Span() }

// Decode returns one position per source.
func (p *Product) Decode(rank int64) ([]int64, error) {
	if err := checkRank(rank, p.Len()); err != nil {
		return nil, err
	}
	return p.digits.Digits(rank)
}

// Encode composes per-source positions into a rank.
func (p *Product) Encode(positions []int64) (int64, error) {
	return p.digits.Value(positions)
}
