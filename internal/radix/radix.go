// Package radix implements mixed-radix numbers: fixed-length digit vectors in
// which each position has its own base, most significant digit first.
package radix

import (
	"fmt"
	"math"
	"math/bits"

	"github.com/mesh-intelligence/slowcomb/pkg/types"
)

// Number describes a mixed-radix numbering with one radix per digit.
// The zero value has no digits and a single representable value, 0.
type Number struct {
	radices []int64
	span    int64 // product of radices; count of representable values
}

// New returns a Number with the given per-digit radices. A radix of zero is
// allowed and makes the whole numbering empty (span 0). Returns
// ErrInvalidRadix for negative radices and ErrLengthOverflow when the span
// does not fit in an int64.
func New(radices []int64) (*Number, error) {
	span := int64(1)
	for i, r := range radices {
		if r < 0 {
			return nil, fmt.Errorf("%w: digit %d has radix %d", types.ErrInvalidRadix, i, r)
		}
		var ok bool
		span, ok = MulInt64(span, r)
		if !ok {
			return nil, types.ErrLengthOverflow
		}
	}
	rs := make([]int64, len(radices))
	copy(rs, radices)
	return &Number{radices: rs, span: span}, nil
}

// Uniform returns a Number of length digits all sharing one radix.
func Uniform(radix int64, length int) (*Number, error) {
	rs := make([]int64, length)
	for i := range rs {
		rs[i] = radix
	}
	return New(rs)
}

// Falling returns a Number whose radices count down from n: n, n-1, ...,
// n-length+1. This is the factorial number system truncated to length digits.
func Falling(n int64, length int) (*Number, error) {
	rs := make([]int64, length)
	for i := range rs {
		rs[i] = n - int64(i)
	}
	return New(rs)
}

// Len returns the number of digits.
func (n *Number) Len() int { return len(n.radices) }

// Span returns the count of representable values.
func (n *Number) Span() int64 { return n.span }

// Radix returns the radix of digit i.
func (n *Number) Radix(i int) int64 { return n.radices[i] }

// Digits decomposes v into digits, least significant digit last.
// Returns ErrRankOutOfRange if v is outside [0, Span()).
func (n *Number) Digits(v int64) ([]int64, error) {
	if v < 0 || v >= n.span {
		return nil, fmt.Errorf("%w: %d not in [0, %d)", types.ErrRankOutOfRange, v, n.span)
	}
	digits := make([]int64, len(n.radices))
	for i := len(n.radices) - 1; i >= 0 && v > 0; i-- {
		r := n.radices[i]
		digits[i] = v % r
		v /= r
	}
	return digits, nil
}

// Value composes digits back into an integer.
// Returns ErrTermWidth for a wrong digit count and ErrInvalidDigits for a
// digit outside [0, radix).
func (n *Number) Value(digits []int64) (int64, error) {
	if len(digits) != len(n.radices) {
		return 0, fmt.Errorf("%w: got %d digits, want %d", types.ErrTermWidth, len(digits), len(n.radices))
	}
	var v int64
	for i, d := range digits {
		r := n.radices[i]
		if d < 0 || d >= r {
			return 0, fmt.Errorf("%w: digit %d is %d, radix %d", types.ErrInvalidDigits, i, d, r)
		}
		// Cannot overflow: the result is below span, which fits.
		v = v*r + d
	}
	return v, nil
}

// MulInt64 multiplies two non-negative int64 values, reporting false on
// overflow.
func MulInt64(a, b int64) (int64, bool) {
	hi, lo := bits.Mul64(uint64(a), uint64(b))
	if hi != 0 || lo > math.MaxInt64 {
		return 0, false
	}
	return int64(lo), true
}
