package comb

import (
	"fmt"
	"iter"
	"strconv"
	"strings"

	"github.com/mesh-intelligence/slowcomb/pkg/types"
)

// Range is the half-open rank interval [Start, Stop).
type Range struct {
	Start int64
	Stop  int64
}

// RangeSet is an ascending list of non-overlapping ranges.
type RangeSet []Range

// Span returns the set holding the single range [start, stop), or an empty
// set when stop <= start.
func Span(start, stop int64) RangeSet {
	if stop <= start {
		return nil
	}
	return RangeSet{{Start: start, Stop: stop}}
}

// ParseRanges parses comma-separated items, each either a single rank "a" or
// an inclusive interval "a-b". Items must be ascending and must not overlap;
// any violation rejects the whole text. Empty text yields an empty set.
func ParseRanges(text string) (RangeSet, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}
	var rs RangeSet
	for _, item := range strings.Split(text, ",") {
		item = strings.TrimSpace(item)
		lo, hi, isPair := strings.Cut(item, "-")
		start, err := parseRank(lo, item)
		if err != nil {
			return nil, err
		}
		last := start
		if isPair {
			if last, err = parseRank(hi, item); err != nil {
				return nil, err
			}
		}
		if last < start {
			return nil, fmt.Errorf("%w: %q runs backwards", types.ErrRangeOrder, item)
		}
		if last == 1<<63-1 {
			return nil, fmt.Errorf("%w: %q is too large", types.ErrRangeSyntax, item)
		}
		rs = append(rs, Range{Start: start, Stop: last + 1})
	}
	if err := rs.check(); err != nil {
		return nil, err
	}
	return rs, nil
}

func parseRank(s, item string) (int64, error) {
	s = strings.TrimSpace(s)
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil || v < 0 || strings.HasPrefix(s, "+") {
		return 0, fmt.Errorf("%w: %q", types.ErrRangeSyntax, item)
	}
	return v, nil
}

// check verifies ordering without regard to any unit length.
func (rs RangeSet) check() error {
	for i, r := range rs {
		if r.Start < 0 || r.Stop < r.Start {
			return fmt.Errorf("%w: %s", types.ErrRangeOrder, r)
		}
		if i == 0 {
			continue
		}
		prev := rs[i-1]
		if r.Start < prev.Stop && prev.Start < r.Stop {
			return fmt.Errorf("%w: %s and %s", types.ErrRangeOverlap, prev, r)
		}
		if r.Start < prev.Start {
			return fmt.Errorf("%w: %s after %s", types.ErrRangeOrder, r, prev)
		}
	}
	return nil
}

// Validate checks rs against a sequence of length terms: ranges must be
// ascending, disjoint and inside [0, length).
func (rs RangeSet) Validate(length int64) error {
	if err := rs.check(); err != nil {
		return err
	}
	for _, r := range rs {
		if r.Stop > length {
			return fmt.Errorf("%w: %s exceeds %d terms", types.ErrRankOutOfRange, r, length)
		}
	}
	return nil
}

// Ranks yields every rank in rs in order.
func (rs RangeSet) Ranks() iter.Seq[int64] {
	return func(yield func(int64) bool) {
		for _, r := range rs {
			for i := r.Start; i < r.Stop; i++ {
				if !yield(i) {
					return
				}
			}
		}
	}
}

// Count returns the number of ranks in rs.
func (rs RangeSet) Count() int64 {
	var n int64
	for _, r := range rs {
		n += r.Stop - r.Start
	}
	return n
}

// String formats rs in the text form ParseRanges accepts.
func (rs RangeSet) String() string {
	parts := make([]string, 0, len(rs))
	for _, r := range rs {
		parts = append(parts, r.String())
	}
	return strings.Join(parts, ",")
}

// String formats r as "a" or the inclusive "a-b". An empty range prints as
// its half-open bounds.
func (r Range) String() string {
	switch {
	case r.Stop == r.Start+1:
		return strconv.FormatInt(r.Start, 10)
	case r.Stop > r.Start:
		return fmt.Sprintf("%d-%d", r.Start, r.Stop-1)
	default:
		return fmt.Sprintf("[%d,%d)", r.Start, r.Stop)
	}
}
