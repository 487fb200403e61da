package comb

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/slowcomb/pkg/types"
)

func term(s string) types.Term { return Letters(s).Term() }

func terms(ss ...string) []types.Term {
	out := make([]types.Term, len(ss))
	for i, s := range ss {
		out[i] = term(s)
	}
	return out
}

func TestPermutationABCD(t *testing.T) {
	u, err := NewPermutation(Letters("ABCD"), 4)
	require.NoError(t, err)

	assert.Equal(t, int64(24), u.Len())
	assert.Equal(t, 4, u.Width())
	assert.Equal(t, 1, u.Depth())
	assert.True(t, u.SupportsIndex())

	first, err := u.TermAt(0)
	require.NoError(t, err)
	assert.Equal(t, term("ABCD"), first)

	got, err := u.TermAt(11)
	require.NoError(t, err)
	assert.Equal(t, term("BDCA"), got)

	last, err := u.TermAt(23)
	require.NoError(t, err)
	assert.Equal(t, term("DCBA"), last)

	rank, err := u.RankOf(term("DCBA"))
	require.NoError(t, err)
	assert.Equal(t, int64(23), rank)
}

func TestFirstAndLastTerms(t *testing.T) {
	src := Letters("ABCD")
	tests := []struct {
		name        string
		family      types.Family
		r           int
		length      int64
		first, last string
	}{
		{"permutation r=2", types.FamilyPermutation, 2, 12, "AB", "DC"},
		{"permutation with repeats", types.FamilyPermutationWithRepeats, 2, 16, "AA", "DD"},
		{"combination", types.FamilyCombination, 2, 6, "AB", "CD"},
		{"combination with repeats", types.FamilyCombinationWithRepeats, 2, 10, "AA", "DD"},
		{"combination r=4", types.FamilyCombination, 4, 1, "ABCD", "ABCD"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := New(tt.family, tt.r, []types.Sequence{src})
			require.NoError(t, err)
			require.Equal(t, tt.length, u.Len())

			first, err := u.TermAt(0)
			require.NoError(t, err)
			assert.Equal(t, term(tt.first), first)

			last, err := u.TermAt(u.Len() - 1)
			require.NoError(t, err)
			assert.Equal(t, term(tt.last), last)
		})
	}
}

// TestRoundTrip checks that RankOf inverts TermAt over every family for
// small sources, and that the enumerated terms are pairwise distinct.
func TestRoundTrip(t *testing.T) {
	families := []types.Family{
		types.FamilyPermutation,
		types.FamilyPermutationWithRepeats,
		types.FamilyCombination,
		types.FamilyCombinationWithRepeats,
	}
	for _, f := range families {
		for n := 0; n <= 5; n++ {
			for r := 0; r <= 4; r++ {
				if !f.Repeats() && r > n {
					continue
				}
				t.Run(fmt.Sprintf("%s/n=%d/r=%d", f, n, r), func(t *testing.T) {
					u, err := New(f, r, []types.Sequence{Letters("ABCDE"[:n])})
					require.NoError(t, err)

					seen := map[string]bool{}
					for rank := int64(0); rank < u.Len(); rank++ {
						tm, err := u.TermAt(rank)
						require.NoError(t, err)
						key := Compact(tm)
						assert.False(t, seen[key], "duplicate term %s", key)
						seen[key] = true

						back, err := u.RankOf(tm)
						require.NoError(t, err)
						assert.Equal(t, rank, back)
					}
				})
			}
		}
	}
}

func TestBoundaries(t *testing.T) {
	empty := Items{}
	tests := []struct {
		name   string
		family types.Family
		src    Items
		r      int
		length int64
	}{
		{"permutation r=0", types.FamilyPermutation, Letters("ABC"), 0, 1},
		{"combination r=0", types.FamilyCombination, Letters("ABC"), 0, 1},
		{"permutation n=0 r=0", types.FamilyPermutation, empty, 0, 1},
		{"repeats n=0 r=0", types.FamilyPermutationWithRepeats, empty, 0, 1},
		{"repeats n=0 r=2", types.FamilyPermutationWithRepeats, empty, 2, 0},
		{"multiset n=0 r=0", types.FamilyCombinationWithRepeats, empty, 0, 1},
		{"multiset n=0 r=3", types.FamilyCombinationWithRepeats, empty, 3, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := New(tt.family, tt.r, []types.Sequence{tt.src})
			require.NoError(t, err)
			assert.Equal(t, tt.length, u.Len())

			if tt.length == 0 {
				_, err := u.TermAt(0)
				assert.ErrorIs(t, err, types.ErrRankOutOfRange)
				return
			}
			tm, err := u.TermAt(0)
			require.NoError(t, err)
			assert.Empty(t, tm)
		})
	}
}

func TestConstructionErrors(t *testing.T) {
	src := Letters("ABC")
	tests := []struct {
		name   string
		family types.Family
		r      int
		srcs   []types.Sequence
		want   error
	}{
		{"unknown family", types.Family("shuffle"), 1, []types.Sequence{src}, types.ErrUnknownFamily},
		{"negative r", types.FamilyPermutation, -1, []types.Sequence{src}, types.ErrInvalidWidth},
		{"r exceeds n", types.FamilyPermutation, 4, []types.Sequence{src}, types.ErrInvalidWidth},
		{"combination r exceeds n", types.FamilyCombination, 4, []types.Sequence{src}, types.ErrInvalidWidth},
		{"no sources", types.FamilyCombination, 1, nil, types.ErrNoSources},
		{"two sources", types.FamilyCombination, 1, []types.Sequence{src, src}, types.ErrTooManySources},
		{"nil source", types.FamilyCombination, 1, []types.Sequence{nil}, types.ErrInvalidSource},
		{"cat r too large", types.FamilyCatCombination, 3, []types.Sequence{src, src}, types.ErrInvalidWidth},
		{"cat r zero", types.FamilyCatCombination, 0, []types.Sequence{src}, types.ErrInvalidWidth},
		{"overflow", types.FamilyPermutationWithRepeats, 40, []types.Sequence{Letters("ABCDEFGHIJ")}, types.ErrLengthOverflow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.family, tt.r, tt.srcs)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, types.ErrConfiguration)
		})
	}
}

func TestDomainErrors(t *testing.T) {
	u, err := NewCombination(Letters("ABCD"), 2)
	require.NoError(t, err)

	_, err = u.TermAt(6)
	assert.ErrorIs(t, err, types.ErrRankOutOfRange)
	assert.ErrorIs(t, err, types.ErrDomain)

	_, err = u.TermAt(-1)
	assert.ErrorIs(t, err, types.ErrInvalidRank)

	_, err = u.RankOf(term("ABC"))
	assert.ErrorIs(t, err, types.ErrTermWidth)

	_, err = u.RankOf(term("BA"))
	assert.ErrorIs(t, err, types.ErrNotMember)

	_, err = u.RankOf(term("AZ"))
	assert.ErrorIs(t, err, types.ErrNotMember)
	assert.ErrorIs(t, err, types.ErrDomain)
}

func TestDuplicateElements(t *testing.T) {
	u, err := NewPermutation(Letters("AAB"), 2)
	require.NoError(t, err)

	got, err := u.Slice(0, u.Len(), 1)
	require.NoError(t, err)
	assert.Equal(t, terms("AA", "AB", "AA", "AB", "BA", "BA"), got)

	rank, err := u.RankOf(term("AB"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), rank)

	rank, err = u.RankOf(term("BA"))
	require.NoError(t, err)
	assert.Equal(t, int64(4), rank)

	c, err := NewCombination(Letters("ABA"), 2)
	require.NoError(t, err)
	rank, err = c.RankOf(term("AA"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), rank)
}

func TestDuplicateTermsInUnitSource(t *testing.T) {
	// Both terms of singles are [A].
	singles, err := NewPermutation(Items{"A", "A"}, 1)
	require.NoError(t, err)

	rank, err := singles.Index(term("A"), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rank)
	_, err = singles.Index(term("A"), 2)
	assert.ErrorIs(t, err, types.ErrNotMember)

	for _, family := range []types.Family{types.FamilyCombination, types.FamilyPermutation} {
		t.Run(string(family), func(t *testing.T) {
			u, err := New(family, 2, []types.Sequence{singles})
			require.NoError(t, err)
			require.True(t, u.SupportsIndex())
			for r := range u.Len() {
				tm, err := u.TermAt(r)
				require.NoError(t, err)
				assert.Equal(t, types.Term{term("A"), term("A")}, tm)
				rank, err := u.RankOf(tm)
				require.NoError(t, err)
				assert.Equal(t, int64(0), rank, "smallest rank producing the term")
			}
		})
	}
}

func TestCompoundUnit(t *testing.T) {
	pairs, err := NewCombination(Letters("ABCD"), 2, WithName("pairs"))
	require.NoError(t, err)
	u, err := NewPermutation(pairs, 2, WithName("ordered pairs"))
	require.NoError(t, err)

	assert.Equal(t, int64(6*5), u.Len())
	assert.Equal(t, 2, u.Width())
	assert.Equal(t, 2, u.Depth())
	assert.True(t, u.SupportsIndex())

	first, err := u.TermAt(0)
	require.NoError(t, err)
	assert.Equal(t, types.Term{term("AB"), term("AC")}, first)

	last, err := u.TermAt(29)
	require.NoError(t, err)
	assert.Equal(t, types.Term{term("CD"), term("BD")}, last)

	for rank := int64(0); rank < u.Len(); rank++ {
		tm, err := u.TermAt(rank)
		require.NoError(t, err)
		back, err := u.RankOf(tm)
		require.NoError(t, err)
		assert.Equal(t, rank, back)
	}

	// Nested terms decoded from JSON arrive as []any.
	rank, err := u.RankOf(types.Term{[]any{"C", "D"}, []any{"B", "D"}})
	require.NoError(t, err)
	assert.Equal(t, int64(29), rank)

	_, err = u.RankOf(types.Term{"C", term("BD")})
	assert.ErrorIs(t, err, types.ErrNotMember)
}

func TestCatCombination(t *testing.T) {
	u, err := NewCatCombination([]types.Sequence{Letters("ABC"), Letters("wxyz")})
	require.NoError(t, err)

	assert.Equal(t, int64(12), u.Len())
	assert.Equal(t, 2, u.Width())

	got, err := u.TermAt(5)
	require.NoError(t, err)
	assert.Equal(t, term("Bx"), got)

	rank, err := u.RankOf(term("Cz"))
	require.NoError(t, err)
	assert.Equal(t, int64(11), rank)
}

func TestCatCombinationSplicesUnits(t *testing.T) {
	pairs, err := NewCombination(Letters("ABC"), 2)
	require.NoError(t, err)
	digits := Items{1, 2}

	u, err := New(types.FamilyCatCombination, 2, []types.Sequence{pairs, digits, Letters("xyz")})
	require.NoError(t, err)

	assert.Equal(t, int64(6), u.Len())
	assert.Equal(t, 3, u.Width())
	assert.Equal(t, 2, u.Depth())
	assert.Len(t, u.Sources(), 2)

	got, err := u.TermAt(3)
	require.NoError(t, err)
	assert.Equal(t, types.Term{"A", "C", 2}, got)

	rank, err := u.RankOf(types.Term{"B", "C", 1})
	require.NoError(t, err)
	assert.Equal(t, int64(4), rank)
}

func TestCapabilityFlag(t *testing.T) {
	fn, err := NewFunc(4, func(i int64) (any, error) { return i * i, nil })
	require.NoError(t, err)

	u, err := NewPermutation(fn, 2)
	require.NoError(t, err)
	assert.False(t, u.SupportsIndex())

	tm, err := u.TermAt(1)
	require.NoError(t, err)
	assert.Equal(t, types.Term{int64(0), int64(4)}, tm)

	_, err = u.RankOf(tm)
	assert.ErrorIs(t, err, types.ErrIndexUnsupported)
	assert.ErrorIs(t, err, types.ErrCapability)
	assert.NotErrorIs(t, err, types.ErrDomain)

	// The capability is transitive through compound and concatenated units.
	outer, err := NewCombination(u, 2)
	require.NoError(t, err)
	assert.False(t, outer.SupportsIndex())

	cat, err := NewCatCombination([]types.Sequence{Letters("AB"), fn})
	require.NoError(t, err)
	assert.False(t, cat.SupportsIndex())
	_, err = cat.RankOf(types.Term{"A", int64(0)})
	assert.ErrorIs(t, err, types.ErrIndexUnsupported)
}

func TestMaxDepth(t *testing.T) {
	var src types.Sequence = Letters("A")
	for i := 0; i < MaxDepth; i++ {
		u, err := NewPermutation(src, 1)
		require.NoError(t, err)
		src = u
	}
	assert.Equal(t, MaxDepth, src.(*Unit).Depth())

	_, err := NewPermutation(src, 1)
	assert.ErrorIs(t, err, types.ErrDepthExceeded)
	assert.ErrorIs(t, err, types.ErrRecursion)
}

func TestLargeUnit(t *testing.T) {
	src, err := NewFunc(1<<20, func(i int64) (any, error) { return i, nil })
	require.NoError(t, err)
	u, err := NewCombination(src, 3)
	require.NoError(t, err)

	n := int64(1 << 20)
	assert.Equal(t, n*(n-1)*(n-2)/6, u.Len())

	last, err := u.TermAt(u.Len() - 1)
	require.NoError(t, err)
	assert.Equal(t, types.Term{n - 3, n - 2, n - 1}, last)
}

func TestSlice(t *testing.T) {
	u, err := NewPermutation(Letters("ABCD"), 4)
	require.NoError(t, err)

	got, err := u.Slice(5, 9, 1)
	require.NoError(t, err)
	require.Len(t, got, 4)
	for i, tm := range got {
		want, err := u.TermAt(int64(5 + i))
		require.NoError(t, err)
		assert.Equal(t, want, tm)
	}

	tests := []struct {
		name              string
		start, stop, step int64
		ranks             []int64
		want              error
	}{
		{"step two", 0, 7, 2, []int64{0, 2, 4, 6}, nil},
		{"empty", 3, 3, 1, nil, nil},
		{"backwards", 9, 5, -1, []int64{9, 8, 7, 6}, nil},
		{"backwards to start", 2, -1, -2, []int64{2, 0}, nil},
		{"zero step", 0, 4, 0, nil, types.ErrInvalidStep},
		{"stop past end", 20, 25, 1, nil, types.ErrRankOutOfRange},
		{"negative start", -1, 2, 1, nil, types.ErrRankOutOfRange},
		{"start past end backwards", 24, 0, -1, nil, types.ErrRankOutOfRange},
		{"huge step", 0, 10, math.MaxInt64 - 5, []int64{0}, nil},
		{"max step", 3, 10, math.MaxInt64, []int64{3}, nil},
		{"max step backwards", 23, -1, -math.MaxInt64, []int64{23}, nil},
		{"min step", 23, 0, math.MinInt64, []int64{23}, nil},
		{"last rank only", 23, 24, 7, []int64{23}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := u.Slice(tt.start, tt.stop, tt.step)
			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
				return
			}
			require.NoError(t, err)
			require.Len(t, got, len(tt.ranks))
			for i, rank := range tt.ranks {
				want, err := u.TermAt(rank)
				require.NoError(t, err)
				assert.Equal(t, want, got[i])
			}
		})
	}
}

func TestTerms(t *testing.T) {
	u, err := NewCombination(Letters("ABCD"), 2)
	require.NoError(t, err)

	rs, err := ParseRanges("0-1,4")
	require.NoError(t, err)
	seq, err := u.Terms(rs)
	require.NoError(t, err)

	var got []types.Term
	for tm, err := range seq {
		require.NoError(t, err)
		got = append(got, tm)
	}
	assert.Equal(t, terms("AB", "AC", "BD"), got)

	_, err = u.Terms(RangeSet{{Start: 4, Stop: 7}})
	assert.ErrorIs(t, err, types.ErrRankOutOfRange)

	var all []types.Term
	for tm, err := range u.All() {
		require.NoError(t, err)
		all = append(all, tm)
	}
	assert.Equal(t, terms("AB", "AC", "AD", "BC", "BD", "CD"), all)
}

func TestTermsStopsOnSourceError(t *testing.T) {
	boom := errors.New("boom")
	fn, err := NewFunc(3, func(i int64) (any, error) {
		if i == 2 {
			return nil, boom
		}
		return i, nil
	})
	require.NoError(t, err)
	u, err := NewPermutation(fn, 1)
	require.NoError(t, err)

	var n int
	var last error
	for _, err := range u.All() {
		n++
		last = err
	}
	assert.Equal(t, 3, n)
	assert.ErrorIs(t, last, boom)
}

func TestString(t *testing.T) {
	u, err := NewPermutation(Letters("ABCD"), 2, WithName("pp"))
	require.NoError(t, err)
	assert.Equal(t, "permutation(pp, r=2, n=4, len=12)", u.String())

	cat, err := NewCatCombination([]types.Sequence{Letters("AB"), Letters("xyz")})
	require.NoError(t, err)
	assert.Equal(t, "cat_combination(r=2, n=2x3, len=6)", cat.String())
}
