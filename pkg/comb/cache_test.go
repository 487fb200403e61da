package comb

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/slowcomb/pkg/types"
)

func TestCached(t *testing.T) {
	calls := 0
	fn, err := NewFunc(10, func(i int64) (any, error) {
		calls++
		return i * 2, nil
	})
	require.NoError(t, err)

	c, err := NewCached(fn, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(10), c.Len())
	assert.False(t, c.SupportsIndex())

	for _, i := range []int64{1, 1, 2, 3, 1} {
		v, err := c.At(i)
		require.NoError(t, err)
		assert.Equal(t, i*2, v)
	}
	// 1 miss, 1 hit, 2 miss, 3 miss evicting 1, 1 miss evicting 2.
	assert.Equal(t, 4, calls)
	assert.Equal(t, CacheStats{Hits: 1, Misses: 4, Evictions: 2, Size: 2, Capacity: 2}, c.Stats())

	_, err = c.At(10)
	assert.ErrorIs(t, err, types.ErrRankOutOfRange)

	c.Purge()
	assert.Equal(t, CacheStats{Capacity: 2}, c.Stats())

	_, err = c.Index(int64(2), 0)
	assert.ErrorIs(t, err, types.ErrIndexUnsupported)
}

func TestCachedErrors(t *testing.T) {
	_, err := NewCached(Letters("AB"), 0)
	assert.ErrorIs(t, err, types.ErrInvalidCapacity)
	assert.ErrorIs(t, err, types.ErrConfiguration)

	_, err = NewCached(nil, 4)
	assert.ErrorIs(t, err, types.ErrInvalidSource)
}

// A cached unit stays transparent to the units built on top of it.
func TestCachedAsSource(t *testing.T) {
	pairs, err := NewCombination(Letters("ABCD"), 2)
	require.NoError(t, err)
	cached, err := NewCached(pairs, 8)
	require.NoError(t, err)
	assert.True(t, cached.SupportsIndex())

	u, err := NewPermutation(cached, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, u.Depth())

	direct, err := NewPermutation(pairs, 2)
	require.NoError(t, err)

	for rank := int64(0); rank < u.Len(); rank++ {
		got, err := u.TermAt(rank)
		require.NoError(t, err)
		want, err := direct.TermAt(rank)
		require.NoError(t, err)
		assert.Equal(t, want, got)

		back, err := u.RankOf(got)
		require.NoError(t, err)
		assert.Equal(t, rank, back)
	}
	assert.Positive(t, cached.Stats().Hits)

	cat, err := NewCatCombination([]types.Sequence{cached, Letters("xy")})
	require.NoError(t, err)
	assert.Equal(t, 3, cat.Width())
	tm, err := cat.TermAt(11)
	require.NoError(t, err)
	assert.Equal(t, term("CDy"), tm)
}

func TestCachedTermsIsolated(t *testing.T) {
	pairs, err := NewCombination(Letters("ABC"), 2)
	require.NoError(t, err)
	nested, err := NewPermutation(pairs, 1)
	require.NoError(t, err)

	tests := []struct {
		name string
		seq  types.Sequence
		want types.Term
	}{
		{"flat", pairs, term("AB")},
		{"nested", nested, types.Term{term("AB")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewCached(tt.seq, 4)
			require.NoError(t, err)

			// The miss result and the hit result are both the caller's to keep.
			for range 2 {
				v, err := c.At(0)
				require.NoError(t, err)
				got := v.(types.Term)
				require.Equal(t, tt.want, got)
				if inner, ok := got[0].(types.Term); ok {
					inner[0] = "Z"
				}
				got[len(got)-1] = "Z"
			}

			v, err := c.At(0)
			require.NoError(t, err)
			assert.Equal(t, tt.want, v)
			assert.Equal(t, int64(2), c.Stats().Hits)
		})
	}
}

func TestCachedConcurrent(t *testing.T) {
	u, err := NewPermutation(Letters("ABCDEF"), 3)
	require.NoError(t, err)
	c, err := NewCached(u, 16)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := int64(0); i < u.Len(); i++ {
				got, err := c.At(i)
				if !assert.NoError(t, err) {
					return
				}
				want, _ := u.TermAt(i)
				assert.Equal(t, want, got)
			}
		}()
	}
	wg.Wait()

	s := c.Stats()
	assert.Equal(t, int64(8)*u.Len(), s.Hits+s.Misses)
	assert.LessOrEqual(t, s.Size, 16)
}
