package comb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/slowcomb/pkg/types"
)

func TestItems(t *testing.T) {
	it := Items{"x", 2, "x", []any{"a", "b"}}

	assert.Equal(t, int64(4), it.Len())
	v, err := it.At(1)
	require.NoError(t, err)
	assert.Equal(t, 2, v)

	_, err = it.At(4)
	assert.ErrorIs(t, err, types.ErrRankOutOfRange)

	i, err := it.Index("x", 0)
	require.NoError(t, err)
	assert.Equal(t, int64(0), i)

	i, err = it.Index("x", 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), i)

	i, err = it.Index(types.Term{"a", "b"}, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(3), i)

	_, err = it.Index("x", 3)
	assert.ErrorIs(t, err, types.ErrNotMember)
}

func TestLetters(t *testing.T) {
	assert.Equal(t, Items{"h", "é", "!"}, Letters("hé!"))
	assert.Empty(t, Letters(""))
}

func TestFunc(t *testing.T) {
	_, err := NewFunc(-1, func(int64) (any, error) { return nil, nil })
	assert.ErrorIs(t, err, types.ErrInvalidSource)

	_, err = NewFunc(3, nil)
	assert.ErrorIs(t, err, types.ErrInvalidSource)

	f, err := NewFunc(3, func(i int64) (any, error) { return i + 10, nil })
	require.NoError(t, err)
	assert.False(t, types.SupportsIndex(f))

	v, err := f.At(2)
	require.NoError(t, err)
	assert.Equal(t, int64(12), v)

	_, err = f.At(3)
	assert.ErrorIs(t, err, types.ErrRankOutOfRange)
}

func TestCompact(t *testing.T) {
	assert.Equal(t, "BDCA", Compact(term("BDCA")))
	assert.Equal(t, "ABAC", Compact(types.Term{term("AB"), term("AC")}))
	assert.Equal(t, "x7", Compact(types.Term{"x", 7}))
}
