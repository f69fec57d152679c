package ds

import (
	"testing"

	"github.com/l1jgo/mars/internal/core/status"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLotInsertFind(t *testing.T) {
	l := NewLot[string](4)
	k1, err := l.Insert("one")
	require.NoError(t, err)
	k2, err := l.Insert("two")
	require.NoError(t, err)

	assert.Equal(t, uint32(0), k1.Index())
	assert.Equal(t, uint32(1), k2.Index())
	assert.Equal(t, uint8(1), k1.Generation())

	v, ok := l.Get(k1)
	require.True(t, ok)
	assert.Equal(t, "one", v)
	p, ok := l.Find(k2)
	require.True(t, ok)
	*p = "TWO"
	v, _ = l.Get(k2)
	assert.Equal(t, "TWO", v)
	assert.Equal(t, 2, l.Len())
}

func TestLotRejectsStaleHandle(t *testing.T) {
	l := NewLot[int](4)
	h1, err := l.Insert(10)
	require.NoError(t, err)
	require.NoError(t, l.Delete(h1))

	h2, err := l.Insert(20)
	require.NoError(t, err)
	assert.Equal(t, h1.Index(), h2.Index())
	assert.NotEqual(t, h1, h2)

	_, ok := l.Find(h1)
	assert.False(t, ok)
	v, ok := l.Get(h2)
	require.True(t, ok)
	assert.Equal(t, 20, v)

	err = l.Delete(h1)
	assert.Equal(t, status.KeyNotFound, status.Of(err))
	assert.Equal(t, 1, l.Len())
}

func TestLotDoubleDelete(t *testing.T) {
	l := NewLot[int](0)
	k, _ := l.Insert(1)
	require.NoError(t, l.Delete(k))
	assert.Error(t, l.Delete(k))
	assert.Equal(t, 0, l.Len())
	// the freed index is handed out exactly once
	a, _ := l.Insert(2)
	b, _ := l.Insert(3)
	assert.NotEqual(t, a.Index(), b.Index())
}

func TestLotGrowKeepsHandles(t *testing.T) {
	l := NewLot[int](2)
	keys := make([]Key, 0, 40)
	for i := 0; i < 40; i++ {
		k, err := l.Insert(i)
		require.NoError(t, err)
		keys = append(keys, k)
	}
	assert.Equal(t, 64, l.Cap())
	assert.Equal(t, 40, l.Len())
	for i, k := range keys {
		v, ok := l.Get(k)
		require.True(t, ok)
		assert.Equal(t, i, v)
	}
	seen := map[uint32]bool{}
	l.Each(func(k Key, _ *int) bool {
		assert.False(t, seen[k.Index()])
		seen[k.Index()] = true
		return true
	})
	assert.Len(t, seen, 40)
}

func TestLotGenerationWraps(t *testing.T) {
	l := NewLot[int](1)
	var first, last Key
	for i := 0; i < 128; i++ {
		k, err := l.Insert(i)
		require.NoError(t, err)
		if i == 0 {
			first = k
		}
		last = k
		if i < 127 {
			require.NoError(t, l.Delete(k))
		}
	}
	assert.Equal(t, 1, l.Cap())
	assert.Equal(t, uint8(1), first.Generation())
	assert.Equal(t, uint8(0), last.Generation())
	_, ok := l.Get(first)
	assert.False(t, ok)
	v, ok := l.Get(last)
	assert.True(t, ok)
	assert.Equal(t, 127, v)
}

func TestLotForeignKeys(t *testing.T) {
	l := NewLot[int](4)
	_, _ = l.Insert(1)
	_, ok := l.Find(NilKey)
	assert.False(t, ok)
	_, ok = l.Find(MakeKey(1, 1000))
	assert.False(t, ok)
	_, ok = l.Find(MakeKey(1, 0) | 1<<50)
	assert.False(t, ok)
	_, ok = l.Find(MakeKey(2, 0))
	assert.False(t, ok)
}
