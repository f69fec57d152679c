package ds

import (
	"testing"

	"github.com/l1jgo/mars/internal/core/status"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVectorPushPop(t *testing.T) {
	v := NewVector[int](2)
	v.PushBack(2)
	v.PushBack(3)
	v.PushFront(1)
	v.PushBack(4)
	assert.Equal(t, []int{1, 2, 3, 4}, v.Values())
	assert.Equal(t, 4, v.Cap())

	x, ok := v.PopFront()
	require.True(t, ok)
	assert.Equal(t, 1, x)
	x, ok = v.PopBack()
	require.True(t, ok)
	assert.Equal(t, 4, x)
	assert.Equal(t, []int{2, 3}, v.Values())

	v.Clear()
	_, ok = v.PopBack()
	assert.False(t, ok)
	_, ok = v.PopFront()
	assert.False(t, ok)
}

func TestVectorGetSet(t *testing.T) {
	v := NewVector[string](0)
	assert.Equal(t, DefaultVectorCapacity, v.Cap())
	v.PushBack("a")
	require.NoError(t, v.Set(0, "b"))
	s, err := v.Get(0)
	require.NoError(t, err)
	assert.Equal(t, "b", s)

	_, err = v.Get(1)
	assert.Equal(t, status.InvalidArgument, status.Of(err))
	assert.Equal(t, status.InvalidArgument, status.Of(v.Set(-1, "x")))
}

func TestVectorInsertRemove(t *testing.T) {
	v := NewVector[int](1)
	for i := 0; i < 5; i++ {
		v.PushBack(i)
	}
	require.NoError(t, v.Insert(2, 9))
	assert.Equal(t, []int{0, 1, 9, 2, 3, 4}, v.Values())
	require.NoError(t, v.Remove(1, 3))
	assert.Equal(t, []int{0, 3, 4}, v.Values())
	require.NoError(t, v.Remove(1, 2))
	assert.Equal(t, []int{0}, v.Values())

	assert.Error(t, v.Insert(5, 1))
	assert.Error(t, v.Remove(0, 2))
}

func TestStack(t *testing.T) {
	s := NewStack[uint32](1)
	_, ok := s.Peek()
	assert.False(t, ok)
	for i := uint32(0); i < 10; i++ {
		s.Push(i)
	}
	assert.Equal(t, 10, s.Len())
	top, ok := s.Peek()
	require.True(t, ok)
	assert.Equal(t, uint32(9), top)
	for i := uint32(10); i > 0; i-- {
		x, ok := s.Pop()
		require.True(t, ok)
		assert.Equal(t, i-1, x)
	}
	_, ok = s.Pop()
	assert.False(t, ok)
}
