package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSparseSet_AddContainsRemove(t *testing.T) {
	s := NewSparseSet()

	slot, err := s.Add(5)
	require.NoError(t, err)
	assert.Equal(t, 0, slot)
	assert.True(t, s.Contains(5))
	assert.Equal(t, 1, s.Size())

	_, err = s.Add(5)
	assert.Error(t, err, "adding the same index twice must fail")
}

func TestSparseSet_RemoveSwapsLastIntoHole(t *testing.T) {
	s := NewSparseSet()
	_, _ = s.Add(10)
	_, _ = s.Add(20)
	_, _ = s.Add(30)

	moved, movedSlot, vacated, ok, err := s.Remove(10)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint32(30), moved, "last element should move into the vacated slot")
	assert.Equal(t, 2, movedSlot)
	assert.Equal(t, 0, vacated)
	assert.False(t, s.Contains(10))
	assert.True(t, s.Contains(30))
	assert.Equal(t, 2, s.Size())
}

func TestSparseSet_RemoveLastNeedsNoSwap(t *testing.T) {
	s := NewSparseSet()
	_, _ = s.Add(1)
	_, _ = s.Add(2)

	_, _, _, ok, err := s.Remove(2)
	require.NoError(t, err)
	assert.False(t, ok, "removing the last dense element moves nothing")
}

func TestSparseSet_Iterate(t *testing.T) {
	s := NewSparseSet()
	_, _ = s.Add(7)
	_, _ = s.Add(8)

	var seen []uint32
	s.Iterate(func(index uint32, slot int) bool {
		seen = append(seen, index)
		return true
	})
	assert.Equal(t, []uint32{7, 8}, seen)
}
