package ecs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArchetypeIndex_MoveAssignsEntityToBucketBySignature(t *testing.T) {
	idx := NewArchetypeIndex()
	e := NewEntityID(1, 0)

	idx.Move(e, []TypeID{2, 1})

	assert.Equal(t, []TypeID{1, 2}, idx.Signature(e), "Signature is always returned sorted")
	assert.Equal(t, 1, idx.BucketCount())
}

func TestArchetypeIndex_MoveToSameSignatureDoesNotBumpEpoch(t *testing.T) {
	idx := NewArchetypeIndex()
	e := NewEntityID(1, 0)
	idx.Move(e, []TypeID{1, 2})
	before := idx.Epoch()

	idx.Move(e, []TypeID{2, 1}) // same set, different input order

	assert.Equal(t, before, idx.Epoch())
}

func TestArchetypeIndex_MoveToDifferentSignatureBumpsEpoch(t *testing.T) {
	idx := NewArchetypeIndex()
	e := NewEntityID(1, 0)
	idx.Move(e, []TypeID{1})
	before := idx.Epoch()

	idx.Move(e, []TypeID{1, 2})

	assert.Greater(t, idx.Epoch(), before)
	assert.Equal(t, []TypeID{1, 2}, idx.Signature(e))
}

func TestArchetypeIndex_MoveEmptyRemovesEntity(t *testing.T) {
	idx := NewArchetypeIndex()
	e := NewEntityID(1, 0)
	idx.Move(e, []TypeID{1})
	require.Equal(t, 1, idx.BucketCount())

	idx.Move(e, nil)

	assert.Nil(t, idx.Signature(e))
	assert.Equal(t, 0, idx.BucketCount())
}

func TestArchetypeIndex_EmptyBucketsArePrunedOnLastEntityLeaving(t *testing.T) {
	idx := NewArchetypeIndex()
	a := NewEntityID(1, 0)
	b := NewEntityID(2, 0)
	idx.Move(a, []TypeID{1})
	idx.Move(b, []TypeID{1})
	require.Equal(t, 1, idx.BucketCount())

	idx.Remove(a)
	assert.Equal(t, 1, idx.BucketCount(), "bucket survives while b still occupies it")

	idx.Remove(b)
	assert.Equal(t, 0, idx.BucketCount())
}

func TestArchetypeIndex_RemoveUnknownEntityIsNoop(t *testing.T) {
	idx := NewArchetypeIndex()
	before := idx.Epoch()
	idx.Remove(NewEntityID(99, 0))
	assert.Equal(t, before, idx.Epoch())
}

func TestArchetypeIndex_DistinctSignaturesGetDistinctBuckets(t *testing.T) {
	idx := NewArchetypeIndex()
	a := NewEntityID(1, 0)
	b := NewEntityID(2, 0)
	idx.Move(a, []TypeID{1, 2})
	idx.Move(b, []TypeID{1, 3})

	assert.Equal(t, 2, idx.BucketCount())
}
