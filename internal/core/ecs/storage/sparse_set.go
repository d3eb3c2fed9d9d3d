// Package storage implements the Structure-of-Arrays component columns and
// their sparse-set indexing described in SPEC_FULL.md §3 and §4.2.
package storage

import "fmt"

// SparseSet provides O(1) has/add/remove plus dense, cache-friendly
// iteration over a set of entity indices. It is keyed on the raw uint32
// slot index (not the full generational handle) exactly as SPEC_FULL.md §3
// describes the column's sparse map: "entity-index → slot".
type SparseSet struct {
	sparse map[uint32]int
	dense  []uint32
	size   int
}

func NewSparseSet() *SparseSet {
	return &SparseSet{
		sparse: make(map[uint32]int),
		dense:  make([]uint32, 0, 64),
	}
}

// Add assigns index a fresh dense slot, returning it.
func (s *SparseSet) Add(index uint32) (int, error) {
	if _, exists := s.sparse[index]; exists {
		return -1, fmt.Errorf("index %d already present in sparse set", index)
	}
	slot := s.size
	if slot >= len(s.dense) {
		s.dense = append(s.dense, index)
	} else {
		s.dense[slot] = index
	}
	s.sparse[index] = slot
	s.size++
	return slot, nil
}

// Remove deletes index via swap-with-last. When another index had to move,
// it returns that index (movedIndex), the slot it moved from (movedSlot, the
// old last slot) and the slot it now occupies (vacated), with ok=true; the
// caller copies its column row from movedSlot to vacated. When the removed
// index was already last, ok=false and only vacated is meaningful.
func (s *SparseSet) Remove(index uint32) (movedIndex uint32, movedSlot int, vacated int, ok bool, err error) {
	slot, exists := s.sparse[index]
	if !exists {
		return 0, 0, 0, false, fmt.Errorf("index %d not found in sparse set", index)
	}
	lastSlot := s.size - 1
	lastIndex := s.dense[lastSlot]

	delete(s.sparse, index)
	s.size--

	if slot == lastSlot {
		return 0, 0, slot, false, nil
	}

	s.dense[slot] = lastIndex
	s.sparse[lastIndex] = slot
	return lastIndex, lastSlot, slot, true, nil
}

func (s *SparseSet) Contains(index uint32) bool {
	_, exists := s.sparse[index]
	return exists
}

func (s *SparseSet) Size() int { return s.size }

func (s *SparseSet) IsEmpty() bool { return s.size == 0 }

func (s *SparseSet) Slot(index uint32) (int, bool) {
	slot, exists := s.sparse[index]
	return slot, exists
}

func (s *SparseSet) IndexAt(slot int) (uint32, bool) {
	if slot < 0 || slot >= s.size {
		return 0, false
	}
	return s.dense[slot], true
}

// Iterate visits dense slots in order; callback returning false stops early.
func (s *SparseSet) Iterate(callback func(index uint32, slot int) bool) {
	for i := 0; i < s.size; i++ {
		if !callback(s.dense[i], i) {
			break
		}
	}
}

func (s *SparseSet) ToSlice() []uint32 {
	out := make([]uint32, s.size)
	copy(out, s.dense[:s.size])
	return out
}

func (s *SparseSet) Capacity() int { return cap(s.dense) }

func (s *SparseSet) Reserve(capacity int) {
	if capacity > cap(s.dense) {
		newDense := make([]uint32, s.size, capacity)
		copy(newDense, s.dense[:s.size])
		s.dense = newDense
	}
}
