package ecs

import (
	"sort"
	"strconv"
	"strings"
	"sync"
)

// archetypeKey canonicalizes a component-type set into the cache key
// SPEC_FULL.md §9 decided on: the sorted TypeID list rendered as a string,
// not a hash. Collisions are impossible because the key IS the signature.
func archetypeKey(sorted []TypeID) string {
	var b strings.Builder
	for i, t := range sorted {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatUint(uint64(t), 10))
	}
	return b.String()
}

func sortedTypes(types []TypeID) []TypeID {
	out := make([]TypeID, len(types))
	copy(out, types)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// archetypeBucket groups every entity currently exhibiting exactly
// signature.
type archetypeBucket struct {
	signature []TypeID
	entities  map[EntityID]struct{}
}

// ArchetypeIndex maintains the signature→entities grouping SPEC_FULL.md
// §4.3 describes and the monotonically increasing epoch counter that
// invalidates query caches on any structural change.
type ArchetypeIndex struct {
	mutex sync.RWMutex

	buckets  map[string]*archetypeBucket
	byEntity map[EntityID]string // entity -> bucket key
	epoch    uint64
}

func NewArchetypeIndex() *ArchetypeIndex {
	return &ArchetypeIndex{
		buckets:  make(map[string]*archetypeBucket),
		byEntity: make(map[EntityID]string),
	}
}

// Epoch is the invalidation token the query cache keys on.
func (a *ArchetypeIndex) Epoch() uint64 {
	a.mutex.RLock()
	defer a.mutex.RUnlock()
	return a.epoch
}

// Move recomputes e's archetype from its current component-type set and
// migrates it between buckets. Passing an empty types removes e entirely
// (used by DestroyEntity).
func (a *ArchetypeIndex) Move(e EntityID, types []TypeID) {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	newKey := ""
	var sorted []TypeID
	if len(types) > 0 {
		sorted = sortedTypes(types)
		newKey = archetypeKey(sorted)
	}

	oldKey, had := a.byEntity[e]
	if had && oldKey == newKey {
		return // no structural change, no epoch bump
	}
	if !had && newKey == "" {
		return // removing an entity that has no archetype: nothing changes
	}
	if had {
		if bucket, ok := a.buckets[oldKey]; ok {
			delete(bucket.entities, e)
			if len(bucket.entities) == 0 {
				delete(a.buckets, oldKey)
			}
		}
	}

	if newKey == "" {
		delete(a.byEntity, e)
	} else {
		bucket, ok := a.buckets[newKey]
		if !ok {
			bucket = &archetypeBucket{signature: sorted, entities: make(map[EntityID]struct{})}
			a.buckets[newKey] = bucket
		}
		bucket.entities[e] = struct{}{}
		a.byEntity[e] = newKey
	}
	a.epoch++
}

// Remove purges e from whatever bucket it occupies (entity destruction).
func (a *ArchetypeIndex) Remove(e EntityID) {
	a.Move(e, nil)
}

// Signature returns e's current sorted component-type set.
func (a *ArchetypeIndex) Signature(e EntityID) []TypeID {
	a.mutex.RLock()
	defer a.mutex.RUnlock()
	key, ok := a.byEntity[e]
	if !ok {
		return nil
	}
	return append([]TypeID(nil), a.buckets[key].signature...)
}

// BucketCount reports how many distinct archetypes currently exist (used by
// Stats()/debugging; pruned buckets never linger empty).
func (a *ArchetypeIndex) BucketCount() int {
	a.mutex.RLock()
	defer a.mutex.RUnlock()
	return len(a.buckets)
}
