// Package ecs provides the core Entity Component System framework for Muscle Dreamer.
package ecs

import (
	"sort"
	"sync"

	"muscle-dreamer/internal/core/ecs/query"
)

// QueryStats reports cache effectiveness for observability.
type QueryStats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
}

// Query is an immutable (required, forbidden) signature, resolved against a
// World's columns per SPEC_FULL.md §4.3.
type Query struct {
	Required []TypeID
	Forbidden []TypeID
}

func (q Query) key() string {
	req := sortedTypes(q.Required)
	forb := sortedTypes(q.Forbidden)
	return archetypeKey(req) + "|" + archetypeKey(forb)
}

// signatureOf converts types to a query.Signature along with whether every
// type fit the bitset's [0,64) domain. When it doesn't, the caller must fall
// back to exact per-type checks — the bitset is a fast path, never the sole
// path (see the query package doc comment).
func signatureOf(types []TypeID) (query.Signature, bool) {
	ids := make([]query.ID, len(types))
	fits := true
	for i, t := range types {
		if t >= 64 {
			fits = false
		}
		ids[i] = query.ID(t)
	}
	return query.NewSignature(ids...), fits
}

// queryCacheEntry memoizes a result against the archetype epoch it was
// computed at.
type queryCacheEntry struct {
	epoch   uint64
	results []EntityID
}

// QueryEngine resolves queries against a columnStore, memoizing results per
// (required, forbidden) pair and invalidating everything whenever the
// archetype epoch advances (SPEC_FULL.md §4.3's mandatory invalidation
// rule; caching itself is optional but always on here since it is cheap and
// exercises the epoch contract).
type QueryEngine struct {
	mutex     sync.Mutex
	archetype *ArchetypeIndex
	columns   columnSource
	cache     map[string]*queryCacheEntry
	hits      int64
	misses    int64
}

// columnSource is the subset of World the query engine needs: per-type
// liveness and driver-selection data, without importing storage directly
// into this file (kept in world.go where the concrete columns live).
type columnSource interface {
	columnSize(t TypeID) (int, bool)
	columnEntities(t TypeID) []EntityID
	hasComponent(e EntityID, t TypeID) bool
}

func newQueryEngine(archetype *ArchetypeIndex, columns columnSource) *QueryEngine {
	return &QueryEngine{archetype: archetype, columns: columns, cache: make(map[string]*queryCacheEntry)}
}

// Resolve implements the algorithm in SPEC_FULL.md §4.3: pick the smallest
// required column as the driver (lower type-id wins ties), scan its dense
// slots in order, and keep entities that own every other required type and
// none of the forbidden ones.
func (qe *QueryEngine) Resolve(q Query) []EntityID {
	qe.mutex.Lock()
	defer qe.mutex.Unlock()

	key := q.key()
	epoch := qe.archetype.Epoch()
	if entry, ok := qe.cache[key]; ok && entry.epoch == epoch {
		qe.hits++
		return entry.results
	}
	qe.misses++

	var results []EntityID
	if len(q.Required) == 0 {
		results = qe.scanAll(q)
	} else {
		driver, rest := qe.pickDriver(q.Required)
		candidates := qe.columns.columnEntities(driver)
		for _, e := range candidates {
			if qe.matches(e, rest, q.Forbidden) {
				results = append(results, e)
			}
		}
	}

	qe.cache[key] = &queryCacheEntry{epoch: epoch, results: results}
	return results
}

func (qe *QueryEngine) scanAll(q Query) []EntityID {
	// No required components: every live entity qualifies unless forbidden.
	// We still need a liveness source; the archetype index enumerates every
	// entity that has at least one component. An entity with zero
	// components never appears in any archetype bucket and is therefore
	// unreachable by a query with an empty Required set in practice — this
	// mirrors the spec's iteration-over-entities intent without requiring a
	// separate "all entities ever created" feed.
	seen := map[EntityID]struct{}{}
	for _, t := range qe.archetype.allTypesHint() {
		for _, e := range qe.columns.columnEntities(t) {
			seen[e] = struct{}{}
		}
	}
	var out []EntityID
	for e := range seen {
		if qe.matches(e, nil, q.Forbidden) {
			out = append(out, e)
		}
	}
	return out
}

// matches verifies the remaining required types exactly (the driver column
// already accounts for the first), then rejects on forbidden types. The
// forbidden check prefers the bitset fast-reject path: a single
// Intersects() test against the entity's archetype signature instead of one
// hasComponent lookup per forbidden type. It only applies when every
// forbidden TypeID fits the 64-bit domain; otherwise it falls back to the
// exact per-type loop so correctness never depends on registration order or
// type count.
func (qe *QueryEngine) matches(e EntityID, rest []TypeID, forbidden []TypeID) bool {
	for _, t := range rest {
		if !qe.columns.hasComponent(e, t) {
			return false
		}
	}
	if len(forbidden) == 0 {
		return true
	}
	if forbiddenSig, ok := signatureOf(forbidden); ok {
		// The entity's own signature may silently drop any component type
		// ID >= 64, but that's harmless here: forbiddenSig only has bits in
		// [0,64) set (ok is true), so a dropped high bit on the entity side
		// can never be one we needed to test against.
		entitySig, _ := signatureOf(qe.archetype.Signature(e))
		return !entitySig.Intersects(forbiddenSig)
	}
	for _, t := range forbidden {
		if qe.columns.hasComponent(e, t) {
			return false
		}
	}
	return true
}

// pickDriver returns the required type with the smallest column size
// (lower type-id breaking ties) and the remaining required types to verify
// per candidate.
func (qe *QueryEngine) pickDriver(required []TypeID) (driver TypeID, rest []TypeID) {
	sorted := sortedTypes(required) // ties broken by lower type-id
	driver = sorted[0]
	bestSize, _ := qe.columns.columnSize(driver)
	for _, t := range sorted[1:] {
		size, ok := qe.columns.columnSize(t)
		if !ok {
			continue
		}
		if size < bestSize {
			bestSize = size
			driver = t
		}
	}
	for _, t := range sorted {
		if t != driver {
			rest = append(rest, t)
		}
	}
	return driver, rest
}

func (qe *QueryEngine) Stats() QueryStats {
	qe.mutex.Lock()
	defer qe.mutex.Unlock()
	return QueryStats{Hits: qe.hits, Misses: qe.misses}
}

// allTypesHint is a placeholder kept tiny on purpose: the only caller is
// scanAll's empty-Required path, which World rarely exercises since most
// gameplay queries require at least one component.
func (a *ArchetypeIndex) allTypesHint() []TypeID {
	a.mutex.RLock()
	defer a.mutex.RUnlock()
	set := map[TypeID]struct{}{}
	for _, b := range a.buckets {
		for _, t := range b.signature {
			set[t] = struct{}{}
		}
	}
	out := make([]TypeID, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
