// Package ecs provides the core Entity Component System framework for Muscle Dreamer.
package ecs

import "sync"

// entitySlot is one row of the slot table: the generation currently stamped
// into it, whether it is alive, and the sorted component-type set the
// entity at this slot currently carries (mirrored here so DestroyEntity can
// tell the World which columns to purge without consulting storage).
type entitySlot struct {
	generation uint32
	alive      bool
	retired    bool // true once GenerationFatal has condemned this index
	components map[TypeID]struct{}
}

// DefaultEntityManager is the slot-table implementation of EntityManager.
// Unlike the plain EntityID-recycling pool this package started from, every
// slot carries a generation counter: a handle is live only while its
// generation matches the slot's current one, which is what makes
// DestroyEntity followed by CreateEntity safe against stale references
// (SPEC_FULL.md §3, §4.1, invariant 1 and 4 in §8).
type DefaultEntityManager struct {
	mutex sync.RWMutex

	slots    []entitySlot
	freeList []uint32 // LIFO stack of retired-but-reusable indices

	overflowPolicy GenerationOverflowPolicy

	created   int64
	destroyed int64
	reused    int64
}

// NewDefaultEntityManager creates an entity manager with room for
// initialCapacity slots preallocated.
func NewDefaultEntityManager(initialCapacity int, overflowPolicy GenerationOverflowPolicy) *DefaultEntityManager {
	if initialCapacity < 0 {
		initialCapacity = 0
	}
	return &DefaultEntityManager{
		slots:          make([]entitySlot, 0, initialCapacity),
		freeList:       make([]uint32, 0, initialCapacity),
		overflowPolicy: overflowPolicy,
	}
}

// CreateEntity allocates a fresh or reused index and returns a handle
// stamped with the slot's current generation. Free-list entries are
// consumed before any new index is minted (SPEC_FULL.md §4.1 policy).
func (m *DefaultEntityManager) CreateEntity() (EntityID, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	for len(m.freeList) > 0 {
		idx := m.freeList[len(m.freeList)-1]
		m.freeList = m.freeList[:len(m.freeList)-1]
		slot := &m.slots[idx]
		if slot.retired {
			continue // condemned by generation overflow, never reused
		}
		slot.alive = true
		slot.components = make(map[TypeID]struct{})
		m.created++
		m.reused++
		return NewEntityID(idx, slot.generation), nil
	}

	if uint64(len(m.slots)) >= uint64(^uint32(0)) {
		return InvalidEntityID, withDetail(ErrExhausted, "slot_count", len(m.slots))
	}

	// Fresh slots start at generation 1 so no live handle ever equals
	// InvalidEntityID (index 0, generation 0).
	idx := uint32(len(m.slots))
	m.slots = append(m.slots, entitySlot{generation: 1, alive: true, components: make(map[TypeID]struct{})})
	m.created++
	return NewEntityID(idx, 1), nil
}

// DestroyEntity invalidates h: every future call with h (other than
// IsAlive) will fail with StaleHandle. The slot's generation is bumped and
// returned to the free-list unless the bump would overflow, in which case
// the overflow policy decides whether the slot is retired permanently.
func (m *DefaultEntityManager) DestroyEntity(h EntityID) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	idx := h.Index()
	if idx >= uint32(len(m.slots)) {
		return withEntity(ErrStaleHandle, h)
	}
	slot := &m.slots[idx]
	if !slot.alive || slot.generation != h.Generation() {
		return withEntity(ErrStaleHandle, h)
	}

	slot.alive = false
	slot.components = nil
	m.destroyed++

	if slot.generation == ^uint32(0) {
		switch m.overflowPolicy {
		case GenerationFatal:
			slot.retired = true
			return nil // slot is dead forever; never pushed back to freeList
		case GenerationWrap:
			slot.generation = 1 // generation 0 is never issued
		}
	} else {
		slot.generation++
	}
	m.freeList = append(m.freeList, idx)
	return nil
}

// IsAlive is the O(1) liveness check invariant 1 (§8) depends on.
func (m *DefaultEntityManager) IsAlive(h EntityID) bool {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.isAliveLocked(h)
}

func (m *DefaultEntityManager) isAliveLocked(h EntityID) bool {
	idx := h.Index()
	if idx >= uint32(len(m.slots)) {
		return false
	}
	slot := &m.slots[idx]
	return slot.alive && slot.generation == h.Generation()
}

// ActiveEntities returns every currently live handle. Order is slot order,
// not creation order.
func (m *DefaultEntityManager) ActiveEntities() []EntityID {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	out := make([]EntityID, 0, len(m.slots))
	for i := range m.slots {
		if m.slots[i].alive {
			out = append(out, NewEntityID(uint32(i), m.slots[i].generation))
		}
	}
	return out
}

func (m *DefaultEntityManager) Count() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	alive := 0
	for i := range m.slots {
		if m.slots[i].alive {
			alive++
		}
	}
	return alive
}

// Stats reports the observability snapshot; it is never computed on the hot
// path of CreateEntity/DestroyEntity (SPEC_FULL.md §4.1 policy).
func (m *DefaultEntityManager) Stats() EntityManagerStats {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	alive := 0
	for i := range m.slots {
		if m.slots[i].alive {
			alive++
		}
	}
	lf := 0.0
	if len(m.slots) > 0 {
		lf = float64(alive) / float64(len(m.slots))
	}
	return EntityManagerStats{
		Alive:      alive,
		Created:    m.created,
		Destroyed:  m.destroyed,
		Reused:     m.reused,
		SlotCount:  len(m.slots),
		LoadFactor: lf,
	}
}

// trackComponent and untrackComponent let the World keep this manager's
// mirror of each entity's component-type set in sync without exposing the
// slot table itself.
func (m *DefaultEntityManager) trackComponent(h EntityID, t TypeID) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	idx := h.Index()
	if idx >= uint32(len(m.slots)) {
		return
	}
	slot := &m.slots[idx]
	if slot.alive && slot.generation == h.Generation() {
		slot.components[t] = struct{}{}
	}
}

func (m *DefaultEntityManager) untrackComponent(h EntityID, t TypeID) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	idx := h.Index()
	if idx >= uint32(len(m.slots)) {
		return
	}
	slot := &m.slots[idx]
	if slot.alive && slot.generation == h.Generation() {
		delete(slot.components, t)
	}
}

func (m *DefaultEntityManager) componentSet(h EntityID) []TypeID {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	idx := h.Index()
	if idx >= uint32(len(m.slots)) {
		return nil
	}
	slot := &m.slots[idx]
	if !slot.alive || slot.generation != h.Generation() {
		return nil
	}
	out := make([]TypeID, 0, len(slot.components))
	for t := range slot.components {
		out = append(out, t)
	}
	return out
}

func (m *DefaultEntityManager) Lock()    { m.mutex.Lock() }
func (m *DefaultEntityManager) RLock()   { m.mutex.RLock() }
func (m *DefaultEntityManager) Unlock()  { m.mutex.Unlock() }
func (m *DefaultEntityManager) RUnlock() { m.mutex.RUnlock() }
