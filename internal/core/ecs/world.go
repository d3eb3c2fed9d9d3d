// Package ecs provides the core Entity Component System framework for Muscle Dreamer.
package ecs

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"muscle-dreamer/internal/core/ecs/storage"
)

// World is the facade SPEC_FULL.md §2 calls "glue": it owns the entity
// manager, every component column, the archetype index, the query engine,
// the scheduler, and the event bus, and exposes the external interface
// table in §6. The teacher's World was an interface with no concrete
// implementation anywhere in the codebase; this is that implementation.
type World struct {
	mutex sync.RWMutex
	log   zerolog.Logger
	cfg   WorldConfig

	entities  *DefaultEntityManager
	registry  *componentRegistry
	columns   map[TypeID]*storage.Column
	archetype *ArchetypeIndex
	query     *QueryEngine
	scheduler *Scheduler
	events    *EventBus
}

// NewWorld builds a World ready to register components and systems. A
// disabled zerolog.Logger is used when log is its zero value, so the core
// stays silent unless a host opts in (SPEC_FULL.md §6.1).
func NewWorld(cfg WorldConfig, log zerolog.Logger) *World {
	w := &World{
		log:       log,
		cfg:       cfg,
		entities:  NewDefaultEntityManager(cfg.InitialEntityCapacity, cfg.GenerationOverflowPolicy),
		registry:  newComponentRegistry(),
		columns:   make(map[TypeID]*storage.Column),
		archetype: NewArchetypeIndex(),
		scheduler: NewScheduler(cfg, log),
		events:    NewEventBus(cfg.EventQueueCap, log),
	}
	w.query = newQueryEngine(w.archetype, w)
	return w
}

// --- Entity lifecycle -------------------------------------------------

func (w *World) CreateEntity() (EntityID, error) {
	return w.entities.CreateEntity()
}

// DestroyEntity invalidates h and purges it from every column and the
// archetype index (SPEC_FULL.md §3 lifecycle).
func (w *World) DestroyEntity(h EntityID) error {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	if !w.entities.isAliveLocked(h) {
		return withEntity(ErrStaleHandle, h)
	}
	types := w.entities.componentSet(h)
	for _, t := range types {
		if col, ok := w.columns[t]; ok {
			_ = col.Remove(h)
		}
	}
	w.archetype.Remove(h)
	return w.entities.DestroyEntity(h)
}

func (w *World) IsAlive(h EntityID) bool { return w.entities.IsAlive(h) }

func (w *World) ActiveEntities() []EntityID { return w.entities.ActiveEntities() }

// --- Component registration and storage --------------------------------

// RegisterComponent declares a column type once (SPEC_FULL.md §6).
func (w *World) RegisterComponent(schema Schema) (TypeID, error) {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	id, err := w.registry.Register(schema)
	if err != nil {
		return InvalidTypeID, err
	}
	w.columns[id] = storage.NewColumn(id, schema, w.cfg.InitialColumnCapacity)
	w.log.Debug().Str("component", string(schema.Name)).Uint32("type_id", uint32(id)).Msg("component registered")
	return id, nil
}

// AddComponent attaches a component to h, allocating its slot in the
// column. Replace-vs-reject on an already-present component is governed by
// WorldConfig.AddComponentPolicy (SPEC_FULL.md §9 open-question decision).
func (w *World) AddComponent(h EntityID, t TypeID, fields map[string]any) error {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	if !w.entities.isAliveLocked(h) {
		return withEntity(ErrStaleHandle, h)
	}
	col, ok := w.columns[t]
	if !ok {
		return withType(ErrUnknownType, t)
	}
	if col.Has(h) && w.cfg.AddComponentPolicy == RejectExisting {
		return withEntityAndType(ErrAlreadyPresent, h, t)
	}
	if err := col.Add(h, fields); err != nil {
		return err
	}
	w.entities.trackComponent(h, t)
	w.archetype.Move(h, w.entities.componentSet(h))
	return nil
}

// RemoveComponent detaches a component from h.
func (w *World) RemoveComponent(h EntityID, t TypeID) error {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	if !w.entities.isAliveLocked(h) {
		return withEntity(ErrStaleHandle, h)
	}
	col, ok := w.columns[t]
	if !ok {
		return withType(ErrUnknownType, t)
	}
	if !col.Has(h) {
		return withEntityAndType(ErrNotPresent, h, t)
	}
	if err := col.Remove(h); err != nil {
		return err
	}
	w.entities.untrackComponent(h, t)
	w.archetype.Move(h, w.entities.componentSet(h))
	return nil
}

// GetComponent returns a read/write view onto h's component row.
func (w *World) GetComponent(h EntityID, t TypeID) (storage.View, error) {
	w.mutex.RLock()
	defer w.mutex.RUnlock()

	if !w.entities.isAliveLocked(h) {
		return storage.View{}, withEntity(ErrStaleHandle, h)
	}
	col, ok := w.columns[t]
	if !ok {
		return storage.View{}, withType(ErrUnknownType, t)
	}
	view, ok := col.Get(h)
	if !ok {
		return storage.View{}, withEntityAndType(ErrNotPresent, h, t)
	}
	return view, nil
}

func (w *World) HasComponent(h EntityID, t TypeID) bool {
	w.mutex.RLock()
	defer w.mutex.RUnlock()
	col, ok := w.columns[t]
	if !ok {
		return false
	}
	return col.Has(h)
}

// columnSource implementation, consumed by QueryEngine.

func (w *World) columnSize(t TypeID) (int, bool) {
	col, ok := w.columns[t]
	if !ok {
		return 0, false
	}
	return col.Size(), true
}

func (w *World) columnEntities(t TypeID) []EntityID {
	col, ok := w.columns[t]
	if !ok {
		return nil
	}
	return col.Entities()
}

func (w *World) hasComponent(e EntityID, t TypeID) bool {
	col, ok := w.columns[t]
	if !ok {
		return false
	}
	return col.Has(e)
}

// Query resolves (required, forbidden) against live archetypes per
// SPEC_FULL.md §4.3.
func (w *World) Query(required, forbidden []TypeID) []EntityID {
	w.mutex.RLock()
	defer w.mutex.RUnlock()
	return w.query.Resolve(Query{Required: required, Forbidden: forbidden})
}

// --- Systems and scheduling ---------------------------------------------

func (w *World) RegisterSystem(sys System, dependencies ...SystemType) error {
	return w.scheduler.RegisterSystem(sys, dependencies...)
}

func (w *World) UnregisterSystem(name SystemType) error {
	return w.scheduler.UnregisterSystem(name)
}

func (w *World) Pause()  { w.scheduler.Pause() }
func (w *World) Resume() { w.scheduler.Resume() }
func (w *World) Step()   { w.scheduler.Step() }

// Update advances one frame: the scheduler drives Fixed systems through the
// accumulator, the event bus swaps at the Fixed/Variable boundary, then
// Variable systems run once with the wall dt (SPEC_FULL.md §2 data flow,
// §4.4 algorithm).
func (w *World) Update(dt time.Duration) error {
	runFixed := func(phaseDT time.Duration, name SystemType) error {
		return w.runSystem(name, phaseDT.Seconds())
	}
	runVariable := func(phaseDT time.Duration, name SystemType) error {
		return w.runSystem(name, phaseDT.Seconds())
	}
	barrier := func() { w.events.Barrier() }
	return w.scheduler.ExecuteFrame(dt, runFixed, runVariable, barrier)
}

func (w *World) runSystem(name SystemType, dtSeconds float64) error {
	w.scheduler.mutex.RLock()
	rec, ok := w.scheduler.records[name]
	w.scheduler.mutex.RUnlock()
	if !ok {
		return withSystem(ErrSystemNotFound, string(name))
	}
	return rec.system.Update(w, dtSeconds)
}

// --- Events --------------------------------------------------------------

func (w *World) SendEvent(t EventTypeID, payload any, sender EntityID) error {
	return w.events.Send(t, payload, sender)
}

func (w *World) Subscribe(t EventTypeID, handler EventHandler) SubscriptionToken {
	return w.events.Subscribe(t, handler)
}

func (w *World) Unsubscribe(token SubscriptionToken) error {
	return w.events.Unsubscribe(token)
}

// --- Observability ---------------------------------------------------------

// ColumnStats is the per-column half of the Stats() contract.
type ColumnStats struct {
	Type       ComponentType `json:"type"`
	Size       int           `json:"size"`
	Capacity   int           `json:"capacity"`
	LoadFactor float64       `json:"load_factor"`
	Reallocs   int64         `json:"reallocs"`
}

// WorldStats is the full Stats() observability snapshot SPEC_FULL.md §6
// requires.
type WorldStats struct {
	Entities  EntityManagerStats `json:"entities"`
	Columns   []ColumnStats      `json:"columns"`
	Scheduler SchedulerStats     `json:"scheduler"`
	Events    EventBusStats      `json:"events"`
	Queries   QueryStats         `json:"queries"`
	Archetypes int               `json:"archetypes"`
}

func (w *World) Stats() WorldStats {
	w.mutex.RLock()
	cols := make([]ColumnStats, 0, len(w.columns))
	for id, col := range w.columns {
		schema, _ := w.registry.SchemaOf(id)
		cols = append(cols, ColumnStats{
			Type:       schema.Name,
			Size:       col.Size(),
			Capacity:   col.Capacity(),
			LoadFactor: col.LoadFactor(),
			Reallocs:   col.Reallocs(),
		})
	}
	w.mutex.RUnlock()

	return WorldStats{
		Entities:   w.entities.Stats(),
		Columns:    cols,
		Scheduler:  w.scheduler.Stats(),
		Events:     w.events.Stats(),
		Queries:    w.query.Stats(),
		Archetypes: w.archetype.BucketCount(),
	}
}

func (w *World) Config() WorldConfig { return w.cfg }

func (w *World) TypeIDOf(name ComponentType) (TypeID, bool) { return w.registry.TypeIDOf(name) }
