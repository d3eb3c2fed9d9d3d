package ecs

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Scheduler owns the registered systems, keeps their execution order
// topologically consistent with declared dependencies, and drives the
// fixed-timestep accumulator described in SPEC_FULL.md §4.4. It replaces
// this package's previous RecomputeExecutionOrder, which was a literal
// no-op ("Simple implementation - no dependency ordering yet") — the sort
// here is a real Kahn's-algorithm topological sort.
type Scheduler struct {
	mutex sync.RWMutex
	log   zerolog.Logger

	records map[SystemType]*systemRecord
	order   []SystemType // last valid topological order; preserved on cycle

	fixedDT time.Duration
	maxDT   time.Duration

	accumulator time.Duration
	paused      bool
	stepPending bool

	dtHistory     []time.Duration
	dtHistoryCap  int
	lastSlowest   SystemType
	lastSlowestNs int64
}

func NewScheduler(cfg WorldConfig, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		log:          log,
		records:      make(map[SystemType]*systemRecord),
		fixedDT:      cfg.FixedDT,
		maxDT:        cfg.MaxDT,
		dtHistoryCap: cfg.DTHistorySize,
	}
}

// RegisterSystem adds a system with its declared dependencies and
// re-derives the execution order. A name collision is DuplicateName; an
// unknown dependency is logged as a warning and ignored (per SPEC_FULL.md
// §4.4) rather than rejected.
func (s *Scheduler) RegisterSystem(sys System, dependencies ...SystemType) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	name := sys.Name()
	if _, exists := s.records[name]; exists {
		return withSystem(ErrDuplicateName, string(name))
	}

	var known []SystemType
	for _, d := range dependencies {
		if _, ok := s.records[d]; !ok {
			s.log.Warn().Str("system", string(name)).Str("dependency", string(d)).
				Msg("dependency on unknown system ignored")
			continue
		}
		known = append(known, d)
	}

	s.records[name] = &systemRecord{
		system:       sys,
		dependencies: known,
		metrics:      SystemMetrics{Name: name},
	}

	return s.recomputeOrderLocked()
}

// UnregisterSystem removes a system and re-derives the execution order.
func (s *Scheduler) UnregisterSystem(name SystemType) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if _, ok := s.records[name]; !ok {
		return withSystem(ErrSystemNotFound, string(name))
	}
	delete(s.records, name)
	for _, rec := range s.records {
		filtered := rec.dependencies[:0]
		for _, d := range rec.dependencies {
			if d != name {
				filtered = append(filtered, d)
			}
		}
		rec.dependencies = filtered
	}
	return s.recomputeOrderLocked()
}

// recomputeOrderLocked runs Kahn's algorithm over the dependency graph.
// Ties within a topological rank are broken by system name in lexical
// order; registration order is not consulted. On a cycle, the prior valid order is left untouched and CyclicDependency is
// returned naming every system still unresolved when the queue dries up.
func (s *Scheduler) recomputeOrderLocked() error {
	indegree := make(map[SystemType]int, len(s.records))
	dependents := make(map[SystemType][]SystemType, len(s.records))
	nameRank := make(map[SystemType]int, len(s.records))

	names := make([]SystemType, 0, len(s.records))
	for name := range s.records {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	for i, name := range names {
		nameRank[name] = i
		indegree[name] = 0
	}
	for name, rec := range s.records {
		for _, dep := range rec.dependencies {
			indegree[name]++
			dependents[dep] = append(dependents[dep], name)
		}
	}

	var ready []SystemType
	for _, name := range names {
		if indegree[name] == 0 {
			ready = append(ready, name)
		}
	}

	var order []SystemType
	for len(ready) > 0 {
		sort.Slice(ready, func(i, j int) bool { return nameRank[ready[i]] < nameRank[ready[j]] })
		next := ready[0]
		ready = ready[1:]
		order = append(order, next)

		for _, dependent := range dependents[next] {
			indegree[dependent]--
			if indegree[dependent] == 0 {
				ready = append(ready, dependent)
			}
		}
	}

	if len(order) != len(s.records) {
		var stuck []string
		for name, deg := range indegree {
			if deg > 0 {
				stuck = append(stuck, string(name))
			}
		}
		sort.Strings(stuck)
		s.log.Error().Strs("systems", stuck).Msg("cyclic system dependency detected")
		return withDetail(ErrCyclicDependency, "systems", stuck)
	}

	s.order = order
	return nil
}

// Pause halts Fixed-phase execution starting with the next ExecuteFrame
// call; Variable-phase systems keep running so overlays remain responsive.
func (s *Scheduler) Pause() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.paused = true
}

func (s *Scheduler) Resume() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.paused = false
}

// Step schedules exactly one Fixed iteration on the next ExecuteFrame call,
// regardless of pause state or accumulator contents.
func (s *Scheduler) Step() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.stepPending = true
}

func (s *Scheduler) IsPaused() bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.paused
}

// fixedBarrier is called by World between the Fixed accumulator loop and
// the Variable pass, letting the event bus swap buffers at exactly the
// point SPEC_FULL.md §4.5 names "end of Fixed-phase block".
type fixedBarrier func()

// ExecuteFrame runs the accumulator algorithm from SPEC_FULL.md §4.4 step
// by step. runFixed and runVariable are supplied by World so the scheduler
// itself never needs to know about components or the event bus.
func (s *Scheduler) ExecuteFrame(dtIn time.Duration, runFixed func(dt time.Duration, name SystemType) error, runVariable func(dt time.Duration, name SystemType) error, barrier fixedBarrier) error {
	s.mutex.Lock()

	dt := dtIn
	if dt > s.maxDT {
		dt = s.maxDT
	}
	s.pushHistoryLocked(dt)

	// While paused with no step pending, the Fixed loop is skipped and the
	// accumulator does not advance; the barrier and Variable systems still run.
	skipFixed := s.paused && !s.stepPending
	if !skipFixed {
		s.accumulator += dt
	}
	order := append([]SystemType(nil), s.order...)
	records := s.records
	step := s.stepPending
	s.stepPending = false
	s.mutex.Unlock()

	ran := false
	for !skipFixed {
		s.mutex.Lock()
		haveTime := s.accumulator >= s.fixedDT
		s.mutex.Unlock()
		if !haveTime && !(step && !ran) {
			break
		}

		for _, name := range order {
			rec := records[name]
			if rec.system.Phase() != PhaseFixed {
				continue
			}
			if err := s.runTimed(rec, name, s.fixedDT, runFixed); err != nil {
				return err
			}
		}
		ran = true

		s.mutex.Lock()
		s.accumulator -= s.fixedDT
		s.mutex.Unlock()

		if step {
			break
		}
	}

	if barrier != nil {
		barrier()
	}

	var slowestName SystemType
	var slowestNs int64
	for _, name := range order {
		rec := records[name]
		if rec.system.Phase() != PhaseVariable {
			continue
		}
		if err := s.runTimed(rec, name, dt, runVariable); err != nil {
			return err
		}
	}
	for _, name := range order {
		rec := records[name]
		if rec.metrics.LastNanos > slowestNs {
			slowestNs = rec.metrics.LastNanos
			slowestName = name
		}
	}

	s.mutex.Lock()
	s.lastSlowest = slowestName
	s.lastSlowestNs = slowestNs
	s.mutex.Unlock()

	return nil
}

func (s *Scheduler) runTimed(rec *systemRecord, name SystemType, dt time.Duration, run func(time.Duration, SystemType) error) error {
	start := time.Now()
	err := run(dt, name)
	elapsed := time.Since(start).Nanoseconds()

	s.mutex.Lock()
	rec.metrics.CallCount++
	rec.metrics.LastNanos = elapsed
	rec.metrics.CumulativeNanos += elapsed
	rec.metrics.AverageNanos = rec.metrics.CumulativeNanos / rec.metrics.CallCount
	if err != nil {
		rec.metrics.ErrorCount++
	}
	s.mutex.Unlock()

	if err != nil {
		s.log.Error().Err(err).Str("system", string(name)).Msg("system update failed")
		return fmt.Errorf("system %s: %w", name, err)
	}
	return nil
}

func (s *Scheduler) pushHistoryLocked(dt time.Duration) {
	s.dtHistory = append(s.dtHistory, dt)
	if len(s.dtHistory) > s.dtHistoryCap {
		s.dtHistory = s.dtHistory[len(s.dtHistory)-s.dtHistoryCap:]
	}
}

// SchedulerStats is the scheduler's half of the Stats() contract.
type SchedulerStats struct {
	AccumulatorSeconds float64         `json:"accumulator_seconds"`
	FixedDT            time.Duration   `json:"fixed_dt"`
	Paused             bool            `json:"paused"`
	LastSlowestSystem  SystemType      `json:"last_slowest_system"`
	LastSlowestNanos   int64           `json:"last_slowest_ns"`
	DTHistorySeconds   []float64       `json:"dt_history_seconds"`
	Order              []SystemType    `json:"order"`
	Systems            []SystemMetrics `json:"systems"`
}

func (s *Scheduler) Stats() SchedulerStats {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	hist := make([]float64, len(s.dtHistory))
	for i, d := range s.dtHistory {
		hist[i] = d.Seconds()
	}
	metrics := make([]SystemMetrics, 0, len(s.records))
	for _, name := range s.order {
		metrics = append(metrics, s.records[name].metrics)
	}

	return SchedulerStats{
		AccumulatorSeconds: s.accumulator.Seconds(),
		FixedDT:            s.fixedDT,
		Paused:             s.paused,
		LastSlowestSystem:  s.lastSlowest,
		LastSlowestNanos:   s.lastSlowestNs,
		DTHistorySeconds:   hist,
		Order:              append([]SystemType(nil), s.order...),
		Systems:            metrics,
	}
}
