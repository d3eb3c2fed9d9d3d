// Package ecs provides the core Entity Component System framework for Muscle Dreamer.
package ecs

// System is the polymorphic record SPEC_FULL.md §3 describes: a stable
// name, a phase tag, and an Update callable. Declared dependencies are
// supplied at RegisterSystem time, not on the System itself, so the same
// System value can be wired into different dependency graphs by different
// hosts without re-implementing it.
type System interface {
	Name() SystemType
	Phase() Phase
	Update(world *World, dt float64) error
}

// SystemMetrics is the per-system half of the Stats() observability
// contract.
type SystemMetrics struct {
	Name            SystemType `json:"name"`
	CallCount       int64      `json:"call_count"`
	LastNanos       int64      `json:"last_ns"`
	AverageNanos    int64      `json:"average_ns"`
	CumulativeNanos int64      `json:"cumulative_ns"`
	ErrorCount      int64      `json:"error_count"`
}

// systemRecord is the scheduler's internal bookkeeping for one registered
// system: the System itself plus its declared dependencies and running
// timing stats.
type systemRecord struct {
	system       System
	dependencies []SystemType
	metrics      SystemMetrics
}
