// Package telemetry exports a World's Stats() snapshot as Prometheus
// metrics. It is a pure consumer of the ecs package's public surface: it
// never reaches into World internals, only the Stats() struct every host
// already has access to.
package telemetry

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"muscle-dreamer/internal/core/ecs"
)

// Collector polls a World on demand and republishes its Stats() as gauges
// and counters. Collect is called by the Prometheus registry's own scrape
// goroutine, so it takes the World's read lock exactly like any other
// telemetry reader the host might run between ticks.
type Collector struct {
	world *ecs.World

	entitiesAlive      *prometheus.Desc
	entitiesCreated    *prometheus.Desc
	entitiesDestroyed  *prometheus.Desc
	columnLoadFactor   *prometheus.Desc
	columnSize         *prometheus.Desc
	systemDuration     *prometheus.Desc
	systemErrors       *prometheus.Desc
	eventQueueLen      *prometheus.Desc
	accumulatorSeconds *prometheus.Desc
	queryHits          *prometheus.Desc
	queryMisses        *prometheus.Desc
}

// NewCollector builds a Collector for world. Register it with a
// prometheus.Registry (or promauto's default) to expose /metrics.
func NewCollector(world *ecs.World) *Collector {
	return &Collector{
		world:              world,
		entitiesAlive:      prometheus.NewDesc("ecs_entities_alive", "Number of currently live entities.", nil, nil),
		entitiesCreated:    prometheus.NewDesc("ecs_entities_created_total", "Total entities ever created.", nil, nil),
		entitiesDestroyed:  prometheus.NewDesc("ecs_entities_destroyed_total", "Total entities ever destroyed.", nil, nil),
		columnLoadFactor:   prometheus.NewDesc("ecs_column_load_factor", "Size/Capacity for a component column.", []string{"component"}, nil),
		columnSize:         prometheus.NewDesc("ecs_column_size", "Live row count for a component column.", []string{"component"}, nil),
		systemDuration:     prometheus.NewDesc("ecs_system_duration_seconds", "Average per-call duration of a registered system.", []string{"system"}, nil),
		systemErrors:       prometheus.NewDesc("ecs_system_errors_total", "Total errors a registered system has returned.", []string{"system"}, nil),
		eventQueueLen:      prometheus.NewDesc("ecs_event_bus_queue_len", "Pending write-queue length for an event type.", []string{"event_type"}, nil),
		accumulatorSeconds: prometheus.NewDesc("ecs_scheduler_accumulator_seconds", "Unconsumed fixed-timestep accumulator time.", nil, nil),
		queryHits:          prometheus.NewDesc("ecs_query_cache_hits_total", "Total query resolutions served from cache.", nil, nil),
		queryMisses:        prometheus.NewDesc("ecs_query_cache_misses_total", "Total query resolutions that required a rescan.", nil, nil),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.entitiesAlive
	ch <- c.entitiesCreated
	ch <- c.entitiesDestroyed
	ch <- c.columnLoadFactor
	ch <- c.columnSize
	ch <- c.systemDuration
	ch <- c.systemErrors
	ch <- c.eventQueueLen
	ch <- c.accumulatorSeconds
	ch <- c.queryHits
	ch <- c.queryMisses
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	stats := c.world.Stats()

	ch <- prometheus.MustNewConstMetric(c.entitiesAlive, prometheus.GaugeValue, float64(stats.Entities.Alive))
	ch <- prometheus.MustNewConstMetric(c.entitiesCreated, prometheus.CounterValue, float64(stats.Entities.Created))
	ch <- prometheus.MustNewConstMetric(c.entitiesDestroyed, prometheus.CounterValue, float64(stats.Entities.Destroyed))

	for _, col := range stats.Columns {
		ch <- prometheus.MustNewConstMetric(c.columnLoadFactor, prometheus.GaugeValue, col.LoadFactor, string(col.Type))
		ch <- prometheus.MustNewConstMetric(c.columnSize, prometheus.GaugeValue, float64(col.Size), string(col.Type))
	}

	for _, sys := range stats.Scheduler.Systems {
		ch <- prometheus.MustNewConstMetric(c.systemDuration, prometheus.GaugeValue, float64(sys.AverageNanos)/1e9, string(sys.Name))
		ch <- prometheus.MustNewConstMetric(c.systemErrors, prometheus.CounterValue, float64(sys.ErrorCount), string(sys.Name))
	}

	for eventType, length := range stats.Events.QueueLen {
		ch <- prometheus.MustNewConstMetric(c.eventQueueLen, prometheus.GaugeValue, float64(length), strconv.FormatUint(uint64(eventType), 10))
	}

	ch <- prometheus.MustNewConstMetric(c.accumulatorSeconds, prometheus.GaugeValue, stats.Scheduler.AccumulatorSeconds)
	ch <- prometheus.MustNewConstMetric(c.queryHits, prometheus.CounterValue, float64(stats.Queries.Hits))
	ch <- prometheus.MustNewConstMetric(c.queryMisses, prometheus.CounterValue, float64(stats.Queries.Misses))
}

// Handler builds an http.Handler serving world's metrics in the Prometheus
// exposition format, registered on its own registry so it never collides
// with a host's default global registry.
func Handler(world *ecs.World) http.Handler {
	registry := prometheus.NewRegistry()
	registry.MustRegister(NewCollector(world))
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
