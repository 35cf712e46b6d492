package monitor

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/udisondev/regionspawn/internal/model"
)

const namespace = "regionspawn"

// Exporter publishes spawner metrics to Prometheus.
// Metrics live in a private registry so several exporters can coexist in tests.
type Exporter struct {
	registry *prometheus.Registry

	memoryUsed    prometheus.Gauge
	memoryFree    prometheus.Gauge
	observers     prometheus.Gauge
	actors        prometheus.Gauge
	regions       prometheus.Gauge
	tickRate      prometheus.Gauge
	status        prometheus.Gauge
	spawned       *prometheus.CounterVec
	slotFailures  *prometheus.CounterVec
	pruned        *prometheus.CounterVec
	optimizations *prometheus.CounterVec
	defeated      prometheus.Counter
	itemsGranted  prometheus.Counter
}

// NewExporter creates an exporter with all collectors registered.
func NewExporter() *Exporter {
	e := &Exporter{
		registry: prometheus.NewRegistry(),
		memoryUsed: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "memory_used_megabytes",
			Help:      "Memory used by the process at the last sample.",
		}),
		memoryFree: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "memory_free_megabytes",
			Help:      "Memory available at the last sample.",
		}),
		observers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "observers",
			Help:      "Observers online at the last sample.",
		}),
		actors: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_actors",
			Help:      "Tracked spawned actors at the last sample.",
		}),
		regions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_regions",
			Help:      "Regions with a running spawn loop at the last sample.",
		}),
		tickRate: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "tick_rate",
			Help:      "Estimated simulation ticks per second.",
		}),
		status: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "performance_status",
			Help:      "0 healthy, 1 memory high, 2 warning, 3 critical.",
		}),
		spawned: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "actors_spawned_total",
			Help:      "Actors spawned per region.",
		}, []string{"region"}),
		slotFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "spawn_slot_failures_total",
			Help:      "Population slots left empty after every placement attempt failed.",
		}, []string{"region"}),
		pruned: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "actors_pruned_total",
			Help:      "Dead or vanished actors dropped from tracking per region.",
		}, []string{"region"}),
		optimizations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "optimizations_total",
			Help:      "Optimizer actions run per category.",
		}, []string{"category"}),
		defeated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "actors_defeated_total",
			Help:      "Spawned actors defeated by players.",
		}),
		itemsGranted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "items_granted_total",
			Help:      "Items dropped to players.",
		}),
	}

	e.registry.MustRegister(
		e.memoryUsed, e.memoryFree, e.observers, e.actors, e.regions, e.tickRate, e.status,
		e.spawned, e.slotFailures, e.pruned, e.optimizations, e.defeated, e.itemsGranted,
	)
	return e
}

// Registry exposes the underlying registry.
func (e *Exporter) Registry() *prometheus.Registry {
	return e.registry
}

// Handler serves the registry in Prometheus text format.
func (e *Exporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{})
}

// Observe copies a snapshot into the gauges.
func (e *Exporter) Observe(s model.PerformanceSnapshot) {
	e.memoryUsed.Set(float64(s.MemoryUsedMB))
	e.memoryFree.Set(float64(s.MemoryFreeMB))
	e.observers.Set(float64(s.Observers))
	e.actors.Set(float64(s.ActiveActors))
	e.regions.Set(float64(s.ActiveRegions))
	e.tickRate.Set(s.TickRate)
	e.status.Set(float64(s.Status()))
}

// Spawned counts one spawned actor.
func (e *Exporter) Spawned(region string) {
	e.spawned.WithLabelValues(region).Inc()
}

// SlotFailed counts one empty slot.
func (e *Exporter) SlotFailed(region string) {
	e.slotFailures.WithLabelValues(region).Inc()
}

// Pruned counts ids dropped by pruning.
func (e *Exporter) Pruned(region string, n int) {
	e.pruned.WithLabelValues(region).Add(float64(n))
}

// Optimized counts one run per fired category.
func (e *Exporter) Optimized(categories []Category) {
	for _, c := range categories {
		e.optimizations.WithLabelValues(string(c)).Inc()
	}
}

// Defeated counts one defeated actor and the items it dropped.
func (e *Exporter) Defeated(items int) {
	e.defeated.Inc()
	if items > 0 {
		e.itemsGranted.Add(float64(items))
	}
}
