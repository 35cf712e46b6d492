package monitor

import (
	"context"
	"log/slog"
	"maps"
	"sync"
	"sync/atomic"
	"time"

	"github.com/udisondev/regionspawn/internal/config"
	"github.com/udisondev/regionspawn/internal/model"
)

// ObserverCounter reports observers online.
type ObserverCounter interface {
	ObserverCount() int
}

// ActorCounter reports tracked actors.
type ActorCounter interface {
	TotalCount() int
}

// RegionCounter reports regions with a running spawn loop.
type RegionCounter interface {
	ActiveCount() int
}

// SnapshotObserver is notified of every new snapshot.
type SnapshotObserver interface {
	Observe(s model.PerformanceSnapshot)
}

// Metric keys returned by Sampler.Metrics.
const (
	MetricMemoryUsed     = "memory_used_mb"
	MetricMemoryFree     = "memory_free_mb"
	MetricObservers      = "observers"
	MetricActiveActors   = "active_actors"
	MetricActiveRegions  = "active_regions"
	MetricTickRate       = "tick_rate"
	MetricActorsDefeated = "actors_defeated"
	MetricItemsGranted   = "items_granted"
)

// SamplerOption customizes a Sampler.
type SamplerOption func(*Sampler)

// WithOptimizer hands each new history to o when auto-optimization is on.
func WithOptimizer(o *Optimizer) SamplerOption {
	return func(s *Sampler) { s.optimizer = o }
}

// WithSnapshotObserver registers a snapshot sink such as the Prometheus exporter.
func WithSnapshotObserver(obs SnapshotObserver) SamplerOption {
	return func(s *Sampler) { s.sink = obs }
}

// WithSettings enables debug logging of every sample when Settings.Debug is on.
func WithSettings(settings *config.Settings) SamplerOption {
	return func(s *Sampler) { s.settings = settings }
}

// WithSamplerClock replaces time.Now.
func WithSamplerClock(now func() time.Time) SamplerOption {
	return func(s *Sampler) { s.now = now }
}

// Sampler periodically records a PerformanceSnapshot.
type Sampler struct {
	cfg       config.PerformanceConfig
	probe     MemoryProbe
	observers ObserverCounter
	actors    ActorCounter
	regions   RegionCounter
	history   *History
	activity  *Activity
	optimizer *Optimizer
	sink      SnapshotObserver
	settings  *config.Settings
	now       func() time.Time

	autoOptimize atomic.Bool

	mu      sync.Mutex
	last    time.Time
	metrics map[string]float64
	running bool
	stopped bool

	stopCh chan struct{}
	done   chan struct{}
}

// NewSampler creates a sampler with an empty history of cfg.HistorySize.
func NewSampler(
	cfg config.PerformanceConfig,
	probe MemoryProbe,
	observers ObserverCounter,
	actors ActorCounter,
	regions RegionCounter,
	opts ...SamplerOption,
) *Sampler {
	cfg = cfg.WithDefaults()
	s := &Sampler{
		cfg:       cfg,
		probe:     probe,
		observers: observers,
		actors:    actors,
		regions:   regions,
		history:   NewHistory(cfg.HistorySize),
		activity:  NewActivity(),
		now:       time.Now,
		metrics:   make(map[string]float64),
		stopCh:    make(chan struct{}),
		done:      make(chan struct{}),
	}
	s.autoOptimize.Store(cfg.AutoOptimize)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// History returns the snapshot history.
func (s *Sampler) History() *History {
	return s.history
}

// Activity returns per-player statistics.
func (s *Sampler) Activity() *Activity {
	return s.activity
}

// Optimizer returns the attached optimizer, or nil.
func (s *Sampler) Optimizer() *Optimizer {
	return s.optimizer
}

// nominalPeriodMs is the elapsed time between samples that maps to the nominal rate.
func (s *Sampler) nominalPeriodMs() float64 {
	if s.cfg.NominalPeriodMs > 0 {
		return s.cfg.NominalPeriodMs
	}
	return s.cfg.NominalTickRate * float64(s.cfg.SampleInterval.Milliseconds())
}

// tickRate estimates ticks per second from the gap since the previous sample.
func (s *Sampler) tickRate(now time.Time) float64 {
	if s.last.IsZero() {
		return s.cfg.NominalTickRate
	}
	elapsed := float64(now.Sub(s.last).Milliseconds())
	return min(s.cfg.NominalTickRate, s.nominalPeriodMs()/max(elapsed, s.cfg.MinElapsedMs, 1))
}

// Sample records one snapshot and, with auto-optimization on, lets the optimizer evaluate.
func (s *Sampler) Sample(ctx context.Context) model.PerformanceSnapshot {
	used, free := s.probe.Memory()

	s.mu.Lock()
	now := s.now()
	snap := model.PerformanceSnapshot{
		Timestamp:     now,
		MemoryUsedMB:  used,
		MemoryFreeMB:  free,
		Observers:     s.observers.ObserverCount(),
		ActiveActors:  s.actors.TotalCount(),
		ActiveRegions: s.regions.ActiveCount(),
		TickRate:      s.tickRate(now),
	}
	s.last = now
	s.metrics[MetricMemoryUsed] = float64(snap.MemoryUsedMB)
	s.metrics[MetricMemoryFree] = float64(snap.MemoryFreeMB)
	s.metrics[MetricObservers] = float64(snap.Observers)
	s.metrics[MetricActiveActors] = float64(snap.ActiveActors)
	s.metrics[MetricActiveRegions] = float64(snap.ActiveRegions)
	s.metrics[MetricTickRate] = snap.TickRate
	s.mu.Unlock()

	s.history.Append(snap)
	if s.sink != nil {
		s.sink.Observe(snap)
	}

	if s.settings != nil && s.settings.Debug() {
		slog.Info("performance sample",
			"memory_mb", snap.MemoryUsedMB,
			"observers", snap.Observers,
			"actors", snap.ActiveActors,
			"tick_rate", snap.TickRate,
			"status", snap.Status())
	}

	if s.optimizer != nil && s.autoOptimize.Load() {
		s.optimizer.Evaluate(ctx, s.history.All())
	}
	return snap
}

// SetAutoOptimize turns evaluation after every sample on or off.
func (s *Sampler) SetAutoOptimize(on bool) {
	s.autoOptimize.Store(on)
}

// AutoOptimize reports whether every sample is handed to the optimizer.
func (s *Sampler) AutoOptimize() bool {
	return s.autoOptimize.Load()
}

// Start samples every SampleInterval until ctx ends or Stop is called.
// Returns immediately when already stopped or running.
func (s *Sampler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.stopped || s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.mu.Unlock()
	defer close(s.done)

	ticker := time.NewTicker(s.cfg.SampleInterval)
	defer ticker.Stop()

	slog.Info("performance sampler started", "interval", s.cfg.SampleInterval)

	for {
		select {
		case <-ctx.Done():
			slog.Info("performance sampler stopping")
			return nil
		case <-s.stopCh:
			slog.Info("performance sampler stopped")
			return nil
		case <-ticker.C:
			s.safeSample(ctx)
		}
	}
}

func (s *Sampler) safeSample(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("performance sample panicked", "panic", r)
		}
	}()
	s.Sample(ctx)
}

// Stop ends Start and waits for an in-flight sample to finish.
// Safe to call more than once.
func (s *Sampler) Stop() {
	s.mu.Lock()
	if !s.stopped {
		s.stopped = true
		close(s.stopCh)
	}
	running := s.running
	s.mu.Unlock()

	if running {
		<-s.done
	}
}

// RecentSnapshots returns up to n newest snapshots, oldest first.
func (s *Sampler) RecentSnapshots(n int) []model.PerformanceSnapshot {
	return s.history.Recent(n)
}

// Metrics returns a copy of the latest metric values plus activity totals.
func (s *Sampler) Metrics() map[string]float64 {
	s.mu.Lock()
	out := maps.Clone(s.metrics)
	s.mu.Unlock()

	kills, items := s.activity.Totals()
	out[MetricActorsDefeated] = float64(kills)
	out[MetricItemsGranted] = float64(items)
	return out
}

// Reset clears history, metrics, activity and the optimizer cooldown.
// The next sample reports the nominal tick rate.
func (s *Sampler) Reset() {
	s.mu.Lock()
	clear(s.metrics)
	s.last = time.Time{}
	s.mu.Unlock()

	s.history.Reset()
	s.activity.Reset()
	if s.optimizer != nil {
		s.optimizer.Reset()
	}
}
