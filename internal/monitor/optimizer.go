package monitor

import (
	"context"
	"log/slog"
	"runtime/debug"
	"slices"
	"sync"
	"time"

	"github.com/udisondev/regionspawn/internal/config"
	"github.com/udisondev/regionspawn/internal/model"
)

// Category names a class of optimization action.
type Category string

const (
	CategoryMemory     Category = "memory"
	CategoryTickRate   Category = "tick_rate"
	CategoryPopulation Category = "population"
)

// Flusher durably saves player data so memory can be reclaimed.
type Flusher interface {
	FlushAll(ctx context.Context) error
}

// RegionController is the part of the scheduler the optimizer drives.
type RegionController interface {
	Deactivate(name string) bool
	ReactivateAfter(name string, d time.Duration)
}

// PopulationCounts reports tracked population per region.
type PopulationCounts interface {
	Counts() map[string]int
}

// OptimizationRecorder receives fired categories.
type OptimizationRecorder interface {
	Optimized(categories []Category)
}

// Result describes one optimizer run.
type Result struct {
	At                  time.Time
	Snapshot            model.PerformanceSnapshot
	Categories          []Category
	Deactivated         []string
	SpawnIntervalOffset time.Duration
	CleanupInterval     time.Duration
}

// Fired reports whether category c ran.
func (r Result) Fired(c Category) bool {
	return slices.Contains(r.Categories, c)
}

// OptimizerOption customizes an Optimizer.
type OptimizerOption func(*Optimizer)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) OptimizerOption {
	return func(o *Optimizer) { o.now = now }
}

// WithMemoryReclaimer replaces debug.FreeOSMemory.
func WithMemoryReclaimer(fn func()) OptimizerOption {
	return func(o *Optimizer) { o.reclaim = fn }
}

// WithOptimizationRecorder sets the sink for fired categories.
func WithOptimizationRecorder(r OptimizationRecorder) OptimizerOption {
	return func(o *Optimizer) { o.recorder = r }
}

// Optimizer throttles spawning when a snapshot crosses a load threshold.
// Runs are rate limited by a cooldown.
type Optimizer struct {
	cfg        config.PerformanceConfig
	settings   *config.Settings
	regions    RegionController
	population PopulationCounts
	flusher    Flusher
	recorder   OptimizationRecorder
	now        func() time.Time
	reclaim    func()

	mu      sync.Mutex
	lastRun time.Time
	last    Result
	hasLast bool
}

// NewOptimizer creates an optimizer. flusher may be nil.
func NewOptimizer(
	cfg config.PerformanceConfig,
	settings *config.Settings,
	regions RegionController,
	population PopulationCounts,
	flusher Flusher,
	opts ...OptimizerOption,
) *Optimizer {
	o := &Optimizer{
		cfg:        cfg.WithDefaults(),
		settings:   settings,
		regions:    regions,
		population: population,
		flusher:    flusher,
		now:        time.Now,
		reclaim:    debug.FreeOSMemory,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Triggers returns the categories whose threshold s crosses.
func (o *Optimizer) Triggers(s model.PerformanceSnapshot) []Category {
	var cats []Category
	if s.MemoryUsedMB > o.cfg.MemoryThresholdMB {
		cats = append(cats, CategoryMemory)
	}
	if s.TickRate < o.cfg.TickRateThreshold {
		cats = append(cats, CategoryTickRate)
	}
	if s.ActiveActors > o.cfg.PopulationLimit {
		cats = append(cats, CategoryPopulation)
	}
	return cats
}

// Evaluate runs the actions for the newest snapshot of history when a
// threshold is crossed, history holds at least MinHistory snapshots and the
// cooldown has passed since the last run. Returns false when nothing ran.
func (o *Optimizer) Evaluate(ctx context.Context, history []model.PerformanceSnapshot) (Result, bool) {
	if len(history) == 0 || len(history) < o.cfg.MinHistory {
		return Result{}, false
	}

	latest := history[len(history)-1]
	cats := o.Triggers(latest)
	if len(cats) == 0 {
		return Result{}, false
	}

	o.mu.Lock()
	now := o.now()
	if !o.lastRun.IsZero() && now.Sub(o.lastRun) < o.cfg.OptimizeCooldown {
		o.mu.Unlock()
		return Result{}, false
	}
	o.lastRun = now
	o.mu.Unlock()

	return o.apply(ctx, now, latest, cats), true
}

// Force runs the actions for s ignoring history length and cooldown.
// The cooldown restarts from now.
func (o *Optimizer) Force(ctx context.Context, s model.PerformanceSnapshot) Result {
	o.mu.Lock()
	now := o.now()
	o.lastRun = now
	o.mu.Unlock()

	return o.apply(ctx, now, s, o.Triggers(s))
}

// LastResult returns the most recent run.
func (o *Optimizer) LastResult() (Result, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.last, o.hasLast
}

// Reset forgets the last run so the next trigger fires without cooldown.
func (o *Optimizer) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.lastRun = time.Time{}
	o.last = Result{}
	o.hasLast = false
}

func (o *Optimizer) apply(ctx context.Context, now time.Time, s model.PerformanceSnapshot, cats []Category) Result {
	res := Result{
		At:                  now,
		Snapshot:            s,
		Categories:          cats,
		SpawnIntervalOffset: o.settings.SpawnIntervalOffset(),
		CleanupInterval:     o.settings.CleanupInterval(),
	}

	slog.Info("optimization started",
		"categories", cats,
		"memory_mb", s.MemoryUsedMB,
		"tick_rate", s.TickRate,
		"actors", s.ActiveActors)

	for _, c := range cats {
		switch c {
		case CategoryMemory:
			o.reclaimMemory(ctx)
		case CategoryTickRate:
			res.SpawnIntervalOffset = o.settings.IncreaseSpawnInterval(o.cfg.SpawnIntervalStep)
			res.CleanupInterval = o.settings.DecreaseCleanupInterval(o.cfg.CleanupIntervalStep, o.cfg.CleanupIntervalMin)
		case CategoryPopulation:
			res.Deactivated = o.thinCrowdedRegions()
		}
	}

	if err := o.settings.Save(); err != nil {
		slog.Error("saving runtime settings", "error", err)
	}

	if o.recorder != nil {
		o.recorder.Optimized(cats)
	}

	o.mu.Lock()
	o.last = res
	o.hasLast = true
	o.mu.Unlock()

	slog.Info("optimization finished",
		"categories", cats,
		"spawn_interval_offset", res.SpawnIntervalOffset,
		"cleanup_interval", res.CleanupInterval,
		"deactivated", res.Deactivated)
	return res
}

func (o *Optimizer) reclaimMemory(ctx context.Context) {
	o.reclaim()
	if o.flusher == nil {
		return
	}
	if err := o.flusher.FlushAll(ctx); err != nil {
		slog.Error("flushing player data", "error", err)
	}
}

// thinCrowdedRegions deactivates every region above CrowdedRegionLimit and
// schedules its reactivation. Returns the deactivated names.
func (o *Optimizer) thinCrowdedRegions() []string {
	counts := o.population.Counts()
	names := make([]string, 0, len(counts))
	for name, n := range counts {
		if n > o.cfg.CrowdedRegionLimit {
			names = append(names, name)
		}
	}
	slices.Sort(names)

	var deactivated []string
	for _, name := range names {
		if !o.regions.Deactivate(name) {
			continue
		}
		o.regions.ReactivateAfter(name, o.cfg.ReactivateDelay)
		deactivated = append(deactivated, name)
	}
	return deactivated
}
