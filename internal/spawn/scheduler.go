package spawn

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/udisondev/regionspawn/internal/catalog"
	"github.com/udisondev/regionspawn/internal/config"
	"github.com/udisondev/regionspawn/internal/model"
)

// regionTask is the running spawn loop of one region.
type regionTask struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Option customizes a Scheduler.
type Option func(*Scheduler)

// WithRandom sets the randomness source.
func WithRandom(rng Random) Option {
	return func(s *Scheduler) { s.rng = rng }
}

// WithRecorder sets the statistics sink.
func WithRecorder(r Recorder) Option {
	return func(s *Scheduler) { s.recorder = r }
}

// Scheduler runs one periodic spawn loop per active region.
type Scheduler struct {
	catalog  catalog.RegionCatalog
	tracker  *Tracker
	host     Host
	settings *config.Settings
	cfg      config.SpawnConfig
	rng      Random
	recorder Recorder
	safety   *SafetyChecker

	cycleLocks sync.Map // map[string]*sync.Mutex

	mu      sync.Mutex
	tasks   map[string]*regionTask
	pending map[string]*time.Timer
	closed  bool
}

// NewScheduler creates a scheduler with every region inactive.
func NewScheduler(
	cat catalog.RegionCatalog,
	tracker *Tracker,
	host Host,
	settings *config.Settings,
	cfg config.SpawnConfig,
	opts ...Option,
) *Scheduler {
	s := &Scheduler{
		catalog:  cat,
		tracker:  tracker,
		host:     host,
		settings: settings,
		cfg:      cfg.WithDefaults(),
		rng:      DefaultRandom,
		recorder: nopRecorder{},
		tasks:    make(map[string]*regionTask),
		pending:  make(map[string]*time.Timer),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.safety = NewSafetyChecker(host, s.rng)
	return s
}

// Activate starts the spawn loop of a region.
// No-op for an active region, an unknown region or a closed scheduler.
// Returns true if a loop was started.
func (s *Scheduler) Activate(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activateLocked(name)
}

func (s *Scheduler) activateLocked(name string) bool {
	if s.closed {
		return false
	}
	if _, ok := s.catalog.Region(name); !ok {
		slog.Warn("activate unknown region", "region", name)
		return false
	}
	if _, active := s.tasks[name]; active {
		return false
	}

	ctx, cancel := context.WithCancel(context.Background())
	task := &regionTask{cancel: cancel, done: make(chan struct{})}
	s.tasks[name] = task
	go s.loop(ctx, name, task.done)

	slog.Debug("region activated", "region", name)
	return true
}

// Deactivate stops the spawn loop of a region and waits for it to exit.
// Tracked actors are released and, when configured, removed from the host.
// A pending reactivation is cancelled. Returns false if the region was inactive.
func (s *Scheduler) Deactivate(name string) bool {
	s.mu.Lock()
	s.cancelPendingLocked(name)
	task, active := s.tasks[name]
	delete(s.tasks, name)
	s.mu.Unlock()

	if !active {
		return false
	}

	task.cancel()
	<-task.done

	ids := s.tracker.ReleaseRegion(name)
	if s.cfg.DespawnOnDeactivate {
		for _, id := range ids {
			s.host.Remove(id)
		}
	}

	slog.Debug("region deactivated", "region", name, "released", len(ids))
	return true
}

// ActivateAll activates every catalog region. Returns number started.
func (s *Scheduler) ActivateAll() int {
	started := 0
	for _, name := range s.catalog.RegionNames() {
		if s.Activate(name) {
			started++
		}
	}
	slog.Info("regions activated", "count", started)
	return started
}

// DeactivateAll stops every active region and every pending reactivation.
// Returns number stopped.
func (s *Scheduler) DeactivateAll() int {
	s.mu.Lock()
	for name := range s.pending {
		s.cancelPendingLocked(name)
	}
	s.mu.Unlock()

	stopped := 0
	for _, name := range s.ActiveRegions() {
		if s.Deactivate(name) {
			stopped++
		}
	}
	slog.Info("regions deactivated", "count", stopped)
	return stopped
}

// Close deactivates everything and refuses further activations.
func (s *Scheduler) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.DeactivateAll()
}

// ReactivateAfter activates name once d has elapsed.
// A later Deactivate, DeactivateAll or Close cancels it. The timer claims its
// pending entry and starts the loop under one lock, so a concurrent Deactivate
// either cancels the timer or finds the started loop.
func (s *Scheduler) ReactivateAfter(name string, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.cancelPendingLocked(name)

	var t *time.Timer
	t = time.AfterFunc(d, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if current, ok := s.pending[name]; !ok || current != t {
			return
		}
		delete(s.pending, name)
		s.activateLocked(name)
	})
	s.pending[name] = t
}

// PendingReactivations returns number of scheduled reactivations.
func (s *Scheduler) PendingReactivations() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

func (s *Scheduler) cancelPendingLocked(name string) {
	if t, ok := s.pending[name]; ok {
		t.Stop()
		delete(s.pending, name)
	}
}

// IsActive reports whether the region has a running loop.
func (s *Scheduler) IsActive(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.tasks[name]
	return ok
}

// ActiveCount returns number of active regions.
func (s *Scheduler) ActiveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

// ActiveRegions returns sorted names of active regions.
func (s *Scheduler) ActiveRegions() []string {
	s.mu.Lock()
	names := make([]string, 0, len(s.tasks))
	for name := range s.tasks {
		names = append(names, name)
	}
	s.mu.Unlock()
	slices.Sort(names)
	return names
}

// loop waits the initial delay, then runs one cycle per interval until ctx ends.
func (s *Scheduler) loop(ctx context.Context, name string, done chan struct{}) {
	defer close(done)

	timer := time.NewTimer(s.cfg.InitialDelay)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		s.RunCycle(ctx, name)
		timer.Reset(s.interval(name))
	}
}

// interval is the region's spawn interval plus the global offset, re-read every cycle.
func (s *Scheduler) interval(name string) time.Duration {
	base := model.DefaultRegionSpawnInterval
	if region, ok := s.catalog.Region(name); ok {
		base = region.SpawnInterval()
	}
	return base + s.settings.SpawnIntervalOffset()
}

func (s *Scheduler) cycleLock(name string) *sync.Mutex {
	v, _ := s.cycleLocks.LoadOrStore(name, &sync.Mutex{})
	return v.(*sync.Mutex)
}

// RunCycle runs one spawn cycle for a region and returns the number of actors spawned.
// Cycles of the same region never overlap. Panics are recovered and logged.
func (s *Scheduler) RunCycle(ctx context.Context, name string) (spawned int) {
	lock := s.cycleLock(name)
	lock.Lock()
	defer lock.Unlock()

	defer func() {
		if r := recover(); r != nil {
			slog.Error("spawn cycle panicked", "region", name, "panic", r)
		}
	}()

	if !s.settings.Enabled() {
		return 0
	}

	region, ok := s.catalog.Region(name)
	if !ok {
		slog.Warn("spawn cycle for unknown region", "region", name)
		return 0
	}
	if !s.host.HasWorld(region.World()) {
		slog.Debug("spawn cycle skipped, world missing", "region", name, "world", region.World())
		return 0
	}
	if !s.host.AnyObserverWithin(region.Center(), s.cfg.DetectionRange) {
		return 0
	}

	if n := s.tracker.Prune(name, isAlive(s.host)); n > 0 {
		s.recorder.Pruned(name, n)
	}

	deficit := region.MaxPopulation() - s.tracker.Count(name)
	if deficit <= 0 {
		return 0
	}

	batch := min(deficit, s.cfg.MaxBatch)
	for range batch {
		if ctx.Err() != nil {
			return spawned
		}

		id, ok := s.spawnOne(ctx, region)
		if !ok {
			s.recorder.SlotFailed(name)
			continue
		}
		s.tracker.Register(name, id)
		s.recorder.Spawned(name)
		spawned++

		if !sleepCtx(ctx, s.cfg.SpawnPause) {
			return spawned
		}
	}

	if spawned > 0 {
		slog.Debug("spawn cycle finished", "region", name, "spawned", spawned, "population", s.tracker.Count(name))
	}
	return spawned
}

// spawnOne fills one population slot, trying up to MaxAttempts placements.
func (s *Scheduler) spawnOne(ctx context.Context, region *model.Region) (model.ActorID, bool) {
	if region.TemplateCount() == 0 {
		return model.ActorID{}, false
	}

	for range s.cfg.MaxAttempts {
		pos, ok := s.safety.FindSafePoint(region)
		if !ok {
			continue
		}

		tmplID := region.TemplateAt(s.rng.IntN(region.TemplateCount()))
		tmpl, ok := s.catalog.Template(tmplID)
		if !ok {
			slog.Debug("region references unknown template", "region", region.Name(), "template", tmplID)
			continue
		}

		req := NewSpawnRequest(tmpl, rollLevel(region, s.rng), pos)
		id, err := s.host.Spawn(ctx, req)
		if err != nil {
			slog.Debug("spawn rejected by host", "region", region.Name(), "template", tmplID, "error", err)
			continue
		}
		return id, true
	}
	return model.ActorID{}, false
}

// sleepCtx waits d or until ctx ends. Returns false if ctx ended first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
