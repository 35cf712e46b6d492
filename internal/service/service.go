// Package service wires region spawning, cleanup, sampling and optimization
// into one lifecycle and exposes the operations other systems call.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/udisondev/regionspawn/internal/catalog"
	"github.com/udisondev/regionspawn/internal/config"
	"github.com/udisondev/regionspawn/internal/model"
	"github.com/udisondev/regionspawn/internal/monitor"
	"github.com/udisondev/regionspawn/internal/spawn"
)

var (
	ErrUnknownRegion   = errors.New("unknown region")
	ErrUnknownActor    = errors.New("unknown actor")
	ErrUnknownTemplate = errors.New("unknown template")
)

// Host is the running simulation the service manages actors in.
type Host interface {
	spawn.Host
	monitor.ObserverCounter
	monitor.Flusher
}

// Option customizes a Service.
type Option func(*options)

type options struct {
	store    catalog.Store
	granter  spawn.Granter
	exporter *monitor.Exporter
	probe    monitor.MemoryProbe
	rng      spawn.Random
}

// WithStore persists catalog changes made through the service.
func WithStore(store catalog.Store) Option {
	return func(o *options) { o.store = store }
}

// WithGranter delivers rewards for defeated actors.
func WithGranter(g spawn.Granter) Option {
	return func(o *options) { o.granter = g }
}

// WithExporter publishes metrics through e instead of a private exporter.
func WithExporter(e *monitor.Exporter) Option {
	return func(o *options) { o.exporter = e }
}

// WithMemoryProbe replaces the gopsutil process probe.
func WithMemoryProbe(p monitor.MemoryProbe) Option {
	return func(o *options) { o.probe = p }
}

// WithRandom sets the randomness source for spawning and drops.
func WithRandom(rng spawn.Random) Option {
	return func(o *options) { o.rng = rng }
}

// Service owns the tracker, the scheduler, the cleanup task, the sampler and the optimizer.
type Service struct {
	cfg      config.Spawner
	catalog  catalog.RegionCatalog
	store    catalog.Store
	host     Host
	settings *config.Settings
	granter  spawn.Granter
	rng      spawn.Random

	tracker   *spawn.Tracker
	scheduler *spawn.Scheduler
	cleanup   *spawn.Cleanup
	sampler   *monitor.Sampler
	optimizer *monitor.Optimizer
	exporter  *monitor.Exporter

	shutdownOnce sync.Once
	done         chan struct{}
}

// New builds a service. Nothing runs until Run.
func New(cfg config.Spawner, cat catalog.RegionCatalog, host Host, settings *config.Settings, opts ...Option) *Service {
	cfg.Spawn = cfg.Spawn.WithDefaults()
	cfg.Performance = cfg.Performance.WithDefaults()

	o := options{rng: spawn.DefaultRandom}
	for _, opt := range opts {
		opt(&o)
	}
	if o.exporter == nil {
		o.exporter = monitor.NewExporter()
	}
	if o.probe == nil {
		o.probe = monitor.NewProcessProbe()
	}

	tracker := spawn.NewTracker()
	scheduler := spawn.NewScheduler(cat, tracker, host, settings, cfg.Spawn,
		spawn.WithRandom(o.rng),
		spawn.WithRecorder(o.exporter),
	)
	optimizer := monitor.NewOptimizer(cfg.Performance, settings, scheduler, tracker, host,
		monitor.WithOptimizationRecorder(o.exporter),
	)
	sampler := monitor.NewSampler(cfg.Performance, o.probe, host, tracker, scheduler,
		monitor.WithOptimizer(optimizer),
		monitor.WithSnapshotObserver(o.exporter),
		monitor.WithSettings(settings),
	)

	return &Service{
		cfg:       cfg,
		catalog:   cat,
		store:     o.store,
		host:      host,
		settings:  settings,
		granter:   o.granter,
		rng:       o.rng,
		tracker:   tracker,
		scheduler: scheduler,
		cleanup:   spawn.NewCleanup(tracker, host, settings, o.exporter),
		sampler:   sampler,
		optimizer: optimizer,
		exporter:  o.exporter,
		done:      make(chan struct{}),
	}
}

// Run starts cleanup and sampling, activates every region when configured
// and blocks until ctx ends or Shutdown is called. Shutdown always runs before Run returns.
func (s *Service) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return s.cleanup.Start(gctx)
	})
	g.Go(func() error {
		return s.sampler.Start(gctx)
	})
	g.Go(func() error {
		select {
		case <-gctx.Done():
		case <-s.done:
		}
		s.Shutdown()
		return nil
	})

	if s.cfg.ActivateOnStart {
		s.scheduler.ActivateAll()
	}

	slog.Info("spawn service started",
		"regions", len(s.catalog.RegionNames()),
		"enabled", s.settings.Enabled(),
		"active", s.scheduler.ActiveCount())

	if err := g.Wait(); err != nil {
		return fmt.Errorf("spawn service: %w", err)
	}
	return nil
}

// Shutdown stops all spawning and pending reactivations, then the cleanup
// and sampling tasks, then clears tracking. Idempotent.
func (s *Service) Shutdown() {
	s.shutdownOnce.Do(func() {
		stopped := s.scheduler.DeactivateAll()
		s.scheduler.Close()
		s.cleanup.Stop()
		s.sampler.Stop()
		s.tracker.Clear()
		close(s.done)
		slog.Info("spawn service stopped", "regions_deactivated", stopped)
	})
}

// Done is closed once Shutdown has completed.
func (s *Service) Done() <-chan struct{} {
	return s.done
}

// ActivateRegion starts spawning in a region. False for unknown or already active regions.
func (s *Service) ActivateRegion(name string) bool {
	return s.scheduler.Activate(name)
}

// DeactivateRegion stops spawning in a region and releases its actors.
func (s *Service) DeactivateRegion(name string) bool {
	return s.scheduler.Deactivate(name)
}

// ActivateAll activates every catalog region. Returns number started.
func (s *Service) ActivateAll() int {
	return s.scheduler.ActivateAll()
}

// DeactivateAll deactivates every region. Returns number stopped.
func (s *Service) DeactivateAll() int {
	return s.scheduler.DeactivateAll()
}

// IsActive reports whether a region is spawning.
func (s *Service) IsActive(name string) bool {
	return s.scheduler.IsActive(name)
}

// ActiveRegions returns names of regions that are spawning.
func (s *Service) ActiveRegions() []string {
	return s.scheduler.ActiveRegions()
}

// MonsterCount returns the tracked population of a region.
func (s *Service) MonsterCount(region string) int {
	return s.tracker.Count(region)
}

// TotalMonsterCount returns the tracked population across regions.
func (s *Service) TotalMonsterCount() int {
	return s.tracker.TotalCount()
}

// RegionPopulation returns tracked population of every region with actors.
func (s *Service) RegionPopulation() map[string]int {
	return s.tracker.Counts()
}

// OnActorDeath drops id from tracking. Returns false if it was not tracked.
func (s *Service) OnActorDeath(id model.ActorID) bool {
	return s.tracker.Forget(id)
}

// OnActorDefeated computes the rewards for a defeated actor, hands them to
// the granter and drops the actor from tracking. The actor is dropped even
// when granting fails.
func (s *Service) OnActorDefeated(ctx context.Context, id model.ActorID, killer uuid.UUID) ([]spawn.Grant, error) {
	defer s.tracker.Forget(id)

	st, ok := s.host.ActorState(id)
	if !ok {
		return nil, fmt.Errorf("actor %s: %w", id, ErrUnknownActor)
	}
	tmpl, ok := s.catalog.Template(st.TemplateID)
	if !ok {
		return nil, fmt.Errorf("actor %s template %q: %w", id, st.TemplateID, ErrUnknownTemplate)
	}

	grants := spawn.Rewards(tmpl, st.Level, s.rng)

	items := 0
	for _, g := range grants {
		if g.Kind == spawn.GrantItem {
			items += g.Amount
		}
	}
	activity := s.sampler.Activity()
	activity.RecordKill(killer)
	activity.RecordItems(killer, items)
	s.exporter.Defeated(items)

	if s.granter != nil {
		if err := spawn.Deliver(ctx, s.granter, killer, grants); err != nil {
			return grants, fmt.Errorf("rewarding %s for actor %s: %w", killer, id, err)
		}
	}

	slog.Debug("actor defeated", "actor", id, "template", st.TemplateID, "level", st.Level, "killer", killer, "grants", len(grants))
	return grants, nil
}

// SetEnabled flips global spawning and persists the switch.
func (s *Service) SetEnabled(enabled bool) {
	s.settings.SetEnabled(enabled)
	if err := s.settings.Save(); err != nil {
		slog.Error("saving runtime settings", "error", err)
	}
	slog.Info("spawning toggled", "enabled", enabled)
}

// Enabled reports the global spawning switch.
func (s *Service) Enabled() bool {
	return s.settings.Enabled()
}

// SetAutoOptimize turns automatic optimization after each sample on or off.
func (s *Service) SetAutoOptimize(on bool) {
	s.sampler.SetAutoOptimize(on)
	slog.Info("auto optimization toggled", "enabled", on)
}

// AutoOptimize reports whether samples trigger the optimizer.
func (s *Service) AutoOptimize() bool {
	return s.sampler.AutoOptimize()
}

// SetDebug toggles verbose statistics logging.
func (s *Service) SetDebug(debug bool) {
	s.settings.SetDebug(debug)
}

// UpsertRegion validates, persists and publishes a region definition.
func (s *Service) UpsertRegion(ctx context.Context, p model.RegionParams) error {
	if err := catalog.ValidateRegion(p); err != nil {
		return fmt.Errorf("region %q: %w", p.Name, err)
	}
	if s.store != nil {
		if err := s.store.SaveRegion(ctx, p); err != nil {
			return fmt.Errorf("saving region %q: %w", p.Name, err)
		}
	}
	s.catalog.UpsertRegion(model.NewRegion(p))
	return nil
}

// RemoveRegion deactivates a region, then deletes it from the catalog and the store.
func (s *Service) RemoveRegion(ctx context.Context, name string) error {
	if _, ok := s.catalog.Region(name); !ok {
		return fmt.Errorf("removing %q: %w", name, ErrUnknownRegion)
	}

	s.scheduler.Deactivate(name)
	s.catalog.RemoveRegion(name)

	if s.store != nil {
		if err := s.store.DeleteRegion(ctx, name); err != nil {
			return fmt.Errorf("deleting region %q: %w", name, err)
		}
	}
	slog.Info("region removed", "region", name)
	return nil
}

// UpsertTemplate validates, persists and publishes an actor template.
func (s *Service) UpsertTemplate(ctx context.Context, p model.TemplateParams) error {
	if err := catalog.ValidateTemplate(p); err != nil {
		return fmt.Errorf("template %q: %w", p.ID, err)
	}
	if s.store != nil {
		if err := s.store.SaveTemplate(ctx, p); err != nil {
			return fmt.Errorf("saving template %q: %w", p.ID, err)
		}
	}
	s.catalog.UpsertTemplate(model.NewActorTemplate(p))
	return nil
}

// RecentSnapshots returns up to n newest performance snapshots, oldest first.
func (s *Service) RecentSnapshots(n int) []model.PerformanceSnapshot {
	return s.sampler.RecentSnapshots(n)
}

// PerformanceMetrics returns the latest metric values.
func (s *Service) PerformanceMetrics() map[string]float64 {
	return s.sampler.Metrics()
}

// LatestSnapshot returns the newest snapshot.
func (s *Service) LatestSnapshot() (model.PerformanceSnapshot, bool) {
	return s.sampler.History().Latest()
}

// AverageMemoryMB returns mean used memory over the history.
func (s *Service) AverageMemoryMB() float64 {
	return s.sampler.History().AverageMemoryMB()
}

// TopKillers returns the n players with the most kills.
func (s *Service) TopKillers(n int) []monitor.PlayerActivity {
	return s.sampler.Activity().TopKillers(n)
}

// Sample records a snapshot now instead of waiting for the next interval.
func (s *Service) Sample(ctx context.Context) model.PerformanceSnapshot {
	return s.sampler.Sample(ctx)
}

// Optimize runs the optimizer for the newest snapshot ignoring cooldown.
// With an empty history a snapshot is taken first.
func (s *Service) Optimize(ctx context.Context) monitor.Result {
	latest, ok := s.sampler.History().Latest()
	if !ok {
		latest = s.sampler.Sample(ctx)
	}
	return s.optimizer.Force(ctx, latest)
}

// LastOptimization returns the most recent optimizer run.
func (s *Service) LastOptimization() (monitor.Result, bool) {
	return s.optimizer.LastResult()
}

// ResetStats clears history, metrics, player activity and the optimizer cooldown.
func (s *Service) ResetStats() {
	s.sampler.Reset()
}

// ExportStats writes the snapshot history as CSV.
func (s *Service) ExportStats(w io.Writer) error {
	return s.sampler.ExportCSV(w)
}

// ExportStatsFile writes the snapshot history as CSV to path.
func (s *Service) ExportStatsFile(path string) error {
	return s.sampler.ExportCSVFile(path)
}

// MetricsHandler serves Prometheus metrics.
func (s *Service) MetricsHandler() http.Handler {
	return s.exporter.Handler()
}
