package spawn

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/udisondev/regionspawn/internal/config"
)

// Cleanup periodically prunes dead or vanished actors from every region.
type Cleanup struct {
	tracker  *Tracker
	sim      Simulation
	settings *config.Settings
	recorder Recorder

	mu      sync.Mutex
	running bool
	stopped bool
	stopCh  chan struct{}
	done    chan struct{}
}

// NewCleanup creates a cleanup task. Nil recorder discards statistics.
func NewCleanup(tracker *Tracker, sim Simulation, settings *config.Settings, recorder Recorder) *Cleanup {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &Cleanup{
		tracker:  tracker,
		sim:      sim,
		settings: settings,
		recorder: recorder,
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start runs cleanup every Settings.CleanupInterval until ctx ends or Stop is called.
// The interval is re-read after every run. Returns immediately when already
// stopped or running.
func (c *Cleanup) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.stopped || c.running {
		c.mu.Unlock()
		return nil
	}
	c.running = true
	c.mu.Unlock()
	defer close(c.done)

	interval := c.settings.CleanupInterval()
	timer := time.NewTimer(interval)
	defer timer.Stop()

	slog.Info("spawn cleanup started", "interval", interval)

	for {
		select {
		case <-ctx.Done():
			slog.Info("spawn cleanup stopping")
			return nil
		case <-c.stopCh:
			slog.Info("spawn cleanup stopped")
			return nil
		case <-timer.C:
			c.RunOnce()
			timer.Reset(c.settings.CleanupInterval())
		}
	}
}

// Stop ends Start and waits for an in-flight run to finish.
// Safe to call more than once.
func (c *Cleanup) Stop() {
	c.mu.Lock()
	if !c.stopped {
		c.stopped = true
		close(c.stopCh)
	}
	running := c.running
	c.mu.Unlock()

	if running {
		<-c.done
	}
}

// RunOnce prunes every tracked region and returns the number of ids dropped.
// In debug mode population statistics are logged.
func (c *Cleanup) RunOnce() (removed int) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("spawn cleanup panicked", "panic", r)
		}
	}()

	alive := isAlive(c.sim)
	for _, region := range c.tracker.Regions() {
		if n := c.tracker.Prune(region, alive); n > 0 {
			c.recorder.Pruned(region, n)
			removed += n
		}
	}

	if c.settings.Debug() {
		counts := c.tracker.Counts()
		for region, n := range counts {
			slog.Info("region population", "region", region, "actors", n)
		}
		slog.Info("spawn statistics",
			"regions", len(counts),
			"actors", c.tracker.TotalCount(),
			"pruned", removed)
	}
	return removed
}
