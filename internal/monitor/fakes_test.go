package monitor

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/udisondev/regionspawn/internal/config"
)

type staticProbe struct {
	used, free int64
}

func (p staticProbe) Memory() (int64, int64) { return p.used, p.free }

type counters struct {
	observers, actors, regions int
}

func (c *counters) ObserverCount() int { return c.observers }
func (c *counters) TotalCount() int    { return c.actors }
func (c *counters) ActiveCount() int   { return c.regions }

type fakeRegions struct {
	mu           sync.Mutex
	active       map[string]bool
	deactivated  []string
	reactivateIn map[string]time.Duration
}

func newFakeRegions(active ...string) *fakeRegions {
	r := &fakeRegions{active: make(map[string]bool), reactivateIn: make(map[string]time.Duration)}
	for _, name := range active {
		r.active[name] = true
	}
	return r
}

func (r *fakeRegions) Deactivate(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.active[name] {
		return false
	}
	delete(r.active, name)
	r.deactivated = append(r.deactivated, name)
	return true
}

func (r *fakeRegions) ReactivateAfter(name string, d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reactivateIn[name] = d
	r.active[name] = true
}

type fakeCounts map[string]int

func (c fakeCounts) Counts() map[string]int { return maps.Clone(c) }

type fakeFlusher struct {
	calls int
}

func (f *fakeFlusher) FlushAll(context.Context) error {
	f.calls++
	return nil
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func testSettings() *config.Settings {
	cfg := config.DefaultSpawner()
	cfg.SettingsFile = ""
	return config.NewSettings(cfg)
}
