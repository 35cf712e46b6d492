package spawn

import (
	"maps"
	"slices"
	"sync"

	"github.com/udisondev/regionspawn/internal/model"
)

// Tracker records which actors each region spawned.
// An id belongs to at most one region. Safe for concurrent use.
type Tracker struct {
	mu      sync.RWMutex
	regions map[string]map[model.ActorID]struct{}
	owner   map[model.ActorID]string
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		regions: make(map[string]map[model.ActorID]struct{}),
		owner:   make(map[model.ActorID]string),
	}
}

// Register adds id to region. An id tracked under another region moves.
func (t *Tracker) Register(region string, id model.ActorID) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if prev, ok := t.owner[id]; ok {
		if prev == region {
			return
		}
		t.dropLocked(prev, id)
	}

	set, ok := t.regions[region]
	if !ok {
		set = make(map[model.ActorID]struct{})
		t.regions[region] = set
	}
	set[id] = struct{}{}
	t.owner[id] = region
}

// Prune drops every id of region for which isAlive returns false.
// isAlive runs without the lock held. Returns number of ids removed.
func (t *Tracker) Prune(region string, isAlive func(model.ActorID) bool) int {
	t.mu.RLock()
	ids := slices.Collect(maps.Keys(t.regions[region]))
	t.mu.RUnlock()

	var dead []model.ActorID
	for _, id := range ids {
		if !isAlive(id) {
			dead = append(dead, id)
		}
	}
	if len(dead) == 0 {
		return 0
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	removed := 0
	for _, id := range dead {
		if t.owner[id] == region {
			t.dropLocked(region, id)
			removed++
		}
	}
	return removed
}

// Count returns number of ids tracked for region.
func (t *Tracker) Count(region string) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.regions[region])
}

// Remove drops id from region. Returns false if id was not tracked there.
func (t *Tracker) Remove(region string, id model.ActorID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.owner[id] != region {
		return false
	}
	t.dropLocked(region, id)
	return true
}

// Forget drops id from whichever region owns it.
func (t *Tracker) Forget(id model.ActorID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	region, ok := t.owner[id]
	if !ok {
		return false
	}
	t.dropLocked(region, id)
	return true
}

// RegionOf returns the region tracking id.
func (t *Tracker) RegionOf(id model.ActorID) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	region, ok := t.owner[id]
	return region, ok
}

// TotalCount returns number of ids across all regions.
func (t *Tracker) TotalCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.owner)
}

// ReleaseRegion empties region and returns the ids it held.
func (t *Tracker) ReleaseRegion(region string) []model.ActorID {
	t.mu.Lock()
	defer t.mu.Unlock()

	set := t.regions[region]
	ids := make([]model.ActorID, 0, len(set))
	for id := range set {
		ids = append(ids, id)
		delete(t.owner, id)
	}
	delete(t.regions, region)
	return ids
}

// Regions returns names of regions with at least one tracked id.
func (t *Tracker) Regions() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	names := slices.Collect(maps.Keys(t.regions))
	slices.Sort(names)
	return names
}

// Counts returns tracked population per region.
func (t *Tracker) Counts() map[string]int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	counts := make(map[string]int, len(t.regions))
	for name, set := range t.regions {
		counts[name] = len(set)
	}
	return counts
}

// Clear forgets everything.
func (t *Tracker) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	clear(t.regions)
	clear(t.owner)
}

func (t *Tracker) dropLocked(region string, id model.ActorID) {
	delete(t.owner, id)
	set := t.regions[region]
	delete(set, id)
	if len(set) == 0 {
		delete(t.regions, region)
	}
}
