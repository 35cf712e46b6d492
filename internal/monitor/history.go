package monitor

import (
	"slices"
	"sync"

	"github.com/udisondev/regionspawn/internal/model"
)

// History is a bounded FIFO of snapshots. The oldest entry is evicted first.
// Safe for concurrent use.
type History struct {
	mu       sync.RWMutex
	capacity int
	items    []model.PerformanceSnapshot
}

// NewHistory creates a history holding at most capacity snapshots.
func NewHistory(capacity int) *History {
	capacity = max(capacity, 1)
	return &History{
		capacity: capacity,
		items:    make([]model.PerformanceSnapshot, 0, capacity),
	}
}

// Append adds s, evicting the oldest snapshot when full.
func (h *History) Append(s model.PerformanceSnapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.items) == h.capacity {
		h.items = slices.Delete(h.items, 0, 1)
	}
	h.items = append(h.items, s)
}

// Len returns the number of snapshots held.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.items)
}

// Capacity returns the maximum length.
func (h *History) Capacity() int {
	return h.capacity
}

// Latest returns the newest snapshot.
func (h *History) Latest() (model.PerformanceSnapshot, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if len(h.items) == 0 {
		return model.PerformanceSnapshot{}, false
	}
	return h.items[len(h.items)-1], true
}

// Recent returns up to n newest snapshots, oldest first.
func (h *History) Recent(n int) []model.PerformanceSnapshot {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n = min(max(n, 0), len(h.items))
	return slices.Clone(h.items[len(h.items)-n:])
}

// All returns every snapshot, oldest first.
func (h *History) All() []model.PerformanceSnapshot {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return slices.Clone(h.items)
}

// AverageMemoryMB returns mean used memory across the history, 0 when empty.
func (h *History) AverageMemoryMB() float64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if len(h.items) == 0 {
		return 0
	}
	var sum int64
	for _, s := range h.items {
		sum += s.MemoryUsedMB
	}
	return float64(sum) / float64(len(h.items))
}

// Reset drops every snapshot.
func (h *History) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.items = h.items[:0]
}
