package monitor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/regionspawn/internal/model"
)

func snap(memory int64) model.PerformanceSnapshot {
	return model.PerformanceSnapshot{Timestamp: time.Unix(memory, 0), MemoryUsedMB: memory, TickRate: 20}
}

func TestHistory_BoundedFIFO(t *testing.T) {
	h := NewHistory(3)
	for i := int64(1); i <= 5; i++ {
		h.Append(snap(i))
		assert.LessOrEqual(t, h.Len(), 3)
	}

	all := h.All()
	require.Len(t, all, 3)
	assert.Equal(t, int64(3), all[0].MemoryUsedMB)
	assert.Equal(t, int64(5), all[2].MemoryUsedMB)

	latest, ok := h.Latest()
	require.True(t, ok)
	assert.Equal(t, int64(5), latest.MemoryUsedMB)
}

func TestHistory_Recent(t *testing.T) {
	h := NewHistory(10)
	for i := int64(1); i <= 4; i++ {
		h.Append(snap(i))
	}

	recent := h.Recent(2)
	require.Len(t, recent, 2)
	assert.Equal(t, int64(3), recent[0].MemoryUsedMB)
	assert.Equal(t, int64(4), recent[1].MemoryUsedMB)

	assert.Len(t, h.Recent(100), 4)
	assert.Empty(t, h.Recent(0))
	assert.Empty(t, h.Recent(-1))
}

func TestHistory_AverageAndReset(t *testing.T) {
	h := NewHistory(10)
	assert.Zero(t, h.AverageMemoryMB())

	h.Append(snap(100))
	h.Append(snap(200))
	assert.InDelta(t, 150.0, h.AverageMemoryMB(), 1e-9)

	h.Reset()
	assert.Equal(t, 0, h.Len())
	_, ok := h.Latest()
	assert.False(t, ok)
}

func TestHistory_MinimumCapacity(t *testing.T) {
	h := NewHistory(0)
	h.Append(snap(1))
	h.Append(snap(2))
	assert.Equal(t, 1, h.Len())
	assert.Equal(t, 1, h.Capacity())
}
