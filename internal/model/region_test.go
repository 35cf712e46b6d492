package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewRegion_DerivesBounds(t *testing.T) {
	r := NewRegion(RegionParams{
		Name:    "swamp",
		Corner1: NewPoint("overworld", 100, 80, -20),
		Corner2: NewPoint("", 40, 60, 30),
	})

	b := r.Bounds()
	assert.Equal(t, Bounds{MinX: 40, MinY: 60, MinZ: -20, MaxX: 100, MaxY: 80, MaxZ: 30}, b)
	assert.Equal(t, "overworld", r.World())
	assert.Equal(t, "overworld", r.Corner2().World)
	assert.Equal(t, NewPoint("overworld", 70, 70, 5), r.Center())
}

func TestNewRegion_Defaults(t *testing.T) {
	r := NewRegion(RegionParams{Name: "plain"})

	assert.Equal(t, DefaultRegionMinLevel, r.MinLevel())
	assert.Equal(t, DefaultRegionMaxLevel, r.MaxLevel())
	assert.Equal(t, DefaultMaxPopulation, r.MaxPopulation())
	assert.Equal(t, DefaultRegionSpawnInterval, r.SpawnInterval())
}

func TestNewRegion_SwapsLevels(t *testing.T) {
	r := NewRegion(RegionParams{Name: "x", MinLevel: 9, MaxLevel: 4})
	assert.Equal(t, 4, r.MinLevel())
	assert.Equal(t, 9, r.MaxLevel())
}

func TestRegion_TemplateIDsAreCopied(t *testing.T) {
	ids := []string{"a", "b"}
	r := NewRegion(RegionParams{Name: "x", TemplateIDs: ids})
	ids[0] = "mutated"

	got := r.TemplateIDs()
	assert.Equal(t, []string{"a", "b"}, got)
	got[1] = "mutated"
	assert.Equal(t, "b", r.TemplateAt(1))
	assert.Equal(t, 2, r.TemplateCount())
}

func TestRegion_Contains(t *testing.T) {
	r := NewRegion(RegionParams{
		Name:          "cave",
		Corner1:       NewPoint("w", 0, 0, 0),
		Corner2:       NewPoint("w", 10, 10, 10),
		SpawnInterval: 5 * time.Second,
	})

	assert.True(t, r.Contains(NewPoint("w", 5, 5, 5)))
	assert.True(t, r.Contains(NewPoint("w", 10, 0, 10)))
	assert.False(t, r.Contains(NewPoint("w", 11, 5, 5)))
	assert.False(t, r.Contains(NewPoint("nether", 5, 5, 5)))
}

func TestPoint_DistanceAcrossWorlds(t *testing.T) {
	a := NewPoint("w", 0, 0, 0)
	assert.InDelta(t, 5.0, a.Distance(NewPoint("w", 3, 4, 0)), 1e-9)
	assert.True(t, a.Distance(NewPoint("other", 0, 0, 0)) > 1e300)
}

func TestPerformanceSnapshot_StatusTable(t *testing.T) {
	tests := []struct {
		snap PerformanceSnapshot
		want PerformanceStatus
	}{
		{PerformanceSnapshot{TickRate: 5}, StatusCritical},
		{PerformanceSnapshot{TickRate: 12}, StatusWarning},
		{PerformanceSnapshot{TickRate: 20, MemoryUsedMB: 4096}, StatusMemoryHigh},
		{PerformanceSnapshot{TickRate: 20, MemoryUsedMB: 512}, StatusHealthy},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.snap.Status(), tt.want.String())
	}
}
