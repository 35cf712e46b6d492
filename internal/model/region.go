package model

import (
	"slices"
	"time"
)

// Region defaults applied when a definition leaves a field empty.
const (
	DefaultRegionMinLevel      = 1
	DefaultRegionMaxLevel      = 10
	DefaultMaxPopulation       = 10
	DefaultRegionSpawnInterval = 10 * time.Second
)

// RegionParams holds the raw definition of a spawn region.
// Used by catalog stores and admin tooling to build or persist a Region.
type RegionParams struct {
	Name          string        `yaml:"name"`
	Corner1       Point         `yaml:"corner1"`
	Corner2       Point         `yaml:"corner2"`
	MinLevel      int           `yaml:"min_level"`
	MaxLevel      int           `yaml:"max_level"`
	TemplateIDs   []string      `yaml:"templates"`
	MaxPopulation int           `yaml:"max_population"`
	SpawnInterval time.Duration `yaml:"spawn_interval"`
}

// Region is an immutable spawn region definition.
// Both corners live in the world of Corner1; Corner2's world is ignored.
type Region struct {
	name          string
	world         string
	corner1       Point
	corner2       Point
	bounds        Bounds
	minLevel      int
	maxLevel      int
	templateIDs   []string
	maxPopulation int
	spawnInterval time.Duration
}

// NewRegion builds a Region from params, filling defaults for zero values.
// A reversed level range is swapped.
func NewRegion(p RegionParams) *Region {
	r := &Region{
		name:          p.Name,
		world:         p.Corner1.World,
		corner1:       p.Corner1,
		corner2:       p.Corner2,
		minLevel:      p.MinLevel,
		maxLevel:      p.MaxLevel,
		templateIDs:   slices.Clone(p.TemplateIDs),
		maxPopulation: p.MaxPopulation,
		spawnInterval: p.SpawnInterval,
	}
	r.corner2.World = r.world

	if r.minLevel <= 0 {
		r.minLevel = DefaultRegionMinLevel
	}
	if r.maxLevel <= 0 {
		r.maxLevel = DefaultRegionMaxLevel
	}
	if r.minLevel > r.maxLevel {
		r.minLevel, r.maxLevel = r.maxLevel, r.minLevel
	}
	if r.maxPopulation <= 0 {
		r.maxPopulation = DefaultMaxPopulation
	}
	if r.spawnInterval <= 0 {
		r.spawnInterval = DefaultRegionSpawnInterval
	}

	r.bounds = BoundsOf(r.corner1, r.corner2)
	return r
}

// Name returns the unique region name.
func (r *Region) Name() string { return r.name }

// World returns the world both corners belong to.
func (r *Region) World() string { return r.world }

// Corner1 returns the first defining corner.
func (r *Region) Corner1() Point { return r.corner1 }

// Corner2 returns the second defining corner.
func (r *Region) Corner2() Point { return r.corner2 }

// Bounds returns per-axis min/max of the region.
func (r *Region) Bounds() Bounds { return r.bounds }

// MinLevel returns the lowest level actors spawn at.
func (r *Region) MinLevel() int { return r.minLevel }

// MaxLevel returns the highest level actors spawn at.
func (r *Region) MaxLevel() int { return r.maxLevel }

// TemplateIDs returns a copy of the allowed actor template ids.
func (r *Region) TemplateIDs() []string { return slices.Clone(r.templateIDs) }

// TemplateCount returns number of allowed templates without copying.
func (r *Region) TemplateCount() int { return len(r.templateIDs) }

// TemplateAt returns the i-th allowed template id.
func (r *Region) TemplateAt(i int) string { return r.templateIDs[i] }

// MaxPopulation returns the population cap.
func (r *Region) MaxPopulation() int { return r.maxPopulation }

// SpawnInterval returns the configured spawn-check interval.
func (r *Region) SpawnInterval() time.Duration { return r.spawnInterval }

// Center returns the midpoint of both corners.
func (r *Region) Center() Point {
	return Point{
		World: r.world,
		X:     (r.corner1.X + r.corner2.X) / 2,
		Y:     (r.corner1.Y + r.corner2.Y) / 2,
		Z:     (r.corner1.Z + r.corner2.Z) / 2,
	}
}

// Contains reports whether p lies inside the region volume.
func (r *Region) Contains(p Point) bool {
	if p.World != r.world {
		return false
	}
	return r.bounds.Contains(p.X, p.Y, p.Z)
}

// Params returns the definition for persistence.
func (r *Region) Params() RegionParams {
	return RegionParams{
		Name:          r.name,
		Corner1:       r.corner1,
		Corner2:       r.corner2,
		MinLevel:      r.minLevel,
		MaxLevel:      r.maxLevel,
		TemplateIDs:   slices.Clone(r.templateIDs),
		MaxPopulation: r.maxPopulation,
		SpawnInterval: r.spawnInterval,
	}
}
