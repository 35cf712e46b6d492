package spawn

import (
	"math"

	"github.com/udisondev/regionspawn/internal/model"
)

// SafetyChecker picks spawn points where an actor can stand.
type SafetyChecker struct {
	terrain Terrain
	rng     Random
}

// NewSafetyChecker creates a checker over terrain. Nil rng uses DefaultRandom.
func NewSafetyChecker(terrain Terrain, rng Random) *SafetyChecker {
	if rng == nil {
		rng = DefaultRandom
	}
	return &SafetyChecker{terrain: terrain, rng: rng}
}

// FindSafePoint samples one random column inside the region and returns the
// block above its surface. The column scan starts at the region's top.
// Returns false when the world is missing, the chunk is not loaded, the column
// is empty, or the candidate cell or the one above it is solid.
// A single call makes a single attempt; callers retry.
func (c *SafetyChecker) FindSafePoint(region *model.Region) (model.Point, bool) {
	world := region.World()
	if !c.terrain.HasWorld(world) {
		return model.Point{}, false
	}

	b := region.Bounds()
	x := int(math.Floor(b.MinX + c.rng.Float64()*(b.MaxX-b.MinX)))
	z := int(math.Floor(b.MinZ + c.rng.Float64()*(b.MaxZ-b.MinZ)))

	if !c.terrain.ChunkLoaded(world, x, z) {
		return model.Point{}, false
	}

	top, ok := c.terrain.HighestSolidBelow(world, x, z, int(math.Floor(b.MaxY)))
	if !ok {
		return model.Point{}, false
	}

	y := top + 1
	if c.terrain.Solid(world, x, y, z) || c.terrain.Solid(world, x, y+1, z) {
		return model.Point{}, false
	}

	return model.NewPoint(world, float64(x)+0.5, float64(y), float64(z)+0.5), true
}
