package model

import "math"

// Point is a position inside a named world.
// Value type, passed by value (immutable).
type Point struct {
	World string  `yaml:"world"`
	X     float64 `yaml:"x"`
	Y     float64 `yaml:"y"`
	Z     float64 `yaml:"z"`
}

// NewPoint creates a Point in the given world.
func NewPoint(world string, x, y, z float64) Point {
	return Point{World: world, X: x, Y: y, Z: z}
}

// BlockX returns the integer block column containing X.
func (p Point) BlockX() int { return int(math.Floor(p.X)) }

// BlockY returns the integer block row containing Y.
func (p Point) BlockY() int { return int(math.Floor(p.Y)) }

// BlockZ returns the integer block column containing Z.
func (p Point) BlockZ() int { return int(math.Floor(p.Z)) }

// DistanceSquared returns squared euclidean distance (no sqrt).
// Points from different worlds are treated as infinitely far apart.
func (p Point) DistanceSquared(other Point) float64 {
	if p.World != other.World {
		return math.Inf(1)
	}
	dx := p.X - other.X
	dy := p.Y - other.Y
	dz := p.Z - other.Z
	return dx*dx + dy*dy + dz*dz
}

// Distance returns euclidean distance to other.
func (p Point) Distance(other Point) float64 {
	return math.Sqrt(p.DistanceSquared(other))
}

// Bounds is an axis-aligned box derived from two corner points.
type Bounds struct {
	MinX, MinY, MinZ float64
	MaxX, MaxY, MaxZ float64
}

// BoundsOf derives per-axis min/max from two arbitrary corners.
func BoundsOf(a, b Point) Bounds {
	return Bounds{
		MinX: math.Min(a.X, b.X),
		MinY: math.Min(a.Y, b.Y),
		MinZ: math.Min(a.Z, b.Z),
		MaxX: math.Max(a.X, b.X),
		MaxY: math.Max(a.Y, b.Y),
		MaxZ: math.Max(a.Z, b.Z),
	}
}

// Contains reports whether (x, y, z) lies inside the box, edges inclusive.
func (b Bounds) Contains(x, y, z float64) bool {
	return x >= b.MinX && x <= b.MaxX &&
		y >= b.MinY && y <= b.MaxY &&
		z >= b.MinZ && z <= b.MaxZ
}
