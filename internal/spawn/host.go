package spawn

import (
	"context"
	"math/rand/v2"

	"github.com/udisondev/regionspawn/internal/model"
)

// Terrain answers block queries about the host's worlds.
type Terrain interface {
	HasWorld(world string) bool
	ChunkLoaded(world string, x, z int) bool
	HighestSolidBelow(world string, x, z, fromY int) (int, bool)
	Solid(world string, x, y, z int) bool
}

// Simulation creates, inspects and removes actors.
type Simulation interface {
	Spawn(ctx context.Context, req model.SpawnRequest) (model.ActorID, error)
	ActorState(id model.ActorID) (model.ActorState, bool)
	Remove(id model.ActorID) bool
}

// Observers locates players around a point.
type Observers interface {
	AnyObserverWithin(center model.Point, radius float64) bool
}

// Host is everything the scheduler needs from the running simulation.
type Host interface {
	Terrain
	Simulation
	Observers
}

// Random is the randomness source for placement, template, level and drop rolls.
type Random interface {
	Float64() float64
	IntN(n int) int
}

type globalRandom struct{}

func (globalRandom) Float64() float64 { return rand.Float64() }
func (globalRandom) IntN(n int) int   { return rand.IntN(n) }

// DefaultRandom uses the math/rand/v2 global source.
var DefaultRandom Random = globalRandom{}

// Recorder receives spawn statistics.
type Recorder interface {
	Spawned(region string)
	SlotFailed(region string)
	Pruned(region string, n int)
}

type nopRecorder struct{}

func (nopRecorder) Spawned(string)     {}
func (nopRecorder) SlotFailed(string)  {}
func (nopRecorder) Pruned(string, int) {}

// isAlive reports whether the host still counts id toward population.
func isAlive(sim Simulation) func(model.ActorID) bool {
	return func(id model.ActorID) bool {
		st, ok := sim.ActorState(id)
		return ok && st.Alive()
	}
}
