package world

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/udisondev/regionspawn/internal/model"
)

// Server hosts worlds, actors and observers.
// It is the in-process host the spawner runs against.
type Server struct {
	worlds    sync.Map // map[string]*World
	actors    sync.Map // map[model.ActorID]*Actor
	observers sync.Map // map[uuid.UUID]model.Point

	actorCount    atomic.Int32
	observerCount atomic.Int32
	flushes       atomic.Int64
}

// NewServer creates an empty host.
func NewServer() *Server {
	return &Server{}
}

// CreateWorld adds a world. Existing world with the same name is returned unchanged.
func (s *Server) CreateWorld(name string) *World {
	w, _ := s.worlds.LoadOrStore(name, NewWorld(name))
	return w.(*World)
}

// World returns world by name.
func (s *Server) World(name string) (*World, bool) {
	v, ok := s.worlds.Load(name)
	if !ok {
		return nil, false
	}
	return v.(*World), true
}

// RemoveWorld drops a world. Actors inside it become invalid.
func (s *Server) RemoveWorld(name string) {
	if _, ok := s.worlds.LoadAndDelete(name); !ok {
		return
	}
	s.actors.Range(func(key, value any) bool {
		a := value.(*Actor)
		if a.Position().World == name {
			s.Remove(a.ID())
		}
		return true
	})
}

// HasWorld reports whether a world with the given name exists.
func (s *Server) HasWorld(name string) bool {
	_, ok := s.worlds.Load(name)
	return ok
}

// ChunkLoaded reports whether the chunk holding block (x, z) is loaded.
func (s *Server) ChunkLoaded(world string, x, z int) bool {
	w, ok := s.World(world)
	return ok && w.ChunkLoaded(x, z)
}

// HighestSolidBelow returns the topmost solid block of a column at or below fromY.
func (s *Server) HighestSolidBelow(world string, x, z, fromY int) (int, bool) {
	w, ok := s.World(world)
	if !ok {
		return 0, false
	}
	return w.HighestSolidBelow(x, z, fromY)
}

// Solid reports whether block (x, y, z) of world is solid.
func (s *Server) Solid(world string, x, y, z int) bool {
	w, ok := s.World(world)
	return ok && w.Solid(x, y, z)
}

// Spawn materializes an actor. Fails if the target world is missing.
func (s *Server) Spawn(_ context.Context, req model.SpawnRequest) (model.ActorID, error) {
	if !s.HasWorld(req.Position.World) {
		return model.ActorID{}, fmt.Errorf("spawning %s: world %q not found", req.TemplateID, req.Position.World)
	}

	id := uuid.New()
	s.actors.Store(id, newActor(id, req))
	s.actorCount.Add(1)
	return id, nil
}

// Actor returns the live actor by id.
func (s *Server) Actor(id model.ActorID) (*Actor, bool) {
	v, ok := s.actors.Load(id)
	if !ok {
		return nil, false
	}
	return v.(*Actor), true
}

// ActorState reports what the host knows about an actor.
func (s *Server) ActorState(id model.ActorID) (model.ActorState, bool) {
	a, ok := s.Actor(id)
	if !ok {
		return model.ActorState{}, false
	}
	return a.state(), true
}

// Kill marks an actor dead without removing it.
func (s *Server) Kill(id model.ActorID) bool {
	a, ok := s.Actor(id)
	if !ok {
		return false
	}
	return a.ApplyDamage(a.Health())
}

// Remove takes an actor out of the simulation. Returns false if unknown.
func (s *Server) Remove(id model.ActorID) bool {
	v, ok := s.actors.LoadAndDelete(id)
	if !ok {
		return false
	}
	v.(*Actor).valid.Store(false)
	s.actorCount.Add(-1)
	return true
}

// ActorCount returns the number of actors in the simulation.
func (s *Server) ActorCount() int {
	return int(s.actorCount.Load())
}

// AddObserver places an observer (player) and returns its id.
func (s *Server) AddObserver(pos model.Point) uuid.UUID {
	id := uuid.New()
	s.observers.Store(id, pos)
	s.observerCount.Add(1)
	return id
}

// MoveObserver updates observer position. Unknown ids are ignored.
func (s *Server) MoveObserver(id uuid.UUID, pos model.Point) {
	if _, ok := s.observers.Load(id); ok {
		s.observers.Store(id, pos)
	}
}

// RemoveObserver drops an observer.
func (s *Server) RemoveObserver(id uuid.UUID) {
	if _, ok := s.observers.LoadAndDelete(id); ok {
		s.observerCount.Add(-1)
	}
}

// ObserverCount returns the number of observers online.
func (s *Server) ObserverCount() int {
	return int(s.observerCount.Load())
}

// AnyObserverWithin reports whether some observer in center's world is within radius of center.
func (s *Server) AnyObserverWithin(center model.Point, radius float64) bool {
	r2 := radius * radius
	found := false
	s.observers.Range(func(_, value any) bool {
		if center.DistanceSquared(value.(model.Point)) <= r2 {
			found = true
			return false
		}
		return true
	})
	return found
}

// FlushAll persists observer data. The in-memory host only counts calls.
func (s *Server) FlushAll(_ context.Context) error {
	n := s.flushes.Add(1)
	slog.Debug("observer data flushed", "observers", s.ObserverCount(), "flushes", n)
	return nil
}

// Flushes returns how many times FlushAll ran.
func (s *Server) Flushes() int64 {
	return s.flushes.Load()
}
