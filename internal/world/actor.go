package world

import (
	"sync"
	"sync/atomic"

	"github.com/udisondev/regionspawn/internal/model"
)

// Actor is a spawned creature living in the simulation.
type Actor struct {
	id         model.ActorID
	templateID string
	kind       string
	name       string
	level      int
	maxHealth  float64
	damage     float64

	mu       sync.RWMutex
	position model.Point
	health   float64

	dead  atomic.Bool
	valid atomic.Bool
}

func newActor(id model.ActorID, req model.SpawnRequest) *Actor {
	a := &Actor{
		id:         id,
		templateID: req.TemplateID,
		kind:       req.Kind,
		name:       req.Name,
		level:      req.Level,
		maxHealth:  req.MaxHealth,
		damage:     req.Damage,
		position:   req.Position,
		health:     req.MaxHealth,
	}
	a.valid.Store(true)
	return a
}

// ID returns the actor id.
func (a *Actor) ID() model.ActorID { return a.id }

// TemplateID returns the template the actor was built from.
func (a *Actor) TemplateID() string { return a.templateID }

// Name returns the display name.
func (a *Actor) Name() string { return a.name }

// Level returns the spawn level.
func (a *Actor) Level() int { return a.level }

// MaxHealth returns level-scaled max health.
func (a *Actor) MaxHealth() float64 { return a.maxHealth }

// Damage returns level-scaled damage.
func (a *Actor) Damage() float64 { return a.damage }

// Position returns the current position.
func (a *Actor) Position() model.Point {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.position
}

// Health returns current health.
func (a *Actor) Health() float64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.health
}

// ApplyDamage lowers health and marks the actor dead at zero.
// Returns true if this call killed it.
func (a *Actor) ApplyDamage(amount float64) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.dead.Load() {
		return false
	}
	a.health = max(0, a.health-amount)
	if a.health == 0 {
		a.dead.Store(true)
		return true
	}
	return false
}

// IsDead reports whether the actor has died.
func (a *Actor) IsDead() bool { return a.dead.Load() }

// IsValid reports whether the actor is still part of the simulation.
func (a *Actor) IsValid() bool { return a.valid.Load() }

func (a *Actor) state() model.ActorState {
	return model.ActorState{
		ID:         a.id,
		TemplateID: a.templateID,
		Level:      a.level,
		Position:   a.Position(),
		Dead:       a.dead.Load(),
		Valid:      a.valid.Load(),
	}
}
