package model

import "github.com/google/uuid"

// ActorID is an opaque handle for an actor living in the host simulation.
// The spawner never holds the actor itself, only this id.
type ActorID = uuid.UUID

// SpawnRequest describes an actor to materialize in the host simulation.
// Stats are already level-scaled.
type SpawnRequest struct {
	TemplateID string
	Kind       string
	Name       string
	Level      int
	Position   Point
	MaxHealth  float64
	Damage     float64
}

// ActorState is what the host reports about a live actor.
type ActorState struct {
	ID         ActorID
	TemplateID string
	Level      int
	Position   Point
	Dead       bool
	Valid      bool
}

// Alive reports whether the actor still counts toward population.
func (s ActorState) Alive() bool {
	return !s.Dead && s.Valid
}
