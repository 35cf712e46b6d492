package spawn

import "github.com/udisondev/regionspawn/internal/model"

// NewSpawnRequest builds the host request for tmpl at level, placed at pos.
// Level is clamped into the template's range before stats are scaled.
func NewSpawnRequest(tmpl *model.ActorTemplate, level int, pos model.Point) model.SpawnRequest {
	level = tmpl.ClampLevel(level)
	return model.SpawnRequest{
		TemplateID: tmpl.ID(),
		Kind:       tmpl.Kind(),
		Name:       tmpl.Name(),
		Level:      level,
		Position:   pos,
		MaxHealth:  tmpl.HealthAt(level),
		Damage:     tmpl.DamageAt(level),
	}
}

// rollLevel picks a uniform level in [region.MinLevel, region.MaxLevel].
func rollLevel(region *model.Region, rng Random) int {
	return region.MinLevel() + rng.IntN(region.MaxLevel()-region.MinLevel()+1)
}
