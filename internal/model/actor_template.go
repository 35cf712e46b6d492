package model

import "slices"

// Template defaults applied when a definition leaves a field empty.
const (
	DefaultBaseHealth         = 20.0
	DefaultBaseDamage         = 2.0
	DefaultTemplateMinLevel   = 1
	DefaultTemplateMaxLevel   = 10
	DefaultCurrencyReward     = 10
	DefaultRareCurrencyReward = 1
	DefaultDropChance         = 0.1
)

// Level scaling factors per level above 1.
const (
	HealthPerLevel       = 0.20
	DamagePerLevel       = 0.15
	CurrencyPerLevel     = 5
	RareCurrencyPerLevel = 1
)

// Drop is one entry of a template's reward table.
type Drop struct {
	ItemID string  `yaml:"item"`
	Chance float64 `yaml:"chance"`
}

// TemplateParams holds the raw definition of an actor template.
type TemplateParams struct {
	ID                 string  `yaml:"id"`
	Name               string  `yaml:"name"`
	Kind               string  `yaml:"kind"`
	BaseHealth         float64 `yaml:"base_health"`
	BaseDamage         float64 `yaml:"base_damage"`
	MinLevel           int     `yaml:"min_level"`
	MaxLevel           int     `yaml:"max_level"`
	CurrencyReward     int     `yaml:"currency_reward"`
	RareCurrencyReward int     `yaml:"rare_currency_reward"`
	Drops              []Drop  `yaml:"drops"`
}

// ActorTemplate is immutable reference data describing a spawnable actor.
type ActorTemplate struct {
	id                 string
	name               string
	kind               string
	baseHealth         float64
	baseDamage         float64
	minLevel           int
	maxLevel           int
	currencyReward     int
	rareCurrencyReward int
	drops              []Drop
}

// NewActorTemplate builds a template, filling defaults for zero values.
// Drops with a non-positive chance get DefaultDropChance.
func NewActorTemplate(p TemplateParams) *ActorTemplate {
	t := &ActorTemplate{
		id:                 p.ID,
		name:               p.Name,
		kind:               p.Kind,
		baseHealth:         p.BaseHealth,
		baseDamage:         p.BaseDamage,
		minLevel:           p.MinLevel,
		maxLevel:           p.MaxLevel,
		currencyReward:     p.CurrencyReward,
		rareCurrencyReward: p.RareCurrencyReward,
		drops:              make([]Drop, 0, len(p.Drops)),
	}

	if t.name == "" {
		t.name = t.id
	}
	if t.baseHealth <= 0 {
		t.baseHealth = DefaultBaseHealth
	}
	if t.baseDamage <= 0 {
		t.baseDamage = DefaultBaseDamage
	}
	if t.minLevel <= 0 {
		t.minLevel = DefaultTemplateMinLevel
	}
	if t.maxLevel <= 0 {
		t.maxLevel = DefaultTemplateMaxLevel
	}
	if t.minLevel > t.maxLevel {
		t.minLevel, t.maxLevel = t.maxLevel, t.minLevel
	}
	if t.currencyReward <= 0 {
		t.currencyReward = DefaultCurrencyReward
	}
	if t.rareCurrencyReward <= 0 {
		t.rareCurrencyReward = DefaultRareCurrencyReward
	}

	for _, d := range p.Drops {
		if d.Chance <= 0 {
			d.Chance = DefaultDropChance
		}
		if d.Chance > 1 {
			d.Chance = 1
		}
		t.drops = append(t.drops, d)
	}

	return t
}

// ID returns template ID.
func (t *ActorTemplate) ID() string { return t.id }

// Name returns display name.
func (t *ActorTemplate) Name() string { return t.name }

// Kind returns the host entity kind the template materializes as.
func (t *ActorTemplate) Kind() string { return t.kind }

// BaseHealth returns level 1 health.
func (t *ActorTemplate) BaseHealth() float64 { return t.baseHealth }

// BaseDamage returns level 1 damage.
func (t *ActorTemplate) BaseDamage() float64 { return t.baseDamage }

// MinLevel returns the lowest level the template may have.
func (t *ActorTemplate) MinLevel() int { return t.minLevel }

// MaxLevel returns the highest level the template may have.
func (t *ActorTemplate) MaxLevel() int { return t.maxLevel }

// CurrencyReward returns the level 1 currency yield.
func (t *ActorTemplate) CurrencyReward() int { return t.currencyReward }

// RareCurrencyReward returns the level 1 rare-currency yield.
func (t *ActorTemplate) RareCurrencyReward() int { return t.rareCurrencyReward }

// Drops returns a copy of the reward table.
func (t *ActorTemplate) Drops() []Drop { return slices.Clone(t.drops) }

// ClampLevel limits level to the template's range.
func (t *ActorTemplate) ClampLevel(level int) int {
	return max(t.minLevel, min(level, t.maxLevel))
}

// HealthAt returns health for the given level.
func (t *ActorTemplate) HealthAt(level int) float64 {
	return ScaledHealth(t.baseHealth, level)
}

// DamageAt returns damage for the given level.
func (t *ActorTemplate) DamageAt(level int) float64 {
	return ScaledDamage(t.baseDamage, level)
}

// CurrencyAt returns currency yield for the given level.
func (t *ActorTemplate) CurrencyAt(level int) int {
	return t.currencyReward + (level-1)*CurrencyPerLevel
}

// RareCurrencyAt returns rare-currency yield for the given level.
func (t *ActorTemplate) RareCurrencyAt(level int) int {
	return t.rareCurrencyReward + (level-1)*RareCurrencyPerLevel
}

// Params returns the definition for persistence.
func (t *ActorTemplate) Params() TemplateParams {
	return TemplateParams{
		ID:                 t.id,
		Name:               t.name,
		Kind:               t.kind,
		BaseHealth:         t.baseHealth,
		BaseDamage:         t.baseDamage,
		MinLevel:           t.minLevel,
		MaxLevel:           t.maxLevel,
		CurrencyReward:     t.currencyReward,
		RareCurrencyReward: t.rareCurrencyReward,
		Drops:              slices.Clone(t.drops),
	}
}

// ScaledHealth applies +20% per level above 1.
// Level 1 returns base exactly.
func ScaledHealth(base float64, level int) float64 {
	return base * (1 + float64(level-1)*HealthPerLevel)
}

// ScaledDamage applies +15% per level above 1.
// Level 1 returns base exactly.
func ScaledDamage(base float64, level int) float64 {
	return base * (1 + float64(level-1)*DamagePerLevel)
}
