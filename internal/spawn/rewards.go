package spawn

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/udisondev/regionspawn/internal/model"
)

// GrantKind tells the granter what a Grant carries.
type GrantKind int

const (
	GrantCurrency GrantKind = iota
	GrantRareCurrency
	GrantItem
)

func (k GrantKind) String() string {
	switch k {
	case GrantCurrency:
		return "currency"
	case GrantRareCurrency:
		return "rare_currency"
	case GrantItem:
		return "item"
	default:
		return fmt.Sprintf("GrantKind(%d)", int(k))
	}
}

// Grant is one reward handed to the killer.
type Grant struct {
	Kind   GrantKind
	ItemID string // GrantItem only
	Amount int
}

// Granter delivers rewards to a player. Implemented by the host.
type Granter interface {
	Grant(ctx context.Context, killer uuid.UUID, g Grant) error
}

// Rewards computes the grants for defeating a tmpl actor of the given level.
// Currency yields scale with level; every drop is rolled independently.
// Zero yields are omitted.
func Rewards(tmpl *model.ActorTemplate, level int, rng Random) []Grant {
	if rng == nil {
		rng = DefaultRandom
	}

	var grants []Grant
	if n := tmpl.CurrencyAt(level); n > 0 {
		grants = append(grants, Grant{Kind: GrantCurrency, Amount: n})
	}
	if n := tmpl.RareCurrencyAt(level); n > 0 {
		grants = append(grants, Grant{Kind: GrantRareCurrency, Amount: n})
	}
	for _, d := range tmpl.Drops() {
		if rng.Float64() < d.Chance {
			grants = append(grants, Grant{Kind: GrantItem, ItemID: d.ItemID, Amount: 1})
		}
	}
	return grants
}

// Deliver passes every grant to g. Stops at the first failure.
func Deliver(ctx context.Context, g Granter, killer uuid.UUID, grants []Grant) error {
	for _, gr := range grants {
		if err := g.Grant(ctx, killer, gr); err != nil {
			return fmt.Errorf("granting %s to %s: %w", gr.Kind, killer, err)
		}
	}
	return nil
}
