package monitor

import (
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// PlayerActivity is what one player did against spawned actors.
type PlayerActivity struct {
	PlayerID      uuid.UUID
	ActorsKilled  int
	ItemsReceived int
	LastActive    time.Time
}

// Activity aggregates per-player kills and item grants.
// Safe for concurrent use.
type Activity struct {
	mu      sync.Mutex
	players map[uuid.UUID]*PlayerActivity
	kills   int
	items   int
	now     func() time.Time
}

// NewActivity creates an empty activity log.
func NewActivity() *Activity {
	return &Activity{
		players: make(map[uuid.UUID]*PlayerActivity),
		now:     time.Now,
	}
}

func (a *Activity) playerLocked(id uuid.UUID) *PlayerActivity {
	p, ok := a.players[id]
	if !ok {
		p = &PlayerActivity{PlayerID: id}
		a.players[id] = p
	}
	p.LastActive = a.now()
	return p
}

// RecordKill counts one defeated actor for player.
func (a *Activity) RecordKill(player uuid.UUID) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.playerLocked(player).ActorsKilled++
	a.kills++
}

// RecordItems counts n items granted to player.
func (a *Activity) RecordItems(player uuid.UUID, n int) {
	if n <= 0 {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.playerLocked(player).ItemsReceived += n
	a.items += n
}

// Totals returns kills and items across all players.
func (a *Activity) Totals() (kills, items int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.kills, a.items
}

// TopKillers returns up to n players ordered by kills, most first.
func (a *Activity) TopKillers(n int) []PlayerActivity {
	a.mu.Lock()
	out := make([]PlayerActivity, 0, len(a.players))
	for _, p := range a.players {
		out = append(out, *p)
	}
	a.mu.Unlock()

	slices.SortFunc(out, func(x, y PlayerActivity) int {
		if x.ActorsKilled != y.ActorsKilled {
			return y.ActorsKilled - x.ActorsKilled
		}
		return x.LastActive.Compare(y.LastActive)
	})
	return out[:min(max(n, 0), len(out))]
}

// Reset forgets everything.
func (a *Activity) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	clear(a.players)
	a.kills, a.items = 0, 0
}
