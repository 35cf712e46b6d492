package monitor

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActivity(t *testing.T) {
	a := NewActivity()
	clock := newFakeClock()
	a.now = clock.Now

	alice, bob := uuid.New(), uuid.New()
	a.RecordKill(alice)
	clock.Advance(time.Second)
	a.RecordKill(bob)
	a.RecordKill(bob)
	a.RecordItems(bob, 3)
	a.RecordItems(alice, 0)

	kills, items := a.Totals()
	assert.Equal(t, 3, kills)
	assert.Equal(t, 3, items)

	top := a.TopKillers(10)
	require.Len(t, top, 2)
	assert.Equal(t, bob, top[0].PlayerID)
	assert.Equal(t, 2, top[0].ActorsKilled)
	assert.Equal(t, 3, top[0].ItemsReceived)
	assert.Equal(t, clock.Now(), top[0].LastActive)

	assert.Len(t, a.TopKillers(1), 1)
	assert.Empty(t, a.TopKillers(0))

	a.Reset()
	kills, items = a.Totals()
	assert.Zero(t, kills)
	assert.Zero(t, items)
	assert.Empty(t, a.TopKillers(10))
}
