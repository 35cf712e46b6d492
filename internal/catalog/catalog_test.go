package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/regionspawn/internal/model"
)

func region(name string) *model.Region {
	return model.NewRegion(model.RegionParams{
		Name:        name,
		Corner1:     model.NewPoint("w", 0, 64, 0),
		Corner2:     model.NewPoint("w", 16, 70, 16),
		TemplateIDs: []string{"zombie"},
	})
}

func TestMemory_RegionLookup(t *testing.T) {
	c := NewMemory()

	r, ok := c.Region("missing")
	assert.False(t, ok)
	assert.Nil(t, r)

	c.UpsertRegion(region("north"))
	c.UpsertRegion(region("south"))
	c.UpsertRegion(region("east"))

	r, ok = c.Region("south")
	require.True(t, ok)
	assert.Equal(t, "south", r.Name())
	assert.Equal(t, []string{"north", "south", "east"}, c.RegionNames())
}

func TestMemory_UpsertKeepsPosition(t *testing.T) {
	c := NewMemory()
	c.UpsertRegion(region("a"))
	c.UpsertRegion(region("b"))

	replaced := model.NewRegion(model.RegionParams{
		Name:          "a",
		Corner1:       model.NewPoint("w", 0, 0, 0),
		MaxPopulation: 42,
	})
	c.UpsertRegion(replaced)

	assert.Equal(t, []string{"a", "b"}, c.RegionNames())
	r, _ := c.Region("a")
	assert.Equal(t, 42, r.MaxPopulation())
}

func TestMemory_Remove(t *testing.T) {
	c := NewMemory()
	c.UpsertRegion(region("a"))
	c.UpsertRegion(region("b"))

	assert.True(t, c.RemoveRegion("a"))
	assert.False(t, c.RemoveRegion("a"))
	assert.Equal(t, []string{"b"}, c.RegionNames())

	c.UpsertTemplate(model.NewActorTemplate(model.TemplateParams{ID: "zombie"}))
	c.UpsertTemplate(model.NewActorTemplate(model.TemplateParams{ID: "skeleton"}))
	assert.Equal(t, []string{"zombie", "skeleton"}, c.TemplateIDs())
	assert.True(t, c.RemoveTemplate("zombie"))
	assert.False(t, c.RemoveTemplate("zombie"))
	_, ok := c.Template("zombie")
	assert.False(t, ok)
}

func TestValidateRegion(t *testing.T) {
	valid := region("ok").Params()
	require.NoError(t, ValidateRegion(valid))

	noName := valid
	noName.Name = ""
	assert.ErrorIs(t, ValidateRegion(noName), ErrNoName)

	noWorld := valid
	noWorld.Corner1.World = ""
	assert.ErrorIs(t, ValidateRegion(noWorld), ErrNoWorld)

	noTemplates := valid
	noTemplates.TemplateIDs = nil
	assert.ErrorIs(t, ValidateRegion(noTemplates), ErrNoTemplates)

	reversed := valid
	reversed.MinLevel, reversed.MaxLevel = 8, 3
	assert.ErrorIs(t, ValidateRegion(reversed), ErrLevelRange)

	negative := valid
	negative.MaxPopulation = -1
	assert.ErrorIs(t, ValidateRegion(negative), ErrPopulation)

	backwards := valid
	backwards.SpawnInterval = -time.Second
	assert.ErrorIs(t, ValidateRegion(backwards), ErrInterval)
}

const seed = `
templates:
  - id: zombie
    name: Rotting Zombie
    kind: zombie
    base_health: 24
    drops:
      - item: rotten_flesh
        chance: 0.5
  - id: ""
regions:
  - name: graveyard
    corner1: {world: overworld, x: 0, y: 80, z: 0}
    corner2: {world: overworld, x: 32, y: 60, z: 32}
    min_level: 2
    max_level: 4
    templates: [zombie]
    max_population: 6
    spawn_interval: 5s
  - name: broken
    corner1: {world: overworld, x: 0, y: 0, z: 0}
`

func TestLoad_FromFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(seed), 0o644))

	store, err := OpenFileStore(path)
	require.NoError(t, err)

	c := NewMemory()
	regions, templates, err := Load(context.Background(), store, c)
	require.NoError(t, err)
	assert.Equal(t, 1, regions)
	assert.Equal(t, 1, templates)

	r, ok := c.Region("graveyard")
	require.True(t, ok)
	assert.Equal(t, 2, r.MinLevel())
	assert.Equal(t, 4, r.MaxLevel())
	assert.Equal(t, 6, r.MaxPopulation())
	assert.Equal(t, 5*time.Second, r.SpawnInterval())
	assert.Equal(t, 80.0, r.Bounds().MaxY)

	tmpl, ok := c.Template("zombie")
	require.True(t, ok)
	assert.Equal(t, "Rotting Zombie", tmpl.Name())
	assert.Equal(t, 24.0, tmpl.BaseHealth())
	assert.Equal(t, []model.Drop{{ItemID: "rotten_flesh", Chance: 0.5}}, tmpl.Drops())
}

func TestFileStore_Writes(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "catalog.yaml")

	store, err := OpenFileStore(path)
	require.NoError(t, err)

	require.NoError(t, store.SaveTemplate(ctx, model.TemplateParams{ID: "wolf"}))
	require.NoError(t, store.SaveRegion(ctx, region("forest").Params()))
	require.NoError(t, store.SaveRegion(ctx, region("forest").Params()))

	reopened, err := OpenFileStore(path)
	require.NoError(t, err)
	regions, err := reopened.LoadRegions(ctx)
	require.NoError(t, err)
	require.Len(t, regions, 1)
	assert.Equal(t, "forest", regions[0].Name)

	require.NoError(t, reopened.DeleteRegion(ctx, "forest"))
	require.NoError(t, reopened.DeleteTemplate(ctx, "wolf"))

	final, err := OpenFileStore(path)
	require.NoError(t, err)
	regions, _ = final.LoadRegions(ctx)
	templates, _ := final.LoadTemplates(ctx)
	assert.Empty(t, regions)
	assert.Empty(t, templates)
}
