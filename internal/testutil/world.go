// Package testutil holds helpers shared by package tests.
package testutil

import (
	"testing"
	"time"

	"github.com/udisondev/regionspawn/internal/model"
	"github.com/udisondev/regionspawn/internal/world"
)

// Ground is the surface height of flat test worlds.
const Ground = 60

// FlatWorld creates a host with world name, a stone floor at y=Ground over
// [-size, size] on both axes and every chunk of that area loaded.
func FlatWorld(t testing.TB, name string, size int) *world.Server {
	t.Helper()
	srv := world.NewServer()
	AddFlatWorld(srv, name, size)
	return srv
}

// AddFlatWorld adds another flat world to srv.
func AddFlatWorld(srv *world.Server, name string, size int) *world.World {
	w := srv.CreateWorld(name)
	w.Fill(-size, Ground, -size, size, Ground, size, true)
	w.LoadArea(-size, -size, size, size)
	return w
}

// RegionParams returns a region of the given name covering [0,10] in x and z
// of world, above the flat floor.
func RegionParams(name, world string, templates ...string) model.RegionParams {
	return model.RegionParams{
		Name:          name,
		Corner1:       model.NewPoint(world, 0, Ground, 0),
		Corner2:       model.NewPoint(world, 10, Ground+10, 10),
		MinLevel:      1,
		MaxLevel:      10,
		TemplateIDs:   templates,
		MaxPopulation: 10,
		SpawnInterval: time.Second,
	}
}

// Template returns a template with stock stats.
func Template(id string) *model.ActorTemplate {
	return model.NewActorTemplate(model.TemplateParams{ID: id})
}

// Eventually polls cond every few milliseconds until it holds or timeout passes.
func Eventually(t testing.TB, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met within %v: %s", timeout, msg)
}
