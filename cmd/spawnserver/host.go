package main

import (
	"context"
	"log/slog"
	"math"
	"net/http"

	"github.com/google/uuid"

	"github.com/udisondev/regionspawn/internal/catalog"
	"github.com/udisondev/regionspawn/internal/service"
	"github.com/udisondev/regionspawn/internal/spawn"
	"github.com/udisondev/regionspawn/internal/world"
)

// seedWorlds creates every world the catalog references with a solid floor
// one block under each region and the region's chunks loaded.
func seedWorlds(host *world.Server, cat catalog.RegionCatalog, demo bool) {
	for _, name := range cat.RegionNames() {
		region, ok := cat.Region(name)
		if !ok {
			continue
		}
		w, ok := host.World(region.World())
		if !ok {
			w = host.CreateWorld(region.World())
		}

		b := region.Bounds()
		minX, maxX := int(math.Floor(b.MinX)), int(math.Floor(b.MaxX))
		minZ, maxZ := int(math.Floor(b.MinZ)), int(math.Floor(b.MaxZ))
		floor := int(math.Floor(b.MinY)) - 1
		w.Fill(minX, floor, minZ, maxX, floor, maxZ, true)
		w.LoadArea(minX, minZ, maxX, maxZ)

		if demo {
			host.AddObserver(region.Center())
		}
	}
	slog.Info("worlds seeded", "actors", host.ActorCount(), "observers", host.ObserverCount())
}

// logGranter reports rewards instead of delivering them.
type logGranter struct{}

func (logGranter) Grant(_ context.Context, killer uuid.UUID, g spawn.Grant) error {
	slog.Info("reward granted", "killer", killer, "kind", g.Kind, "item", g.ItemID, "amount", g.Amount)
	return nil
}

func newMux(svc *service.Service) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", svc.MetricsHandler())
	mux.HandleFunc("GET /stats.csv", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		if err := svc.ExportStats(w); err != nil {
			slog.Error("exporting stats", "error", err)
		}
	})
	mux.HandleFunc("POST /optimize", func(w http.ResponseWriter, r *http.Request) {
		res := svc.Optimize(r.Context())
		slog.Info("manual optimization", "categories", res.Categories, "deactivated", res.Deactivated)
		w.WriteHeader(http.StatusNoContent)
	})
	return mux
}
