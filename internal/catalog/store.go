package catalog

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/udisondev/regionspawn/internal/model"
)

// Store is the durable source of region and template definitions.
// Implemented outside the core (database, files).
type Store interface {
	LoadRegions(ctx context.Context) ([]model.RegionParams, error)
	LoadTemplates(ctx context.Context) ([]model.TemplateParams, error)
	SaveRegion(ctx context.Context, p model.RegionParams) error
	DeleteRegion(ctx context.Context, name string) error
	SaveTemplate(ctx context.Context, p model.TemplateParams) error
	DeleteTemplate(ctx context.Context, id string) error
}

// Load fills c from store. Invalid definitions are skipped with a warning.
// Returns number of regions and templates loaded.
func Load(ctx context.Context, store Store, c RegionCatalog) (regions, templates int, err error) {
	tmpls, err := store.LoadTemplates(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("loading templates: %w", err)
	}
	for _, p := range tmpls {
		if err := ValidateTemplate(p); err != nil {
			slog.Warn("skip invalid template", "id", p.ID, "error", err)
			continue
		}
		c.UpsertTemplate(model.NewActorTemplate(p))
		templates++
	}

	regs, err := store.LoadRegions(ctx)
	if err != nil {
		return 0, templates, fmt.Errorf("loading regions: %w", err)
	}
	for _, p := range regs {
		if err := ValidateRegion(p); err != nil {
			slog.Warn("skip invalid region", "name", p.Name, "error", err)
			continue
		}
		for _, id := range p.TemplateIDs {
			if _, ok := c.Template(id); !ok {
				slog.Warn("region references unknown template", "region", p.Name, "template", id)
			}
		}
		c.UpsertRegion(model.NewRegion(p))
		regions++
	}

	slog.Info("catalog loaded", "regions", regions, "templates", templates)
	return regions, templates, nil
}
