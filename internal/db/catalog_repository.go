package db

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/udisondev/regionspawn/internal/model"
)

// CatalogRepository persists spawn regions and actor templates in PostgreSQL.
// Implements catalog.Store.
type CatalogRepository struct {
	pool *pgxpool.Pool
}

// NewCatalogRepository creates a new catalog repository.
func NewCatalogRepository(pool *pgxpool.Pool) *CatalogRepository {
	return &CatalogRepository{pool: pool}
}

// LoadRegions loads all regions in creation order.
func (r *CatalogRepository) LoadRegions(ctx context.Context) ([]model.RegionParams, error) {
	query := `
		SELECT name, world, x1, y1, z1, x2, y2, z2,
		       min_level, max_level, template_ids, max_population, spawn_interval_ms
		FROM spawn_regions
		ORDER BY seq
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("loading regions: %w", err)
	}
	defer rows.Close()

	var regions []model.RegionParams
	for rows.Next() {
		var (
			p          model.RegionParams
			world      string
			intervalMs int64
		)
		if err := rows.Scan(
			&p.Name, &world,
			&p.Corner1.X, &p.Corner1.Y, &p.Corner1.Z,
			&p.Corner2.X, &p.Corner2.Y, &p.Corner2.Z,
			&p.MinLevel, &p.MaxLevel, &p.TemplateIDs, &p.MaxPopulation, &intervalMs,
		); err != nil {
			return nil, fmt.Errorf("scanning region row: %w", err)
		}
		p.Corner1.World = world
		p.Corner2.World = world
		p.SpawnInterval = time.Duration(intervalMs) * time.Millisecond
		regions = append(regions, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating region rows: %w", err)
	}

	return regions, nil
}

// LoadTemplates loads all templates with their drop tables in creation order.
func (r *CatalogRepository) LoadTemplates(ctx context.Context) ([]model.TemplateParams, error) {
	query := `
		SELECT id, name, kind, base_health, base_damage, min_level, max_level,
		       currency_reward, rare_currency_reward
		FROM actor_templates
		ORDER BY seq
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("loading templates: %w", err)
	}
	defer rows.Close()

	var templates []model.TemplateParams
	index := make(map[string]int)
	for rows.Next() {
		var p model.TemplateParams
		if err := rows.Scan(
			&p.ID, &p.Name, &p.Kind, &p.BaseHealth, &p.BaseDamage,
			&p.MinLevel, &p.MaxLevel, &p.CurrencyReward, &p.RareCurrencyReward,
		); err != nil {
			return nil, fmt.Errorf("scanning template row: %w", err)
		}
		index[p.ID] = len(templates)
		templates = append(templates, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating template rows: %w", err)
	}

	dropRows, err := r.pool.Query(ctx, `
		SELECT template_id, item_id, chance
		FROM template_drops
		ORDER BY template_id, position
	`)
	if err != nil {
		return nil, fmt.Errorf("loading template drops: %w", err)
	}
	defer dropRows.Close()

	for dropRows.Next() {
		var (
			templateID string
			d          model.Drop
		)
		if err := dropRows.Scan(&templateID, &d.ItemID, &d.Chance); err != nil {
			return nil, fmt.Errorf("scanning drop row: %w", err)
		}
		i, ok := index[templateID]
		if !ok {
			continue
		}
		templates[i].Drops = append(templates[i].Drops, d)
	}
	if err := dropRows.Err(); err != nil {
		return nil, fmt.Errorf("iterating drop rows: %w", err)
	}

	return templates, nil
}

// SaveRegion inserts or replaces a region definition.
func (r *CatalogRepository) SaveRegion(ctx context.Context, p model.RegionParams) error {
	query := `
		INSERT INTO spawn_regions
			(name, world, x1, y1, z1, x2, y2, z2,
			 min_level, max_level, template_ids, max_population, spawn_interval_ms)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (name) DO UPDATE SET
			world = EXCLUDED.world,
			x1 = EXCLUDED.x1, y1 = EXCLUDED.y1, z1 = EXCLUDED.z1,
			x2 = EXCLUDED.x2, y2 = EXCLUDED.y2, z2 = EXCLUDED.z2,
			min_level = EXCLUDED.min_level,
			max_level = EXCLUDED.max_level,
			template_ids = EXCLUDED.template_ids,
			max_population = EXCLUDED.max_population,
			spawn_interval_ms = EXCLUDED.spawn_interval_ms
	`

	ids := p.TemplateIDs
	if ids == nil {
		ids = []string{}
	}

	_, err := r.pool.Exec(ctx, query,
		p.Name, p.Corner1.World,
		p.Corner1.X, p.Corner1.Y, p.Corner1.Z,
		p.Corner2.X, p.Corner2.Y, p.Corner2.Z,
		p.MinLevel, p.MaxLevel, ids, p.MaxPopulation, p.SpawnInterval.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("saving region %q: %w", p.Name, err)
	}
	return nil
}

// DeleteRegion removes a region. Unknown names are ignored.
func (r *CatalogRepository) DeleteRegion(ctx context.Context, name string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM spawn_regions WHERE name = $1`, name); err != nil {
		return fmt.Errorf("deleting region %q: %w", name, err)
	}
	return nil
}

// SaveTemplate inserts or replaces a template and its drop table in one transaction.
func (r *CatalogRepository) SaveTemplate(ctx context.Context, p model.TemplateParams) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction for template %q: %w", p.ID, err)
	}
	defer func() {
		if err := tx.Rollback(ctx); err != nil && err != pgx.ErrTxClosed {
			slog.Error("rollback failed", "template", p.ID, "error", err)
		}
	}()

	_, err = tx.Exec(ctx, `
		INSERT INTO actor_templates
			(id, name, kind, base_health, base_damage, min_level, max_level,
			 currency_reward, rare_currency_reward)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			kind = EXCLUDED.kind,
			base_health = EXCLUDED.base_health,
			base_damage = EXCLUDED.base_damage,
			min_level = EXCLUDED.min_level,
			max_level = EXCLUDED.max_level,
			currency_reward = EXCLUDED.currency_reward,
			rare_currency_reward = EXCLUDED.rare_currency_reward
	`,
		p.ID, p.Name, p.Kind, p.BaseHealth, p.BaseDamage, p.MinLevel, p.MaxLevel,
		p.CurrencyReward, p.RareCurrencyReward,
	)
	if err != nil {
		return fmt.Errorf("saving template %q: %w", p.ID, err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM template_drops WHERE template_id = $1`, p.ID); err != nil {
		return fmt.Errorf("clearing drops of template %q: %w", p.ID, err)
	}

	if len(p.Drops) > 0 {
		batch := &pgx.Batch{}
		for i, d := range p.Drops {
			batch.Queue(
				`INSERT INTO template_drops (template_id, position, item_id, chance) VALUES ($1, $2, $3, $4)`,
				p.ID, i, d.ItemID, d.Chance,
			)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("saving drops of template %q: %w", p.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit template %q: %w", p.ID, err)
	}
	return nil
}

// DeleteTemplate removes a template. Its drops go with it.
func (r *CatalogRepository) DeleteTemplate(ctx context.Context, id string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM actor_templates WHERE id = $1`, id); err != nil {
		return fmt.Errorf("deleting template %q: %w", id, err)
	}
	return nil
}
