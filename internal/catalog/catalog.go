package catalog

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/udisondev/regionspawn/internal/model"
)

// RegionCatalog is read/write access to region and template definitions.
// Lookups of unknown names return nil, false and never fail.
type RegionCatalog interface {
	Region(name string) (*model.Region, bool)
	RegionNames() []string
	UpsertRegion(region *model.Region)
	RemoveRegion(name string) bool

	Template(id string) (*model.ActorTemplate, bool)
	TemplateIDs() []string
	UpsertTemplate(tmpl *model.ActorTemplate)
	RemoveTemplate(id string) bool
}

// Memory is an in-memory RegionCatalog preserving insertion order.
// Safe for concurrent use.
type Memory struct {
	mu          sync.RWMutex
	regions     map[string]*model.Region
	regionOrder []string
	templates   map[string]*model.ActorTemplate
	tmplOrder   []string
}

// NewMemory creates an empty catalog.
func NewMemory() *Memory {
	return &Memory{
		regions:   make(map[string]*model.Region),
		templates: make(map[string]*model.ActorTemplate),
	}
}

// Region returns region by name.
func (c *Memory) Region(name string) (*model.Region, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.regions[name]
	return r, ok
}

// RegionNames returns region names in insertion order.
func (c *Memory) RegionNames() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.regionOrder)
}

// UpsertRegion adds a region or replaces one with the same name.
// Replacing keeps the original insertion position.
func (c *Memory) UpsertRegion(region *model.Region) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.regions[region.Name()]; !exists {
		c.regionOrder = append(c.regionOrder, region.Name())
	}
	c.regions[region.Name()] = region
}

// RemoveRegion deletes a region. Returns false if it was unknown.
func (c *Memory) RemoveRegion(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.regions[name]; !exists {
		return false
	}
	delete(c.regions, name)
	c.regionOrder = slices.DeleteFunc(c.regionOrder, func(n string) bool { return n == name })
	return true
}

// Template returns actor template by id.
func (c *Memory) Template(id string) (*model.ActorTemplate, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.templates[id]
	return t, ok
}

// TemplateIDs returns template ids in insertion order.
func (c *Memory) TemplateIDs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.tmplOrder)
}

// UpsertTemplate adds or replaces a template.
func (c *Memory) UpsertTemplate(tmpl *model.ActorTemplate) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.templates[tmpl.ID()]; !exists {
		c.tmplOrder = append(c.tmplOrder, tmpl.ID())
	}
	c.templates[tmpl.ID()] = tmpl
}

// RemoveTemplate deletes a template. Returns false if it was unknown.
func (c *Memory) RemoveTemplate(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.templates[id]; !exists {
		return false
	}
	delete(c.templates, id)
	c.tmplOrder = slices.DeleteFunc(c.tmplOrder, func(n string) bool { return n == id })
	return true
}

// Validation errors.
var (
	ErrNoName        = errors.New("region name is empty")
	ErrNoWorld       = errors.New("region world is empty")
	ErrNoTemplates   = errors.New("region has no allowed templates")
	ErrEmptyTemplate = errors.New("template id is empty")
	ErrLevelRange    = errors.New("min level above max level")
	ErrPopulation    = errors.New("max population is negative")
	ErrInterval      = errors.New("spawn interval is negative")
)

// ValidateRegion checks a region definition before it enters the catalog.
func ValidateRegion(p model.RegionParams) error {
	if p.Name == "" {
		return ErrNoName
	}
	if p.Corner1.World == "" {
		return fmt.Errorf("region %q: %w", p.Name, ErrNoWorld)
	}
	if len(p.TemplateIDs) == 0 {
		return fmt.Errorf("region %q: %w", p.Name, ErrNoTemplates)
	}
	if p.MinLevel > 0 && p.MaxLevel > 0 && p.MinLevel > p.MaxLevel {
		return fmt.Errorf("region %q: %w", p.Name, ErrLevelRange)
	}
	if p.MaxPopulation < 0 {
		return fmt.Errorf("region %q: %w", p.Name, ErrPopulation)
	}
	if p.SpawnInterval < 0 {
		return fmt.Errorf("region %q: %w", p.Name, ErrInterval)
	}
	return nil
}

// ValidateTemplate checks a template definition before it enters the catalog.
func ValidateTemplate(p model.TemplateParams) error {
	if p.ID == "" {
		return ErrEmptyTemplate
	}
	return nil
}
