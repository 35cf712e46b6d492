package catalog

import (
	"context"
	"fmt"
	"os"
	"slices"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/udisondev/regionspawn/internal/model"
)

// seedFile is the YAML layout of a catalog file.
type seedFile struct {
	Templates []model.TemplateParams `yaml:"templates"`
	Regions   []model.RegionParams   `yaml:"regions"`
}

// FileStore is a Store backed by a single YAML file.
// Every write rewrites the whole file.
type FileStore struct {
	path string

	mu   sync.Mutex
	seed seedFile
}

// OpenFileStore reads the catalog file at path.
// A missing file yields an empty store that is created on first write.
func OpenFileStore(path string) (*FileStore, error) {
	fs := &FileStore{path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fs, nil
		}
		return nil, fmt.Errorf("reading catalog %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &fs.seed); err != nil {
		return nil, fmt.Errorf("parsing catalog %s: %w", path, err)
	}
	return fs, nil
}

// LoadRegions returns all region definitions.
func (s *FileStore) LoadRegions(_ context.Context) ([]model.RegionParams, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.seed.Regions), nil
}

// LoadTemplates returns all template definitions.
func (s *FileStore) LoadTemplates(_ context.Context) ([]model.TemplateParams, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.seed.Templates), nil
}

// SaveRegion inserts or replaces a region and rewrites the file.
func (s *FileStore) SaveRegion(_ context.Context, p model.RegionParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.IndexFunc(s.seed.Regions, func(r model.RegionParams) bool { return r.Name == p.Name })
	if i >= 0 {
		s.seed.Regions[i] = p
	} else {
		s.seed.Regions = append(s.seed.Regions, p)
	}
	return s.flush()
}

// DeleteRegion removes a region and rewrites the file.
func (s *FileStore) DeleteRegion(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seed.Regions = slices.DeleteFunc(s.seed.Regions, func(r model.RegionParams) bool { return r.Name == name })
	return s.flush()
}

// SaveTemplate inserts or replaces a template and rewrites the file.
func (s *FileStore) SaveTemplate(_ context.Context, p model.TemplateParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.IndexFunc(s.seed.Templates, func(t model.TemplateParams) bool { return t.ID == p.ID })
	if i >= 0 {
		s.seed.Templates[i] = p
	} else {
		s.seed.Templates = append(s.seed.Templates, p)
	}
	return s.flush()
}

// DeleteTemplate removes a template and rewrites the file.
func (s *FileStore) DeleteTemplate(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seed.Templates = slices.DeleteFunc(s.seed.Templates, func(t model.TemplateParams) bool { return t.ID == id })
	return s.flush()
}

// flush writes the seed back to disk. Caller holds mu.
func (s *FileStore) flush() error {
	data, err := yaml.Marshal(&s.seed)
	if err != nil {
		return fmt.Errorf("encoding catalog: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("writing catalog %s: %w", s.path, err)
	}
	return nil
}
