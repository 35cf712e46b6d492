package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// runtimeState is the on-disk form of Settings.
type runtimeState struct {
	Enabled             bool          `yaml:"enabled"`
	SpawnIntervalOffset time.Duration `yaml:"spawn_interval_offset"`
	CleanupInterval     time.Duration `yaml:"cleanup_interval"`
}

// Settings is the mutable runtime configuration shared by every periodic task.
// Tasks read it at cycle start; the optimizer writes it.
// Safe for concurrent use.
type Settings struct {
	path string

	mu                  sync.RWMutex
	enabled             bool
	debug               bool
	spawnIntervalOffset time.Duration
	cleanupInterval     time.Duration
}

// NewSettings creates Settings seeded from static config.
// path is where Save persists; empty disables persistence.
func NewSettings(cfg Spawner) *Settings {
	cleanup := cfg.Spawn.CleanupInterval
	if cleanup <= 0 {
		cleanup = DefaultSpawnConfig().CleanupInterval
	}
	return &Settings{
		path:            cfg.SettingsFile,
		enabled:         cfg.Enabled,
		debug:           cfg.Debug,
		cleanupInterval: cleanup,
	}
}

// Restore applies previously saved state from the settings file.
// A missing file is not an error.
func (s *Settings) Restore() error {
	if s.path == "" {
		return nil
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading settings %s: %w", s.path, err)
	}

	var st runtimeState
	if err := yaml.Unmarshal(data, &st); err != nil {
		return fmt.Errorf("parsing settings %s: %w", s.path, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.enabled = st.Enabled
	if st.SpawnIntervalOffset > 0 {
		s.spawnIntervalOffset = st.SpawnIntervalOffset
	}
	if st.CleanupInterval > 0 {
		s.cleanupInterval = st.CleanupInterval
	}
	return nil
}

// Save persists the current state to the settings file.
func (s *Settings) Save() error {
	if s.path == "" {
		return nil
	}

	s.mu.RLock()
	st := runtimeState{
		Enabled:             s.enabled,
		SpawnIntervalOffset: s.spawnIntervalOffset,
		CleanupInterval:     s.cleanupInterval,
	}
	s.mu.RUnlock()

	data, err := yaml.Marshal(st)
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating settings dir %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("writing settings %s: %w", s.path, err)
	}
	return nil
}

// Enabled reports the global spawning switch.
func (s *Settings) Enabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.enabled
}

// SetEnabled flips the global spawning switch.
func (s *Settings) SetEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enabled = enabled
}

// Debug reports whether verbose statistics logging is on.
func (s *Settings) Debug() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.debug
}

// SetDebug toggles verbose statistics logging.
func (s *Settings) SetDebug(debug bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.debug = debug
}

// SpawnIntervalOffset is added to every region's spawn interval.
func (s *Settings) SpawnIntervalOffset() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.spawnIntervalOffset
}

// IncreaseSpawnInterval grows the offset by step and returns the new value.
func (s *Settings) IncreaseSpawnInterval(step time.Duration) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.spawnIntervalOffset += step
	return s.spawnIntervalOffset
}

// CleanupInterval returns the tracker cleanup period.
func (s *Settings) CleanupInterval() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cleanupInterval
}

// DecreaseCleanupInterval shortens the cleanup period by step, never below floor.
// An interval already under floor is raised to floor. Returns the new value.
func (s *Settings) DecreaseCleanupInterval(step, floor time.Duration) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cleanupInterval = max(floor, s.cleanupInterval-step)
	return s.cleanupInterval
}
