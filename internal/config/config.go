package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Spawner holds all configuration for the spawn server.
type Spawner struct {
	LogLevel string `yaml:"log_level" env:"REGIONSPAWN_LOG_LEVEL"`
	Debug    bool   `yaml:"debug" env:"REGIONSPAWN_DEBUG"`

	// Enabled is the initial value of the global spawning switch.
	Enabled         bool `yaml:"enabled" env:"REGIONSPAWN_ENABLED"`
	ActivateOnStart bool `yaml:"activate_on_start" env:"REGIONSPAWN_ACTIVATE_ON_START"`

	// CatalogFile is a YAML seed with regions and templates.
	// Used when Database.Enabled is false.
	CatalogFile string `yaml:"catalog_file" env:"REGIONSPAWN_CATALOG_FILE"`

	// SettingsFile persists runtime tuning done by the optimizer.
	SettingsFile string `yaml:"settings_file" env:"REGIONSPAWN_SETTINGS_FILE"`

	// MetricsAddr serves Prometheus /metrics. Empty disables the listener.
	MetricsAddr string `yaml:"metrics_addr" env:"REGIONSPAWN_METRICS_ADDR"`

	Database    DatabaseConfig    `yaml:"database"`
	Spawn       SpawnConfig       `yaml:"spawn"`
	Performance PerformanceConfig `yaml:"performance"`
}

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	Enabled  bool   `yaml:"enabled" env:"REGIONSPAWN_DB_ENABLED"`
	Host     string `yaml:"host" env:"REGIONSPAWN_DB_HOST"`
	Port     int    `yaml:"port" env:"REGIONSPAWN_DB_PORT"`
	User     string `yaml:"user" env:"REGIONSPAWN_DB_USER"`
	Password string `yaml:"password" env:"REGIONSPAWN_DB_PASSWORD"`
	DBName   string `yaml:"dbname" env:"REGIONSPAWN_DB_NAME"`
	SSLMode  string `yaml:"sslmode" env:"REGIONSPAWN_DB_SSLMODE"`

	// MaxConns caps the pool; 0 keeps the pgx default.
	MaxConns       int32         `yaml:"max_conns" env:"REGIONSPAWN_DB_MAX_CONNS"`
	ConnectTimeout time.Duration `yaml:"connect_timeout" env:"REGIONSPAWN_DB_CONNECT_TIMEOUT"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// SpawnConfig tunes region spawn cycles.
type SpawnConfig struct {
	InitialDelay        time.Duration `yaml:"initial_delay" env:"REGIONSPAWN_SPAWN_INITIAL_DELAY"`
	DetectionRange      float64       `yaml:"detection_range" env:"REGIONSPAWN_SPAWN_DETECTION_RANGE"`
	MaxBatch            int           `yaml:"max_batch" env:"REGIONSPAWN_SPAWN_MAX_BATCH"`
	MaxAttempts         int           `yaml:"max_attempts" env:"REGIONSPAWN_SPAWN_MAX_ATTEMPTS"`
	SpawnPause          time.Duration `yaml:"spawn_pause" env:"REGIONSPAWN_SPAWN_PAUSE"`
	DespawnOnDeactivate bool          `yaml:"despawn_on_deactivate" env:"REGIONSPAWN_SPAWN_DESPAWN_ON_DEACTIVATE"`
	CleanupInterval     time.Duration `yaml:"cleanup_interval" env:"REGIONSPAWN_SPAWN_CLEANUP_INTERVAL"`
}

// PerformanceConfig tunes sampling and the adaptive optimizer.
type PerformanceConfig struct {
	SampleInterval   time.Duration `yaml:"sample_interval" env:"REGIONSPAWN_PERF_SAMPLE_INTERVAL"`
	HistorySize      int           `yaml:"history_size" env:"REGIONSPAWN_PERF_HISTORY_SIZE"`
	NominalTickRate  float64       `yaml:"nominal_tick_rate" env:"REGIONSPAWN_PERF_NOMINAL_TICK_RATE"`
	NominalPeriodMs  float64       `yaml:"nominal_period_ms" env:"REGIONSPAWN_PERF_NOMINAL_PERIOD_MS"` // 0: derived from SampleInterval
	MinElapsedMs     float64       `yaml:"min_elapsed_ms" env:"REGIONSPAWN_PERF_MIN_ELAPSED_MS"`
	AutoOptimize     bool          `yaml:"auto_optimize" env:"REGIONSPAWN_PERF_AUTO_OPTIMIZE"`
	OptimizeCooldown time.Duration `yaml:"optimize_cooldown" env:"REGIONSPAWN_PERF_OPTIMIZE_COOLDOWN"`
	MinHistory       int           `yaml:"min_history" env:"REGIONSPAWN_PERF_MIN_HISTORY"`

	MemoryThresholdMB  int64   `yaml:"memory_threshold_mb" env:"REGIONSPAWN_PERF_MEMORY_THRESHOLD_MB"`
	TickRateThreshold  float64 `yaml:"tick_rate_threshold" env:"REGIONSPAWN_PERF_TICK_RATE_THRESHOLD"`
	PopulationLimit    int     `yaml:"population_limit" env:"REGIONSPAWN_PERF_POPULATION_LIMIT"`
	CrowdedRegionLimit int     `yaml:"crowded_region_limit" env:"REGIONSPAWN_PERF_CROWDED_REGION_LIMIT"`

	SpawnIntervalStep   time.Duration `yaml:"spawn_interval_step" env:"REGIONSPAWN_PERF_SPAWN_INTERVAL_STEP"`
	CleanupIntervalStep time.Duration `yaml:"cleanup_interval_step" env:"REGIONSPAWN_PERF_CLEANUP_INTERVAL_STEP"`
	CleanupIntervalMin  time.Duration `yaml:"cleanup_interval_min" env:"REGIONSPAWN_PERF_CLEANUP_INTERVAL_MIN"`
	ReactivateDelay     time.Duration `yaml:"reactivate_delay" env:"REGIONSPAWN_PERF_REACTIVATE_DELAY"`
}

// DefaultSpawnConfig returns spawn tuning with stock values.
func DefaultSpawnConfig() SpawnConfig {
	return SpawnConfig{
		InitialDelay:        1 * time.Second,
		DetectionRange:      64,
		MaxBatch:            3,
		MaxAttempts:         5,
		SpawnPause:          50 * time.Millisecond,
		DespawnOnDeactivate: true,
		CleanupInterval:     60 * time.Second,
	}
}

// WithDefaults returns c with unusable values replaced by stock ones.
// Zero InitialDelay and SpawnPause are kept; they disable the wait.
func (c SpawnConfig) WithDefaults() SpawnConfig {
	d := DefaultSpawnConfig()
	if c.InitialDelay < 0 {
		c.InitialDelay = 0
	}
	if c.DetectionRange <= 0 {
		c.DetectionRange = d.DetectionRange
	}
	if c.MaxBatch <= 0 {
		c.MaxBatch = d.MaxBatch
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = d.MaxAttempts
	}
	if c.SpawnPause < 0 {
		c.SpawnPause = 0
	}
	if c.CleanupInterval <= 0 {
		c.CleanupInterval = d.CleanupInterval
	}
	return c
}

// DefaultPerformanceConfig returns sampler and optimizer tuning with stock values.
func DefaultPerformanceConfig() PerformanceConfig {
	return PerformanceConfig{
		SampleInterval:      30 * time.Second,
		HistorySize:         100,
		NominalTickRate:     20,
		MinElapsedMs:        50,
		AutoOptimize:        true,
		OptimizeCooldown:    5 * time.Minute,
		MinHistory:          3,
		MemoryThresholdMB:   1024,
		TickRateThreshold:   15,
		PopulationLimit:     200,
		CrowdedRegionLimit:  15,
		SpawnIntervalStep:   1 * time.Second,
		CleanupIntervalStep: 15 * time.Second,
		CleanupIntervalMin:  30 * time.Second,
		ReactivateDelay:     10 * time.Second,
	}
}

// WithDefaults returns c with unusable values replaced by stock ones.
// Zero OptimizeCooldown, MinHistory and NominalPeriodMs are kept.
func (c PerformanceConfig) WithDefaults() PerformanceConfig {
	d := DefaultPerformanceConfig()
	if c.SampleInterval <= 0 {
		c.SampleInterval = d.SampleInterval
	}
	if c.HistorySize <= 0 {
		c.HistorySize = d.HistorySize
	}
	if c.NominalTickRate <= 0 {
		c.NominalTickRate = d.NominalTickRate
	}
	if c.NominalPeriodMs < 0 {
		c.NominalPeriodMs = 0
	}
	if c.MinElapsedMs <= 0 {
		c.MinElapsedMs = d.MinElapsedMs
	}
	if c.OptimizeCooldown < 0 {
		c.OptimizeCooldown = d.OptimizeCooldown
	}
	if c.MinHistory < 0 {
		c.MinHistory = d.MinHistory
	}
	if c.SpawnIntervalStep < 0 {
		c.SpawnIntervalStep = d.SpawnIntervalStep
	}
	if c.CleanupIntervalStep < 0 {
		c.CleanupIntervalStep = d.CleanupIntervalStep
	}
	if c.CleanupIntervalMin <= 0 {
		c.CleanupIntervalMin = d.CleanupIntervalMin
	}
	if c.ReactivateDelay < 0 {
		c.ReactivateDelay = d.ReactivateDelay
	}
	return c
}

// DefaultSpawner returns Spawner config with sensible defaults.
func DefaultSpawner() Spawner {
	return Spawner{
		LogLevel:        "info",
		Enabled:         true,
		ActivateOnStart: true,
		CatalogFile:     "config/catalog.yaml",
		SettingsFile:    "config/runtime.yaml",
		MetricsAddr:     ":2112",
		Database: DatabaseConfig{
			Host:           "127.0.0.1",
			Port:           5432,
			User:           "regionspawn",
			Password:       "regionspawn",
			DBName:         "regionspawn",
			SSLMode:        "disable",
			MaxConns:       4,
			ConnectTimeout: 5 * time.Second,
		},
		Spawn:       DefaultSpawnConfig(),
		Performance: DefaultPerformanceConfig(),
	}
}

// LoadSpawner loads spawner config from a YAML file and applies
// REGIONSPAWN_* environment overrides on top.
// If the file doesn't exist, defaults are used. Unusable tunables from either
// source fall back to their defaults.
func LoadSpawner(path string) (Spawner, error) {
	cfg := DefaultSpawner()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config %s: %w", path, err)
		}
	case os.IsNotExist(err):
	default:
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parsing env overrides: %w", err)
	}

	cfg.Spawn = cfg.Spawn.WithDefaults()
	cfg.Performance = cfg.Performance.WithDefaults()
	return cfg, nil
}
