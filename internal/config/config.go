// Package config loads the engine configuration from a YAML file.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/okulov/tempo/internal/store"
)

type Config struct {
	// DBPath locates the SQLite database. Empty means the per-user default.
	DBPath string `yaml:"db_path"`

	// UTCOffsetMinutes is the fixed local offset the engine timestamps in.
	// There is no further time-zone awareness.
	UTCOffsetMinutes int `yaml:"utc_offset_minutes"`

	// MinDurationSeconds and MaxDurationSeconds bound what a stop records.
	// Sessions outside the bounds are discarded with a warning.
	MinDurationSeconds int64 `yaml:"min_duration_seconds"`
	MaxDurationSeconds int64 `yaml:"max_duration_seconds"`

	// UserID identifies the local user when the TUI front end drives the
	// engine. A chat transport supplies its own identifiers instead.
	UserID int64 `yaml:"user_id"`
}

func Default() Config {
	return Config{
		UTCOffsetMinutes:   0,
		MinDurationSeconds: 0,
		MaxDurationSeconds: 86400,
		UserID:             1,
	}
}

// Load reads the config at path, falling back to defaults when the file does
// not exist. Fields left out of the file keep their default values.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if cfg.MaxDurationSeconds <= 0 {
		return Config{}, fmt.Errorf("max_duration_seconds must be positive, got %d", cfg.MaxDurationSeconds)
	}
	if cfg.MinDurationSeconds < 0 || cfg.MinDurationSeconds > cfg.MaxDurationSeconds {
		return Config{}, fmt.Errorf("min_duration_seconds %d out of range", cfg.MinDurationSeconds)
	}
	return cfg, nil
}

// Location returns the fixed-offset zone all engine timestamps use.
func (c Config) Location() *time.Location {
	if c.UTCOffsetMinutes == 0 {
		return time.UTC
	}
	return time.FixedZone(fmt.Sprintf("UTC%+d", c.UTCOffsetMinutes/60), c.UTCOffsetMinutes*60)
}

// Now returns the clock the engine should run on.
func (c Config) Now() func() time.Time {
	loc := c.Location()
	return func() time.Time {
		return time.Now().In(loc).Truncate(time.Second)
	}
}

// ResolveDBPath returns the configured database path or the default one.
func (c Config) ResolveDBPath() (string, error) {
	if c.DBPath != "" {
		return c.DBPath, nil
	}
	return store.DefaultDBPath()
}
