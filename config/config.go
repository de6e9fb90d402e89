// Package config loads cache configuration from YAML files.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/IvanBrykalov/segcache/cache"
)

// Duration parses YAML scalars like "250ms", "5m" or "1h30m" via
// time.ParseDuration (yaml.v3 has no native handling for time.Duration).
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Config mirrors the builder knobs that make sense in a file. Pluggable
// behavior (weigher, listener, clock, metrics) stays in code.
type Config struct {
	MaximumWeight     int64    `yaml:"maximum_weight"`
	Segments          int      `yaml:"segments"`
	ExpireAfterAccess Duration `yaml:"expire_after_access"`
	ExpireAfterWrite  Duration `yaml:"expire_after_write"`
	SweepInterval     Duration `yaml:"sweep_interval"`
}

// Load reads and parses a YAML config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("unmarshal yaml from %s: %w", path, err)
	}
	return cfg, nil
}

// ToOptions copies the file-borne knobs into an Options value; callers fill
// in the pluggable fields afterwards. Validation happens in cache.New.
func ToOptions[K comparable, V any](cfg *Config) cache.Options[K, V] {
	return cache.Options[K, V]{
		MaximumWeight:     cfg.MaximumWeight,
		Segments:          cfg.Segments,
		ExpireAfterAccess: time.Duration(cfg.ExpireAfterAccess),
		ExpireAfterWrite:  time.Duration(cfg.ExpireAfterWrite),
		SweepInterval:     time.Duration(cfg.SweepInterval),
	}
}
