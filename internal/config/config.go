package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the server configuration, loaded from YAML with env overrides
// applied on top.
type Config struct {
	Addr string `yaml:"addr" json:"addr"`

	// DBPath is the sqlite file for stored builds; empty keeps builds in
	// memory only.
	DBPath string `yaml:"db_path" json:"db_path"`

	// BuildCap caps saved builds per player.
	BuildCap int `yaml:"build_cap" json:"build_cap"`

	// SweepAlwaysUnlocked waives the tower-cleared requirement for sweeps.
	SweepAlwaysUnlocked bool `yaml:"sweep_always_unlocked" json:"sweep_always_unlocked"`
}

func Default() *Config {
	return &Config{
		Addr:     ":8720",
		BuildCap: 50,
	}
}

// Load reads the YAML file at path. A missing file is not an error; the
// defaults (plus env overrides) apply.
func Load(path string) (*Config, error) {
	cfg := Default()

	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg.withEnv(), nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg.withEnv(), nil
}
