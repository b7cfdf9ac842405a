package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/tailored-agentic-units/statecore/checkpoint"
	"github.com/tailored-agentic-units/statecore/store"
)

const defaultSearchLatencyMS = 50

// Config aggregates every subsystem's configuration for the CLI.
type Config struct {
	Store      store.Config      `json:"store"`
	Checkpoint checkpoint.Config `json:"checkpoint"`
	Search     SearchConfig      `json:"search"`
}

type SearchConfig struct {
	LatencyMS int `json:"latency_ms,omitempty"` // Simulated lookup latency.
}

func (c SearchConfig) Latency() time.Duration {
	return time.Duration(c.LatencyMS) * time.Millisecond
}

// DefaultConfig returns a Config with defaults for all subsystems.
func DefaultConfig() Config {
	cfg := Config{
		Store:      store.DefaultConfig(),
		Checkpoint: checkpoint.DefaultConfig(),
		Search:     SearchConfig{LatencyMS: defaultSearchLatencyMS},
	}
	cfg.Store.Name = "statecore"
	cfg.Checkpoint.Preserve = true
	return cfg
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	c.Store.Merge(&source.Store)
	c.Checkpoint.Merge(&source.Checkpoint)

	if source.Search.LatencyMS > 0 {
		c.Search.LatencyMS = source.Search.LatencyMS
	}
}

// LoadConfig reads a JSON config file, merges it with defaults, and returns
// the resulting Config. An empty filename returns the defaults.
func LoadConfig(filename string) (*Config, error) {
	cfg := DefaultConfig()
	if filename == "" {
		return &cfg, nil
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var loaded Config
	if err := json.Unmarshal(data, &loaded); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.Merge(&loaded)
	return &cfg, nil
}

// envConfig holds raw environment overrides.
type envConfig struct {
	StoreName          string `env:"STATECORE_STORE_NAME"`
	Observer           string `env:"STATECORE_OBSERVER"`
	SuggestDistance    int    `env:"STATECORE_SUGGEST_DISTANCE"`
	CheckpointStore    string `env:"STATECORE_CHECKPOINT_STORE"`
	CheckpointPath     string `env:"STATECORE_CHECKPOINT_PATH"`
	CheckpointInterval int    `env:"STATECORE_CHECKPOINT_INTERVAL"`
	CheckpointPreserve bool   `env:"STATECORE_CHECKPOINT_PRESERVE"`
	SearchLatencyMS    int    `env:"STATECORE_SEARCH_LATENCY_MS"`
}

// ApplyEnv merges environment overrides into c.
func (c *Config) ApplyEnv() error {
	var raw envConfig
	if err := env.Parse(&raw); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}

	c.Merge(&Config{
		Store: store.Config{
			Name:            raw.StoreName,
			Observer:        raw.Observer,
			SuggestDistance: raw.SuggestDistance,
		},
		Checkpoint: checkpoint.Config{
			Store:    raw.CheckpointStore,
			Path:     raw.CheckpointPath,
			Interval: raw.CheckpointInterval,
			Preserve: raw.CheckpointPreserve,
		},
		Search: SearchConfig{LatencyMS: raw.SearchLatencyMS},
	})
	return nil
}
