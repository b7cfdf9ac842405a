package checkpoint

import (
	"fmt"
	"io"
)

const defaultInterval = 1

// Config holds checkpointing parameters.
type Config struct {
	Store    string `json:"store,omitempty"`    // Backend: "memory", "file", "sqlite" or a registered name.
	Path     string `json:"path,omitempty"`     // Directory for "file", database file for "sqlite".
	Interval int    `json:"interval,omitempty"` // Save every N notifications; zero or less saves only on Flush and Close.
	Preserve bool   `json:"preserve,omitempty"` // Keep the snapshot when the recorder closes.
}

// DefaultConfig returns the default checkpoint configuration: in-memory,
// saving on every notification.
func DefaultConfig() Config {
	return Config{
		Store:    "memory",
		Interval: defaultInterval,
	}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.Store != "" {
		c.Store = source.Store
	}
	if source.Path != "" {
		c.Path = source.Path
	}
	if source.Interval != 0 {
		c.Interval = source.Interval
	}
	if source.Preserve {
		c.Preserve = true
	}
}

// New creates the Store named by cfg.Store. The returned closer releases
// backend resources and is never nil.
func New(cfg *Config) (Store, io.Closer, error) {
	switch cfg.Store {
	case "file":
		if cfg.Path == "" {
			return nil, nil, fmt.Errorf("%w: file store", ErrPathRequired)
		}
		return NewFileStore(cfg.Path), nopCloser{}, nil
	case "sqlite":
		db, err := OpenSQLite(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		return db, db, nil
	default:
		store, err := Get(cfg.Store)
		if err != nil {
			return nil, nil, err
		}
		return store, nopCloser{}, nil
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
