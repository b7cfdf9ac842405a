package store

const (
	defaultName            = "store"
	defaultObserver        = "slog"
	defaultSuggestDistance = 3
)

// Config holds store initialization parameters.
type Config struct {
	Name            string `json:"name,omitempty"`             // Label used as the event source suffix.
	Observer        string `json:"observer,omitempty"`         // Registered observability observer name.
	SuggestDistance int    `json:"suggest_distance,omitempty"` // Max edit distance for unhandled-type hints; negative disables.
}

// DefaultConfig returns the default store configuration.
func DefaultConfig() Config {
	return Config{
		Name:            defaultName,
		Observer:        defaultObserver,
		SuggestDistance: defaultSuggestDistance,
	}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.Name != "" {
		c.Name = source.Name
	}
	if source.Observer != "" {
		c.Observer = source.Observer
	}
	if source.SuggestDistance != 0 {
		c.SuggestDistance = source.SuggestDistance
	}
}
