package store_test

import (
	"testing"

	"github.com/tailored-agentic-units/statecore/store"
)

func TestDefaultConfig(t *testing.T) {
	cfg := store.DefaultConfig()

	if cfg.Name != "store" {
		t.Errorf("Name = %q, want %q", cfg.Name, "store")
	}
	if cfg.Observer != "slog" {
		t.Errorf("Observer = %q, want %q", cfg.Observer, "slog")
	}
	if cfg.SuggestDistance != 3 {
		t.Errorf("SuggestDistance = %d, want 3", cfg.SuggestDistance)
	}
}

func TestConfig_Merge(t *testing.T) {
	tests := []struct {
		name   string
		source store.Config
		want   store.Config
	}{
		{
			name:   "empty source keeps defaults",
			source: store.Config{},
			want:   store.DefaultConfig(),
		},
		{
			name:   "overrides set fields",
			source: store.Config{Name: "ui", Observer: "noop", SuggestDistance: -1},
			want:   store.Config{Name: "ui", Observer: "noop", SuggestDistance: -1},
		},
		{
			name:   "partial override",
			source: store.Config{Name: "ui"},
			want:   store.Config{Name: "ui", Observer: "slog", SuggestDistance: 3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := store.DefaultConfig()
			cfg.Merge(&tt.source)
			if cfg != tt.want {
				t.Errorf("got %+v, want %+v", cfg, tt.want)
			}
		})
	}
}
