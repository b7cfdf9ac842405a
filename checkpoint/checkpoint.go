// Package checkpoint persists store state snapshots and restores them.
//
// A Recorder subscribes to a store and saves the JSON-encoded state every
// Interval notifications. Restore and RestoreLatest decode a saved snapshot
// so it can seed Store.Init on the next start.
//
//	cp, closer, err := checkpoint.New(&cfg)
//	defer closer.Close()
//	state, _, err := checkpoint.RestoreLatest[State](ctx, cp, "ui")
//	s.Init(state)
//	rec := checkpoint.Record(s, cp, &cfg)
//	defer rec.Close(ctx)
//
// Backends are selected by Config.Store: "memory" (registered by default),
// "file" and "sqlite" (both rooted at Config.Path), or any name added with
// Register.
package checkpoint

import (
	"context"
	"encoding/json"
	"time"
)

// Snapshot is one saved state.
type Snapshot struct {
	ID        string          `json:"id"`        // Store ID the state belongs to.
	Name      string          `json:"name"`      // Store name, used to find the latest snapshot across runs.
	Version   int64           `json:"version"`   // Notifications seen when the snapshot was taken.
	Data      json.RawMessage `json:"data"`      // JSON-encoded state.
	Timestamp time.Time       `json:"timestamp"` // Save time.
}

// Store provides persistence for state snapshots.
//
// Implementations keep one snapshot per store ID; Save overwrites. They must
// be safe for concurrent use.
type Store interface {
	// Save persists snap under snap.ID.
	Save(ctx context.Context, snap Snapshot) error

	// Load retrieves the snapshot for id. Returns ErrNotFound if none exists.
	Load(ctx context.Context, id string) (Snapshot, error)

	// Latest retrieves the most recent snapshot saved under name.
	// Returns ErrNotFound if none exists.
	Latest(ctx context.Context, name string) (Snapshot, error)

	// Delete removes the snapshot for id. Missing ids are ignored.
	Delete(ctx context.Context, id string) error

	// List returns the ids of every stored snapshot.
	List(ctx context.Context) ([]string, error)
}
