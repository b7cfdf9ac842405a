package checkpoint

import (
	"context"
	"fmt"
	"slices"
	"sync"
)

// memoryStore keeps snapshots in process memory. Snapshots are lost when the
// process exits.
type memoryStore struct {
	snapshots map[string]Snapshot
	mu        sync.RWMutex
}

// NewMemoryStore creates a Store with in-memory storage.
func NewMemoryStore() Store {
	return &memoryStore{
		snapshots: make(map[string]Snapshot),
	}
}

func (m *memoryStore) Save(_ context.Context, snap Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap.Data = slices.Clone(snap.Data)
	m.snapshots[snap.ID] = snap
	return nil
}

func (m *memoryStore) Load(_ context.Context, id string) (Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap, exists := m.snapshots[id]
	if !exists {
		return Snapshot{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return snap, nil
}

func (m *memoryStore) Latest(_ context.Context, name string) (Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var latest Snapshot
	found := false
	for _, snap := range m.snapshots {
		if snap.Name != name {
			continue
		}
		if !found || snap.Timestamp.After(latest.Timestamp) {
			latest, found = snap, true
		}
	}
	if !found {
		return Snapshot{}, fmt.Errorf("%w: name %s", ErrNotFound, name)
	}
	return latest, nil
}

func (m *memoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.snapshots, id)
	return nil
}

func (m *memoryStore) List(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.snapshots))
	for id := range m.snapshots {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}
