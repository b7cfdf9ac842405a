package checkpoint

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

const fileExt = ".json"

type fileStore struct {
	root string
}

// NewFileStore creates a Store that writes one JSON file per snapshot under
// root. Writes are atomic: a snapshot is written to a temporary file and
// renamed into place.
func NewFileStore(root string) Store {
	return &fileStore{root: root}
}

func (s *fileStore) path(id string) string {
	return filepath.Join(s.root, id+fileExt)
}

func (s *fileStore) Save(_ context.Context, snap Snapshot) error {
	if snap.ID == "" || strings.ContainsAny(snap.ID, `/\`) {
		return fmt.Errorf("%w: invalid id %q", ErrSaveFailed, snap.ID)
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrSaveFailed, snap.ID, err)
	}

	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrSaveFailed, snap.ID, err)
	}

	tmp, err := os.CreateTemp(s.root, ".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrSaveFailed, snap.ID, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: %s: %v", ErrSaveFailed, snap.ID, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: %s: %v", ErrSaveFailed, snap.ID, err)
	}

	if err := os.Rename(tmpName, s.path(snap.ID)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: %s: %v", ErrSaveFailed, snap.ID, err)
	}

	return nil
}

func (s *fileStore) Load(_ context.Context, id string) (Snapshot, error) {
	return s.read(s.path(id), id)
}

func (s *fileStore) read(path, id string) (Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Snapshot{}, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return Snapshot{}, fmt.Errorf("%w: %s: %v", ErrLoadFailed, id, err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %s: %v", ErrLoadFailed, id, err)
	}
	return snap, nil
}

func (s *fileStore) Latest(ctx context.Context, name string) (Snapshot, error) {
	ids, err := s.List(ctx)
	if err != nil {
		return Snapshot{}, err
	}

	var latest Snapshot
	found := false
	for _, id := range ids {
		snap, err := s.Load(ctx, id)
		if err != nil {
			return Snapshot{}, err
		}
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

func (s *fileStore) Delete(_ context.Context, id string) error {
	if err := os.Remove(s.path(id)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete failed: %s: %w", id, err)
	}
	return nil
}

func (s *fileStore) List(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrLoadFailed, err)
	}

	var ids []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, fileExt) {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, fileExt))
	}
	slices.Sort(ids)
	return ids, nil
}
