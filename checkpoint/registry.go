package checkpoint

import (
	"fmt"
	"sync"
)

// stores is the registry of named Store implementations. "memory" is
// registered by default.
var (
	stores = map[string]Store{
		"memory": NewMemoryStore(),
	}
	mutex sync.RWMutex
)

// Get retrieves a registered Store by name.
func Get(name string) (Store, error) {
	mutex.RLock()
	defer mutex.RUnlock()

	store, exists := stores[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrUnknownStore, name)
	}
	return store, nil
}

// Register adds or replaces a named Store in the registry.
func Register(name string, store Store) {
	mutex.Lock()
	defer mutex.Unlock()

	stores[name] = store
}
