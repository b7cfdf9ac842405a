package observability

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
)

// ErrUnknownObserver is returned when a name has no registered observer.
var ErrUnknownObserver = errors.New("unknown observer")

type registry struct {
	mu        sync.RWMutex
	observers map[string]Observer
}

var observers = &registry{
	observers: map[string]Observer{
		"noop": NoOpObserver{},
		"slog": NewSlogObserver(slog.Default()),
		"otel": NewOTelObserver(),
	},
}

// GetObserver resolves a registered observer by name.
// "noop", "slog" (default logger) and "otel" are always available.
func GetObserver(name string) (Observer, error) {
	observers.mu.RLock()
	defer observers.mu.RUnlock()

	if obs, ok := observers.observers[name]; ok {
		return obs, nil
	}
	return nil, fmt.Errorf("%w: %q (registered: %s)",
		ErrUnknownObserver, name, strings.Join(observers.namesLocked(), ", "))
}

// RegisterObserver adds or replaces a named observer. A nil observer
// removes the entry.
func RegisterObserver(name string, observer Observer) {
	observers.mu.Lock()
	defer observers.mu.Unlock()

	if observer == nil {
		delete(observers.observers, name)
		return
	}
	observers.observers[name] = observer
}

// ObserverNames lists registered observer names in sorted order.
func ObserverNames() []string {
	observers.mu.RLock()
	defer observers.mu.RUnlock()
	return observers.namesLocked()
}

func (r *registry) namesLocked() []string {
	names := make([]string, 0, len(r.observers))
	for name := range r.observers {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
