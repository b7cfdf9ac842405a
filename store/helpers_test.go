package store_test

import (
	"context"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/tailored-agentic-units/statecore/action"
	"github.com/tailored-agentic-units/statecore/observability"
	"github.com/tailored-agentic-units/statecore/slice"
	"github.com/tailored-agentic-units/statecore/store"
)

type counterState struct {
	Count int
	Log   []string
}

func newCounterSlice() (*slice.Slice[counterState], action.Factory[int]) {
	counter := slice.New[counterState]("counter")
	inc := slice.MustAddReducer(counter, "increment", func(s counterState, n int) counterState {
		return counterState{Count: s.Count + n, Log: append(slices.Clone(s.Log), "counter")}
	})
	return counter, inc
}

func newStore(t *testing.T, members []*slice.Slice[counterState], events observability.Observer) *store.Store[counterState] {
	t.Helper()

	if events == nil {
		events = observability.NoOpObserver{}
	}
	s, err := store.New(&store.Config{Name: "test"}, counterState{}, members, store.WithEventObserver(events))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(func() { s.Shutdown(time.Second) })
	return s
}

func waitProducers(t *testing.T, s *store.Store[counterState]) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Wait(ctx); err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
}

type stateRecorder struct {
	mu     sync.Mutex
	counts []int
}

func (r *stateRecorder) OnStateChanged(s counterState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counts = append(r.counts, s.Count)
}

func (r *stateRecorder) all() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.counts)
}

type eventLog struct {
	mu     sync.Mutex
	events []observability.Event
}

func (l *eventLog) OnEvent(ctx context.Context, e observability.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
}

func (l *eventLog) ofType(typ observability.EventType) []observability.Event {
	l.mu.Lock()
	defer l.mu.Unlock()

	var matched []observability.Event
	for _, e := range l.events {
		if e.Type == typ {
			matched = append(matched, e)
		}
	}
	return matched
}
