package store_test

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/tailored-agentic-units/statecore/action"
	"github.com/tailored-agentic-units/statecore/observability"
	"github.com/tailored-agentic-units/statecore/slice"
	"github.com/tailored-agentic-units/statecore/store"
)

func TestProducer_YieldOrder(t *testing.T) {
	counter, inc := newCounterSlice()
	s := newStore(t, []*slice.Slice[counterState]{counter}, nil)
	if err := s.Init(counterState{}); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	rec := &stateRecorder{}
	s.Subscribe(rec)

	s.Dispatch(action.Producer(func(ctx context.Context, yield func(action.Dispatchable) bool) error {
		for _, n := range []int{1, 2, 3} {
			if !yield(inc.New(n)) {
				return action.ErrCancelled
			}
		}
		return nil
	}))
	waitProducers(t, s)

	if got := rec.all(); !slices.Equal(got, []int{1, 3, 6}) {
		t.Errorf("notifications = %v, want [1 3 6]", got)
	}

	m := s.Metrics()
	if m.ProducersStarted != 1 || m.ProducersCompleted != 1 {
		t.Errorf("metrics = %+v, want 1 started and 1 completed", m)
	}
	if m.ProducersRunning() != 0 {
		t.Errorf("ProducersRunning() = %d, want 0", m.ProducersRunning())
	}
}

func TestProducer_DispatchDoesNotWait(t *testing.T) {
	counter, inc := newCounterSlice()
	s := newStore(t, []*slice.Slice[counterState]{counter}, nil)
	if err := s.Init(counterState{}); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	release := make(chan struct{})
	suspended := make(chan struct{})
	s.Dispatch(action.Producer(func(ctx context.Context, yield func(action.Dispatchable) bool) error {
		yield(inc.New(1))
		close(suspended)
		<-release
		yield(inc.New(2))
		return nil
	}))
	<-suspended

	if got := s.GetState().Count; got != 1 {
		t.Fatalf("state after first yield = %d, want 1", got)
	}

	s.Dispatch(inc.New(10))
	if got := s.GetState().Count; got != 11 {
		t.Errorf("state while producer suspended = %d, want 11", got)
	}

	close(release)
	waitProducers(t, s)

	if got := s.GetState().Count; got != 13 {
		t.Errorf("final state = %d, want 13", got)
	}
}

func TestProducer_Nested(t *testing.T) {
	counter, inc := newCounterSlice()
	s := newStore(t, []*slice.Slice[counterState]{counter}, nil)
	if err := s.Init(counterState{}); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	child := action.Producer(func(ctx context.Context, yield func(action.Dispatchable) bool) error {
		yield(inc.New(100))
		return nil
	})
	s.Dispatch(action.Producer(func(ctx context.Context, yield func(action.Dispatchable) bool) error {
		yield(inc.New(1))
		yield(child)
		yield(nil)
		return nil
	}))
	waitProducers(t, s)

	if got := s.GetState().Count; got != 101 {
		t.Errorf("state = %d, want 101", got)
	}
	if got := s.Metrics().ProducersStarted; got != 2 {
		t.Errorf("ProducersStarted = %d, want 2", got)
	}
}

func TestProducer_BeforeInit(t *testing.T) {
	counter, inc := newCounterSlice()
	s := newStore(t, []*slice.Slice[counterState]{counter}, nil)

	rec := &stateRecorder{}
	s.Subscribe(rec)

	s.Dispatch(inc.New(1))
	s.Dispatch(action.Producer(func(ctx context.Context, yield func(action.Dispatchable) bool) error {
		yield(inc.New(2))
		yield(inc.New(3))
		return nil
	}))
	waitProducers(t, s)

	if got := s.GetState().Count; got != 0 {
		t.Errorf("state before Init = %d, want 0", got)
	}

	if err := s.Init(counterState{}); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if got := rec.all(); !slices.Equal(got, []int{6}) {
		t.Errorf("notifications = %v, want [6]", got)
	}
}

func TestProducer_Outcomes(t *testing.T) {
	tests := []struct {
		name      string
		producer  action.Producer
		wantEvent observability.EventType
		wantLevel observability.Level
		wantError string
	}{
		{
			name: "completes",
			producer: func(ctx context.Context, yield func(action.Dispatchable) bool) error {
				return nil
			},
			wantEvent: store.EventProducerComplete,
			wantLevel: observability.LevelVerbose,
		},
		{
			name: "cancelled",
			producer: func(ctx context.Context, yield func(action.Dispatchable) bool) error {
				return action.ErrCancelled
			},
			wantEvent: store.EventProducerCancelled,
			wantLevel: observability.LevelVerbose,
		},
		{
			name: "fails",
			producer: func(ctx context.Context, yield func(action.Dispatchable) bool) error {
				return errors.New("lookup failed")
			},
			wantEvent: store.EventProducerFailed,
			wantLevel: observability.LevelWarning,
			wantError: "lookup failed",
		},
		{
			name: "panics",
			producer: func(ctx context.Context, yield func(action.Dispatchable) bool) error {
				panic("bad producer")
			},
			wantEvent: store.EventProducerFailed,
			wantLevel: observability.LevelWarning,
			wantError: store.ErrProducerPanic.Error(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			counter, inc := newCounterSlice()
			log := &eventLog{}
			s := newStore(t, []*slice.Slice[counterState]{counter}, log)
			if err := s.Init(counterState{}); err != nil {
				t.Fatalf("Init failed: %v", err)
			}

			s.Dispatch(tt.producer)
			waitProducers(t, s)

			events := log.ofType(tt.wantEvent)
			if len(events) != 1 {
				t.Fatalf("got %d %s events, want 1", len(events), tt.wantEvent)
			}
			if events[0].Level != tt.wantLevel {
				t.Errorf("level = %v, want %v", events[0].Level, tt.wantLevel)
			}
			if tt.wantError != "" {
				msg, _ := events[0].Data["error"].(string)
				if !strings.Contains(msg, tt.wantError) {
					t.Errorf("error = %q, want it to contain %q", msg, tt.wantError)
				}
			}

			s.Dispatch(inc.New(1))
			if got := s.GetState().Count; got != 1 {
				t.Errorf("store unusable after producer outcome: state = %d, want 1", got)
			}
		})
	}
}

func TestStore_Shutdown(t *testing.T) {
	counter, inc := newCounterSlice()
	log := &eventLog{}
	s := newStore(t, []*slice.Slice[counterState]{counter}, log)
	if err := s.Init(counterState{}); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	started := make(chan struct{})
	var cause error
	s.Dispatch(action.Producer(func(ctx context.Context, yield func(action.Dispatchable) bool) error {
		close(started)
		<-ctx.Done()
		cause = context.Cause(ctx)
		return ctx.Err()
	}))
	<-started

	if err := s.Shutdown(time.Second); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}

	if !errors.Is(cause, action.ErrCancelled) {
		t.Errorf("producer cause = %v, want %v", cause, action.ErrCancelled)
	}
	if got := len(log.ofType(store.EventProducerCancelled)); got != 1 {
		t.Errorf("got %d cancelled events, want 1", got)
	}
	if got := len(log.ofType(store.EventProducerFailed)); got != 0 {
		t.Errorf("got %d failed events, want 0", got)
	}

	s.Dispatch(inc.New(1))
	if got := s.GetState().Count; got != 0 {
		t.Errorf("state after dispatch on closed store = %d, want 0", got)
	}
	if got := s.Metrics().Dropped; got != 1 {
		t.Errorf("Dropped = %d, want 1", got)
	}
	if got := len(log.ofType(store.EventDispatchClosed)); got != 1 {
		t.Errorf("got %d dispatch.closed events, want 1", got)
	}

	if err := s.Shutdown(time.Second); err != nil {
		t.Errorf("second Shutdown failed: %v", err)
	}
}

func TestStore_ShutdownTimeout(t *testing.T) {
	counter, _ := newCounterSlice()
	s := newStore(t, []*slice.Slice[counterState]{counter}, nil)

	release := make(chan struct{})
	started := make(chan struct{})
	s.Dispatch(action.Producer(func(ctx context.Context, yield func(action.Dispatchable) bool) error {
		close(started)
		<-release
		return nil
	}))
	<-started

	err := s.Shutdown(10 * time.Millisecond)
	if !errors.Is(err, store.ErrShutdownTimeout) {
		t.Errorf("Shutdown error = %v, want %v", err, store.ErrShutdownTimeout)
	}

	close(release)
	waitProducers(t, s)
}

func TestProducer_YieldAfterShutdown(t *testing.T) {
	counter, inc := newCounterSlice()
	s := newStore(t, []*slice.Slice[counterState]{counter}, nil)
	if err := s.Init(counterState{}); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	release := make(chan struct{})
	accepted := make(chan bool, 1)
	s.Dispatch(action.Producer(func(ctx context.Context, yield func(action.Dispatchable) bool) error {
		<-release
		accepted <- yield(inc.New(1))
		return nil
	}))

	go func() {
		time.Sleep(10 * time.Millisecond)
		close(release)
	}()
	if err := s.Shutdown(time.Second); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}

	if <-accepted {
		t.Error("yield accepted an action after Shutdown")
	}
	if got := s.GetState().Count; got != 0 {
		t.Errorf("state = %d, want 0", got)
	}
}

func TestStore_WithContext(t *testing.T) {
	counter, _ := newCounterSlice()
	parent, cancel := context.WithCancelCause(context.Background())

	log := &eventLog{}
	s, err := store.New(nil, counterState{}, []*slice.Slice[counterState]{counter},
		store.WithContext(parent), store.WithEventObserver(log))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	started := make(chan struct{})
	s.Dispatch(action.Producer(func(ctx context.Context, yield func(action.Dispatchable) bool) error {
		close(started)
		<-ctx.Done()
		return context.Cause(ctx)
	}))
	<-started

	cancel(action.ErrCancelled)
	waitProducers(t, s)

	if got := len(log.ofType(store.EventProducerCancelled)); got != 1 {
		t.Errorf("got %d cancelled events, want 1", got)
	}
}
