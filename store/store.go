// Package store implements a single-writer observable state container.
//
// A Store merges the reducers of its slices into one dispatch table, applies
// dispatched actions to the current state and notifies subscribers. Actions
// dispatched before Init are queued and replayed in order when Init runs.
// Producers dispatched to the store run on their own goroutines and every
// action they yield is applied before they resume.
//
//	s, err := store.New(nil, State{}, []*slice.Slice[State]{counter})
//	unsubscribe := s.Subscribe(store.ObserverFunc[State](render))
//	s.Init(State{})
//	s.Dispatch(Increment.New(5))
//
// All mutation runs on a serial executor, so reducers and observers never run
// concurrently. Dispatch from an idle store applies the action before it
// returns. Dispatch while another dispatch is being applied (for example from
// an observer) queues the action behind it.
package store

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/tailored-agentic-units/statecore/action"
	"github.com/tailored-agentic-units/statecore/observability"
	"github.com/tailored-agentic-units/statecore/slice"
)

// Observer receives the current state after each committed change.
// The state must be treated as read-only.
type Observer[S any] interface {
	OnStateChanged(state S)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc[S any] func(state S)

func (f ObserverFunc[S]) OnStateChanged(state S) {
	f(state)
}

type subscription[S any] struct {
	observer Observer[S]
}

// Store holds state of type S.
type Store[S any] struct {
	id              string
	name            string
	source          string
	reducers        map[string][]slice.ReduceFunc[S]
	types           []string
	suggestDistance int

	stateMu sync.RWMutex
	state   S

	obsMu     sync.Mutex
	observers []*subscription[S]

	exec serial

	// Owned by the executor.
	live     bool
	batching bool
	queue    []action.Action

	initCalled atomic.Bool
	closed     atomic.Bool

	events  observability.Observer
	metrics *Metrics

	ctx       context.Context
	cancel    context.CancelCauseFunc
	producers sync.WaitGroup
}

// New creates a Store holding placeholder until Init. A nil cfg uses
// DefaultConfig.
//
// Returns ErrNilSlice or ErrDuplicateSlice when members is malformed. Reducers
// registered for the same type by several slices run in members order.
func New[S any](cfg *Config, placeholder S, members []*slice.Slice[S], opts ...Option) (*Store[S], error) {
	c := DefaultConfig()
	if cfg != nil {
		c.Merge(cfg)
	}

	o := options{ctx: context.Background()}
	for _, opt := range opts {
		opt(&o)
	}

	if o.observer == nil {
		obs, err := observability.GetObserver(c.Observer)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve observer: %w", err)
		}
		o.observer = obs
	}

	reducers := make(map[string][]slice.ReduceFunc[S])
	names := make(map[string]bool, len(members))
	for i, sl := range members {
		if sl == nil {
			return nil, fmt.Errorf("%w: index %d", ErrNilSlice, i)
		}
		if names[sl.Name()] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateSlice, sl.Name())
		}
		names[sl.Name()] = true

		for _, typ := range sl.Types() {
			r, _ := sl.Reducer(typ)
			reducers[typ] = append(reducers[typ], r)
		}
	}

	types := make([]string, 0, len(reducers))
	for typ := range reducers {
		types = append(types, typ)
	}
	slices.Sort(types)

	ctx, cancel := context.WithCancelCause(o.ctx)

	return &Store[S]{
		id:              uuid.Must(uuid.NewV7()).String(),
		name:            c.Name,
		source:          "store." + c.Name,
		reducers:        reducers,
		types:           types,
		suggestDistance: c.SuggestDistance,
		state:           placeholder,
		events:          o.observer,
		metrics:         NewMetrics(),
		ctx:             ctx,
		cancel:          cancel,
	}, nil
}

// ID returns the store's unique identifier.
func (s *Store[S]) ID() string {
	return s.id
}

// Name returns the configured store name.
func (s *Store[S]) Name() string {
	return s.name
}

// Types returns every action type the store has a reducer for, sorted.
func (s *Store[S]) Types() []string {
	return slices.Clone(s.types)
}

// Metrics returns a snapshot of the store's counters.
func (s *Store[S]) Metrics() MetricsSnapshot {
	return s.metrics.Snapshot()
}

// GetState returns the current state. It is safe to call from any goroutine.
func (s *Store[S]) GetState() S {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.state
}

// Init sets the initial state, replays the actions dispatched so far in
// order and notifies observers once with the result. The store is live
// afterwards. A second call returns ErrAlreadyInitialized.
//
// Init blocks until the replay is done and must not be called from a reducer.
func (s *Store[S]) Init(initial S) error {
	if !s.initCalled.CompareAndSwap(false, true) {
		return ErrAlreadyInitialized
	}

	s.exec.postWait(func() {
		s.setState(initial)

		queued := s.queue
		s.queue = nil
		for _, a := range queued {
			s.reduce(s.ctx, a)
		}
		s.live = true

		s.emit(s.ctx, EventInit, observability.LevelInfo, map[string]any{
			"store_id": s.id,
			"replayed": len(queued),
		})

		if !s.batching {
			s.notify(s.ctx)
		}
	})
	return nil
}

// Dispatch applies an Action or starts a Producer.
//
// Actions dispatched before Init are queued. Producers start immediately on
// their own goroutine and Dispatch does not wait for them. Unknown action
// types, reducer failures and producer errors are reported as events and
// never returned to the caller. After Shutdown every dispatch is dropped.
func (s *Store[S]) Dispatch(d action.Dispatchable) {
	s.dispatch(s.ctx, d)
}

func (s *Store[S]) dispatch(ctx context.Context, d action.Dispatchable) {
	if d == nil {
		return
	}

	if s.closed.Load() {
		s.metrics.RecordDropped()
		s.emit(ctx, EventDispatchClosed, observability.LevelWarning, map[string]any{
			"kind": fmt.Sprintf("%T", d),
		})
		return
	}

	switch v := d.(type) {
	case action.Action:
		s.metrics.RecordDispatched()
		s.exec.post(func() { s.accept(ctx, v) })
	case action.Producer:
		s.spawn(v)
	}
}

// accept runs on the executor.
func (s *Store[S]) accept(ctx context.Context, a action.Action) {
	if !s.live {
		s.queue = append(s.queue, a)
		s.metrics.RecordQueued()
		s.emit(ctx, EventDispatchQueued, observability.LevelVerbose, map[string]any{
			"action_type": a.Type,
			"queued":      len(s.queue),
		})
		return
	}
	s.reduce(ctx, a)
}

// reduce runs on the executor.
func (s *Store[S]) reduce(ctx context.Context, a action.Action) {
	reducers, ok := s.reducers[a.Type]
	if !ok {
		s.metrics.RecordUnhandled()
		data := map[string]any{"action_type": a.Type}
		if hint := suggest(a.Type, s.types, s.suggestDistance); hint != "" {
			data["suggestion"] = hint
		}
		s.emit(ctx, EventDispatchUnhandled, observability.LevelError, data)
		return
	}

	next, err := s.fold(a, reducers)
	if err != nil {
		s.metrics.RecordReduceFailed()
		s.emit(ctx, EventReduceFailed, observability.LevelError, map[string]any{
			"action_type": a.Type,
			"error":       err.Error(),
		})
		return
	}

	s.setState(next)
	s.metrics.RecordReduced()
	s.emit(ctx, EventReduce, observability.LevelVerbose, map[string]any{
		"action_type": a.Type,
		"reducers":    len(reducers),
	})

	if s.live && !s.batching {
		s.notify(ctx)
	}
}

func (s *Store[S]) fold(a action.Action, reducers []slice.ReduceFunc[S]) (state S, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %s: %v", ErrReducerPanic, a.Type, r)
		}
	}()

	state = s.state
	for _, r := range reducers {
		if state, err = r(state, a.Payload); err != nil {
			return state, err
		}
	}
	return state, nil
}

func (s *Store[S]) setState(state S) {
	s.stateMu.Lock()
	s.state = state
	s.stateMu.Unlock()
}

// Subscribe registers o for state change notifications and returns a
// function that removes it. The returned function is idempotent and may be
// called from inside o's own callback.
func (s *Store[S]) Subscribe(o Observer[S]) (unsubscribe func()) {
	if o == nil {
		return func() {}
	}

	sub := &subscription[S]{observer: o}

	s.obsMu.Lock()
	next := make([]*subscription[S], len(s.observers), len(s.observers)+1)
	copy(next, s.observers)
	s.observers = append(next, sub)
	s.obsMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.obsMu.Lock()
			defer s.obsMu.Unlock()

			next := make([]*subscription[S], 0, len(s.observers))
			for _, existing := range s.observers {
				if existing != sub {
					next = append(next, existing)
				}
			}
			s.observers = next
		})
	}
}

// notify runs on the executor. It iterates the observer list as it was when
// the pass started.
func (s *Store[S]) notify(ctx context.Context) {
	s.obsMu.Lock()
	subs := s.observers
	s.obsMu.Unlock()

	state := s.state
	for _, sub := range subs {
		s.deliver(ctx, sub, state)
	}

	s.metrics.RecordNotification()
	s.emit(ctx, EventNotify, observability.LevelVerbose, map[string]any{
		"observers": len(subs),
	})
}

func (s *Store[S]) deliver(ctx context.Context, sub *subscription[S], state S) {
	defer func() {
		if r := recover(); r != nil {
			s.metrics.RecordObserverPanic()
			s.emit(ctx, EventObserverPanic, observability.LevelError, map[string]any{
				"panic": fmt.Sprint(r),
			})
		}
	}()

	sub.observer.OnStateChanged(state)
}

// BeginBatchUpdate suspends notifications until EndBatchUpdate. Batches do
// not nest: the first EndBatchUpdate ends the batch.
func (s *Store[S]) BeginBatchUpdate() {
	s.exec.post(func() {
		s.batching = true
		s.emit(s.ctx, EventBatchBegin, observability.LevelVerbose, nil)
	})
}

// EndBatchUpdate resumes notifications and performs one notification pass
// with the current state, however many actions were applied during the
// batch. Before Init the placeholder state is delivered.
func (s *Store[S]) EndBatchUpdate() {
	s.exec.post(func() {
		s.batching = false
		s.emit(s.ctx, EventBatchEnd, observability.LevelVerbose, nil)
		s.notify(s.ctx)
	})
}

// Batch runs fn between BeginBatchUpdate and EndBatchUpdate.
func (s *Store[S]) Batch(fn func()) {
	s.BeginBatchUpdate()
	defer s.EndBatchUpdate()
	fn()
}

// Wait blocks until every running producer has finished or ctx is done.
func (s *Store[S]) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.producers.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown stops accepting dispatches, cancels running producers with
// action.ErrCancelled and waits up to timeout for them to return.
// Cancellation is cooperative: a producer blocked in a call that ignores its
// context holds Shutdown until the timeout.
func (s *Store[S]) Shutdown(timeout time.Duration) error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}

	s.emit(s.ctx, EventShutdown, observability.LevelInfo, map[string]any{
		"running": s.metrics.Snapshot().ProducersRunning(),
	})
	s.cancel(action.ErrCancelled)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := s.Wait(ctx); err != nil {
		return fmt.Errorf("%w: after %v", ErrShutdownTimeout, timeout)
	}
	return nil
}

func (s *Store[S]) emit(ctx context.Context, typ observability.EventType, level observability.Level, data map[string]any) {
	s.events.OnEvent(ctx, observability.NewEvent(typ, level, s.source, data))
}
