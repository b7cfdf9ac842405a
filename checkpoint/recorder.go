package checkpoint

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/tailored-agentic-units/statecore/observability"
	"github.com/tailored-agentic-units/statecore/store"
)

// Option configures a Recorder.
type Option func(*options)

type options struct {
	ctx      context.Context
	observer observability.Observer
}

// WithContext sets the context used for saves made from notifications.
func WithContext(ctx context.Context) Option {
	return func(o *options) { o.ctx = ctx }
}

// WithObserver sets the observer that receives checkpoint events.
// Defaults to a SlogObserver on slog.Default.
func WithObserver(obs observability.Observer) Option {
	return func(o *options) { o.observer = obs }
}

// Recorder saves snapshots of a store's state as it changes.
//
// Saves made from notifications run on the store's executor and block the
// next dispatch until they return. Save errors are reported as events and
// retried on the next interval.
type Recorder[S any] struct {
	cp       Store
	id       string
	name     string
	interval int
	preserve bool

	ctx    context.Context
	events observability.Observer

	unsubscribe func()

	mu      sync.Mutex
	seen    int64
	saved   int64
	last    S
	hasLast bool
}

// Record creates a Recorder for s and subscribes it. A nil cfg uses
// DefaultConfig.
func Record[S any](s *store.Store[S], cp Store, cfg *Config, opts ...Option) *Recorder[S] {
	c := DefaultConfig()
	if cfg != nil {
		c.Merge(cfg)
	}

	o := options{ctx: context.Background()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.observer == nil {
		o.observer = observability.NewSlogObserver(nil)
	}

	r := &Recorder[S]{
		cp:       cp,
		id:       s.ID(),
		name:     s.Name(),
		interval: c.Interval,
		preserve: c.Preserve,
		ctx:      o.ctx,
		events:   o.observer,
	}
	r.unsubscribe = s.Subscribe(r)
	return r
}

// OnStateChanged records state and saves it when the interval is reached.
func (r *Recorder[S]) OnStateChanged(state S) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.seen++
	r.last = state
	r.hasLast = true

	if r.interval > 0 && r.seen-r.saved >= int64(r.interval) {
		if err := r.save(r.ctx); err != nil {
			r.emit(r.ctx, EventSaveFailed, observability.LevelWarning, map[string]any{
				"version": r.seen,
				"error":   err.Error(),
			})
		}
	}
}

// Flush saves the most recent state if it has not been saved yet.
func (r *Recorder[S]) Flush(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.hasLast || r.saved == r.seen {
		return nil
	}
	return r.save(ctx)
}

// Close stops recording, flushes the most recent state and, unless the
// config sets Preserve, deletes the snapshot.
func (r *Recorder[S]) Close(ctx context.Context) error {
	r.unsubscribe()

	if !r.preserve {
		if err := r.cp.Delete(ctx, r.id); err != nil {
			return err
		}
		r.emit(ctx, EventDelete, observability.LevelVerbose, map[string]any{"id": r.id})
		return nil
	}
	return r.Flush(ctx)
}

// Saved returns the version of the last saved snapshot.
func (r *Recorder[S]) Saved() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saved
}

// save must be called with r.mu held.
func (r *Recorder[S]) save(ctx context.Context) error {
	data, err := json.Marshal(r.last)
	if err != nil {
		return fmt.Errorf("%w: encode state: %v", ErrSaveFailed, err)
	}

	snap := Snapshot{
		ID:        r.id,
		Name:      r.name,
		Version:   r.seen,
		Data:      data,
		Timestamp: time.Now(),
	}
	if err := r.cp.Save(ctx, snap); err != nil {
		return err
	}

	r.saved = r.seen
	r.emit(ctx, EventSave, observability.LevelVerbose, map[string]any{
		"id":      r.id,
		"version": snap.Version,
		"bytes":   len(data),
	})
	return nil
}

func (r *Recorder[S]) emit(ctx context.Context, typ observability.EventType, level observability.Level, data map[string]any) {
	r.events.OnEvent(ctx, observability.NewEvent(typ, level, "checkpoint."+r.name, data))
}

// Restore loads the snapshot saved under id and decodes its state.
func Restore[S any](ctx context.Context, cp Store, id string) (S, Snapshot, error) {
	snap, err := cp.Load(ctx, id)
	if err != nil {
		var zero S
		return zero, Snapshot{}, err
	}
	return decode[S](snap)
}

// RestoreLatest loads the most recent snapshot saved under name and decodes
// its state.
func RestoreLatest[S any](ctx context.Context, cp Store, name string) (S, Snapshot, error) {
	snap, err := cp.Latest(ctx, name)
	if err != nil {
		var zero S
		return zero, Snapshot{}, err
	}
	return decode[S](snap)
}

func decode[S any](snap Snapshot) (S, Snapshot, error) {
	var state S
	if err := json.Unmarshal(snap.Data, &state); err != nil {
		var zero S
		return zero, snap, fmt.Errorf("%w: %s: %v", ErrDecodeFailed, snap.ID, err)
	}
	return state, snap, nil
}
