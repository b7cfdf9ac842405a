// Package producer builds action producers for a store.
//
// KeepLatest wraps a producer factory so only its most recent invocation
// forwards actions. Of, FromSeq and Await cover the common shapes of a
// producer body.
package producer

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"sync/atomic"

	"github.com/tailored-agentic-units/statecore/action"
)

// KeepLatest wraps factory so that a producer returned by an earlier call
// stops forwarding actions once a later call has been made.
//
// Each wrapped call takes a sequence number. Before forwarding a value the
// wrapper checks that no later call exists. When one does, the value is
// dropped, the inner producer's context is cancelled with
// action.ErrCancelled, its yield reports false, and the wrapper completes
// with nil. Work the inner producer does between yields is not interrupted.
//
// The sequence is shared by every call of the returned function and by
// nothing else.
func KeepLatest[A any](factory func(A) action.Producer) func(A) action.Producer {
	var counter atomic.Uint64

	return func(arg A) action.Producer {
		id := counter.Add(1)
		inner := factory(arg)

		return func(ctx context.Context, yield func(action.Dispatchable) bool) error {
			ctx, cancel := context.WithCancelCause(ctx)
			defer cancel(nil)

			stale := false
			err := inner(ctx, func(d action.Dispatchable) bool {
				if stale {
					return false
				}
				if counter.Load() != id {
					stale = true
					cancel(action.ErrCancelled)
					return false
				}
				return yield(d)
			})

			if stale && (err == nil || action.IsCancelled(err) || errors.Is(err, context.Canceled)) {
				return nil
			}
			return err
		}
	}
}

// Of returns a producer that yields actions in order.
func Of(actions ...action.Action) action.Producer {
	return func(ctx context.Context, yield func(action.Dispatchable) bool) error {
		for _, a := range actions {
			if !yield(a) {
				return action.ErrCancelled
			}
		}
		return nil
	}
}

// FromSeq returns a producer that yields every action of seq. The producer
// stops early with action.ErrCancelled when the consumer rejects a value.
func FromSeq(seq iter.Seq[action.Action]) action.Producer {
	return func(ctx context.Context, yield func(action.Dispatchable) bool) error {
		for a := range seq {
			if !yield(a) {
				return action.ErrCancelled
			}
		}
		return nil
	}
}

// Await runs fn on its own goroutine and returns its result, or the cause of
// ctx's cancellation if that comes first. fn keeps running after Await
// returns early; it receives ctx and should stop when it is done.
func Await[T any](ctx context.Context, fn func(context.Context) (T, error)) (T, error) {
	type result struct {
		value T
		err   error
	}

	ch := make(chan result, 1)
	go func() {
		var r result
		defer func() {
			if p := recover(); p != nil {
				r.err = fmt.Errorf("await panicked: %v", p)
			}
			ch <- r
		}()
		r.value, r.err = fn(ctx)
	}()

	select {
	case r := <-ch:
		return r.value, r.err
	case <-ctx.Done():
		var zero T
		return zero, context.Cause(ctx)
	}
}
