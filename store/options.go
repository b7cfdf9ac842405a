package store

import (
	"context"

	"github.com/tailored-agentic-units/statecore/observability"
)

type options struct {
	ctx      context.Context
	observer observability.Observer
}

// Option configures a Store after config-driven initialization.
type Option func(*options)

// WithContext sets the parent context for producers. Cancelling it cancels
// every running producer.
func WithContext(ctx context.Context) Option {
	return func(o *options) { o.ctx = ctx }
}

// WithEventObserver overrides the observer resolved from Config.Observer.
func WithEventObserver(obs observability.Observer) Option {
	return func(o *options) { o.observer = obs }
}
