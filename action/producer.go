package action

import (
	"context"
	"errors"
)

// Producer yields a sequence of Dispatchable values over time.
//
// A producer may block between yields while it waits on external work; those
// blocking calls are its suspension points. yield returns false once the
// consumer no longer wants values (the run was superseded or the store shut
// down); the producer must then return promptly. The context passed to the
// producer is cancelled with cause ErrCancelled in the same situations.
//
// Returning nil or an error matching ErrCancelled ends the run silently. Any
// other error is reported by the consumer.
type Producer func(ctx context.Context, yield func(Dispatchable) bool) error

func (Producer) dispatchable() {}

// ErrCancelled is the cancellation signal delivered to superseded producers.
var ErrCancelled = errors.New("producer cancelled")

// IsCancelled reports whether err is, or was caused by, the cancellation
// signal.
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled)
}
