package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tailored-agentic-units/statecore/action"
	"github.com/tailored-agentic-units/statecore/observability"
)

// spawn starts p on its own goroutine.
func (s *Store[S]) spawn(p action.Producer) {
	if p == nil {
		return
	}

	id := uuid.Must(uuid.NewV7()).String()
	s.producers.Add(1)
	s.metrics.RecordProducerStarted()
	s.emit(s.ctx, EventProducerStart, observability.LevelVerbose, map[string]any{
		"producer_id": id,
	})

	go func() {
		defer s.producers.Done()

		start := time.Now()
		yielded, err := s.run(p)
		data := map[string]any{
			"producer_id": id,
			"yielded":     yielded,
			"duration":    time.Since(start),
		}

		switch {
		case err == nil:
			s.metrics.RecordProducerCompleted()
			s.emit(s.ctx, EventProducerComplete, observability.LevelVerbose, data)
		case s.isCancellation(err):
			s.metrics.RecordProducerCancelled()
			s.emit(s.ctx, EventProducerCancelled, observability.LevelVerbose, data)
		default:
			data["error"] = err.Error()
			s.metrics.RecordProducerFailed()
			s.emit(s.ctx, EventProducerFailed, observability.LevelWarning, data)
		}
	}()
}

// run drives p to completion. Each yielded action is applied before p
// resumes. Yielded producers are spawned without waiting. Yield reports
// false once the store's context is cancelled.
func (s *Store[S]) run(p action.Producer) (yielded int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrProducerPanic, r)
		}
	}()

	yield := func(d action.Dispatchable) bool {
		if s.ctx.Err() != nil {
			return false
		}

		switch v := d.(type) {
		case action.Action:
			yielded++
			s.metrics.RecordDispatched()
			s.exec.postWait(func() { s.accept(s.ctx, v) })
		case action.Producer:
			yielded++
			s.spawn(v)
		}
		return s.ctx.Err() == nil
	}

	err = p(s.ctx, yield)
	return yielded, err
}

// isCancellation reports whether err is the cancellation signal, either
// returned directly or surfacing as context.Canceled after Shutdown.
func (s *Store[S]) isCancellation(err error) bool {
	if action.IsCancelled(err) {
		return true
	}
	return errors.Is(err, context.Canceled) && action.IsCancelled(context.Cause(s.ctx))
}
