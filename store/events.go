package store

import "github.com/tailored-agentic-units/statecore/observability"

// Store event types.
const (
	// Lifecycle
	EventInit     observability.EventType = "store.init"
	EventShutdown observability.EventType = "store.shutdown"

	// Dispatch and reduction
	EventDispatchQueued    observability.EventType = "store.dispatch.queued"
	EventDispatchUnhandled observability.EventType = "store.dispatch.unhandled"
	EventDispatchClosed    observability.EventType = "store.dispatch.closed"
	EventReduce            observability.EventType = "store.reduce"
	EventReduceFailed      observability.EventType = "store.reduce.failed"

	// Notification
	EventNotify        observability.EventType = "store.notify"
	EventObserverPanic observability.EventType = "store.observer.panic"
	EventBatchBegin    observability.EventType = "store.batch.begin"
	EventBatchEnd      observability.EventType = "store.batch.end"

	// Producers
	EventProducerStart     observability.EventType = "store.producer.start"
	EventProducerComplete  observability.EventType = "store.producer.complete"
	EventProducerCancelled observability.EventType = "store.producer.cancelled"
	EventProducerFailed    observability.EventType = "store.producer.failed"
)
