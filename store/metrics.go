package store

import "sync/atomic"

// MetricsSnapshot is a point-in-time copy of a store's counters.
type MetricsSnapshot struct {
	Dispatched         int64
	Queued             int64
	Dropped            int64
	Reduced            int64
	Unhandled          int64
	ReduceFailed       int64
	Notifications      int64
	ObserverPanics     int64
	ProducersStarted   int64
	ProducersCompleted int64
	ProducersCancelled int64
	ProducersFailed    int64
}

// ProducersRunning returns the number of producers started but not finished.
func (m MetricsSnapshot) ProducersRunning() int64 {
	return m.ProducersStarted - m.ProducersCompleted - m.ProducersCancelled - m.ProducersFailed
}

// Metrics holds a store's counters.
type Metrics struct {
	dispatched         atomic.Int64
	queued             atomic.Int64
	dropped            atomic.Int64
	reduced            atomic.Int64
	unhandled          atomic.Int64
	reduceFailed       atomic.Int64
	notifications      atomic.Int64
	observerPanics     atomic.Int64
	producersStarted   atomic.Int64
	producersCompleted atomic.Int64
	producersCancelled atomic.Int64
	producersFailed    atomic.Int64
}

func NewMetrics() *Metrics {
	return &Metrics{}
}

func (m *Metrics) RecordDispatched()        { m.dispatched.Add(1) }
func (m *Metrics) RecordQueued()            { m.queued.Add(1) }
func (m *Metrics) RecordDropped()           { m.dropped.Add(1) }
func (m *Metrics) RecordReduced()           { m.reduced.Add(1) }
func (m *Metrics) RecordUnhandled()         { m.unhandled.Add(1) }
func (m *Metrics) RecordReduceFailed()      { m.reduceFailed.Add(1) }
func (m *Metrics) RecordNotification()      { m.notifications.Add(1) }
func (m *Metrics) RecordObserverPanic()     { m.observerPanics.Add(1) }
func (m *Metrics) RecordProducerStarted()   { m.producersStarted.Add(1) }
func (m *Metrics) RecordProducerCompleted() { m.producersCompleted.Add(1) }
func (m *Metrics) RecordProducerCancelled() { m.producersCancelled.Add(1) }
func (m *Metrics) RecordProducerFailed()    { m.producersFailed.Add(1) }

func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		Dispatched:         m.dispatched.Load(),
		Queued:             m.queued.Load(),
		Dropped:            m.dropped.Load(),
		Reduced:            m.reduced.Load(),
		Unhandled:          m.unhandled.Load(),
		ReduceFailed:       m.reduceFailed.Load(),
		Notifications:      m.notifications.Load(),
		ObserverPanics:     m.observerPanics.Load(),
		ProducersStarted:   m.producersStarted.Load(),
		ProducersCompleted: m.producersCompleted.Load(),
		ProducersCancelled: m.producersCancelled.Load(),
		ProducersFailed:    m.producersFailed.Load(),
	}
}
