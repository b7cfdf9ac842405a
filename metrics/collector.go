// Package metrics exports store counters to Prometheus.
//
//	reg := prometheus.NewRegistry()
//	reg.MustRegister(metrics.NewCollector("statecore", s))
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/tailored-agentic-units/statecore/store"
)

// Source is anything that reports store metrics. Every *store.Store[S]
// satisfies it.
type Source interface {
	Name() string
	Metrics() store.MetricsSnapshot
}

type counter struct {
	desc  *prometheus.Desc
	value func(store.MetricsSnapshot) int64
}

// Collector reads metrics snapshots from its sources on every scrape. Each
// series carries a "store" label with the source's name.
type Collector struct {
	sources  []Source
	counters []counter
	finished *prometheus.Desc
	running  *prometheus.Desc
}

// NewCollector creates a Collector for sources under namespace.
func NewCollector(namespace string, sources ...Source) *Collector {
	labels := []string{"store"}
	desc := func(name, help string, extra ...string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "store", name), help, append(labels, extra...), nil)
	}

	return &Collector{
		sources: sources,
		counters: []counter{
			{desc("actions_dispatched_total", "Actions dispatched, including actions yielded by producers."),
				func(m store.MetricsSnapshot) int64 { return m.Dispatched }},
			{desc("actions_queued_total", "Actions queued before the store was initialized."),
				func(m store.MetricsSnapshot) int64 { return m.Queued }},
			{desc("actions_dropped_total", "Dispatches dropped after shutdown."),
				func(m store.MetricsSnapshot) int64 { return m.Dropped }},
			{desc("actions_reduced_total", "Actions applied to the state."),
				func(m store.MetricsSnapshot) int64 { return m.Reduced }},
			{desc("actions_unhandled_total", "Actions with no registered reducer."),
				func(m store.MetricsSnapshot) int64 { return m.Unhandled }},
			{desc("reduce_failures_total", "Reductions that failed and left the state unchanged."),
				func(m store.MetricsSnapshot) int64 { return m.ReduceFailed }},
			{desc("notifications_total", "Observer notification passes."),
				func(m store.MetricsSnapshot) int64 { return m.Notifications }},
			{desc("observer_panics_total", "Observer callbacks that panicked."),
				func(m store.MetricsSnapshot) int64 { return m.ObserverPanics }},
			{desc("producers_started_total", "Producers started."),
				func(m store.MetricsSnapshot) int64 { return m.ProducersStarted }},
		},
		finished: desc("producers_finished_total", "Producers finished, by outcome.", "outcome"),
		running:  desc("producers_running", "Producers currently running."),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, ctr := range c.counters {
		ch <- ctr.desc
	}
	ch <- c.finished
	ch <- c.running
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	for _, src := range c.sources {
		name := src.Name()
		m := src.Metrics()

		for _, ctr := range c.counters {
			ch <- prometheus.MustNewConstMetric(ctr.desc, prometheus.CounterValue, float64(ctr.value(m)), name)
		}

		ch <- prometheus.MustNewConstMetric(c.finished, prometheus.CounterValue, float64(m.ProducersCompleted), name, "completed")
		ch <- prometheus.MustNewConstMetric(c.finished, prometheus.CounterValue, float64(m.ProducersCancelled), name, "cancelled")
		ch <- prometheus.MustNewConstMetric(c.finished, prometheus.CounterValue, float64(m.ProducersFailed), name, "failed")
		ch <- prometheus.MustNewConstMetric(c.running, prometheus.GaugeValue, float64(m.ProducersRunning()), name)
	}
}
