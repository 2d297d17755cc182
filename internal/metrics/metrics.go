package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/upcheckhq/upcheck/internal/domain"
)

// Metrics groups all Prometheus instruments used across the application.
// Registered once at startup via New(); passed by pointer wherever needed.
type Metrics struct {
	ProbesTotal   *prometheus.CounterVec
	ProbeDuration *prometheus.HistogramVec
	AlertsSent    prometheus.Counter
	AlertsFailed  prometheus.Counter
}

// New registers all instruments with the given Prometheus registerer and
// returns the populated Metrics struct.
// Using a custom registry (instead of prometheus.DefaultRegisterer) keeps
// tests isolated and avoids global state.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ProbesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "upcheck_probes_total",
			Help: "Total number of completed probes by kind and outcome.",
		}, []string{"kind", "outcome"}),

		ProbeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "upcheck_probe_duration_seconds",
			Help:    "Probe round-trip time from dispatch to verdict.",
			Buckets: prometheus.DefBuckets,
		}, []string{"kind"}),

		AlertsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "upcheck_alerts_sent_total",
			Help: "Total number of state-change alerts delivered to webhooks.",
		}),

		AlertsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "upcheck_alerts_failed_total",
			Help: "Total number of state-change alerts that could not be delivered.",
		}),
	}

	reg.MustRegister(
		m.ProbesTotal,
		m.ProbeDuration,
		m.AlertsSent,
		m.AlertsFailed,
	)

	return m
}

// ObserveQueueDepths registers gauge functions that sample the probe queue
// lanes at scrape time, so depths are always current without a ticker.
func ObserveQueueDepths(reg prometheus.Registerer, depths func() (critical, standard, background int)) {
	reg.MustRegister(
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "upcheck_queue_depth_critical",
			Help: "Current number of jobs in the critical lane.",
		}, func() float64 {
			c, _, _ := depths()
			return float64(c)
		}),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "upcheck_queue_depth_standard",
			Help: "Current number of jobs in the standard lane.",
		}, func() float64 {
			_, s, _ := depths()
			return float64(s)
		}),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "upcheck_queue_depth_background",
			Help: "Current number of jobs in the background lane.",
		}, func() float64 {
			_, _, b := depths()
			return float64(b)
		}),
	)
}

// WorkerHooks returns the metric callback functions expected by worker.MetricHooks.
// Centralises the prometheus observation calls so the worker stays import-free.
func (m *Metrics) WorkerHooks() (
	onProbe func(domain.Kind, domain.Outcome, time.Duration),
	onAlert func(delivered bool),
) {
	onProbe = func(k domain.Kind, o domain.Outcome, latency time.Duration) {
		m.ProbesTotal.WithLabelValues(string(k), string(o)).Inc()
		m.ProbeDuration.WithLabelValues(string(k)).Observe(latency.Seconds())
	}
	onAlert = func(delivered bool) {
		if delivered {
			m.AlertsSent.Inc()
		} else {
			m.AlertsFailed.Inc()
		}
	}
	return
}
