package scheduler

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/atlas3d/assetstream/metric"
)

// schedMetrics holds Prometheus metrics for scheduler activity.
type schedMetrics struct {
	scheduled *prometheus.CounterVec
	coalesced prometheus.Counter
	completed prometheus.Counter
	failed    prometheus.Counter
	retries   prometheus.Counter
	uncached  prometheus.Counter

	queueDepth *prometheus.GaugeVec
	inflight   prometheus.Gauge
	slots      prometheus.Gauge

	queueWait    prometheus.Histogram
	loadDuration *prometheus.HistogramVec
}

// newSchedMetrics creates and registers scheduler metrics with the
// provided registry.
func newSchedMetrics(registry *metric.MetricsRegistry, prefix string) (*schedMetrics, error) {
	labels := prometheus.Labels{"component": prefix}

	m := &schedMetrics{
		scheduled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "assetstream",
			Subsystem:   "scheduler",
			Name:        "scheduled_total",
			ConstLabels: labels,
			Help:        "Total flights queued, by priority",
		}, []string{"priority"}),
		coalesced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "assetstream",
			Subsystem:   "scheduler",
			Name:        "coalesced_total",
			ConstLabels: labels,
			Help:        "Total requests that joined an in-flight load",
		}),
		completed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "assetstream",
			Subsystem:   "scheduler",
			Name:        "completed_total",
			ConstLabels: labels,
			Help:        "Total flights completed successfully",
		}),
		failed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "assetstream",
			Subsystem:   "scheduler",
			Name:        "failed_total",
			ConstLabels: labels,
			Help:        "Total flights that failed terminally",
		}),
		retries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "assetstream",
			Subsystem:   "scheduler",
			Name:        "retries_total",
			ConstLabels: labels,
			Help:        "Total retried load attempts",
		}),
		uncached: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "assetstream",
			Subsystem:   "scheduler",
			Name:        "uncached_total",
			ConstLabels: labels,
			Help:        "Total loads served without cache admission",
		}),
		queueDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   "assetstream",
			Subsystem:   "scheduler",
			Name:        "queue_depth",
			ConstLabels: labels,
			Help:        "Current queued flights, by priority",
		}, []string{"priority"}),
		inflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "assetstream",
			Subsystem:   "scheduler",
			Name:        "inflight",
			ConstLabels: labels,
			Help:        "Current running loads",
		}),
		slots: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "assetstream",
			Subsystem:   "scheduler",
			Name:        "slots",
			ConstLabels: labels,
			Help:        "Configured concurrent load slots",
		}),
		queueWait: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   "assetstream",
			Subsystem:   "scheduler",
			Name:        "queue_wait_seconds",
			ConstLabels: labels,
			Help:        "Time flights spend queued before dispatch",
			Buckets:     []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}),
		loadDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   "assetstream",
			Subsystem:   "scheduler",
			Name:        "load_duration_seconds",
			ConstLabels: labels,
			Help:        "Time spent loading assets, by outcome",
			Buckets:     []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 5, 15},
		}, []string{"status"}),
	}

	if err := registry.RegisterCounterVec(prefix, "scheduler_scheduled", m.scheduled); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounter(prefix, "scheduler_coalesced", m.coalesced); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounter(prefix, "scheduler_completed", m.completed); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounter(prefix, "scheduler_failed", m.failed); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounter(prefix, "scheduler_retries", m.retries); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounter(prefix, "scheduler_uncached", m.uncached); err != nil {
		return nil, err
	}
	if err := registry.RegisterGaugeVec(prefix, "scheduler_queue_depth", m.queueDepth); err != nil {
		return nil, err
	}
	if err := registry.RegisterGauge(prefix, "scheduler_inflight", m.inflight); err != nil {
		return nil, err
	}
	if err := registry.RegisterGauge(prefix, "scheduler_slots", m.slots); err != nil {
		return nil, err
	}
	if err := registry.RegisterHistogram(prefix, "scheduler_queue_wait", m.queueWait); err != nil {
		return nil, err
	}
	if err := registry.RegisterHistogramVec(prefix, "scheduler_load_duration", m.loadDuration); err != nil {
		return nil, err
	}

	return m, nil
}

func (m *schedMetrics) recordScheduled(pri Priority) {
	m.scheduled.WithLabelValues(pri.String()).Inc()
}

func (m *schedMetrics) recordCoalesced() {
	m.coalesced.Inc()
}

func (m *schedMetrics) recordOutcome(d time.Duration, err error) {
	status := "success"
	if err != nil {
		m.failed.Inc()
		status = "error"
	} else {
		m.completed.Inc()
	}
	m.loadDuration.WithLabelValues(status).Observe(d.Seconds())
}

func (m *schedMetrics) recordRetry() {
	m.retries.Inc()
}

func (m *schedMetrics) recordUncached() {
	m.uncached.Inc()
}

func (m *schedMetrics) recordQueueWait(d time.Duration) {
	m.queueWait.Observe(d.Seconds())
}

func (m *schedMetrics) updateQueueDepth(pri Priority, depth int) {
	m.queueDepth.WithLabelValues(pri.String()).Set(float64(depth))
}

func (m *schedMetrics) updateInflight(n int) {
	m.inflight.Set(float64(n))
}

func (m *schedMetrics) updateSlots(n int64) {
	m.slots.Set(float64(n))
}
