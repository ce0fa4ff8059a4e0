package events

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/atlas3d/assetstream/metric"
)

// busMetrics holds Prometheus metrics for bus activity.
type busMetrics struct {
	published   *prometheus.CounterVec
	delivered   prometheus.Counter
	dropped     prometheus.Counter
	subscribers prometheus.Gauge
}

// newBusMetrics creates and registers bus metrics with the provided registry.
func newBusMetrics(registry *metric.MetricsRegistry, prefix string) (*busMetrics, error) {
	m := &busMetrics{
		published: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "assetstream",
			Subsystem:   "events",
			Name:        "published_total",
			ConstLabels: prometheus.Labels{"component": prefix},
			Help:        "Total number of events published, by event type",
		}, []string{"type"}),
		delivered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "assetstream",
			Subsystem:   "events",
			Name:        "delivered_total",
			ConstLabels: prometheus.Labels{"component": prefix},
			Help:        "Total number of per-subscriber event deliveries",
		}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "assetstream",
			Subsystem:   "events",
			Name:        "dropped_total",
			ConstLabels: prometheus.Labels{"component": prefix},
			Help:        "Total number of events dropped by subscriber overflow policy",
		}),
		subscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "assetstream",
			Subsystem:   "events",
			Name:        "subscribers",
			ConstLabels: prometheus.Labels{"component": prefix},
			Help:        "Current number of subscribers",
		}),
	}

	if err := registry.RegisterCounterVec(prefix, "events_published", m.published); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounter(prefix, "events_delivered", m.delivered); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounter(prefix, "events_dropped", m.dropped); err != nil {
		return nil, err
	}
	if err := registry.RegisterGauge(prefix, "events_subscribers", m.subscribers); err != nil {
		return nil, err
	}

	return m, nil
}

func (m *busMetrics) recordPublish(t Type) {
	m.published.WithLabelValues(t.String()).Inc()
}

func (m *busMetrics) recordDeliver() {
	m.delivered.Inc()
}

func (m *busMetrics) recordDrop() {
	m.dropped.Inc()
}

func (m *busMetrics) updateSubscribers(n int) {
	m.subscribers.Set(float64(n))
}
