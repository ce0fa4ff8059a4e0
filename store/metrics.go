package store

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/atlas3d/assetstream/metric"
)

// storeMetrics holds Prometheus metrics for cache operations.
type storeMetrics struct {
	hits       prometheus.Counter
	misses     prometheus.Counter
	puts       prometheus.Counter
	rejections prometheus.Counter
	evictions  *prometheus.CounterVec // labeled by reason

	usedBytes prometheus.Gauge
	capBytes  prometheus.Gauge
	entries   prometheus.Gauge
}

// newStoreMetrics creates and registers store metrics with the provided registry.
func newStoreMetrics(registry *metric.MetricsRegistry, prefix string) (*storeMetrics, error) {
	m := &storeMetrics{
		hits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "assetstream",
			Subsystem:   "cache",
			Name:        "hits_total",
			ConstLabels: prometheus.Labels{"component": prefix},
			Help:        "Total number of cache hits",
		}),
		misses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "assetstream",
			Subsystem:   "cache",
			Name:        "misses_total",
			ConstLabels: prometheus.Labels{"component": prefix},
			Help:        "Total number of cache misses",
		}),
		puts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "assetstream",
			Subsystem:   "cache",
			Name:        "puts_total",
			ConstLabels: prometheus.Labels{"component": prefix},
			Help:        "Total number of cache put operations",
		}),
		rejections: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "assetstream",
			Subsystem:   "cache",
			Name:        "rejections_total",
			ConstLabels: prometheus.Labels{"component": prefix},
			Help:        "Total number of admission failures",
		}),
		evictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "assetstream",
			Subsystem:   "cache",
			Name:        "evictions_total",
			ConstLabels: prometheus.Labels{"component": prefix},
			Help:        "Total number of evictions by reason",
		}, []string{"reason"}),
		usedBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "assetstream",
			Subsystem:   "cache",
			Name:        "used_bytes",
			ConstLabels: prometheus.Labels{"component": prefix},
			Help:        "Bytes currently held by cached entries",
		}),
		capBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "assetstream",
			Subsystem:   "cache",
			Name:        "capacity_bytes",
			ConstLabels: prometheus.Labels{"component": prefix},
			Help:        "Configured cache capacity in bytes",
		}),
		entries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "assetstream",
			Subsystem:   "cache",
			Name:        "entries",
			ConstLabels: prometheus.Labels{"component": prefix},
			Help:        "Current number of cached entries",
		}),
	}

	if err := registry.RegisterCounter(prefix, "cache_hits", m.hits); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounter(prefix, "cache_misses", m.misses); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounter(prefix, "cache_puts", m.puts); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounter(prefix, "cache_rejections", m.rejections); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounterVec(prefix, "cache_evictions", m.evictions); err != nil {
		return nil, err
	}
	if err := registry.RegisterGauge(prefix, "cache_used_bytes", m.usedBytes); err != nil {
		return nil, err
	}
	if err := registry.RegisterGauge(prefix, "cache_capacity_bytes", m.capBytes); err != nil {
		return nil, err
	}
	if err := registry.RegisterGauge(prefix, "cache_entries", m.entries); err != nil {
		return nil, err
	}

	return m, nil
}

func (m *storeMetrics) recordHit() {
	m.hits.Inc()
}

func (m *storeMetrics) recordMiss() {
	m.misses.Inc()
}

func (m *storeMetrics) recordPut() {
	m.puts.Inc()
}

func (m *storeMetrics) recordRejection() {
	m.rejections.Inc()
}

func (m *storeMetrics) recordEviction(reason Reason) {
	m.evictions.WithLabelValues(reason.String()).Inc()
}

func (m *storeMetrics) updateUsage(used, capacity, entries int64) {
	m.usedBytes.Set(float64(used))
	m.capBytes.Set(float64(capacity))
	m.entries.Set(float64(entries))
}
