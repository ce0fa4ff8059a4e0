package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Component status values reported through ComponentStatus.
const (
	StatusStopped  = 0
	StatusStarting = 1
	StatusRunning  = 2
	StatusStopping = 3
	StatusFailed   = 4
)

// Metrics contains all pipeline-level metrics (not component-specific).
// Cache, scheduler and event bus collectors register separately through
// the MetricsRegistrar interface from their own packages.
type Metrics struct {
	// Component metrics
	ComponentStatus   *prometheus.GaugeVec
	RequestsReceived  *prometheus.CounterVec
	RequestsCompleted *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
	ErrorsTotal       *prometheus.CounterVec
	HealthStatus      *prometheus.GaugeVec

	// Pipeline-wide metrics
	HitRatio           prometheus.Gauge
	SweepRuns          prometheus.Counter
	GenerationDuration prometheus.Histogram
}

// NewMetrics creates a new Metrics instance with all pipeline metrics
func NewMetrics() *Metrics {
	return &Metrics{
		// Component metrics
		ComponentStatus: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "assetstream",
				Subsystem: "component",
				Name:      "status",
				Help:      "Component status (0=stopped, 1=starting, 2=running, 3=stopping, 4=failed)",
			},
			[]string{"component"},
		),

		RequestsReceived: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "assetstream",
				Subsystem: "requests",
				Name:      "received_total",
				Help:      "Total number of asset requests received",
			},
			[]string{"component", "kind"},
		),

		RequestsCompleted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "assetstream",
				Subsystem: "requests",
				Name:      "completed_total",
				Help:      "Total number of asset requests completed",
			},
			[]string{"component", "kind", "status"},
		),

		OperationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "assetstream",
				Subsystem: "operations",
				Name:      "duration_seconds",
				Help:      "Facade operation duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"component", "operation"},
		),

		ErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "assetstream",
				Subsystem: "errors",
				Name:      "total",
				Help:      "Total number of errors by classification",
			},
			[]string{"component", "class"},
		),

		HealthStatus: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "assetstream",
				Subsystem: "health",
				Name:      "status",
				Help:      "Health check status (0=unhealthy, 1=healthy)",
			},
			[]string{"component"},
		),

		// Pipeline-wide metrics
		HitRatio: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "assetstream",
				Subsystem: "cache",
				Name:      "hit_ratio",
				Help:      "Overall cache hit ratio between 0 and 1",
			},
		),

		SweepRuns: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "assetstream",
				Subsystem: "sweep",
				Name:      "runs_total",
				Help:      "Total number of expiry sweep passes",
			},
		),

		GenerationDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "assetstream",
				Subsystem: "procedural",
				Name:      "generation_seconds",
				Help:      "Procedural texture generation duration in seconds",
				Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
		),
	}
}

// RecordComponentStatus updates component status metric
func (c *Metrics) RecordComponentStatus(component string, status int) {
	c.ComponentStatus.WithLabelValues(component).Set(float64(status))
}

// RecordRequestReceived increments received request counter
func (c *Metrics) RecordRequestReceived(component, kind string) {
	c.RequestsReceived.WithLabelValues(component, kind).Inc()
}

// RecordRequestCompleted increments completed request counter
func (c *Metrics) RecordRequestCompleted(component, kind, status string) {
	c.RequestsCompleted.WithLabelValues(component, kind, status).Inc()
}

// RecordOperationDuration records facade operation time
func (c *Metrics) RecordOperationDuration(component, operation string, duration time.Duration) {
	c.OperationDuration.WithLabelValues(component, operation).Observe(duration.Seconds())
}

// RecordError increments error counter
func (c *Metrics) RecordError(component, errorClass string) {
	c.ErrorsTotal.WithLabelValues(component, errorClass).Inc()
}

// RecordHealthStatus updates health check status
func (c *Metrics) RecordHealthStatus(component string, healthy bool) {
	value := 0.0
	if healthy {
		value = 1.0
	}
	c.HealthStatus.WithLabelValues(component).Set(value)
}

// RecordHitRatio updates the pipeline-wide cache hit ratio
func (c *Metrics) RecordHitRatio(ratio float64) {
	c.HitRatio.Set(ratio)
}

// RecordSweepRun increments the expiry sweep counter
func (c *Metrics) RecordSweepRun() {
	c.SweepRuns.Inc()
}

// RecordGenerationDuration records procedural synthesis time
func (c *Metrics) RecordGenerationDuration(duration time.Duration) {
	c.GenerationDuration.Observe(duration.Seconds())
}
