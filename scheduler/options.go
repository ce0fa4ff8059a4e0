package scheduler

import (
	"log/slog"

	"golang.org/x/time/rate"

	"github.com/atlas3d/assetstream/events"
	"github.com/atlas3d/assetstream/metric"
)

// Option configures scheduler behavior using the functional options
// pattern.
type Option func(*schedOptions)

// schedOptions holds internal configuration for scheduler instances.
// Stats are ALWAYS collected; metrics, events, and throttling are opt-in.
type schedOptions struct {
	logger     *slog.Logger
	bus        *events.Bus
	limiter    *rate.Limiter
	queueLimit int

	metricsReg    *metric.MetricsRegistry
	metricsPrefix string

	observer func(key string, seconds float64, err error)
}

// WithLogger sets the structured logger. Defaults to slog.Default.
func WithLogger(logger *slog.Logger) Option {
	return func(opts *schedOptions) {
		if logger != nil {
			opts.logger = logger
		}
	}
}

// WithEventBus publishes Loaded/LoadFailed events to the given bus.
func WithEventBus(bus *events.Bus) Option {
	return func(opts *schedOptions) {
		opts.bus = bus
	}
}

// WithRateLimit throttles dispatch with the given limiter. Nil disables
// throttling.
func WithRateLimit(limiter *rate.Limiter) Option {
	return func(opts *schedOptions) {
		opts.limiter = limiter
	}
}

// WithQueueLimit bounds the total number of queued flights. Loads beyond
// the limit fail fast with a queue-full error. Zero means unbounded.
func WithQueueLimit(n int) Option {
	return func(opts *schedOptions) {
		if n > 0 {
			opts.queueLimit = n
		}
	}
}

// WithMetrics enables Prometheus metrics export for scheduler statistics.
// If registry is nil or prefix empty, this option is ignored.
func WithMetrics(registry *metric.MetricsRegistry, prefix string) Option {
	return func(opts *schedOptions) {
		if registry != nil && prefix != "" {
			opts.metricsReg = registry
			opts.metricsPrefix = prefix
		}
	}
}

// WithLoadObserver registers a callback invoked after every flight with
// the key, load duration in seconds, and terminal error if any. The
// facade uses this to feed its performance collector.
func WithLoadObserver(fn func(key string, seconds float64, err error)) Option {
	return func(opts *schedOptions) {
		opts.observer = fn
	}
}

// applyOptions applies functional options to build the final scheduler
// configuration.
func applyOptions(options ...Option) *schedOptions {
	opts := &schedOptions{
		logger: slog.Default(),
	}

	for _, opt := range options {
		if opt != nil {
			opt(opts)
		}
	}

	return opts
}
