package resource

import (
	"log/slog"

	"github.com/atlas3d/assetstream/events"
	"github.com/atlas3d/assetstream/metric"
	"github.com/atlas3d/assetstream/store"
)

// Option configures manager behavior using the functional options
// pattern.
type Option func(*mgrOptions)

// mgrOptions holds internal configuration for Manager instances.
// Stats are ALWAYS collected; metrics export and a shared bus are opt-in.
type mgrOptions struct {
	logger     *slog.Logger
	metricsReg *metric.MetricsRegistry
	clock      store.Clock
	bus        *events.Bus
}

// WithLogger sets the structured logger. Defaults to slog.Default.
func WithLogger(logger *slog.Logger) Option {
	return func(opts *mgrOptions) {
		if logger != nil {
			opts.logger = logger
		}
	}
}

// WithMetrics enables Prometheus metrics export across the whole
// pipeline: the manager's core metrics plus the cache, scheduler and
// event bus collectors, all through the given registry. If registry is
// nil, this option is ignored.
func WithMetrics(registry *metric.MetricsRegistry) Option {
	return func(opts *mgrOptions) {
		if registry != nil {
			opts.metricsReg = registry
		}
	}
}

// WithClock overrides the time source used for expiry decisions and
// event timestamps. Used by tests to drive TTL sweeps deterministically.
func WithClock(clock store.Clock) Option {
	return func(opts *mgrOptions) {
		if clock != nil {
			opts.clock = clock
		}
	}
}

// WithEventBus publishes pipeline events to an externally owned bus
// instead of creating one. The manager does not close a provided bus.
func WithEventBus(bus *events.Bus) Option {
	return func(opts *mgrOptions) {
		opts.bus = bus
	}
}

// applyOptions applies functional options to build the final manager
// configuration.
func applyOptions(options ...Option) *mgrOptions {
	opts := &mgrOptions{
		logger: slog.Default(),
		clock:  store.SystemClock(),
	}

	for _, opt := range options {
		if opt != nil {
			opt(opts)
		}
	}

	return opts
}
