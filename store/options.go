package store

import (
	"github.com/atlas3d/assetstream/metric"
)

// EvictCallback is called after an entry leaves the cache through
// eviction, expiry, or resize. Callbacks run outside the store lock.
type EvictCallback func(v Victim)

// Option configures store behavior using the functional options pattern.
type Option func(*storeOptions)

// storeOptions holds internal configuration for store instances.
// Stats are ALWAYS collected; Prometheus export is opt-in via WithMetrics.
type storeOptions struct {
	metricsReg    *metric.MetricsRegistry
	metricsPrefix string
	evictCallback EvictCallback
	clock         Clock
	compression   bool
	compressLevel int
}

// WithMetrics enables Prometheus metrics export for store statistics.
// If registry is nil or prefix empty, this option is ignored.
func WithMetrics(registry *metric.MetricsRegistry, prefix string) Option {
	return func(opts *storeOptions) {
		if registry != nil && prefix != "" {
			opts.metricsReg = registry
			opts.metricsPrefix = prefix
		}
	}
}

// WithEvictCallback sets a callback invoked for every evicted, expired,
// or resize-displaced entry.
func WithEvictCallback(callback EvictCallback) Option {
	return func(opts *storeOptions) {
		opts.evictCallback = callback
	}
}

// WithClock overrides the time source. Used by tests to drive expiry
// deterministically.
func WithClock(clock Clock) Option {
	return func(opts *storeOptions) {
		if clock != nil {
			opts.clock = clock
		}
	}
}

// WithCompression enables transparent zstd compression of large pixel and
// blob payloads. Level follows zstd level numbering; values outside [1, 4]
// are clamped.
func WithCompression(level int) Option {
	return func(opts *storeOptions) {
		opts.compression = true
		if level < 1 {
			level = 1
		}
		if level > 4 {
			level = 4
		}
		opts.compressLevel = level
	}
}

// applyOptions applies functional options to build the final store
// configuration.
func applyOptions(options ...Option) *storeOptions {
	opts := &storeOptions{
		clock: SystemClock(),
	}

	for _, opt := range options {
		if opt != nil {
			opt(opts)
		}
	}

	return opts
}
