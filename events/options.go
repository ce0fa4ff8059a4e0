package events

import (
	"github.com/atlas3d/assetstream/metric"
)

// OverflowPolicy defines what happens when a subscriber queue is full.
// There is no blocking policy: event emission must never stall the
// caller's frame, so a slow subscriber always loses events instead.
type OverflowPolicy int

const (
	// DropOldest discards the subscriber's oldest queued event to make
	// room for the new one.
	DropOldest OverflowPolicy = iota

	// DropNewest discards the incoming event for that subscriber.
	DropNewest
)

// String returns a human-readable representation of the overflow policy.
func (p OverflowPolicy) String() string {
	switch p {
	case DropOldest:
		return "DropOldest"
	case DropNewest:
		return "DropNewest"
	default:
		return "Unknown"
	}
}

// ParsePolicy maps a config string to an OverflowPolicy. Unknown values
// fall back to DropOldest.
func ParsePolicy(name string) OverflowPolicy {
	if name == "drop_newest" {
		return DropNewest
	}
	return DropOldest
}

// Option configures bus behavior using the functional options pattern.
type Option func(*busOptions)

// busOptions holds internal configuration for bus instances.
// Stats are ALWAYS collected - they are not optional.
type busOptions struct {
	overflowPolicy   OverflowPolicy
	subscriberBuffer int

	// metricsReg is optional - if provided, bus stats are also exposed
	// as Prometheus metrics
	metricsReg    *metric.MetricsRegistry
	metricsPrefix string
}

// WithOverflowPolicy sets the per-subscriber overflow behavior.
// Defaults to DropOldest if not specified.
func WithOverflowPolicy(policy OverflowPolicy) Option {
	return func(opts *busOptions) {
		opts.overflowPolicy = policy
	}
}

// WithSubscriberBuffer sets the queue depth of each subscription.
// Defaults to the bus capacity if not specified.
func WithSubscriberBuffer(n int) Option {
	return func(opts *busOptions) {
		if n > 0 {
			opts.subscriberBuffer = n
		}
	}
}

// WithMetrics enables Prometheus metrics export for bus statistics.
// If registry is nil or prefix empty, this option is ignored.
func WithMetrics(registry *metric.MetricsRegistry, prefix string) Option {
	return func(opts *busOptions) {
		if registry != nil && prefix != "" {
			opts.metricsReg = registry
			opts.metricsPrefix = prefix
		}
	}
}

// applyOptions applies functional options to build the final bus
// configuration.
func applyOptions(options ...Option) *busOptions {
	opts := &busOptions{
		overflowPolicy: DropOldest,
	}

	for _, opt := range options {
		if opt != nil {
			opt(opts)
		}
	}

	return opts
}
