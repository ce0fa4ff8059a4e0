package events

import (
	"sync"
	"time"

	"github.com/atlas3d/assetstream/errors"
)

// Subscription is one listener's view of the bus. Events arrive on the
// channel returned by Events; the channel closes when the subscription or
// the bus shuts down.
type Subscription struct {
	bus *Bus
	id  int
	ch  chan Event
}

// Events returns the channel this subscription receives on.
func (s *Subscription) Events() <-chan Event {
	return s.ch
}

// Close detaches the subscription and closes its channel. Safe to call
// more than once.
func (s *Subscription) Close() {
	s.bus.unsubscribe(s.id)
}

// Bus fans typed events out to subscribers and retains a bounded history
// of recent events. Publishing never blocks: a subscriber that falls
// behind loses events according to the overflow policy, and the cache
// path carries on.
type Bus struct {
	mu      sync.Mutex
	history *ring
	subs    map[int]*Subscription
	nextID  int
	closed  bool

	stats   *Statistics // ALWAYS initialized
	metrics *busMetrics // Optional, if metrics enabled
	opts    *busOptions
}

// NewBus creates a bus retaining up to capacity recent events. Subscriber
// queues default to the same capacity. Returns an error only if metrics
// registration fails when requested.
func NewBus(capacity int, options ...Option) (*Bus, error) {
	if capacity <= 0 {
		capacity = 1 // Minimum capacity
	}

	opts := applyOptions(options...)
	if opts.subscriberBuffer <= 0 {
		opts.subscriberBuffer = capacity
	}

	// Stats are ALWAYS initialized - observability is not optional
	stats := NewStatistics()

	var metrics *busMetrics
	// Optionally expose stats as Prometheus metrics
	if opts.metricsReg != nil && opts.metricsPrefix != "" {
		var err error
		metrics, err = newBusMetrics(opts.metricsReg, opts.metricsPrefix)
		if err != nil {
			return nil, errors.WrapTransient(err, "Bus", "NewBus", "metrics registration")
		}
	}

	return &Bus{
		history: newRing(capacity),
		subs:    make(map[int]*Subscription),
		stats:   stats,
		metrics: metrics,
		opts:    opts,
	}, nil
}

// Publish delivers an event to every subscriber and records it in the
// history. Fire and forget: a closed bus swallows the event, a full
// subscriber queue sheds per the overflow policy.
func (b *Bus) Publish(evt Event) {
	if evt.At.IsZero() {
		evt.At = time.Now()
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}

	b.history.push(evt)

	// ALWAYS track in stats
	b.stats.Publish()
	// ALSO track in metrics if enabled
	if b.metrics != nil {
		b.metrics.recordPublish(evt.Type)
	}

	for _, sub := range b.subs {
		b.deliverLocked(sub, evt)
	}
}

// deliverLocked hands one event to one subscriber without ever blocking.
func (b *Bus) deliverLocked(sub *Subscription, evt Event) {
	select {
	case sub.ch <- evt:
		b.stats.Deliver()
		if b.metrics != nil {
			b.metrics.recordDeliver()
		}
		return
	default:
	}

	// Queue full
	b.stats.Overflow()

	switch b.opts.overflowPolicy {
	case DropNewest:
		b.stats.Drop()
		if b.metrics != nil {
			b.metrics.recordDrop()
		}
	default: // DropOldest
		select {
		case <-sub.ch:
			b.stats.Drop()
			if b.metrics != nil {
				b.metrics.recordDrop()
			}
		default:
		}
		select {
		case sub.ch <- evt:
			b.stats.Deliver()
			if b.metrics != nil {
				b.metrics.recordDeliver()
			}
		default:
			// A concurrent reader raced the queue back to full.
			b.stats.Drop()
			if b.metrics != nil {
				b.metrics.recordDrop()
			}
		}
	}
}

// Subscribe attaches a new listener. Callers must drain or Close the
// subscription; a subscription that stops reading only loses its own
// events, never anyone else's.
func (b *Bus) Subscribe() *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := &Subscription{
		bus: b,
		id:  b.nextID,
		ch:  make(chan Event, b.opts.subscriberBuffer),
	}
	b.nextID++

	if b.closed {
		// Late subscribers get an already-closed channel.
		close(sub.ch)
		return sub
	}

	b.subs[sub.id] = sub
	b.stats.UpdateSubscribers(int64(len(b.subs)))
	if b.metrics != nil {
		b.metrics.updateSubscribers(len(b.subs))
	}
	return sub
}

// unsubscribe removes a subscription and closes its channel.
func (b *Bus) unsubscribe(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub, ok := b.subs[id]
	if !ok {
		return
	}
	delete(b.subs, id)
	close(sub.ch)

	b.stats.UpdateSubscribers(int64(len(b.subs)))
	if b.metrics != nil {
		b.metrics.updateSubscribers(len(b.subs))
	}
}

// Recent returns up to max retained events, oldest first. A non-positive
// max returns the whole history.
func (b *Bus) Recent(max int) []Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.history.recent(max)
}

// Stats returns the always-on statistics tracker.
func (b *Bus) Stats() *Statistics {
	return b.stats
}

// Close shuts the bus down, closing every subscriber channel. Publishes
// after Close are silently discarded.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true

	for id, sub := range b.subs {
		delete(b.subs, id)
		close(sub.ch)
	}
	b.history.clear()

	b.stats.UpdateSubscribers(0)
	if b.metrics != nil {
		b.metrics.updateSubscribers(0)
	}
	return nil
}
