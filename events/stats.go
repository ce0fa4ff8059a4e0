package events

import (
	"sync"
	"sync/atomic"
	"time"
)

// Statistics tracks bus activity.
type Statistics struct {
	// Atomic counters for thread-safe updates
	published int64
	delivered int64
	dropped   int64
	overflows int64

	// Protected by mutex
	mu             sync.RWMutex
	startTime      time.Time
	subscribers    int64
	maxSubscribers int64
}

// NewStatistics creates a new statistics tracker.
func NewStatistics() *Statistics {
	return &Statistics{
		startTime: time.Now(),
	}
}

// Publish records an event accepted by the bus.
func (s *Statistics) Publish() {
	atomic.AddInt64(&s.published, 1)
}

// Deliver records an event handed to one subscriber.
func (s *Statistics) Deliver() {
	atomic.AddInt64(&s.delivered, 1)
}

// Drop records an event a subscriber lost to its overflow policy.
func (s *Statistics) Drop() {
	atomic.AddInt64(&s.dropped, 1)
}

// Overflow records a full subscriber queue being hit.
func (s *Statistics) Overflow() {
	atomic.AddInt64(&s.overflows, 1)
}

// UpdateSubscribers records the current subscriber count.
func (s *Statistics) UpdateSubscribers(n int64) {
	s.mu.Lock()
	s.subscribers = n
	if n > s.maxSubscribers {
		s.maxSubscribers = n
	}
	s.mu.Unlock()
}

// Published returns the total number of events accepted.
func (s *Statistics) Published() int64 {
	return atomic.LoadInt64(&s.published)
}

// Delivered returns the total number of per-subscriber deliveries.
func (s *Statistics) Delivered() int64 {
	return atomic.LoadInt64(&s.delivered)
}

// Dropped returns the total number of per-subscriber drops.
func (s *Statistics) Dropped() int64 {
	return atomic.LoadInt64(&s.dropped)
}

// Overflows returns the total number of full-queue events.
func (s *Statistics) Overflows() int64 {
	return atomic.LoadInt64(&s.overflows)
}

// Subscribers returns the current subscriber count.
func (s *Statistics) Subscribers() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.subscribers
}

// MaxSubscribers returns the most subscribers seen at once.
func (s *Statistics) MaxSubscribers() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.maxSubscribers
}

// DropRate returns the fraction of deliveries lost to drops (0.0 to 1.0).
func (s *Statistics) DropRate() float64 {
	delivered := s.Delivered()
	dropped := s.Dropped()
	total := delivered + dropped

	if total == 0 {
		return 0.0
	}
	return float64(dropped) / float64(total)
}

// PublishRate returns the average number of events published per second.
func (s *Statistics) PublishRate() float64 {
	s.mu.RLock()
	elapsed := time.Since(s.startTime)
	s.mu.RUnlock()

	if elapsed == 0 {
		return 0.0
	}
	return float64(s.Published()) / elapsed.Seconds()
}

// Uptime returns how long the bus has been running.
func (s *Statistics) Uptime() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return time.Since(s.startTime)
}

// Reset resets all statistics to zero.
func (s *Statistics) Reset() {
	atomic.StoreInt64(&s.published, 0)
	atomic.StoreInt64(&s.delivered, 0)
	atomic.StoreInt64(&s.dropped, 0)
	atomic.StoreInt64(&s.overflows, 0)

	s.mu.Lock()
	s.startTime = time.Now()
	s.subscribers = 0
	s.maxSubscribers = 0
	s.mu.Unlock()
}

// StatsSummary is a snapshot of all statistics.
type StatsSummary struct {
	Published      int64         `json:"published"`
	Delivered      int64         `json:"delivered"`
	Dropped        int64         `json:"dropped"`
	Overflows      int64         `json:"overflows"`
	Subscribers    int64         `json:"subscribers"`
	MaxSubscribers int64         `json:"max_subscribers"`
	DropRate       float64       `json:"drop_rate"`
	PublishRate    float64       `json:"publish_rate"`
	Uptime         time.Duration `json:"uptime"`
}

// Summary returns a snapshot of all statistics.
func (s *Statistics) Summary() StatsSummary {
	return StatsSummary{
		Published:      s.Published(),
		Delivered:      s.Delivered(),
		Dropped:        s.Dropped(),
		Overflows:      s.Overflows(),
		Subscribers:    s.Subscribers(),
		MaxSubscribers: s.MaxSubscribers(),
		DropRate:       s.DropRate(),
		PublishRate:    s.PublishRate(),
		Uptime:         s.Uptime(),
	}
}
