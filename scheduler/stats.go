package scheduler

import (
	"sync"
	"sync/atomic"
	"time"
)

// Statistics tracks scheduler activity.
type Statistics struct {
	// Atomic counters for thread-safe updates
	scheduled int64
	coalesced int64
	completed int64
	failed    int64
	retries   int64
	uncached  int64
	canceled  int64

	// Protected by mutex
	mu          sync.RWMutex
	startTime   time.Time
	queueDepth  int64
	maxQueue    int64
	inflight    int64
	maxInflight int64
}

// NewStatistics creates a new statistics tracker.
func NewStatistics() *Statistics {
	return &Statistics{
		startTime: time.Now(),
	}
}

// Scheduled records a new flight entering the queue.
func (s *Statistics) Scheduled() {
	atomic.AddInt64(&s.scheduled, 1)
}

// Coalesced records a request joining an existing flight.
func (s *Statistics) Coalesced() {
	atomic.AddInt64(&s.coalesced, 1)
}

// Completed records a flight finishing successfully.
func (s *Statistics) Completed() {
	atomic.AddInt64(&s.completed, 1)
}

// Failed records a flight finishing with a terminal error.
func (s *Statistics) Failed() {
	atomic.AddInt64(&s.failed, 1)
}

// Retry records one retried load attempt.
func (s *Statistics) Retry() {
	atomic.AddInt64(&s.retries, 1)
}

// Uncached records a loaded asset served without cache admission.
func (s *Statistics) Uncached() {
	atomic.AddInt64(&s.uncached, 1)
}

// Canceled records a queued flight canceled by shutdown.
func (s *Statistics) Canceled() {
	atomic.AddInt64(&s.canceled, 1)
}

// UpdateQueueDepth records the current number of queued flights.
func (s *Statistics) UpdateQueueDepth(depth int64) {
	s.mu.Lock()
	s.queueDepth = depth
	if depth > s.maxQueue {
		s.maxQueue = depth
	}
	s.mu.Unlock()
}

// UpdateInflight records the current number of running loads.
func (s *Statistics) UpdateInflight(n int64) {
	s.mu.Lock()
	s.inflight = n
	if n > s.maxInflight {
		s.maxInflight = n
	}
	s.mu.Unlock()
}

// ScheduledTotal returns flights that entered the queue.
func (s *Statistics) ScheduledTotal() int64 {
	return atomic.LoadInt64(&s.scheduled)
}

// CoalescedTotal returns requests that joined an existing flight.
func (s *Statistics) CoalescedTotal() int64 {
	return atomic.LoadInt64(&s.coalesced)
}

// CompletedTotal returns flights that finished successfully.
func (s *Statistics) CompletedTotal() int64 {
	return atomic.LoadInt64(&s.completed)
}

// FailedTotal returns flights that finished with a terminal error.
func (s *Statistics) FailedTotal() int64 {
	return atomic.LoadInt64(&s.failed)
}

// RetriesTotal returns retried load attempts.
func (s *Statistics) RetriesTotal() int64 {
	return atomic.LoadInt64(&s.retries)
}

// UncachedTotal returns loads served without cache admission.
func (s *Statistics) UncachedTotal() int64 {
	return atomic.LoadInt64(&s.uncached)
}

// CanceledTotal returns queued flights canceled by shutdown.
func (s *Statistics) CanceledTotal() int64 {
	return atomic.LoadInt64(&s.canceled)
}

// QueueDepth returns the current number of queued flights.
func (s *Statistics) QueueDepth() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queueDepth
}

// MaxQueueDepth returns the deepest the queue has been.
func (s *Statistics) MaxQueueDepth() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.maxQueue
}

// Inflight returns the current number of running loads.
func (s *Statistics) Inflight() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.inflight
}

// MaxInflight returns the most loads seen running at once.
func (s *Statistics) MaxInflight() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.maxInflight
}

// Uptime returns how long the scheduler has been running.
func (s *Statistics) Uptime() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return time.Since(s.startTime)
}

// Reset resets all statistics to zero.
func (s *Statistics) Reset() {
	atomic.StoreInt64(&s.scheduled, 0)
	atomic.StoreInt64(&s.coalesced, 0)
	atomic.StoreInt64(&s.completed, 0)
	atomic.StoreInt64(&s.failed, 0)
	atomic.StoreInt64(&s.retries, 0)
	atomic.StoreInt64(&s.uncached, 0)
	atomic.StoreInt64(&s.canceled, 0)

	s.mu.Lock()
	s.startTime = time.Now()
	s.queueDepth = 0
	s.maxQueue = 0
	s.inflight = 0
	s.maxInflight = 0
	s.mu.Unlock()
}

// StatsSummary is a snapshot of all statistics.
type StatsSummary struct {
	Scheduled   int64         `json:"scheduled"`
	Coalesced   int64         `json:"coalesced"`
	Completed   int64         `json:"completed"`
	Failed      int64         `json:"failed"`
	Retries     int64         `json:"retries"`
	Uncached    int64         `json:"uncached"`
	Canceled    int64         `json:"canceled"`
	QueueDepth  int64         `json:"queue_depth"`
	MaxQueue    int64         `json:"max_queue"`
	Inflight    int64         `json:"inflight"`
	MaxInflight int64         `json:"max_inflight"`
	Uptime      time.Duration `json:"uptime"`
}

// Summary returns a snapshot of all statistics.
func (s *Statistics) Summary() StatsSummary {
	return StatsSummary{
		Scheduled:   s.ScheduledTotal(),
		Coalesced:   s.CoalescedTotal(),
		Completed:   s.CompletedTotal(),
		Failed:      s.FailedTotal(),
		Retries:     s.RetriesTotal(),
		Uncached:    s.UncachedTotal(),
		Canceled:    s.CanceledTotal(),
		QueueDepth:  s.QueueDepth(),
		MaxQueue:    s.MaxQueueDepth(),
		Inflight:    s.Inflight(),
		MaxInflight: s.MaxInflight(),
		Uptime:      s.Uptime(),
	}
}
