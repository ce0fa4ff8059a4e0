package store

import (
	"sync"
	"sync/atomic"
	"time"
)

// Statistics tracks cache performance metrics.
type Statistics struct {
	// Atomic counters for thread-safe updates
	hits        int64
	misses      int64
	puts        int64
	removes     int64
	evictions   int64
	expirations int64
	rejections  int64

	// Protected by mutex
	mu         sync.RWMutex
	startTime  time.Time
	usedBytes  int64
	peakBytes  int64
	entryCount int64
	peakCount  int64
}

// NewStatistics creates a new statistics tracker.
func NewStatistics() *Statistics {
	return &Statistics{
		startTime: time.Now(),
	}
}

// Hit records a cache hit.
func (s *Statistics) Hit() {
	atomic.AddInt64(&s.hits, 1)
}

// Miss records a cache miss.
func (s *Statistics) Miss() {
	atomic.AddInt64(&s.misses, 1)
}

// Put records a cache put operation.
func (s *Statistics) Put() {
	atomic.AddInt64(&s.puts, 1)
}

// Remove records an explicit cache remove.
func (s *Statistics) Remove() {
	atomic.AddInt64(&s.removes, 1)
}

// Eviction records a capacity or resize eviction.
func (s *Statistics) Eviction() {
	atomic.AddInt64(&s.evictions, 1)
}

// Expiration records a TTL expiry.
func (s *Statistics) Expiration() {
	atomic.AddInt64(&s.expirations, 1)
}

// Rejection records an admission failure (entry too large, eviction
// insufficient).
func (s *Statistics) Rejection() {
	atomic.AddInt64(&s.rejections, 1)
}

// UpdateUsage updates byte and entry usage after an operation.
func (s *Statistics) UpdateUsage(bytes, entries int64) {
	s.mu.Lock()
	s.usedBytes = bytes
	if bytes > s.peakBytes {
		s.peakBytes = bytes
	}
	s.entryCount = entries
	if entries > s.peakCount {
		s.peakCount = entries
	}
	s.mu.Unlock()
}

// Hits returns the total number of cache hits.
func (s *Statistics) Hits() int64 {
	return atomic.LoadInt64(&s.hits)
}

// Misses returns the total number of cache misses.
func (s *Statistics) Misses() int64 {
	return atomic.LoadInt64(&s.misses)
}

// Puts returns the total number of put operations.
func (s *Statistics) Puts() int64 {
	return atomic.LoadInt64(&s.puts)
}

// Removes returns the total number of explicit removes.
func (s *Statistics) Removes() int64 {
	return atomic.LoadInt64(&s.removes)
}

// Evictions returns the total number of capacity and resize evictions.
func (s *Statistics) Evictions() int64 {
	return atomic.LoadInt64(&s.evictions)
}

// Expirations returns the total number of TTL expiries.
func (s *Statistics) Expirations() int64 {
	return atomic.LoadInt64(&s.expirations)
}

// Rejections returns the total number of admission failures.
func (s *Statistics) Rejections() int64 {
	return atomic.LoadInt64(&s.rejections)
}

// UsedBytes returns the bytes currently held by cached entries.
func (s *Statistics) UsedBytes() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.usedBytes
}

// PeakBytes returns the most bytes the cache has held.
func (s *Statistics) PeakBytes() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.peakBytes
}

// EntryCount returns the current number of entries.
func (s *Statistics) EntryCount() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entryCount
}

// PeakEntryCount returns the most entries the cache has held.
func (s *Statistics) PeakEntryCount() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.peakCount
}

// HitRatio returns the cache hit ratio (0.0 to 1.0).
func (s *Statistics) HitRatio() float64 {
	hits := s.Hits()
	misses := s.Misses()
	total := hits + misses

	if total == 0 {
		return 0.0
	}

	return float64(hits) / float64(total)
}

// Uptime returns how long the cache has been running.
func (s *Statistics) Uptime() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return time.Since(s.startTime)
}

// Reset resets all statistics to zero.
func (s *Statistics) Reset() {
	atomic.StoreInt64(&s.hits, 0)
	atomic.StoreInt64(&s.misses, 0)
	atomic.StoreInt64(&s.puts, 0)
	atomic.StoreInt64(&s.removes, 0)
	atomic.StoreInt64(&s.evictions, 0)
	atomic.StoreInt64(&s.expirations, 0)
	atomic.StoreInt64(&s.rejections, 0)

	s.mu.Lock()
	s.startTime = time.Now()
	s.usedBytes = 0
	s.peakBytes = 0
	s.entryCount = 0
	s.peakCount = 0
	s.mu.Unlock()
}

// StatsSummary is a point-in-time snapshot of all statistics.
type StatsSummary struct {
	Hits        int64         `json:"hits"`
	Misses      int64         `json:"misses"`
	Puts        int64         `json:"puts"`
	Removes     int64         `json:"removes"`
	Evictions   int64         `json:"evictions"`
	Expirations int64         `json:"expirations"`
	Rejections  int64         `json:"rejections"`
	UsedBytes   int64         `json:"used_bytes"`
	PeakBytes   int64         `json:"peak_bytes"`
	EntryCount  int64         `json:"entry_count"`
	PeakCount   int64         `json:"peak_count"`
	HitRatio    float64       `json:"hit_ratio"`
	Uptime      time.Duration `json:"uptime"`
}

// Summary returns a snapshot of all statistics.
func (s *Statistics) Summary() StatsSummary {
	return StatsSummary{
		Hits:        s.Hits(),
		Misses:      s.Misses(),
		Puts:        s.Puts(),
		Removes:     s.Removes(),
		Evictions:   s.Evictions(),
		Expirations: s.Expirations(),
		Rejections:  s.Rejections(),
		UsedBytes:   s.UsedBytes(),
		PeakBytes:   s.PeakBytes(),
		EntryCount:  s.EntryCount(),
		PeakCount:   s.PeakEntryCount(),
		HitRatio:    s.HitRatio(),
		Uptime:      s.Uptime(),
	}
}
