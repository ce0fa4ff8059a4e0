package resource

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/atlas3d/assetstream/store"
)

// loadSampleWindow bounds the latency ring. A fixed window keeps the
// percentile math allocation-free and biases the numbers toward recent
// behavior, which is what a frame-budget dashboard wants to see.
const loadSampleWindow = 512

// Collector tracks activity only the facade can see: eviction reasons,
// procedural generation, texture optimization, preload batches and the
// observed latency of completed loads. Cache and scheduler counters
// stay in their own packages; snapshots merge all three.
type Collector struct {
	// Atomic counters for thread-safe updates
	capacityEvictions int64
	ttlEvictions      int64
	resizeEvictions   int64
	generations       int64
	generationHits    int64
	optimizations     int64
	preloadBatches    int64
	preloadKeys       int64

	// Protected by mutex
	mu      sync.Mutex
	samples [loadSampleWindow]float64 // seconds per completed load
	filled  int
	next    int
}

// NewCollector creates a new facade statistics tracker.
func NewCollector() *Collector {
	return &Collector{}
}

// Eviction records one evicted entry under its reason.
func (c *Collector) Eviction(reason store.Reason) {
	switch reason {
	case store.ReasonCapacity:
		atomic.AddInt64(&c.capacityEvictions, 1)
	case store.ReasonTTL:
		atomic.AddInt64(&c.ttlEvictions, 1)
	case store.ReasonResize:
		atomic.AddInt64(&c.resizeEvictions, 1)
	}
}

// Generation records a procedural texture generated from scratch.
func (c *Collector) Generation() {
	atomic.AddInt64(&c.generations, 1)
}

// GenerationHit records a procedural request served from cache.
func (c *Collector) GenerationHit() {
	atomic.AddInt64(&c.generationHits, 1)
}

// Optimization records a texture optimization pass.
func (c *Collector) Optimization() {
	atomic.AddInt64(&c.optimizations, 1)
}

// PreloadBatch records a preload of n keys.
func (c *Collector) PreloadBatch(n int) {
	atomic.AddInt64(&c.preloadBatches, 1)
	atomic.AddInt64(&c.preloadKeys, int64(n))
}

// ObserveLoad records the wall time of one completed load attempt.
// Failed loads are excluded so timeouts do not drag the percentiles.
func (c *Collector) ObserveLoad(seconds float64) {
	c.mu.Lock()
	c.samples[c.next] = seconds
	c.next = (c.next + 1) % loadSampleWindow
	if c.filled < loadSampleWindow {
		c.filled++
	}
	c.mu.Unlock()
}

// CapacityEvictions returns entries evicted to make room.
func (c *Collector) CapacityEvictions() int64 {
	return atomic.LoadInt64(&c.capacityEvictions)
}

// TTLEvictions returns entries expired by the sweep path.
func (c *Collector) TTLEvictions() int64 {
	return atomic.LoadInt64(&c.ttlEvictions)
}

// ResizeEvictions returns entries evicted by a capacity reduction.
func (c *Collector) ResizeEvictions() int64 {
	return atomic.LoadInt64(&c.resizeEvictions)
}

// Generations returns procedural textures generated from scratch.
func (c *Collector) Generations() int64 {
	return atomic.LoadInt64(&c.generations)
}

// GenerationHits returns procedural requests served from cache.
func (c *Collector) GenerationHits() int64 {
	return atomic.LoadInt64(&c.generationHits)
}

// Optimizations returns completed texture optimization passes.
func (c *Collector) Optimizations() int64 {
	return atomic.LoadInt64(&c.optimizations)
}

// PreloadBatches returns completed preload calls.
func (c *Collector) PreloadBatches() int64 {
	return atomic.LoadInt64(&c.preloadBatches)
}

// PreloadedKeys returns keys requested across all preload calls.
func (c *Collector) PreloadedKeys() int64 {
	return atomic.LoadInt64(&c.preloadKeys)
}

// LoadLatency returns the average and 95th percentile load time in
// milliseconds over the sample window. Both are zero until the first
// load completes.
func (c *Collector) LoadLatency() (avgMillis, p95Millis float64) {
	c.mu.Lock()
	n := c.filled
	window := make([]float64, n)
	copy(window, c.samples[:n])
	c.mu.Unlock()

	if n == 0 {
		return 0, 0
	}

	var sum float64
	for _, s := range window {
		sum += s
	}
	sort.Float64s(window)

	// Nearest-rank percentile over the window.
	rank := int(float64(n)*0.95+0.5) - 1
	if rank < 0 {
		rank = 0
	}
	if rank >= n {
		rank = n - 1
	}

	return sum / float64(n) * 1000, window[rank] * 1000
}

// EvictionStats breaks evictions down by reason.
type EvictionStats struct {
	Capacity int64 `json:"capacity"`
	TTL      int64 `json:"ttl"`
	Resize   int64 `json:"resize"`
}

// QueueDepthStats breaks queued loads down by priority class.
type QueueDepthStats struct {
	High   int `json:"high"`
	Normal int `json:"normal"`
	Low    int `json:"low"`
}

// Metrics is a point-in-time performance snapshot merging cache,
// scheduler and facade counters. Returned by GetPerformanceMetrics.
type Metrics struct {
	Hits          int64           `json:"hits"`
	Misses        int64           `json:"misses"`
	HitRatio      float64         `json:"hit_ratio"`
	Loads         int64           `json:"loads"`
	LoadFailures  int64           `json:"load_failures"`
	Retries       int64           `json:"retries"`
	Coalesced     int64           `json:"coalesced"`
	Uncached      int64           `json:"uncached"`
	Evictions     EvictionStats   `json:"evictions"`
	Expired       int64           `json:"expired"`
	BytesInCache  int64           `json:"bytes_in_cache"`
	CapacityBytes int64           `json:"capacity_bytes"`
	EntryCount    int64           `json:"entry_count"`
	AvgLoadMillis float64         `json:"avg_load_ms"`
	P95LoadMillis float64         `json:"p95_load_ms"`
	Inflight      int64           `json:"inflight"`
	QueueDepth    QueueDepthStats `json:"queue_depth"`
	Generations   int64           `json:"procedural_generations"`
	Optimizations int64           `json:"texture_optimizations"`
	Uptime        time.Duration   `json:"uptime"`
}

// Reset resets all facade statistics to zero.
func (c *Collector) Reset() {
	atomic.StoreInt64(&c.capacityEvictions, 0)
	atomic.StoreInt64(&c.ttlEvictions, 0)
	atomic.StoreInt64(&c.resizeEvictions, 0)
	atomic.StoreInt64(&c.generations, 0)
	atomic.StoreInt64(&c.generationHits, 0)
	atomic.StoreInt64(&c.optimizations, 0)
	atomic.StoreInt64(&c.preloadBatches, 0)
	atomic.StoreInt64(&c.preloadKeys, 0)

	c.mu.Lock()
	c.filled = 0
	c.next = 0
	c.mu.Unlock()
}
