package resource

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/atlas3d/assetstream/asset"
	"github.com/atlas3d/assetstream/config"
	"github.com/atlas3d/assetstream/errors"
	"github.com/atlas3d/assetstream/events"
	"github.com/atlas3d/assetstream/loader"
	"github.com/atlas3d/assetstream/metric"
	"github.com/atlas3d/assetstream/procedural"
	"github.com/atlas3d/assetstream/scheduler"
	"github.com/atlas3d/assetstream/store"
)

// componentName labels facade activity in core metrics.
const componentName = "resource"

// compressionLevel is the zstd level used when enable_compression is
// set. Level 3 is the codec's balanced default.
const compressionLevel = 3

// minSweepInterval bounds how often the background sweeper runs even
// for very short cache expiries.
const minSweepInterval = 10 * time.Second

// Manager is the facade over the whole pipeline: an LRU cache, an
// asynchronous load scheduler, procedural synthesis and the event bus,
// wired together from one configuration. All methods are safe for
// concurrent use.
type Manager struct {
	cfg    *config.SafeConfig
	cache  *store.Store
	sched  *scheduler.Scheduler
	bus    *events.Bus
	ownBus bool

	stats   *Collector
	clock   store.Clock
	logger  *slog.Logger
	core    *metric.Metrics
	limiter *rate.Limiter
	start   time.Time

	updateMu sync.Mutex

	sweepMu       sync.Mutex
	sweepInterval time.Duration
	sweepReset    chan struct{}

	closeOnce sync.Once
	shutdown  chan struct{}
	done      chan struct{}
}

// New creates a Manager from cfg, loading cache misses through ldr.
// The configuration is cloned and validated; the manager keeps its own
// copy, so later mutations of cfg have no effect. Close releases the
// manager's goroutines and owned components.
func New(cfg *config.Config, ldr loader.Loader, options ...Option) (*Manager, error) {
	if cfg == nil {
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: nil config", errors.ErrInvalidConfig),
			"ResourceManager", "New", "validate configuration")
	}
	if ldr == nil {
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: nil loader", errors.ErrInvalidConfig),
			"ResourceManager", "New", "validate configuration")
	}

	cfg = cfg.Clone()
	if err := cfg.Validate(); err != nil {
		return nil, errors.WrapInvalid(err, "ResourceManager", "New", "validate configuration")
	}

	opts := applyOptions(options...)

	m := &Manager{
		cfg:           config.NewSafeConfig(cfg),
		stats:         NewCollector(),
		clock:         opts.clock,
		logger:        opts.logger,
		limiter:       newDispatchLimiter(cfg.LoadRateLimit),
		start:         time.Now(),
		sweepInterval: sweepIntervalFor(cfg.CacheExpiry),
		sweepReset:    make(chan struct{}, 1),
		shutdown:      make(chan struct{}),
		done:          make(chan struct{}),
	}

	m.bus = opts.bus
	if m.bus == nil {
		busOpts := []events.Option{
			events.WithOverflowPolicy(events.ParsePolicy(cfg.EventBuffer.Policy)),
		}
		if opts.metricsReg != nil {
			busOpts = append(busOpts, events.WithMetrics(opts.metricsReg, "events"))
		}
		bus, err := events.NewBus(cfg.EventBuffer.Capacity, busOpts...)
		if err != nil {
			return nil, err
		}
		m.bus = bus
		m.ownBus = true
	}

	storeOpts := []store.Option{
		store.WithClock(opts.clock),
		store.WithEvictCallback(m.onEvict),
	}
	if cfg.EnableCompression {
		storeOpts = append(storeOpts, store.WithCompression(compressionLevel))
	}
	if opts.metricsReg != nil {
		storeOpts = append(storeOpts, store.WithMetrics(opts.metricsReg, "cache"))
	}
	cache, err := store.New(cfg.MaxCacheSize, storeOpts...)
	if err != nil {
		m.closePartial()
		return nil, err
	}
	m.cache = cache

	schedOpts := []scheduler.Option{
		scheduler.WithLogger(opts.logger),
		scheduler.WithEventBus(m.bus),
		scheduler.WithRateLimit(m.limiter),
		scheduler.WithLoadObserver(m.observeLoad),
	}
	if opts.metricsReg != nil {
		schedOpts = append(schedOpts, scheduler.WithMetrics(opts.metricsReg, "scheduler"))
	}
	sched, err := scheduler.New(ldr, cache, scheduler.Config{
		MaxConcurrent: cfg.MaxConcurrentLoads,
		LoadTimeout:   cfg.LoadTimeout,
		Retry:         cfg.RetryPolicy(),
	}, schedOpts...)
	if err != nil {
		m.closePartial()
		return nil, err
	}
	m.sched = sched

	if opts.metricsReg != nil {
		m.core = opts.metricsReg.CoreMetrics()
		m.core.RecordComponentStatus(componentName, metric.StatusRunning)
		m.core.RecordHealthStatus(componentName, true)
	}

	go m.sweepLoop()

	m.logger.Info("Resource manager started",
		"max_cache_size", cfg.MaxCacheSize,
		"max_concurrent_loads", cfg.MaxConcurrentLoads,
		"cache_expiry", cfg.CacheExpiry,
		"compression", cfg.EnableCompression)
	return m, nil
}

// closePartial releases components created before a constructor failure.
func (m *Manager) closePartial() {
	if m.cache != nil {
		_ = m.cache.Close()
	}
	if m.ownBus && m.bus != nil {
		_ = m.bus.Close()
	}
}

// GetResource returns the asset stored under key, loading it at normal
// priority on a cache miss. The call blocks until the asset is ready,
// the load fails terminally, or ctx is done. Concurrent calls for the
// same missing key share one load.
func (m *Manager) GetResource(ctx context.Context, key string) (*asset.Asset, error) {
	start := m.beginRequest("get")
	reqID := uuid.NewString()

	if a, ok := m.cache.Get(key); ok {
		m.publish(events.Event{Type: events.TypeCacheHit, Key: key, RequestID: reqID, SizeBytes: a.SizeBytes})
		m.endRequest("get", "hit", start, nil)
		return a, nil
	}
	m.publish(events.Event{Type: events.TypeCacheMiss, Key: key, RequestID: reqID})
	m.logger.Debug("Cache miss", "key", key, "request_id", reqID)

	a, err := m.sched.Load(ctx, key, scheduler.PriorityNormal).Wait(ctx)
	if err != nil {
		m.endRequest("get", "error", start, err)
		return nil, err
	}
	m.endRequest("get", "loaded", start, nil)
	return a, nil
}

// GetResourceAsync returns a Future for the asset under key without
// blocking. Cache hits resolve immediately; misses schedule a load at
// the given priority.
func (m *Manager) GetResourceAsync(ctx context.Context, key string, pri scheduler.Priority) *scheduler.Future {
	start := m.beginRequest("get_async")
	reqID := uuid.NewString()

	if a, ok := m.cache.Get(key); ok {
		m.publish(events.Event{Type: events.TypeCacheHit, Key: key, RequestID: reqID, SizeBytes: a.SizeBytes})
		m.endRequest("get_async", "hit", start, nil)
		return scheduler.CompletedFuture(a, nil)
	}
	m.publish(events.Event{Type: events.TypeCacheMiss, Key: key, RequestID: reqID})
	m.endRequest("get_async", "scheduled", start, nil)
	return m.sched.Load(ctx, key, pri)
}

// BatchResult reports the outcome of one preload batch. Keys already
// cached count separately from keys loaded; Errors maps each failed
// key to its terminal error and Elapsed is the batch wall time.
type BatchResult struct {
	Requested int
	Loaded    int
	Cached    int
	Errors    map[string]error
	Elapsed   time.Duration
}

// Failed returns the number of keys that could not be loaded.
func (r BatchResult) Failed() int {
	return len(r.Errors)
}

// preloadSettings are the per-call knobs of one preload batch.
type preloadSettings struct {
	priority   scheduler.Priority
	concurrent int
	timeout    time.Duration
	retries    int
}

// PreloadOption adjusts a single PreloadResources call.
type PreloadOption func(*preloadSettings)

// PreloadPriority schedules the batch at pri instead of low priority.
func PreloadPriority(pri scheduler.Priority) PreloadOption {
	return func(ps *preloadSettings) { ps.priority = pri }
}

// PreloadConcurrency caps how many of the batch's keys fetch in
// parallel. The default is the configured max_concurrent_loads.
func PreloadConcurrency(n int) PreloadOption {
	return func(ps *preloadSettings) { ps.concurrent = n }
}

// PreloadDeadline bounds the whole batch instead of the configured
// preload_timeout.
func PreloadDeadline(d time.Duration) PreloadOption {
	return func(ps *preloadSettings) { ps.timeout = d }
}

// PreloadRetries sets how often each key is retried after a failed
// attempt, overriding the configured retry policy.
func PreloadRetries(n int) PreloadOption {
	return func(ps *preloadSettings) { ps.retries = n }
}

// PreloadResources warms the cache with keys so later GetResource calls
// hit. Batches run at low priority with the configured preload timeout
// and concurrency unless options say otherwise. One failed key does not
// abort the rest: per-key failures land in the result, while the
// returned error is reserved for the batch itself timing out or being
// canceled.
func (m *Manager) PreloadResources(ctx context.Context, keys []string, opts ...PreloadOption) (BatchResult, error) {
	start := m.beginRequest("preload")
	result := BatchResult{Requested: len(keys), Errors: make(map[string]error)}
	if len(keys) == 0 {
		result.Elapsed = time.Since(start)
		m.endRequest("preload", "empty", start, nil)
		return result, nil
	}

	cfg := m.cfg.Get()
	ps := preloadSettings{
		priority:   scheduler.PriorityLow,
		concurrent: cfg.MaxConcurrentLoads,
		timeout:    cfg.PreloadTimeout,
		retries:    -1,
	}
	for _, apply := range opts {
		apply(&ps)
	}
	if ps.concurrent <= 0 {
		ps.concurrent = cfg.MaxConcurrentLoads
	}
	if ps.timeout <= 0 {
		ps.timeout = cfg.PreloadTimeout
	}
	var ro scheduler.RequestOptions
	if ps.retries >= 0 {
		ro.Attempts = ps.retries + 1
	}

	ctx, cancel := context.WithTimeout(ctx, ps.timeout)
	defer cancel()

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ps.concurrent)
	for _, key := range keys {
		g.Go(func() error {
			if m.cache.Contains(key) {
				mu.Lock()
				result.Cached++
				mu.Unlock()
				return nil
			}
			if _, err := m.sched.LoadWith(gctx, key, ps.priority, ro).Wait(gctx); err != nil {
				mu.Lock()
				result.Errors[key] = err
				mu.Unlock()
				return nil
			}
			mu.Lock()
			result.Loaded++
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait() // workers never fail the group; outcomes land in result
	result.Elapsed = time.Since(start)

	m.stats.PreloadBatch(len(keys))
	m.logger.Info("Preload finished",
		"requested", result.Requested,
		"loaded", result.Loaded,
		"cached", result.Cached,
		"failed", len(result.Errors),
		"elapsed", result.Elapsed)

	if err := ctx.Err(); err != nil && len(result.Errors) > 0 {
		werr := errors.WrapTransient(
			fmt.Errorf("%w: %v", errors.ErrLoadTimeout, err),
			"ResourceManager", "PreloadResources", "preload batch")
		m.endRequest("preload", "timeout", start, werr)
		return result, werr
	}

	status := "ok"
	if len(result.Errors) > 0 {
		status = "partial"
	}
	m.endRequest("preload", status, start, nil)
	return result, nil
}

// CreateProceduralTexture returns the texture described by p, serving
// repeated requests for identical parameters from cache. Synthesis
// runs inline on the calling goroutine; admission failures degrade to
// returning the texture uncached.
func (m *Manager) CreateProceduralTexture(ctx context.Context, p procedural.Params) (*asset.Asset, error) {
	start := m.beginRequest("procedural")

	if err := p.Validate(); err != nil {
		m.endRequest("procedural", "invalid", start, err)
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		werr := errors.WrapTransient(
			fmt.Errorf("%w: %v", errors.ErrLoadCanceled, err),
			"ResourceManager", "CreateProceduralTexture", "generate texture")
		m.endRequest("procedural", "canceled", start, werr)
		return nil, werr
	}

	key := procedural.CacheKey(p)
	if a, ok := m.cache.Get(key); ok {
		m.stats.GenerationHit()
		m.publish(events.Event{Type: events.TypeCacheHit, Key: key, SizeBytes: a.SizeBytes})
		m.endRequest("procedural", "hit", start, nil)
		return a, nil
	}

	genStart := time.Now()
	tex, err := procedural.Generate(p)
	if err != nil {
		m.endRequest("procedural", "error", start, err)
		return nil, err
	}
	elapsed := time.Since(genStart)
	m.stats.Generation()
	if m.core != nil {
		m.core.RecordGenerationDuration(elapsed)
	}

	// Sampling state follows the configured quality. Mip chains stay an
	// OptimizeTexture concern.
	sampling := asset.OptionsForQuality(m.cfg.Get().TextureQuality)
	tex.Filtering = sampling.Filtering
	tex.Wrap = sampling.Wrap

	a := asset.NewTexture(key, tex, asset.SourceProcedural)
	uncached := false
	if err := m.cache.Put(key, a); err != nil {
		uncached = true
		m.logger.Warn("Serving procedural texture uncached",
			"key", key, "size", a.SizeBytes, "error", err)
	}
	m.publish(events.Event{Type: events.TypeLoaded, Key: key, SizeBytes: a.SizeBytes, Uncached: uncached})

	m.logger.Debug("Generated procedural texture",
		"key", key,
		"kind", string(p.Kind),
		"width", p.Width,
		"height", p.Height,
		"size", a.SizeBytes,
		"duration", elapsed)
	m.endRequest("procedural", "generated", start, nil)
	return a, nil
}

// optimizeSettings are the per-call knobs of one optimization pass.
type optimizeSettings struct {
	usage   asset.Usage
	quality asset.Quality
	mipmaps *bool
}

// OptimizeOption adjusts a single OptimizeTexture call.
type OptimizeOption func(*optimizeSettings)

// OptimizeUsage optimizes for a rendering role instead of general use.
func OptimizeUsage(u asset.Usage) OptimizeOption {
	return func(o *optimizeSettings) { o.usage = u }
}

// OptimizeQuality overrides the configured texture_quality for one
// call.
func OptimizeQuality(q asset.Quality) OptimizeOption {
	return func(o *optimizeSettings) { o.quality = q }
}

// OptimizeMipmaps forces mipmap generation on or off after the usage
// and quality presets have been applied.
func OptimizeMipmaps(enable bool) OptimizeOption {
	return func(o *optimizeSettings) { o.mipmaps = &enable }
}

// OptimizeTexture re-encodes the texture under key and replaces the
// cached entry in place. The transform derives from the configured
// texture_quality refined for general usage; options select another
// quality, usage or mipmap choice per call. Keys not in cache are
// loaded first at normal priority. Assets that are not textures fail
// with a wrong-kind error and the cached entry is left untouched.
func (m *Manager) OptimizeTexture(ctx context.Context, key string, opts ...OptimizeOption) (*asset.Asset, error) {
	start := m.beginRequest("optimize")

	o := optimizeSettings{usage: asset.UsageGeneral, quality: m.cfg.Get().TextureQuality}
	for _, apply := range opts {
		apply(&o)
	}
	if !o.usage.Valid() {
		werr := errors.WrapInvalid(
			fmt.Errorf("%w: usage %q", errors.ErrInvalidParams, o.usage),
			"ResourceManager", "OptimizeTexture", "validate options")
		m.endRequest("optimize", "invalid", start, werr)
		return nil, werr
	}
	if !o.quality.Valid() {
		werr := errors.WrapInvalid(
			fmt.Errorf("%w: quality %q", errors.ErrInvalidParams, o.quality),
			"ResourceManager", "OptimizeTexture", "validate options")
		m.endRequest("optimize", "invalid", start, werr)
		return nil, werr
	}
	txOpts := asset.OptionsForUsage(o.usage, o.quality)
	if o.mipmaps != nil {
		txOpts.GenerateMipmaps = *o.mipmaps
	}

	a, err := m.fetch(ctx, key)
	if err != nil {
		m.endRequest("optimize", "error", start, err)
		return nil, err
	}
	if a.Kind != asset.KindTexture || a.Texture == nil {
		werr := errors.WrapInvalid(
			fmt.Errorf("%w: %s is %s", errors.ErrWrongKind, key, a.Kind),
			"ResourceManager", "OptimizeTexture", "check asset kind")
		m.endRequest("optimize", "invalid", start, werr)
		return nil, werr
	}

	tex, err := asset.Optimize(a.Texture, txOpts)
	if err != nil {
		m.endRequest("optimize", "error", start, err)
		return nil, err
	}

	optimized := asset.NewTexture(key, tex, a.Source)
	if err := m.cache.Put(key, optimized); err != nil {
		m.logger.Warn("Serving optimized texture uncached",
			"key", key, "size", optimized.SizeBytes, "error", err)
	}
	m.stats.Optimization()
	m.logger.Debug("Optimized texture",
		"key", key,
		"usage", string(o.usage),
		"quality", string(o.quality),
		"before", a.SizeBytes,
		"after", optimized.SizeBytes)
	m.endRequest("optimize", "ok", start, nil)
	return optimized, nil
}

// CleanExpiredCache removes entries idle longer than ttl and returns
// how many were removed. A non-positive ttl falls back to the
// configured cache expiry. The background sweeper calls this on its
// own schedule; manual calls are safe at any time.
func (m *Manager) CleanExpiredCache(ttl time.Duration) int {
	if ttl <= 0 {
		ttl = m.cfg.Get().CacheExpiry
	}
	victims := m.cache.SweepExpired(ttl)
	if m.core != nil {
		m.core.RecordSweepRun()
		m.core.RecordHitRatio(m.cache.Stats().HitRatio())
	}
	return len(victims)
}

// GetPerformanceMetrics returns a point-in-time snapshot merging
// cache, scheduler and facade counters.
func (m *Manager) GetPerformanceMetrics() Metrics {
	cacheStats := m.cache.Stats()
	schedStats := m.sched.Stats()
	depths := m.sched.QueueDepths()
	avg, p95 := m.stats.LoadLatency()

	return Metrics{
		Hits:         cacheStats.Hits(),
		Misses:       cacheStats.Misses(),
		HitRatio:     cacheStats.HitRatio(),
		Loads:        schedStats.CompletedTotal(),
		LoadFailures: schedStats.FailedTotal(),
		Retries:      schedStats.RetriesTotal(),
		Coalesced:    schedStats.CoalescedTotal(),
		Uncached:     schedStats.UncachedTotal(),
		Evictions: EvictionStats{
			Capacity: m.stats.CapacityEvictions(),
			TTL:      m.stats.TTLEvictions(),
			Resize:   m.stats.ResizeEvictions(),
		},
		Expired:       cacheStats.Expirations(),
		BytesInCache:  cacheStats.UsedBytes(),
		CapacityBytes: m.cache.Capacity(),
		EntryCount:    cacheStats.EntryCount(),
		AvgLoadMillis: avg,
		P95LoadMillis: p95,
		Inflight:      schedStats.Inflight(),
		QueueDepth: QueueDepthStats{
			High:   depths[scheduler.PriorityHigh],
			Normal: depths[scheduler.PriorityNormal],
			Low:    depths[scheduler.PriorityLow],
		},
		Generations:   m.stats.Generations(),
		Optimizations: m.stats.Optimizations(),
		Uptime:        time.Since(m.start),
	}
}

// UpdateConfig applies mutate to a copy of the running configuration,
// validates the result and applies it. Cache capacity, scheduler
// slots, texture quality, the sweep interval and the dispatch rate
// limit adjust live. Compression cannot change once entries exist and
// is rejected. A rejected mutation leaves the running config
// untouched.
func (m *Manager) UpdateConfig(ctx context.Context, mutate func(*config.Config)) error {
	if mutate == nil {
		return errors.WrapInvalid(
			fmt.Errorf("%w: nil mutation", errors.ErrInvalidConfig),
			"ResourceManager", "UpdateConfig", "validate mutation")
	}
	if err := ctx.Err(); err != nil {
		return errors.WrapTransient(err, "ResourceManager", "UpdateConfig", "apply configuration")
	}

	m.updateMu.Lock()
	defer m.updateMu.Unlock()

	current := m.cfg.Get()
	next := current.Clone()
	mutate(next)

	if err := next.Validate(); err != nil {
		return errors.WrapInvalid(err, "ResourceManager", "UpdateConfig", "validate configuration")
	}
	if next.EnableCompression != current.EnableCompression {
		return errors.WrapInvalid(
			fmt.Errorf("%w: enable_compression cannot change at runtime", errors.ErrInvalidConfig),
			"ResourceManager", "UpdateConfig", "validate configuration")
	}

	// Validation is done; the only way an apply step fails now is a
	// concurrent shutdown.
	if next.MaxCacheSize != current.MaxCacheSize {
		if _, err := m.cache.Resize(next.MaxCacheSize); err != nil {
			return err
		}
	}
	if next.MaxConcurrentLoads != current.MaxConcurrentLoads {
		if err := m.sched.Resize(next.MaxConcurrentLoads); err != nil {
			return err
		}
	}
	if next.CacheExpiry != current.CacheExpiry {
		m.setSweepInterval(sweepIntervalFor(next.CacheExpiry))
	}
	if next.LoadRateLimit != current.LoadRateLimit {
		m.limiter.SetLimit(dispatchLimit(next.LoadRateLimit))
		m.limiter.SetBurst(dispatchBurst(next.LoadRateLimit))
	}

	if err := m.cfg.Update(next); err != nil {
		return err
	}

	m.publish(events.Event{Type: events.TypeConfigUpdated})
	m.logger.Info("Configuration updated",
		"max_cache_size", next.MaxCacheSize,
		"texture_quality", string(next.TextureQuality),
		"max_concurrent_loads", next.MaxConcurrentLoads,
		"cache_expiry", next.CacheExpiry,
		"load_rate_limit", next.LoadRateLimit)
	return nil
}

// Events returns the bus carrying cache and load notifications. See
// the events package for subscription and overflow semantics.
func (m *Manager) Events() *events.Bus {
	return m.bus
}

// Config returns a copy of the current configuration.
func (m *Manager) Config() *config.Config {
	return m.cfg.Get()
}

// Close stops the sweeper, scheduler, cache and owned event bus. Safe
// to call more than once; later calls return nil.
func (m *Manager) Close() error {
	var firstErr error
	m.closeOnce.Do(func() {
		close(m.shutdown)
		<-m.done

		if err := m.sched.Close(); err != nil {
			firstErr = err
		}
		if err := m.cache.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		if m.ownBus {
			if err := m.bus.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}

		if m.core != nil {
			m.core.RecordComponentStatus(componentName, metric.StatusStopped)
			m.core.RecordHealthStatus(componentName, false)
		}
		m.logger.Info("Resource manager stopped")
	})
	return firstErr
}

// fetch returns the cached asset under key or waits for a load.
func (m *Manager) fetch(ctx context.Context, key string) (*asset.Asset, error) {
	if a, ok := m.cache.Get(key); ok {
		return a, nil
	}
	return m.sched.Load(ctx, key, scheduler.PriorityNormal).Wait(ctx)
}

// publish stamps one event with the manager's clock and emits it.
func (m *Manager) publish(evt events.Event) {
	evt.At = m.clock.Now()
	m.bus.Publish(evt)
}

// onEvict fans one eviction out to facade stats and the event bus.
// Runs outside the store lock, so publishing may re-enter the store.
func (m *Manager) onEvict(v store.Victim) {
	m.stats.Eviction(v.Reason)

	evtType := events.TypeEvicted
	if v.Reason == store.ReasonTTL {
		evtType = events.TypeExpired
	}
	m.publish(events.Event{
		Type:      evtType,
		Key:       v.Key,
		SizeBytes: v.Size,
		Reason:    v.Reason.String(),
	})
}

// observeLoad feeds the latency ring from scheduler flight outcomes.
// Failed flights are excluded so timeouts do not skew the percentiles.
func (m *Manager) observeLoad(_ string, seconds float64, err error) {
	if err == nil {
		m.stats.ObserveLoad(seconds)
	}
}

// beginRequest counts one facade request when metrics are enabled and
// returns its start time.
func (m *Manager) beginRequest(kind string) time.Time {
	if m.core != nil {
		m.core.RecordRequestReceived(componentName, kind)
	}
	return time.Now()
}

// endRequest records the outcome, duration and refreshed hit ratio of
// one facade request.
func (m *Manager) endRequest(kind, status string, start time.Time, err error) {
	if m.core == nil {
		return
	}
	m.core.RecordRequestCompleted(componentName, kind, status)
	m.core.RecordOperationDuration(componentName, kind, time.Since(start))
	if err != nil {
		m.core.RecordError(componentName, errors.Classify(err).String())
	}
	m.core.RecordHitRatio(m.cache.Stats().HitRatio())
}

// sweepLoop expires entries in the background until shutdown. The
// period follows cache_expiry; UpdateConfig wakes the loop when the
// interval changes.
func (m *Manager) sweepLoop() {
	defer close(m.done)

	for {
		m.sweepMu.Lock()
		interval := m.sweepInterval
		m.sweepMu.Unlock()

		timer := time.NewTimer(interval)
		select {
		case <-m.shutdown:
			timer.Stop()
			return
		case <-m.sweepReset:
			timer.Stop()
		case <-timer.C:
			if n := m.CleanExpiredCache(0); n > 0 {
				m.logger.Debug("Swept expired entries", "count", n)
			}
		}
	}
}

// setSweepInterval wakes the sweeper with a new period.
func (m *Manager) setSweepInterval(interval time.Duration) {
	m.sweepMu.Lock()
	m.sweepInterval = interval
	m.sweepMu.Unlock()

	select {
	case m.sweepReset <- struct{}{}:
	default:
	}
}

// sweepIntervalFor derives the sweeper period from the TTL: half the
// expiry, but never more often than minSweepInterval.
func sweepIntervalFor(ttl time.Duration) time.Duration {
	interval := ttl / 2
	if interval < minSweepInterval {
		interval = minSweepInterval
	}
	return interval
}

// dispatchLimit maps the loads-per-second config value to a limiter
// rate. Zero or negative means unlimited.
func dispatchLimit(perSecond float64) rate.Limit {
	if perSecond <= 0 {
		return rate.Inf
	}
	return rate.Limit(perSecond)
}

// dispatchBurst sizes the limiter burst for a configured rate.
func dispatchBurst(perSecond float64) int {
	burst := int(perSecond)
	if burst < 1 {
		burst = 1
	}
	return burst
}

// newDispatchLimiter builds the dispatch limiter. The limiter is
// always attached, at rate.Inf when unlimited, so UpdateConfig can
// retune it in place while the scheduler holds the same pointer.
func newDispatchLimiter(perSecond float64) *rate.Limiter {
	return rate.NewLimiter(dispatchLimit(perSecond), dispatchBurst(perSecond))
}
