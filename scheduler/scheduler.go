package scheduler

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/atlas3d/assetstream/asset"
	"github.com/atlas3d/assetstream/errors"
	"github.com/atlas3d/assetstream/events"
	"github.com/atlas3d/assetstream/pkg/retry"
	"github.com/atlas3d/assetstream/store"
)

// Loader fetches one asset by key. Implementations must honor ctx
// cancellation and classify failures: NotFound and Invalid errors are
// terminal, everything else is treated as transient and retried.
type Loader interface {
	Load(ctx context.Context, key string) (*asset.Asset, error)
}

// Config holds scheduler tuning parameters.
type Config struct {
	// MaxConcurrent caps how many loads run at once.
	MaxConcurrent int

	// LoadTimeout bounds each individual load attempt.
	LoadTimeout time.Duration

	// Retry controls attempts and backoff between failed attempts.
	Retry retry.Config
}

// DefaultConfig returns scheduler settings suitable for interactive
// rendering: a handful of parallel loads, short attempt timeouts, and
// linear backoff that gives a struggling source room to recover.
func DefaultConfig() Config {
	return Config{
		MaxConcurrent: 6,
		LoadTimeout:   5 * time.Second,
		Retry:         retry.Linear(4, time.Second),
	}
}

// flight is one coalesced load: the first request plus every waiter that
// joined while it was queued or running. A priority upgrade re-queues
// the same flight under the higher priority and leaves a stale entry
// behind in the lower queue; the dispatched flag makes the stale entry
// a no-op when popped. Load policy resolves when the flight is created
// and coalescing requests inherit it.
type flight struct {
	key        string
	priority   Priority
	enqueuedAt time.Time
	waiters    []*Future
	dispatched bool

	timeout time.Duration
	retry   retry.Config
}

// Scheduler runs asset loads asynchronously with bounded concurrency.
// Requests for the same key coalesce into a single flight, queued
// flights dispatch in priority order, and failed attempts retry with
// backoff before the flight resolves. Loads run under the scheduler's
// own lifetime, not the requester's context: a waiter that gives up
// abandons its Future while the flight finishes for everyone else.
type Scheduler struct {
	loader Loader
	cache  *store.Store
	cfg    Config
	opts   *schedOptions

	mu       sync.Mutex
	inflight map[string]*flight
	queues   [numPriorities][]*flight
	queued   int
	running  int
	sem      *semaphore.Weighted
	closed   bool

	// pending wakes the dispatcher when work arrives; slotFreed wakes it
	// when a load slot opens or the slot count changes. Both carry at
	// most one token since the dispatcher re-checks state on every wake.
	pending   chan struct{}
	slotFreed chan struct{}

	stats   *Statistics
	metrics *schedMetrics

	baseCtx  context.Context
	cancel   context.CancelFunc
	shutdown chan struct{}
	done     chan struct{}
	wg       sync.WaitGroup
}

// New creates a Scheduler loading through loader and admitting results
// into cache. A nil cache disables admission; loaded assets still reach
// their waiters.
func New(loader Loader, cache *store.Store, cfg Config, options ...Option) (*Scheduler, error) {
	if loader == nil {
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: nil loader", errors.ErrInvalidConfig),
			"Scheduler", "New", "validate configuration")
	}
	if cfg.MaxConcurrent <= 0 {
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: max concurrent loads %d, must be positive", errors.ErrInvalidConfig, cfg.MaxConcurrent),
			"Scheduler", "New", "validate configuration")
	}
	if cfg.LoadTimeout <= 0 {
		cfg.LoadTimeout = DefaultConfig().LoadTimeout
	}
	if cfg.Retry.MaxAttempts <= 0 {
		cfg.Retry = DefaultConfig().Retry
	}

	opts := applyOptions(options...)
	baseCtx, cancel := context.WithCancel(context.Background())

	s := &Scheduler{
		loader:    loader,
		cache:     cache,
		cfg:       cfg,
		opts:      opts,
		inflight:  make(map[string]*flight),
		sem:       semaphore.NewWeighted(int64(cfg.MaxConcurrent)),
		pending:   make(chan struct{}, 1),
		slotFreed: make(chan struct{}, 1),
		stats:     NewStatistics(),
		baseCtx:   baseCtx,
		cancel:    cancel,
		shutdown:  make(chan struct{}),
		done:      make(chan struct{}),
	}

	if opts.metricsReg != nil {
		m, err := newSchedMetrics(opts.metricsReg, opts.metricsPrefix)
		if err != nil {
			cancel()
			return nil, errors.WrapTransient(err, "Scheduler", "New", "register metrics")
		}
		s.metrics = m
		m.updateSlots(int64(cfg.MaxConcurrent))
	}

	go s.dispatch()

	return s, nil
}

// RequestOptions override the load policy for one flight. Zero fields
// keep the scheduler configuration. Options bind to the flight that a
// request creates; requests coalescing onto an existing flight keep the
// policy it started with.
type RequestOptions struct {
	// Timeout bounds each load attempt for this flight.
	Timeout time.Duration

	// Attempts caps how often the flight calls the loader, the first
	// call included.
	Attempts int
}

// Load schedules an asynchronous load for key and returns a Future. If
// the key is already in flight the request coalesces onto the existing
// flight, and a higher priority upgrades its queue position. The ctx
// gates only this call; the load itself runs under the scheduler's
// lifetime so one impatient waiter cannot abort work others depend on.
func (s *Scheduler) Load(ctx context.Context, key string, pri Priority) *Future {
	return s.LoadWith(ctx, key, pri, RequestOptions{})
}

// LoadWith schedules a load like Load with per-flight policy overrides.
func (s *Scheduler) LoadWith(ctx context.Context, key string, pri Priority, ro RequestOptions) *Future {
	if key == "" {
		return resolvedFuture(nil, errors.WrapInvalid(
			fmt.Errorf("%w: empty key", errors.ErrInvalidKey),
			"Scheduler", "Load", "validate key"))
	}
	if !pri.valid() {
		pri = PriorityNormal
	}
	if ctx != nil && ctx.Err() != nil {
		return resolvedFuture(nil, errors.WrapTransient(
			fmt.Errorf("%w: %v", errors.ErrLoadCanceled, ctx.Err()),
			"Scheduler", "Load", "schedule load"))
	}

	fut := newFuture()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		fut.resolve(nil, errors.WrapTransient(
			fmt.Errorf("%w: scheduler closed", errors.ErrLoadCanceled),
			"Scheduler", "Load", "schedule load"))
		return fut
	}

	if fl, ok := s.inflight[key]; ok {
		fl.waiters = append(fl.waiters, fut)
		if !fl.dispatched && pri < fl.priority {
			fl.priority = pri
			s.queues[pri] = append(s.queues[pri], fl)
		}
		s.mu.Unlock()

		s.stats.Coalesced()
		if s.metrics != nil {
			s.metrics.recordCoalesced()
		}
		return fut
	}

	if s.opts.queueLimit > 0 && s.queued >= s.opts.queueLimit {
		limit := s.opts.queueLimit
		s.mu.Unlock()
		fut.resolve(nil, errors.WrapCapacity(
			fmt.Errorf("%w: %d flights queued", errors.ErrQueueFull, limit),
			"Scheduler", "Load", "enqueue load"))
		return fut
	}

	fl := &flight{
		key:        key,
		priority:   pri,
		enqueuedAt: time.Now(),
		waiters:    []*Future{fut},
		timeout:    s.cfg.LoadTimeout,
		retry:      s.cfg.Retry,
	}
	if ro.Timeout > 0 {
		fl.timeout = ro.Timeout
	}
	if ro.Attempts > 0 {
		fl.retry.MaxAttempts = ro.Attempts
	}
	s.inflight[key] = fl
	s.queues[pri] = append(s.queues[pri], fl)
	s.queued++
	depth := int64(s.queued)
	priDepth := len(s.queues[pri])
	s.mu.Unlock()

	s.stats.Scheduled()
	s.stats.UpdateQueueDepth(depth)
	if s.metrics != nil {
		s.metrics.recordScheduled(pri)
		s.metrics.updateQueueDepth(pri, priDepth)
	}

	s.signalPending()
	return fut
}

// Resize changes the number of concurrent load slots. Loads already
// running finish under the capacity they acquired; subsequent
// dispatches draw from the new one.
func (s *Scheduler) Resize(n int) error {
	if n <= 0 {
		return errors.WrapInvalid(
			fmt.Errorf("%w: max concurrent loads %d, must be positive", errors.ErrInvalidConfig, n),
			"Scheduler", "Resize", "validate slot count")
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return errors.WrapTransient(errors.ErrShuttingDown, "Scheduler", "Resize", "resize load slots")
	}
	s.cfg.MaxConcurrent = n
	s.sem = semaphore.NewWeighted(int64(n))
	s.mu.Unlock()

	s.signalSlot()

	s.opts.logger.Info("Resized load concurrency", "slots", n)
	if s.metrics != nil {
		s.metrics.updateSlots(int64(n))
	}
	return nil
}

// Stats returns the scheduler's activity counters.
func (s *Scheduler) Stats() *Statistics {
	return s.stats
}

// InflightKeys returns the keys currently queued or loading.
func (s *Scheduler) InflightKeys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := make([]string, 0, len(s.inflight))
	for key := range s.inflight {
		keys = append(keys, key)
	}
	return keys
}

// QueueDepths returns the number of queued flights in each priority
// class. Running flights are not counted.
func (s *Scheduler) QueueDepths() map[Priority]int {
	s.mu.Lock()
	defer s.mu.Unlock()

	depths := make(map[Priority]int, numPriorities)
	for pri := range s.queues {
		depths[Priority(pri)] = len(s.queues[pri])
	}
	return depths
}

// Close stops the scheduler. Queued flights resolve with a canceled
// error, running loads are interrupted, and Close blocks until every
// worker has finished. Safe to call once; later calls are no-ops.
func (s *Scheduler) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true

	var canceled []*flight
	for pri := range s.queues {
		for _, fl := range s.queues[pri] {
			if fl.dispatched {
				continue
			}
			fl.dispatched = true
			delete(s.inflight, fl.key)
			canceled = append(canceled, fl)
		}
		s.queues[pri] = nil
	}
	s.queued = 0
	s.mu.Unlock()

	close(s.shutdown)
	s.cancel()

	for _, fl := range canceled {
		s.resolveCanceled(fl)
	}

	// Workers are only spawned by the dispatcher, so wait for it to exit
	// before waiting on them.
	<-s.done
	s.wg.Wait()

	s.stats.UpdateQueueDepth(0)
	s.opts.logger.Info("Scheduler stopped",
		"completed", s.stats.CompletedTotal(),
		"failed", s.stats.FailedTotal(),
		"canceled", s.stats.CanceledTotal())
	return nil
}

// signalPending wakes the dispatcher for newly queued work.
func (s *Scheduler) signalPending() {
	select {
	case s.pending <- struct{}{}:
	default:
	}
}

// signalSlot wakes the dispatcher when a slot frees or slots change.
func (s *Scheduler) signalSlot() {
	select {
	case s.slotFreed <- struct{}{}:
	default:
	}
}

// dispatch pulls flights off the priority queues and hands each one a
// load slot. Popping happens only after a slot is held so the freshest
// priorities win when a slot opens up.
func (s *Scheduler) dispatch() {
	defer close(s.done)

	for {
		if !s.waitForWork() {
			return
		}

		sem, ok := s.acquireSlot()
		if !ok {
			return
		}

		fl := s.nextFlight()
		if fl == nil {
			// Queue drained between the wake-up and the pop.
			sem.Release(1)
			continue
		}

		if s.opts.limiter != nil {
			if err := s.opts.limiter.Wait(s.baseCtx); err != nil {
				sem.Release(1)
				s.abandonFlight(fl)
				return
			}
		}

		if s.metrics != nil {
			s.metrics.recordQueueWait(time.Since(fl.enqueuedAt))
		}

		s.wg.Add(1)
		go s.runFlight(fl, sem)
	}
}

// waitForWork blocks until at least one flight is queued. Returns false
// on shutdown.
func (s *Scheduler) waitForWork() bool {
	for {
		s.mu.Lock()
		n := s.queued
		s.mu.Unlock()
		if n > 0 {
			return true
		}

		select {
		case <-s.pending:
		case <-s.shutdown:
			return false
		}
	}
}

// acquireSlot obtains one token from the current semaphore. The
// semaphore is re-read on every try so a Resize takes effect without
// waiting out loads admitted under the old capacity.
func (s *Scheduler) acquireSlot() (*semaphore.Weighted, bool) {
	for {
		s.mu.Lock()
		sem := s.sem
		s.mu.Unlock()

		if sem.TryAcquire(1) {
			return sem, true
		}

		select {
		case <-s.slotFreed:
		case <-s.baseCtx.Done():
			return nil, false
		}
	}
}

// nextFlight pops the oldest undispatched flight from the highest
// non-empty priority queue. Stale entries left behind by priority
// upgrades are discarded as they surface.
func (s *Scheduler) nextFlight() *flight {
	s.mu.Lock()
	defer s.mu.Unlock()

	for pri := PriorityHigh; pri < numPriorities; pri++ {
		q := s.queues[pri]
		for len(q) > 0 {
			fl := q[0]
			q = q[1:]
			if fl.dispatched {
				continue
			}
			fl.dispatched = true
			s.queues[pri] = q
			s.queued--

			if s.metrics != nil {
				s.metrics.updateQueueDepth(pri, len(q))
			}
			return fl
		}
		s.queues[pri] = q
	}
	return nil
}

// runFlight performs the load for one flight, admits the result to
// cache, and resolves every waiter. Accounting and events settle before
// waiters unblock so a caller observing the Future sees them complete.
func (s *Scheduler) runFlight(fl *flight, sem *semaphore.Weighted) {
	defer s.wg.Done()

	s.mu.Lock()
	s.running++
	running := int64(s.running)
	s.mu.Unlock()
	s.stats.UpdateInflight(running)
	if s.metrics != nil {
		s.metrics.updateInflight(int(running))
	}

	start := time.Now()
	a, err := s.loadWithRetry(fl)
	elapsed := time.Since(start)

	uncached := false
	if err == nil && s.cache != nil {
		if cacheErr := s.cache.Put(fl.key, a); cacheErr != nil {
			// Admission failure is not a load failure: serve the asset
			// uncached and let the cache recover on its own.
			uncached = true
			s.opts.logger.Warn("Serving asset uncached",
				"key", fl.key,
				"size", a.ComputeSize(),
				"error", cacheErr)
		}
	}

	sem.Release(1)
	s.signalSlot()

	s.mu.Lock()
	delete(s.inflight, fl.key)
	s.running--
	running = int64(s.running)
	waiters := fl.waiters
	s.mu.Unlock()

	s.stats.UpdateInflight(running)
	if err != nil {
		s.stats.Failed()
	} else {
		s.stats.Completed()
		if uncached {
			s.stats.Uncached()
		}
	}

	if s.metrics != nil {
		s.metrics.updateInflight(int(running))
		s.metrics.recordOutcome(elapsed, err)
		if uncached {
			s.metrics.recordUncached()
		}
	}

	if err != nil {
		s.opts.logger.Debug("Load failed",
			"key", fl.key,
			"priority", fl.priority.String(),
			"duration", elapsed,
			"error", err)
	} else {
		s.opts.logger.Debug("Load completed",
			"key", fl.key,
			"priority", fl.priority.String(),
			"duration", elapsed,
			"size", a.ComputeSize(),
			"uncached", uncached)
	}

	s.publishOutcome(fl.key, a, err, uncached)

	if s.opts.observer != nil {
		s.opts.observer(fl.key, elapsed.Seconds(), err)
	}

	for _, w := range waiters {
		w.resolve(a, err)
	}
}

// loadWithRetry runs load attempts under the scheduler's lifetime with
// per-attempt timeouts, retrying transient failures per the flight's
// backoff policy.
func (s *Scheduler) loadWithRetry(fl *flight) (*asset.Asset, error) {
	attempt := 0
	a, err := retry.DoWithResult(s.baseCtx, fl.retry, func() (*asset.Asset, error) {
		attempt++
		if attempt > 1 {
			s.stats.Retry()
			if s.metrics != nil {
				s.metrics.recordRetry()
			}
			s.opts.logger.Debug("Retrying load", "key", fl.key, "attempt", attempt)
		}

		attemptCtx, cancel := context.WithTimeout(s.baseCtx, fl.timeout)
		defer cancel()

		a, err := s.loader.Load(attemptCtx, fl.key)
		if err != nil {
			if stderrors.Is(err, context.DeadlineExceeded) && s.baseCtx.Err() == nil {
				err = errors.WrapTransient(
					fmt.Errorf("%w after %s: %s", errors.ErrLoadTimeout, fl.timeout, fl.key),
					"Scheduler", "Load", "load asset")
			}
			if errors.IsNotFound(err) || errors.IsInvalid(err) {
				return nil, retry.NonRetryable(err)
			}
			return nil, err
		}
		if a == nil {
			return nil, retry.NonRetryable(errors.WrapInvalid(
				fmt.Errorf("loader returned nil asset for %q", fl.key),
				"Scheduler", "Load", "load asset"))
		}
		return a, nil
	})
	if err != nil {
		return nil, s.classifyResult(err)
	}
	return a, nil
}

// classifyResult maps a terminal retry error onto the classification
// waiters see: non-retryable failures surface their original class,
// shutdown surfaces as a canceled load, and anything else means the
// source kept failing until attempts ran out.
func (s *Scheduler) classifyResult(err error) error {
	var nonRetryable *retry.NonRetryableError
	if stderrors.As(err, &nonRetryable) {
		return nonRetryable.Unwrap()
	}

	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return errors.WrapTransient(
			fmt.Errorf("%w: %v", errors.ErrLoadCanceled, err),
			"Scheduler", "Load", "load asset")
	}

	return errors.WrapFatal(
		fmt.Errorf("%w: %v", errors.ErrRetriesExhausted, err),
		"Scheduler", "Load", "load asset")
}

// publishOutcome emits the terminal event for a flight if a bus is
// attached.
func (s *Scheduler) publishOutcome(key string, a *asset.Asset, err error, uncached bool) {
	if s.opts.bus == nil {
		return
	}

	if err != nil {
		s.opts.bus.Publish(events.Event{
			Type: events.TypeLoadFailed,
			Key:  key,
			Err:  err.Error(),
		})
		return
	}

	s.opts.bus.Publish(events.Event{
		Type:      events.TypeLoaded,
		Key:       key,
		SizeBytes: a.ComputeSize(),
		Uncached:  uncached,
	})
}

// abandonFlight resolves a popped flight as canceled during shutdown.
func (s *Scheduler) abandonFlight(fl *flight) {
	s.mu.Lock()
	delete(s.inflight, fl.key)
	s.mu.Unlock()
	s.resolveCanceled(fl)
}

// resolveCanceled fails every waiter on fl with a canceled error.
func (s *Scheduler) resolveCanceled(fl *flight) {
	err := errors.WrapTransient(
		fmt.Errorf("%w: scheduler shutting down", errors.ErrLoadCanceled),
		"Scheduler", "Close", "cancel queued load")

	s.stats.Canceled()

	for _, w := range fl.waiters {
		w.resolve(nil, err)
	}
}
