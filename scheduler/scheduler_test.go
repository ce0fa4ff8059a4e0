package scheduler

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/atlas3d/assetstream/asset"
	"github.com/atlas3d/assetstream/errors"
	"github.com/atlas3d/assetstream/events"
	"github.com/atlas3d/assetstream/internal/testutil"
	"github.com/atlas3d/assetstream/pkg/retry"
	"github.com/atlas3d/assetstream/store"
)

// quickRetry keeps backoff short enough for tests.
func quickRetry(attempts int) retry.Config {
	return retry.Config{
		MaxAttempts:  attempts,
		InitialDelay: 2 * time.Millisecond,
		MaxDelay:     20 * time.Millisecond,
		Strategy:     retry.StrategyLinear,
	}
}

func newTestScheduler(t *testing.T, loader Loader, slots int, options ...Option) (*Scheduler, *store.Store) {
	t.Helper()

	st, err := store.New(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	cfg := Config{
		MaxConcurrent: slots,
		LoadTimeout:   time.Second,
		Retry:         quickRetry(1),
	}
	s, err := New(loader, st, cfg, options...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	return s, st
}

func waitFuture(t *testing.T, fut *Future) (*asset.Asset, error) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return fut.Wait(ctx)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 6, cfg.MaxConcurrent)
	assert.Equal(t, 5*time.Second, cfg.LoadTimeout)
	assert.Equal(t, 4, cfg.Retry.MaxAttempts)
	assert.Equal(t, retry.StrategyLinear, cfg.Retry.Strategy)
}

func TestNew_Validation(t *testing.T) {
	st, err := store.New(1 << 20)
	require.NoError(t, err)
	defer st.Close()

	_, err = New(nil, st, DefaultConfig())
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))

	cfg := DefaultConfig()
	cfg.MaxConcurrent = 0
	_, err = New(testutil.NewMockLoader(), st, cfg)
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))
}

func TestScheduler_LoadAndWait(t *testing.T) {
	loader := testutil.NewMockLoader()
	loader.SetAsset("models/crate", testutil.BlobAsset("models/crate", 512))

	var observedKey string
	var observedErr error
	var observerMu sync.Mutex
	s, st := newTestScheduler(t, loader, 2, WithLoadObserver(func(key string, seconds float64, err error) {
		observerMu.Lock()
		observedKey = key
		observedErr = err
		observerMu.Unlock()
	}))

	fut := s.Load(context.Background(), "models/crate", PriorityNormal)
	a, err := waitFuture(t, fut)
	require.NoError(t, err)
	require.NotNil(t, a)
	assert.Equal(t, "models/crate", a.Key)

	// Accounting settles before waiters unblock.
	assert.True(t, st.Contains("models/crate"))
	assert.Equal(t, int64(1), s.Stats().ScheduledTotal())
	assert.Equal(t, int64(1), s.Stats().CompletedTotal())
	assert.Equal(t, int64(0), s.Stats().FailedTotal())

	observerMu.Lock()
	assert.Equal(t, "models/crate", observedKey)
	assert.NoError(t, observedErr)
	observerMu.Unlock()
}

func TestScheduler_EmptyKeyFails(t *testing.T) {
	loader := testutil.NewMockLoader()
	s, _ := newTestScheduler(t, loader, 1)

	fut := s.Load(context.Background(), "", PriorityNormal)
	_, err, ok := fut.Result()
	require.True(t, ok, "empty key should resolve immediately")
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))
	assert.True(t, stderrors.Is(err, errors.ErrInvalidKey))
}

func TestScheduler_CoalescesConcurrentLoads(t *testing.T) {
	loader := testutil.NewMockLoader()
	loader.SetAsset("textures/wall", testutil.BlobAsset("textures/wall", 256))
	loader.Block("textures/wall")

	s, _ := newTestScheduler(t, loader, 2)

	first := s.Load(context.Background(), "textures/wall", PriorityNormal)
	require.Eventually(t, func() bool {
		return loader.Calls("textures/wall") == 1
	}, 2*time.Second, 5*time.Millisecond, "first request should dispatch")

	assert.Contains(t, s.InflightKeys(), "textures/wall")

	futures := []*Future{first}
	for i := 0; i < 7; i++ {
		futures = append(futures, s.Load(context.Background(), "textures/wall", PriorityNormal))
	}

	loader.Release("textures/wall")

	for _, fut := range futures {
		a, err := waitFuture(t, fut)
		require.NoError(t, err)
		assert.Equal(t, "textures/wall", a.Key)
	}

	// One flight served all eight requests.
	assert.Equal(t, 1, loader.Calls("textures/wall"))
	assert.Equal(t, int64(1), s.Stats().ScheduledTotal())
	assert.Equal(t, int64(7), s.Stats().CoalescedTotal())
	assert.Equal(t, int64(1), s.Stats().CompletedTotal())
}

func TestScheduler_DispatchesInPriorityOrder(t *testing.T) {
	var mu sync.Mutex
	var order []string
	gate := make(chan struct{})

	loader := testutil.NewMockLoader()
	loader.LoadFunc = func(ctx context.Context, key string) (*asset.Asset, error) {
		mu.Lock()
		order = append(order, key)
		n := len(order)
		mu.Unlock()
		if n == 1 {
			select {
			case <-gate:
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		return testutil.BlobAsset(key, 64), nil
	}

	s, _ := newTestScheduler(t, loader, 1)

	first := s.Load(context.Background(), "first", PriorityNormal)
	require.Eventually(t, func() bool {
		return loader.Calls("first") == 1
	}, 2*time.Second, 5*time.Millisecond)

	// Queue in inverse priority order while the only slot is busy.
	background := s.Load(context.Background(), "background", PriorityLow)
	normal := s.Load(context.Background(), "normal", PriorityNormal)
	critical := s.Load(context.Background(), "critical", PriorityHigh)

	depths := s.QueueDepths()
	assert.Equal(t, 1, depths[PriorityHigh])
	assert.Equal(t, 1, depths[PriorityNormal])
	assert.Equal(t, 1, depths[PriorityLow])

	close(gate)

	for _, fut := range []*Future{first, background, normal, critical} {
		_, err := waitFuture(t, fut)
		require.NoError(t, err)
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"first", "critical", "normal", "background"}, order)

	depths = s.QueueDepths()
	assert.Equal(t, 0, depths[PriorityHigh]+depths[PriorityNormal]+depths[PriorityLow])
}

func TestScheduler_CoalescedRequestUpgradesPriority(t *testing.T) {
	var mu sync.Mutex
	var order []string
	gate := make(chan struct{})

	loader := testutil.NewMockLoader()
	loader.LoadFunc = func(ctx context.Context, key string) (*asset.Asset, error) {
		mu.Lock()
		order = append(order, key)
		n := len(order)
		mu.Unlock()
		if n == 1 {
			select {
			case <-gate:
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		return testutil.BlobAsset(key, 64), nil
	}

	s, _ := newTestScheduler(t, loader, 1)

	first := s.Load(context.Background(), "first", PriorityNormal)
	require.Eventually(t, func() bool {
		return loader.Calls("first") == 1
	}, 2*time.Second, 5*time.Millisecond)

	tex := s.Load(context.Background(), "textures/distant", PriorityLow)
	other := s.Load(context.Background(), "models/prop", PriorityNormal)

	// The texture becomes visible: a second request bumps it ahead.
	upgraded := s.Load(context.Background(), "textures/distant", PriorityHigh)

	close(gate)

	for _, fut := range []*Future{first, tex, other, upgraded} {
		_, err := waitFuture(t, fut)
		require.NoError(t, err)
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"first", "textures/distant", "models/prop"}, order)
	assert.Equal(t, int64(1), s.Stats().CoalescedTotal())
}

func TestScheduler_RetriesTransientFailures(t *testing.T) {
	loader := testutil.NewMockLoader()
	loader.SetAsset("shaders/pbr", testutil.BlobAsset("shaders/pbr", 128))
	loader.FailTimes("shaders/pbr", 2, nil)

	st, err := store.New(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	s, err := New(loader, st, Config{
		MaxConcurrent: 1,
		LoadTimeout:   time.Second,
		Retry:         quickRetry(4),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	fut := s.Load(context.Background(), "shaders/pbr", PriorityNormal)
	a, err := waitFuture(t, fut)
	require.NoError(t, err)
	assert.Equal(t, "shaders/pbr", a.Key)

	assert.Equal(t, 3, loader.Calls("shaders/pbr"))
	assert.Equal(t, int64(2), s.Stats().RetriesTotal())
	assert.Equal(t, int64(1), s.Stats().CompletedTotal())
	assert.Equal(t, int64(0), s.Stats().FailedTotal())
}

func TestScheduler_ExhaustsRetries(t *testing.T) {
	loader := testutil.NewMockLoader()
	loader.SetAsset("shaders/broken", testutil.BlobAsset("shaders/broken", 128))
	loader.FailTimes("shaders/broken", 10, nil)

	st, err := store.New(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	s, err := New(loader, st, Config{
		MaxConcurrent: 1,
		LoadTimeout:   time.Second,
		Retry:         quickRetry(4),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	fut := s.Load(context.Background(), "shaders/broken", PriorityNormal)
	_, err = waitFuture(t, fut)
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrRetriesExhausted))
	assert.True(t, errors.IsFatal(err))

	assert.Equal(t, 4, loader.Calls("shaders/broken"))
	assert.Equal(t, int64(3), s.Stats().RetriesTotal())
	assert.Equal(t, int64(1), s.Stats().FailedTotal())
}

func TestScheduler_LoadWithOverridesRetryBudget(t *testing.T) {
	loader := testutil.NewMockLoader()
	loader.SetAsset("shaders/flaky", testutil.BlobAsset("shaders/flaky", 128))
	loader.FailTimes("shaders/flaky", 10, nil)

	st, err := store.New(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	s, err := New(loader, st, Config{
		MaxConcurrent: 1,
		LoadTimeout:   time.Second,
		Retry:         quickRetry(4),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	fut := s.LoadWith(context.Background(), "shaders/flaky", PriorityNormal, RequestOptions{Attempts: 2})
	_, err = waitFuture(t, fut)
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrRetriesExhausted))

	// The per-flight budget wins over the configured four attempts.
	assert.Equal(t, 2, loader.Calls("shaders/flaky"))
	assert.Equal(t, int64(1), s.Stats().RetriesTotal())
}

func TestScheduler_NotFoundFailsWithoutRetry(t *testing.T) {
	loader := testutil.NewMockLoader()

	s, _ := newTestScheduler(t, loader, 1)

	fut := s.Load(context.Background(), "textures/missing", PriorityNormal)
	_, err := waitFuture(t, fut)
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
	assert.True(t, stderrors.Is(err, errors.ErrAssetNotFound))

	// Terminal classification, no second attempt.
	assert.Equal(t, 1, loader.Calls("textures/missing"))
	assert.Equal(t, int64(0), s.Stats().RetriesTotal())
	assert.Equal(t, int64(1), s.Stats().FailedTotal())
}

func TestScheduler_ServesUncachedWhenStoreRejects(t *testing.T) {
	loader := testutil.NewMockLoader()
	loader.SetAsset("audio/theme", testutil.BlobAsset("audio/theme", 2048))

	st, err := store.New(256)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	bus, err := events.NewBus(16)
	require.NoError(t, err)
	t.Cleanup(func() { bus.Close() })
	sub := bus.Subscribe()

	s, err := New(loader, st, Config{MaxConcurrent: 1, LoadTimeout: time.Second, Retry: quickRetry(1)},
		WithEventBus(bus))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	fut := s.Load(context.Background(), "audio/theme", PriorityNormal)
	a, err := waitFuture(t, fut)
	require.NoError(t, err, "admission failure must not fail the load")
	assert.Equal(t, int64(2048), a.ComputeSize())

	assert.False(t, st.Contains("audio/theme"))
	assert.Equal(t, int64(1), s.Stats().UncachedTotal())
	assert.Equal(t, int64(1), s.Stats().CompletedTotal())

	select {
	case evt := <-sub.Events():
		assert.Equal(t, events.TypeLoaded, evt.Type)
		assert.Equal(t, "audio/theme", evt.Key)
		assert.True(t, evt.Uncached)
	case <-time.After(2 * time.Second):
		t.Fatal("expected a loaded event")
	}
}

func TestScheduler_QueueLimitRejectsOverflow(t *testing.T) {
	loader := testutil.NewMockLoader()
	for _, key := range []string{"a", "b", "c", "d"} {
		loader.SetAsset(key, testutil.BlobAsset(key, 64))
	}
	loader.Block("a")

	s, _ := newTestScheduler(t, loader, 1, WithQueueLimit(2))

	futA := s.Load(context.Background(), "a", PriorityNormal)
	require.Eventually(t, func() bool {
		return loader.Calls("a") == 1
	}, 2*time.Second, 5*time.Millisecond)

	futB := s.Load(context.Background(), "b", PriorityNormal)
	futC := s.Load(context.Background(), "c", PriorityNormal)

	futD := s.Load(context.Background(), "d", PriorityNormal)
	_, err, ok := futD.Result()
	require.True(t, ok, "overflow should resolve immediately")
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrQueueFull))
	assert.True(t, errors.IsCapacity(err))

	loader.Release("a")
	for _, fut := range []*Future{futA, futB, futC} {
		_, err := waitFuture(t, fut)
		require.NoError(t, err)
	}
}

func TestScheduler_ResizeAddsSlots(t *testing.T) {
	loader := testutil.NewMockLoader()
	loader.SetAsset("a", testutil.BlobAsset("a", 64))
	loader.SetAsset("b", testutil.BlobAsset("b", 64))
	loader.Block("a")
	loader.Block("b")

	s, _ := newTestScheduler(t, loader, 1)

	futA := s.Load(context.Background(), "a", PriorityNormal)
	require.Eventually(t, func() bool {
		return loader.Calls("a") == 1
	}, 2*time.Second, 5*time.Millisecond)

	futB := s.Load(context.Background(), "b", PriorityNormal)
	assert.Equal(t, 0, loader.Calls("b"), "single slot is held by the first load")

	require.NoError(t, s.Resize(2))
	require.Eventually(t, func() bool {
		return loader.Calls("b") == 1
	}, 2*time.Second, 5*time.Millisecond, "new slot should dispatch the queued load")

	loader.Release("a")
	loader.Release("b")
	for _, fut := range []*Future{futA, futB} {
		_, err := waitFuture(t, fut)
		require.NoError(t, err)
	}

	err := s.Resize(0)
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))
}

func TestScheduler_CloseCancelsQueuedAndRunning(t *testing.T) {
	loader := testutil.NewMockLoader()
	loader.SetAsset("a", testutil.BlobAsset("a", 64))
	loader.SetAsset("b", testutil.BlobAsset("b", 64))
	loader.Block("a")

	st, err := store.New(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	s, err := New(loader, st, Config{MaxConcurrent: 1, LoadTimeout: time.Second, Retry: quickRetry(1)})
	require.NoError(t, err)

	futA := s.Load(context.Background(), "a", PriorityNormal)
	require.Eventually(t, func() bool {
		return loader.Calls("a") == 1
	}, 2*time.Second, 5*time.Millisecond)

	futB := s.Load(context.Background(), "b", PriorityNormal)

	require.NoError(t, s.Close())

	_, errA := waitFuture(t, futA)
	require.Error(t, errA)
	assert.True(t, stderrors.Is(errA, errors.ErrLoadCanceled))

	_, errB := waitFuture(t, futB)
	require.Error(t, errB)
	assert.True(t, stderrors.Is(errB, errors.ErrLoadCanceled))

	assert.Equal(t, int64(1), s.Stats().CanceledTotal())

	// Loads after close fail fast.
	fut := s.Load(context.Background(), "a", PriorityNormal)
	_, err, ok := fut.Result()
	require.True(t, ok)
	assert.True(t, stderrors.Is(err, errors.ErrLoadCanceled))

	require.NoError(t, s.Close(), "second close is a no-op")
}

func TestScheduler_AbandonedWaiterDoesNotAbortFlight(t *testing.T) {
	loader := testutil.NewMockLoader()
	loader.SetAsset("models/rock", testutil.BlobAsset("models/rock", 64))
	loader.Block("models/rock")

	s, st := newTestScheduler(t, loader, 1)

	impatient := s.Load(context.Background(), "models/rock", PriorityNormal)
	require.Eventually(t, func() bool {
		return loader.Calls("models/rock") == 1
	}, 2*time.Second, 5*time.Millisecond)

	patient := s.Load(context.Background(), "models/rock", PriorityNormal)

	canceled, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := impatient.Wait(canceled)
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrLoadCanceled))

	loader.Release("models/rock")

	a, err := waitFuture(t, patient)
	require.NoError(t, err)
	assert.Equal(t, "models/rock", a.Key)
	assert.True(t, st.Contains("models/rock"))

	// The abandoned future still resolved with the shared outcome.
	a, err, ok := impatient.Result()
	require.True(t, ok)
	require.NoError(t, err)
	assert.Equal(t, "models/rock", a.Key)
}

func TestScheduler_PublishesLoadEvents(t *testing.T) {
	loader := testutil.NewMockLoader()
	loader.SetAsset("ok", testutil.BlobAsset("ok", 512))

	bus, err := events.NewBus(16)
	require.NoError(t, err)
	t.Cleanup(func() { bus.Close() })
	sub := bus.Subscribe()

	st, err := store.New(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	s, err := New(loader, st, Config{MaxConcurrent: 1, LoadTimeout: time.Second, Retry: quickRetry(1)},
		WithEventBus(bus))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	_, err = waitFuture(t, s.Load(context.Background(), "ok", PriorityNormal))
	require.NoError(t, err)
	_, err = waitFuture(t, s.Load(context.Background(), "gone", PriorityNormal))
	require.Error(t, err)

	got := make(map[events.Type]events.Event)
	for i := 0; i < 2; i++ {
		select {
		case evt := <-sub.Events():
			got[evt.Type] = evt
		case <-time.After(2 * time.Second):
			t.Fatal("expected two load events")
		}
	}

	loaded, ok := got[events.TypeLoaded]
	require.True(t, ok)
	assert.Equal(t, "ok", loaded.Key)
	assert.Equal(t, int64(512), loaded.SizeBytes)
	assert.False(t, loaded.Uncached)

	failed, ok := got[events.TypeLoadFailed]
	require.True(t, ok)
	assert.Equal(t, "gone", failed.Key)
	assert.NotEmpty(t, failed.Err)
}

func TestScheduler_RateLimitSpacesDispatches(t *testing.T) {
	loader := testutil.NewMockLoader()
	for _, key := range []string{"a", "b", "c"} {
		loader.SetAsset(key, testutil.BlobAsset(key, 64))
	}

	limiter := rate.NewLimiter(rate.Every(40*time.Millisecond), 1)
	s, _ := newTestScheduler(t, loader, 2, WithRateLimit(limiter))

	start := time.Now()
	futures := []*Future{
		s.Load(context.Background(), "a", PriorityNormal),
		s.Load(context.Background(), "b", PriorityNormal),
		s.Load(context.Background(), "c", PriorityNormal),
	}
	for _, fut := range futures {
		_, err := waitFuture(t, fut)
		require.NoError(t, err)
	}
	elapsed := time.Since(start)

	// First dispatch is free, the next two wait out the limiter.
	assert.GreaterOrEqual(t, elapsed, 70*time.Millisecond)
	assert.Equal(t, 3, loader.TotalCalls())
}

func TestScheduler_StatsTrackInflightPeaks(t *testing.T) {
	loader := testutil.NewMockLoader()
	for _, key := range []string{"a", "b", "c"} {
		loader.SetAsset(key, testutil.BlobAsset(key, 64))
		loader.Block(key)
	}

	s, _ := newTestScheduler(t, loader, 3)

	var futures []*Future
	for _, key := range []string{"a", "b", "c"} {
		futures = append(futures, s.Load(context.Background(), key, PriorityNormal))
	}

	require.Eventually(t, func() bool {
		return loader.TotalCalls() == 3
	}, 2*time.Second, 5*time.Millisecond)

	for _, key := range []string{"a", "b", "c"} {
		loader.Release(key)
	}
	for _, fut := range futures {
		_, err := waitFuture(t, fut)
		require.NoError(t, err)
	}

	assert.Equal(t, int64(3), s.Stats().MaxInflight())
	assert.Equal(t, int64(0), s.Stats().Inflight())
	assert.Equal(t, 3, loader.MaxConcurrent())

	summary := s.Stats().Summary()
	assert.Equal(t, int64(3), summary.Completed)
	assert.Equal(t, int64(3), summary.Scheduled)
}
