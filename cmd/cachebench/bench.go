package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/atlas3d/assetstream/asset"
	"github.com/atlas3d/assetstream/errors"
	"github.com/atlas3d/assetstream/procedural"
	"github.com/atlas3d/assetstream/resource"
	"github.com/atlas3d/assetstream/scheduler"
)

// benchKey formats the nth synthetic asset key.
func benchKey(n int) string {
	return fmt.Sprintf("bench/asset-%05d", n)
}

// syntheticLoader fabricates deterministic assets in memory. Keys below
// the texture count decode as square RGBA textures, the rest as blobs of
// exactly the configured size. Faults and latency are injected per call.
type syntheticLoader struct {
	sizeBytes    int64
	textureCount int
	textureSide  int
	delay        time.Duration
	failureRate  float64

	mu  sync.Mutex
	rng *rand.Rand

	loads    atomic.Int64
	failures atomic.Int64
}

func newSyntheticLoader(p *Profile) *syntheticLoader {
	side := int(math.Sqrt(float64(p.assetSizeBytes) / 4))
	if side < 8 {
		side = 8
	}
	if side > 1024 {
		side = 1024
	}

	return &syntheticLoader{
		sizeBytes:    p.assetSizeBytes,
		textureCount: int(float64(p.Keys) * p.TextureRatio),
		textureSide:  side,
		delay:        p.LoadDelay.Std(),
		failureRate:  p.FailureRate,
		rng:          rand.New(rand.NewSource(p.Seed)),
	}
}

func (l *syntheticLoader) Load(ctx context.Context, key string) (*asset.Asset, error) {
	l.loads.Add(1)

	if l.delay > 0 {
		select {
		case <-time.After(l.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if l.failureRate > 0 && l.roll() < l.failureRate {
		l.failures.Add(1)
		return nil, errors.WrapTransient(
			fmt.Errorf("%w: injected fault for %s", errors.ErrTransientIO, key),
			"SyntheticLoader", "Load", "read asset")
	}

	var idx int
	if _, err := fmt.Sscanf(key, "bench/asset-%d", &idx); err != nil {
		return nil, errors.WrapNotFound(
			fmt.Errorf("%w: %s", errors.ErrAssetNotFound, key),
			"SyntheticLoader", "Load", "resolve key")
	}

	if idx < l.textureCount {
		return asset.NewTexture(key, l.makeTexture(idx), asset.SourceLoader), nil
	}
	return asset.NewBlob(key, l.makeBlob(idx), asset.SourceLoader), nil
}

func (l *syntheticLoader) makeTexture(idx int) *asset.Texture {
	tex := &asset.Texture{
		Width:  l.textureSide,
		Height: l.textureSide,
		Format: asset.FormatRGBA8,
		Pix:    make([]byte, l.textureSide*l.textureSide*4),
	}
	shade := byte(idx)
	for i := 0; i < len(tex.Pix); i += 4 {
		tex.Pix[i] = shade
		tex.Pix[i+1] = shade ^ 0x55
		tex.Pix[i+2] = shade ^ 0xaa
		tex.Pix[i+3] = 0xff
	}
	return tex
}

func (l *syntheticLoader) makeBlob(idx int) *asset.Blob {
	data := make([]byte, l.sizeBytes)
	fill := byte(idx)
	for i := range data {
		data[i] = fill
		fill++
	}
	return &asset.Blob{Data: data, MIME: "application/octet-stream"}
}

func (l *syntheticLoader) roll() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rng.Float64()
}

// Results aggregates what the workers did.
type Results struct {
	Gets        int64
	Asyncs      int64
	Preloads    int64
	Procedurals int64
	Errors      int64
	Canceled    int64
	Elapsed     time.Duration
}

func (r Results) totalOps() int64 {
	return r.Gets + r.Asyncs + r.Preloads + r.Procedurals
}

// OpsPerSecond is the aggregate operation rate across all workers.
func (r Results) OpsPerSecond() float64 {
	if r.Elapsed <= 0 {
		return 0
	}
	return float64(r.totalOps()) / r.Elapsed.Seconds()
}

type opKind int

const (
	opGet opKind = iota
	opAsync
	opPreload
	opProcedural
)

// benchmark drives the manager with the profiled mix until the deadline.
type benchmark struct {
	mgr         *resource.Manager
	profile     *Profile
	logger      *slog.Logger
	preloadOpts []resource.PreloadOption

	gets        atomic.Int64
	asyncs      atomic.Int64
	preloads    atomic.Int64
	procedurals atomic.Int64
	opErrors    atomic.Int64
	canceled    atomic.Int64
}

func newBenchmark(mgr *resource.Manager, p *Profile, logger *slog.Logger) *benchmark {
	b := &benchmark{mgr: mgr, profile: p, logger: logger}
	if p.PreloadConcurrent > 0 {
		b.preloadOpts = append(b.preloadOpts, resource.PreloadConcurrency(p.PreloadConcurrent))
	}
	return b
}

// run blocks until the profile duration elapses or ctx is canceled.
func (b *benchmark) run(ctx context.Context) Results {
	ctx, cancel := context.WithTimeout(ctx, b.profile.Duration.Std())
	defer cancel()

	start := time.Now()
	var wg sync.WaitGroup
	for i := 0; i < b.profile.Workers; i++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			b.worker(ctx, seed)
		}(b.profile.Seed + int64(i))
	}

	progressDone := make(chan struct{})
	go b.progress(ctx, progressDone)

	wg.Wait()
	close(progressDone)

	return Results{
		Gets:        b.gets.Load(),
		Asyncs:      b.asyncs.Load(),
		Preloads:    b.preloads.Load(),
		Procedurals: b.procedurals.Load(),
		Errors:      b.opErrors.Load(),
		Canceled:    b.canceled.Load(),
		Elapsed:     time.Since(start),
	}
}

func (b *benchmark) worker(ctx context.Context, seed int64) {
	rng := rand.New(rand.NewSource(seed))

	for ctx.Err() == nil {
		var err error
		switch b.pickOp(rng) {
		case opGet:
			b.gets.Add(1)
			_, err = b.mgr.GetResource(ctx, b.pickKey(rng))
		case opAsync:
			b.asyncs.Add(1)
			fut := b.mgr.GetResourceAsync(ctx, b.pickKey(rng), scheduler.PriorityHigh)
			_, err = fut.Wait(ctx)
		case opPreload:
			b.preloads.Add(1)
			_, err = b.mgr.PreloadResources(ctx, b.preloadKeys(rng), b.preloadOpts...)
		case opProcedural:
			b.procedurals.Add(1)
			_, err = b.mgr.CreateProceduralTexture(ctx, b.proceduralParams(rng))
		}

		if err != nil {
			if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
				b.canceled.Add(1)
			} else {
				b.opErrors.Add(1)
			}
		}
	}
}

// pickOp samples the weighted operation mix.
func (b *benchmark) pickOp(rng *rand.Rand) opKind {
	mix := b.profile.Ops
	roll := rng.Float64() * mix.total()

	if roll < mix.Get {
		return opGet
	}
	roll -= mix.Get
	if roll < mix.Async {
		return opAsync
	}
	roll -= mix.Async
	if roll < mix.Preload {
		return opPreload
	}
	return opProcedural
}

// pickKey routes hot_traffic of requests to the hot subset of keys.
func (b *benchmark) pickKey(rng *rand.Rand) string {
	hot := int(float64(b.profile.Keys) * b.profile.HotFraction)
	if hot > 0 && rng.Float64() < b.profile.HotTraffic {
		return benchKey(rng.Intn(hot))
	}
	return benchKey(rng.Intn(b.profile.Keys))
}

// preloadKeys returns a contiguous run of keys, wrapping at the
// population edge the way a level manifest would.
func (b *benchmark) preloadKeys(rng *rand.Rand) []string {
	start := rng.Intn(b.profile.Keys)
	keys := make([]string, 0, b.profile.PreloadBatch)
	for i := 0; i < b.profile.PreloadBatch; i++ {
		keys = append(keys, benchKey((start+i)%b.profile.Keys))
	}
	return keys
}

// proceduralParams draws from a small seed space so repeated params hit
// the cache like real particle and UI textures do.
func (b *benchmark) proceduralParams(rng *rand.Rand) procedural.Params {
	return procedural.Params{
		Kind:      procedural.KindNoise,
		Width:     64,
		Height:    64,
		Seed:      rng.Int63n(32),
		Frequency: 8,
		Amplitude: 1,
	}
}

func (b *benchmark) progress(ctx context.Context, done <-chan struct{}) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			metrics := b.mgr.GetPerformanceMetrics()
			b.logger.Info("Benchmark progress",
				"gets", b.gets.Load(),
				"asyncs", b.asyncs.Load(),
				"preloads", b.preloads.Load(),
				"procedurals", b.procedurals.Load(),
				"errors", b.opErrors.Load(),
				"hit_ratio", fmt.Sprintf("%.1f%%", metrics.HitRatio*100),
				"bytes_in_cache", metrics.BytesInCache)
		}
	}
}
