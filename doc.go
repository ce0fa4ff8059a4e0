// Package assetstream provides an asset cache and asynchronous loading
// subsystem for real-time 3D rendering engines.
//
// # Philosophy
//
// A renderer cannot stall. Every design decision in this module follows
// from that one constraint:
//
//   - Loads are asynchronous: a miss schedules work and returns a future,
//     it never blocks the frame loop on IO.
//   - Memory is bounded: the cache holds a strict byte budget and evicts
//     before admitting, never after.
//   - Failure degrades, it does not cascade: a full cache serves assets
//     uncached, a flaky loader retries with backoff, a slow subscriber
//     drops events rather than stalling the publisher.
//   - Repeated work collapses: concurrent requests for one key share a
//     single load, identical procedural parameters share one texture.
//
// # Architecture
//
//	┌─────────────────────────────────────┐
//	│         resource.Manager            │  GetResource, preloads,
//	│  (facade: lifecycle, sweeping,      │  procedural textures,
//	│   reconfiguration, reporting)       │  merged metrics
//	└──────┬──────────────────┬───────────┘
//	       │ misses           │ hits
//	       ↓                  ↓
//	┌─────────────┐    ┌─────────────┐
//	│  scheduler  │───→│    store    │  byte-budget LRU,
//	│  (futures,  │ put│  (eviction, │  TTL sweep, zstd
//	│  priorities,│    │  admission) │  at rest
//	│  coalescing)│    └─────────────┘
//	└──────┬──────┘
//	       │ cache misses load via
//	       ↓
//	┌─────────────┐    ┌─────────────┐
//	│   loader    │    │ procedural  │  generated textures
//	│ (fs decode, │    │ (gradient,  │  enter the same cache
//	│  retry)     │    │  noise, …)  │
//	└─────────────┘    └─────────────┘
//
// Alongside the data path, every layer reports into the same
// observability surfaces: the events bus for per-asset lifecycle
// (loaded, evicted, expired), always-on statistics, and opt-in
// Prometheus collectors through the metric registry.
//
// # Packages
//
// Data path:
//   - resource: the facade tying cache, scheduler, loader and bus into
//     one lifecycle
//   - store: byte-budget LRU cache with TTL sweeping and optional
//     zstd compression at rest
//   - scheduler: priority load queues, request coalescing, retries,
//     futures
//   - loader: the Loader contract and the filesystem implementation
//     (PNG, JPEG, WebP, BMP, TGA, OBJ, materials, blobs)
//   - procedural: deterministic texture synthesis keyed by parameters
//   - asset: texture, mesh, material and blob types plus texture
//     optimization (mip chains, format conversion)
//
// Infrastructure:
//   - config: layered JSON configuration with validation and hot reload
//   - events: non-blocking typed event bus with bounded subscriber
//     queues
//   - metric: Prometheus registry, core pipeline metrics, /metrics
//     server
//   - errors: classified errors (transient, invalid, fatal, not found,
//     capacity) driving retry and degrade decisions
//   - pkg/retry: backoff strategies used by the scheduler
//
// # Usage
//
// Basic setup:
//
//	cfg, err := config.NewLoader().LoadFile("engine.json")
//	if err != nil {
//		return err
//	}
//
//	fsLoader, err := loader.NewFS(cfg.AssetRoot)
//	if err != nil {
//		return err
//	}
//
//	mgr, err := resource.New(cfg, fsLoader)
//	if err != nil {
//		return err
//	}
//	defer mgr.Close()
//
//	// Blocking fetch, served from cache when resident.
//	a, err := mgr.GetResource(ctx, "textures/terrain/grass.png")
//
//	// Non-blocking fetch for the frame loop.
//	fut := mgr.GetResourceAsync(ctx, "models/rock.obj", scheduler.PriorityHigh)
//	if a, err, ok := fut.Result(); ok {
//		_ = a // already resident
//	} else {
//		a, err = fut.Wait(ctx)
//	}
//	_ = err
//
// Level streaming warms the cache ahead of use:
//
//	result, err := mgr.PreloadResources(ctx, manifest.Keys)
//
// Procedural textures share the cache with loaded assets:
//
//	a, err := mgr.CreateProceduralTexture(ctx, procedural.Params{
//		Kind: procedural.KindNoise, Width: 256, Height: 256,
//		Seed: 42, Frequency: 8, Amplitude: 1,
//	})
//
// # Binaries
//
// Two commands ship with the module:
//
//	# Render a generator to disk for inspection
//	texgen -kind noise -w 256 -h 256 -seed 42 -out noise.png
//
//	# Drive a synthetic workload and print the cache report
//	cachebench --profile=workloads/evict-heavy.yaml --metrics-port=9090
package assetstream
