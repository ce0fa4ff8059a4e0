// Package resource is the facade over the asset pipeline: one Manager
// wires the LRU cache, the load scheduler, procedural synthesis and
// the event bus together from a single configuration.
//
// # Overview
//
// A Manager is what a render loop talks to. It serves cache hits
// synchronously, turns misses into scheduled loads, generates and
// caches procedural textures, and sweeps expired entries in the
// background.
//
//	cfg, err := config.NewLoader().Load()
//	if err != nil {
//		log.Fatal(err)
//	}
//	ldr, err := loader.NewFS(cfg.AssetRoot)
//	if err != nil {
//		log.Fatal(err)
//	}
//	mgr, err := resource.New(cfg, ldr)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer mgr.Close()
//
//	a, err := mgr.GetResource(ctx, "textures/wall_diffuse.png")
//
// # Synchronous and Asynchronous Access
//
// GetResource blocks until the asset is ready. GetResourceAsync
// returns a Future instead, resolved immediately for cache hits, so a
// frame can kick off loads and poll Result without stalling.
// PreloadResources warms a batch of keys at low priority under one
// shared timeout; per-key failures are collected, not fatal, and
// PreloadOption values retune priority, concurrency, deadline and
// retries for a single batch.
//
// # Procedural Textures
//
// CreateProceduralTexture validates the parameters, derives a cache
// key from them and synthesizes only on a miss. Identical parameter
// sets always map to the same key, so repeated requests cost a cache
// lookup.
//
// # Degraded Admission
//
// A full cache never fails a request. When an asset cannot be admitted
// the manager serves it uncached, logs a warning and carries on; the
// cache recovers through its normal eviction.
//
// # Observability
//
// Always-on counters back GetPerformanceMetrics, which merges cache,
// scheduler and facade statistics into one snapshot, and
// GetResourceReport, which renders the same numbers for humans. The
// Events bus carries per-key hit, miss, load and eviction
// notifications. WithMetrics additionally exports everything to
// Prometheus through a metric.MetricsRegistry.
//
// # Reconfiguration
//
// UpdateConfig mutates a copy of the running configuration, validates
// it and applies the result: cache capacity, scheduler slots, texture
// quality, sweep interval and the dispatch rate limit all adjust live.
// Invalid mutations are rejected atomically and the old configuration
// keeps serving.
package resource
