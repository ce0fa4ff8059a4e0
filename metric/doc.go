// Package metric provides Prometheus-based metrics collection and an HTTP
// server for monitoring the asset pipeline.
//
// The package offers a centralized metrics registry managing both core
// pipeline metrics (component status, request counts, operation durations,
// hit ratio) and component-specific metrics registered by the cache,
// scheduler and event bus. It includes an HTTP server exposing metrics in
// Prometheus format for monitoring system integration.
//
// # Architecture
//
// The package follows a three-layer design:
//
//  1. Core Metrics: Pipeline-level metrics automatically registered (Metrics type)
//  2. Component Registry: Extensible registration for component-specific metrics (MetricsRegistrar interface)
//  3. HTTP Server: Metrics endpoint with health checks (Server type)
//
// This architecture separates infrastructure concerns (core metrics) from
// component concerns (cache, scheduler, bus collectors) while providing a
// unified metrics endpoint for monitoring systems.
//
// # Basic Usage
//
// Setting up metrics collection and HTTP server:
//
//	registry := metric.NewMetricsRegistry()
//	server := metric.NewServer(9100, "/metrics", registry)
//
//	go func() {
//	    if err := server.Start(); err != nil {
//	        log.Printf("Metrics server error: %v", err)
//	    }
//	}()
//	defer server.Stop()
//
//	// Record core pipeline metrics
//	coreMetrics := registry.CoreMetrics()
//	coreMetrics.RecordComponentStatus("resource", 2) // running
//	coreMetrics.RecordRequestReceived("resource", "texture")
//	coreMetrics.RecordHitRatio(0.94)
//
// The metrics server exposes Prometheus-formatted metrics at
// http://localhost:9100/metrics and a health check at
// http://localhost:9100/health.
//
// # Core Metrics
//
// The package automatically registers core pipeline metrics tracking:
//
//   - Component lifecycle: component_status (0=stopped, 1=starting, 2=running, 3=stopping, 4=failed)
//   - Request flow: requests_received_total, requests_completed_total (by kind and outcome)
//   - Operation performance: operations_duration_seconds
//   - Error tracking: errors_total (by classification)
//   - Health: health_status
//   - Cache effectiveness: cache_hit_ratio
//   - Maintenance: sweep_runs_total, procedural_generation_seconds
//
// Access core metrics through the registry:
//
//	coreMetrics := registry.CoreMetrics()
//
//	// Component lifecycle tracking
//	coreMetrics.RecordComponentStatus("resource", 2) // 2 = running
//
//	// Request flow metrics
//	coreMetrics.RecordRequestReceived("resource", "texture")
//	coreMetrics.RecordRequestCompleted("resource", "texture", "hit")
//	coreMetrics.RecordOperationDuration("resource", "get_resource", 12*time.Millisecond)
//
//	// Error tracking by classification
//	coreMetrics.RecordError("resource", "transient")
//
//	// Pipeline-wide effectiveness
//	coreMetrics.RecordHitRatio(0.94)
//	coreMetrics.RecordSweepRun()
//	coreMetrics.RecordGenerationDuration(3 * time.Millisecond)
//
// # Component-Specific Metrics
//
// The cache, scheduler and event bus register their own collectors through
// the registry when constructed with their WithMetrics options:
//
//	registry := metric.NewMetricsRegistry()
//
//	cache, err := store.New(maxBytes, store.WithMetrics(registry, "cache"))
//	sched, err := scheduler.New(ldr, cache, scheduler.DefaultConfig(),
//	    scheduler.WithMetrics(registry, "scheduler"))
//	bus, err := events.NewBus(256, events.WithMetrics(registry, "events"))
//
// Components can also register custom metrics directly:
//
//	decodeErrors := prometheus.NewCounter(prometheus.CounterOpts{
//	    Name: "asset_decode_errors_total",
//	    Help: "Total number of asset decode failures",
//	})
//	err := registry.RegisterCounter("loader", "decode_errors", decodeErrors)
//
// Vector metrics carry labels for multi-dimensional data:
//
//	loadsByKind := prometheus.NewCounterVec(
//	    prometheus.CounterOpts{
//	        Name: "asset_loads_total",
//	        Help: "Total asset loads by kind",
//	    },
//	    []string{"kind"},
//	)
//	err := registry.RegisterCounterVec("loader", "loads", loadsByKind)
//	loadsByKind.WithLabelValues("texture").Inc()
//
// # HTTP Server
//
// The metrics server provides three endpoints:
//
//   - GET / - HTML page with links to metrics and health endpoints
//   - GET /metrics - Prometheus-formatted metrics (default path, configurable)
//   - GET /health - plain-text health check
//
// Server configuration:
//
//	// Default configuration (port 9100, path /metrics)
//	server := metric.NewServer(0, "", registry)
//
//	// Custom configuration
//	server := metric.NewServer(8080, "/prometheus", registry)
//
// Start blocks until Stop is called; run it in a goroutine. Stop drains
// in-flight scrapes before closing and the server can be restarted
// afterwards.
//
// # Prometheus Integration
//
// The package uses the official Prometheus Go client library and exposes
// metrics in OpenMetrics format. Configure Prometheus to scrape the endpoint:
//
//	# prometheus.yml
//	scrape_configs:
//	  - job_name: 'assetstream'
//	    static_configs:
//	      - targets: ['localhost:9100']
//	    metrics_path: '/metrics'
//	    scrape_interval: 15s
//
// All core metrics use the namespace "assetstream" and appropriate subsystems:
//   - assetstream_component_status{component="..."}
//   - assetstream_requests_completed_total{component="...",kind="...",status="..."}
//   - assetstream_cache_hit_ratio
//
// Component collectors registered by the cache, scheduler and bus use the
// same namespace with their own subsystems (assetstream_cache_hits_total,
// assetstream_scheduler_queue_depth, assetstream_events_dropped_total).
//
// # MetricsRegistrar Interface
//
// Components accept the MetricsRegistrar interface for dependency injection:
//
//	type Loader struct {
//	    metrics metric.MetricsRegistrar
//	}
//
//	func NewLoader(metrics metric.MetricsRegistrar) *Loader {
//	    counter := prometheus.NewCounter(prometheus.CounterOpts{
//	        Name: "loads_total",
//	        Help: "Total loads",
//	    })
//	    metrics.RegisterCounter("loader", "loads_total", counter)
//
//	    return &Loader{metrics: metrics}
//	}
//
// This enables testing with mock registrars and provides loose coupling.
//
// # Thread Safety
//
// All registry operations are thread-safe:
//   - Registration methods use mutex protection
//   - Metric recording is lock-free (Prometheus guarantee)
//   - CoreMetrics() returns a thread-safe shared instance
//   - PrometheusRegistry() is safe for concurrent access
//
// # Error Handling
//
// Registration methods return classified errors for:
//
//   - Duplicate registration: the same component/metric key registered twice
//   - Prometheus conflicts: a collector colliding with an existing metric name
//   - Registration failures: internal Prometheus errors
//
// The Server.Start() method returns errors for:
//
//   - Server already running
//   - Nil registry
//   - HTTP listener failures (port in use, permission denied)
//
// A Stop-initiated shutdown is not an error; Start returns nil in that case.
//
// # Design Decisions
//
// Centralized Registry: a single registry ensures a consistent metric
// namespace, prevents duplication across components, and gives one scrape
// endpoint for the whole pipeline.
//
// Core vs Component Metrics: pipeline-level metrics (core) are separated
// from component metrics (cache, scheduler, bus) so infrastructure health
// and component behavior can be read independently.
//
// Prometheus Direct Integration: the official Prometheus client is used
// rather than an abstraction to leverage native features and ensure
// compatibility with the Prometheus ecosystem.
package metric
