// Package main implements cachebench, a workload driver for the asset
// cache. It fabricates a synthetic asset population, runs a profiled mix
// of loads, preloads and procedural generations against the resource
// manager, and prints the cache report so eviction and hit-rate behavior
// can be compared across configurations.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/atlas3d/assetstream/config"
	"github.com/atlas3d/assetstream/metric"
	"github.com/atlas3d/assetstream/resource"
)

// Build information constants
const (
	Version = "0.1.0"
	appName = "cachebench"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := run(); err != nil {
		slog.Error("Benchmark failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cliCfg := parseFlags()
	if err := validateFlags(cliCfg); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}

	if cliCfg.ShowVersion {
		fmt.Printf("%s version %s\n", appName, Version)
		return nil
	}
	if cliCfg.ShowHelp {
		printDetailedHelp()
		return nil
	}

	logger := setupLogger(cliCfg.LogLevel, cliCfg.LogFormat)
	slog.SetDefault(logger)

	profile, err := LoadProfile(cliCfg.ProfilePath)
	if err != nil {
		return fmt.Errorf("load profile: %w", err)
	}

	cfg, err := engineConfig(cliCfg, profile)
	if err != nil {
		return fmt.Errorf("load engine config: %w", err)
	}

	logger.Info("Workload configured",
		"duration", profile.Duration.Std(),
		"workers", profile.Workers,
		"keys", profile.Keys,
		"working_set", humanize.IBytes(uint64(profile.WorkingSetBytes())),
		"cache_size", humanize.IBytes(uint64(cfg.MaxCacheSize)))

	registry := metric.NewMetricsRegistry()
	if cliCfg.MetricsPort > 0 {
		srv := metric.NewServer(cliCfg.MetricsPort, "/metrics", registry)
		go func() {
			if err := srv.Start(); err != nil {
				logger.Error("Metrics server failed", "error", err)
			}
		}()
		defer func() { _ = srv.Stop() }()
		logger.Info("Metrics server started", "port", cliCfg.MetricsPort)
	}

	ldr := newSyntheticLoader(profile)
	mgr, err := resource.New(cfg, ldr,
		resource.WithLogger(logger),
		resource.WithMetrics(registry))
	if err != nil {
		return fmt.Errorf("create resource manager: %w", err)
	}
	defer func() { _ = mgr.Close() }()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger.Info("Benchmark starting")
	results := newBenchmark(mgr, profile, logger).run(ctx)

	logger.Info("Benchmark finished",
		"elapsed", results.Elapsed.Round(time.Millisecond),
		"ops", results.totalOps(),
		"ops_per_second", fmt.Sprintf("%.0f", results.OpsPerSecond()),
		"gets", results.Gets,
		"asyncs", results.Asyncs,
		"preloads", results.Preloads,
		"procedurals", results.Procedurals,
		"errors", results.Errors,
		"canceled", results.Canceled,
		"loader_calls", ldr.loads.Load(),
		"loader_faults", ldr.failures.Load())

	fmt.Println(mgr.GetResourceReport().String())

	if cliCfg.JSONOut != "" {
		if err := writeMetricsJSON(cliCfg.JSONOut, mgr, results); err != nil {
			return fmt.Errorf("write metrics json: %w", err)
		}
		logger.Info("Metrics written", "path", cliCfg.JSONOut)
	}

	return nil
}

// engineConfig loads the engine config file when given, otherwise derives
// one from the profile with the cache budget under the working set.
func engineConfig(cliCfg *CLIConfig, profile *Profile) (*config.Config, error) {
	if cliCfg.ConfigPath != "" {
		return config.NewLoader().LoadFile(cliCfg.ConfigPath)
	}

	loader := config.NewLoader()
	cfg, err := loader.Load()
	if err != nil {
		return nil, err
	}

	cfg.MaxCacheSize = profile.CacheBytes()
	return cfg, nil
}

// benchMetrics is the JSON shape written by --json: the run outcome next
// to the manager's merged metrics.
type benchMetrics struct {
	Ops          int64            `json:"ops"`
	OpsPerSecond float64          `json:"ops_per_second"`
	Errors       int64            `json:"errors"`
	Canceled     int64            `json:"canceled"`
	Elapsed      time.Duration    `json:"elapsed"`
	Manager      resource.Metrics `json:"manager"`
}

func writeMetricsJSON(path string, mgr *resource.Manager, results Results) error {
	out := benchMetrics{
		Ops:          results.totalOps(),
		OpsPerSecond: results.OpsPerSecond(),
		Errors:       results.Errors,
		Canceled:     results.Canceled,
		Elapsed:      results.Elapsed,
		Manager:      mgr.GetPerformanceMetrics(),
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
