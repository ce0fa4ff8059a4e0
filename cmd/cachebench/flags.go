package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
)

// CLIConfig holds command-line configuration
type CLIConfig struct {
	ProfilePath string
	ConfigPath  string
	LogLevel    string
	LogFormat   string
	MetricsPort int
	JSONOut     string
	ShowVersion bool
	ShowHelp    bool
}

func parseFlags() *CLIConfig {
	cfg := &CLIConfig{}

	flag.StringVar(&cfg.ProfilePath, "profile",
		getEnv("CACHEBENCH_PROFILE", ""),
		"Path to YAML workload profile, empty for defaults (env: CACHEBENCH_PROFILE)")

	flag.StringVar(&cfg.ConfigPath, "config",
		getEnv("CACHEBENCH_CONFIG", ""),
		"Path to engine config JSON overriding profile-derived settings (env: CACHEBENCH_CONFIG)")

	flag.StringVar(&cfg.LogLevel, "log-level",
		getEnv("CACHEBENCH_LOG_LEVEL", "info"),
		"Log level: debug, info, warn, error (env: CACHEBENCH_LOG_LEVEL)")

	flag.StringVar(&cfg.LogFormat, "log-format",
		getEnv("CACHEBENCH_LOG_FORMAT", "text"),
		"Log format: json, text (env: CACHEBENCH_LOG_FORMAT)")

	flag.IntVar(&cfg.MetricsPort, "metrics-port",
		getEnvInt("CACHEBENCH_METRICS_PORT", 0),
		"Prometheus metrics port, 0 to disable (env: CACHEBENCH_METRICS_PORT)")

	flag.StringVar(&cfg.JSONOut, "json",
		getEnv("CACHEBENCH_JSON", ""),
		"Write final metrics as JSON to this path (env: CACHEBENCH_JSON)")

	flag.BoolVar(&cfg.ShowVersion, "version", false, "Show version information")
	flag.BoolVar(&cfg.ShowHelp, "help", false, "Show help information")
	flag.BoolVar(&cfg.ShowHelp, "h", false, "Show help information")

	flag.Usage = func() {
		printDetailedHelp()
	}

	flag.Parse()

	return cfg
}

func validateFlags(cfg *CLIConfig) error {
	if cfg.ShowVersion || cfg.ShowHelp {
		return nil
	}

	if cfg.ProfilePath != "" {
		if _, err := os.Stat(cfg.ProfilePath); err != nil {
			return fmt.Errorf("profile not found: %s", cfg.ProfilePath)
		}
	}

	if cfg.ConfigPath != "" {
		if _, err := os.Stat(cfg.ConfigPath); err != nil {
			return fmt.Errorf("config file not found: %s", cfg.ConfigPath)
		}
	}

	validLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLevels, cfg.LogLevel) {
		return fmt.Errorf("invalid log level: %s", cfg.LogLevel)
	}

	validFormats := []string{"json", "text"}
	if !contains(validFormats, cfg.LogFormat) {
		return fmt.Errorf("invalid log format: %s", cfg.LogFormat)
	}

	if cfg.MetricsPort < 0 || cfg.MetricsPort > 65535 {
		return fmt.Errorf("invalid metrics port: %d", cfg.MetricsPort)
	}

	return nil
}

func printDetailedHelp() {
	_, _ = fmt.Fprintf(os.Stderr, `%s - Asset Cache Workload Driver

Usage: %s [options]

Options:
`, appName, os.Args[0])
	flag.PrintDefaults()
	_, _ = fmt.Fprintf(os.Stderr, `
Examples:
  # Run the default 30s workload
  %s

  # Run a custom profile with live Prometheus metrics
  %s --profile=workloads/evict-heavy.yaml --metrics-port=9090

  # Capture the final metrics for trending
  %s --profile=workloads/soak.yaml --json=out/metrics.json

Version: %s
`, os.Args[0], os.Args[0], os.Args[0], Version)
}

// Environment variable helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// Utility function to check if slice contains string
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
