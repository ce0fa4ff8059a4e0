// Package config provides configuration management for the asset
// streaming runtime.
//
// This package handles loading, validation, and dynamic reloads of
// configuration from JSON files and environment variables.
//
// # Core Components
//
// Config: Main configuration structure covering the cache budget,
// texture quality, scheduler concurrency, TTL sweeping, retry policy,
// event buffering, and the optional metrics endpoint.
//
// SafeConfig: Thread-safe wrapper using RWMutex and deep cloning to
// prevent concurrent access issues and accidental mutations.
//
// Loader: Loads configuration with layer merging (base + overrides),
// JSON Schema checking, and environment variable substitution.
//
// Manager: Watches the config file via fsnotify and republishes
// validated changes to subscribers through channels.
//
// # Basic Usage
//
// Loading configuration from files with layer merging:
//
//	loader := config.NewLoader()
//	loader.AddLayer("config/base.json")
//	loader.AddLayer("config/production.json") // Overrides base
//	loader.EnableValidation(true)
//
//	cfg, err := loader.Load()
//	if err != nil {
//		log.Fatal(err)
//	}
//
// # Hot Reload
//
// Using Manager to pick up file edits at runtime:
//
//	cm, err := config.NewManager(cfg, "config/base.json", logger)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	if err := cm.Start(ctx); err != nil {
//		log.Fatal(err)
//	}
//	defer cm.Stop(5 * time.Second)
//
//	// Subscribe to specific config changes
//	updates := cm.OnChange("max_cache_size")
//	for update := range updates {
//		log.Printf("Config changed: %s", update.Path)
//	}
//
// A reload that fails to parse or validate keeps the previous
// configuration and logs a warning; subscribers only hear about
// reloads that actually changed something.
//
// # Thread-Safe Access
//
// SafeConfig ensures thread-safe access to configuration:
//
//	safeConfig := cm.GetConfig()
//
//	// Read config (deep copy returned, safe to use)
//	cfg := safeConfig.Get()
//
//	// Replace config atomically (validated first)
//	cfg.MaxCacheSize = 512 << 20
//	if err := safeConfig.Update(cfg); err != nil {
//		log.Fatal(err)
//	}
//
// # Environment Variable Overrides
//
// Configuration values can be overridden using environment variables:
//
//	# Override the cache budget
//	export ASSETSTREAM_MAX_CACHE_SIZE="512MB"
//
//	# Override texture quality
//	export ASSETSTREAM_TEXTURE_QUALITY="high"
//
//	# Point the loader at a different asset tree
//	export ASSETSTREAM_ASSET_ROOT="/srv/assets"
//
// # Layer Merging
//
// Configuration layers are merged with last-wins semantics:
//
//	base.json:
//	  {"max_cache_size": "256MB", "texture_quality": "medium"}
//
//	production.json:
//	  {"max_cache_size": "1GB"}
//
//	Result:
//	  {"max_cache_size": 1000000000, "texture_quality": "medium"}
//
// Durations may be written as strings ("30m", "14d") and byte sizes in
// humanized form ("256MB", "1 GiB"); both are converted while loading.
//
// # Security
//
// The package includes security validation:
//   - File size limits (4MB max) to prevent memory exhaustion
//   - JSON depth validation (32 levels max) to prevent DoS attacks
//   - Path validation to prevent directory traversal
//   - Regular file checks (no symlinks or device files)
//
// Each layer is additionally checked against an embedded JSON Schema
// when validation is enabled, so a misspelled key or out-of-range value
// fails the load with a field-by-field report.
package config
