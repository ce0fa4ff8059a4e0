package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atlas3d/assetstream/asset"
	"github.com/atlas3d/assetstream/pkg/retry"
)

// Test basic config structure
func TestConfig_Structure(t *testing.T) {
	cfg := &Config{
		MaxCacheSize:       64 << 20,
		TextureQuality:     asset.QualityHigh,
		MaxConcurrentLoads: 4,
		CacheExpiry:        15 * time.Minute,
		Retry: RetryConfig{
			MaxRetries: 2,
			Backoff:    500 * time.Millisecond,
			Strategy:   "linear",
		},
	}

	assert.Equal(t, int64(64<<20), cfg.MaxCacheSize)
	assert.Equal(t, asset.QualityHigh, cfg.TextureQuality)
	assert.Equal(t, 2, cfg.Retry.MaxRetries)
}

// Test loading config from JSON file
func TestLoader_LoadJSON(t *testing.T) {
	testConfig := `{
		"version": "1.2.0",
		"asset_root": "assets",
		"max_cache_size": 134217728,
		"texture_quality": "high",
		"max_concurrent_loads": 8,
		"cache_expiry": "45m",
		"enable_compression": true,
		"load_timeout": "3s",
		"preload_timeout": "12s",
		"load_rate_limit": 20,
		"retry": {
			"max_retries": 5,
			"backoff": "250ms",
			"strategy": "exponential"
		},
		"event_buffer": {
			"capacity": 512,
			"policy": "drop_newest"
		},
		"metrics": {
			"enabled": true,
			"port": 9200,
			"path": "/metrics"
		}
	}`

	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, "config.json")
	err := os.WriteFile(configFile, []byte(testConfig), 0644)
	require.NoError(t, err)

	loader := NewLoader()
	cfg, err := loader.LoadFile(configFile)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "1.2.0", cfg.Version)
	assert.Equal(t, "assets", cfg.AssetRoot)
	assert.Equal(t, int64(134217728), cfg.MaxCacheSize)
	assert.Equal(t, asset.QualityHigh, cfg.TextureQuality)
	assert.Equal(t, 8, cfg.MaxConcurrentLoads)
	assert.Equal(t, 45*time.Minute, cfg.CacheExpiry)
	assert.True(t, cfg.EnableCompression)
	assert.Equal(t, 3*time.Second, cfg.LoadTimeout)
	assert.Equal(t, 12*time.Second, cfg.PreloadTimeout)
	assert.Equal(t, 20.0, cfg.LoadRateLimit)
	assert.Equal(t, 5, cfg.Retry.MaxRetries)
	assert.Equal(t, 250*time.Millisecond, cfg.Retry.Backoff)
	assert.Equal(t, "exponential", cfg.Retry.Strategy)
	assert.Equal(t, 512, cfg.EventBuffer.Capacity)
	assert.Equal(t, "drop_newest", cfg.EventBuffer.Policy)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, 9200, cfg.Metrics.Port)
}

// Test default values
func TestLoader_Defaults(t *testing.T) {
	// Minimal config with missing fields
	testConfig := `{
		"texture_quality": "low"
	}`

	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, "config.json")
	err := os.WriteFile(configFile, []byte(testConfig), 0644)
	require.NoError(t, err)

	loader := NewLoader()
	cfg, err := loader.LoadFile(configFile)
	require.NoError(t, err)

	// Check defaults were applied around the override
	assert.Equal(t, asset.QualityLow, cfg.TextureQuality)
	assert.Equal(t, int64(256<<20), cfg.MaxCacheSize)
	assert.Equal(t, 6, cfg.MaxConcurrentLoads)
	assert.Equal(t, 30*time.Minute, cfg.CacheExpiry)
	assert.False(t, cfg.EnableCompression)
	assert.Equal(t, 5*time.Second, cfg.LoadTimeout)
	assert.Equal(t, 10*time.Second, cfg.PreloadTimeout)
	assert.Equal(t, 3, cfg.Retry.MaxRetries)
	assert.Equal(t, time.Second, cfg.Retry.Backoff)
	assert.Equal(t, "linear", cfg.Retry.Strategy)
	assert.Equal(t, 256, cfg.EventBuffer.Capacity)
	assert.Equal(t, "drop_oldest", cfg.EventBuffer.Policy)
	assert.False(t, cfg.Metrics.Enabled)
	assert.Equal(t, 9100, cfg.Metrics.Port)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
}

// Test humanized byte sizes in config files
func TestLoader_HumanizedSizes(t *testing.T) {
	testConfig := `{
		"max_cache_size": "512MB"
	}`

	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, "config.json")
	err := os.WriteFile(configFile, []byte(testConfig), 0644)
	require.NoError(t, err)

	loader := NewLoader()
	cfg, err := loader.LoadFile(configFile)
	require.NoError(t, err)

	assert.Equal(t, int64(512_000_000), cfg.MaxCacheSize)
}

// Test layer merging with two files
func TestLoader_LayerMerge(t *testing.T) {
	base := `{
		"max_cache_size": "128MB",
		"texture_quality": "low",
		"retry": {"max_retries": 2, "backoff": "2s"}
	}`
	override := `{
		"texture_quality": "high",
		"retry": {"max_retries": 6}
	}`

	tmpDir := t.TempDir()
	baseFile := filepath.Join(tmpDir, "base.json")
	overrideFile := filepath.Join(tmpDir, "production.json")
	require.NoError(t, os.WriteFile(baseFile, []byte(base), 0644))
	require.NoError(t, os.WriteFile(overrideFile, []byte(override), 0644))

	loader := NewLoader()
	loader.AddLayer(baseFile)
	loader.AddLayer(overrideFile)

	cfg, err := loader.Load()
	require.NoError(t, err)

	assert.Equal(t, int64(128_000_000), cfg.MaxCacheSize)     // from base
	assert.Equal(t, asset.QualityHigh, cfg.TextureQuality)    // from override
	assert.Equal(t, 6, cfg.Retry.MaxRetries)                  // from override
	assert.Equal(t, 2*time.Second, cfg.Retry.Backoff)         // from base, survives nested merge
	assert.Equal(t, 6, cfg.MaxConcurrentLoads)                // default
}

// Test environment variable overrides
func TestLoader_EnvOverrides(t *testing.T) {
	_ = os.Setenv("ASSETSTREAM_MAX_CACHE_SIZE", "64MB")
	_ = os.Setenv("ASSETSTREAM_TEXTURE_QUALITY", "HIGH")
	_ = os.Setenv("ASSETSTREAM_MAX_CONCURRENT_LOADS", "12")
	_ = os.Setenv("ASSETSTREAM_CACHE_EXPIRY", "1h")
	defer func() {
		_ = os.Unsetenv("ASSETSTREAM_MAX_CACHE_SIZE")
		_ = os.Unsetenv("ASSETSTREAM_TEXTURE_QUALITY")
		_ = os.Unsetenv("ASSETSTREAM_MAX_CONCURRENT_LOADS")
		_ = os.Unsetenv("ASSETSTREAM_CACHE_EXPIRY")
	}()

	testConfig := `{
		"max_cache_size": 134217728,
		"load_timeout": "7s"
	}`

	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, "config.json")
	err := os.WriteFile(configFile, []byte(testConfig), 0644)
	require.NoError(t, err)

	loader := NewLoader()
	cfg, err := loader.LoadFile(configFile)
	require.NoError(t, err)

	// Env vars should override JSON
	assert.Equal(t, int64(64_000_000), cfg.MaxCacheSize)
	assert.Equal(t, asset.QualityHigh, cfg.TextureQuality)
	assert.Equal(t, 12, cfg.MaxConcurrentLoads)
	assert.Equal(t, time.Hour, cfg.CacheExpiry)

	// JSON value should remain when no env override
	assert.Equal(t, 7*time.Second, cfg.LoadTimeout)
}

// Test validation
func TestLoader_Validation(t *testing.T) {
	tests := []struct {
		name      string
		config    string
		wantError string
	}{
		{
			name:      "zero cache size",
			config:    `{"max_cache_size": 0}`,
			wantError: "max_cache_size",
		},
		{
			name:      "unknown quality",
			config:    `{"texture_quality": "ultra"}`,
			wantError: "texture_quality",
		},
		{
			name:      "zero concurrency",
			config:    `{"max_concurrent_loads": 0}`,
			wantError: "max_concurrent_loads",
		},
		{
			name:      "negative rate limit",
			config:    `{"load_rate_limit": -1}`,
			wantError: "load_rate_limit",
		},
		{
			name:      "retry ceiling",
			config:    `{"retry": {"max_retries": 50}}`,
			wantError: "max_retries",
		},
		{
			name:      "metrics port out of range",
			config:    `{"metrics": {"enabled": true, "port": 90000}}`,
			wantError: "port",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpDir := t.TempDir()
			configFile := filepath.Join(tmpDir, "config.json")
			err := os.WriteFile(configFile, []byte(tt.config), 0644)
			require.NoError(t, err)

			loader := NewLoader()
			loader.EnableValidation(true)

			_, err = loader.LoadFile(configFile)
			assert.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantError)
		})
	}
}

// Test merging configurations
func TestLoader_MergeConfigs(t *testing.T) {
	loader := NewLoader()

	base := &Config{
		MaxCacheSize:       128 << 20,
		TextureQuality:     asset.QualityLow,
		MaxConcurrentLoads: 4,
		Retry: RetryConfig{
			MaxRetries: 2,
			Backoff:    time.Second,
			Strategy:   "linear",
		},
	}

	override := &Config{
		TextureQuality:     asset.QualityHigh,
		MaxConcurrentLoads: 12,
	}

	merged := loader.mergeConfigs(base, override)

	assert.Equal(t, asset.QualityHigh, merged.TextureQuality) // from override
	assert.Equal(t, 12, merged.MaxConcurrentLoads)            // from override
	assert.Equal(t, int64(128<<20), merged.MaxCacheSize)      // from base
	assert.Equal(t, 2, merged.Retry.MaxRetries)               // from base
}

// Test saving configuration back to file
func TestConfig_Save(t *testing.T) {
	cfg := &Config{
		Version:            "2.0.1",
		MaxCacheSize:       96 << 20,
		TextureQuality:     asset.QualityMedium,
		MaxConcurrentLoads: 3,
		CacheExpiry:        20 * time.Minute,
		LoadTimeout:        4 * time.Second,
		PreloadTimeout:     9 * time.Second,
		Retry: RetryConfig{
			MaxRetries: 1,
			Backoff:    2 * time.Second,
			Strategy:   "exponential",
		},
		EventBuffer: EventBufferConfig{Capacity: 64, Policy: "drop_newest"},
	}

	tmpDir := t.TempDir()
	saveFile := filepath.Join(tmpDir, "saved.json")

	err := cfg.SaveToFile(saveFile)
	require.NoError(t, err)

	// Load it back
	loader := NewLoader()
	loaded, err := loader.LoadFile(saveFile)
	require.NoError(t, err)

	assert.Equal(t, cfg.Version, loaded.Version)
	assert.Equal(t, cfg.MaxCacheSize, loaded.MaxCacheSize)
	assert.Equal(t, cfg.TextureQuality, loaded.TextureQuality)
	assert.Equal(t, cfg.MaxConcurrentLoads, loaded.MaxConcurrentLoads)
	assert.Equal(t, cfg.CacheExpiry, loaded.CacheExpiry)
	assert.Equal(t, cfg.LoadTimeout, loaded.LoadTimeout)
	assert.Equal(t, cfg.Retry, loaded.Retry)
	assert.Equal(t, cfg.EventBuffer, loaded.EventBuffer)
}

// Test direct unmarshaling with mixed duration spellings
func TestConfig_UnmarshalJSON(t *testing.T) {
	data := `{
		"max_cache_size": "32MiB",
		"texture_quality": "medium",
		"max_concurrent_loads": 2,
		"cache_expiry": 1800000000000,
		"load_timeout": "2s",
		"preload_timeout": "14d",
		"retry": {"max_retries": 4, "backoff": "3s", "strategy": "linear"},
		"event_buffer": {"capacity": 16}
	}`

	var cfg Config
	err := json.Unmarshal([]byte(data), &cfg)
	require.NoError(t, err)

	assert.Equal(t, int64(32<<20), cfg.MaxCacheSize)
	assert.Equal(t, 30*time.Minute, cfg.CacheExpiry)
	assert.Equal(t, 2*time.Second, cfg.LoadTimeout)
	assert.Equal(t, 14*24*time.Hour, cfg.PreloadTimeout)
	assert.Equal(t, 4, cfg.Retry.MaxRetries)
	assert.Equal(t, 3*time.Second, cfg.Retry.Backoff)
	assert.Equal(t, 16, cfg.EventBuffer.Capacity)
}

func TestConfig_UnmarshalJSON_BadDuration(t *testing.T) {
	var cfg Config
	err := json.Unmarshal([]byte(`{"cache_expiry": "soon"}`), &cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cache_expiry")
}

// Test loading the example config shipped with the package
func TestLoader_ExampleConfig(t *testing.T) {
	loader := NewLoader()
	loader.EnableValidation(true)

	cfg, err := loader.LoadFile("example_config.json")
	require.NoError(t, err)

	assert.Equal(t, "1.0.0", cfg.Version)
	assert.Equal(t, "assets", cfg.AssetRoot)
	assert.Equal(t, int64(256_000_000), cfg.MaxCacheSize)
	assert.Equal(t, asset.QualityMedium, cfg.TextureQuality)
	assert.Equal(t, 6, cfg.MaxConcurrentLoads)
	assert.Equal(t, 30*time.Minute, cfg.CacheExpiry)
	assert.Equal(t, "linear", cfg.Retry.Strategy)
	assert.Equal(t, "drop_oldest", cfg.EventBuffer.Policy)
	assert.Equal(t, 9100, cfg.Metrics.Port)
}

// Test mapping the retry section onto the retry package
func TestConfig_RetryPolicy(t *testing.T) {
	linear := &Config{Retry: RetryConfig{MaxRetries: 3, Backoff: time.Second, Strategy: "linear"}}
	pol := linear.RetryPolicy()
	assert.Equal(t, 4, pol.MaxAttempts)
	assert.Equal(t, time.Second, pol.InitialDelay)
	assert.Equal(t, retry.StrategyLinear, pol.Strategy)

	exp := &Config{Retry: RetryConfig{MaxRetries: 2, Backoff: 500 * time.Millisecond, Strategy: "exponential"}}
	pol = exp.RetryPolicy()
	assert.Equal(t, 3, pol.MaxAttempts)
	assert.Equal(t, 500*time.Millisecond, pol.InitialDelay)
	assert.Equal(t, 2*time.Second, pol.MaxDelay)
	assert.Equal(t, retry.StrategyExponential, pol.Strategy)
	assert.True(t, pol.AddJitter)

	// Zero backoff falls back to one second
	zero := &Config{Retry: RetryConfig{MaxRetries: 1}}
	pol = zero.RetryPolicy()
	assert.Equal(t, time.Second, pol.InitialDelay)
}

func TestCompareVersions(t *testing.T) {
	tests := []struct {
		v1, v2  string
		want    int
		wantErr bool
	}{
		{"1.0.0", "1.0.0", 0, false},
		{"1.2.3", "1.2.4", -1, false},
		{"2.0.0", "1.9.9", 1, false},
		{"v1.1.0", "1.0.9", 1, false},
		{"1.0", "1.0.0", 0, true},
		{"", "1.0.0", 0, true},
		{"a.b.c", "1.0.0", 0, true},
	}

	for _, tt := range tests {
		got, err := CompareVersions(tt.v1, tt.v2)
		if tt.wantErr {
			assert.Error(t, err, "CompareVersions(%q, %q)", tt.v1, tt.v2)
			continue
		}
		require.NoError(t, err, "CompareVersions(%q, %q)", tt.v1, tt.v2)
		assert.Equal(t, tt.want, got, "CompareVersions(%q, %q)", tt.v1, tt.v2)
	}
}

// Loading a path outside the working directory via parent references
// must be rejected
func TestLoader_PathTraversal(t *testing.T) {
	loader := NewLoader()
	_, err := loader.LoadFile("../outside.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "path traversal")
}

func TestLoader_RejectsNonJSON(t *testing.T) {
	loader := NewLoader()
	_, err := loader.LoadFile("config.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JSON")
}
