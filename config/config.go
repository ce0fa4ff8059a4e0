package config

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/atlas3d/assetstream/asset"
	"github.com/atlas3d/assetstream/errors"
	"github.com/atlas3d/assetstream/pkg/retry"
)

// Config represents the complete cache and loading configuration.
// The runtime-adjustable knobs (max_cache_size, texture_quality,
// max_concurrent_loads, cache_expiry) sit at the top level; retry,
// event and metrics tuning nest below them.
type Config struct {
	Version string `json:"version,omitempty"` // Semantic version (e.g. "1.0.0") used to detect stale reloads

	AssetRoot string `json:"asset_root,omitempty"` // Directory served by the filesystem loader

	MaxCacheSize       int64         `json:"max_cache_size"`       // Cache budget in bytes; accepts "256MB" style strings
	TextureQuality     asset.Quality `json:"texture_quality"`      // low, medium or high
	MaxConcurrentLoads int           `json:"max_concurrent_loads"` // Scheduler slot count
	CacheExpiry        time.Duration `json:"cache_expiry"`         // Idle TTL applied by the sweep path
	EnableCompression  bool          `json:"enable_compression"`   // zstd-compress large payloads at rest

	LoadTimeout    time.Duration `json:"load_timeout"`              // Per-attempt loader deadline
	PreloadTimeout time.Duration `json:"preload_timeout"`           // Whole-batch preload deadline
	LoadRateLimit  float64       `json:"load_rate_limit,omitempty"` // Dispatches per second, 0 = unlimited

	Retry       RetryConfig       `json:"retry"`
	EventBuffer EventBufferConfig `json:"event_buffer"`
	Metrics     MetricsConfig     `json:"metrics"`
}

// RetryConfig tunes how failed loads are re-attempted.
type RetryConfig struct {
	MaxRetries int           `json:"max_retries"`        // Retries after the first attempt
	Backoff    time.Duration `json:"backoff"`            // Base delay between attempts
	Strategy   string        `json:"strategy,omitempty"` // "linear" or "exponential"
}

// EventBufferConfig tunes the notification bus.
type EventBufferConfig struct {
	Capacity int    `json:"capacity"`         // Per-subscriber queue depth
	Policy   string `json:"policy,omitempty"` // "drop_oldest" or "drop_newest"
}

// MetricsConfig controls the optional Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `json:"enabled"`
	Port    int    `json:"port,omitempty"`
	Path    string `json:"path,omitempty"`
}

// SafeConfig provides thread-safe access to configuration
type SafeConfig struct {
	mu     sync.RWMutex
	config *Config
}

// NewSafeConfig creates a new thread-safe config wrapper
func NewSafeConfig(cfg *Config) *SafeConfig {
	if cfg == nil {
		cfg = &Config{}
	}
	return &SafeConfig{
		config: cfg,
	}
}

// Get returns a deep copy of the current configuration
func (sc *SafeConfig) Get() *Config {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.config.Clone()
}

// Update atomically updates the configuration after validation
func (sc *SafeConfig) Update(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config cannot be nil")
	}

	// Validate before updating
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.config = cfg
	return nil
}

// Clone creates a deep copy of the configuration
func (c *Config) Clone() *Config {
	if c == nil {
		return &Config{}
	}

	// Use JSON marshaling/unmarshaling for deep copy
	data, err := json.Marshal(c)
	if err != nil {
		// Fallback to shallow copy if marshaling fails
		copied := *c
		return &copied
	}

	var clone Config
	if err := json.Unmarshal(data, &clone); err != nil {
		// Fallback to shallow copy if unmarshaling fails
		copied := *c
		return &copied
	}

	return &clone
}

// Validate checks if the config is valid. Enum-valued string fields are
// normalized to lowercase as a side effect, so a file spelling the
// quality "Medium" still round-trips cleanly.
func (c *Config) Validate() error {
	if c.MaxCacheSize <= 0 {
		return stderrors.New("max_cache_size must be positive")
	}

	c.TextureQuality = asset.Quality(strings.ToLower(string(c.TextureQuality)))
	if !c.TextureQuality.Valid() {
		return fmt.Errorf("texture_quality %q must be one of low, medium, high", c.TextureQuality)
	}

	if c.MaxConcurrentLoads <= 0 {
		return stderrors.New("max_concurrent_loads must be positive")
	}
	if c.MaxConcurrentLoads > maxConcurrentLoadsCap {
		return fmt.Errorf("max_concurrent_loads %d exceeds limit %d", c.MaxConcurrentLoads, maxConcurrentLoadsCap)
	}
	if c.CacheExpiry <= 0 {
		return stderrors.New("cache_expiry must be positive")
	}
	if c.LoadTimeout <= 0 {
		return stderrors.New("load_timeout must be positive")
	}
	if c.PreloadTimeout <= 0 {
		return stderrors.New("preload_timeout must be positive")
	}
	if c.LoadRateLimit < 0 {
		return stderrors.New("load_rate_limit cannot be negative")
	}

	if c.Retry.MaxRetries < 0 {
		return stderrors.New("retry.max_retries cannot be negative")
	}
	if c.Retry.MaxRetries > maxRetriesCap {
		return fmt.Errorf("retry.max_retries %d exceeds limit %d", c.Retry.MaxRetries, maxRetriesCap)
	}
	if c.Retry.Backoff < 0 {
		return stderrors.New("retry.backoff cannot be negative")
	}
	c.Retry.Strategy = strings.ToLower(c.Retry.Strategy)
	switch c.Retry.Strategy {
	case "", "linear", "exponential":
	default:
		return fmt.Errorf("retry.strategy %q must be linear or exponential", c.Retry.Strategy)
	}

	if c.EventBuffer.Capacity <= 0 {
		return stderrors.New("event_buffer.capacity must be positive")
	}
	c.EventBuffer.Policy = strings.ToLower(c.EventBuffer.Policy)
	switch c.EventBuffer.Policy {
	case "", "drop_oldest", "drop_newest":
	default:
		return fmt.Errorf("event_buffer.policy %q must be drop_oldest or drop_newest", c.EventBuffer.Policy)
	}

	if c.Metrics.Enabled {
		if c.Metrics.Port < 1 || c.Metrics.Port > 65535 {
			return fmt.Errorf("metrics.port %d must be between 1 and 65535", c.Metrics.Port)
		}
		if c.Metrics.Path != "" && !strings.HasPrefix(c.Metrics.Path, "/") {
			return fmt.Errorf("metrics.path %q must start with /", c.Metrics.Path)
		}
	}

	return nil
}

const (
	// maxConcurrentLoadsCap bounds the scheduler slot count; beyond
	// this the loader fan-out stops helping and only burns memory.
	maxConcurrentLoadsCap = 256

	// maxRetriesCap keeps exponential backoff schedules from
	// overflowing when the delay doubles per attempt.
	maxRetriesCap = 10
)

// RetryPolicy maps the retry section onto the retry package's config.
// max_retries counts the attempts after the first, so the default of 3
// retries means 4 attempts in total.
func (c *Config) RetryPolicy() retry.Config {
	attempts := c.Retry.MaxRetries + 1
	backoff := c.Retry.Backoff
	if backoff <= 0 {
		backoff = time.Second
	}

	if retry.ParseStrategy(c.Retry.Strategy) == retry.StrategyLinear {
		return retry.Linear(attempts, backoff)
	}
	return retry.Config{
		MaxAttempts:  attempts,
		InitialDelay: backoff,
		MaxDelay:     backoff << uint(c.Retry.MaxRetries),
		Multiplier:   2.0,
		Strategy:     retry.StrategyExponential,
		AddJitter:    true,
	}
}

// Loader handles configuration loading with layers and overrides
type Loader struct {
	layers     []string
	validation bool
	envPrefix  string
}

// NewLoader creates a new configuration loader
func NewLoader() *Loader {
	return &Loader{
		layers:     []string{},
		validation: false,
		envPrefix:  "ASSETSTREAM",
	}
}

// AddLayer adds a configuration file layer
func (l *Loader) AddLayer(path string) {
	l.layers = append(l.layers, path)
}

// EnableValidation enables or disables configuration validation
func (l *Loader) EnableValidation(enable bool) {
	l.validation = enable
}

// LoadFile loads configuration from a single file
func (l *Loader) LoadFile(path string) (*Config, error) {
	l.layers = []string{path}
	return l.Load()
}

// Load loads and merges all configuration layers
func (l *Loader) Load() (*Config, error) {
	// Start with defaults
	cfg := l.getDefaults()

	// Load each layer and merge using map-based approach
	for _, path := range l.layers {
		rawConfig, err := l.loadRawJSON(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", path, err)
		}
		cfg = l.mergeFromMap(cfg, rawConfig)
	}

	// Apply environment overrides
	l.applyEnvOverrides(cfg)

	// Validate if enabled
	if l.validation {
		if err := cfg.Validate(); err != nil {
			return nil, errors.WrapInvalid(fmt.Errorf("%w: %v", errors.ErrInvalidConfig, err),
				"config", "Load", "validate configuration")
		}
	}

	return cfg, nil
}

// getDefaults returns default configuration
func (l *Loader) getDefaults() *Config {
	return &Config{
		MaxCacheSize:       256 << 20,
		TextureQuality:     asset.QualityMedium,
		MaxConcurrentLoads: 6,
		CacheExpiry:        30 * time.Minute,
		EnableCompression:  false,
		LoadTimeout:        5 * time.Second,
		PreloadTimeout:     10 * time.Second,
		Retry: RetryConfig{
			MaxRetries: 3,
			Backoff:    time.Second,
			Strategy:   "linear",
		},
		EventBuffer: EventBufferConfig{
			Capacity: 256,
			Policy:   "drop_oldest",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Port:    9100,
			Path:    "/metrics",
		},
	}
}

// loadRawJSON loads configuration from a JSON file as a map
func (l *Loader) loadRawJSON(path string) (map[string]any, error) {
	// Use secure file reading with validation
	data, err := safeReadFile(path)
	if err != nil {
		return nil, err
	}

	// Validate JSON depth to prevent DoS
	if err := validateJSONDepth(data); err != nil {
		return nil, fmt.Errorf("invalid JSON structure: %w", err)
	}

	// Schema-check the raw document so key typos fail the load instead
	// of silently falling back to defaults
	if l.validation {
		if err := ValidateSchema(data); err != nil {
			return nil, err
		}
	}

	// Unmarshal into map
	var rawConfig map[string]any
	if err := json.Unmarshal(data, &rawConfig); err != nil {
		return nil, err
	}

	// Convert duration strings and humanized sizes
	l.normalizeRawValues(rawConfig)

	return rawConfig, nil
}

// mergeFromMap merges configuration from a raw map, only overriding fields present in the map
func (l *Loader) mergeFromMap(base *Config, override map[string]any) *Config {
	if override == nil {
		return base
	}

	// Marshal the base config to JSON then to map
	baseJSON, err := json.Marshal(base)
	if err != nil {
		return base
	}

	var baseMap map[string]any
	if err := json.Unmarshal(baseJSON, &baseMap); err != nil {
		return base
	}

	// Deep merge the maps
	mergedMap := l.deepMergeMaps(baseMap, override)

	// Convert back to Config
	mergedJSON, err := json.Marshal(mergedMap)
	if err != nil {
		return base
	}

	var merged Config
	if err := json.Unmarshal(mergedJSON, &merged); err != nil {
		return base
	}

	return &merged
}

// deepMergeMaps recursively merges two maps, with override taking precedence
func (l *Loader) deepMergeMaps(base, override map[string]any) map[string]any {
	result := make(map[string]any)

	// Copy base values
	for k, v := range base {
		result[k] = v
	}

	// Override with values from override map
	for k, v := range override {
		if v == nil {
			continue
		}

		// If both base and override have maps at this key, merge them
		if baseMap, baseOk := base[k].(map[string]any); baseOk {
			if overrideMap, overrideOk := v.(map[string]any); overrideOk {
				result[k] = l.deepMergeMaps(baseMap, overrideMap)
				continue
			}
		}

		// Otherwise, override takes precedence
		result[k] = v
	}

	return result
}

// normalizeRawValues converts human-friendly spellings in a raw config
// map into the numeric forms the JSON decoder expects: duration strings
// become nanoseconds and "256MB" style sizes become byte counts.
func (l *Loader) normalizeRawValues(data map[string]any) {
	for _, key := range []string{"cache_expiry", "load_timeout", "preload_timeout"} {
		if s, ok := data[key].(string); ok {
			if d, err := parseDuration(s); err == nil {
				data[key] = d.Nanoseconds()
			}
		}
	}

	if s, ok := data["max_cache_size"].(string); ok {
		if n, err := parseByteSize(s); err == nil {
			data["max_cache_size"] = n
		}
	}

	if retryMap, ok := data["retry"].(map[string]any); ok {
		if s, ok := retryMap["backoff"].(string); ok {
			if d, err := parseDuration(s); err == nil {
				retryMap["backoff"] = d.Nanoseconds()
			}
		}
	}
}

// mergeConfigs merges configuration layers
// This is primarily used for testing - the main Load() uses mergeFromMap
func (l *Loader) mergeConfigs(base, override *Config) *Config {
	if override == nil {
		return base
	}

	// Convert both to maps and use the map-based merge
	baseJSON, err := json.Marshal(base)
	if err != nil {
		return base
	}
	var baseMap map[string]any
	if err := json.Unmarshal(baseJSON, &baseMap); err != nil {
		return base
	}

	overrideJSON, err := json.Marshal(override)
	if err != nil {
		return base
	}
	var overrideMap map[string]any
	if err := json.Unmarshal(overrideJSON, &overrideMap); err != nil {
		return base
	}

	// Remove nil values from override map (these are zero values in Go structs)
	l.removeNilValues(overrideMap)

	// Merge and convert back
	mergedMap := l.deepMergeMaps(baseMap, overrideMap)
	mergedJSON, err := json.Marshal(mergedMap)
	if err != nil {
		return base
	}

	var merged Config
	if err := json.Unmarshal(mergedJSON, &merged); err != nil {
		return base
	}

	return &merged
}

// removeNilValues recursively removes nil values from a map
func (l *Loader) removeNilValues(m map[string]any) {
	for k, v := range m {
		if v == nil {
			delete(m, k)
		} else if nested, ok := v.(map[string]any); ok {
			l.removeNilValues(nested)
		}
	}
}

// applyEnvOverrides applies environment variable overrides
func (l *Loader) applyEnvOverrides(cfg *Config) {
	if val, ok := l.envValue("ASSET_ROOT"); ok {
		cfg.AssetRoot = val
	}
	if val, ok := l.envValue("MAX_CACHE_SIZE"); ok {
		if n, err := parseByteSize(val); err == nil {
			cfg.MaxCacheSize = n
		}
	}
	if val, ok := l.envValue("TEXTURE_QUALITY"); ok {
		cfg.TextureQuality = asset.Quality(strings.ToLower(val))
	}
	if val, ok := l.envValue("MAX_CONCURRENT_LOADS"); ok {
		if n, err := strconv.Atoi(val); err == nil {
			cfg.MaxConcurrentLoads = n
		}
	}
	if val, ok := l.envValue("CACHE_EXPIRY"); ok {
		if d, err := parseDuration(val); err == nil {
			cfg.CacheExpiry = d
		}
	}
	if val, ok := l.envValue("LOAD_TIMEOUT"); ok {
		if d, err := parseDuration(val); err == nil {
			cfg.LoadTimeout = d
		}
	}
	if val, ok := l.envValue("PRELOAD_TIMEOUT"); ok {
		if d, err := parseDuration(val); err == nil {
			cfg.PreloadTimeout = d
		}
	}
	if val, ok := l.envValue("LOAD_RATE_LIMIT"); ok {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.LoadRateLimit = f
		}
	}
	if val, ok := l.envValue("METRICS_ENABLED"); ok {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Metrics.Enabled = b
		}
	}
	if val, ok := l.envValue("METRICS_PORT"); ok {
		if n, err := strconv.Atoi(val); err == nil {
			cfg.Metrics.Port = n
		}
	}
}

// SaveToFile saves the configuration to a JSON file
func (c *Config) SaveToFile(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	// Use secure file writing with validation
	return safeWriteFile(path, data)
}

// String returns a JSON representation of the config
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c, "", "  ")
	return string(data)
}

// CompareVersions compares two semver version strings
// Returns:
//
//	-1 if v1 < v2
//	 0 if v1 == v2
//	 1 if v1 > v2
//	error if either version is invalid
func CompareVersions(v1, v2 string) (int, error) {
	a, err := parseSemVer(v1)
	if err != nil {
		return 0, fmt.Errorf("invalid version '%s': %w", v1, err)
	}

	b, err := parseSemVer(v2)
	if err != nil {
		return 0, fmt.Errorf("invalid version '%s': %w", v2, err)
	}

	for i := range a {
		if a[i] != b[i] {
			if a[i] > b[i] {
				return 1, nil
			}
			return -1, nil
		}
	}

	return 0, nil
}

// parseSemVer parses a semantic version string (e.g., "1.2.3") into its
// major, minor and patch parts
func parseSemVer(version string) ([3]int, error) {
	var out [3]int

	if version == "" {
		return out, stderrors.New("version cannot be empty")
	}

	// Remove 'v' prefix if present
	version = strings.TrimPrefix(version, "v")

	parts := strings.Split(version, ".")
	if len(parts) != 3 {
		return out, fmt.Errorf("version must be in format 'major.minor.patch', got '%s'", version)
	}

	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil {
			return out, fmt.Errorf("invalid version part '%s': %w", part, err)
		}
		out[i] = n
	}

	return out, nil
}

// UnmarshalJSON implements custom JSON unmarshaling for Config. Duration
// fields accept both strings ("30m") and nanosecond numbers, and
// max_cache_size additionally accepts humanized sizes ("256MB").
func (c *Config) UnmarshalJSON(data []byte) error {
	type Alias Config
	aux := &struct {
		MaxCacheSize   any `json:"max_cache_size"`
		CacheExpiry    any `json:"cache_expiry"`
		LoadTimeout    any `json:"load_timeout"`
		PreloadTimeout any `json:"preload_timeout"`
		Retry          struct {
			MaxRetries int    `json:"max_retries"`
			Backoff    any    `json:"backoff"`
			Strategy   string `json:"strategy,omitempty"`
		} `json:"retry"`
		*Alias
	}{
		Alias: (*Alias)(c),
	}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	size, err := coerceByteSize(aux.MaxCacheSize)
	if err != nil {
		return fmt.Errorf("max_cache_size: %w", err)
	}
	c.MaxCacheSize = size

	if c.CacheExpiry, err = coerceDuration(aux.CacheExpiry); err != nil {
		return fmt.Errorf("cache_expiry: %w", err)
	}
	if c.LoadTimeout, err = coerceDuration(aux.LoadTimeout); err != nil {
		return fmt.Errorf("load_timeout: %w", err)
	}
	if c.PreloadTimeout, err = coerceDuration(aux.PreloadTimeout); err != nil {
		return fmt.Errorf("preload_timeout: %w", err)
	}

	c.Retry.MaxRetries = aux.Retry.MaxRetries
	c.Retry.Strategy = aux.Retry.Strategy
	if c.Retry.Backoff, err = coerceDuration(aux.Retry.Backoff); err != nil {
		return fmt.Errorf("retry.backoff: %w", err)
	}

	return nil
}
