package config

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Update represents a configuration change notification
type Update struct {
	Path   string      // Changed top-level key (e.g. "max_cache_size", "retry")
	Config *SafeConfig // Full latest configuration
}

// Manager watches a config file and republishes validated changes.
// Subscribers register interest in top-level keys and receive an Update
// whenever a reload changes one of them.
type Manager struct {
	config *SafeConfig // Current configuration
	loader *Loader     // Re-reads the file on change
	path   string      // Watched config file

	watcher     *fsnotify.Watcher        // Filesystem notifications
	subscribers map[string][]chan Update // Pattern -> channels
	mu          sync.RWMutex             // Protects subscribers map
	logger      *slog.Logger             // Structured logger

	// Lifecycle management
	shutdownCh chan struct{}  // Signal shutdown to goroutines
	wg         sync.WaitGroup // Track all goroutines
	stopped    atomic.Bool    // Indicates manager is stopped
}

// NewManager creates a configuration manager for the given file
func NewManager(cfg *Config, path string, logger *slog.Logger) (*Manager, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if path == "" {
		return nil, fmt.Errorf("config path cannot be empty")
	}
	if logger == nil {
		logger = slog.Default()
	}

	loader := NewLoader()
	loader.EnableValidation(true)

	return &Manager{
		config:      NewSafeConfig(cfg),
		loader:      loader,
		path:        filepath.Clean(path),
		subscribers: make(map[string][]chan Update),
		logger:      logger,
	}, nil
}

// GetConfig returns the current configuration
func (cm *Manager) GetConfig() *SafeConfig {
	return cm.config
}

// OnChange subscribes to configuration changes matching the pattern.
// Returns a channel that receives updates when configuration changes
// Pattern examples:
//   - "max_cache_size" - exact top-level key
//   - "retry" - the whole retry section
//   - "metrics*" - keys starting with metrics
//   - "*" - every change
func (cm *Manager) OnChange(pattern string) <-chan Update {
	ch := make(chan Update, 1) // Buffered to prevent blocking

	cm.mu.Lock()
	cm.subscribers[pattern] = append(cm.subscribers[pattern], ch)
	cm.mu.Unlock()

	// Send initial config immediately
	select {
	case ch <- Update{
		Path:   pattern,
		Config: cm.config,
	}:
	default:
		// Channel full, skip initial update
	}

	return ch
}

// Start begins watching the config file for changes
func (cm *Manager) Start(ctx context.Context) error {
	// Initialize shutdown channel
	cm.shutdownCh = make(chan struct{})

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}

	// Watch the directory rather than the file: editors and deploy
	// tools replace config files by rename, which would orphan a watch
	// on the file itself
	dir := filepath.Dir(cm.path)
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	cm.watcher = watcher
	cm.logger.Info("Watching config file", "path", cm.path)

	cm.wg.Add(1)
	go cm.processEvents(ctx)

	return nil
}

// Stop stops watching for configuration changes
func (cm *Manager) Stop(timeout time.Duration) error {
	// Mark as stopped to prevent new operations
	if !cm.stopped.CompareAndSwap(false, true) {
		return nil // Already stopped
	}

	// Signal shutdown to the watch goroutine
	if cm.shutdownCh != nil {
		close(cm.shutdownCh)
	}

	// Closing the watcher also closes its event channels
	if cm.watcher != nil {
		_ = cm.watcher.Close()
	}

	// Wait for goroutines to finish with timeout
	done := make(chan struct{})
	go func() {
		cm.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		// Clean shutdown
	case <-time.After(timeout):
		cm.logger.Warn("Manager shutdown timeout", "timeout", timeout)
	}

	// Now close all subscriber channels (after the watcher stopped)
	cm.mu.Lock()
	for _, channels := range cm.subscribers {
		for _, ch := range channels {
			close(ch)
		}
	}
	cm.subscribers = make(map[string][]chan Update)
	cm.mu.Unlock()

	return nil
}

// processEvents handles filesystem notifications until shutdown
func (cm *Manager) processEvents(ctx context.Context) {
	defer cm.wg.Done()

	for {
		select {
		case <-ctx.Done():
			// Parent context cancelled
			return

		case <-cm.shutdownCh:
			// Manager is shutting down
			return

		case event, ok := <-cm.watcher.Events:
			if !ok || filepath.Clean(event.Name) != cm.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			cm.logger.Debug("Config file changed", "file", event.Name, "event", event.Op)
			cm.Reload()

		case err, ok := <-cm.watcher.Errors:
			if !ok {
				return
			}
			cm.logger.Warn("Config watch error", "path", cm.path, "error", err)
		}
	}
}

// Reload re-reads the config file and publishes any changes. A file
// that fails to load or validate leaves the previous configuration in
// place.
func (cm *Manager) Reload() {
	// Check if we're shutting down
	if cm.stopped.Load() {
		return
	}

	fresh, err := cm.loader.LoadFile(cm.path)
	if err != nil {
		cm.logger.Warn("Config reload failed, keeping previous",
			"path", cm.path,
			"error", err)
		return
	}

	previous := cm.config.Get()

	// A version moving backwards usually means a stale file was
	// deployed; apply it anyway but make the rollback visible
	if fresh.Version != "" && previous.Version != "" {
		if cmp, err := CompareVersions(fresh.Version, previous.Version); err == nil && cmp < 0 {
			cm.logger.Warn("Config file version went backwards",
				"file_version", fresh.Version,
				"running_version", previous.Version)
		}
	}

	changed := changedKeys(previous, fresh)
	if len(changed) == 0 {
		cm.logger.Debug("Config reload produced no changes")
		return
	}

	if err := cm.config.Update(fresh); err != nil {
		cm.logger.Warn("Config reload rejected", "error", err)
		return
	}
	cm.logger.Info("Config reloaded", "path", cm.path, "changed", changed)

	for _, key := range changed {
		cm.notify(key)
	}
}

// notify delivers an update to every subscriber whose pattern matches
func (cm *Manager) notify(key string) {
	update := Update{
		Path:   key,
		Config: cm.config,
	}

	// Notify matching subscribers - check shutdown before each send
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	for pattern, channels := range cm.subscribers {
		if !matchesPattern(key, pattern) {
			continue
		}
		for _, ch := range channels {
			// Check if still running before sending
			if cm.stopped.Load() {
				return
			}

			// Non-blocking send: a slow subscriber misses intermediate
			// updates but can always read the latest via SafeConfig
			select {
			case ch <- update:
				// Sent successfully
			default:
				// Channel full, subscriber not keeping up
			}
		}
	}
}

// matchesPattern checks if a key matches a subscription pattern
func matchesPattern(key, pattern string) bool {
	// Exact match or match-all
	if pattern == key || pattern == "*" {
		return true
	}

	// Prefix wildcard: "metrics*" matches "metrics"
	if strings.HasSuffix(pattern, "*") {
		return strings.HasPrefix(key, strings.TrimSuffix(pattern, "*"))
	}

	return false
}

// changedKeys reports which top-level config keys differ between two
// configurations, in sorted order
func changedKeys(previous, next *Config) []string {
	prevKeys := topLevelJSON(previous)
	nextKeys := topLevelJSON(next)

	var changed []string
	for key, val := range nextKeys {
		if prev, ok := prevKeys[key]; !ok || prev != val {
			changed = append(changed, key)
		}
	}
	for key := range prevKeys {
		if _, ok := nextKeys[key]; !ok {
			changed = append(changed, key)
		}
	}

	sort.Strings(changed)
	return changed
}

// topLevelJSON flattens a config into its top-level keys, each value
// re-encoded as JSON for comparison
func topLevelJSON(cfg *Config) map[string]string {
	data, err := json.Marshal(cfg)
	if err != nil {
		return nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}

	out := make(map[string]string, len(raw))
	for key, val := range raw {
		out[key] = string(val)
	}
	return out
}
