package config

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/atlas3d/assetstream/asset"
)

func validTestConfig(quality asset.Quality) *Config {
	return &Config{
		MaxCacheSize:       64 << 20,
		TextureQuality:     quality,
		MaxConcurrentLoads: 4,
		CacheExpiry:        10 * time.Minute,
		LoadTimeout:        2 * time.Second,
		PreloadTimeout:     8 * time.Second,
		Retry:              RetryConfig{MaxRetries: 2, Backoff: time.Second, Strategy: "linear"},
		EventBuffer:        EventBufferConfig{Capacity: 32, Policy: "drop_oldest"},
	}
}

func TestSafeConfig_ThreadSafety(t *testing.T) {
	safeConfig := NewSafeConfig(validTestConfig(asset.QualityLow))

	const numGoroutines = 100
	const numOperations = 1000

	var wg sync.WaitGroup
	errors := make(chan error, numGoroutines)

	// Start multiple goroutines doing concurrent reads
	for i := 0; i < numGoroutines/2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < numOperations; j++ {
				cfg := safeConfig.Get()
				if cfg == nil {
					errors <- fmt.Errorf("got nil config")
					return
				}
				if cfg.TextureQuality != asset.QualityLow && cfg.TextureQuality != asset.QualityHigh {
					errors <- fmt.Errorf("unexpected quality: %s", cfg.TextureQuality)
					return
				}
			}
		}()
	}

	// Start multiple goroutines doing concurrent updates
	for i := 0; i < numGoroutines/2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < numOperations/10; j++ { // Fewer updates than reads
				if err := safeConfig.Update(validTestConfig(asset.QualityHigh)); err != nil {
					errors <- fmt.Errorf("update failed: %w", err)
					return
				}
			}
		}()
	}

	// Wait for all goroutines to complete
	done := make(chan bool)
	go func() {
		wg.Wait()
		close(done)
	}()

	// Wait for completion or timeout
	select {
	case <-done:
		// Check for errors
		close(errors)
		for err := range errors {
			t.Fatalf("Concurrent access error: %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("Test timed out - possible deadlock")
	}
}

func TestSafeConfig_NilHandling(t *testing.T) {
	// Test with nil config
	safeConfig := NewSafeConfig(nil)

	cfg := safeConfig.Get()
	if cfg == nil {
		t.Error("SafeConfig.Get() should not return nil even with nil base config")
	}

	// Test updating with nil
	err := safeConfig.Update(nil)
	if err == nil {
		t.Error("SafeConfig.Update(nil) should return an error")
	}
}

func TestSafeConfig_ValidationDuringUpdate(t *testing.T) {
	safeConfig := NewSafeConfig(validTestConfig(asset.QualityMedium))

	// Try to update with an invalid config
	invalid := validTestConfig(asset.QualityMedium)
	invalid.MaxCacheSize = -1

	err := safeConfig.Update(invalid)
	if err == nil {
		t.Error("Update with invalid config should fail validation")
	}

	// Original config should remain unchanged
	cfg := safeConfig.Get()
	if cfg.MaxCacheSize != 64<<20 {
		t.Error("Original config was modified after failed update")
	}
}

func TestSafeConfig_DeepCopy(t *testing.T) {
	safeConfig := NewSafeConfig(validTestConfig(asset.QualityMedium))

	// Get two copies
	cfg1 := safeConfig.Get()
	cfg2 := safeConfig.Get()

	// Modify cfg1
	cfg1.TextureQuality = asset.QualityHigh
	cfg1.Retry.MaxRetries = 99
	cfg1.EventBuffer.Capacity = 1

	// cfg2 should be unchanged
	if cfg2.TextureQuality != asset.QualityMedium {
		t.Error("Deep copy failed - cfg2 was affected by cfg1 modification")
	}
	if cfg2.Retry.MaxRetries != 2 {
		t.Error("Deep copy failed - cfg2 retry settings were affected")
	}

	// Original config should also be unchanged
	originalCfg := safeConfig.Get()
	if originalCfg.EventBuffer.Capacity != 32 {
		t.Error("Original config was modified")
	}
}

func TestConfigClone(t *testing.T) {
	tests := []struct {
		name   string
		config *Config
	}{
		{
			name:   "nil config",
			config: nil,
		},
		{
			name:   "empty config",
			config: &Config{},
		},
		{
			name:   "full config",
			config: validTestConfig(asset.QualityHigh),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clone := tt.config.Clone()

			if tt.config == nil {
				if clone == nil {
					t.Error("Clone of nil should return empty config, not nil")
				}
				return
			}

			// Verify deep copy by modifying the original
			tt.config.MaxCacheSize = 1
			tt.config.Retry.MaxRetries = 42

			if clone.MaxCacheSize == 1 && tt.name == "full config" {
				t.Error("Clone was affected by original modification")
			}
			if clone.Retry.MaxRetries == 42 {
				t.Error("Clone retry settings were affected by original modification")
			}
		})
	}
}

func TestConfigClone_PreservesDurations(t *testing.T) {
	cfg := validTestConfig(asset.QualityMedium)
	clone := cfg.Clone()

	if clone.CacheExpiry != 10*time.Minute {
		t.Errorf("CacheExpiry = %v, want 10m", clone.CacheExpiry)
	}
	if clone.Retry.Backoff != time.Second {
		t.Errorf("Retry.Backoff = %v, want 1s", clone.Retry.Backoff)
	}
}
