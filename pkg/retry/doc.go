// Package retry provides backoff retry logic for transient failures.
//
// # Overview
//
// This package offers a minimal retry mechanism with exponential or linear
// backoff, designed to handle transient failures in asset loading, file I/O,
// and resource initialization.
//
// # Core Functions
//
//   - Do: Execute function with retry and backoff
//   - DoWithResult: Execute function with retry, returns both result and error
//
// # Configuration Presets
//
//   - DefaultConfig(): 3 attempts, 100ms-5s exponential delay (normal operations)
//   - Linear(n, step): n attempts, wait grows by step per attempt (asset loads)
//   - Quick(): 10 attempts, 50ms-1s delay (startup probing)
//
// # Usage Examples
//
// Asset loading with linear backoff:
//
//	cfg := retry.Linear(4, time.Second)
//	err := retry.Do(ctx, cfg, func() error {
//	    return loadFromDisk(path)
//	})
//
// Retry with result:
//
//	tex, err := retry.DoWithResult(ctx, retry.DefaultConfig(), func() (*asset.Texture, error) {
//	    return decodeTexture(path)
//	})
//
// Custom configuration:
//
//	cfg := retry.Config{
//	    MaxAttempts:  5,
//	    InitialDelay: 200 * time.Millisecond,
//	    MaxDelay:     10 * time.Second,
//	    Multiplier:   2.0,
//	    AddJitter:    true,
//	}
//	err := retry.Do(ctx, cfg, operation)
//
// # Backoff Strategies
//
// Exponential multiplies the delay after every failure (delay, delay*m,
// delay*m^2, ...), capped at MaxDelay. Linear grows the wait by one step
// per attempt (step, 2*step, 3*step, ...), which keeps load retry timing
// easy to reason about in frame traces.
//
// # Non-Retryable Errors
//
// Wrap an error with NonRetryable to stop the loop immediately:
//
//	if !errors.IsTransient(err) {
//	    return retry.NonRetryable(err)
//	}
//	return err
//
// The caller classifies; this package only honors the marker.
//
// # Design Philosophy
//
// This package is intentionally minimal:
//
//   - No circuit breakers (use a separate package if needed)
//   - No metrics collection (use instrumentation at call site)
//   - No error classification (caller decides what to retry)
//   - Just backoff with optional jitter
//
// # Context Cancellation
//
// All retry operations respect context cancellation and will immediately stop
// retrying when the context is cancelled, either during operation execution or
// during backoff delay.
//
// # Thread Safety
//
// All functions are safe for concurrent use. The jitter mechanism uses a
// thread-safe random source to avoid contention.
package retry
