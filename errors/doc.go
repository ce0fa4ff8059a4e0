// Package errors provides standardized error handling patterns for assetstream components.
//
// # Overview
//
// The errors package implements a five-class error classification system designed
// for asset loading pipelines: Transient (temporary, retryable), Invalid (bad
// input, non-retryable), Fatal (unrecoverable, stop processing), NotFound (asset
// absent at its source, non-retryable), and Capacity (cache admission failure,
// degrade to serving uncached).
//
// This classification lets the load scheduler, cache store, and resource facade
// make retry and degradation decisions without hardcoded error string matching.
//
// # Error Classification
//
//   - Transient: load timeouts, intermittent IO failures (retry with backoff)
//   - Invalid: malformed keys, bad procedural parameters, wrong asset kind (fail fast)
//   - Fatal: retries exhausted, missing configuration (stop, surface to caller)
//   - NotFound: asset does not exist at the source (fail fast, never retry)
//   - Capacity: entry too large or eviction insufficient (serve uncached)
//
// The classification system integrates with Go's standard error handling,
// supporting errors.Is(), errors.As(), and error wrapping chains.
//
// # Error Wrapping Pattern
//
// All error wrapping follows the standardized format:
//
//	"component.method: action failed: %w"
//
// Five wrapper functions provide classification-aware wrapping:
//
//	errors.WrapTransient(err, "Scheduler", "load", "read asset")   // retryable
//	errors.WrapInvalid(err, "Generator", "Validate", "width")      // fail fast
//	errors.WrapFatal(err, "Scheduler", "load", "retry budget")     // terminal
//	errors.WrapNotFound(err, "Loader", "Load", "resolve path")     // never retry
//	errors.WrapCapacity(err, "Store", "Put", "admit entry")        // serve uncached
//
// The generic Wrap() preserves the original error's classification:
//
//	errors.Wrap(err, "Manager", "GetResource", "schedule load")
//
// # Retry Decisions
//
// The scheduler consults IsTransient before each retry attempt:
//
//	if err := load(ctx); err != nil {
//	    if !errors.IsTransient(err) {
//	        return err // NotFound, Invalid: terminal on first failure
//	    }
//	    // back off and retry
//	}
//
// Capacity errors are not load failures at all. The facade checks IsCapacity
// after a store admission attempt and serves the loaded asset uncached:
//
//	if err := store.Put(key, a); err != nil {
//	    if errors.IsCapacity(err) {
//	        return a, nil // degraded: usable, just not cached
//	    }
//	    return nil, err
//	}
//
// # Standard Error Variables
//
// Pre-defined variables cover the conditions the pipeline produces:
//
//   - Lifecycle: ErrAlreadyStarted, ErrNotStarted, ErrAlreadyStopped, ErrShuttingDown
//   - Loading: ErrAssetNotFound, ErrLoadTimeout, ErrTransientIO, ErrRetriesExhausted
//   - Admission: ErrEntryTooLarge, ErrEvictionInsufficient
//   - Validation: ErrInvalidParams, ErrInvalidKey, ErrWrongKind, ErrUnsupportedFormat
//   - Configuration: ErrInvalidConfig, ErrMissingConfig
//
// Use these instead of creating custom error messages so callers can branch
// with errors.Is.
//
// # Context Cancellation
//
// context.DeadlineExceeded is classified Transient: a per-attempt deadline is
// exactly the case retry exists for. The retry loop independently checks the
// parent context before sleeping, so caller cancellation still stops the chain.
//
// # Thread Safety
//
// All classification and wrapping operations are thread-safe. Error variables
// are immutable and safe for concurrent access.
package errors
