// Package store provides a thread-safe, byte-budget LRU cache for decoded
// assets with TTL expiry, optional transparent compression, built-in
// statistics tracking, and optional Prometheus metrics integration.
//
// # Overview
//
// The store charges every entry its decoded size in bytes against a fixed
// capacity. Admission is strict: before an insert completes, enough
// least-recently-used entries are evicted inside the same critical section
// to keep total usage at or under the budget. Callers therefore never
// observe the cache over capacity, even under concurrent load.
//
// Two failure modes are classified as capacity errors rather than faults:
//
//   - ErrEntryTooLarge: the entry alone exceeds the whole budget
//   - ErrEvictionInsufficient: eviction could not free enough space
//
// Callers are expected to degrade gracefully on either: use the asset
// without caching it and carry on.
//
// # Recency and Expiry
//
// Get marks an entry recently used and counts a hit against it; Peek and
// Contains do not. Capacity eviction always removes the coldest entries
// first. TTL expiry measures idle time from the same last access, so any
// read restarts an entry's expiry window; SweepExpired removes entries
// idle strictly longer than the ttl. The store itself runs no background
// goroutines; a caller drives SweepExpired on its own schedule.
//
// # Deferred Eviction
//
// SelectVictims and ApplyEvictions split eviction into a pure planning
// step and a mutation step. Selection is stable (least recently accessed
// first, then fewest hits, then insertion sequence) and has no side
// effects; apply skips any victim whose key was re-inserted between the
// two calls.
//
// # Compression
//
// With WithCompression, the dominant payload of texture and blob entries
// is held as a zstd frame when that saves space; small payloads and
// payloads that do not shrink are stored raw. Compression is transparent:
// Get and Peek return fully decoded assets. The capacity charge is the
// stored size, so compression stretches the budget.
//
// # Observability
//
// The store follows the dual-tracking pattern: always-on atomic
// Statistics (hits, misses, evictions, expirations, rejections, usage
// high-water marks) plus optional Prometheus metrics enabled with
// WithMetrics. Statistics never require external infrastructure; metrics
// feed dashboards and alerting.
//
// # Thread Safety
//
// All operations are safe for concurrent use. Reads that do not touch
// recency take a read lock; Get and all mutations serialize on the write
// lock. Eviction callbacks and zstd decoding run outside the locks, so a
// callback may safely re-enter the store.
package store
