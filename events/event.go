package events

import "time"

// Type identifies what happened to an asset.
type Type int

const (
	// TypeCacheHit is emitted when a request is served from cache.
	TypeCacheHit Type = iota
	// TypeCacheMiss is emitted when a request misses the cache.
	TypeCacheMiss
	// TypeLoaded is emitted when a load or generation completes.
	TypeLoaded
	// TypeLoadFailed is emitted when a load fails terminally.
	TypeLoadFailed
	// TypeEvicted is emitted when the cache evicts an entry.
	TypeEvicted
	// TypeExpired is emitted when an entry ages out.
	TypeExpired
	// TypeConfigUpdated is emitted after a runtime config change applies.
	TypeConfigUpdated
)

// String returns the event type label used in logs and metrics.
func (t Type) String() string {
	switch t {
	case TypeCacheHit:
		return "cache_hit"
	case TypeCacheMiss:
		return "cache_miss"
	case TypeLoaded:
		return "loaded"
	case TypeLoadFailed:
		return "load_failed"
	case TypeEvicted:
		return "evicted"
	case TypeExpired:
		return "expired"
	case TypeConfigUpdated:
		return "config_updated"
	default:
		return "unknown"
	}
}

// Event is one tagged occurrence in the asset pipeline. Fields beyond
// Type, Key, and At are populated where they apply: RequestID and
// SizeBytes on load events, Reason on evictions, Uncached when an asset
// was served without being admitted to cache, Err on failures.
type Event struct {
	Type      Type      `json:"type"`
	Key       string    `json:"key"`
	RequestID string    `json:"request_id,omitempty"`
	SizeBytes int64     `json:"size_bytes,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	Uncached  bool      `json:"uncached,omitempty"`
	Err       string    `json:"err,omitempty"`
	At        time.Time `json:"at"`
}
