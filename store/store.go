package store

import (
	"container/list"
	"fmt"
	"sync"
	"time"

	"github.com/atlas3d/assetstream/asset"
	"github.com/atlas3d/assetstream/errors"
)

// entry is one cached asset with its accounting metadata. Capacity
// eviction and TTL expiry both key off lastAccess; hits and seq order
// entries that share an access time. seq is a monotonic insertion
// sequence that also lets deferred eviction detect re-inserted keys.
type entry struct {
	key        string
	a          *asset.Asset // dominant payload stripped when frame != nil
	frame      []byte       // zstd frame of the dominant payload
	rawSize    int64        // decoded size at admission
	size       int64        // bytes charged against capacity
	lastAccess time.Time
	storedAt   time.Time
	hits       uint64
	seq        uint64
}

// Store is a thread-safe byte-budget LRU cache of decoded assets.
//
// Two invariants hold after every operation: the tracked total equals the
// sum of entry sizes, and the total never exceeds the configured capacity.
// Admission evicts least-recently-used entries inside the same critical
// section, before the insert, so concurrent readers never observe the
// budget exceeded.
type Store struct {
	mu       sync.RWMutex
	maxBytes int64
	items    map[string]*list.Element
	order    *list.List // front = most recently used
	total    int64
	seq      uint64
	clock    Clock
	codec    *codec        // nil when compression disabled
	stats    *Statistics   // ALWAYS initialized
	metrics  *storeMetrics // Optional, if metrics enabled
	evictFn  EvictCallback // Optional callback
}

// New creates a store with the given capacity in bytes.
// Returns an error if the capacity is not positive or metrics
// registration fails when requested.
func New(maxBytes int64, options ...Option) (*Store, error) {
	if maxBytes <= 0 {
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: capacity %d bytes", errors.ErrInvalidConfig, maxBytes),
			"Store", "New", "validate capacity")
	}

	opts := applyOptions(options...)

	// Stats are ALWAYS initialized - observability is not optional
	stats := NewStatistics()

	var metrics *storeMetrics
	// Optionally expose stats as Prometheus metrics
	if opts.metricsReg != nil && opts.metricsPrefix != "" {
		var err error
		metrics, err = newStoreMetrics(opts.metricsReg, opts.metricsPrefix)
		if err != nil {
			return nil, errors.WrapTransient(err, "Store", "New", "metrics registration")
		}
	}

	var cdc *codec
	if opts.compression {
		var err error
		cdc, err = newCodec(opts.compressLevel)
		if err != nil {
			return nil, err
		}
	}

	s := &Store{
		maxBytes: maxBytes,
		items:    make(map[string]*list.Element),
		order:    list.New(),
		clock:    opts.clock,
		codec:    cdc,
		stats:    stats,
		metrics:  metrics,
		evictFn:  opts.evictCallback,
	}
	if metrics != nil {
		metrics.updateUsage(0, maxBytes, 0)
	}
	return s, nil
}

// Get retrieves an asset by key and marks it as recently used.
// Compressed payloads are expanded transparently.
func (s *Store) Get(key string) (*asset.Asset, bool) {
	s.mu.Lock()
	element, exists := s.items[key]
	if !exists {
		s.mu.Unlock()
		s.stats.Miss()
		if s.metrics != nil {
			s.metrics.recordMiss()
		}
		return nil, false
	}

	s.order.MoveToFront(element)
	e := element.Value.(*entry)
	e.lastAccess = s.clock.Now()
	e.hits++
	stored, frame := e.a, e.frame
	s.mu.Unlock()

	s.stats.Hit()
	if s.metrics != nil {
		s.metrics.recordHit()
	}

	if frame == nil {
		return stored, true
	}

	// Decode outside the lock; frames are immutable once stored.
	payload, err := s.codec.decompress(frame)
	if err != nil {
		s.Remove(key)
		return nil, false
	}
	return restore(stored, payload), true
}

// Peek retrieves an asset without updating recency or hit statistics.
func (s *Store) Peek(key string) (*asset.Asset, bool) {
	s.mu.RLock()
	element, exists := s.items[key]
	if !exists {
		s.mu.RUnlock()
		return nil, false
	}
	e := element.Value.(*entry)
	stored, frame := e.a, e.frame
	s.mu.RUnlock()

	if frame == nil {
		return stored, true
	}
	payload, err := s.codec.decompress(frame)
	if err != nil {
		return nil, false
	}
	return restore(stored, payload), true
}

// Put stores an asset under key, evicting least-recently-used entries as
// needed to fit it. Admission failures are classified capacity errors:
// the caller serves the asset uncached and continues.
func (s *Store) Put(key string, a *asset.Asset) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if a == nil {
		return errors.WrapInvalid(errors.ErrInvalidParams, "Store", "Put", "nil asset")
	}

	rawSize := a.ComputeSize()
	stored := a
	var frame []byte
	size := rawSize
	if s.codec != nil {
		if payload := compressible(a); payload != nil {
			if f := s.codec.compress(payload); f != nil {
				frame = f
				stored = strip(a)
				size = rawSize - int64(len(payload)) + int64(len(f))
			}
		}
	}

	var victims []Victim
	s.mu.Lock()

	if size > s.maxBytes {
		s.mu.Unlock()
		s.stats.Rejection()
		if s.metrics != nil {
			s.metrics.recordRejection()
		}
		return errors.WrapCapacity(
			fmt.Errorf("%w: %d bytes against capacity %d", errors.ErrEntryTooLarge, size, s.maxBytes),
			"Store", "Put", "admit entry")
	}

	existing, exists := s.items[key]
	var oldSize int64
	if exists {
		oldSize = existing.Value.(*entry).size
	}

	// Evict the coldest entries until the new entry fits. The entry being
	// replaced is exempt; its size is reclaimed below.
	if need := s.total - oldSize + size - s.maxBytes; need > 0 {
		var exempt *entry
		if exists {
			exempt = existing.Value.(*entry)
		}
		for _, e := range s.coldestLocked(need, exempt) {
			victims = append(victims, s.removeElementLocked(s.items[e.key], ReasonCapacity))
		}
	}
	if s.total-oldSize+size > s.maxBytes {
		used, entries := s.total, int64(len(s.items))
		s.mu.Unlock()
		s.stats.UpdateUsage(used, entries)
		s.finishEvictions(victims)
		s.stats.Rejection()
		if s.metrics != nil {
			s.metrics.recordRejection()
		}
		return errors.WrapCapacity(
			fmt.Errorf("%w: need %d bytes", errors.ErrEvictionInsufficient, size),
			"Store", "Put", "free space")
	}

	now := s.clock.Now()
	s.seq++
	if exists {
		e := existing.Value.(*entry)
		s.total -= e.size
		e.a, e.frame = stored, frame
		e.rawSize, e.size = rawSize, size
		e.lastAccess, e.storedAt = now, now
		e.hits = 0
		e.seq = s.seq
		s.order.MoveToFront(existing)
	} else {
		e := &entry{
			key: key, a: stored, frame: frame,
			rawSize: rawSize, size: size,
			lastAccess: now, storedAt: now, seq: s.seq,
		}
		s.items[key] = s.order.PushFront(e)
	}
	s.total += size
	used, entries := s.total, int64(len(s.items))
	s.mu.Unlock()

	s.stats.Put()
	s.stats.UpdateUsage(used, entries)
	if s.metrics != nil {
		s.metrics.recordPut()
		s.metrics.updateUsage(used, s.Capacity(), entries)
	}
	s.finishEvictions(victims)

	return nil
}

// Remove deletes an entry by key. Returns true if the key existed.
func (s *Store) Remove(key string) bool {
	s.mu.Lock()
	element, exists := s.items[key]
	if !exists {
		s.mu.Unlock()
		return false
	}
	e := element.Value.(*entry)
	delete(s.items, e.key)
	s.order.Remove(element)
	s.total -= e.size
	used, entries := s.total, int64(len(s.items))
	s.mu.Unlock()

	s.stats.Remove()
	s.stats.UpdateUsage(used, entries)
	if s.metrics != nil {
		s.metrics.updateUsage(used, s.Capacity(), entries)
	}
	return true
}

// Contains reports whether key is cached, with no recency effect.
func (s *Store) Contains(key string) bool {
	s.mu.RLock()
	_, exists := s.items[key]
	s.mu.RUnlock()
	return exists
}

// Len returns the current number of entries.
func (s *Store) Len() int {
	s.mu.RLock()
	n := len(s.items)
	s.mu.RUnlock()
	return n
}

// TotalSize returns the bytes currently charged against capacity.
func (s *Store) TotalSize() int64 {
	s.mu.RLock()
	total := s.total
	s.mu.RUnlock()
	return total
}

// Capacity returns the configured capacity in bytes.
func (s *Store) Capacity() int64 {
	s.mu.RLock()
	capacity := s.maxBytes
	s.mu.RUnlock()
	return capacity
}

// Keys returns all cached keys, most recently used first.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.items))
	for element := s.order.Front(); element != nil; element = element.Next() {
		keys = append(keys, element.Value.(*entry).key)
	}
	return keys
}

// EntryInfo is a point-in-time snapshot of one cached entry.
type EntryInfo struct {
	Key        string       `json:"key"`
	Kind       asset.Kind   `json:"-"`
	Size       int64        `json:"size"`
	RawSize    int64        `json:"raw_size"`
	Compressed bool         `json:"compressed"`
	HitCount   uint64       `json:"hit_count"`
	StoredAt   time.Time    `json:"stored_at"`
	LastAccess time.Time    `json:"last_access"`
	Source     asset.Source `json:"-"`
}

// Entries returns a snapshot of all entries, most recently used first.
func (s *Store) Entries() []EntryInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	infos := make([]EntryInfo, 0, len(s.items))
	for element := s.order.Front(); element != nil; element = element.Next() {
		e := element.Value.(*entry)
		infos = append(infos, EntryInfo{
			Key:        e.key,
			Kind:       e.a.Kind,
			Size:       e.size,
			RawSize:    e.rawSize,
			Compressed: e.frame != nil,
			HitCount:   e.hits,
			StoredAt:   e.storedAt,
			LastAccess: e.lastAccess,
			Source:     e.a.Source,
		})
	}
	return infos
}

// Clear removes all entries without invoking eviction callbacks. It is an
// administrative reset, not an eviction.
func (s *Store) Clear() {
	s.mu.Lock()
	s.items = make(map[string]*list.Element)
	s.order.Init()
	s.total = 0
	s.mu.Unlock()

	s.stats.UpdateUsage(0, 0)
	if s.metrics != nil {
		s.metrics.updateUsage(0, s.Capacity(), 0)
	}
}

// Stats returns the always-on statistics tracker.
func (s *Store) Stats() *Statistics {
	return s.stats
}

// Close releases codec resources. The store holds no goroutines.
func (s *Store) Close() error {
	if s.codec != nil {
		s.codec.close()
	}
	return nil
}

// validateKey validates a cache key for basic requirements.
// Returns a classified error if the key is invalid.
func validateKey(key string) error {
	if key == "" {
		return errors.WrapInvalid(errors.ErrInvalidKey, "Store", "validateKey", "key cannot be empty")
	}
	return nil
}
