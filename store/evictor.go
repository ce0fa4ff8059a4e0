package store

import (
	"container/list"
	"fmt"
	"sort"
	"time"

	"github.com/atlas3d/assetstream/errors"
)

// Reason records why an entry left the cache.
type Reason int

const (
	// ReasonCapacity means the entry was evicted to admit another.
	ReasonCapacity Reason = iota
	// ReasonTTL means the entry exceeded the configured expiry.
	ReasonTTL
	// ReasonResize means the entry was evicted by a capacity shrink.
	ReasonResize
)

// String returns the reason label used in events and metrics.
func (r Reason) String() string {
	switch r {
	case ReasonCapacity:
		return "capacity"
	case ReasonTTL:
		return "ttl"
	case ReasonResize:
		return "resize"
	default:
		return "unknown"
	}
}

// Victim describes one evicted (or evictable) entry.
type Victim struct {
	Key    string
	Size   int64
	Reason Reason

	// seq pins the victim to a specific insertion so a deferred apply
	// skips keys that were re-inserted in the meantime.
	seq uint64
}

// SelectVictims returns the coldest entries whose combined size is at
// least need bytes, least recently accessed first; entries sharing an
// access time are ordered by fewest hits, then by insertion sequence.
// It does not modify the store; pair it with ApplyEvictions. If the
// whole cache is smaller than need, every entry is returned.
func (s *Store) SelectVictims(need int64) []Victim {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var victims []Victim
	for _, e := range s.coldestLocked(need, nil) {
		victims = append(victims, Victim{Key: e.key, Size: e.size, Reason: ReasonCapacity, seq: e.seq})
	}
	return victims
}

// coldestLocked picks entries in eviction order until their combined
// size reaches need bytes, skipping exempt. The caller must hold at
// least a read lock.
func (s *Store) coldestLocked(need int64, exempt *entry) []*entry {
	if need <= 0 {
		return nil
	}

	candidates := make([]*entry, 0, len(s.items))
	for _, element := range s.items {
		e := element.Value.(*entry)
		if e == exempt {
			continue
		}
		candidates = append(candidates, e)
	}
	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if !a.lastAccess.Equal(b.lastAccess) {
			return a.lastAccess.Before(b.lastAccess)
		}
		if a.hits != b.hits {
			return a.hits < b.hits
		}
		return a.seq < b.seq
	})

	var freed int64
	for i, e := range candidates {
		if freed >= need {
			return candidates[:i]
		}
		freed += e.size
	}
	return candidates
}

// ApplyEvictions removes the given victims and returns the bytes freed.
// Victims whose entry was re-inserted since selection are skipped.
func (s *Store) ApplyEvictions(victims []Victim) int64 {
	if len(victims) == 0 {
		return 0
	}

	var applied []Victim
	var freed int64
	s.mu.Lock()
	for _, v := range victims {
		element, exists := s.items[v.Key]
		if !exists {
			continue
		}
		if element.Value.(*entry).seq != v.seq {
			continue
		}
		applied = append(applied, s.removeElementLocked(element, v.Reason))
		freed += v.Size
	}
	used, entries := s.total, int64(len(s.items))
	s.mu.Unlock()

	if len(applied) > 0 {
		s.stats.UpdateUsage(used, entries)
		if s.metrics != nil {
			s.metrics.updateUsage(used, s.Capacity(), entries)
		}
		s.finishEvictions(applied)
	}
	return freed
}

// SweepExpired removes every entry idle longer than ttl and returns the
// removed victims. Idle time is measured from last access, so a read
// inside the window keeps its entry alive.
func (s *Store) SweepExpired(ttl time.Duration) []Victim {
	if ttl <= 0 {
		return nil
	}

	now := s.clock.Now()
	var victims []Victim

	s.mu.Lock()
	for element := s.order.Front(); element != nil; {
		next := element.Next()
		e := element.Value.(*entry)
		if now.Sub(e.lastAccess) > ttl {
			victims = append(victims, s.removeElementLocked(element, ReasonTTL))
		}
		element = next
	}
	used, entries := s.total, int64(len(s.items))
	s.mu.Unlock()

	if len(victims) > 0 {
		s.stats.UpdateUsage(used, entries)
		if s.metrics != nil {
			s.metrics.updateUsage(used, s.Capacity(), entries)
		}
		s.finishEvictions(victims)
	}
	return victims
}

// Resize changes the capacity. Shrinking below the current usage evicts
// least-recently-used entries until the new budget holds; the evicted
// victims are returned.
func (s *Store) Resize(maxBytes int64) ([]Victim, error) {
	if maxBytes <= 0 {
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: capacity %d bytes", errors.ErrInvalidConfig, maxBytes),
			"Store", "Resize", "validate capacity")
	}

	var victims []Victim
	s.mu.Lock()
	s.maxBytes = maxBytes
	for _, e := range s.coldestLocked(s.total-maxBytes, nil) {
		victims = append(victims, s.removeElementLocked(s.items[e.key], ReasonResize))
	}
	used, entries := s.total, int64(len(s.items))
	s.mu.Unlock()

	s.stats.UpdateUsage(used, entries)
	if s.metrics != nil {
		s.metrics.updateUsage(used, maxBytes, entries)
	}
	s.finishEvictions(victims)
	return victims, nil
}

// removeElementLocked unlinks an element and adjusts accounting.
// The caller must hold the write lock.
func (s *Store) removeElementLocked(element *list.Element, reason Reason) Victim {
	e := element.Value.(*entry)
	delete(s.items, e.key)
	s.order.Remove(element)
	s.total -= e.size
	return Victim{Key: e.key, Size: e.size, Reason: reason, seq: e.seq}
}

// finishEvictions records stats and fires callbacks for removed victims.
// Called after the lock is released so callbacks may re-enter the store.
func (s *Store) finishEvictions(victims []Victim) {
	for _, v := range victims {
		// ALWAYS track in stats
		if v.Reason == ReasonTTL {
			s.stats.Expiration()
		} else {
			s.stats.Eviction()
		}
		// ALSO track in metrics if enabled
		if s.metrics != nil {
			s.metrics.recordEviction(v.Reason)
		}
		if s.evictFn != nil {
			s.evictFn(v)
		}
	}
}
