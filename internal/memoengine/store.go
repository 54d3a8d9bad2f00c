package memoengine

import (
	"strings"
	"sync"
	"time"
)

// entry pairs a cached value with its absolute expiry instant.
// noExpiry entries are never considered stale.
type entry struct {
	value     any
	expiresAt time.Time
	noExpiry  bool
}

// Store is a concurrency-safe table of cached values with per-entry TTL.
//
// Expired entries are evicted lazily: a Get that finds a stale entry deletes
// it and reports a miss. There is no capacity bound; entries live until they
// expire, are deleted, or the owning scope is cleared.
type Store struct {
	mu      sync.Mutex
	entries map[string]entry

	// now is swappable so TTL behavior can be tested without sleeping.
	now func() time.Time
}

// NewStore creates an empty store. The backing table is allocated lazily on
// the first write, so creating stores for scopes that never cache is free.
func NewStore() *Store {
	return &Store{now: time.Now}
}

// Get returns the value stored under key, or false if the key is absent or
// its entry has expired. Expired entries are deleted on the way out.
func (s *Store) Get(key string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ent, ok := s.entries[key]
	if !ok {
		return nil, false
	}
	if !ent.noExpiry && !s.now().Before(ent.expiresAt) {
		delete(s.entries, key)
		return nil, false
	}
	return ent.value, true
}

// Set stores value under key, overwriting any existing entry.
//
// ttl <= 0 means the entry never expires (common cache API convention;
// used to honor a disable-expiry configuration).
func (s *Store) Set(key string, value any, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.entries == nil {
		s.entries = make(map[string]entry)
	}
	if ttl <= 0 {
		s.entries[key] = entry{value: value, noExpiry: true}
		return
	}
	s.entries[key] = entry{value: value, expiresAt: s.now().Add(ttl)}
}

// Delete removes the entry for key. Deleting an absent key is a no-op.
func (s *Store) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
}

// DeleteByPrefix removes every entry whose key starts with prefix and
// returns the number of entries removed.
func (s *Store) DeleteByPrefix(prefix string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int
	for key := range s.entries {
		if strings.HasPrefix(key, prefix) {
			delete(s.entries, key)
			removed++
		}
	}
	return removed
}

// Len reports the number of entries currently held, including entries that
// have expired but not yet been evicted by a read.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
