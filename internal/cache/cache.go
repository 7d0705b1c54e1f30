// Package cache provides a namespaced in-memory TTL cache shared across
// requests. It is deliberately simple: a mutex-guarded map of maps with lazy
// expiry on lookup. Readers must tolerate missing entries and writers must
// treat the cache as best-effort; it is a single-process reference
// implementation, not an authoritative store.
package cache

import (
	"sync"
	"time"
)

// Cache namespaces used by the planning pipeline.
const (
	NamespaceIntentPrompt   = "intent_prompt"
	NamespacePlanPrompt     = "plan_prompt"
	NamespaceRetrievalCands = "retrieval_candidates"
)

// DefaultTTL is the entry lifetime used when a caller passes a non-positive TTL.
const DefaultTTL = 15 * time.Minute

type entry struct {
	value     any
	expiresAt time.Time
}

// Store is a thread-safe (namespace, key) -> value store with per-entry TTL.
type Store struct {
	mu      sync.RWMutex
	buckets map[string]map[string]entry

	// now is swappable for tests.
	now func() time.Time
}

// New creates an empty store.
func New() *Store {
	return &Store{
		buckets: make(map[string]map[string]entry),
		now:     time.Now,
	}
}

// Get returns the cached value for (namespace, key), or ok=false when the
// entry is absent or expired. Expired entries are evicted on lookup.
func (s *Store) Get(namespace, key string) (any, bool) {
	s.mu.RLock()
	bucket, exists := s.buckets[namespace]
	var e entry
	if exists {
		e, exists = bucket[key]
	}
	s.mu.RUnlock()

	if !exists {
		return nil, false
	}

	if s.now().After(e.expiresAt) {
		s.mu.Lock()
		if bucket, ok := s.buckets[namespace]; ok {
			// Re-check under the write lock; another goroutine may have
			// refreshed the entry in the meantime.
			if cur, ok := bucket[key]; ok && s.now().After(cur.expiresAt) {
				delete(bucket, key)
			}
		}
		s.mu.Unlock()
		return nil, false
	}

	return e.value, true
}

// Set stores value under (namespace, key) for ttl. Non-positive TTLs fall
// back to DefaultTTL.
func (s *Store) Set(namespace, key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	bucket, ok := s.buckets[namespace]
	if !ok {
		bucket = make(map[string]entry)
		s.buckets[namespace] = bucket
	}
	bucket[key] = entry{value: value, expiresAt: s.now().Add(ttl)}
}

// Delete removes an entry. No-op when absent.
func (s *Store) Delete(namespace, key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if bucket, ok := s.buckets[namespace]; ok {
		delete(bucket, key)
	}
}

// Len reports the number of live entries in a namespace, counting expired
// entries that have not yet been lazily evicted.
func (s *Store) Len(namespace string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.buckets[namespace])
}
