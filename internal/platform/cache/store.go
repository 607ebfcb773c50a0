// Package cache provides a small in-process TTL cache used to keep
// recently fetched provider responses warm between scouting runs.
package cache

import (
	"sync"
	"time"
)

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// Store is a TTL-bounded key/value cache. A zero TTL disables caching
// entirely, which keeps call sites free of conditionals.
type Store[V any] struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]entry[V]
	now     func() time.Time
}

func NewStore[V any](ttl time.Duration) *Store[V] {
	return &Store[V]{
		ttl:     ttl,
		entries: make(map[string]entry[V]),
		now:     time.Now,
	}
}

func (s *Store[V]) Get(key string) (V, bool) {
	var zero V
	if s.ttl <= 0 {
		return zero, false
	}

	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok || s.now().After(e.expiresAt) {
		return zero, false
	}

	return e.value, true
}

func (s *Store[V]) Set(key string, value V) {
	if s.ttl <= 0 {
		return
	}

	s.mu.Lock()
	s.entries[key] = entry[V]{value: value, expiresAt: s.now().Add(s.ttl)}
	s.mu.Unlock()
}

func (s *Store[V]) Delete(key string) {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
}

// Purge drops every entry whose TTL has lapsed. Callers that run for a long
// time should invoke this periodically to keep memory bounded.
func (s *Store[V]) Purge() {
	now := s.now()

	s.mu.Lock()
	for key, e := range s.entries {
		if now.After(e.expiresAt) {
			delete(s.entries, key)
		}
	}
	s.mu.Unlock()
}

func (s *Store[V]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
