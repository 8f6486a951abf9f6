// Package kv provides a generic thread-safe key-value store with optional expiry.
package kv

import (
	"sync"
	"time"
)

type entry[V any] struct {
	value     V
	expiresAt time.Time // zero means no expiry
}

func (e entry[V]) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// Store is a thread-safe generic key-value store.
// Expired entries behave as missing and are dropped lazily.
type Store[K comparable, V any] struct {
	mu   sync.Mutex
	data map[K]entry[V]
	now  func() time.Time
}

// New creates a new key-value store.
func New[K comparable, V any]() *Store[K, V] {
	return &Store[K, V]{
		data: make(map[K]entry[V]),
		now:  time.Now,
	}
}

// WithClock replaces the time source. Intended for tests.
func (s *Store[K, V]) WithClock(now func() time.Time) *Store[K, V] {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
	return s
}

// Get retrieves a value by key.
func (s *Store[K, V]) Get(key K) (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getLocked(key)
}

// Set stores a value by key with no expiry.
func (s *Store[K, V]) Set(key K, value V) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = entry[V]{value: value}
}

// SetTTL stores a value that expires after ttl.
func (s *Store[K, V]) SetTTL(key K, value V, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = entry[V]{value: value, expiresAt: s.now().Add(ttl)}
}

// SetIfAbsent stores value only when key is missing or expired.
// Reports whether the value was stored. A ttl <= 0 means no expiry.
func (s *Store[K, V]) SetIfAbsent(key K, value V, ttl time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.getLocked(key); ok {
		return false
	}

	e := entry[V]{value: value}
	if ttl > 0 {
		e.expiresAt = s.now().Add(ttl)
	}
	s.data[key] = e
	return true
}

// ExpiresAt returns the expiry of key, or the zero time when it has none.
func (s *Store[K, V]) ExpiresAt(key K) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.getLocked(key); !ok {
		return time.Time{}, false
	}
	return s.data[key].expiresAt, true
}

// Delete removes keys from the store.
func (s *Store[K, V]) Delete(keys ...K) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		delete(s.data, k)
	}
}

// Len returns the number of live items in the store.
func (s *Store[K, V]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	now := s.now()
	for _, e := range s.data {
		if !e.expired(now) {
			n++
		}
	}
	return n
}

// Keys returns all live keys in the store.
func (s *Store[K, V]) Keys() []K {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	keys := make([]K, 0, len(s.data))
	for k, e := range s.data {
		if !e.expired(now) {
			keys = append(keys, k)
		}
	}
	return keys
}

func (s *Store[K, V]) getLocked(key K) (V, bool) {
	e, ok := s.data[key]
	if !ok {
		var zero V
		return zero, false
	}
	if e.expired(s.now()) {
		delete(s.data, key)
		var zero V
		return zero, false
	}
	return e.value, true
}
