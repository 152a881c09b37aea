// Package cache provides a small TTL cache used for per-site lookups such
// as detected organization info.
package cache

import (
	"sync"
	"time"
)

// Cache stores values for a limited time.
type Cache[V any] interface {
	Get(key string) (V, bool)
	Set(key string, value V)
	Delete(key string)
	Len() int
}

type item[V any] struct {
	value   V
	expires time.Time
}

// Memory is an in-process Cache. Expired entries are dropped lazily on
// access and by Sweep.
type Memory[V any] struct {
	mu    sync.RWMutex
	ttl   time.Duration
	items map[string]item[V]
	now   func() time.Time
}

// NewMemory returns a cache whose entries live for ttl. A ttl <= 0 keeps
// entries until they are deleted.
func NewMemory[V any](ttl time.Duration) *Memory[V] {
	return &Memory[V]{ttl: ttl, items: make(map[string]item[V]), now: time.Now}
}

func (m *Memory[V]) Get(key string) (V, bool) {
	m.mu.RLock()
	it, ok := m.items[key]
	m.mu.RUnlock()

	var zero V
	if !ok {
		return zero, false
	}
	if m.expired(it) {
		m.mu.Lock()
		if cur, ok := m.items[key]; ok && m.expired(cur) {
			delete(m.items, key)
		}
		m.mu.Unlock()
		return zero, false
	}
	return it.value, true
}

func (m *Memory[V]) Set(key string, value V) {
	it := item[V]{value: value}
	if m.ttl > 0 {
		it.expires = m.now().Add(m.ttl)
	}
	m.mu.Lock()
	m.items[key] = it
	m.mu.Unlock()
}

func (m *Memory[V]) Delete(key string) {
	m.mu.Lock()
	delete(m.items, key)
	m.mu.Unlock()
}

// Len counts entries, including expired ones not yet swept.
func (m *Memory[V]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

// Sweep removes every expired entry and returns how many were removed.
func (m *Memory[V]) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for k, it := range m.items {
		if m.expired(it) {
			delete(m.items, k)
			n++
		}
	}
	return n
}

func (m *Memory[V]) expired(it item[V]) bool {
	return !it.expires.IsZero() && !m.now().Before(it.expires)
}
