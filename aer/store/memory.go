package store

import (
	"context"
	"sync/atomic"
	"time"

	internal "github.com/Nachtalb/aer/aer"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// MemoryStore is an in-process store with LRU eviction and a per-entry TTL.
type MemoryStore struct {
	cache  *expirable.LRU[string, string]
	closed atomic.Bool
}

// NewMemoryStore creates a store holding at most size entries. A ttl of zero disables expiry.
func NewMemoryStore(size int, ttl time.Duration) *MemoryStore {
	if size <= 0 {
		size = internal.DefaultStoreSize
	}
	return &MemoryStore{cache: expirable.NewLRU[string, string](size, nil, ttl)}
}

// Get implements Store
func (m *MemoryStore) Get(_ context.Context, key string) (string, error) {
	if m.closed.Load() {
		return "", ErrClosed
	}
	value, ok := m.cache.Get(key)
	if !ok {
		return "", ErrNotFound
	}
	return value, nil
}

// Set implements Store
func (m *MemoryStore) Set(_ context.Context, key, value string) error {
	if m.closed.Load() {
		return ErrClosed
	}
	m.cache.Add(key, value)
	return nil
}

// Len returns the number of live entries.
func (m *MemoryStore) Len() int {
	return m.cache.Len()
}

// Close drops every entry.
func (m *MemoryStore) Close() error {
	if m.closed.Swap(true) {
		return nil
	}
	m.cache.Purge()
	return nil
}
