package store

import (
	"context"
	"sync"
)

// MockStore is an in-memory Store that records calls and can be told to fail.
type MockStore struct {
	mu      sync.Mutex
	data    map[string]string
	GetErr  error
	SetErr  error
	gets    int
	hits    int
	sets    int
	lastHit string
}

// NewMockStore creates an empty MockStore.
func NewMockStore() *MockStore {
	return &MockStore{data: make(map[string]string)}
}

// Get implements Store
func (m *MockStore) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	if m.GetErr != nil {
		return "", m.GetErr
	}
	value, ok := m.data[key]
	if !ok {
		return "", ErrNotFound
	}
	m.hits++
	m.lastHit = value
	return value, nil
}

// Set implements Store
func (m *MockStore) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets++
	if m.SetErr != nil {
		return m.SetErr
	}
	m.data[key] = value
	return nil
}

// Close implements Store
func (m *MockStore) Close() error { return nil }

// Put seeds a value without counting a Set.
func (m *MockStore) Put(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
}

// Value returns the stored value without counting a Get.
func (m *MockStore) Value(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok
}

// Stats returns the number of Get calls, Get hits and Set calls.
func (m *MockStore) Stats() (gets, hits, sets int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gets, m.hits, m.sets
}

// LastHit returns the value of the most recent successful Get.
func (m *MockStore) LastHit() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastHit
}
