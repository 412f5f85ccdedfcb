package mocks

import (
	"context"
	"sync"
	"time"
)

type cacheEntry struct {
	vector    []float32
	expiresAt time.Time
}

// MockEmbeddingCache is a mock implementation of EmbeddingCache for testing
type MockEmbeddingCache struct {
	mu       sync.RWMutex
	entries  map[string]cacheEntry
	disabled bool
	hits     int
	misses   int
}

// NewMockEmbeddingCache creates a new MockEmbeddingCache
func NewMockEmbeddingCache() *MockEmbeddingCache {
	return &MockEmbeddingCache{
		entries: make(map[string]cacheEntry),
	}
}

func (m *MockEmbeddingCache) Get(ctx context.Context, contentHash string) ([]float32, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.disabled {
		m.misses++
		return nil, false
	}
	entry, ok := m.entries[contentHash]
	if !ok || time.Now().After(entry.expiresAt) {
		delete(m.entries, contentHash)
		m.misses++
		return nil, false
	}
	m.hits++
	return entry.vector, true
}

func (m *MockEmbeddingCache) Set(ctx context.Context, contentHash string, vector []float32, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.disabled {
		return
	}
	m.entries[contentHash] = cacheEntry{
		vector:    vector,
		expiresAt: time.Now().Add(ttl),
	}
}

func (m *MockEmbeddingCache) Ping(ctx context.Context) error {
	return nil
}

// Helper methods for testing

// SetDisabled makes every Get a miss and every Set a no-op, simulating an
// unavailable cache backend.
func (m *MockEmbeddingCache) SetDisabled(disabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.disabled = disabled
}

func (m *MockEmbeddingCache) Hits() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.hits
}

func (m *MockEmbeddingCache) Misses() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.misses
}

func (m *MockEmbeddingCache) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
