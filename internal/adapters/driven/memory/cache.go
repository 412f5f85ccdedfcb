// Package memory provides in-process implementations of the driven ports.
// They back single-instance deployments that run without Redis or Postgres;
// all state is lost on restart.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/loanvault-labs/loanvault-core/internal/core/ports/driven"
)

var _ driven.EmbeddingCache = (*EmbeddingCache)(nil)

type cacheEntry struct {
	vector    []float32
	expiresAt time.Time
}

// EmbeddingCache is an in-process embedding cache with lazy TTL expiry.
type EmbeddingCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
}

// NewEmbeddingCache creates an empty in-memory embedding cache.
func NewEmbeddingCache() *EmbeddingCache {
	return &EmbeddingCache{
		entries: make(map[string]cacheEntry),
	}
}

func (c *EmbeddingCache) Get(ctx context.Context, contentHash string) ([]float32, bool) {
	c.mu.RLock()
	entry, ok := c.entries[contentHash]
	c.mu.RUnlock()

	if !ok {
		return nil, false
	}
	if time.Now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, contentHash)
		c.mu.Unlock()
		return nil, false
	}

	vector := make([]float32, len(entry.vector))
	copy(vector, entry.vector)
	return vector, true
}

func (c *EmbeddingCache) Set(ctx context.Context, contentHash string, vector []float32, ttl time.Duration) {
	stored := make([]float32, len(vector))
	copy(stored, vector)

	c.mu.Lock()
	c.entries[contentHash] = cacheEntry{
		vector:    stored,
		expiresAt: time.Now().Add(ttl),
	}
	c.mu.Unlock()
}

func (c *EmbeddingCache) Ping(ctx context.Context) error {
	return nil
}
