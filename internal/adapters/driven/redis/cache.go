package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/loanvault-labs/loanvault-core/internal/core/ports/driven"
	"github.com/redis/go-redis/v9"
)

// Verify interface compliance
var _ driven.EmbeddingCache = (*EmbeddingCache)(nil)

const embeddingCachePrefix = "loanvault:embedding:"

// EmbeddingCache implements the embedding cache on Redis, one JSON-encoded
// vector per content hash with the TTL handled by Redis expiry. Failures
// degrade to cache misses; the caller recomputes.
type EmbeddingCache struct {
	client *redis.Client
}

// NewEmbeddingCache creates a new Redis-backed embedding cache.
func NewEmbeddingCache(client *redis.Client) *EmbeddingCache {
	return &EmbeddingCache{client: client}
}

// Get returns the cached vector for a content hash, or false on miss.
func (c *EmbeddingCache) Get(ctx context.Context, contentHash string) ([]float32, bool) {
	data, err := c.client.Get(ctx, embeddingCachePrefix+contentHash).Bytes()
	if err != nil {
		return nil, false
	}

	var vector []float32
	if err := json.Unmarshal(data, &vector); err != nil {
		// Corrupt entry: drop it and recompute
		c.client.Del(ctx, embeddingCachePrefix+contentHash)
		return nil, false
	}
	return vector, true
}

// Set stores a vector under a content hash with the given TTL.
func (c *EmbeddingCache) Set(ctx context.Context, contentHash string, vector []float32, ttl time.Duration) {
	data, err := json.Marshal(vector)
	if err != nil {
		return
	}
	c.client.Set(ctx, embeddingCachePrefix+contentHash, data, ttl)
}

// Ping checks if the Redis backend is healthy.
func (c *EmbeddingCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
