package driven

import (
	"context"
	"time"
)

// EmbeddingCache memoizes embeddings keyed by a stable content hash.
// It is a pure memoization layer: a miss or a cache failure always falls
// through to recomputation, never to an error for the caller. Expiry is
// lazy, checked on read.
type EmbeddingCache interface {
	// Get returns the cached vector for a content hash, or false on miss
	// (including expired entries).
	Get(ctx context.Context, contentHash string) ([]float32, bool)

	// Set stores a vector under a content hash with the given TTL.
	Set(ctx context.Context, contentHash string, vector []float32, ttl time.Duration)

	// Ping checks if the cache backend is healthy
	Ping(ctx context.Context) error
}
