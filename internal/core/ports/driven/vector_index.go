package driven

import (
	"context"

	"github.com/loanvault-labs/loanvault-core/internal/core/domain"
)

// VectorIndex persists embedded chunk records and serves nearest-neighbor
// search scoped by metadata filters.
type VectorIndex interface {
	// Upsert writes records for a document. Records are keyed by
	// (document_id, chunk_id); writing never updates in place.
	Upsert(ctx context.Context, records []*domain.IndexedRecord) error

	// Search performs a k-nearest-neighbor search filtered by scope.
	// Hits are returned in ascending distance order (best first).
	Search(ctx context.Context, embedding []float32, k int, scope domain.QueryScope) ([]*domain.SearchHit, error)

	// DeleteByDocument purges all records for a document. Used by the
	// purge-on-reindex policy before new records are written.
	DeleteByDocument(ctx context.Context, documentID string) error

	// HealthCheck verifies the index is available
	HealthCheck(ctx context.Context) error
}
