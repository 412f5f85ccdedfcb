package driven

import (
	"context"

	"github.com/loanvault-labs/loanvault-core/internal/core/domain"
)

// DocumentStore persists document metadata and chunks.
type DocumentStore interface {
	// Save creates or updates a document
	Save(ctx context.Context, doc *domain.Document) error

	// Get retrieves a document by ID
	Get(ctx context.Context, id string) (*domain.Document, error)

	// ListByLoan retrieves all documents for a loan
	ListByLoan(ctx context.Context, loanID string) ([]*domain.Document, error)

	// SaveChunks replaces the stored chunks for a document
	SaveChunks(ctx context.Context, documentID string, chunks []*domain.Chunk) error

	// GetChunks retrieves all chunks for a document in index order
	GetChunks(ctx context.Context, documentID string) ([]*domain.Chunk, error)

	// ListChunksByLoan retrieves all chunks for a loan's indexed
	// documents. Used by the keyword-overlap fallback search.
	ListChunksByLoan(ctx context.Context, loanID string) ([]*domain.Chunk, error)

	// Ping checks if the store backend is healthy
	Ping(ctx context.Context) error
}
