package driving

import (
	"context"

	"github.com/loanvault-labs/loanvault-core/internal/core/domain"
)

// IngestResult summarizes one document's trip through the ingest pipeline.
type IngestResult struct {
	DocumentID    string `json:"document_id"`
	ChunksIndexed int    `json:"chunks_indexed"`
	PIIDetected   int    `json:"pii_detected"`
	CacheHits     int    `json:"cache_hits"`
	Degraded      bool   `json:"degraded"`
}

// IngestService runs the document pipeline:
// detect -> redact -> chunk -> embed -> index.
type IngestService interface {
	// Ingest processes one document's raw text. Prior index records for
	// the document are purged before new ones are written. Embedding
	// provider errors are fatal for the document; a later re-run reuses
	// cached embeddings for chunks that were already computed.
	Ingest(ctx context.Context, documentID, rawText string) (*IngestResult, error)
}

// DocumentService manages document lifecycle outside the pipeline.
type DocumentService interface {
	// Initiate registers an uploaded document and returns it with a
	// generated ID and uploaded status
	Initiate(ctx context.Context, loanID string, docType domain.DocumentType, fileName string) (*domain.Document, error)

	// Get retrieves a document by ID
	Get(ctx context.Context, id string) (*domain.Document, error)

	// ListByLoan retrieves all documents for a loan
	ListByLoan(ctx context.Context, loanID string) ([]*domain.Document, error)

	// QueueIngest enqueues background ingestion of a document's text and
	// returns the task id
	QueueIngest(ctx context.Context, documentID, rawText string) (string, error)

	// TaskStatus retrieves the state of a queued ingest task
	TaskStatus(ctx context.Context, taskID string) (*domain.Task, error)
}
