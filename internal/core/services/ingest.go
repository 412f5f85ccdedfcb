package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/loanvault-labs/loanvault-core/internal/core/domain"
	"github.com/loanvault-labs/loanvault-core/internal/core/ports/driven"
	"github.com/loanvault-labs/loanvault-core/internal/core/ports/driving"
	"github.com/loanvault-labs/loanvault-core/internal/runtime"
)

// Ensure ingestService implements IngestService
var _ driving.IngestService = (*ingestService)(nil)

// IngestConfig tunes the ingest orchestrator.
type IngestConfig struct {
	// CacheTTL is how long computed embeddings stay cached
	CacheTTL time.Duration

	// MaxConcurrency bounds parallel embedding of a document's chunks
	MaxConcurrency int

	// Logger for pipeline progress and audit events
	Logger *slog.Logger
}

// DefaultIngestConfig returns sensible defaults.
func DefaultIngestConfig() IngestConfig {
	return IngestConfig{
		CacheTTL:       24 * time.Hour,
		MaxConcurrency: 4,
	}
}

// ingestService implements the IngestService interface.
// It orchestrates detect -> redact -> extract -> chunk -> embed -> index
// for one document at a time; cross-document parallelism belongs to the
// worker pool.
type ingestService struct {
	documentStore driven.DocumentStore
	vectorIndex   driven.VectorIndex
	cache         driven.EmbeddingCache
	pipeline      driven.PostProcessorPipeline
	redactor      driving.RedactionService
	services      *runtime.Services
	auditor       *Auditor
	config        IngestConfig
}

// NewIngestService creates a new IngestService.
func NewIngestService(
	documentStore driven.DocumentStore,
	vectorIndex driven.VectorIndex,
	cache driven.EmbeddingCache,
	pipeline driven.PostProcessorPipeline,
	redactor driving.RedactionService,
	services *runtime.Services,
	config IngestConfig,
) driving.IngestService {
	if config.CacheTTL <= 0 {
		config.CacheTTL = 24 * time.Hour
	}
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = 4
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &ingestService{
		documentStore: documentStore,
		vectorIndex:   vectorIndex,
		cache:         cache,
		pipeline:      pipeline,
		redactor:      redactor,
		services:      services,
		auditor:       NewAuditor(config.Logger),
		config:        config,
	}
}

// Ingest runs the full pipeline for one document's raw text.
func (s *ingestService) Ingest(ctx context.Context, documentID, rawText string) (*driving.IngestResult, error) {
	doc, err := s.documentStore.Get(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("load document: %w", err)
	}
	if rawText == "" {
		return nil, s.fail(ctx, doc, fmt.Errorf("%w: empty document text", domain.ErrInvalidInput))
	}

	// Redaction happens before anything else touches the text. The
	// pipeline runs with the internal identity so vault tokens exist for
	// later authorized reversal; the index itself only ever sees the
	// redacted output.
	redaction, err := s.redactor.Redact(ctx, domain.RedactionRequest{
		DocumentID: documentID,
		Text:       rawText,
		Mode:       domain.RedactionModeTokenized,
		Role:       domain.RoleInternal,
	})
	if err != nil {
		return nil, s.fail(ctx, doc, fmt.Errorf("redact: %w", err))
	}
	s.auditor.PIIRedacted(documentID, redaction.Mode, len(redaction.Entities), redaction.Downgraded, redaction.Degraded)

	fields, err := s.extractRedactedFields(ctx, rawText)
	if err != nil {
		return nil, s.fail(ctx, doc, err)
	}

	pieces, err := s.pipeline.Process(redaction.RedactedText)
	if err != nil {
		return nil, s.fail(ctx, doc, fmt.Errorf("chunk: %w", err))
	}

	chunks := make([]*domain.Chunk, len(pieces))
	for i, piece := range pieces {
		chunks[i] = &domain.Chunk{
			ID:         uuid.New().String(),
			DocumentID: documentID,
			Index:      piece.Position,
			Text:       piece.Content,
			StartChar:  piece.StartOffset,
			EndChar:    piece.EndOffset,
		}
	}

	embeddings, cacheHits, err := s.embedChunks(ctx, chunks)
	if err != nil {
		return nil, s.fail(ctx, doc, err)
	}

	// Purge-then-upsert keeps re-indexing from accumulating stale records
	if err := s.vectorIndex.DeleteByDocument(ctx, documentID); err != nil {
		return nil, s.fail(ctx, doc, fmt.Errorf("purge prior records: %w", err))
	}

	records := make([]*domain.IndexedRecord, len(chunks))
	for i, chunk := range chunks {
		records[i] = &domain.IndexedRecord{
			DocumentID:   documentID,
			LoanID:       doc.LoanID,
			DocumentType: doc.Type,
			ChunkID:      chunk.ID,
			Text:         chunk.Text,
			Embedding:    embeddings[i],
			Metadata:     map[string]string{"file_name": doc.FileName},
		}
	}
	if err := s.vectorIndex.Upsert(ctx, records); err != nil {
		return nil, s.fail(ctx, doc, fmt.Errorf("index records: %w", err))
	}

	if err := s.documentStore.SaveChunks(ctx, documentID, chunks); err != nil {
		return nil, s.fail(ctx, doc, fmt.Errorf("save chunks: %w", err))
	}

	now := time.Now()
	doc.Status = domain.DocStatusIndexed
	doc.Fields = fields
	doc.PIICount = len(redaction.Entities)
	doc.Error = ""
	doc.IndexedAt = &now
	if err := s.documentStore.Save(ctx, doc); err != nil {
		return nil, fmt.Errorf("save document: %w", err)
	}

	s.auditor.DocumentIngested(documentID, doc.LoanID, len(chunks), len(redaction.Entities))

	return &driving.IngestResult{
		DocumentID:    documentID,
		ChunksIndexed: len(chunks),
		PIIDetected:   len(redaction.Entities),
		CacheHits:     cacheHits,
		Degraded:      redaction.Degraded,
	}, nil
}

// extractRedactedFields pulls labeled fields from the raw text and redacts
// each value before it is stored.
func (s *ingestService) extractRedactedFields(ctx context.Context, rawText string) (map[string]string, error) {
	raw := ExtractFields(rawText)
	if len(raw) == 0 {
		return nil, nil
	}
	fields := make(map[string]string, len(raw))
	for name, value := range raw {
		clean, err := s.redactor.Sanitize(ctx, value)
		if err != nil {
			return nil, fmt.Errorf("redact field %s: %w", name, err)
		}
		fields[name] = clean
	}
	return fields, nil
}

// embedChunks computes embeddings for all chunks, consulting the content
// hash cache first. Misses go to the provider concurrently; every chunk
// must succeed before the document can be marked indexed.
func (s *ingestService) embedChunks(ctx context.Context, chunks []*domain.Chunk) ([][]float32, int, error) {
	embedder := s.services.EmbeddingService()
	if embedder == nil {
		return nil, 0, fmt.Errorf("%w: no embedding service configured", domain.ErrServiceUnavailable)
	}

	embeddings := make([][]float32, len(chunks))
	cacheHits := 0

	var misses []int
	for i, chunk := range chunks {
		if vector, ok := s.cache.Get(ctx, ContentHash(chunk.Text)); ok {
			embeddings[i] = vector
			cacheHits++
			continue
		}
		misses = append(misses, i)
	}
	if len(misses) == 0 {
		return embeddings, cacheHits, nil
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	sem := make(chan struct{}, s.config.MaxConcurrency)

	for _, idx := range misses {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			text := chunks[idx].Text
			vectors, err := embedder.Embed(ctx, []string{text})
			if err == nil && len(vectors) != 1 {
				err = fmt.Errorf("%w: provider returned %d vectors for one input", domain.ErrServiceUnavailable, len(vectors))
			}
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = fmt.Errorf("embed chunk %d: %w", chunks[idx].Index, err)
				}
				mu.Unlock()
				return
			}
			s.cache.Set(ctx, ContentHash(text), vectors[0], s.config.CacheTTL)
			mu.Lock()
			embeddings[idx] = vectors[0]
			mu.Unlock()
		}(idx)
	}
	wg.Wait()

	if firstErr != nil {
		return nil, 0, firstErr
	}
	return embeddings, cacheHits, nil
}

// fail marks the document failed with the error and returns it.
func (s *ingestService) fail(ctx context.Context, doc *domain.Document, err error) error {
	doc.Status = domain.DocStatusFailed
	doc.Error = err.Error()
	if saveErr := s.documentStore.Save(ctx, doc); saveErr != nil {
		s.config.Logger.Error("failed to record document failure",
			"document_id", doc.ID, "error", saveErr)
	}
	return err
}

// ContentHash returns the hex SHA-256 of the exact text. It keys the
// embedding cache: identical redacted text always maps to the same entry.
func ContentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
