package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/loanvault-labs/loanvault-core/internal/core/domain"
	"github.com/loanvault-labs/loanvault-core/internal/core/ports/driven"
)

var _ driven.DocumentStore = (*DocumentStore)(nil)

// DocumentStore keeps documents and chunks in process memory.
type DocumentStore struct {
	mu        sync.RWMutex
	documents map[string]*domain.Document
	chunks    map[string][]*domain.Chunk // keyed by document ID
}

// NewDocumentStore creates an empty in-memory document store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		documents: make(map[string]*domain.Document),
		chunks:    make(map[string][]*domain.Chunk),
	}
}

func (s *DocumentStore) Save(ctx context.Context, doc *domain.Document) error {
	if doc == nil || doc.ID == "" {
		return domain.ErrInvalidInput
	}
	stored := *doc
	s.mu.Lock()
	s.documents[doc.ID] = &stored
	s.mu.Unlock()
	return nil
}

func (s *DocumentStore) Get(ctx context.Context, id string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.documents[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *doc
	return &copied, nil
}

func (s *DocumentStore) ListByLoan(ctx context.Context, loanID string) ([]*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var docs []*domain.Document
	for _, doc := range s.documents {
		if doc.LoanID != loanID {
			continue
		}
		copied := *doc
		docs = append(docs, &copied)
	}
	sort.Slice(docs, func(i, j int) bool {
		return docs[i].CreatedAt.Before(docs[j].CreatedAt)
	})
	return docs, nil
}

func (s *DocumentStore) SaveChunks(ctx context.Context, documentID string, chunks []*domain.Chunk) error {
	stored := make([]*domain.Chunk, len(chunks))
	for i, chunk := range chunks {
		copied := *chunk
		stored[i] = &copied
	}
	s.mu.Lock()
	s.chunks[documentID] = stored
	s.mu.Unlock()
	return nil
}

func (s *DocumentStore) GetChunks(ctx context.Context, documentID string) ([]*domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	chunks := make([]*domain.Chunk, 0, len(s.chunks[documentID]))
	for _, chunk := range s.chunks[documentID] {
		copied := *chunk
		chunks = append(chunks, &copied)
	}
	sort.Slice(chunks, func(i, j int) bool {
		return chunks[i].Index < chunks[j].Index
	})
	return chunks, nil
}

func (s *DocumentStore) ListChunksByLoan(ctx context.Context, loanID string) ([]*domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var chunks []*domain.Chunk
	for docID, doc := range s.documents {
		if doc.LoanID != loanID || doc.Status != domain.DocStatusIndexed {
			continue
		}
		for _, chunk := range s.chunks[docID] {
			copied := *chunk
			chunks = append(chunks, &copied)
		}
	}
	return chunks, nil
}

func (s *DocumentStore) Ping(ctx context.Context) error {
	return nil
}
