package mocks

import (
	"context"
	"sort"
	"sync"

	"github.com/loanvault-labs/loanvault-core/internal/core/domain"
)

// MockDocumentStore is a mock implementation of DocumentStore for testing
type MockDocumentStore struct {
	mu     sync.RWMutex
	docs   map[string]*domain.Document
	chunks map[string][]*domain.Chunk
}

// NewMockDocumentStore creates a new MockDocumentStore
func NewMockDocumentStore() *MockDocumentStore {
	return &MockDocumentStore{
		docs:   make(map[string]*domain.Document),
		chunks: make(map[string][]*domain.Chunk),
	}
}

func (m *MockDocumentStore) Save(ctx context.Context, doc *domain.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *doc
	m.docs[doc.ID] = &copied
	return nil
}

func (m *MockDocumentStore) Get(ctx context.Context, id string) (*domain.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.docs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *doc
	return &copied, nil
}

func (m *MockDocumentStore) ListByLoan(ctx context.Context, loanID string) ([]*domain.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []*domain.Document
	for _, doc := range m.docs {
		if doc.LoanID == loanID {
			copied := *doc
			result = append(result, &copied)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

func (m *MockDocumentStore) SaveChunks(ctx context.Context, documentID string, chunks []*domain.Chunk) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chunks[documentID] = chunks
	return nil
}

func (m *MockDocumentStore) GetChunks(ctx context.Context, documentID string) ([]*domain.Chunk, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.chunks[documentID], nil
}

func (m *MockDocumentStore) ListChunksByLoan(ctx context.Context, loanID string) ([]*domain.Chunk, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []*domain.Chunk
	for docID, chunks := range m.chunks {
		doc, ok := m.docs[docID]
		if !ok || doc.LoanID != loanID || doc.Status != domain.DocStatusIndexed {
			continue
		}
		result = append(result, chunks...)
	}
	return result, nil
}

func (m *MockDocumentStore) Ping(ctx context.Context) error {
	return nil
}

// Helper methods for testing

func (m *MockDocumentStore) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.docs)
}
