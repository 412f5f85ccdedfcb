package mocks

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/loanvault-labs/loanvault-core/internal/core/domain"
)

// MockVectorIndex is a mock implementation of VectorIndex for testing
type MockVectorIndex struct {
	mu      sync.RWMutex
	records map[string][]*domain.IndexedRecord // by document ID
	hits    []*domain.SearchHit                // canned results, if set
	failAll bool
}

// NewMockVectorIndex creates a new MockVectorIndex
func NewMockVectorIndex() *MockVectorIndex {
	return &MockVectorIndex{
		records: make(map[string][]*domain.IndexedRecord),
	}
}

func (m *MockVectorIndex) Upsert(ctx context.Context, records []*domain.IndexedRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll {
		return domain.ErrServiceUnavailable
	}
	for _, rec := range records {
		m.records[rec.DocumentID] = append(m.records[rec.DocumentID], rec)
	}
	return nil
}

func (m *MockVectorIndex) Search(ctx context.Context, embedding []float32, k int, scope domain.QueryScope) ([]*domain.SearchHit, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.failAll {
		return nil, domain.ErrServiceUnavailable
	}
	if m.hits != nil {
		if len(m.hits) > k {
			return m.hits[:k], nil
		}
		return m.hits, nil
	}

	var hits []*domain.SearchHit
	for _, recs := range m.records {
		for _, rec := range recs {
			if scope.LoanID != "" && rec.LoanID != scope.LoanID {
				continue
			}
			if len(scope.DocumentTypes) > 0 {
				found := false
				for _, dt := range scope.DocumentTypes {
					if rec.DocumentType == dt {
						found = true
						break
					}
				}
				if !found {
					continue
				}
			}
			hits = append(hits, &domain.SearchHit{
				Record:   rec,
				Distance: l2Distance(embedding, rec.Embedding),
			})
		}
	}

	sort.Slice(hits, func(i, j int) bool { return hits[i].Distance < hits[j].Distance })
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

func (m *MockVectorIndex) DeleteByDocument(ctx context.Context, documentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, documentID)
	return nil
}

func (m *MockVectorIndex) HealthCheck(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.failAll {
		return domain.ErrServiceUnavailable
	}
	return nil
}

func l2Distance(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}

// Helper methods for testing

// SetHits makes Search return canned hits instead of computing distances.
func (m *MockVectorIndex) SetHits(hits []*domain.SearchHit) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hits = hits
}

func (m *MockVectorIndex) SetFailAll(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failAll = fail
}

// Count returns the number of stored records for a document
func (m *MockVectorIndex) Count(documentID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records[documentID])
}

// Records returns the stored records for a document
func (m *MockVectorIndex) Records(documentID string) []*domain.IndexedRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.records[documentID]
}
