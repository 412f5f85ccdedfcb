package mocks

import (
	"context"
	"sync"

	"github.com/loanvault-labs/loanvault-core/internal/core/domain"
)

// MockTokenVault is a mock implementation of TokenVault for testing
type MockTokenVault struct {
	mu       sync.RWMutex
	byToken  map[string]map[string]string // document ID -> token -> original
	byText   map[string]map[string]string // document ID -> original -> token
	failNext bool
	stores   int
}

// NewMockTokenVault creates a new MockTokenVault
func NewMockTokenVault() *MockTokenVault {
	return &MockTokenVault{
		byToken: make(map[string]map[string]string),
		byText:  make(map[string]map[string]string),
	}
}

func (m *MockTokenVault) Store(ctx context.Context, documentID string, tokens domain.TokenMap) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failNext {
		m.failNext = false
		return domain.ErrServiceUnavailable
	}
	m.stores++

	if m.byToken[documentID] == nil {
		m.byToken[documentID] = make(map[string]string)
		m.byText[documentID] = make(map[string]string)
	}
	for original, token := range tokens {
		if _, exists := m.byText[documentID][original]; exists {
			continue
		}
		m.byToken[documentID][token] = original
		m.byText[documentID][original] = token
	}
	return nil
}

func (m *MockTokenVault) Resolve(ctx context.Context, documentID, token string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	original, ok := m.byToken[documentID][token]
	if !ok {
		return "", domain.ErrNotFound
	}
	return original, nil
}

func (m *MockTokenVault) TokenFor(ctx context.Context, documentID, original string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	token, ok := m.byText[documentID][original]
	if !ok {
		return "", domain.ErrNotFound
	}
	return token, nil
}

func (m *MockTokenVault) Ping(ctx context.Context) error {
	return nil
}

// Helper methods for testing

func (m *MockTokenVault) SetFailNext(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failNext = fail
}

func (m *MockTokenVault) Stores() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.stores
}

// TokenCount returns the number of tokens stored for a document
func (m *MockTokenVault) TokenCount(documentID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.byToken[documentID])
}
