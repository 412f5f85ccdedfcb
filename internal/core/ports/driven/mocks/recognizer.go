package mocks

import (
	"context"
	"errors"
	"sync"

	"github.com/loanvault-labs/loanvault-core/internal/core/ports/driven"
)

// MockEntityRecognizer is a mock implementation of EntityRecognizer for testing
type MockEntityRecognizer struct {
	mu       sync.Mutex
	spans    []driven.RecognizedSpan
	failNext bool
	failAll  bool
	calls    int
}

// NewMockEntityRecognizer creates a new MockEntityRecognizer
func NewMockEntityRecognizer() *MockEntityRecognizer {
	return &MockEntityRecognizer{}
}

func (m *MockEntityRecognizer) Recognize(ctx context.Context, text, language string) ([]driven.RecognizedSpan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if m.failAll {
		return nil, errors.New("recognizer unavailable")
	}
	if m.failNext {
		m.failNext = false
		return nil, errors.New("recognizer unavailable")
	}
	return m.spans, nil
}

func (m *MockEntityRecognizer) HealthCheck(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll {
		return errors.New("recognizer unavailable")
	}
	return nil
}

func (m *MockEntityRecognizer) Close() error {
	return nil
}

// Helper methods for testing

func (m *MockEntityRecognizer) SetSpans(spans []driven.RecognizedSpan) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.spans = spans
}

func (m *MockEntityRecognizer) SetFailNext(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failNext = fail
}

func (m *MockEntityRecognizer) SetFailAll(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failAll = fail
}

func (m *MockEntityRecognizer) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
