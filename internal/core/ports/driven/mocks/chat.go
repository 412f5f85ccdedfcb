package mocks

import (
	"context"
	"errors"
	"sync"
)

// MockChatService is a mock implementation of ChatService for testing
type MockChatService struct {
	mu       sync.Mutex
	model    string
	response string
	failNext bool
	failAll  bool
	calls    int
	prompts  []string
}

// NewMockChatService creates a new MockChatService
func NewMockChatService(model string) *MockChatService {
	return &MockChatService{
		model:    model,
		response: "mock completion",
	}
}

func (m *MockChatService) Complete(ctx context.Context, prompt string, maxTokens int, temperature float64) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	m.prompts = append(m.prompts, prompt)

	if m.failAll {
		return "", errors.New("chat service unavailable")
	}
	if m.failNext {
		m.failNext = false
		return "", errors.New("chat service unavailable")
	}
	return m.response, nil
}

func (m *MockChatService) Model() string {
	return m.model
}

func (m *MockChatService) Ping(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll {
		return errors.New("chat service unavailable")
	}
	return nil
}

func (m *MockChatService) Close() error {
	return nil
}

// Helper methods for testing

func (m *MockChatService) SetResponse(response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.response = response
}

func (m *MockChatService) SetFailNext(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failNext = fail
}

func (m *MockChatService) SetFailAll(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failAll = fail
}

func (m *MockChatService) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// LastPrompt returns the most recent prompt, or "" if none
func (m *MockChatService) LastPrompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.prompts) == 0 {
		return ""
	}
	return m.prompts[len(m.prompts)-1]
}
