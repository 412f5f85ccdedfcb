// Package ai provides adapters for external embedding, chat, and entity
// recognition services. All outbound calls are paced with a client-side
// rate limiter so bursts of ingest work cannot trip provider quotas.
package ai

import (
	"fmt"

	"golang.org/x/time/rate"

	"github.com/loanvault-labs/loanvault-core/internal/core/ports/driven"
)

// Supported providers
const (
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
)

// defaultRequestsPerSecond caps outbound AI calls when no explicit limit
// is configured.
const defaultRequestsPerSecond = 5

// EmbeddingSettings configures an embedding service.
type EmbeddingSettings struct {
	Provider          string
	APIKey            string
	Model             string
	BaseURL           string
	RequestsPerSecond float64
}

// IsConfigured reports whether the settings name a provider.
func (s *EmbeddingSettings) IsConfigured() bool {
	return s != nil && s.Provider != ""
}

// ChatSettings configures a chat completion service.
type ChatSettings struct {
	Provider          string
	APIKey            string
	Model             string
	BaseURL           string
	RequestsPerSecond float64
}

// IsConfigured reports whether the settings name a provider.
func (s *ChatSettings) IsConfigured() bool {
	return s != nil && s.Provider != ""
}

// RecognizerSettings configures the optional NER collaborator.
type RecognizerSettings struct {
	BaseURL           string
	Model             string
	RequestsPerSecond float64
}

// IsConfigured reports whether a recognizer endpoint is set.
func (s *RecognizerSettings) IsConfigured() bool {
	return s != nil && s.BaseURL != ""
}

// Factory creates AI services based on configuration
type Factory struct{}

// NewFactory creates a new AI service factory
func NewFactory() *Factory {
	return &Factory{}
}

// CreateEmbeddingService creates an embedding service from settings.
// Returns nil, nil when no provider is configured.
func (f *Factory) CreateEmbeddingService(settings *EmbeddingSettings) (driven.EmbeddingService, error) {
	if !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case ProviderOpenAI:
		return NewOpenAIEmbedding(settings.APIKey, settings.Model, settings.BaseURL, settings.RequestsPerSecond)
	case ProviderOllama:
		return NewOllamaEmbedding(settings.BaseURL, settings.Model, settings.RequestsPerSecond)
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s", settings.Provider)
	}
}

// CreateChatService creates a chat service from settings.
// Returns nil, nil when no provider is configured.
func (f *Factory) CreateChatService(settings *ChatSettings) (driven.ChatService, error) {
	if !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case ProviderOpenAI:
		return NewOpenAIChat(settings.APIKey, settings.Model, settings.BaseURL, settings.RequestsPerSecond)
	case ProviderOllama:
		return NewOllamaChat(settings.BaseURL, settings.Model, settings.RequestsPerSecond)
	default:
		return nil, fmt.Errorf("unknown chat provider: %s", settings.Provider)
	}
}

// CreateRecognizer creates an entity recognizer from settings.
// Returns nil, nil when no endpoint is configured.
func (f *Factory) CreateRecognizer(settings *RecognizerSettings) (driven.EntityRecognizer, error) {
	if !settings.IsConfigured() {
		return nil, nil
	}
	return NewOllamaRecognizer(settings.BaseURL, settings.Model, settings.RequestsPerSecond)
}

func newLimiter(requestsPerSecond float64) *rate.Limiter {
	if requestsPerSecond <= 0 {
		requestsPerSecond = defaultRequestsPerSecond
	}
	burst := int(requestsPerSecond)
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
}
