package runtime

import (
	"context"
	"sync"

	"github.com/loanvault-labs/loanvault-core/internal/core/domain"
	"github.com/loanvault-labs/loanvault-core/internal/core/ports/driven"
)

// Services holds references to dynamically configurable AI services.
// Embedding, chat providers and the entity recognizer can be swapped at
// runtime. Thread-safe for concurrent access.
type Services struct {
	mu sync.RWMutex

	// Config tracks capability flags
	config *domain.RuntimeConfig

	// Dynamic services (can be nil, updated at runtime)
	embeddingService driven.EmbeddingService
	safeChat         driven.ChatService
	capabilityChat   driven.ChatService
	recognizer       driven.EntityRecognizer
}

// NewServices creates a new Services registry
func NewServices(config *domain.RuntimeConfig) *Services {
	return &Services{
		config: config,
	}
}

// Config returns the runtime configuration
func (s *Services) Config() *domain.RuntimeConfig {
	return s.config
}

// EmbeddingService returns the current embedding service (may be nil)
func (s *Services) EmbeddingService() driven.EmbeddingService {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.embeddingService
}

// ChatService returns the chat service for a provider (may be nil)
func (s *Services) ChatService(provider domain.ProviderID) driven.ChatService {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if provider == domain.ProviderSafe {
		return s.safeChat
	}
	return s.capabilityChat
}

// Recognizer returns the current entity recognizer (may be nil)
func (s *Services) Recognizer() driven.EntityRecognizer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.recognizer
}

// SetEmbeddingService updates the embedding service.
// Closes the old service if present. Updates config flags.
func (s *Services) SetEmbeddingService(svc driven.EmbeddingService) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.embeddingService != nil {
		_ = s.embeddingService.Close()
	}

	s.embeddingService = svc
	s.config.SetEmbeddingAvailable(svc != nil)
}

// SetChatService updates a provider's chat service.
// Closes the old service if present. Updates config flags.
func (s *Services) SetChatService(provider domain.ProviderID, svc driven.ChatService) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if provider == domain.ProviderSafe {
		if s.safeChat != nil {
			_ = s.safeChat.Close()
		}
		s.safeChat = svc
	} else {
		if s.capabilityChat != nil {
			_ = s.capabilityChat.Close()
		}
		s.capabilityChat = svc
	}
	s.config.SetChatAvailable(provider, svc != nil)
}

// SetRecognizer updates the entity recognizer.
// Closes the old recognizer if present. Updates config flags.
func (s *Services) SetRecognizer(rec driven.EntityRecognizer) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.recognizer != nil {
		_ = s.recognizer.Close()
	}

	s.recognizer = rec
	s.config.SetRecognizerAvailable(rec != nil)
}

// Close shuts down all services
func (s *Services) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.embeddingService != nil {
		_ = s.embeddingService.Close()
		s.embeddingService = nil
	}
	if s.safeChat != nil {
		_ = s.safeChat.Close()
		s.safeChat = nil
	}
	if s.capabilityChat != nil {
		_ = s.capabilityChat.Close()
		s.capabilityChat = nil
	}
	if s.recognizer != nil {
		_ = s.recognizer.Close()
		s.recognizer = nil
	}

	s.config.SetEmbeddingAvailable(false)
	s.config.SetChatAvailable(domain.ProviderSafe, false)
	s.config.SetChatAvailable(domain.ProviderCapability, false)
	s.config.SetRecognizerAvailable(false)

	return nil
}

// ValidateAndSetEmbedding validates connectivity before setting embedding service
func (s *Services) ValidateAndSetEmbedding(ctx context.Context, svc driven.EmbeddingService) error {
	if svc == nil {
		s.SetEmbeddingService(nil)
		return nil
	}

	if err := svc.HealthCheck(ctx); err != nil {
		_ = svc.Close()
		return err
	}

	s.SetEmbeddingService(svc)
	return nil
}

// ValidateAndSetChat validates connectivity before setting a chat service
func (s *Services) ValidateAndSetChat(ctx context.Context, provider domain.ProviderID, svc driven.ChatService) error {
	if svc == nil {
		s.SetChatService(provider, nil)
		return nil
	}

	if err := svc.Ping(ctx); err != nil {
		_ = svc.Close()
		return err
	}

	s.SetChatService(provider, svc)
	return nil
}

// ValidateAndSetRecognizer validates connectivity before setting the
// entity recognizer
func (s *Services) ValidateAndSetRecognizer(ctx context.Context, rec driven.EntityRecognizer) error {
	if rec == nil {
		s.SetRecognizer(nil)
		return nil
	}

	if err := rec.HealthCheck(ctx); err != nil {
		_ = rec.Close()
		return err
	}

	s.SetRecognizer(rec)
	return nil
}
