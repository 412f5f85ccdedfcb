package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/loanvault-labs/loanvault-core/internal/core/domain"
	"github.com/loanvault-labs/loanvault-core/internal/core/ports/driving"
	"github.com/loanvault-labs/loanvault-core/internal/runtime"
)

// Ensure routerService implements RouterService
var _ driving.RouterService = (*routerService)(nil)

// routerService implements the RouterService interface.
// Provider selection is pure (domain.SelectProvider); this service owns
// invocation, the single fallback and the load gauge.
type routerService struct {
	services *runtime.Services
	logger   *slog.Logger

	inflight int64
	capacity int64
}

// NewRouterService creates a new RouterService.
// capacity sizes the load gauge: load factor is in-flight requests divided
// by capacity when the request does not carry its own.
func NewRouterService(services *runtime.Services, logger *slog.Logger, capacity int) driving.RouterService {
	if capacity <= 0 {
		capacity = 32
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &routerService{
		services: services,
		logger:   logger,
		capacity: int64(capacity),
	}
}

// Route completes the request on the provider the decision table selects,
// falling back once to the other provider when PII policy permits.
func (s *routerService) Route(ctx context.Context, req domain.RouteRequest) (*domain.RouteResult, error) {
	if req.Prompt == "" {
		return nil, fmt.Errorf("%w: empty prompt", domain.ErrInvalidInput)
	}

	atomic.AddInt64(&s.inflight, 1)
	defer atomic.AddInt64(&s.inflight, -1)

	if req.LoadFactor == 0 {
		req.LoadFactor = float64(atomic.LoadInt64(&s.inflight)) / float64(s.capacity)
	}

	primary := domain.SelectProvider(req)
	result, primaryErr := s.complete(ctx, primary, req)
	if primaryErr == nil {
		return result, nil
	}

	fallback, allowed := domain.FallbackProvider(primary, req)
	if !allowed {
		return nil, fmt.Errorf("%w: provider %s failed and fallback is forbidden by policy: %v",
			domain.ErrServiceUnavailable, primary, primaryErr)
	}

	s.logger.Warn("provider failed, falling back",
		"primary", string(primary),
		"fallback", string(fallback),
		"error", primaryErr)

	result, fallbackErr := s.complete(ctx, fallback, req)
	if fallbackErr != nil {
		return nil, fmt.Errorf("%w: both providers failed: %s: %v; %s: %v",
			domain.ErrServiceUnavailable, primary, primaryErr, fallback, fallbackErr)
	}
	result.FellBack = true
	return result, nil
}

// complete invokes one provider's chat service.
func (s *routerService) complete(ctx context.Context, provider domain.ProviderID, req domain.RouteRequest) (*domain.RouteResult, error) {
	chat := s.services.ChatService(provider)
	if chat == nil {
		return nil, fmt.Errorf("provider %s not configured", provider)
	}

	content, err := chat.Complete(ctx, req.Prompt, req.MaxTokens, req.Temperature)
	if err != nil {
		return nil, fmt.Errorf("provider %s: %w", provider, err)
	}
	return &domain.RouteResult{
		Provider: provider,
		Model:    chat.Model(),
		Content:  content,
	}, nil
}
