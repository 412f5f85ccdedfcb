package runtime

import (
	"context"
	"testing"

	"github.com/loanvault-labs/loanvault-core/internal/core/domain"
	"github.com/loanvault-labs/loanvault-core/internal/core/ports/driven/mocks"
)

func TestServicesCapabilityFlags(t *testing.T) {
	config := domain.NewRuntimeConfig("memory")
	services := NewServices(config)

	if config.EmbeddingAvailable() {
		t.Error("embedding should start unavailable")
	}
	if config.CanAnswer() {
		t.Error("no chat provider should be available at start")
	}

	services.SetEmbeddingService(mocks.NewMockEmbeddingService())
	if !config.EmbeddingAvailable() {
		t.Error("embedding should be available after set")
	}

	services.SetChatService(domain.ProviderSafe, mocks.NewMockChatService("safe-model"))
	if !config.ChatAvailable(domain.ProviderSafe) {
		t.Error("safe chat should be available after set")
	}
	if config.ChatAvailable(domain.ProviderCapability) {
		t.Error("capability chat should remain unavailable")
	}
	if !config.CanAnswer() {
		t.Error("CanAnswer should be true with one provider up")
	}

	if err := services.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if config.EmbeddingAvailable() || config.CanAnswer() {
		t.Error("flags should clear on close")
	}
}

func TestValidateAndSetChatRejectsUnreachable(t *testing.T) {
	services := NewServices(domain.NewRuntimeConfig("memory"))

	chat := mocks.NewMockChatService("m")
	chat.SetFailAll(true)

	err := services.ValidateAndSetChat(context.Background(), domain.ProviderCapability, chat)
	if err == nil {
		t.Fatal("expected validation error for unreachable chat service")
	}
	if services.ChatService(domain.ProviderCapability) != nil {
		t.Error("failed validation must not install the service")
	}
}

func TestValidateAndSetRecognizer(t *testing.T) {
	config := domain.NewRuntimeConfig("memory")
	services := NewServices(config)

	rec := mocks.NewMockEntityRecognizer()
	if err := services.ValidateAndSetRecognizer(context.Background(), rec); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !config.RecognizerAvailable() {
		t.Error("recognizer should be available after set")
	}

	if err := services.ValidateAndSetRecognizer(context.Background(), nil); err != nil {
		t.Fatalf("unexpected error clearing recognizer: %v", err)
	}
	if config.RecognizerAvailable() {
		t.Error("recognizer should be unavailable after clearing")
	}
}
