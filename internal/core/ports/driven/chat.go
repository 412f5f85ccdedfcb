package driven

import (
	"context"
)

// ChatService provides large language model completions.
// Errors are surfaced as-is; the provider router owns fallback policy.
type ChatService interface {
	// Complete generates a completion for the given prompt
	Complete(ctx context.Context, prompt string, maxTokens int, temperature float64) (string, error)

	// Model returns the model name being used
	Model() string

	// Ping verifies the chat service is available
	Ping(ctx context.Context) error

	// Close releases resources held by the chat service
	Close() error
}
