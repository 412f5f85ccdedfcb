package driven

import (
	"context"

	"github.com/loanvault-labs/loanvault-core/internal/core/domain"
)

// TokenVault stores reversible PII token mappings per document.
// Store must be atomic per document id: merging newly issued tokens into an
// existing map must not lose concurrently added tokens. Resolve is the only
// reversal path; tokens are never recomputable from their originals.
type TokenVault interface {
	// Store merges original -> token mappings for a document
	Store(ctx context.Context, documentID string, tokens domain.TokenMap) error

	// Resolve returns the original text behind a token, or
	// domain.ErrNotFound. Role authorization is enforced by the caller;
	// implementations may additionally refuse non-internal roles.
	Resolve(ctx context.Context, documentID, token string) (string, error)

	// TokenFor returns the existing token for an original value within a
	// document, or domain.ErrNotFound. Lets the redactor reuse tokens so
	// issuance is idempotent per document.
	TokenFor(ctx context.Context, documentID, original string) (string, error)

	// Ping checks if the vault backend is healthy
	Ping(ctx context.Context) error
}
