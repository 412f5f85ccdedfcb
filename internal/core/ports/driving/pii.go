package driving

import (
	"context"

	"github.com/loanvault-labs/loanvault-core/internal/core/domain"
)

// DetectionService finds PII entities in text.
type DetectionService interface {
	// Detect returns the deduplicated, non-overlapping entity list for a
	// text. A failing external recognizer degrades the result (flagged on
	// the result), it never fails the call.
	Detect(ctx context.Context, text string) (*domain.DetectionResult, error)
}

// RedactionService converts detected entities into placeholders or
// reversible tokens.
type RedactionService interface {
	// Redact detects and redacts PII in one pass. Tokenized mode is role
	// gated: unauthorized roles are downgraded to irreversible
	// placeholders.
	Redact(ctx context.Context, req domain.RedactionRequest) (*domain.RedactionResult, error)

	// Sanitize re-redacts arbitrary text irreversibly. Applied to all LLM
	// output before it is shown or persisted: model output is untrusted
	// input that may reintroduce PII.
	Sanitize(ctx context.Context, text string) (string, error)

	// ResolveToken reverses a vault token for an authorized role.
	ResolveToken(ctx context.Context, role domain.Role, documentID, token string) (string, error)
}
