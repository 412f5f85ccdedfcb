package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/loanvault-labs/loanvault-core/internal/core/domain"
	"github.com/loanvault-labs/loanvault-core/internal/core/ports/driven"
	"github.com/loanvault-labs/loanvault-core/internal/core/ports/driving"
)

// Ensure redactionService implements RedactionService
var _ driving.RedactionService = (*redactionService)(nil)

// Marker patterns emitted by this service. Detection and the leak check
// mask them out so a marker is never re-detected as PII; that is what makes
// redaction idempotent.
var (
	placeholderMarker = regexp.MustCompile(`\[[A-Z][A-Z_]*_REDACTED\]`)
	tokenMarker       = regexp.MustCompile(`\[PII:[a-z_]+:[0-9a-fA-F-]{36}\]`)
)

const vaultLockTTL = 10 * time.Second

// redactionService implements the RedactionService interface
type redactionService struct {
	detector driving.DetectionService
	vault    driven.TokenVault
	lock     driven.DistributedLock // optional, nil in single-instance mode
}

// NewRedactionService creates a new RedactionService.
// The lock serializes token issuance per document across instances; pass nil
// when running a single instance.
func NewRedactionService(
	detector driving.DetectionService,
	vault driven.TokenVault,
	lock driven.DistributedLock,
) driving.RedactionService {
	return &redactionService{
		detector: detector,
		vault:    vault,
		lock:     lock,
	}
}

// Redact detects and replaces PII in a single pass.
func (s *redactionService) Redact(ctx context.Context, req domain.RedactionRequest) (*domain.RedactionResult, error) {
	if !req.Mode.Valid() {
		return nil, fmt.Errorf("%w: unknown redaction mode %q", domain.ErrInvalidInput, req.Mode)
	}

	mode := req.Mode
	downgraded := false
	if mode == domain.RedactionModeTokenized && !req.Role.CanReverse() {
		mode = domain.RedactionModeIrreversible
		downgraded = true
	}
	if mode == domain.RedactionModeTokenized && req.DocumentID == "" {
		return nil, fmt.Errorf("%w: tokenized redaction requires a document id", domain.ErrInvalidInput)
	}

	// Detect on a copy with prior markers masked so re-redacting already
	// redacted text changes nothing.
	detection, err := s.detector.Detect(ctx, maskMarkers(req.Text))
	if err != nil {
		return nil, fmt.Errorf("detect: %w", err)
	}

	var tokens domain.TokenMap
	if mode == domain.RedactionModeTokenized {
		tokens, err = s.issueTokens(ctx, req.DocumentID, detection.Entities)
		if err != nil {
			return nil, err
		}
	}

	redacted := applyRedaction(req.Text, detection.Entities, mode, tokens)

	if err := s.leakCheck(ctx, redacted); err != nil {
		return nil, err
	}

	return &domain.RedactionResult{
		RedactedText: redacted,
		Entities:     detection.Entities,
		Tokens:       tokens,
		Mode:         mode,
		Downgraded:   downgraded,
		Degraded:     detection.Degraded,
	}, nil
}

// Sanitize irreversibly re-redacts arbitrary text. Used on LLM output
// before it is returned or persisted.
func (s *redactionService) Sanitize(ctx context.Context, text string) (string, error) {
	detection, err := s.detector.Detect(ctx, maskMarkers(text))
	if err != nil {
		return "", fmt.Errorf("detect: %w", err)
	}

	redacted := applyRedaction(text, detection.Entities, domain.RedactionModeIrreversible, nil)
	if err := s.leakCheck(ctx, redacted); err != nil {
		return "", err
	}
	return redacted, nil
}

// ResolveToken reverses a vault token for an authorized role.
func (s *redactionService) ResolveToken(ctx context.Context, role domain.Role, documentID, token string) (string, error) {
	if !role.CanReverse() {
		return "", fmt.Errorf("%w: role %q may not resolve tokens", domain.ErrForbidden, role)
	}
	original, err := s.vault.Resolve(ctx, documentID, token)
	if err != nil {
		return "", fmt.Errorf("resolve token: %w", err)
	}
	return original, nil
}

// issueTokens builds the text -> token map for the detected entities,
// reusing tokens the vault already holds for this document. Newly issued
// tokens are persisted before the redacted text is assembled.
func (s *redactionService) issueTokens(ctx context.Context, documentID string, entities []domain.PIIEntity) (domain.TokenMap, error) {
	release := s.acquireVaultLock(ctx, documentID)
	defer release()

	tokens := make(domain.TokenMap)
	fresh := make(domain.TokenMap)

	for i := range entities {
		text := entities[i].Text
		if _, done := tokens[text]; done {
			continue
		}
		existing, err := s.vault.TokenFor(ctx, documentID, text)
		if err == nil {
			tokens[text] = existing
			continue
		}
		token := uuid.New().String()
		tokens[text] = token
		fresh[text] = token
	}

	if len(fresh) > 0 {
		if err := s.vault.Store(ctx, documentID, fresh); err != nil {
			return nil, fmt.Errorf("store tokens: %w", err)
		}
		// Store keeps the first token on a concurrent merge for the same
		// original. Re-read the fresh entries so the token embedded in the
		// redacted text is always the one the vault can resolve.
		for text := range fresh {
			persisted, err := s.vault.TokenFor(ctx, documentID, text)
			if err != nil {
				return nil, fmt.Errorf("confirm token: %w", err)
			}
			tokens[text] = persisted
		}
	}
	return tokens, nil
}

// acquireVaultLock takes the per-document vault lock when a lock backend is
// configured. Store itself is atomic; the lock only keeps the reuse lookup
// and the merge from racing across instances. Failing to acquire within the
// retry budget proceeds without the lock.
func (s *redactionService) acquireVaultLock(ctx context.Context, documentID string) func() {
	if s.lock == nil {
		return func() {}
	}

	name := "vault:" + documentID
	for attempt := 0; attempt < 20; attempt++ {
		acquired, err := s.lock.Acquire(ctx, name, vaultLockTTL)
		if err != nil || acquired {
			break
		}
		select {
		case <-ctx.Done():
			return func() {}
		case <-time.After(25 * time.Millisecond):
		}
	}
	return func() { _ = s.lock.Release(context.WithoutCancel(ctx), name) }
}

// leakCheck verifies no rule still matches the redacted text once emitted
// markers are masked out. A match is a pattern-coverage gap and aborts the
// operation.
func (s *redactionService) leakCheck(ctx context.Context, redacted string) error {
	check, err := s.detector.Detect(ctx, maskMarkers(redacted))
	if err != nil {
		return fmt.Errorf("leak check: %w", err)
	}
	if len(check.Entities) > 0 {
		e := check.Entities[0]
		return fmt.Errorf("%w: %s at [%d,%d)", domain.ErrPIILeak, e.Type, e.Start, e.End)
	}
	return nil
}

// applyRedaction rebuilds the text in one linear cursor pass over the
// sorted, non-overlapping entities.
func applyRedaction(text string, entities []domain.PIIEntity, mode domain.RedactionMode, tokens domain.TokenMap) string {
	if len(entities) == 0 {
		return text
	}

	var b strings.Builder
	cursor := 0
	for i := range entities {
		e := &entities[i]
		if e.Start < cursor || e.End > len(text) {
			continue
		}
		b.WriteString(text[cursor:e.Start])
		if mode == domain.RedactionModeTokenized {
			b.WriteString("[PII:")
			b.WriteString(string(e.Type))
			b.WriteString(":")
			b.WriteString(tokens[e.Text])
			b.WriteString("]")
		} else {
			b.WriteString("[")
			b.WriteString(strings.ToUpper(string(e.Type)))
			b.WriteString("_REDACTED]")
		}
		cursor = e.End
	}
	b.WriteString(text[cursor:])
	return b.String()
}

// maskMarkers blanks out previously emitted markers with spaces of equal
// length, preserving every other offset.
func maskMarkers(text string) string {
	masked := placeholderMarker.ReplaceAllStringFunc(text, blank)
	return tokenMarker.ReplaceAllStringFunc(masked, blank)
}

func blank(match string) string {
	return strings.Repeat(" ", len(match))
}
