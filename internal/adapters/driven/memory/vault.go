package memory

import (
	"context"
	"sync"

	"github.com/loanvault-labs/loanvault-core/internal/core/domain"
	"github.com/loanvault-labs/loanvault-core/internal/core/ports/driven"
)

var _ driven.TokenVault = (*TokenVault)(nil)

type vaultDocument struct {
	byText  map[string]string // original -> token
	byToken map[string]string // token -> original
}

// TokenVault keeps reversible token mappings in process memory. Suitable
// for development deployments only: mappings are lost on restart, which
// permanently orphans any tokens already embedded in indexed chunks.
type TokenVault struct {
	mu        sync.Mutex
	documents map[string]*vaultDocument
}

// NewTokenVault creates an empty in-memory token vault.
func NewTokenVault() *TokenVault {
	return &TokenVault{
		documents: make(map[string]*vaultDocument),
	}
}

// Store merges the given mappings into the document's token map. Existing
// originals keep their first token.
func (v *TokenVault) Store(ctx context.Context, documentID string, tokens domain.TokenMap) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	doc, ok := v.documents[documentID]
	if !ok {
		doc = &vaultDocument{
			byText:  make(map[string]string),
			byToken: make(map[string]string),
		}
		v.documents[documentID] = doc
	}

	for original, token := range tokens {
		if _, exists := doc.byText[original]; exists {
			continue
		}
		doc.byText[original] = token
		doc.byToken[token] = original
	}
	return nil
}

func (v *TokenVault) Resolve(ctx context.Context, documentID, token string) (string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	doc, ok := v.documents[documentID]
	if !ok {
		return "", domain.ErrNotFound
	}
	original, ok := doc.byToken[token]
	if !ok {
		return "", domain.ErrNotFound
	}
	return original, nil
}

func (v *TokenVault) TokenFor(ctx context.Context, documentID, original string) (string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	doc, ok := v.documents[documentID]
	if !ok {
		return "", domain.ErrNotFound
	}
	token, ok := doc.byText[original]
	if !ok {
		return "", domain.ErrNotFound
	}
	return token, nil
}

func (v *TokenVault) Ping(ctx context.Context) error {
	return nil
}
