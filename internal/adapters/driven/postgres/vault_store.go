package postgres

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"

	"github.com/loanvault-labs/loanvault-core/internal/core/domain"
	"github.com/loanvault-labs/loanvault-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.TokenVault = (*TokenVault)(nil)

// TokenVault implements driven.TokenVault using PostgreSQL. Originals are
// encrypted at rest with AES-256-GCM; the lookup by original value goes
// through a SHA-256 hash column so the plaintext never reaches the database.
type TokenVault struct {
	db        *DB
	encryptor *VaultEncryptor
}

// NewTokenVault creates a new TokenVault backed by the given database.
func NewTokenVault(db *DB, encryptor *VaultEncryptor) *TokenVault {
	return &TokenVault{db: db, encryptor: encryptor}
}

// Store merges original -> token mappings for a document. Inserts use
// ON CONFLICT DO NOTHING keyed on (document_id, original_hash), so a
// concurrent merge for the same original keeps whichever token landed
// first and this call is idempotent.
func (v *TokenVault) Store(ctx context.Context, documentID string, tokens domain.TokenMap) error {
	if len(tokens) == 0 {
		return nil
	}

	return v.db.Transaction(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO vault_tokens (document_id, token, original_hash, original_encrypted)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (document_id, original_hash) DO NOTHING
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for original, token := range tokens {
			encrypted, err := v.encryptor.Encrypt(original)
			if err != nil {
				return err
			}

			_, err = stmt.ExecContext(ctx, documentID, token, originalHash(original), encrypted)
			if err != nil {
				return err
			}
		}

		return nil
	})
}

// Resolve returns the original text behind a token.
func (v *TokenVault) Resolve(ctx context.Context, documentID, token string) (string, error) {
	query := `
		SELECT original_encrypted
		FROM vault_tokens
		WHERE document_id = $1 AND token = $2
	`

	var encrypted []byte
	err := v.db.QueryRowContext(ctx, query, documentID, token).Scan(&encrypted)
	if err == sql.ErrNoRows {
		return "", domain.ErrNotFound
	}
	if err != nil {
		return "", err
	}

	return v.encryptor.Decrypt(encrypted)
}

// TokenFor returns the existing token for an original value within a document.
func (v *TokenVault) TokenFor(ctx context.Context, documentID, original string) (string, error) {
	query := `
		SELECT token
		FROM vault_tokens
		WHERE document_id = $1 AND original_hash = $2
	`

	var token string
	err := v.db.QueryRowContext(ctx, query, documentID, originalHash(original)).Scan(&token)
	if err == sql.ErrNoRows {
		return "", domain.ErrNotFound
	}
	if err != nil {
		return "", err
	}

	return token, nil
}

// Ping checks if the vault backend is healthy
func (v *TokenVault) Ping(ctx context.Context) error {
	return v.db.Ping(ctx)
}

func originalHash(original string) string {
	sum := sha256.Sum256([]byte(original))
	return hex.EncodeToString(sum[:])
}
