package driving

import (
	"context"

	"github.com/loanvault-labs/loanvault-core/internal/core/domain"
)

// AuthService authenticates service accounts and validates tokens.
type AuthService interface {
	// Authenticate verifies account credentials and issues a token
	Authenticate(ctx context.Context, req domain.LoginRequest) (*domain.LoginResponse, error)

	// ValidateToken parses a token into an auth context
	ValidateToken(ctx context.Context, token string) (*domain.AuthContext, error)
}
