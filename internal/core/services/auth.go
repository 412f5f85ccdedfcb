package services

import (
	"context"
	"fmt"
	"time"

	"github.com/loanvault-labs/loanvault-core/internal/core/domain"
	"github.com/loanvault-labs/loanvault-core/internal/core/ports/driven"
	"github.com/loanvault-labs/loanvault-core/internal/core/ports/driving"
)

// Ensure authService implements AuthService
var _ driving.AuthService = (*authService)(nil)

// ServiceAccount is one configured caller identity. PasswordHash is a
// bcrypt hash; plaintext passwords never appear in configuration.
type ServiceAccount struct {
	Name         string
	PasswordHash string
	Role         domain.Role
}

// authService implements the AuthService interface
type authService struct {
	adapter  driven.AuthAdapter
	accounts map[string]ServiceAccount
	tokenTTL time.Duration
}

// NewAuthService creates a new AuthService over a static account set.
func NewAuthService(adapter driven.AuthAdapter, accounts []ServiceAccount, tokenTTL time.Duration) driving.AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 8 * time.Hour
	}
	byName := make(map[string]ServiceAccount, len(accounts))
	for _, account := range accounts {
		byName[account.Name] = account
	}
	return &authService{
		adapter:  adapter,
		accounts: byName,
		tokenTTL: tokenTTL,
	}
}

// Authenticate verifies credentials and issues a role-bearing token.
func (s *authService) Authenticate(ctx context.Context, req domain.LoginRequest) (*domain.LoginResponse, error) {
	account, ok := s.accounts[req.Account]
	if !ok || !s.adapter.VerifyPassword(req.Password, account.PasswordHash) {
		// Same error for unknown account and wrong password
		return nil, domain.ErrInvalidCredentials
	}

	now := time.Now()
	expiresAt := now.Add(s.tokenTTL)
	token, err := s.adapter.GenerateToken(&domain.TokenClaims{
		Account:   account.Name,
		Role:      account.Role,
		IssuedAt:  now.Unix(),
		ExpiresAt: expiresAt.Unix(),
	})
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}

	return &domain.LoginResponse{
		Token:     token,
		Role:      account.Role,
		ExpiresAt: expiresAt,
	}, nil
}

// ValidateToken parses a token into an auth context.
func (s *authService) ValidateToken(ctx context.Context, token string) (*domain.AuthContext, error) {
	claims, err := s.adapter.ParseToken(token)
	if err != nil {
		return nil, err
	}
	return &domain.AuthContext{
		Account: claims.Account,
		Role:    claims.Role,
	}, nil
}
