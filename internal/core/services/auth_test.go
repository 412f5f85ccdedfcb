package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/loanvault-labs/loanvault-core/internal/core/domain"
	"github.com/loanvault-labs/loanvault-core/internal/core/ports/driven/mocks"
)

func newAuthFixture() *authService {
	svc := NewAuthService(mocks.NewMockAuthAdapter(), []ServiceAccount{
		{Name: "underwriting", PasswordHash: "internal-secret", Role: domain.RoleInternal},
		{Name: "portal", PasswordHash: "portal-secret", Role: domain.RoleExternal},
	}, time.Hour)
	return svc.(*authService)
}

func TestAuthenticateIssuesRoleToken(t *testing.T) {
	auth := newAuthFixture()
	ctx := context.Background()

	resp, err := auth.Authenticate(ctx, domain.LoginRequest{
		Account: "underwriting", Password: "internal-secret",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Role != domain.RoleInternal {
		t.Errorf("expected internal role, got %s", resp.Role)
	}
	if resp.Token == "" {
		t.Fatal("expected a token")
	}

	authCtx, err := auth.ValidateToken(ctx, resp.Token)
	if err != nil {
		t.Fatalf("validate token: %v", err)
	}
	if authCtx.Account != "underwriting" || authCtx.Role != domain.RoleInternal {
		t.Errorf("unexpected auth context: %+v", authCtx)
	}
}

func TestAuthenticateRejectsBadCredentials(t *testing.T) {
	auth := newAuthFixture()
	ctx := context.Background()

	_, err := auth.Authenticate(ctx, domain.LoginRequest{Account: "underwriting", Password: "wrong"})
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("wrong password: expected ErrInvalidCredentials, got %v", err)
	}

	_, err = auth.Authenticate(ctx, domain.LoginRequest{Account: "nobody", Password: "x"})
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("unknown account: expected ErrInvalidCredentials, got %v", err)
	}
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	auth := newAuthFixture()

	_, err := auth.ValidateToken(context.Background(), "not-a-token")
	if !errors.Is(err, domain.ErrTokenInvalid) {
		t.Errorf("expected ErrTokenInvalid, got %v", err)
	}
}
