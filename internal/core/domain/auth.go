package domain

import "time"

// Role determines what a caller may see and do. The role boundary is a hard
// requirement for the redaction subsystem: only internal callers may request
// reversible (tokenized) redaction or resolve vault tokens.
type Role string

const (
	// RoleInternal is an authorized back-office caller. May request
	// tokenized redaction and resolve tokens through the vault.
	RoleInternal Role = "internal"

	// RoleExternal is any other caller. Always receives irreversible
	// placeholders.
	RoleExternal Role = "external"
)

// CanReverse reports whether the role may see reversible tokenized markers
// and resolve them later.
func (r Role) CanReverse() bool {
	return r == RoleInternal
}

// AuthContext contains authenticated caller info for request context.
type AuthContext struct {
	Account string `json:"account"`
	Role    Role   `json:"role"`
}

// LoginRequest represents a service-account login attempt.
type LoginRequest struct {
	Account  string `json:"account"`
	Password string `json:"password"`
}

// LoginResponse is returned after successful authentication.
type LoginResponse struct {
	Token     string    `json:"token"`
	Role      Role      `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
}

// TokenClaims represents the JWT token payload.
type TokenClaims struct {
	Account   string `json:"account"`
	Role      Role   `json:"role"`
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
}
