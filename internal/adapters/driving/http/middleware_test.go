package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/loanvault-labs/loanvault-core/internal/core/domain"
)

func TestExtractBearerToken(t *testing.T) {
	tests := []struct {
		name     string
		header   string
		expected string
	}{
		{
			name:     "valid bearer token",
			header:   "Bearer abc123",
			expected: "abc123",
		},
		{
			name:     "bearer with extra spaces",
			header:   "Bearer   token-with-spaces   ",
			expected: "token-with-spaces",
		},
		{
			name:     "lowercase bearer",
			header:   "bearer token123",
			expected: "token123",
		},
		{
			name:     "empty header",
			header:   "",
			expected: "",
		},
		{
			name:     "no bearer prefix",
			header:   "token123",
			expected: "",
		},
		{
			name:     "basic auth",
			header:   "Basic dXNlcjpwYXNz",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			result := extractBearerToken(req)
			if result != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, result)
			}
		})
	}
}

func TestGetAuthContext(t *testing.T) {
	result := GetAuthContext(context.Background())
	if result != nil {
		t.Error("expected nil for context without auth")
	}

	authCtx := &domain.AuthContext{Account: "underwriting", Role: domain.RoleInternal}
	ctx := context.WithValue(context.Background(), authContextKey, authCtx)
	result = GetAuthContext(ctx)
	if result == nil {
		t.Fatal("expected auth context to be returned")
	}
	if result.Account != "underwriting" {
		t.Errorf("expected account underwriting, got %s", result.Account)
	}
	if result.Role != domain.RoleInternal {
		t.Errorf("expected role internal, got %s", result.Role)
	}
}

func TestAuthenticate_MissingToken(t *testing.T) {
	middleware := NewAuthMiddleware(&mockAuthService{})

	handler := middleware.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be called")
	}))

	req := httptest.NewRequest("GET", "/api/v1/documents", nil)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", rr.Code)
	}
}

func TestAuthenticate_ExpiredToken(t *testing.T) {
	middleware := NewAuthMiddleware(&mockAuthService{
		validateTokenFn: func(ctx context.Context, token string) (*domain.AuthContext, error) {
			return nil, domain.ErrTokenExpired
		},
	})

	handler := middleware.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be called")
	}))

	req := httptest.NewRequest("GET", "/api/v1/documents", nil)
	req.Header.Set("Authorization", "Bearer expired-token")
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", rr.Code)
	}
}

func TestAuthenticate_ValidToken(t *testing.T) {
	middleware := NewAuthMiddleware(&mockAuthService{
		validateTokenFn: func(ctx context.Context, token string) (*domain.AuthContext, error) {
			if token != "good-token" {
				return nil, domain.ErrTokenInvalid
			}
			return &domain.AuthContext{Account: "underwriting", Role: domain.RoleInternal}, nil
		},
	})

	var captured *domain.AuthContext
	handler := middleware.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = GetAuthContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/api/v1/documents", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rr.Code)
	}
	if captured == nil {
		t.Fatal("expected auth context in request")
	}
	if captured.Account != "underwriting" {
		t.Errorf("expected account underwriting, got %s", captured.Account)
	}
}

func TestRequireInternal_ExternalRole(t *testing.T) {
	middleware := NewAuthMiddleware(&mockAuthService{})

	handler := middleware.RequireInternal(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be called")
	}))

	authCtx := &domain.AuthContext{Account: "broker-portal", Role: domain.RoleExternal}
	ctx := context.WithValue(context.Background(), authContextKey, authCtx)
	req := httptest.NewRequest("POST", "/api/v1/tokens/resolve", nil).WithContext(ctx)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Errorf("expected status 403, got %d", rr.Code)
	}
}

func TestRequireInternal_InternalRole(t *testing.T) {
	middleware := NewAuthMiddleware(&mockAuthService{})

	handler := middleware.RequireInternal(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	authCtx := &domain.AuthContext{Account: "underwriting", Role: domain.RoleInternal}
	ctx := context.WithValue(context.Background(), authContextKey, authCtx)
	req := httptest.NewRequest("POST", "/api/v1/tokens/resolve", nil).WithContext(ctx)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rr.Code)
	}
}

func TestLoggingMiddleware(t *testing.T) {
	middleware := NewLoggingMiddleware(nil)

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	req := httptest.NewRequest("GET", "/test", nil)
	rr := httptest.NewRecorder()

	middleware.Handler(handler).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rr.Code)
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	middleware := NewRecoveryMiddleware(nil)

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(errors.New("boom"))
	})

	req := httptest.NewRequest("GET", "/test", nil)
	rr := httptest.NewRecorder()

	middleware.Handler(handler).ServeHTTP(rr, req)

	if rr.Code != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", rr.Code)
	}
}

func TestUploadRateLimiter_Window(t *testing.T) {
	limiter := NewUploadRateLimiter(2)

	now := time.Now()
	limiter.now = func() time.Time { return now }

	if !limiter.Allow("LN-1") {
		t.Error("first request should be allowed")
	}
	if !limiter.Allow("LN-1") {
		t.Error("second request should be allowed")
	}
	if limiter.Allow("LN-1") {
		t.Error("third request in window should be denied")
	}

	// Independent keys do not share a window
	if !limiter.Allow("LN-2") {
		t.Error("different key should be allowed")
	}

	// The window slides: old entries expire
	now = now.Add(1100 * time.Millisecond)
	if !limiter.Allow("LN-1") {
		t.Error("request after window should be allowed")
	}
}

func TestUploadRateLimiter_Disabled(t *testing.T) {
	limiter := NewUploadRateLimiter(0)

	for i := 0; i < 100; i++ {
		if !limiter.Allow("LN-1") {
			t.Fatal("disabled limiter should always allow")
		}
	}
}
