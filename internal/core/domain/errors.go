package domain

import "errors"

// Domain errors - used across all layers
var (
	// ErrNotFound indicates the requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates the resource already exists
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates the input is invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized indicates authentication failed or missing
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates the caller lacks permission for this action
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidCredentials indicates a wrong account/password combination
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrTokenExpired indicates the auth token has expired
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenInvalid indicates the auth token is malformed or invalid
	ErrTokenInvalid = errors.New("token invalid")

	// ErrRateLimited indicates the caller exceeded the request rate limit
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrServiceUnavailable indicates no AI provider could be reached
	ErrServiceUnavailable = errors.New("service unavailable")

	// ErrPIILeak indicates redacted text still matched a PII pattern.
	// This is a pattern-coverage gap, not a retry case: the operation
	// must abort rather than forward the text downstream.
	ErrPIILeak = errors.New("pii detected after redaction")

	// ErrIndexCorrupt indicates the persisted vector index and its
	// metadata are out of sync and must be rebuilt
	ErrIndexCorrupt = errors.New("vector index corrupt")

	// ErrNoRelevantContext indicates retrieval produced no hits above
	// the relevance threshold; distinct from an error condition
	ErrNoRelevantContext = errors.New("no relevant context found")
)
