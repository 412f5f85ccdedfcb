package services

import (
	"log/slog"

	"github.com/loanvault-labs/loanvault-core/internal/core/domain"
)

// Auditor emits structured audit events for the sensitive operations.
// Events carry identifiers and counts only, never PII values or tokens'
// originals.
type Auditor struct {
	logger *slog.Logger
}

// NewAuditor creates an Auditor writing through the given logger.
func NewAuditor(logger *slog.Logger) *Auditor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Auditor{logger: logger}
}

// PIIRedacted records one redaction pass.
func (a *Auditor) PIIRedacted(documentID string, mode domain.RedactionMode, entities int, downgraded, degraded bool) {
	a.logger.Info("audit",
		"event", "pii_redacted",
		"document_id", documentID,
		"mode", string(mode),
		"entities", entities,
		"downgraded", downgraded,
		"degraded", degraded)
}

// DocumentIngested records completion of the ingest pipeline for a document.
func (a *Auditor) DocumentIngested(documentID, loanID string, chunks, piiDetected int) {
	a.logger.Info("audit",
		"event", "document_ingested",
		"document_id", documentID,
		"loan_id", loanID,
		"chunks", chunks,
		"pii_detected", piiDetected)
}

// TokenResolved records a vault token reversal. The resolved value is
// deliberately not logged.
func (a *Auditor) TokenResolved(account, documentID, token string) {
	a.logger.Info("audit",
		"event", "token_resolved",
		"account", account,
		"document_id", documentID,
		"token", token)
}

// QueryAnswered records a completed retrieval query.
func (a *Auditor) QueryAnswered(loanID string, provider string, strategy string, sources int) {
	a.logger.Info("audit",
		"event", "query_answered",
		"loan_id", loanID,
		"provider", provider,
		"strategy", strategy,
		"sources", sources)
}
