package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/loanvault-labs/loanvault-core/internal/core/domain"
)

// ErrorResponse represents an API error response
// @Description API error response
type ErrorResponse struct {
	Error string `json:"error" example:"invalid request body"`
}

// StatusResponse represents a simple status response
// @Description Simple status response
type StatusResponse struct {
	Status string `json:"status" example:"ok"`
}

// VersionResponse represents the API version response
// @Description API version response
type VersionResponse struct {
	Version string `json:"version" example:"1.0.0"`
}

// Health endpoints

// handleHealth godoc
// @Summary      Health check
// @Description  Returns the health status of the API
// @Tags         Health
// @Produce      json
// @Success      200  {object}  StatusResponse
// @Router       /health [get]
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReady godoc
// @Summary      Readiness check
// @Description  Returns the readiness status of the API (checks store and cache connections)
// @Tags         Health
// @Produce      json
// @Success      200  {object}  StatusResponse
// @Failure      503  {object}  ErrorResponse  "A backing service is unreachable"
// @Router       /ready [get]
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.db != nil {
		if err := s.db.Ping(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, "document store unreachable")
			return
		}
	}
	if s.redisClient != nil {
		if err := s.redisClient.Ping(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, "cache unreachable")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// handleVersion godoc
// @Summary      Get API version
// @Description  Returns the current API version
// @Tags         Health
// @Produce      json
// @Success      200  {object}  VersionResponse
// @Router       /version [get]
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": s.version})
}

// Auth endpoints

// handleLogin godoc
// @Summary      Service account login
// @Description  Authenticate with account and password to receive a JWT token
// @Tags         Authentication
// @Accept       json
// @Produce      json
// @Param        request  body      domain.LoginRequest  true  "Login credentials"
// @Success      200      {object}  domain.LoginResponse
// @Failure      400      {object}  ErrorResponse  "Invalid request body"
// @Failure      401      {object}  ErrorResponse  "Invalid credentials"
// @Failure      500      {object}  ErrorResponse  "Internal server error"
// @Router       /auth/login [post]
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := s.authService.Authenticate(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidCredentials):
			writeError(w, http.StatusUnauthorized, "invalid credentials")
		default:
			writeError(w, http.StatusInternalServerError, "authentication failed")
		}
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Document endpoints

// initiateDocumentRequest registers an uploaded document
// @Description Document upload initiation request
type initiateDocumentRequest struct {
	LoanID       string              `json:"loan_id" example:"LN-2024-0042"`
	DocumentType domain.DocumentType `json:"document_type" example:"paystub" enums:"paystub,w2,bank_statement,credit_report,other"`
	FileName     string              `json:"file_name" example:"march_paystub.pdf"`
}

// handleInitiateDocument godoc
// @Summary      Initiate document upload
// @Description  Register an uploaded document for a loan. Rate limited per loan id.
// @Tags         Documents
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      initiateDocumentRequest  true  "Document metadata"
// @Success      201      {object}  domain.Document
// @Failure      400      {object}  ErrorResponse  "Invalid input"
// @Failure      401      {object}  ErrorResponse  "Unauthorized"
// @Failure      429      {object}  ErrorResponse  "Rate limit exceeded"
// @Router       /documents [post]
func (s *Server) handleInitiateDocument(w http.ResponseWriter, r *http.Request) {
	var req initiateDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.LoanID == "" {
		writeError(w, http.StatusBadRequest, "loan_id is required")
		return
	}

	if s.uploadLimiter != nil && !s.uploadLimiter.Allow(req.LoanID) {
		writeError(w, http.StatusTooManyRequests, "rate limit exceeded for loan "+req.LoanID)
		return
	}

	doc, err := s.docService.Initiate(r.Context(), req.LoanID, req.DocumentType, req.FileName)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidInput):
			writeError(w, http.StatusBadRequest, "invalid document metadata")
		default:
			writeError(w, http.StatusInternalServerError, "failed to register document")
		}
		return
	}

	writeJSON(w, http.StatusCreated, doc)
}

// handleListDocuments godoc
// @Summary      List documents for a loan
// @Description  Get all documents registered under a loan id
// @Tags         Documents
// @Produce      json
// @Security     BearerAuth
// @Param        loan_id  query     string  true  "Loan ID"
// @Success      200      {array}   domain.Document
// @Failure      400      {object}  ErrorResponse  "Missing loan id"
// @Failure      401      {object}  ErrorResponse  "Unauthorized"
// @Router       /documents [get]
func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	loanID := r.URL.Query().Get("loan_id")
	if loanID == "" {
		writeError(w, http.StatusBadRequest, "loan_id query parameter is required")
		return
	}

	docs, err := s.docService.ListByLoan(r.Context(), loanID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list documents")
		return
	}

	writeJSON(w, http.StatusOK, docs)
}

// handleGetDocument godoc
// @Summary      Get document
// @Description  Get a document by ID
// @Tags         Documents
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Document ID"
// @Success      200  {object}  domain.Document
// @Failure      401  {object}  ErrorResponse  "Unauthorized"
// @Failure      404  {object}  ErrorResponse  "Document not found"
// @Router       /documents/{id} [get]
func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing document id")
		return
	}

	doc, err := s.docService.Get(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			writeError(w, http.StatusNotFound, "document not found")
		default:
			writeError(w, http.StatusInternalServerError, "failed to get document")
		}
		return
	}

	writeJSON(w, http.StatusOK, doc)
}

// ingestRequest carries a document's raw text for background ingestion
// @Description Document ingestion request
type ingestRequest struct {
	Text string `json:"text"`
}

// ingestResponse acknowledges a queued ingest task
// @Description Queued ingest task acknowledgement
type ingestResponse struct {
	TaskID string `json:"task_id"`
	Status string `json:"status" example:"queued"`
}

// handleQueueIngest godoc
// @Summary      Queue document ingestion
// @Description  Enqueue background ingestion of a document's raw text
// @Tags         Documents
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string         true  "Document ID"
// @Param        request  body      ingestRequest  true  "Raw document text"
// @Success      202      {object}  ingestResponse
// @Failure      400      {object}  ErrorResponse  "Invalid input"
// @Failure      401      {object}  ErrorResponse  "Unauthorized"
// @Failure      404      {object}  ErrorResponse  "Document not found"
// @Router       /documents/{id}/ingest [post]
func (s *Server) handleQueueIngest(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing document id")
		return
	}

	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	taskID, err := s.docService.QueueIngest(r.Context(), id, req.Text)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			writeError(w, http.StatusNotFound, "document not found")
		default:
			writeError(w, http.StatusInternalServerError, "failed to queue ingestion")
		}
		return
	}

	writeJSON(w, http.StatusAccepted, ingestResponse{TaskID: taskID, Status: "queued"})
}

// handleGetTask godoc
// @Summary      Get ingest task status
// @Description  Get the state of a queued ingest task
// @Tags         Tasks
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Task ID"
// @Success      200  {object}  domain.Task
// @Failure      401  {object}  ErrorResponse  "Unauthorized"
// @Failure      404  {object}  ErrorResponse  "Task not found"
// @Router       /tasks/{id} [get]
func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing task id")
		return
	}

	task, err := s.docService.TaskStatus(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			writeError(w, http.StatusNotFound, "task not found")
		default:
			writeError(w, http.StatusInternalServerError, "failed to get task")
		}
		return
	}

	writeJSON(w, http.StatusOK, task)
}

// Redaction endpoints

// redactRequest asks for detection plus redaction of one text. The caller's
// role comes from the JWT, never from the body.
// @Description Redaction request
type redactRequest struct {
	DocumentID string               `json:"document_id,omitempty"`
	Text       string               `json:"text"`
	Mode       domain.RedactionMode `json:"mode" example:"irreversible" enums:"irreversible,tokenized"`
}

// handleRedact godoc
// @Summary      Redact PII
// @Description  Detect and redact PII in text. Tokenized mode requires the internal role; other roles are downgraded to irreversible placeholders.
// @Tags         Redaction
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      redactRequest  true  "Text to redact"
// @Success      200      {object}  domain.RedactionResult
// @Failure      400      {object}  ErrorResponse  "Invalid input"
// @Failure      401      {object}  ErrorResponse  "Unauthorized"
// @Failure      500      {object}  ErrorResponse  "Redaction failed"
// @Router       /redact [post]
func (s *Server) handleRedact(w http.ResponseWriter, r *http.Request) {
	authCtx := GetAuthContext(r.Context())
	if authCtx == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req redactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	result, err := s.redactionService.Redact(r.Context(), domain.RedactionRequest{
		DocumentID: req.DocumentID,
		Text:       req.Text,
		Mode:       req.Mode,
		Role:       authCtx.Role,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidInput):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, domain.ErrPIILeak):
			writeError(w, http.StatusInternalServerError, "redaction incomplete, text withheld")
		default:
			writeError(w, http.StatusInternalServerError, "redaction failed")
		}
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// resolveTokenRequest reverses one vault token
// @Description Token resolution request
type resolveTokenRequest struct {
	DocumentID string `json:"document_id"`
	Token      string `json:"token"`
}

// resolveTokenResponse carries the recovered original text
// @Description Token resolution response
type resolveTokenResponse struct {
	Original string `json:"original"`
}

// handleResolveToken godoc
// @Summary      Resolve vault token
// @Description  Reverse a tokenized redaction marker to its original text (internal role only)
// @Tags         Redaction
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      resolveTokenRequest  true  "Token to resolve"
// @Success      200      {object}  resolveTokenResponse
// @Failure      400      {object}  ErrorResponse  "Invalid input"
// @Failure      401      {object}  ErrorResponse  "Unauthorized"
// @Failure      403      {object}  ErrorResponse  "Forbidden - internal role only"
// @Failure      404      {object}  ErrorResponse  "Token not found"
// @Router       /tokens/resolve [post]
func (s *Server) handleResolveToken(w http.ResponseWriter, r *http.Request) {
	authCtx := GetAuthContext(r.Context())
	if authCtx == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req resolveTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.DocumentID == "" || req.Token == "" {
		writeError(w, http.StatusBadRequest, "document_id and token are required")
		return
	}

	original, err := s.redactionService.ResolveToken(r.Context(), authCtx.Role, req.DocumentID, req.Token)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrForbidden):
			writeError(w, http.StatusForbidden, "internal role required")
		case errors.Is(err, domain.ErrNotFound):
			writeError(w, http.StatusNotFound, "token not found")
		default:
			writeError(w, http.StatusInternalServerError, "failed to resolve token")
		}
		return
	}

	writeJSON(w, http.StatusOK, resolveTokenResponse{Original: original})
}

// Query endpoints

// handleQuery godoc
// @Summary      Query indexed documents
// @Description  Answer a question over the indexed, redacted corpus for one loan. Answers are re-redacted before return.
// @Tags         Query
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      domain.QueryRequest  true  "Question with loan scope"
// @Success      200      {object}  domain.QueryResult
// @Failure      400      {object}  ErrorResponse  "Invalid question or missing scope"
// @Failure      401      {object}  ErrorResponse  "Unauthorized"
// @Failure      503      {object}  ErrorResponse  "AI providers unavailable"
// @Router       /query [post]
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req domain.QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := s.queryService.Query(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidInput):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, domain.ErrServiceUnavailable):
			// No provider detail leaves the boundary
			writeError(w, http.StatusServiceUnavailable, "service temporarily unavailable")
		default:
			writeError(w, http.StatusInternalServerError, "query failed")
		}
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// Helper functions

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
