package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/loanvault-labs/loanvault-core/internal/core/domain"
)

// Mock services for testing

type mockAuthService struct {
	authenticateFn  func(ctx context.Context, req domain.LoginRequest) (*domain.LoginResponse, error)
	validateTokenFn func(ctx context.Context, token string) (*domain.AuthContext, error)
}

func (m *mockAuthService) Authenticate(ctx context.Context, req domain.LoginRequest) (*domain.LoginResponse, error) {
	if m.authenticateFn != nil {
		return m.authenticateFn(ctx, req)
	}
	return nil, errors.New("not implemented")
}

func (m *mockAuthService) ValidateToken(ctx context.Context, token string) (*domain.AuthContext, error) {
	if m.validateTokenFn != nil {
		return m.validateTokenFn(ctx, token)
	}
	return nil, errors.New("not implemented")
}

type mockDocumentService struct {
	initiateFn    func(ctx context.Context, loanID string, docType domain.DocumentType, fileName string) (*domain.Document, error)
	getFn         func(ctx context.Context, id string) (*domain.Document, error)
	listByLoanFn  func(ctx context.Context, loanID string) ([]*domain.Document, error)
	queueIngestFn func(ctx context.Context, documentID, rawText string) (string, error)
	taskStatusFn  func(ctx context.Context, taskID string) (*domain.Task, error)
}

func (m *mockDocumentService) Initiate(ctx context.Context, loanID string, docType domain.DocumentType, fileName string) (*domain.Document, error) {
	if m.initiateFn != nil {
		return m.initiateFn(ctx, loanID, docType, fileName)
	}
	return nil, errors.New("not implemented")
}

func (m *mockDocumentService) Get(ctx context.Context, id string) (*domain.Document, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, errors.New("not implemented")
}

func (m *mockDocumentService) ListByLoan(ctx context.Context, loanID string) ([]*domain.Document, error) {
	if m.listByLoanFn != nil {
		return m.listByLoanFn(ctx, loanID)
	}
	return nil, errors.New("not implemented")
}

func (m *mockDocumentService) QueueIngest(ctx context.Context, documentID, rawText string) (string, error) {
	if m.queueIngestFn != nil {
		return m.queueIngestFn(ctx, documentID, rawText)
	}
	return "", errors.New("not implemented")
}

func (m *mockDocumentService) TaskStatus(ctx context.Context, taskID string) (*domain.Task, error) {
	if m.taskStatusFn != nil {
		return m.taskStatusFn(ctx, taskID)
	}
	return nil, errors.New("not implemented")
}

type mockRedactionService struct {
	redactFn       func(ctx context.Context, req domain.RedactionRequest) (*domain.RedactionResult, error)
	sanitizeFn     func(ctx context.Context, text string) (string, error)
	resolveTokenFn func(ctx context.Context, role domain.Role, documentID, token string) (string, error)
}

func (m *mockRedactionService) Redact(ctx context.Context, req domain.RedactionRequest) (*domain.RedactionResult, error) {
	if m.redactFn != nil {
		return m.redactFn(ctx, req)
	}
	return nil, errors.New("not implemented")
}

func (m *mockRedactionService) Sanitize(ctx context.Context, text string) (string, error) {
	if m.sanitizeFn != nil {
		return m.sanitizeFn(ctx, text)
	}
	return "", errors.New("not implemented")
}

func (m *mockRedactionService) ResolveToken(ctx context.Context, role domain.Role, documentID, token string) (string, error) {
	if m.resolveTokenFn != nil {
		return m.resolveTokenFn(ctx, role, documentID, token)
	}
	return "", errors.New("not implemented")
}

type mockQueryService struct {
	queryFn func(ctx context.Context, req domain.QueryRequest) (*domain.QueryResult, error)
}

func (m *mockQueryService) Query(ctx context.Context, req domain.QueryRequest) (*domain.QueryResult, error) {
	if m.queryFn != nil {
		return m.queryFn(ctx, req)
	}
	return nil, errors.New("not implemented")
}

// withAuth attaches an auth context to the request, as the Authenticate
// middleware would.
func withAuth(req *http.Request, role domain.Role) *http.Request {
	authCtx := &domain.AuthContext{Account: "test-account", Role: role}
	ctx := context.WithValue(req.Context(), authContextKey, authCtx)
	return req.WithContext(ctx)
}

// Helper function tests

func TestWriteJSON(t *testing.T) {
	rr := httptest.NewRecorder()

	data := map[string]string{"foo": "bar"}
	writeJSON(rr, http.StatusCreated, data)

	if rr.Code != http.StatusCreated {
		t.Errorf("expected status 201, got %d", rr.Code)
	}
	if rr.Header().Get("Content-Type") != "application/json" {
		t.Errorf("expected Content-Type application/json, got %s", rr.Header().Get("Content-Type"))
	}

	var response map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response["foo"] != "bar" {
		t.Errorf("expected foo 'bar', got %s", response["foo"])
	}
}

func TestWriteError(t *testing.T) {
	rr := httptest.NewRecorder()

	writeError(rr, http.StatusBadRequest, "invalid input")

	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rr.Code)
	}

	var response map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response["error"] != "invalid input" {
		t.Errorf("expected error 'invalid input', got %s", response["error"])
	}
}

// Health endpoints

func TestHandleHealth(t *testing.T) {
	server := &Server{}

	req := httptest.NewRequest("GET", "/health", nil)
	rr := httptest.NewRecorder()

	server.handleHealth(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rr.Code)
	}
}

type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(ctx context.Context) error {
	return m.err
}

func TestHandleReady_AllHealthy(t *testing.T) {
	server := &Server{db: &mockPinger{}, redisClient: &mockPinger{}}

	req := httptest.NewRequest("GET", "/ready", nil)
	rr := httptest.NewRecorder()

	server.handleReady(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rr.Code)
	}
}

func TestHandleReady_StoreDown(t *testing.T) {
	server := &Server{db: &mockPinger{err: errors.New("connection refused")}}

	req := httptest.NewRequest("GET", "/ready", nil)
	rr := httptest.NewRecorder()

	server.handleReady(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status 503, got %d", rr.Code)
	}
}

func TestHandleVersion(t *testing.T) {
	server := &Server{version: "1.2.3"}

	req := httptest.NewRequest("GET", "/version", nil)
	rr := httptest.NewRecorder()

	server.handleVersion(rr, req)

	var response map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response["version"] != "1.2.3" {
		t.Errorf("expected version '1.2.3', got %s", response["version"])
	}
}

// Auth endpoints

func TestHandleLogin_Success(t *testing.T) {
	expiresAt := time.Now().Add(1 * time.Hour)
	mockAuth := &mockAuthService{
		authenticateFn: func(ctx context.Context, req domain.LoginRequest) (*domain.LoginResponse, error) {
			if req.Account == "underwriting" && req.Password == "password123" {
				return &domain.LoginResponse{
					Token:     "test-token",
					Role:      domain.RoleInternal,
					ExpiresAt: expiresAt,
				}, nil
			}
			return nil, domain.ErrInvalidCredentials
		},
	}

	server := &Server{authService: mockAuth}

	body, _ := json.Marshal(domain.LoginRequest{
		Account:  "underwriting",
		Password: "password123",
	})
	req := httptest.NewRequest("POST", "/api/v1/auth/login", bytes.NewBuffer(body))
	rr := httptest.NewRecorder()

	server.handleLogin(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rr.Code)
	}

	var response domain.LoginResponse
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.Token != "test-token" {
		t.Errorf("expected token 'test-token', got %s", response.Token)
	}
	if response.Role != domain.RoleInternal {
		t.Errorf("expected role internal, got %s", response.Role)
	}
}

func TestHandleLogin_InvalidCredentials(t *testing.T) {
	mockAuth := &mockAuthService{
		authenticateFn: func(ctx context.Context, req domain.LoginRequest) (*domain.LoginResponse, error) {
			return nil, domain.ErrInvalidCredentials
		},
	}

	server := &Server{authService: mockAuth}

	body, _ := json.Marshal(domain.LoginRequest{Account: "wrong", Password: "wrong"})
	req := httptest.NewRequest("POST", "/api/v1/auth/login", bytes.NewBuffer(body))
	rr := httptest.NewRecorder()

	server.handleLogin(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", rr.Code)
	}
}

func TestHandleLogin_InvalidJSON(t *testing.T) {
	server := &Server{}

	req := httptest.NewRequest("POST", "/api/v1/auth/login", bytes.NewBufferString("not json"))
	rr := httptest.NewRecorder()

	server.handleLogin(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rr.Code)
	}
}

// Document endpoints

func TestHandleInitiateDocument_Success(t *testing.T) {
	mockDocs := &mockDocumentService{
		initiateFn: func(ctx context.Context, loanID string, docType domain.DocumentType, fileName string) (*domain.Document, error) {
			return &domain.Document{
				ID:       "doc-1",
				LoanID:   loanID,
				Type:     docType,
				FileName: fileName,
				Status:   domain.DocStatusUploaded,
			}, nil
		},
	}

	server := &Server{docService: mockDocs, uploadLimiter: NewUploadRateLimiter(5)}

	body, _ := json.Marshal(initiateDocumentRequest{
		LoanID:       "LN-1",
		DocumentType: domain.DocTypePaystub,
		FileName:     "paystub.pdf",
	})
	req := withAuth(httptest.NewRequest("POST", "/api/v1/documents", bytes.NewBuffer(body)), domain.RoleExternal)
	rr := httptest.NewRecorder()

	server.handleInitiateDocument(rr, req)

	if rr.Code != http.StatusCreated {
		t.Errorf("expected status 201, got %d", rr.Code)
	}

	var doc domain.Document
	if err := json.NewDecoder(rr.Body).Decode(&doc); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if doc.Status != domain.DocStatusUploaded {
		t.Errorf("expected status uploaded, got %s", doc.Status)
	}
}

func TestHandleInitiateDocument_MissingLoanID(t *testing.T) {
	server := &Server{}

	body, _ := json.Marshal(initiateDocumentRequest{DocumentType: domain.DocTypeW2})
	req := httptest.NewRequest("POST", "/api/v1/documents", bytes.NewBuffer(body))
	rr := httptest.NewRecorder()

	server.handleInitiateDocument(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rr.Code)
	}
}

func TestHandleInitiateDocument_RateLimited(t *testing.T) {
	mockDocs := &mockDocumentService{
		initiateFn: func(ctx context.Context, loanID string, docType domain.DocumentType, fileName string) (*domain.Document, error) {
			return &domain.Document{ID: "doc-1", LoanID: loanID}, nil
		},
	}

	server := &Server{docService: mockDocs, uploadLimiter: NewUploadRateLimiter(2)}

	body, _ := json.Marshal(initiateDocumentRequest{
		LoanID:       "LN-1",
		DocumentType: domain.DocTypePaystub,
		FileName:     "a.pdf",
	})

	var last int
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest("POST", "/api/v1/documents", bytes.NewBuffer(body))
		rr := httptest.NewRecorder()
		server.handleInitiateDocument(rr, req)
		last = rr.Code
	}

	if last != http.StatusTooManyRequests {
		t.Errorf("expected status 429 on third request, got %d", last)
	}

	// Another loan is unaffected
	otherBody, _ := json.Marshal(initiateDocumentRequest{
		LoanID:       "LN-2",
		DocumentType: domain.DocTypePaystub,
		FileName:     "b.pdf",
	})
	req := httptest.NewRequest("POST", "/api/v1/documents", bytes.NewBuffer(otherBody))
	rr := httptest.NewRecorder()
	server.handleInitiateDocument(rr, req)

	if rr.Code != http.StatusCreated {
		t.Errorf("expected status 201 for other loan, got %d", rr.Code)
	}
}

func TestHandleListDocuments_Success(t *testing.T) {
	mockDocs := &mockDocumentService{
		listByLoanFn: func(ctx context.Context, loanID string) ([]*domain.Document, error) {
			return []*domain.Document{
				{ID: "doc-1", LoanID: loanID},
				{ID: "doc-2", LoanID: loanID},
			}, nil
		},
	}

	server := &Server{docService: mockDocs}

	req := httptest.NewRequest("GET", "/api/v1/documents?loan_id=LN-1", nil)
	rr := httptest.NewRecorder()

	server.handleListDocuments(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rr.Code)
	}

	var docs []*domain.Document
	if err := json.NewDecoder(rr.Body).Decode(&docs); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(docs) != 2 {
		t.Errorf("expected 2 documents, got %d", len(docs))
	}
}

func TestHandleListDocuments_MissingLoanID(t *testing.T) {
	server := &Server{}

	req := httptest.NewRequest("GET", "/api/v1/documents", nil)
	rr := httptest.NewRecorder()

	server.handleListDocuments(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rr.Code)
	}
}

func TestHandleGetDocument_NotFound(t *testing.T) {
	mockDocs := &mockDocumentService{
		getFn: func(ctx context.Context, id string) (*domain.Document, error) {
			return nil, domain.ErrNotFound
		},
	}

	server := &Server{docService: mockDocs}

	req := httptest.NewRequest("GET", "/api/v1/documents/nonexistent", nil)
	req.SetPathValue("id", "nonexistent")
	rr := httptest.NewRecorder()

	server.handleGetDocument(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", rr.Code)
	}
}

func TestHandleQueueIngest_Success(t *testing.T) {
	mockDocs := &mockDocumentService{
		queueIngestFn: func(ctx context.Context, documentID, rawText string) (string, error) {
			if documentID != "doc-1" {
				t.Errorf("expected document id doc-1, got %s", documentID)
			}
			return "task-1", nil
		},
	}

	server := &Server{docService: mockDocs}

	body, _ := json.Marshal(ingestRequest{Text: "Employee: John Smith, SSN 123-45-6789"})
	req := httptest.NewRequest("POST", "/api/v1/documents/doc-1/ingest", bytes.NewBuffer(body))
	req.SetPathValue("id", "doc-1")
	rr := httptest.NewRecorder()

	server.handleQueueIngest(rr, req)

	if rr.Code != http.StatusAccepted {
		t.Errorf("expected status 202, got %d", rr.Code)
	}

	var response ingestResponse
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.TaskID != "task-1" {
		t.Errorf("expected task id 'task-1', got %s", response.TaskID)
	}
	if response.Status != "queued" {
		t.Errorf("expected status 'queued', got %s", response.Status)
	}
}

func TestHandleQueueIngest_EmptyText(t *testing.T) {
	server := &Server{}

	body, _ := json.Marshal(ingestRequest{})
	req := httptest.NewRequest("POST", "/api/v1/documents/doc-1/ingest", bytes.NewBuffer(body))
	req.SetPathValue("id", "doc-1")
	rr := httptest.NewRecorder()

	server.handleQueueIngest(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rr.Code)
	}
}

func TestHandleQueueIngest_DocumentNotFound(t *testing.T) {
	mockDocs := &mockDocumentService{
		queueIngestFn: func(ctx context.Context, documentID, rawText string) (string, error) {
			return "", domain.ErrNotFound
		},
	}

	server := &Server{docService: mockDocs}

	body, _ := json.Marshal(ingestRequest{Text: "some text"})
	req := httptest.NewRequest("POST", "/api/v1/documents/nonexistent/ingest", bytes.NewBuffer(body))
	req.SetPathValue("id", "nonexistent")
	rr := httptest.NewRecorder()

	server.handleQueueIngest(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", rr.Code)
	}
}

func TestHandleGetTask_Success(t *testing.T) {
	mockDocs := &mockDocumentService{
		taskStatusFn: func(ctx context.Context, taskID string) (*domain.Task, error) {
			return &domain.Task{ID: taskID, Status: domain.TaskStatusCompleted}, nil
		},
	}

	server := &Server{docService: mockDocs}

	req := httptest.NewRequest("GET", "/api/v1/tasks/task-1", nil)
	req.SetPathValue("id", "task-1")
	rr := httptest.NewRecorder()

	server.handleGetTask(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rr.Code)
	}

	var task domain.Task
	if err := json.NewDecoder(rr.Body).Decode(&task); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if task.Status != domain.TaskStatusCompleted {
		t.Errorf("expected status completed, got %s", task.Status)
	}
}

// Redaction endpoints

func TestHandleRedact_RoleFromToken(t *testing.T) {
	mockRedaction := &mockRedactionService{
		redactFn: func(ctx context.Context, req domain.RedactionRequest) (*domain.RedactionResult, error) {
			// The role must come from the JWT, not the request body
			if req.Role != domain.RoleExternal {
				t.Errorf("expected role external from auth context, got %s", req.Role)
			}
			return &domain.RedactionResult{
				RedactedText: "SSN [SSN_REDACTED]",
				Mode:         domain.RedactionModeIrreversible,
				Downgraded:   true,
			}, nil
		},
	}

	server := &Server{redactionService: mockRedaction}

	body, _ := json.Marshal(redactRequest{
		Text: "SSN 123-45-6789",
		Mode: domain.RedactionModeTokenized,
	})
	req := withAuth(httptest.NewRequest("POST", "/api/v1/redact", bytes.NewBuffer(body)), domain.RoleExternal)
	rr := httptest.NewRecorder()

	server.handleRedact(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rr.Code)
	}

	var result domain.RedactionResult
	if err := json.NewDecoder(rr.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !result.Downgraded {
		t.Error("expected downgraded result")
	}
}

func TestHandleRedact_NoAuthContext(t *testing.T) {
	server := &Server{}

	body, _ := json.Marshal(redactRequest{Text: "some text"})
	req := httptest.NewRequest("POST", "/api/v1/redact", bytes.NewBuffer(body))
	rr := httptest.NewRecorder()

	server.handleRedact(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", rr.Code)
	}
}

func TestHandleRedact_LeakCheckFailure(t *testing.T) {
	mockRedaction := &mockRedactionService{
		redactFn: func(ctx context.Context, req domain.RedactionRequest) (*domain.RedactionResult, error) {
			return nil, domain.ErrPIILeak
		},
	}

	server := &Server{redactionService: mockRedaction}

	body, _ := json.Marshal(redactRequest{Text: "SSN 123-45-6789", Mode: domain.RedactionModeIrreversible})
	req := withAuth(httptest.NewRequest("POST", "/api/v1/redact", bytes.NewBuffer(body)), domain.RoleInternal)
	rr := httptest.NewRecorder()

	server.handleRedact(rr, req)

	if rr.Code != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", rr.Code)
	}

	var response map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response["error"] != "redaction incomplete, text withheld" {
		t.Errorf("unexpected error message: %s", response["error"])
	}
}

func TestHandleResolveToken_Success(t *testing.T) {
	mockRedaction := &mockRedactionService{
		resolveTokenFn: func(ctx context.Context, role domain.Role, documentID, token string) (string, error) {
			if role != domain.RoleInternal {
				return "", domain.ErrForbidden
			}
			return "123-45-6789", nil
		},
	}

	server := &Server{redactionService: mockRedaction}

	body, _ := json.Marshal(resolveTokenRequest{DocumentID: "doc-1", Token: "a1b2c3"})
	req := withAuth(httptest.NewRequest("POST", "/api/v1/tokens/resolve", bytes.NewBuffer(body)), domain.RoleInternal)
	rr := httptest.NewRecorder()

	server.handleResolveToken(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rr.Code)
	}

	var response resolveTokenResponse
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.Original != "123-45-6789" {
		t.Errorf("expected original '123-45-6789', got %s", response.Original)
	}
}

func TestHandleResolveToken_ExternalRoleForbidden(t *testing.T) {
	mockRedaction := &mockRedactionService{
		resolveTokenFn: func(ctx context.Context, role domain.Role, documentID, token string) (string, error) {
			return "", domain.ErrForbidden
		},
	}

	server := &Server{redactionService: mockRedaction}

	body, _ := json.Marshal(resolveTokenRequest{DocumentID: "doc-1", Token: "a1b2c3"})
	req := withAuth(httptest.NewRequest("POST", "/api/v1/tokens/resolve", bytes.NewBuffer(body)), domain.RoleExternal)
	rr := httptest.NewRecorder()

	server.handleResolveToken(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Errorf("expected status 403, got %d", rr.Code)
	}
}

func TestHandleResolveToken_NotFound(t *testing.T) {
	mockRedaction := &mockRedactionService{
		resolveTokenFn: func(ctx context.Context, role domain.Role, documentID, token string) (string, error) {
			return "", domain.ErrNotFound
		},
	}

	server := &Server{redactionService: mockRedaction}

	body, _ := json.Marshal(resolveTokenRequest{DocumentID: "doc-1", Token: "unknown"})
	req := withAuth(httptest.NewRequest("POST", "/api/v1/tokens/resolve", bytes.NewBuffer(body)), domain.RoleInternal)
	rr := httptest.NewRecorder()

	server.handleResolveToken(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", rr.Code)
	}
}

// Query endpoints

func TestHandleQuery_Success(t *testing.T) {
	mockQuery := &mockQueryService{
		queryFn: func(ctx context.Context, req domain.QueryRequest) (*domain.QueryResult, error) {
			if req.Scope.LoanID != "LN-1" {
				t.Errorf("expected loan id LN-1, got %s", req.Scope.LoanID)
			}
			return &domain.QueryResult{
				Answer:   "The gross monthly income is [SSN_REDACTED].",
				Sources:  []domain.Source{{DocumentID: "doc-1", ChunkID: "chunk-1", Relevance: 85}},
				Provider: "ollama",
			}, nil
		},
	}

	server := &Server{queryService: mockQuery}

	body, _ := json.Marshal(domain.QueryRequest{
		Question: "What is the gross monthly income?",
		Scope:    domain.QueryScope{LoanID: "LN-1"},
	})
	req := httptest.NewRequest("POST", "/api/v1/query", bytes.NewBuffer(body))
	rr := httptest.NewRecorder()

	server.handleQuery(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rr.Code)
	}

	var result domain.QueryResult
	if err := json.NewDecoder(rr.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(result.Sources) != 1 {
		t.Errorf("expected 1 source, got %d", len(result.Sources))
	}
}

func TestHandleQuery_GuardrailRejection(t *testing.T) {
	mockQuery := &mockQueryService{
		queryFn: func(ctx context.Context, req domain.QueryRequest) (*domain.QueryResult, error) {
			return nil, domain.ErrInvalidInput
		},
	}

	server := &Server{queryService: mockQuery}

	body, _ := json.Marshal(domain.QueryRequest{Question: "hi"})
	req := httptest.NewRequest("POST", "/api/v1/query", bytes.NewBuffer(body))
	rr := httptest.NewRecorder()

	server.handleQuery(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rr.Code)
	}
}

func TestHandleQuery_ProvidersDown(t *testing.T) {
	mockQuery := &mockQueryService{
		queryFn: func(ctx context.Context, req domain.QueryRequest) (*domain.QueryResult, error) {
			return nil, domain.ErrServiceUnavailable
		},
	}

	server := &Server{queryService: mockQuery}

	body, _ := json.Marshal(domain.QueryRequest{
		Question: "What is the account balance?",
		Scope:    domain.QueryScope{LoanID: "LN-1"},
	})
	req := httptest.NewRequest("POST", "/api/v1/query", bytes.NewBuffer(body))
	rr := httptest.NewRecorder()

	server.handleQuery(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status 503, got %d", rr.Code)
	}

	var response map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	// Provider detail must not leave the boundary
	if response["error"] != "service temporarily unavailable" {
		t.Errorf("unexpected error message: %s", response["error"])
	}
}
