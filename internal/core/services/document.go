package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/loanvault-labs/loanvault-core/internal/core/domain"
	"github.com/loanvault-labs/loanvault-core/internal/core/ports/driven"
	"github.com/loanvault-labs/loanvault-core/internal/core/ports/driving"
)

// Ensure documentService implements DocumentService
var _ driving.DocumentService = (*documentService)(nil)

var validDocumentTypes = map[domain.DocumentType]bool{
	domain.DocTypePaystub:       true,
	domain.DocTypeW2:            true,
	domain.DocTypeBankStatement: true,
	domain.DocTypeCreditReport:  true,
	domain.DocTypeOther:         true,
}

// documentService implements the DocumentService interface
type documentService struct {
	documentStore driven.DocumentStore
	taskQueue     driven.TaskQueue
}

// NewDocumentService creates a new DocumentService
func NewDocumentService(documentStore driven.DocumentStore, taskQueue driven.TaskQueue) driving.DocumentService {
	return &documentService{
		documentStore: documentStore,
		taskQueue:     taskQueue,
	}
}

// Initiate registers an uploaded document.
func (s *documentService) Initiate(ctx context.Context, loanID string, docType domain.DocumentType, fileName string) (*domain.Document, error) {
	if loanID == "" {
		return nil, fmt.Errorf("%w: loan id is required", domain.ErrInvalidInput)
	}
	if !validDocumentTypes[docType] {
		return nil, fmt.Errorf("%w: unknown document type %q", domain.ErrInvalidInput, docType)
	}

	doc := &domain.Document{
		ID:        uuid.New().String(),
		LoanID:    loanID,
		Type:      docType,
		FileName:  fileName,
		Status:    domain.DocStatusUploaded,
		CreatedAt: time.Now(),
	}
	if err := s.documentStore.Save(ctx, doc); err != nil {
		return nil, fmt.Errorf("save document: %w", err)
	}
	return doc, nil
}

// Get retrieves a document by ID.
func (s *documentService) Get(ctx context.Context, id string) (*domain.Document, error) {
	return s.documentStore.Get(ctx, id)
}

// ListByLoan retrieves all documents for a loan.
func (s *documentService) ListByLoan(ctx context.Context, loanID string) ([]*domain.Document, error) {
	if loanID == "" {
		return nil, fmt.Errorf("%w: loan id is required", domain.ErrInvalidInput)
	}
	return s.documentStore.ListByLoan(ctx, loanID)
}

// QueueIngest enqueues background ingestion for a registered document.
func (s *documentService) QueueIngest(ctx context.Context, documentID, rawText string) (string, error) {
	if rawText == "" {
		return "", fmt.Errorf("%w: document text is required", domain.ErrInvalidInput)
	}
	if _, err := s.documentStore.Get(ctx, documentID); err != nil {
		return "", fmt.Errorf("load document: %w", err)
	}

	task := domain.NewIngestTask(documentID, rawText)
	if err := s.taskQueue.Enqueue(ctx, task); err != nil {
		return "", fmt.Errorf("enqueue ingest: %w", err)
	}
	return task.ID, nil
}

// TaskStatus retrieves the state of a queued ingest task.
func (s *documentService) TaskStatus(ctx context.Context, taskID string) (*domain.Task, error) {
	return s.taskQueue.GetTask(ctx, taskID)
}
