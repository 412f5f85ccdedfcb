package domain

import "time"

// DocumentType categorizes the mortgage documents the pipeline ingests.
type DocumentType string

const (
	DocTypePaystub       DocumentType = "paystub"
	DocTypeW2            DocumentType = "w2"
	DocTypeBankStatement DocumentType = "bank_statement"
	DocTypeCreditReport  DocumentType = "credit_report"
	DocTypeOther         DocumentType = "other"
)

// DocumentStatus tracks a document through its lifecycle.
type DocumentStatus string

const (
	DocStatusUploaded DocumentStatus = "uploaded"
	DocStatusIndexed  DocumentStatus = "indexed"
	DocStatusFailed   DocumentStatus = "failed"
)

// Document represents one uploaded document scoped to a loan.
type Document struct {
	ID        string            `json:"id"`
	LoanID    string            `json:"loan_id"`
	Type      DocumentType      `json:"document_type"`
	FileName  string            `json:"file_name"`
	Status    DocumentStatus    `json:"status"`
	Fields    map[string]string `json:"fields,omitempty"` // extracted, redacted
	PIICount  int               `json:"pii_count"`
	Error     string            `json:"error,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	IndexedAt *time.Time        `json:"indexed_at,omitempty"`
}

// Chunk is one window of a document's redacted text.
type Chunk struct {
	ID         string `json:"id"`
	DocumentID string `json:"document_id"`
	Index      int    `json:"index"`
	Text       string `json:"text"`
	StartChar  int    `json:"start_char"`
	EndChar    int    `json:"end_char"`
}

// IndexedRecord is what the vector index persists per chunk. Records are
// never updated in place: re-indexing a document purges its prior records
// before new ones are written.
type IndexedRecord struct {
	DocumentID   string            `json:"document_id"`
	LoanID       string            `json:"loan_id"`
	DocumentType DocumentType      `json:"document_type"`
	ChunkID      string            `json:"chunk_id"`
	Text         string            `json:"text"`
	Embedding    []float32         `json:"embedding"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}
