package postgres

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/loanvault-labs/loanvault-core/internal/core/domain"
	"github.com/loanvault-labs/loanvault-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.DocumentStore = (*DocumentStore)(nil)

// DocumentStore implements driven.DocumentStore using PostgreSQL
type DocumentStore struct {
	db *DB
}

// NewDocumentStore creates a new DocumentStore
func NewDocumentStore(db *DB) *DocumentStore {
	return &DocumentStore{db: db}
}

// Save creates or updates a document
func (s *DocumentStore) Save(ctx context.Context, doc *domain.Document) error {
	fieldsJSON, err := json.Marshal(doc.Fields)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO documents (id, loan_id, document_type, file_name, status, fields, pii_count, error, created_at, indexed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			fields = EXCLUDED.fields,
			pii_count = EXCLUDED.pii_count,
			error = EXCLUDED.error,
			indexed_at = EXCLUDED.indexed_at
	`

	_, err = s.db.ExecContext(ctx, query,
		doc.ID,
		doc.LoanID,
		string(doc.Type),
		doc.FileName,
		string(doc.Status),
		fieldsJSON,
		doc.PIICount,
		doc.Error,
		doc.CreatedAt,
		NullTime(doc.IndexedAt),
	)
	return err
}

// Get retrieves a document by ID
func (s *DocumentStore) Get(ctx context.Context, id string) (*domain.Document, error) {
	query := `
		SELECT id, loan_id, document_type, file_name, status, fields, pii_count, error, created_at, indexed_at
		FROM documents
		WHERE id = $1
	`

	return scanDocument(s.db.QueryRowContext(ctx, query, id))
}

// ListByLoan retrieves all documents for a loan
func (s *DocumentStore) ListByLoan(ctx context.Context, loanID string) ([]*domain.Document, error) {
	query := `
		SELECT id, loan_id, document_type, file_name, status, fields, pii_count, error, created_at, indexed_at
		FROM documents
		WHERE loan_id = $1
		ORDER BY created_at
	`

	rows, err := s.db.QueryContext(ctx, query, loanID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []*domain.Document
	for rows.Next() {
		doc, err := scanDocumentRow(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return docs, nil
}

// SaveChunks replaces the stored chunks for a document
func (s *DocumentStore) SaveChunks(ctx context.Context, documentID string, chunks []*domain.Chunk) error {
	return s.db.Transaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE document_id = $1`, documentID); err != nil {
			return err
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO chunks (id, document_id, chunk_index, text, start_char, end_char)
			VALUES ($1, $2, $3, $4, $5, $6)
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, chunk := range chunks {
			_, err = stmt.ExecContext(ctx,
				chunk.ID,
				documentID,
				chunk.Index,
				chunk.Text,
				chunk.StartChar,
				chunk.EndChar,
			)
			if err != nil {
				return err
			}
		}

		return nil
	})
}

// GetChunks retrieves all chunks for a document in index order
func (s *DocumentStore) GetChunks(ctx context.Context, documentID string) ([]*domain.Chunk, error) {
	query := `
		SELECT id, document_id, chunk_index, text, start_char, end_char
		FROM chunks
		WHERE document_id = $1
		ORDER BY chunk_index
	`

	rows, err := s.db.QueryContext(ctx, query, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanChunks(rows)
}

// ListChunksByLoan retrieves all chunks for a loan's indexed documents
func (s *DocumentStore) ListChunksByLoan(ctx context.Context, loanID string) ([]*domain.Chunk, error) {
	query := `
		SELECT c.id, c.document_id, c.chunk_index, c.text, c.start_char, c.end_char
		FROM chunks c
		JOIN documents d ON d.id = c.document_id
		WHERE d.loan_id = $1 AND d.status = $2
		ORDER BY c.document_id, c.chunk_index
	`

	rows, err := s.db.QueryContext(ctx, query, loanID, string(domain.DocStatusIndexed))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanChunks(rows)
}

// Ping checks if the store backend is healthy
func (s *DocumentStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

func scanDocument(row *sql.Row) (*domain.Document, error) {
	var doc domain.Document
	var docType, status string
	var fieldsJSON []byte
	var indexedAt sql.NullTime

	err := row.Scan(
		&doc.ID,
		&doc.LoanID,
		&docType,
		&doc.FileName,
		&status,
		&fieldsJSON,
		&doc.PIICount,
		&doc.Error,
		&doc.CreatedAt,
		&indexedAt,
	)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	doc.Type = domain.DocumentType(docType)
	doc.Status = domain.DocumentStatus(status)
	doc.IndexedAt = TimePtr(indexedAt)

	if len(fieldsJSON) > 0 {
		if err := json.Unmarshal(fieldsJSON, &doc.Fields); err != nil {
			return nil, err
		}
	}

	return &doc, nil
}

func scanDocumentRow(rows *sql.Rows) (*domain.Document, error) {
	var doc domain.Document
	var docType, status string
	var fieldsJSON []byte
	var indexedAt sql.NullTime

	err := rows.Scan(
		&doc.ID,
		&doc.LoanID,
		&docType,
		&doc.FileName,
		&status,
		&fieldsJSON,
		&doc.PIICount,
		&doc.Error,
		&doc.CreatedAt,
		&indexedAt,
	)
	if err != nil {
		return nil, err
	}

	doc.Type = domain.DocumentType(docType)
	doc.Status = domain.DocumentStatus(status)
	doc.IndexedAt = TimePtr(indexedAt)

	if len(fieldsJSON) > 0 {
		if err := json.Unmarshal(fieldsJSON, &doc.Fields); err != nil {
			return nil, err
		}
	}

	return &doc, nil
}

func scanChunks(rows *sql.Rows) ([]*domain.Chunk, error) {
	var chunks []*domain.Chunk
	for rows.Next() {
		var chunk domain.Chunk
		err := rows.Scan(
			&chunk.ID,
			&chunk.DocumentID,
			&chunk.Index,
			&chunk.Text,
			&chunk.StartChar,
			&chunk.EndChar,
		)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, &chunk)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return chunks, nil
}
