package domain

import (
	"math"
	"time"
)

// QueryScope filters retrieval to a loan and optionally to document types.
type QueryScope struct {
	LoanID        string         `json:"loan_id"`
	DocumentTypes []DocumentType `json:"document_types,omitempty"`
}

// QueryRequest is one retrieval-augmented question.
type QueryRequest struct {
	Question string     `json:"question"`
	Scope    QueryScope `json:"scope"`
	K        int        `json:"k,omitempty"`
}

// SearchHit is one nearest-neighbor match from the vector index.
// Distance is the raw L2 distance: lower is better.
type SearchHit struct {
	Record   *IndexedRecord `json:"record"`
	Distance float64        `json:"distance"`
}

// Source cites one chunk that contributed to an answer.
type Source struct {
	DocumentID string       `json:"document_id"`
	ChunkID    string       `json:"chunk_id"`
	Type       DocumentType `json:"document_type"`
	Relevance  int          `json:"relevance_pct"`
}

// QueryResult is the assembled, re-redacted answer with cited sources.
type QueryResult struct {
	Answer    string    `json:"answer"`
	Sources   []Source  `json:"sources"`
	Provider  string    `json:"provider"`
	Fallback  string    `json:"fallback,omitempty"` // search strategy used when not "vector"
	CreatedAt time.Time `json:"created_at"`
}

// NoRelevantInformation is the fixed answer returned when no hit survives
// the relevance threshold. The chat provider is never invoked in that case.
const NoRelevantInformation = "No relevant information was found in the indexed documents for this question."

// RelevancePercent maps a raw L2 distance onto a presentational 0-100 scale.
// The mapping is a heuristic, not a probability; it only needs to be
// monotonic in the distance.
func RelevancePercent(distance float64) int {
	pct := int(math.Round((1 - distance/2) * 100))
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}
