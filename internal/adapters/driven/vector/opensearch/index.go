package opensearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/loanvault-labs/loanvault-core/internal/core/domain"
	"github.com/loanvault-labs/loanvault-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.VectorIndex = (*Index)(nil)

// Index implements driven.VectorIndex using the OpenSearch kNN plugin.
type Index struct {
	baseURL    string
	indexName  string
	dimensions int
	httpClient *http.Client
}

// Config holds OpenSearch connection configuration
type Config struct {
	// BaseURL is the OpenSearch endpoint (e.g., http://localhost:9200)
	BaseURL string

	// IndexName is the index holding chunk records
	IndexName string

	// Dimensions is the embedding dimensionality of the knn_vector field
	Dimensions int

	// Timeout for HTTP requests
	Timeout time.Duration
}

// DefaultConfig returns sensible defaults
func DefaultConfig(baseURL string, dimensions int) Config {
	return Config{
		BaseURL:    baseURL,
		IndexName:  "loanvault-chunks",
		Dimensions: dimensions,
		Timeout:    30 * time.Second,
	}
}

// NewIndex creates a new OpenSearch-backed vector index.
func NewIndex(cfg Config) *Index {
	return &Index{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		indexName:  cfg.IndexName,
		dimensions: cfg.Dimensions,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// EnsureIndex creates the chunk index with a kNN mapping if it does not
// exist yet. Safe to call on every startup.
func (idx *Index) EnsureIndex(ctx context.Context) error {
	mapping := map[string]interface{}{
		"settings": map[string]interface{}{
			"index.knn": true,
		},
		"mappings": map[string]interface{}{
			"properties": map[string]interface{}{
				"document_id":   map[string]string{"type": "keyword"},
				"loan_id":       map[string]string{"type": "keyword"},
				"document_type": map[string]string{"type": "keyword"},
				"chunk_id":      map[string]string{"type": "keyword"},
				"text":          map[string]string{"type": "text"},
				"embedding": map[string]interface{}{
					"type":      "knn_vector",
					"dimension": idx.dimensions,
					"method": map[string]interface{}{
						"name":       "hnsw",
						"space_type": "l2",
						"engine":     "lucene",
					},
				},
			},
		},
	}

	body, err := json.Marshal(mapping)
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/%s", idx.baseURL, idx.indexName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := idx.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(resp.Body)
		// Index already existing is fine
		if strings.Contains(string(respBody), "resource_already_exists_exception") {
			return nil
		}
		return fmt.Errorf("opensearch create index failed: %s - %s", resp.Status, string(respBody))
	}

	return nil
}

// osRecord is the indexed document shape
type osRecord struct {
	DocumentID   string            `json:"document_id"`
	LoanID       string            `json:"loan_id"`
	DocumentType string            `json:"document_type"`
	ChunkID      string            `json:"chunk_id"`
	Text         string            `json:"text"`
	Embedding    []float32         `json:"embedding"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// Upsert writes records for a document
func (idx *Index) Upsert(ctx context.Context, records []*domain.IndexedRecord) error {
	for _, record := range records {
		if err := idx.upsertRecord(ctx, record); err != nil {
			return fmt.Errorf("failed to index chunk %s: %w", record.ChunkID, err)
		}
	}
	return nil
}

func (idx *Index) upsertRecord(ctx context.Context, record *domain.IndexedRecord) error {
	doc := osRecord{
		DocumentID:   record.DocumentID,
		LoanID:       record.LoanID,
		DocumentType: string(record.DocumentType),
		ChunkID:      record.ChunkID,
		Text:         record.Text,
		Embedding:    record.Embedding,
		Metadata:     record.Metadata,
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	// Document id is (document_id, chunk_id) so re-upserts replace
	url := fmt.Sprintf("%s/%s/_doc/%s__%s?refresh=true",
		idx.baseURL, idx.indexName, record.DocumentID, record.ChunkID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := idx.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("opensearch index failed: %s - %s", resp.Status, string(respBody))
	}

	return nil
}

// Search performs a filtered kNN search
func (idx *Index) Search(ctx context.Context, embedding []float32, k int, scope domain.QueryScope) ([]*domain.SearchHit, error) {
	filters := []map[string]interface{}{
		{"term": map[string]string{"loan_id": scope.LoanID}},
	}
	if len(scope.DocumentTypes) > 0 {
		types := make([]string, len(scope.DocumentTypes))
		for i, docType := range scope.DocumentTypes {
			types[i] = string(docType)
		}
		filters = append(filters, map[string]interface{}{
			"terms": map[string][]string{"document_type": types},
		})
	}

	searchReq := map[string]interface{}{
		"size": k,
		"query": map[string]interface{}{
			"knn": map[string]interface{}{
				"embedding": map[string]interface{}{
					"vector": embedding,
					"k":      k,
					"filter": map[string]interface{}{
						"bool": map[string]interface{}{
							"must": filters,
						},
					},
				},
			},
		},
	}

	body, err := json.Marshal(searchReq)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/%s/_search", idx.baseURL, idx.indexName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := idx.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("opensearch search failed: %s - %s", resp.Status, string(respBody))
	}

	var searchResp osSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&searchResp); err != nil {
		return nil, err
	}

	hits := make([]*domain.SearchHit, 0, len(searchResp.Hits.Hits))
	for _, hit := range searchResp.Hits.Hits {
		record := &domain.IndexedRecord{
			DocumentID:   hit.Source.DocumentID,
			LoanID:       hit.Source.LoanID,
			DocumentType: domain.DocumentType(hit.Source.DocumentType),
			ChunkID:      hit.Source.ChunkID,
			Text:         hit.Source.Text,
			Metadata:     hit.Source.Metadata,
		}
		hits = append(hits, &domain.SearchHit{
			Record:   record,
			Distance: scoreToDistance(hit.Score),
		})
	}

	return hits, nil
}

// osSearchResponse represents OpenSearch's search response format
type osSearchResponse struct {
	Hits struct {
		Hits []struct {
			Score  float64  `json:"_score"`
			Source osRecord `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// scoreToDistance inverts the kNN plugin's l2 scoring, score = 1/(1+d^2),
// back to the raw L2 distance the core services work with.
func scoreToDistance(score float64) float64 {
	if score <= 0 {
		return math.MaxFloat64
	}
	d2 := 1/score - 1
	if d2 < 0 {
		d2 = 0
	}
	return math.Sqrt(d2)
}

// DeleteByDocument purges all records for a document
func (idx *Index) DeleteByDocument(ctx context.Context, documentID string) error {
	deleteReq := map[string]interface{}{
		"query": map[string]interface{}{
			"term": map[string]string{"document_id": documentID},
		},
	}

	body, err := json.Marshal(deleteReq)
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/%s/_delete_by_query?refresh=true", idx.baseURL, idx.indexName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := idx.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("opensearch delete by query failed: %s - %s", resp.Status, string(respBody))
	}

	return nil
}

// HealthCheck verifies the cluster is reachable
func (idx *Index) HealthCheck(ctx context.Context) error {
	url := fmt.Sprintf("%s/_cluster/health", idx.baseURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := idx.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("opensearch health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("opensearch unhealthy: %s", resp.Status)
	}

	return nil
}
