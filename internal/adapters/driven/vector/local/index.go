// Package local provides a flat vector index persisted to local disk.
// It does an exhaustive L2 scan per search, which is fine for the
// per-loan corpus sizes this service handles. Larger deployments use
// the OpenSearch adapter instead.
package local

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/loanvault-labs/loanvault-core/internal/core/domain"
	"github.com/loanvault-labs/loanvault-core/internal/core/ports/driven"
)

const (
	recordsFile = "records.json"
	vectorsFile = "vectors.json"
)

// Verify interface compliance
var _ driven.VectorIndex = (*Index)(nil)

// Index is a disk-backed flat vector index. Metadata and vectors live in
// two parallel JSON files; entry i of the vectors file belongs to entry i
// of the records file.
type Index struct {
	dir    string
	logger *slog.Logger

	mu      sync.RWMutex
	records []*domain.IndexedRecord
}

// Open loads the index from dir, creating it when empty. A corrupt index
// is moved aside and the index restarts empty; re-ingesting the affected
// documents rebuilds it.
func Open(dir string, logger *slog.Logger) (*Index, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create index directory: %w", err)
	}

	idx := &Index{dir: dir, logger: logger}

	records, err := load(dir)
	if err != nil {
		if !errors.Is(err, domain.ErrIndexCorrupt) {
			return nil, err
		}
		logger.Warn("vector index corrupt, starting empty", "dir", dir, "error", err)
		quarantine(dir)
		records = nil
	}
	idx.records = records

	return idx, nil
}

// Upsert writes records for a document and persists the index.
func (idx *Index) Upsert(ctx context.Context, records []*domain.IndexedRecord) error {
	if len(records) == 0 {
		return nil
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	existing := make(map[string]int, len(idx.records))
	for i, record := range idx.records {
		existing[record.DocumentID+"/"+record.ChunkID] = i
	}

	for _, record := range records {
		copied := *record
		if i, ok := existing[record.DocumentID+"/"+record.ChunkID]; ok {
			idx.records[i] = &copied
			continue
		}
		idx.records = append(idx.records, &copied)
	}

	return idx.persist()
}

// Search scans all records in scope and returns the k nearest by L2
// distance, best first.
func (idx *Index) Search(ctx context.Context, embedding []float32, k int, scope domain.QueryScope) ([]*domain.SearchHit, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	var hits []*domain.SearchHit
	for _, record := range idx.records {
		if !inScope(record, scope) {
			continue
		}
		if len(record.Embedding) != len(embedding) {
			continue
		}
		hits = append(hits, &domain.SearchHit{
			Record:   record,
			Distance: l2Distance(embedding, record.Embedding),
		})
	}

	sort.Slice(hits, func(i, j int) bool {
		return hits[i].Distance < hits[j].Distance
	})

	if k > 0 && len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// DeleteByDocument purges all records for a document and persists.
func (idx *Index) DeleteByDocument(ctx context.Context, documentID string) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	kept := idx.records[:0]
	for _, record := range idx.records {
		if record.DocumentID != documentID {
			kept = append(kept, record)
		}
	}
	idx.records = kept

	return idx.persist()
}

// HealthCheck verifies the index directory is writable.
func (idx *Index) HealthCheck(ctx context.Context) error {
	probe := filepath.Join(idx.dir, ".health")
	if err := os.WriteFile(probe, []byte("ok"), 0o644); err != nil {
		return fmt.Errorf("index directory not writable: %w", err)
	}
	return os.Remove(probe)
}

// Count returns the number of indexed records.
func (idx *Index) Count() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.records)
}

// recordMeta is the on-disk record shape, embedding held separately.
type recordMeta struct {
	DocumentID   string              `json:"document_id"`
	LoanID       string              `json:"loan_id"`
	DocumentType domain.DocumentType `json:"document_type"`
	ChunkID      string              `json:"chunk_id"`
	Text         string              `json:"text"`
	Metadata     map[string]string   `json:"metadata,omitempty"`
}

// persist writes both files atomically via temp file + rename.
// Caller must hold the write lock.
func (idx *Index) persist() error {
	metas := make([]recordMeta, len(idx.records))
	vectors := make([][]float32, len(idx.records))
	for i, record := range idx.records {
		metas[i] = recordMeta{
			DocumentID:   record.DocumentID,
			LoanID:       record.LoanID,
			DocumentType: record.DocumentType,
			ChunkID:      record.ChunkID,
			Text:         record.Text,
			Metadata:     record.Metadata,
		}
		vectors[i] = record.Embedding
	}

	if err := writeJSON(filepath.Join(idx.dir, recordsFile), metas); err != nil {
		return fmt.Errorf("persist records: %w", err)
	}
	if err := writeJSON(filepath.Join(idx.dir, vectorsFile), vectors); err != nil {
		return fmt.Errorf("persist vectors: %w", err)
	}
	return nil
}

func load(dir string) ([]*domain.IndexedRecord, error) {
	metaData, metaErr := os.ReadFile(filepath.Join(dir, recordsFile))
	vecData, vecErr := os.ReadFile(filepath.Join(dir, vectorsFile))

	if os.IsNotExist(metaErr) && os.IsNotExist(vecErr) {
		return nil, nil
	}
	if metaErr != nil || vecErr != nil {
		return nil, fmt.Errorf("%w: records readable=%v vectors readable=%v",
			domain.ErrIndexCorrupt, metaErr == nil, vecErr == nil)
	}

	var metas []recordMeta
	if err := json.Unmarshal(metaData, &metas); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrIndexCorrupt, err)
	}
	var vectors [][]float32
	if err := json.Unmarshal(vecData, &vectors); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrIndexCorrupt, err)
	}

	if len(metas) != len(vectors) {
		return nil, fmt.Errorf("%w: %d records but %d vectors", domain.ErrIndexCorrupt, len(metas), len(vectors))
	}

	records := make([]*domain.IndexedRecord, len(metas))
	for i, meta := range metas {
		records[i] = &domain.IndexedRecord{
			DocumentID:   meta.DocumentID,
			LoanID:       meta.LoanID,
			DocumentType: meta.DocumentType,
			ChunkID:      meta.ChunkID,
			Text:         meta.Text,
			Embedding:    vectors[i],
			Metadata:     meta.Metadata,
		}
	}
	return records, nil
}

func quarantine(dir string) {
	for _, name := range []string{recordsFile, vectorsFile} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			os.Rename(path, path+".corrupt")
		}
	}
}

func writeJSON(path string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func inScope(record *domain.IndexedRecord, scope domain.QueryScope) bool {
	if scope.LoanID != "" && record.LoanID != scope.LoanID {
		return false
	}
	if len(scope.DocumentTypes) > 0 {
		found := false
		for _, docType := range scope.DocumentTypes {
			if record.DocumentType == docType {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func l2Distance(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}
