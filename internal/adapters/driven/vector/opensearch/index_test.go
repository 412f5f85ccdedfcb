package opensearch

import (
	"context"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/loanvault-labs/loanvault-core/internal/core/domain"
)

func testIndex(t *testing.T, handler http.HandlerFunc) (*Index, *httptest.Server) {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := DefaultConfig(server.URL, 3)
	return NewIndex(cfg), server
}

func TestIndex_UpsertSendsOneDocPerChunk(t *testing.T) {
	var paths []string
	var bodies []osRecord

	idx, _ := testIndex(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		var record osRecord
		data, _ := io.ReadAll(r.Body)
		json.Unmarshal(data, &record)
		bodies = append(bodies, record)
		w.WriteHeader(http.StatusCreated)
	})

	err := idx.Upsert(context.Background(), []*domain.IndexedRecord{
		{DocumentID: "doc-1", LoanID: "loan-1", DocumentType: domain.DocTypePaystub, ChunkID: "c-1", Text: "alpha", Embedding: []float32{1, 0, 0}},
		{DocumentID: "doc-1", LoanID: "loan-1", DocumentType: domain.DocTypePaystub, ChunkID: "c-2", Text: "beta", Embedding: []float32{0, 1, 0}},
	})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}

	if len(paths) != 2 {
		t.Fatalf("got %d requests, want 2", len(paths))
	}
	if !strings.Contains(paths[0], "/loanvault-chunks/_doc/doc-1__c-1") {
		t.Errorf("unexpected path %s", paths[0])
	}
	if bodies[0].LoanID != "loan-1" || bodies[0].Text != "alpha" {
		t.Errorf("unexpected body %+v", bodies[0])
	}
	if len(bodies[1].Embedding) != 3 {
		t.Errorf("embedding not sent: %+v", bodies[1])
	}
}

func TestIndex_UpsertErrorSurfacesChunkID(t *testing.T) {
	idx, _ := testIndex(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "mapper_parsing_exception", http.StatusBadRequest)
	})

	err := idx.Upsert(context.Background(), []*domain.IndexedRecord{
		{DocumentID: "doc-1", ChunkID: "c-9", Embedding: []float32{1}},
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "c-9") {
		t.Errorf("error does not identify chunk: %v", err)
	}
}

func TestIndex_SearchBuildsKNNQueryAndMapsHits(t *testing.T) {
	var captured map[string]interface{}

	idx, _ := testIndex(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/_search") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		data, _ := io.ReadAll(r.Body)
		json.Unmarshal(data, &captured)

		// score 0.5 is an L2 distance of 1.0 under score = 1/(1+d^2)
		resp := `{"hits":{"hits":[
			{"_score":1.0,"_source":{"document_id":"doc-1","loan_id":"loan-1","document_type":"paystub","chunk_id":"c-1","text":"first"}},
			{"_score":0.5,"_source":{"document_id":"doc-2","loan_id":"loan-1","document_type":"w2","chunk_id":"c-2","text":"second"}}
		]}}`
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(resp))
	})

	hits, err := idx.Search(context.Background(), []float32{1, 0, 0}, 4, domain.QueryScope{
		LoanID:        "loan-1",
		DocumentTypes: []domain.DocumentType{domain.DocTypePaystub, domain.DocTypeW2},
	})
	if err != nil {
		t.Fatalf("search: %v", err)
	}

	if captured["size"].(float64) != 4 {
		t.Errorf("size: %v", captured["size"])
	}
	query, _ := json.Marshal(captured["query"])
	if !strings.Contains(string(query), `"loan_id":"loan-1"`) {
		t.Errorf("loan filter missing: %s", query)
	}
	if !strings.Contains(string(query), `"document_type":["paystub","w2"]`) {
		t.Errorf("type filter missing: %s", query)
	}

	if len(hits) != 2 {
		t.Fatalf("got %d hits", len(hits))
	}
	if hits[0].Record.ChunkID != "c-1" || hits[0].Distance != 0 {
		t.Errorf("first hit: %+v", hits[0])
	}
	if math.Abs(hits[1].Distance-1.0) > 1e-9 {
		t.Errorf("score 0.5 should map to distance 1.0, got %f", hits[1].Distance)
	}
}

func TestIndex_DeleteByDocument(t *testing.T) {
	var captured string

	idx, _ := testIndex(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "_delete_by_query") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		data, _ := io.ReadAll(r.Body)
		captured = string(data)
		w.Write([]byte(`{"deleted":3}`))
	})

	if err := idx.DeleteByDocument(context.Background(), "doc-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !strings.Contains(captured, `"document_id":"doc-1"`) {
		t.Errorf("delete query missing document filter: %s", captured)
	}
}

func TestIndex_HealthCheck(t *testing.T) {
	healthy := true
	idx, _ := testIndex(t, func(w http.ResponseWriter, r *http.Request) {
		if healthy {
			w.Write([]byte(`{"status":"green"}`))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	if err := idx.HealthCheck(context.Background()); err != nil {
		t.Errorf("healthy cluster: %v", err)
	}

	healthy = false
	if err := idx.HealthCheck(context.Background()); err == nil {
		t.Error("expected error from unhealthy cluster")
	}
}

func TestIndex_EnsureIndexToleratesExisting(t *testing.T) {
	idx, _ := testIndex(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"type":"resource_already_exists_exception"}}`))
	})

	if err := idx.EnsureIndex(context.Background()); err != nil {
		t.Errorf("existing index must not error: %v", err)
	}
}
