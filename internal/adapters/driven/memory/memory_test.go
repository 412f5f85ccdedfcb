package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/loanvault-labs/loanvault-core/internal/core/domain"
)

func TestEmbeddingCache_RoundTripAndExpiry(t *testing.T) {
	cache := NewEmbeddingCache()
	ctx := context.Background()

	if _, ok := cache.Get(ctx, "h1"); ok {
		t.Error("expected miss on empty cache")
	}

	cache.Set(ctx, "h1", []float32{0.5, 1.5}, time.Minute)
	got, ok := cache.Get(ctx, "h1")
	if !ok || len(got) != 2 || got[1] != 1.5 {
		t.Errorf("got %v, %v", got, ok)
	}

	cache.Set(ctx, "h2", []float32{1}, -time.Second)
	if _, ok := cache.Get(ctx, "h2"); ok {
		t.Error("expired entry must read as a miss")
	}
}

func TestTokenVault_StoreResolveTokenFor(t *testing.T) {
	vault := NewTokenVault()
	ctx := context.Background()

	tokens := domain.TokenMap{"123-45-6789": "tok-1"}
	if err := vault.Store(ctx, "doc-1", tokens); err != nil {
		t.Fatalf("store: %v", err)
	}

	original, err := vault.Resolve(ctx, "doc-1", "tok-1")
	if err != nil || original != "123-45-6789" {
		t.Errorf("resolve: got %q, %v", original, err)
	}

	token, err := vault.TokenFor(ctx, "doc-1", "123-45-6789")
	if err != nil || token != "tok-1" {
		t.Errorf("token for: got %q, %v", token, err)
	}

	// First token wins on duplicate store
	if err := vault.Store(ctx, "doc-1", domain.TokenMap{"123-45-6789": "tok-2"}); err != nil {
		t.Fatalf("second store: %v", err)
	}
	token, _ = vault.TokenFor(ctx, "doc-1", "123-45-6789")
	if token != "tok-1" {
		t.Errorf("duplicate store must not replace token, got %q", token)
	}

	if _, err := vault.Resolve(ctx, "doc-2", "tok-1"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("wrong document: got %v, want ErrNotFound", err)
	}
}

func TestDocumentStore_SaveGetList(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()

	doc := &domain.Document{
		ID:        "doc-1",
		LoanID:    "loan-1",
		Type:      domain.DocTypePaystub,
		Status:    domain.DocStatusUploaded,
		CreatedAt: time.Now(),
	}
	if err := store.Save(ctx, doc); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := store.Get(ctx, "doc-1")
	if err != nil || got.LoanID != "loan-1" {
		t.Fatalf("get: %+v, %v", got, err)
	}

	// Mutating the returned copy must not affect the store
	got.Status = domain.DocStatusFailed
	again, _ := store.Get(ctx, "doc-1")
	if again.Status != domain.DocStatusUploaded {
		t.Error("store must return copies")
	}

	docs, err := store.ListByLoan(ctx, "loan-1")
	if err != nil || len(docs) != 1 {
		t.Errorf("list by loan: %d docs, %v", len(docs), err)
	}

	if _, err := store.Get(ctx, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestDocumentStore_ChunksByLoanNeedsIndexedStatus(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()

	doc := &domain.Document{ID: "doc-1", LoanID: "loan-1", Status: domain.DocStatusUploaded}
	store.Save(ctx, doc)
	store.SaveChunks(ctx, "doc-1", []*domain.Chunk{
		{ID: "c-1", DocumentID: "doc-1", Index: 0, Text: "first"},
		{ID: "c-2", DocumentID: "doc-1", Index: 1, Text: "second"},
	})

	chunks, err := store.ListChunksByLoan(ctx, "loan-1")
	if err != nil || len(chunks) != 0 {
		t.Errorf("unindexed document leaked chunks: %d, %v", len(chunks), err)
	}

	doc.Status = domain.DocStatusIndexed
	store.Save(ctx, doc)

	chunks, err = store.ListChunksByLoan(ctx, "loan-1")
	if err != nil || len(chunks) != 2 {
		t.Errorf("got %d chunks, %v", len(chunks), err)
	}

	ordered, _ := store.GetChunks(ctx, "doc-1")
	if len(ordered) != 2 || ordered[0].Index != 0 || ordered[1].Index != 1 {
		t.Errorf("chunks out of order: %+v", ordered)
	}
}

func TestTaskQueue_Lifecycle(t *testing.T) {
	queue := NewTaskQueue()
	ctx := context.Background()

	task := domain.NewIngestTask("doc-1", "text")
	task.MaxAttempts = 2
	if err := queue.Enqueue(ctx, task); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	got, err := queue.DequeueWithTimeout(ctx, 1)
	if err != nil || got == nil {
		t.Fatalf("dequeue: %v, %v", got, err)
	}
	if got.Status != domain.TaskStatusProcessing || got.Attempts != 1 {
		t.Errorf("got %s/%d", got.Status, got.Attempts)
	}

	if err := queue.Nack(ctx, got.ID, "transient"); err != nil {
		t.Fatalf("nack: %v", err)
	}

	got, err = queue.DequeueWithTimeout(ctx, 1)
	if err != nil || got == nil || got.Attempts != 2 {
		t.Fatalf("redelivery: %+v, %v", got, err)
	}

	if err := queue.Ack(ctx, got.ID); err != nil {
		t.Fatalf("ack: %v", err)
	}
	final, _ := queue.GetTask(ctx, got.ID)
	if final.Status != domain.TaskStatusCompleted {
		t.Errorf("got status %s", final.Status)
	}
}

func TestTaskQueue_NackExhaustsToFailed(t *testing.T) {
	queue := NewTaskQueue()
	ctx := context.Background()

	task := domain.NewIngestTask("doc-1", "text")
	task.MaxAttempts = 1
	queue.Enqueue(ctx, task)

	got, _ := queue.DequeueWithTimeout(ctx, 1)
	if got == nil {
		t.Fatal("expected task")
	}
	queue.Nack(ctx, got.ID, "broken")

	final, _ := queue.GetTask(ctx, got.ID)
	if final.Status != domain.TaskStatusFailed || final.Error != "broken" {
		t.Errorf("got %s / %q", final.Status, final.Error)
	}

	next, _ := queue.DequeueWithTimeout(ctx, 1)
	if next != nil {
		t.Errorf("failed task re-delivered: %+v", next)
	}
}

func TestLock_AcquireReleaseExpiry(t *testing.T) {
	lock := NewLock()
	ctx := context.Background()

	acquired, err := lock.Acquire(ctx, "vault:doc-1", time.Minute)
	if err != nil || !acquired {
		t.Fatalf("acquire: %v, %v", acquired, err)
	}

	acquired, _ = lock.Acquire(ctx, "vault:doc-1", time.Minute)
	if acquired {
		t.Error("held lock re-acquired")
	}

	lock.Release(ctx, "vault:doc-1")
	acquired, _ = lock.Acquire(ctx, "vault:doc-1", time.Minute)
	if !acquired {
		t.Error("released lock not acquirable")
	}

	// TTL already elapsed
	lock.Release(ctx, "vault:doc-1")
	lock.Acquire(ctx, "vault:doc-2", -time.Second)
	acquired, _ = lock.Acquire(ctx, "vault:doc-2", time.Minute)
	if !acquired {
		t.Error("expired lock not acquirable")
	}
}
