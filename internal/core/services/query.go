package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/loanvault-labs/loanvault-core/internal/core/domain"
	"github.com/loanvault-labs/loanvault-core/internal/core/ports/driven"
	"github.com/loanvault-labs/loanvault-core/internal/core/ports/driving"
	"github.com/loanvault-labs/loanvault-core/internal/runtime"
)

// Ensure queryService implements QueryService
var _ driving.QueryService = (*queryService)(nil)

// DistanceThreshold is the raw L2 distance at and beyond which a hit is
// considered irrelevant and discarded.
const DistanceThreshold = 1.5

// DefaultTopK is the neighbor count used when the request does not set one.
const DefaultTopK = 4

const systemInstruction = `You are a mortgage document assistant. Answer questions accurately and concisely based ONLY on the provided context.
Rules:
- Only use information from the provided context
- If the context does not contain enough information to answer fully, say so
- Never make up information
- All PII (SSNs, emails, phone numbers, account numbers) has been redacted
- NEVER include actual PII values in your response; refer to redacted values generically`

// QueryConfig tunes the query service.
type QueryConfig struct {
	// AllowCapability permits routing answers to the capability provider
	AllowCapability bool

	// CacheTTL is how long query embeddings stay cached
	CacheTTL time.Duration

	// MaxTokens and Temperature are passed through to the provider
	MaxTokens   int
	Temperature float64

	Logger *slog.Logger
}

// DefaultQueryConfig returns sensible defaults.
func DefaultQueryConfig() QueryConfig {
	return QueryConfig{
		AllowCapability: true,
		CacheTTL:        time.Hour,
		MaxTokens:       500,
		Temperature:     0.3,
	}
}

// searchStrategy is one way of turning a question into scored hits.
// Strategies run in order; the first one producing hits wins.
type searchStrategy interface {
	Search(ctx context.Context, question string, embedding []float32, k int, scope domain.QueryScope) ([]*domain.SearchHit, error)
	Name() string
}

// queryService implements the QueryService interface
type queryService struct {
	cache      driven.EmbeddingCache
	redactor   driving.RedactionService
	router     driving.RouterService
	services   *runtime.Services
	guardrails *Guardrails
	strategies []searchStrategy
	auditor    *Auditor
	config     QueryConfig
}

// NewQueryService creates a new QueryService. Retrieval tries vector search
// first and falls back to keyword overlap over the loan's stored chunks.
func NewQueryService(
	vectorIndex driven.VectorIndex,
	documentStore driven.DocumentStore,
	cache driven.EmbeddingCache,
	redactor driving.RedactionService,
	router driving.RouterService,
	services *runtime.Services,
	config QueryConfig,
) driving.QueryService {
	if config.CacheTTL <= 0 {
		config.CacheTTL = time.Hour
	}
	if config.MaxTokens <= 0 {
		config.MaxTokens = 500
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &queryService{
		cache:      cache,
		redactor:   redactor,
		router:     router,
		services:   services,
		guardrails: NewGuardrails(),
		strategies: []searchStrategy{
			&vectorStrategy{index: vectorIndex},
			&keywordStrategy{store: documentStore},
		},
		auditor: NewAuditor(config.Logger),
		config:  config,
	}
}

// Query answers one question over the indexed, redacted corpus.
func (s *queryService) Query(ctx context.Context, req domain.QueryRequest) (*domain.QueryResult, error) {
	if check := s.guardrails.CheckQuestion(req.Question); !check.Passed {
		return nil, fmt.Errorf("%w: %s (%s)", domain.ErrInvalidInput, check.Reason, check.SuggestedAction)
	}
	if req.Scope.LoanID == "" {
		return nil, fmt.Errorf("%w: query scope requires a loan id", domain.ErrInvalidInput)
	}
	k := req.K
	if k <= 0 {
		k = DefaultTopK
	}

	embedding, err := s.embedQuestion(ctx, req.Question)
	if err != nil {
		return nil, err
	}

	hits, strategy := s.search(ctx, req.Question, embedding, k, req.Scope)
	if len(hits) == 0 {
		// Nothing relevant: fixed answer, the chat provider is never
		// invoked
		return &domain.QueryResult{
			Answer:    domain.NoRelevantInformation,
			Sources:   []domain.Source{},
			CreatedAt: time.Now(),
		}, nil
	}

	prompt := buildPrompt(req.Question, hits)

	route, err := s.router.Route(ctx, domain.RouteRequest{
		TaskType:        domain.TaskRAGAnswer,
		Prompt:          prompt,
		MaxTokens:       s.config.MaxTokens,
		Temperature:     s.config.Temperature,
		PIISafe:         true, // context and question carry only redacted text
		AllowCapability: s.config.AllowCapability,
	})
	if err != nil {
		return nil, fmt.Errorf("complete answer: %w", err)
	}

	answer, err := s.redactor.Sanitize(ctx, route.Content)
	if err != nil {
		return nil, fmt.Errorf("sanitize answer: %w", err)
	}

	sources := make([]domain.Source, len(hits))
	for i, hit := range hits {
		sources[i] = domain.Source{
			DocumentID: hit.Record.DocumentID,
			ChunkID:    hit.Record.ChunkID,
			Type:       hit.Record.DocumentType,
			Relevance:  domain.RelevancePercent(hit.Distance),
		}
	}

	fallback := ""
	if strategy != "vector" {
		fallback = strategy
	}
	s.auditor.QueryAnswered(req.Scope.LoanID, string(route.Provider), strategy, len(sources))

	return &domain.QueryResult{
		Answer:    answer,
		Sources:   sources,
		Provider:  string(route.Provider),
		Fallback:  fallback,
		CreatedAt: time.Now(),
	}, nil
}

// embedQuestion returns the question embedding, cache-checked.
func (s *queryService) embedQuestion(ctx context.Context, question string) ([]float32, error) {
	hash := ContentHash(question)
	if vector, ok := s.cache.Get(ctx, hash); ok {
		return vector, nil
	}

	embedder := s.services.EmbeddingService()
	if embedder == nil {
		return nil, fmt.Errorf("%w: no embedding service configured", domain.ErrServiceUnavailable)
	}
	vector, err := embedder.EmbedQuery(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}
	s.cache.Set(ctx, hash, vector, s.config.CacheTTL)
	return vector, nil
}

// search walks the strategy chain and returns the first successful
// strategy's hits along with its name. A strategy that succeeds with zero
// hits ends the walk: an empty result from a healthy search means nothing
// relevant exists, and the later strategies must not resurrect hits for it.
// Only a strategy error advances the chain.
func (s *queryService) search(ctx context.Context, question string, embedding []float32, k int, scope domain.QueryScope) ([]*domain.SearchHit, string) {
	for _, strategy := range s.strategies {
		hits, err := strategy.Search(ctx, question, embedding, k, scope)
		if err != nil {
			s.config.Logger.Warn("search strategy failed",
				"strategy", strategy.Name(), "error", err)
			continue
		}
		return hits, strategy.Name()
	}
	return nil, ""
}

// buildPrompt assembles the bounded context, best hits first.
func buildPrompt(question string, hits []*domain.SearchHit) string {
	var b strings.Builder
	b.WriteString(systemInstruction)
	b.WriteString("\n\nQuestion: ")
	b.WriteString(question)
	b.WriteString("\n\nContext from mortgage documents:\n")
	for i, hit := range hits {
		fmt.Fprintf(&b, "\n[Source %d: %s]\n%s\n", i+1, hit.Record.DocumentType, hit.Record.Text)
	}
	b.WriteString("\nProvide a clear, concise answer based on the context above.")
	return b.String()
}

// vectorStrategy retrieves nearest neighbors and drops hits at or beyond
// the distance threshold.
type vectorStrategy struct {
	index driven.VectorIndex
}

func (v *vectorStrategy) Search(ctx context.Context, _ string, embedding []float32, k int, scope domain.QueryScope) ([]*domain.SearchHit, error) {
	hits, err := v.index.Search(ctx, embedding, k, scope)
	if err != nil {
		return nil, err
	}
	kept := hits[:0:0]
	for _, hit := range hits {
		if hit.Distance < DistanceThreshold {
			kept = append(kept, hit)
		}
	}
	return kept, nil
}

func (v *vectorStrategy) Name() string { return "vector" }

// keywordStrategy scores the loan's stored chunks by word overlap with the
// question. A lexical backstop for when the vector index is unavailable or
// failing.
type keywordStrategy struct {
	store driven.DocumentStore
}

func (ks *keywordStrategy) Search(ctx context.Context, question string, _ []float32, k int, scope domain.QueryScope) ([]*domain.SearchHit, error) {
	chunks, err := ks.store.ListChunksByLoan(ctx, scope.LoanID)
	if err != nil {
		return nil, err
	}

	queryWords := make(map[string]bool)
	for _, w := range strings.Fields(strings.ToLower(question)) {
		if len(w) > 2 {
			queryWords[strings.Trim(w, ".,?!'\"")] = true
		}
	}
	if len(queryWords) == 0 {
		return nil, nil
	}

	var hits []*domain.SearchHit
	for _, chunk := range chunks {
		overlap := 0
		for _, w := range strings.Fields(strings.ToLower(chunk.Text)) {
			if queryWords[strings.Trim(w, ".,?!'\"")] {
				overlap++
			}
		}
		if overlap == 0 {
			continue
		}
		score := float64(overlap) / float64(len(queryWords))
		if score > 1 {
			score = 1
		}
		hits = append(hits, &domain.SearchHit{
			Record: &domain.IndexedRecord{
				DocumentID: chunk.DocumentID,
				LoanID:     scope.LoanID,
				ChunkID:    chunk.ID,
				Text:       chunk.Text,
			},
			// Synthesize a distance so relevance math stays uniform:
			// full overlap -> 0, no overlap -> threshold
			Distance: (1 - score) * DistanceThreshold,
		})
	}

	sort.Slice(hits, func(i, j int) bool { return hits[i].Distance < hits[j].Distance })
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

func (ks *keywordStrategy) Name() string { return "keyword" }
