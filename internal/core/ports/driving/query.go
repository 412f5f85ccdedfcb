package driving

import (
	"context"

	"github.com/loanvault-labs/loanvault-core/internal/core/domain"
)

// QueryService answers questions over the indexed, redacted corpus.
type QueryService interface {
	// Query embeds the question, retrieves scoped nearest neighbors,
	// assembles a bounded context, completes through the provider router
	// and re-redacts the model output. When no hit survives the relevance
	// threshold the fixed no-information answer is returned and no chat
	// provider is invoked.
	Query(ctx context.Context, req domain.QueryRequest) (*domain.QueryResult, error)
}

// RouterService selects and invokes a chat provider per the decision table.
type RouterService interface {
	// Route completes the request on the selected provider, falling back
	// once to the other provider unless PII policy forbids it.
	Route(ctx context.Context, req domain.RouteRequest) (*domain.RouteResult, error)
}
