package domain

// ProviderID identifies a chat/completion provider.
type ProviderID string

const (
	// ProviderSafe is the provider contracted and approved for sensitive
	// data. Requests that are not PII-safe must use it.
	ProviderSafe ProviderID = "safe"

	// ProviderCapability is the high-capability provider preferred for
	// reasoning-heavy tasks when policy permits.
	ProviderCapability ProviderID = "capability"
)

// TaskType classifies a completion request for routing purposes.
type TaskType string

const (
	TaskExtraction    TaskType = "extraction"
	TaskRAGAnswer     TaskType = "rag_answer"
	TaskSummarization TaskType = "summarization"
)

// RouteRequest carries the routing inputs for one completion call.
type RouteRequest struct {
	TaskType          TaskType `json:"task_type"`
	Prompt            string   `json:"prompt"`
	MaxTokens         int      `json:"max_tokens"`
	Temperature       float64  `json:"temperature"`
	ReasoningRequired bool     `json:"reasoning_required"`
	PIISafe           bool     `json:"pii_safe"`
	AllowCapability   bool     `json:"allow_capability"`
	LoadFactor        float64  `json:"load_factor,omitempty"`
}

// RouteResult is the completion along with which provider produced it.
type RouteResult struct {
	Provider ProviderID `json:"provider"`
	Model    string     `json:"model"`
	Content  string     `json:"content"`
	FellBack bool       `json:"fell_back"`
}

// HighLoadThreshold is the load factor above which routing degrades to the
// safe/cheaper provider to shed load.
const HighLoadThreshold = 0.8

// SelectProvider applies the routing decision table, first match wins:
//  1. not PII-safe -> safe provider, regardless of other flags
//  2. extraction -> safe provider (tends to touch raw text)
//  3. reasoning required -> capability if permitted, else safe
//  4. high load -> safe provider
//  5. otherwise safe for summarization, capability for the rest
func SelectProvider(req RouteRequest) ProviderID {
	if !req.PIISafe {
		return ProviderSafe
	}
	if req.TaskType == TaskExtraction {
		return ProviderSafe
	}
	if req.ReasoningRequired {
		if req.AllowCapability {
			return ProviderCapability
		}
		return ProviderSafe
	}
	if req.LoadFactor > HighLoadThreshold {
		return ProviderSafe
	}
	if req.TaskType == TaskSummarization {
		return ProviderSafe
	}
	return ProviderCapability
}

// FallbackProvider returns the provider to try after primary failed, and
// whether falling back is allowed at all under the request's PII policy.
// Falling back from safe to capability would violate PII-safety for
// requests that are not PII-safe.
func FallbackProvider(primary ProviderID, req RouteRequest) (ProviderID, bool) {
	if primary == ProviderSafe {
		if !req.PIISafe || !req.AllowCapability {
			return "", false
		}
		return ProviderCapability, true
	}
	return ProviderSafe, true
}
