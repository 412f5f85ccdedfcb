package domain

import "testing"

func TestSelectProvider(t *testing.T) {
	tests := []struct {
		name string
		req  RouteRequest
		want ProviderID
	}{
		{
			name: "not pii safe always routes safe",
			req:  RouteRequest{TaskType: TaskRAGAnswer, PIISafe: false, ReasoningRequired: true, AllowCapability: true},
			want: ProviderSafe,
		},
		{
			name: "extraction routes safe",
			req:  RouteRequest{TaskType: TaskExtraction, PIISafe: true, AllowCapability: true},
			want: ProviderSafe,
		},
		{
			name: "reasoning prefers capability when allowed",
			req:  RouteRequest{TaskType: TaskRAGAnswer, PIISafe: true, ReasoningRequired: true, AllowCapability: true},
			want: ProviderCapability,
		},
		{
			name: "reasoning without capability permission routes safe",
			req:  RouteRequest{TaskType: TaskRAGAnswer, PIISafe: true, ReasoningRequired: true, AllowCapability: false},
			want: ProviderSafe,
		},
		{
			name: "high load sheds to safe",
			req:  RouteRequest{TaskType: TaskRAGAnswer, PIISafe: true, AllowCapability: true, LoadFactor: 0.9},
			want: ProviderSafe,
		},
		{
			name: "summarization routes safe",
			req:  RouteRequest{TaskType: TaskSummarization, PIISafe: true, AllowCapability: true},
			want: ProviderSafe,
		},
		{
			name: "default routes capability",
			req:  RouteRequest{TaskType: TaskRAGAnswer, PIISafe: true, AllowCapability: true},
			want: ProviderCapability,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SelectProvider(tt.req); got != tt.want {
				t.Errorf("SelectProvider() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFallbackProvider(t *testing.T) {
	// Capability primary always falls back to safe
	fb, ok := FallbackProvider(ProviderCapability, RouteRequest{PIISafe: true, AllowCapability: true})
	if !ok || fb != ProviderSafe {
		t.Errorf("expected fallback to safe, got %v ok=%v", fb, ok)
	}

	// Safe primary on a non-PII-safe request must not fall back
	if _, ok := FallbackProvider(ProviderSafe, RouteRequest{PIISafe: false, AllowCapability: true}); ok {
		t.Error("fallback must be forbidden when request is not PII-safe")
	}

	// Safe primary falls back to capability when permitted
	fb, ok = FallbackProvider(ProviderSafe, RouteRequest{PIISafe: true, AllowCapability: true})
	if !ok || fb != ProviderCapability {
		t.Errorf("expected fallback to capability, got %v ok=%v", fb, ok)
	}

	// Safe primary with capability disallowed must not fall back
	if _, ok := FallbackProvider(ProviderSafe, RouteRequest{PIISafe: true, AllowCapability: false}); ok {
		t.Error("fallback must be forbidden when capability provider is disallowed")
	}
}

func TestRelevancePercent(t *testing.T) {
	tests := []struct {
		distance float64
		want     int
	}{
		{0, 100},
		{1.0, 50},
		{2.0, 0},
		{3.0, 0},  // clamped
		{-0.5, 100}, // clamped
	}
	for _, tt := range tests {
		if got := RelevancePercent(tt.distance); got != tt.want {
			t.Errorf("RelevancePercent(%v) = %d, want %d", tt.distance, got, tt.want)
		}
	}
}
