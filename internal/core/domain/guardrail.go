package domain

// GuardrailResult is the outcome of an input or output guardrail check.
// Reason and SuggestedAction are user-facing: short and actionable.
type GuardrailResult struct {
	Passed          bool   `json:"passed"`
	Reason          string `json:"reason,omitempty"`
	SuggestedAction string `json:"suggested_action,omitempty"`
}

// Pass returns a passing result with no message.
func Pass() GuardrailResult {
	return GuardrailResult{Passed: true}
}

// Fail returns a failing result with a reason and remediation hint.
func Fail(reason, action string) GuardrailResult {
	return GuardrailResult{Passed: false, Reason: reason, SuggestedAction: action}
}

// Warn returns a passing result that still carries advice.
func Warn(reason, action string) GuardrailResult {
	return GuardrailResult{Passed: true, Reason: reason, SuggestedAction: action}
}
