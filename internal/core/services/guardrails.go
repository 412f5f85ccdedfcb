package services

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/loanvault-labs/loanvault-core/internal/core/domain"
)

// Query length bounds in characters.
const (
	MinQueryLength = 3
	MaxQueryLength = 500
)

// injectionRule flags attempts to override system instructions. When allow
// is set, a first capture group matching it is a legitimate domain phrase
// ("act as a mortgage advisor") and is not flagged.
type injectionRule struct {
	pattern *regexp.Regexp
	allow   *regexp.Regexp
}

var injectionRules = []injectionRule{
	{pattern: regexp.MustCompile(`(?i)ignore\s+.{0,30}(?:instructions?|prompts?|rules?|commands?)`)},
	{pattern: regexp.MustCompile(`(?i)disregard\s+.{0,30}(?:instructions?|prompts?|rules?|commands?)`)},
	{pattern: regexp.MustCompile(`(?i)forget\s+.{0,30}(?:instructions?|prompts?|rules?|commands?)`)},
	{pattern: regexp.MustCompile(`(?i)system\s+(?:prompt|message)`)},
	{pattern: regexp.MustCompile(`(?i)(?:admin|developer|debug)\s+mode`)},
	{pattern: regexp.MustCompile(`(?i)jailbreak`)},
	{pattern: regexp.MustCompile(`(?i)pretend\s+(?:you|to)\s+(?:are|be)`)},
	{
		pattern: regexp.MustCompile(`(?i)you\s+are\s+(?:now|a)\s+(\w+)`),
		allow:   regexp.MustCompile(`(?i)^(?:mortgage|loan|financial)$`),
	},
	{
		pattern: regexp.MustCompile(`(?i)act\s+as\s+(?:if|a|an)\s+(\w+)`),
		allow:   regexp.MustCompile(`(?i)^(?:mortgage|loan|financial)$`),
	},
}

var inappropriatePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(?:hack|exploit|bypass|malicious|illegal)\b`),
	regexp.MustCompile(`(?i)\b(?:password|credential|token|secret)\b.*\b(?:steal|extract|get)\b`),
}

// topicKeywords are mortgage and finance terms. A question touching none of
// them still passes, with a relevance warning attached.
var topicKeywords = []string{
	"mortgage", "loan", "income", "salary", "employment", "w-2", "paystub",
	"tax", "payment", "down payment", "interest", "rate", "credit",
	"property", "home", "house", "address", "employer", "year", "amount",
	"document", "refinance", "qualification", "bank", "account", "finance",
}

// Guardrails validates user questions before they reach retrieval.
type Guardrails struct{}

// NewGuardrails creates a new Guardrails validator.
func NewGuardrails() *Guardrails {
	return &Guardrails{}
}

// CheckQuestion validates a question against all input guardrails.
// Failures carry a reason and a remediation hint for the caller.
func (g *Guardrails) CheckQuestion(question string) domain.GuardrailResult {
	if strings.TrimSpace(question) == "" {
		return domain.Fail("Question is empty", "Please enter a question")
	}

	if len(question) < MinQueryLength {
		return domain.Fail(
			fmt.Sprintf("Question too short (minimum %d characters)", MinQueryLength),
			"Please enter a more detailed question")
	}
	if len(question) > MaxQueryLength {
		return domain.Fail(
			fmt.Sprintf("Question too long (maximum %d characters)", MaxQueryLength),
			fmt.Sprintf("Please shorten your question to under %d characters", MaxQueryLength))
	}

	for _, rule := range injectionRules {
		m := rule.pattern.FindStringSubmatch(question)
		if m == nil {
			continue
		}
		if rule.allow != nil && len(m) > 1 && rule.allow.MatchString(m[1]) {
			continue
		}
		return domain.Fail(
			"Potential prompt injection detected",
			"Please rephrase your question without system instructions")
	}

	for _, pattern := range inappropriatePatterns {
		if pattern.MatchString(question) {
			return domain.Fail(
				"Question contains inappropriate or suspicious content",
				"Please use appropriate language related to mortgage documents")
		}
	}

	lower := strings.ToLower(question)
	for _, keyword := range topicKeywords {
		if strings.Contains(lower, keyword) {
			return domain.Pass()
		}
	}
	return domain.Warn(
		"Question may not be relevant to mortgage documents",
		"For best results, ask about mortgage-related information (income, loans, employment)")
}
