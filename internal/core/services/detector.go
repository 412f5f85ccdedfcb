package services

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"github.com/loanvault-labs/loanvault-core/internal/core/domain"
	"github.com/loanvault-labs/loanvault-core/internal/core/ports/driving"
	"github.com/loanvault-labs/loanvault-core/internal/runtime"
)

// Ensure detectionService implements DetectionService
var _ driving.DetectionService = (*detectionService)(nil)

// piiRule pairs a compiled pattern with the entity type it detects.
// When group is set, the entity span is that capture group instead of the
// whole match (used for labeled values like "SSN: 123456789").
type piiRule struct {
	piiType    domain.PIIType
	pattern    *regexp.Regexp
	confidence float64
	group      int
}

// piiRules is the pattern rule table, materialized once at startup.
// Bare 9-digit routing numbers are a heuristic and carry the lowest
// confidence; overlap resolution lets labeled or formatted matches win.
var piiRules = []piiRule{
	{domain.PIISSN, regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`), 0.95, 0},
	{domain.PIISSN, regexp.MustCompile(`(?i)\b(?:ssn|social security(?: number)?)[:#]?\s*(\d{3}-?\d{2}-?\d{4})\b`), 0.90, 1},
	{domain.PIIEmail, regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`), 0.95, 0},
	{domain.PIIPhone, regexp.MustCompile(`\(\d{3}\)\s?\d{3}[-.\s]?\d{4}`), 0.90, 0},
	{domain.PIIPhone, regexp.MustCompile(`\b\d{3}[-.]\d{3}[-.]\d{4}\b`), 0.85, 0},
	{domain.PIIEmployerID, regexp.MustCompile(`\b\d{2}-\d{7}\b`), 0.85, 0},
	{domain.PIIDateOfBirth, regexp.MustCompile(`\b(?:0?[1-9]|1[0-2])/(?:0?[1-9]|[12]\d|3[01])/(?:19|20)\d{2}\b`), 0.80, 0},
	{domain.PIIStreetAddress, regexp.MustCompile(`\b\d{1,6}\s+[A-Z][A-Za-z]*(?:\s[A-Z][A-Za-z]*)*\s(?:Street|St|Avenue|Ave|Road|Rd|Boulevard|Blvd|Lane|Ln|Drive|Dr|Court|Ct|Place|Pl|Way)\b\.?`), 0.75, 0},
	{domain.PIIAccountNumber, regexp.MustCompile(`\b\d{10,17}\b`), 0.70, 0},
	{domain.PIIRoutingNumber, regexp.MustCompile(`\b\d{9}\b`), 0.60, 0},
}

// recognizerLabels maps external recognizer labels onto the closed PIIType
// enumeration. Unknown labels map to PIIOther.
var recognizerLabels = map[string]domain.PIIType{
	"SSN":            domain.PIISSN,
	"US_SSN":         domain.PIISSN,
	"EMAIL":          domain.PIIEmail,
	"EMAIL_ADDRESS":  domain.PIIEmail,
	"PHONE":          domain.PIIPhone,
	"PHONE_NUMBER":   domain.PIIPhone,
	"DOB":            domain.PIIDateOfBirth,
	"DATE_OF_BIRTH":  domain.PIIDateOfBirth,
	"EIN":            domain.PIIEmployerID,
	"ADDRESS":        domain.PIIStreetAddress,
	"STREET_ADDRESS": domain.PIIStreetAddress,
	"LOCATION":       domain.PIIStreetAddress,
	"BANK_ACCOUNT":   domain.PIIAccountNumber,
	"ACCOUNT_NUMBER": domain.PIIAccountNumber,
	"ROUTING_NUMBER": domain.PIIRoutingNumber,
}

// detectionService implements the DetectionService interface
type detectionService struct {
	services *runtime.Services
}

// NewDetectionService creates a new DetectionService.
// The entity recognizer is accessed dynamically via runtime.Services and is
// optional; pattern rules alone produce a valid (degraded) result.
func NewDetectionService(services *runtime.Services) driving.DetectionService {
	return &detectionService{services: services}
}

// Detect finds PII entities via the rule table plus the optional external
// recognizer, then resolves overlaps into a sorted, disjoint entity list.
func (s *detectionService) Detect(ctx context.Context, text string) (*domain.DetectionResult, error) {
	if text == "" {
		return &domain.DetectionResult{}, nil
	}

	candidates := s.matchRules(text)

	degraded := false
	if recognizer := s.services.Recognizer(); recognizer != nil {
		spans, err := recognizer.Recognize(ctx, text, "en")
		if err != nil {
			// Best-effort collaborator: detection continues on rules only
			degraded = true
		} else {
			for _, span := range spans {
				entity := domain.PIIEntity{
					Type:       mapRecognizerLabel(span.Label),
					Text:       sliceSpan(text, span.Begin, span.End),
					Start:      span.Begin,
					End:        span.End,
					Confidence: span.Score,
				}
				if entity.Validate(len(text)) != nil {
					continue
				}
				candidates = append(candidates, entity)
			}
		}
	}

	entities := resolveOverlaps(candidates)
	return &domain.DetectionResult{Entities: entities, Degraded: degraded}, nil
}

// matchRules runs every pattern rule over the text.
func (s *detectionService) matchRules(text string) []domain.PIIEntity {
	var candidates []domain.PIIEntity
	for _, rule := range piiRules {
		for _, m := range rule.pattern.FindAllStringSubmatchIndex(text, -1) {
			start, end := m[0], m[1]
			if rule.group > 0 && 2*rule.group+1 < len(m) && m[2*rule.group] >= 0 {
				start, end = m[2*rule.group], m[2*rule.group+1]
			}
			candidates = append(candidates, domain.PIIEntity{
				Type:       rule.piiType,
				Text:       text[start:end],
				Start:      start,
				End:        end,
				Confidence: rule.confidence,
			})
		}
	}
	return candidates
}

// resolveOverlaps sorts candidates and greedily keeps the first entity at
// each position. Candidates are ordered by start offset, then confidence
// descending, then longer span first, so at a contested position the most
// confident match wins. A candidate is kept iff it starts at or after the
// end of the last kept entity.
func resolveOverlaps(candidates []domain.PIIEntity) []domain.PIIEntity {
	if len(candidates) == 0 {
		return nil
	}

	sort.Slice(candidates, func(i, j int) bool {
		a, b := &candidates[i], &candidates[j]
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		if a.Confidence != b.Confidence {
			return a.Confidence > b.Confidence
		}
		return a.End > b.End
	})

	kept := candidates[:0:0]
	lastEnd := 0
	for _, c := range candidates {
		if c.Start >= lastEnd {
			kept = append(kept, c)
			lastEnd = c.End
		}
	}
	return kept
}

// mapRecognizerLabel translates a recognizer label to a PIIType.
func mapRecognizerLabel(label string) domain.PIIType {
	if t, ok := recognizerLabels[strings.ToUpper(label)]; ok {
		return t
	}
	return domain.PIIOther
}

// sliceSpan returns text[begin:end], or "" for out-of-range spans.
func sliceSpan(text string, begin, end int) string {
	if begin < 0 || end > len(text) || begin >= end {
		return ""
	}
	return text[begin:end]
}
