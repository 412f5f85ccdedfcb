package domain

import "fmt"

// PIIType classifies the kind of sensitive data found in a document.
// The enumeration is closed: recognizer labels outside it map to PIIOther.
type PIIType string

const (
	PIISSN            PIIType = "ssn"
	PIIDateOfBirth    PIIType = "date_of_birth"
	PIIPhone          PIIType = "phone"
	PIIEmail          PIIType = "email"
	PIIEmployerID     PIIType = "employer_id_number"
	PIIRoutingNumber  PIIType = "bank_routing_number"
	PIIAccountNumber  PIIType = "bank_account_number"
	PIIStreetAddress  PIIType = "street_address"
	PIIOther          PIIType = "other"
)

// PIIEntity is a typed span detected in source text.
// Offsets are half-open character offsets into the text the entity was
// detected in. Entities are created by the detector and never mutated.
type PIIEntity struct {
	Type       PIIType `json:"type"`
	Text       string  `json:"text"`
	Start      int     `json:"start"`
	End        int     `json:"end"`
	Confidence float64 `json:"confidence"`
}

// Validate checks the entity span against the text it was detected in.
func (e *PIIEntity) Validate(textLen int) error {
	if e.Start < 0 || e.Start >= e.End || e.End > textLen {
		return fmt.Errorf("%w: entity span [%d,%d) out of range for text length %d",
			ErrInvalidInput, e.Start, e.End, textLen)
	}
	if e.Confidence < 0 || e.Confidence > 1 {
		return fmt.Errorf("%w: confidence %f outside [0,1]", ErrInvalidInput, e.Confidence)
	}
	return nil
}

// Overlaps reports whether two entity spans share any offset.
func (e *PIIEntity) Overlaps(other *PIIEntity) bool {
	return e.Start < other.End && other.Start < e.End
}

// DetectionResult is the detector's output for one input string.
// Entities are sorted ascending by start offset and non-overlapping.
// Degraded is set when the external recognizer was configured but
// unreachable, so only pattern rules contributed.
type DetectionResult struct {
	Entities []PIIEntity `json:"entities"`
	Degraded bool        `json:"degraded"`
}

// ValidateNonOverlap verifies the sorted, non-overlapping invariant on a
// detector output. Intended for audits and tests; the detector is expected
// to uphold this by construction.
func ValidateNonOverlap(entities []PIIEntity) error {
	for i := 1; i < len(entities); i++ {
		prev, cur := &entities[i-1], &entities[i]
		if cur.Start < prev.Start {
			return fmt.Errorf("%w: entities not sorted by start offset", ErrInvalidInput)
		}
		if prev.Overlaps(cur) {
			return fmt.Errorf("%w: entities [%d,%d) and [%d,%d) overlap",
				ErrInvalidInput, prev.Start, prev.End, cur.Start, cur.End)
		}
	}
	return nil
}
