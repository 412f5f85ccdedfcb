package domain

// RedactionMode selects how detected entities are replaced.
type RedactionMode string

const (
	// RedactionModeIrreversible replaces entities with [TYPE_REDACTED]
	// placeholders that cannot be reversed.
	RedactionModeIrreversible RedactionMode = "irreversible"

	// RedactionModeTokenized replaces entities with [PII:type:token]
	// markers backed by the secure vault. Internal role only.
	RedactionModeTokenized RedactionMode = "tokenized"
)

// Valid reports whether the mode is a known redaction mode.
func (m RedactionMode) Valid() bool {
	return m == RedactionModeIrreversible || m == RedactionModeTokenized
}

// RedactionRequest asks for detection plus redaction of one text.
type RedactionRequest struct {
	DocumentID string        `json:"document_id"`
	Text       string        `json:"text"`
	Mode       RedactionMode `json:"mode"`
	Role       Role          `json:"role"`
}

// RedactionResult is the outcome of a redaction pass.
// Tokens maps distinct entity text values to their vault tokens; it is only
// populated in tokenized mode. Downgraded is set when tokenized mode was
// requested by a role not authorized for it and the redactor fell back to
// irreversible placeholders.
type RedactionResult struct {
	RedactedText string            `json:"redacted_text"`
	Entities     []PIIEntity       `json:"entities"`
	Tokens       map[string]string `json:"tokens,omitempty"`
	Mode         RedactionMode     `json:"mode"`
	Downgraded   bool              `json:"downgraded"`
	Degraded     bool              `json:"degraded"`
}

// TokenMap is a per-document mapping from a PII entity's exact text to its
// opaque vault token. One token per distinct text value, not per occurrence.
// The hot path is one-directional (text -> token); reversal goes through the
// vault's authenticated lookup only.
type TokenMap map[string]string
