package driven

import (
	"context"
)

// RecognizedSpan is one typed span returned by an external entity
// recognition service, in the service's own label vocabulary.
type RecognizedSpan struct {
	Label string
	Begin int
	End   int
	Score float64
}

// EntityRecognizer is an optional external NER collaborator for the PII
// detector. It is best-effort: a failing or absent recognizer degrades
// detection to pattern rules only, it never fails the detect call.
type EntityRecognizer interface {
	// Recognize returns typed spans for the given text and language
	Recognize(ctx context.Context, text, language string) ([]RecognizedSpan, error)

	// HealthCheck verifies the recognizer is reachable
	HealthCheck(ctx context.Context) error

	// Close releases resources held by the recognizer
	Close() error
}
