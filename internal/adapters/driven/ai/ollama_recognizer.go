package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/loanvault-labs/loanvault-core/internal/core/ports/driven"
)

// Ensure OllamaRecognizer implements EntityRecognizer
var _ driven.EntityRecognizer = (*OllamaRecognizer)(nil)

// recognizerPrompt asks for entity surface text rather than character
// offsets; models are unreliable at counting offsets, so spans are located
// in the input afterwards.
const recognizerPrompt = `You are a named entity recognizer for financial documents.
Extract all person names, organization names, locations, and dates from the text below.
Respond with JSON only, in this exact shape:
{"entities":[{"label":"PERSON","text":"..."},{"label":"ORG","text":"..."}]}
Valid labels: PERSON, ORG, LOCATION, DATE.

Text:
%s`

// defaultRecognizerScore is assigned to model-extracted entities, which
// carry no calibrated confidence of their own.
const defaultRecognizerScore = 0.8

// OllamaRecognizer implements best-effort NER over an Ollama chat model.
type OllamaRecognizer struct {
	chat *OllamaChat
}

// NewOllamaRecognizer creates a recognizer backed by an Ollama model.
func NewOllamaRecognizer(baseURL, model string, requestsPerSecond float64) (driven.EntityRecognizer, error) {
	chat, err := NewOllamaChat(baseURL, model, requestsPerSecond)
	if err != nil {
		return nil, err
	}
	return &OllamaRecognizer{chat: chat.(*OllamaChat)}, nil
}

type recognizerEntity struct {
	Label string  `json:"label"`
	Text  string  `json:"text"`
	Score float64 `json:"score,omitempty"`
}

type recognizerResult struct {
	Entities []recognizerEntity `json:"entities"`
}

// Recognize returns typed spans for the given text. Every occurrence of an
// extracted entity's surface text becomes a span.
func (r *OllamaRecognizer) Recognize(ctx context.Context, text, language string) ([]driven.RecognizedSpan, error) {
	resp, err := r.chat.generate(ctx, ollamaGenerateRequest{
		Model:  r.chat.model,
		Prompt: fmt.Sprintf(recognizerPrompt, text),
		Stream: false,
		Format: "json",
		Options: map[string]interface{}{
			"temperature": 0.0,
		},
	})
	if err != nil {
		return nil, err
	}

	var result recognizerResult
	if err := json.Unmarshal([]byte(resp.Response), &result); err != nil {
		return nil, fmt.Errorf("recognizer returned invalid JSON: %w", err)
	}

	var spans []driven.RecognizedSpan
	for _, entity := range result.Entities {
		if entity.Text == "" {
			continue
		}
		score := entity.Score
		if score <= 0 || score > 1 {
			score = defaultRecognizerScore
		}

		for _, begin := range allOccurrences(text, entity.Text) {
			spans = append(spans, driven.RecognizedSpan{
				Label: strings.ToUpper(entity.Label),
				Begin: begin,
				End:   begin + len(entity.Text),
				Score: score,
			})
		}
	}

	return spans, nil
}

// HealthCheck verifies the recognizer is reachable
func (r *OllamaRecognizer) HealthCheck(ctx context.Context) error {
	return r.chat.Ping(ctx)
}

// Close releases resources held by the recognizer
func (r *OllamaRecognizer) Close() error {
	return r.chat.Close()
}

func allOccurrences(text, needle string) []int {
	var offsets []int
	for from := 0; ; {
		i := strings.Index(text[from:], needle)
		if i < 0 {
			break
		}
		offsets = append(offsets, from+i)
		from += i + len(needle)
	}
	return offsets
}
