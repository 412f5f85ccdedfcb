package postprocessors

import (
	"fmt"
	"strings"

	"github.com/loanvault-labs/loanvault-core/internal/core/domain"
	"github.com/loanvault-labs/loanvault-core/internal/core/ports/driven"
)

// ChunkUnit selects what the chunker counts: characters or words.
type ChunkUnit string

const (
	UnitCharacters ChunkUnit = "characters"
	UnitWords      ChunkUnit = "words"
)

// ChunkConfig configures the chunker behavior.
type ChunkConfig struct {
	// Size is the maximum units per chunk
	Size int

	// Overlap is the unit overlap between consecutive chunks.
	// Must be strictly less than Size.
	Overlap int

	// Unit is what Size and Overlap count
	Unit ChunkUnit
}

// DefaultChunkConfig returns sensible defaults.
func DefaultChunkConfig() ChunkConfig {
	return ChunkConfig{
		Size:    400,
		Overlap: 50,
		Unit:    UnitWords,
	}
}

// Chunker splits content into fixed-size overlapping windows.
// Consecutive chunk starts are exactly Size-Overlap units apart, so every
// unit of the input is covered by at least one chunk.
type Chunker struct {
	config ChunkConfig
}

// Verify interface compliance
var _ driven.PostProcessor = (*Chunker)(nil)

// NewChunker creates a new chunker with the given config.
func NewChunker(config ChunkConfig) *Chunker {
	if config.Unit == "" {
		config.Unit = UnitCharacters
	}
	return &Chunker{config: config}
}

// Process splits each input chunk into overlapping windows.
func (c *Chunker) Process(chunks []driven.Chunk) ([]driven.Chunk, error) {
	if c.config.Size <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", domain.ErrInvalidInput, c.config.Size)
	}
	if c.config.Overlap < 0 || c.config.Overlap >= c.config.Size {
		return nil, fmt.Errorf("%w: overlap %d must be in [0, size), size %d", domain.ErrInvalidInput, c.config.Overlap, c.config.Size)
	}

	var result []driven.Chunk
	position := 0

	for _, chunk := range chunks {
		if chunk.Content == "" {
			continue
		}
		switch c.config.Unit {
		case UnitWords:
			result = append(result, c.splitWords(chunk.Content, &position)...)
		default:
			result = append(result, c.splitCharacters(chunk.Content, &position)...)
		}
	}

	return result, nil
}

// Name returns the processor name.
func (c *Chunker) Name() string {
	return "chunker"
}

// Order returns 10 - chunker runs after content normalisation.
func (c *Chunker) Order() int {
	return 10
}

// splitCharacters windows content by characters. Offsets are character
// positions into the content.
func (c *Chunker) splitCharacters(content string, position *int) []driven.Chunk {
	step := c.config.Size - c.config.Overlap
	var chunks []driven.Chunk

	start := 0
	for start < len(content) {
		end := start + c.config.Size
		if end > len(content) {
			end = len(content)
		}

		chunks = append(chunks, driven.Chunk{
			Content:     content[start:end],
			Position:    *position,
			StartOffset: start,
			EndOffset:   end,
		})
		*position++

		if end >= len(content) {
			break
		}
		start += step
	}

	return chunks
}

// splitWords windows content by whitespace-separated words. Offsets are
// word indices, not character positions.
func (c *Chunker) splitWords(content string, position *int) []driven.Chunk {
	words := strings.Fields(content)
	if len(words) == 0 {
		return nil
	}

	step := c.config.Size - c.config.Overlap
	var chunks []driven.Chunk

	start := 0
	for start < len(words) {
		end := start + c.config.Size
		if end > len(words) {
			end = len(words)
		}

		chunks = append(chunks, driven.Chunk{
			Content:     strings.Join(words[start:end], " "),
			Position:    *position,
			StartOffset: start,
			EndOffset:   end,
		})
		*position++

		if end >= len(words) {
			break
		}
		start += step
	}

	return chunks
}
