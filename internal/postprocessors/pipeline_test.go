package postprocessors

import (
	"strings"
	"testing"
)

func TestPipelineRunsProcessorsInOrder(t *testing.T) {
	p := NewPipeline()
	p.Add(NewChunker(ChunkConfig{Size: 10, Overlap: 2, Unit: UnitCharacters}))
	p.Add(NewWhitespaceNormalizer())

	names := p.List()
	if len(names) != 2 {
		t.Fatalf("expected 2 processors, got %d", len(names))
	}

	chunks, err := p.Process("hello   world\r\nthis  is content")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) == 0 {
		t.Fatal("expected chunks")
	}
	for _, chunk := range chunks {
		if strings.Contains(chunk.Content, "\r") {
			t.Errorf("chunk %d: carriage return survived normalisation", chunk.Position)
		}
	}
}

func TestPipelinePropagatesProcessorError(t *testing.T) {
	p := NewPipeline()
	p.Add(NewChunker(ChunkConfig{Size: 2, Overlap: 2, Unit: UnitCharacters}))

	_, err := p.Process("some content")
	if err == nil {
		t.Fatal("expected error from misconfigured chunker")
	}
	if !strings.Contains(err.Error(), "chunker") {
		t.Errorf("error should name the failing processor, got %v", err)
	}
}

func TestDefaultPipeline(t *testing.T) {
	p := DefaultPipeline()

	names := p.List()
	if len(names) != 2 {
		t.Fatalf("expected 2 default processors, got %d", len(names))
	}

	chunks, err := p.Process("a small document")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk for small content, got %d", len(chunks))
	}
}
