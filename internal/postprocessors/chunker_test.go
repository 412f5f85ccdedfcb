package postprocessors

import (
	"errors"
	"testing"

	"github.com/loanvault-labs/loanvault-core/internal/core/domain"
	"github.com/loanvault-labs/loanvault-core/internal/core/ports/driven"
)

func input(content string) []driven.Chunk {
	return []driven.Chunk{{Content: content, StartOffset: 0, EndOffset: len(content)}}
}

func TestChunkerCharacterWindows(t *testing.T) {
	c := NewChunker(ChunkConfig{Size: 4, Overlap: 1, Unit: UnitCharacters})

	chunks, err := c.Process(input("ABCDEFGHIJ"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"ABCD", "DEFG", "GHIJ"}
	if len(chunks) != len(want) {
		t.Fatalf("expected %d chunks, got %d", len(want), len(chunks))
	}
	for i, w := range want {
		if chunks[i].Content != w {
			t.Errorf("chunk %d: expected %q, got %q", i, w, chunks[i].Content)
		}
		if chunks[i].Position != i {
			t.Errorf("chunk %d: expected position %d, got %d", i, i, chunks[i].Position)
		}
	}
	if chunks[0].StartOffset != 0 || chunks[0].EndOffset != 4 {
		t.Errorf("chunk 0: expected offsets [0,4), got [%d,%d)", chunks[0].StartOffset, chunks[0].EndOffset)
	}
	if chunks[1].StartOffset != 3 || chunks[1].EndOffset != 7 {
		t.Errorf("chunk 1: expected offsets [3,7), got [%d,%d)", chunks[1].StartOffset, chunks[1].EndOffset)
	}
}

func TestChunkerFinalShortChunk(t *testing.T) {
	c := NewChunker(ChunkConfig{Size: 4, Overlap: 1, Unit: UnitCharacters})

	chunks, err := c.Process(input("ABCDEFGHIJK"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(chunks) != 4 {
		t.Fatalf("expected 4 chunks, got %d", len(chunks))
	}
	last := chunks[len(chunks)-1]
	if last.Content != "JK" {
		t.Errorf("expected final short chunk %q, got %q", "JK", last.Content)
	}
}

func TestChunkerCoversAllContent(t *testing.T) {
	c := NewChunker(ChunkConfig{Size: 7, Overlap: 3, Unit: UnitCharacters})
	content := "the quick brown fox jumps over the lazy dog"

	chunks, err := c.Process(input(content))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	covered := make([]bool, len(content))
	for _, chunk := range chunks {
		for i := chunk.StartOffset; i < chunk.EndOffset; i++ {
			covered[i] = true
		}
		if content[chunk.StartOffset:chunk.EndOffset] != chunk.Content {
			t.Errorf("chunk %d content does not match its offsets", chunk.Position)
		}
	}
	for i, ok := range covered {
		if !ok {
			t.Errorf("character %d not covered by any chunk", i)
		}
	}
}

func TestChunkerWordWindows(t *testing.T) {
	c := NewChunker(ChunkConfig{Size: 2, Overlap: 1, Unit: UnitWords})

	chunks, err := c.Process(input("one two three four five"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"one two", "two three", "three four", "four five"}
	if len(chunks) != len(want) {
		t.Fatalf("expected %d chunks, got %d", len(want), len(chunks))
	}
	for i, w := range want {
		if chunks[i].Content != w {
			t.Errorf("chunk %d: expected %q, got %q", i, w, chunks[i].Content)
		}
	}
}

func TestChunkerShortContentSingleChunk(t *testing.T) {
	c := NewChunker(ChunkConfig{Size: 100, Overlap: 10, Unit: UnitCharacters})

	chunks, err := c.Process(input("short"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 1 || chunks[0].Content != "short" {
		t.Fatalf("expected single chunk %q, got %+v", "short", chunks)
	}
}

func TestChunkerEmptyContent(t *testing.T) {
	c := NewChunker(ChunkConfig{Size: 4, Overlap: 1, Unit: UnitCharacters})

	chunks, err := c.Process(input(""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 0 {
		t.Fatalf("expected no chunks for empty content, got %d", len(chunks))
	}
}

func TestChunkerRejectsOverlapNotLessThanSize(t *testing.T) {
	for _, overlap := range []int{4, 5} {
		c := NewChunker(ChunkConfig{Size: 4, Overlap: overlap, Unit: UnitCharacters})
		_, err := c.Process(input("ABCDEFGHIJ"))
		if !errors.Is(err, domain.ErrInvalidInput) {
			t.Errorf("overlap %d: expected ErrInvalidInput, got %v", overlap, err)
		}
	}
}
