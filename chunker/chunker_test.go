package chunker

import (
	"fmt"
	"reflect"
	"strings"
	"testing"
)

func words(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("w%d", i)
	}
	return strings.Join(parts, " ")
}

func TestChunker_Split_CoversTail(t *testing.T) {
	c := New(1000, 200)
	chunks := c.Split(words(2500))

	if len(chunks) == 0 {
		t.Fatalf("expected chunks")
	}
	prev := -1
	for i, chunk := range chunks {
		if chunk.Start <= prev {
			t.Fatalf("chunk %d start %d does not advance past %d", i, chunk.Start, prev)
		}
		if chunk.Size != chunk.End-chunk.Start {
			t.Fatalf("chunk %d size %d != end-start %d", i, chunk.Size, chunk.End-chunk.Start)
		}
		prev = chunk.Start
	}
	if last := chunks[len(chunks)-1]; last.End != 2500 {
		t.Fatalf("expected last chunk to end at 2500, got %d", last.End)
	}
}

func TestChunker_Split_Deterministic(t *testing.T) {
	c := New(1000, 200)
	text := words(3123)
	if !reflect.DeepEqual(c.Split(text), c.Split(text)) {
		t.Fatalf("expected identical chunk lists for identical input")
	}
}

func TestChunker_Split_Empty(t *testing.T) {
	c := New(0, -1)
	if chunks := c.Split("   \n\t "); chunks != nil {
		t.Fatalf("expected no chunks for blank input, got %d", len(chunks))
	}
}

func TestChunker_Split_ShortText(t *testing.T) {
	c := New(1000, 200)
	chunks := c.Split("our board reviews finances quarterly")
	if len(chunks) != 1 {
		t.Fatalf("expected a single chunk, got %d", len(chunks))
	}
	if chunks[0].Start != 0 || chunks[0].End != 5 {
		t.Fatalf("unexpected range [%d,%d)", chunks[0].Start, chunks[0].End)
	}
}

func TestChunker_Split_ForcedProgress(t *testing.T) {
	// Overlap equal to chunk size would stall without the forced step; New
	// caps it at chunkSize/2 and Split still has to terminate.
	c := New(4, 4)
	chunks := c.Split(words(10))
	prev := -1
	for _, chunk := range chunks {
		if chunk.Start <= prev {
			t.Fatalf("cursor stalled at %d", chunk.Start)
		}
		prev = chunk.Start
	}
}
