package chunkers

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/kestrel-labs/kestrel/internal/core/domain"
)

func TestNew(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		s := New()
		if s.chunkSize != DefaultChunkSize {
			t.Errorf("expected chunkSize %d, got %d", DefaultChunkSize, s.chunkSize)
		}
		if s.overlap != DefaultOverlap {
			t.Errorf("expected overlap %d, got %d", DefaultOverlap, s.overlap)
		}
	})

	t.Run("custom chunk size", func(t *testing.T) {
		s := New(WithChunkSize(500))
		if s.chunkSize != 500 {
			t.Errorf("expected chunkSize 500, got %d", s.chunkSize)
		}
	})

	t.Run("custom overlap", func(t *testing.T) {
		s := New(WithOverlap(100))
		if s.overlap != 100 {
			t.Errorf("expected overlap 100, got %d", s.overlap)
		}
	})

	t.Run("overlap exceeds chunk size", func(t *testing.T) {
		s := New(WithChunkSize(100), WithOverlap(150))
		if s.overlap >= s.chunkSize {
			t.Error("overlap should be reduced when it exceeds chunk size")
		}
	})

	t.Run("zero values ignored", func(t *testing.T) {
		s := New(WithChunkSize(0), WithOverlap(-1))
		if s.chunkSize != DefaultChunkSize {
			t.Errorf("expected default chunkSize, got %d", s.chunkSize)
		}
		if s.overlap != DefaultOverlap {
			t.Errorf("expected default overlap, got %d", s.overlap)
		}
	})
}

func TestChunk_EmptyContent(t *testing.T) {
	s := New()
	segments, err := s.Chunk(context.Background(), "", "doc", domain.KindProse)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(segments) != 0 {
		t.Errorf("expected 0 segments for empty content, got %d", len(segments))
	}
}

func TestChunk_SmallProse(t *testing.T) {
	s := New(WithChunkSize(200))
	segments, err := s.Chunk(context.Background(), "This is a small piece of content.", "doc", domain.KindProse)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(segments) != 1 {
		t.Fatalf("expected 1 segment for small content, got %d", len(segments))
	}
	if segments[0].ID != "doc_chunk_0" {
		t.Errorf("expected ID doc_chunk_0, got %s", segments[0].ID)
	}
	if segments[0].DocumentID != "doc" {
		t.Errorf("expected DocumentID doc, got %s", segments[0].DocumentID)
	}
}

func TestChunk_ProseRespectsSentenceBoundaries(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 20; i++ {
		fmt.Fprintf(&sb, "Sentence number %d has a handful of words in it. ", i)
	}

	s := New(WithChunkSize(120), WithOverlap(40))
	segments, err := s.Chunk(context.Background(), sb.String(), "doc", domain.KindProse)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(segments) < 2 {
		t.Fatalf("expected multiple segments, got %d", len(segments))
	}

	for _, seg := range segments {
		if !strings.HasSuffix(seg.Content, ".") {
			t.Errorf("segment does not end at a sentence boundary: %q", seg.Content)
		}
		if len(seg.Content) > 120 {
			// Only a single indivisible sentence may exceed the bound.
			if count, _ := seg.Metadata["sentence_count"].(int); count > 1 {
				t.Errorf("multi-sentence segment exceeds chunk size: %d chars", len(seg.Content))
			}
		}
	}
}

func TestChunk_ProseOverlap(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 10; i++ {
		fmt.Fprintf(&sb, "Sentence number %d has a handful of words in it. ", i)
	}

	s := New(WithChunkSize(150), WithOverlap(50))
	segments, err := s.Chunk(context.Background(), sb.String(), "doc", domain.KindProse)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(segments) < 2 {
		t.Fatalf("expected multiple segments, got %d", len(segments))
	}

	// Consecutive segments share trailing sentences.
	first := splitSentences(segments[0].Content)
	tail := first[len(first)-1]
	if !strings.Contains(segments[1].Content, tail) {
		t.Errorf("expected segment 1 to contain trailing sentence of segment 0: %q", tail)
	}
}

func TestChunk_OversizedSentenceKeptWhole(t *testing.T) {
	long := strings.Repeat("word ", 100) + "end."

	s := New(WithChunkSize(100), WithOverlap(20))
	segments, err := s.Chunk(context.Background(), long, "doc", domain.KindProse)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(segments) != 1 {
		t.Fatalf("expected 1 oversized segment, got %d", len(segments))
	}
	if !strings.Contains(segments[0].Content, "end.") {
		t.Error("oversized sentence was cut mid-content")
	}
}

func TestChunk_CodeBoundaries(t *testing.T) {
	code := `import os

def first():
    return 1

def second():
    return 2

def third():
    return 3
`

	s := New(WithOverlap(0))
	segments, err := s.Chunk(context.Background(), code, "doc", domain.KindCode)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(segments) < 3 {
		t.Fatalf("expected at least 3 segments, got %d", len(segments))
	}

	if segments[0].ID != "doc_code_chunk_0" {
		t.Errorf("expected ID doc_code_chunk_0, got %s", segments[0].ID)
	}
	for _, seg := range segments {
		if _, ok := seg.Metadata["start_line"]; !ok {
			t.Errorf("segment %s missing start_line metadata", seg.ID)
		}
		if _, ok := seg.Metadata["end_line"]; !ok {
			t.Errorf("segment %s missing end_line metadata", seg.ID)
		}
	}
}

func TestChunk_CodeLineLookback(t *testing.T) {
	code := `x = 1
y = 2

def handler():
    return x
`

	s := New(WithOverlap(2))
	segments, err := s.Chunk(context.Background(), code, "doc", domain.KindCode)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(segments) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(segments))
	}
	if !strings.Contains(segments[1].Content, "y = 2") {
		t.Errorf("expected lookback lines in second segment, got %q", segments[1].Content)
	}
}

func TestSplitSentences(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{"simple", "One sentence. Two sentences. Three sentences.", 3},
		{"abbreviation", "See fig. 3 for details. It helps.", 2},
		{"decimal number", "The value is 3.14 exactly. Next sentence.", 2},
		{"question and exclamation", "Really? Yes! Good.", 3},
		{"no terminator", "trailing text without a period", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := splitSentences(tt.text)
			if len(got) != tt.want {
				t.Errorf("expected %d sentences, got %d: %v", tt.want, len(got), got)
			}
		})
	}
}
