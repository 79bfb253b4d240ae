package chunking

import (
	"strings"
	"testing"
)

func TestSplitKeepsShortParagraphsTogether(t *testing.T) {
	s := NewSplitter(200, 20)
	text := "First subsection text.\n\nSecond subsection text."

	chunks := s.Split(text)

	if len(chunks) != 1 {
		t.Fatalf("short paragraphs must share a chunk, got %d", len(chunks))
	}
	if !strings.Contains(chunks[0], "First subsection") || !strings.Contains(chunks[0], "Second subsection") {
		t.Fatalf("unexpected chunk %q", chunks[0])
	}
}

func TestSplitBreaksAtParagraphBoundary(t *testing.T) {
	s := NewSplitter(50, 0)
	text := strings.Repeat("a", 40) + "\n\n" + strings.Repeat("b", 40)

	chunks := s.Split(text)

	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d: %v", len(chunks), chunks)
	}
	if strings.Contains(chunks[0], "b") {
		t.Fatalf("paragraphs must not be merged past the size limit")
	}
}

func TestSplitWindowsOversizedParagraphWithOverlap(t *testing.T) {
	s := NewSplitter(100, 20)
	text := strings.Repeat("x", 250)

	chunks := s.Split(text)

	if len(chunks) < 3 {
		t.Fatalf("expected sliding window over oversized paragraph, got %d chunks", len(chunks))
	}
	for _, c := range chunks {
		if len([]rune(c)) > 100 {
			t.Fatalf("chunk exceeds size limit: %d runes", len([]rune(c)))
		}
	}
}

func TestSplitEmptyText(t *testing.T) {
	s := NewSplitter(100, 10)
	if got := s.Split("   \n\n  "); got != nil {
		t.Fatalf("expected nil for blank text, got %v", got)
	}
}
