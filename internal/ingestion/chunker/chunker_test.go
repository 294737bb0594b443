package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/studyden/studyden-backend/internal/ingestion/extractor"
)

func TestSplitShortTextSingleChunk(t *testing.T) {
	s := New(1200, 200)
	res := extractor.Result{Pages: []extractor.Page{{Text: "short text"}}}

	chunks := s.Split(res)
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Content != "short text" {
		t.Fatalf("unexpected content: %q", chunks[0].Content)
	}
	if chunks[0].Page != nil {
		t.Fatalf("unpaged text should have nil page")
	}
}

func TestSplitRespectsSizeAndOverlap(t *testing.T) {
	s := New(300, 50)
	sentence := "The quick brown fox jumps over the lazy dog near the river bank. "
	text := strings.Repeat(sentence, 40)
	res := extractor.Result{Pages: []extractor.Page{{Number: 3, Text: text}}}

	chunks := s.Split(res)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if len(c.Content) > 300 {
			t.Fatalf("chunk %d exceeds size: %d", i, len(c.Content))
		}
		if c.Index != i {
			t.Fatalf("chunk %d has index %d", i, c.Index)
		}
		if c.Page == nil || *c.Page != 3 {
			t.Fatalf("chunk %d lost page provenance", i)
		}
	}

	// Consecutive chunks share text through the overlap.
	tail := chunks[0].Content[len(chunks[0].Content)-20:]
	if !strings.Contains(chunks[1].Content, strings.TrimSpace(tail[:10])) {
		t.Logf("chunk0 tail: %q", tail)
		t.Logf("chunk1 head: %q", chunks[1].Content[:40])
		t.Fatal("expected overlap between consecutive chunks")
	}
}

func TestSplitPrefersSentenceBoundaries(t *testing.T) {
	s := New(120, 20)
	text := "First sentence here. Second sentence follows along. Third sentence makes it longer. Fourth one pushes past the limit for sure."
	res := extractor.Result{Pages: []extractor.Page{{Text: text}}}

	chunks := s.Split(res)
	if len(chunks) < 2 {
		t.Fatalf("expected a split, got %d chunks", len(chunks))
	}
	if !strings.HasSuffix(chunks[0].Content, ".") {
		t.Fatalf("expected first chunk to end at a sentence: %q", chunks[0].Content)
	}
}

func TestSplitNeverSpansPages(t *testing.T) {
	s := New(1200, 200)
	res := extractor.Result{Pages: []extractor.Page{
		{Number: 1, Text: "page one text"},
		{Number: 2, Text: "page two text"},
	}}

	chunks := s.Split(res)
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if *chunks[0].Page != 1 || *chunks[1].Page != 2 {
		t.Fatal("page provenance lost across pages")
	}
	if chunks[0].Index != 0 || chunks[1].Index != 1 {
		t.Fatal("indexes must be continuous across pages")
	}
}

func TestSplitKeepsMultiByteRunesIntact(t *testing.T) {
	s := New(1200, 200)
	// CJK text has no ASCII separators, forcing hard cuts and overlap
	// arithmetic through multi-byte characters.
	text := strings.Repeat("学习内容很重要。", 400)
	res := extractor.Result{Pages: []extractor.Page{{Text: text}}}

	chunks := s.Split(res)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if !utf8.ValidString(c.Content) {
			t.Fatalf("chunk %d contains invalid UTF-8: %q", i, c.Content[:24])
		}
		if len(c.Content) > 1200 {
			t.Fatalf("chunk %d exceeds size: %d", i, len(c.Content))
		}
		if !strings.Contains(text, c.Content) {
			t.Fatalf("chunk %d is not a substring of the source", i)
		}
	}
}

func TestSplitCountsWhitespaceTokens(t *testing.T) {
	s := New(1200, 200)
	res := extractor.Result{Pages: []extractor.Page{{Text: "one two  three\nfour"}}}

	chunks := s.Split(res)
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].TokenCount != 4 {
		t.Fatalf("expected 4 tokens, got %d", chunks[0].TokenCount)
	}
}

func TestSplitEmptyPages(t *testing.T) {
	s := New(1200, 200)
	res := extractor.Result{Pages: []extractor.Page{{Text: "   \n  "}}}
	if chunks := s.Split(res); len(chunks) != 0 {
		t.Fatalf("expected no chunks for blank text, got %d", len(chunks))
	}
}
