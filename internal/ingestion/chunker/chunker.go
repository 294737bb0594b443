// Package chunker splits extracted text into overlapping windows sized for
// embedding. Splits prefer paragraph breaks, then sentence ends, then
// whitespace, so chunks stay readable when quoted back to the user.
package chunker

import (
	"strings"
	"unicode/utf8"

	"github.com/studyden/studyden-backend/internal/ingestion/extractor"
)

type Chunk struct {
	Index   int
	Content string
	// Page is the 1-based source page, nil for unpaged formats.
	Page *int
	// TokenCount is the whitespace-token count of Content.
	TokenCount int
}

type Splitter struct {
	size    int
	overlap int
}

func New(size, overlap int) *Splitter {
	if size <= 0 {
		size = 1200
	}
	if overlap < 0 || overlap >= size {
		overlap = size / 6
	}
	return &Splitter{size: size, overlap: overlap}
}

// Split chunks every page of an extraction result. Chunks never span pages,
// keeping page provenance exact.
func (s *Splitter) Split(res extractor.Result) []Chunk {
	var out []Chunk
	index := 0
	for _, page := range res.Pages {
		var pageNum *int
		if page.Number > 0 {
			n := page.Number
			pageNum = &n
		}
		for _, piece := range s.splitText(page.Text) {
			out = append(out, Chunk{
				Index:      index,
				Content:    piece,
				Page:       pageNum,
				TokenCount: len(strings.Fields(piece)),
			})
			index++
		}
	}
	return out
}

func (s *Splitter) splitText(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if len(text) <= s.size {
		return []string{text}
	}

	var pieces []string
	start := 0
	for start < len(text) {
		end := start + s.size
		if end >= len(text) {
			piece := strings.TrimSpace(text[start:])
			if piece != "" {
				pieces = append(pieces, piece)
			}
			break
		}
		end = runeStart(text, end)
		cut := s.findCut(text, start, end)
		if cut <= start {
			// The whole window is one oversized rune; take it rather than loop.
			_, w := utf8.DecodeRuneInString(text[start:])
			cut = start + w
		}
		piece := strings.TrimSpace(text[start:cut])
		if piece != "" {
			pieces = append(pieces, piece)
		}
		next := runeStart(text, cut-s.overlap)
		if next <= start {
			next = cut
		}
		start = next
	}
	return pieces
}

// findCut picks the best boundary in (start, end]: paragraph break, sentence
// end, any whitespace, and finally a hard cut at end. start and end must sit
// on rune boundaries; the separators are ASCII, so every offset they yield is
// a rune boundary too.
func (s *Splitter) findCut(text string, start, end int) int {
	window := text[start:end]
	// Don't cut so early that chunks shrink to fragments.
	floor := len(window) / 2

	if i := strings.LastIndex(window, "\n\n"); i > floor {
		return start + i
	}
	for _, sep := range []string{". ", ".\n", "! ", "? ", "!\n", "?\n"} {
		if i := strings.LastIndex(window, sep); i > floor {
			return start + i + 1
		}
	}
	if i := strings.LastIndexAny(window, " \n\t"); i > floor {
		return start + i
	}
	return end
}

// runeStart walks i back to the start of the rune it points into, so byte
// arithmetic never slices a multi-byte character in half.
func runeStart(text string, i int) int {
	if i <= 0 {
		return 0
	}
	if i >= len(text) {
		return len(text)
	}
	for i > 0 && !utf8.RuneStart(text[i]) {
		i--
	}
	return i
}
