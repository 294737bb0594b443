package extractor

import (
	"strings"
	"testing"
)

func TestDetectMediaKind(t *testing.T) {
	cases := []struct {
		name string
		mime string
		head []byte
		want string
	}{
		{"doc.pdf", "application/pdf", []byte("%PDF-1.7 rest"), KindPDF},
		{"notes.txt", "text/plain", []byte("plain words here"), KindText},
		{"notes.md", "text/markdown", []byte("# heading"), KindMarkdown},
		{"page.html", "text/html", []byte("<!DOCTYPE html><html></html>"), KindHTML},
		{"photo.png", "image/png", []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}, KindImage},
		{"photo.jpg", "", []byte{0xFF, 0xD8, 0xFF, 0xE0}, KindImage},
		{"mystery.bin", "application/octet-stream", []byte{0x00, 0x01, 0x02}, ""},
	}
	for _, tc := range cases {
		if got := DetectMediaKind(tc.name, tc.mime, tc.head); got != tc.want {
			t.Fatalf("%s: got %q want %q", tc.name, got, tc.want)
		}
	}
}

func TestDetectLyingExtension(t *testing.T) {
	// A text file renamed to .pdf is detected by content, not name.
	if got := DetectMediaKind("fake.pdf", "application/pdf", []byte("just plain text")); got != KindText {
		t.Fatalf("expected content sniff to win, got %q", got)
	}
}

func TestExtractText(t *testing.T) {
	res, err := Extract("notes.txt", "text/plain", []byte("line one\n\n\n\nline   two"))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if res.Kind != KindText {
		t.Fatalf("unexpected kind: %s", res.Kind)
	}
	if len(res.Pages) != 1 || res.Pages[0].Number != 0 {
		t.Fatalf("unexpected pages: %+v", res.Pages)
	}
	if res.Pages[0].Text != "line one\n\nline two" {
		t.Fatalf("normalization broken: %q", res.Pages[0].Text)
	}
}

func TestExtractHTMLStripsTags(t *testing.T) {
	res, err := Extract("page.html", "text/html", []byte("<html><body><p>Hello&nbsp;<b>world</b></p></body></html>"))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	text := res.FullText()
	if strings.Contains(text, "<") || strings.Contains(text, "&nbsp;") {
		t.Fatalf("tags survived: %q", text)
	}
	if !strings.Contains(text, "Hello") || !strings.Contains(text, "world") {
		t.Fatalf("content lost: %q", text)
	}
}

func TestExtractEmptyFileFails(t *testing.T) {
	if _, err := Extract("x.txt", "text/plain", nil); err == nil {
		t.Fatal("expected error for empty file")
	}
}

func TestExtractFakePDFFails(t *testing.T) {
	if _, err := Extract("fake.pdf", "application/pdf", []byte{0x00, 0x01, 0x02, 0x03}); err == nil {
		t.Fatal("expected error for fake pdf")
	}
}

func TestExtractRejectsImages(t *testing.T) {
	png := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}
	if _, err := Extract("photo.png", "image/png", png); err == nil {
		t.Fatal("images must be routed to OCR")
	}
}
