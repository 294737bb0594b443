// Package extractor turns uploaded file bytes into plain text pages.
// File type is sniffed from magic bytes first; the declared mime type and
// extension are fallbacks only, because browsers routinely lie about both.
package extractor

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"

	pdf "github.com/ledongthuc/pdf"
)

// Media kinds recognised by the pipeline.
const (
	KindPDF      = "pdf"
	KindText     = "text"
	KindMarkdown = "markdown"
	KindHTML     = "html"
	KindDocx     = "docx"
	KindPptx     = "pptx"
	KindImage    = "image"
)

// Page is one unit of extracted text with its source page number when the
// format has pages. Number is 1-based; 0 means the format is unpaged.
type Page struct {
	Number int
	Text   string
}

// Result is the extraction output for one file.
type Result struct {
	Kind  string
	Pages []Page
}

// DetectMediaKind sniffs the file's kind without extracting. Images are
// routed to OCR by the caller; everything else goes through Extract.
func DetectMediaKind(originalName, mimeType string, head []byte) string {
	ext := strings.ToLower(filepath.Ext(originalName))
	mt := strings.ToLower(strings.TrimSpace(mimeType))

	if isPDF(head) {
		return KindPDF
	}
	if isImage(head) || strings.HasPrefix(mt, "image/") {
		return KindImage
	}
	if isZip(head) {
		kind, err := detectOpenXMLKind(head)
		if err == nil {
			return kind
		}
	}
	if looksLikeHTML(head) || mt == "text/html" || ext == ".html" || ext == ".htm" {
		return KindHTML
	}
	if ext == ".md" || ext == ".markdown" || mt == "text/markdown" {
		return KindMarkdown
	}
	if isProbablyText(head) || mt == "text/plain" || ext == ".txt" {
		return KindText
	}
	return ""
}

// Extract parses the file into text pages. Image files are rejected here;
// the caller OCRs them and wraps the result itself.
func Extract(originalName, mimeType string, data []byte) (Result, error) {
	if len(data) == 0 {
		return Result{}, fmt.Errorf("empty file: name=%s mime=%s", originalName, mimeType)
	}

	kind := DetectMediaKind(originalName, mimeType, data)
	switch kind {
	case KindPDF:
		pages, err := extractPDFPages(data)
		if err != nil {
			return Result{}, err
		}
		return Result{Kind: KindPDF, Pages: pages}, nil
	case KindDocx:
		text, err := extractOpenXMLText(data, []string{"word/document.xml"}, "t")
		if err != nil {
			return Result{}, err
		}
		return Result{Kind: KindDocx, Pages: []Page{{Text: text}}}, nil
	case KindPptx:
		text, err := extractOpenXMLTextByPrefix(data, "ppt/slides/", ".xml", "t")
		if err != nil {
			return Result{}, err
		}
		return Result{Kind: KindPptx, Pages: []Page{{Text: text}}}, nil
	case KindHTML:
		return Result{Kind: KindHTML, Pages: []Page{{Text: stripHTML(string(data))}}}, nil
	case KindMarkdown:
		return Result{Kind: KindMarkdown, Pages: []Page{{Text: normalizeText(string(data))}}}, nil
	case KindText:
		return Result{Kind: KindText, Pages: []Page{{Text: normalizeText(string(data))}}}, nil
	case KindImage:
		return Result{}, fmt.Errorf("image files go through OCR, not Extract: name=%s", originalName)
	}

	ext := strings.ToLower(filepath.Ext(originalName))
	if mimeType == "application/pdf" || ext == ".pdf" {
		return Result{}, fmt.Errorf("file claims pdf but missing %%PDF header: name=%s head=%s", originalName, firstBytesHex(data, 16))
	}
	return Result{}, fmt.Errorf("unsupported file type: name=%s ext=%s mime=%s head=%s", originalName, ext, mimeType, firstBytesHex(data, 16))
}

// WrapOCRText packages OCR output as a single-page image result.
func WrapOCRText(text string) Result {
	return Result{Kind: KindImage, Pages: []Page{{Text: normalizeText(text)}}}
}

// FullText joins all pages, for callers that do not care about provenance.
func (r Result) FullText() string {
	parts := make([]string, 0, len(r.Pages))
	for _, p := range r.Pages {
		if p.Text != "" {
			parts = append(parts, p.Text)
		}
	}
	return strings.Join(parts, "\n\n")
}

// ------------------------
// Sniff helpers
// ------------------------

func isPDF(b []byte) bool {
	return len(b) >= 5 && string(b[:5]) == "%PDF-"
}

func isZip(b []byte) bool {
	return len(b) >= 4 && b[0] == 'P' && b[1] == 'K' && b[2] == 3 && b[3] == 4
}

func isImage(b []byte) bool {
	if len(b) >= 8 && bytes.Equal(b[:8], []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}) {
		return true
	}
	if len(b) >= 3 && b[0] == 0xFF && b[1] == 0xD8 && b[2] == 0xFF {
		return true
	}
	if len(b) >= 6 && (string(b[:6]) == "GIF87a" || string(b[:6]) == "GIF89a") {
		return true
	}
	// RIFF....WEBP
	if len(b) >= 12 && string(b[:4]) == "RIFF" && string(b[8:12]) == "WEBP" {
		return true
	}
	return false
}

func looksLikeHTML(b []byte) bool {
	s := strings.ToLower(string(b[:min(len(b), 2048)]))
	trimmed := strings.TrimSpace(s)
	if strings.HasPrefix(trimmed, "<!doctype") || strings.HasPrefix(trimmed, "<html") {
		return true
	}
	return strings.Contains(s, "<html") && strings.Contains(s, "</html>")
}

func isProbablyText(b []byte) bool {
	sample := b[:min(len(b), 4096)]
	if len(sample) == 0 {
		return false
	}
	good := 0
	for _, c := range sample {
		if c == 0x00 {
			return false
		}
		if c == '\n' || c == '\r' || c == '\t' || (c >= 0x20 && c <= 0x7E) || c >= 0x80 {
			good++
		}
	}
	return float64(good)/float64(len(sample)) > 0.9
}

func firstBytesHex(b []byte, n int) string {
	n = min(len(b), n)
	const hexdigits = "0123456789abcdef"
	out := make([]byte, 0, n*2)
	for i := 0; i < n; i++ {
		out = append(out, hexdigits[b[i]>>4], hexdigits[b[i]&0x0f])
	}
	return string(out)
}

// ------------------------
// Extractors
// ------------------------

func extractPDFPages(data []byte) ([]Page, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("pdf reader: %w", err)
	}
	total := r.NumPage()
	pages := make([]Page, 0, total)
	empty := 0
	for i := 1; i <= total; i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			empty++
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			empty++
			continue
		}
		text = normalizeText(text)
		if text == "" {
			empty++
			continue
		}
		pages = append(pages, Page{Number: i, Text: text})
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("pdf has no extractable text (%d pages, likely scanned)", total)
	}
	return pages, nil
}

func detectOpenXMLKind(zipBytes []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(zipBytes), int64(len(zipBytes)))
	if err != nil {
		return "", err
	}
	hasWord := false
	hasPpt := false
	for _, f := range zr.File {
		if strings.HasPrefix(f.Name, "word/") {
			hasWord = true
		}
		if strings.HasPrefix(f.Name, "ppt/") {
			hasPpt = true
		}
	}
	switch {
	case hasWord && !hasPpt:
		return KindDocx, nil
	case hasPpt && !hasWord:
		return KindPptx, nil
	default:
		return "", fmt.Errorf("zip does not look like docx or pptx")
	}
}

func extractOpenXMLText(zipBytes []byte, files []string, tag string) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(zipBytes), int64(len(zipBytes)))
	if err != nil {
		return "", err
	}
	var out strings.Builder
	for _, target := range files {
		for _, f := range zr.File {
			if f.Name != target {
				continue
			}
			rc, err := f.Open()
			if err != nil {
				return "", err
			}
			b, _ := io.ReadAll(rc)
			_ = rc.Close()
			out.WriteString(textFromXML(b, tag))
			out.WriteString("\n")
		}
	}
	s := normalizeText(out.String())
	if s == "" {
		return "", fmt.Errorf("no text extracted from openxml")
	}
	return s, nil
}

func extractOpenXMLTextByPrefix(zipBytes []byte, prefix, suffix, tag string) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(zipBytes), int64(len(zipBytes)))
	if err != nil {
		return "", err
	}
	var out strings.Builder
	for _, f := range zr.File {
		if strings.HasPrefix(f.Name, prefix) && strings.HasSuffix(f.Name, suffix) {
			rc, err := f.Open()
			if err != nil {
				return "", err
			}
			b, _ := io.ReadAll(rc)
			_ = rc.Close()
			out.WriteString(textFromXML(b, tag))
			out.WriteString("\n")
		}
	}
	s := normalizeText(out.String())
	if s == "" {
		return "", fmt.Errorf("no text extracted from openxml prefix %s", prefix)
	}
	return s, nil
}

func textFromXML(xmlBytes []byte, tag string) string {
	dec := xml.NewDecoder(bytes.NewReader(xmlBytes))
	var out strings.Builder
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != tag {
			continue
		}
		var v string
		_ = dec.DecodeElement(&v, &se)
		if v != "" {
			out.WriteString(v)
			out.WriteString(" ")
		}
	}
	return out.String()
}

var htmlTagRe = regexp.MustCompile(`(?s)<[^>]*>`)

func stripHTML(s string) string {
	s = htmlTagRe.ReplaceAllString(s, " ")
	s = strings.ReplaceAll(s, "&nbsp;", " ")
	s = strings.ReplaceAll(s, "&amp;", "&")
	return normalizeText(s)
}

// normalizeText collapses runs of spaces and tabs but keeps newlines so the
// chunker can still prefer paragraph boundaries.
func normalizeText(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	s = strings.ReplaceAll(s, "\r\n", "\n")
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.Join(strings.Fields(line), " ")
	}
	out := strings.Join(lines, "\n")
	for strings.Contains(out, "\n\n\n") {
		out = strings.ReplaceAll(out, "\n\n\n", "\n\n")
	}
	return strings.TrimSpace(out)
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
