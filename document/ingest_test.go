package document

import (
	"archive/zip"
	"bytes"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestIsSupported(t *testing.T) {
	t.Parallel()

	ing := NewIngestor(discardLogger())
	tests := []struct {
		filename string
		want     bool
	}{
		{"notes.txt", true},
		{"REPORT.TXT", true},
		{"data.csv", true},
		{"paper.pdf", true},
		{"letter.docx", true},
		{"sheet.xlsx", true},
		{"image.png", false},
		{"archive.zip", false},
		{"noextension", false},
	}
	for _, tt := range tests {
		if got := ing.IsSupported(tt.filename); got != tt.want {
			t.Errorf("IsSupported(%q) = %v, want %v", tt.filename, got, tt.want)
		}
	}
}

func TestSupportedFormats(t *testing.T) {
	t.Parallel()

	got := SupportedFormats()
	if got != ".csv, .docx, .pdf, .txt, .xlsx" {
		t.Errorf("SupportedFormats() = %q", got)
	}
}

func TestExtractTextPlain(t *testing.T) {
	t.Parallel()

	ing := NewIngestor(discardLogger())
	text, err := ing.ExtractText([]byte("hello\nworld"), "notes.txt")
	if err != nil {
		t.Fatalf("ExtractText: %v", err)
	}
	if text != "hello\nworld" {
		t.Errorf("text = %q", text)
	}
}

func TestExtractTextLatin1Fallback(t *testing.T) {
	t.Parallel()

	// "café" in Windows-1252: é is 0xE9, invalid as UTF-8.
	ing := NewIngestor(discardLogger())
	text, err := ing.ExtractText([]byte{'c', 'a', 'f', 0xE9}, "menu.txt")
	if err != nil {
		t.Fatalf("ExtractText: %v", err)
	}
	if text != "café" {
		t.Errorf("text = %q, want café", text)
	}
}

func TestExtractTextCSV(t *testing.T) {
	t.Parallel()

	ing := NewIngestor(discardLogger())
	in := "name,age\nalice,30\nbob,41,extra\n"
	text, err := ing.ExtractText([]byte(in), "people.csv")
	if err != nil {
		t.Fatalf("ExtractText: %v", err)
	}
	want := "name | age\nalice | 30\nbob | 41 | extra"
	if text != want {
		t.Errorf("text = %q, want %q", text, want)
	}
}

func TestExtractTextTooLarge(t *testing.T) {
	t.Parallel()

	ing := NewIngestor(discardLogger())
	_, err := ing.ExtractText(make([]byte, MaxFileSize+1), "big.txt")
	if !errors.Is(err, ErrTooLarge) {
		t.Fatalf("error = %v, want ErrTooLarge", err)
	}
}

func TestExtractTextUnsupported(t *testing.T) {
	t.Parallel()

	ing := NewIngestor(discardLogger())
	_, err := ing.ExtractText([]byte("x"), "photo.png")
	if !errors.Is(err, ErrUnsupported) {
		t.Fatalf("error = %v, want ErrUnsupported", err)
	}
	if !strings.Contains(err.Error(), ".txt") {
		t.Errorf("error %q does not list supported formats", err)
	}
}

func TestExtractTextEmpty(t *testing.T) {
	t.Parallel()

	ing := NewIngestor(discardLogger())
	_, err := ing.ExtractText([]byte("   \n \t "), "blank.txt")
	if !errors.Is(err, ErrNoText) {
		t.Fatalf("error = %v, want ErrNoText", err)
	}
}

func TestExtractTextTruncation(t *testing.T) {
	t.Parallel()

	ing := NewIngestor(discardLogger())
	long := strings.Repeat("a", MaxTextChars+500)
	text, err := ing.ExtractText([]byte(long), "long.txt")
	if err != nil {
		t.Fatalf("ExtractText: %v", err)
	}
	if !strings.HasSuffix(text, truncationMarker) {
		t.Error("truncated text missing marker")
	}
	if got := len([]rune(strings.TrimSuffix(text, truncationMarker))); got != MaxTextChars {
		t.Errorf("truncated length = %d, want %d", got, MaxTextChars)
	}
}

// buildDOCX assembles a minimal in-memory .docx with the given paragraphs.
func buildDOCX(t *testing.T, paragraphs ...string) []byte {
	t.Helper()
	var doc bytes.Buffer
	doc.WriteString(`<?xml version="1.0"?><w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)
	for _, p := range paragraphs {
		doc.WriteString(`<w:p><w:r><w:t>`)
		doc.WriteString(p)
		doc.WriteString(`</w:t></w:r></w:p>`)
	}
	doc.WriteString(`</w:body></w:document>`)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	f, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.Write(doc.Bytes()); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestExtractTextDOCX(t *testing.T) {
	t.Parallel()

	ing := NewIngestor(discardLogger())
	data := buildDOCX(t, "First paragraph.", "Second paragraph.")
	text, err := ing.ExtractText(data, "letter.docx")
	if err != nil {
		t.Fatalf("ExtractText: %v", err)
	}
	if !strings.Contains(text, "First paragraph.") || !strings.Contains(text, "Second paragraph.") {
		t.Errorf("text = %q", text)
	}
	// Paragraphs come out on separate lines.
	first := strings.Index(text, "First paragraph.")
	second := strings.Index(text, "Second paragraph.")
	if !strings.Contains(text[first:second], "\n") {
		t.Errorf("paragraphs not separated by newline: %q", text)
	}
}

func TestExtractTextDOCXNotAZip(t *testing.T) {
	t.Parallel()

	ing := NewIngestor(discardLogger())
	if _, err := ing.ExtractText([]byte("not a zip"), "broken.docx"); err == nil {
		t.Fatal("want error for corrupt docx")
	}
}
