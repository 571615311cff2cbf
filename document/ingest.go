package document

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
)

const (
	// MaxFileSize is the input ceiling for uploaded documents.
	MaxFileSize = 20 * 1024 * 1024
	// MaxTextChars bounds the extracted text handed to a completion turn.
	MaxTextChars = 30000

	truncationMarker = "\n\n[... document truncated ...]"
)

var (
	ErrTooLarge    = errors.New("document too large")
	ErrUnsupported = errors.New("unsupported document format")
	ErrNoText      = errors.New("no extractable text in document")
)

type extractor func(data []byte) (string, error)

// extractors is the fixed registry of supported formats. Each extraction is a
// pure function from bytes to text.
var extractors = map[string]extractor{
	"txt":  extractPlainText,
	"csv":  extractCSV,
	"pdf":  extractPDF,
	"docx": extractDOCX,
	"xlsx": extractXLSX,
}

// Ingestor converts uploaded files of known formats into plain text,
// enforcing the input-size and output-length ceilings.
type Ingestor struct {
	logger *slog.Logger
}

func NewIngestor(logger *slog.Logger) *Ingestor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingestor{logger: logger}
}

func extensionOf(filename string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
}

// IsSupported reports whether the filename's extension is in the registry.
func (i *Ingestor) IsSupported(filename string) bool {
	_, ok := extractors[extensionOf(filename)]
	return ok
}

// SupportedFormats lists the registry as ".ext" names in stable order.
func SupportedFormats() string {
	exts := make([]string, 0, len(extractors))
	for ext := range extractors {
		exts = append(exts, "."+ext)
	}
	sort.Strings(exts)
	return strings.Join(exts, ", ")
}

// ExtractText converts the file to plain text. Output longer than
// MaxTextChars is truncated with a marker.
func (i *Ingestor) ExtractText(data []byte, filename string) (string, error) {
	if len(data) > MaxFileSize {
		return "", fmt.Errorf("%w: %.1f MB (max %d MB)", ErrTooLarge, float64(len(data))/(1024*1024), MaxFileSize/(1024*1024))
	}
	ext := extensionOf(filename)
	extract, ok := extractors[ext]
	if !ok {
		return "", fmt.Errorf("%w: %q (supported: %s)", ErrUnsupported, ext, SupportedFormats())
	}

	text, err := extract(data)
	if err != nil {
		i.logger.Warn("document_extract_failed", "filename", filename, "format", ext, "error", err.Error())
		return "", fmt.Errorf("extract %s: %w", ext, err)
	}
	if strings.TrimSpace(text) == "" {
		return "", ErrNoText
	}

	runes := []rune(text)
	if len(runes) > MaxTextChars {
		text = string(runes[:MaxTextChars]) + truncationMarker
	}
	i.logger.Info("document_extracted", "filename", filename, "format", ext, "chars", len(text))
	return text, nil
}
