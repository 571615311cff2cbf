package document

import (
	"encoding/csv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// extractPlainText decodes text bytes, falling back from UTF-8 to the legacy
// single-byte encodings uploads commonly carry.
func extractPlainText(data []byte) (string, error) {
	if utf8.Valid(data) {
		return string(data), nil
	}
	for _, cm := range []*charmap.Charmap{charmap.Windows1252, charmap.ISO8859_1} {
		if decoded, err := cm.NewDecoder().Bytes(data); err == nil {
			return string(decoded), nil
		}
	}
	// Last resort: lossy UTF-8 with replacement runes.
	return strings.ToValidUTF8(string(data), string(utf8.RuneError)), nil
}

// extractCSV renders rows as pipe-joined lines.
func extractCSV(data []byte) (string, error) {
	text, err := extractPlainText(data)
	if err != nil {
		return "", err
	}
	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return "", err
	}
	lines := make([]string, 0, len(records))
	for _, record := range records {
		line := strings.Join(record, " | ")
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n"), nil
}
