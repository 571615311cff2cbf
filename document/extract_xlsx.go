package document

import (
	"bytes"
	"strings"

	"github.com/xuri/excelize/v2"
)

// extractXLSX renders every sheet as "=== <name> ===" followed by pipe-joined
// rows.
func extractXLSX(data []byte) (string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	defer f.Close()

	var b strings.Builder
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return "", err
		}
		b.WriteString("=== " + sheet + " ===\n")
		for _, row := range rows {
			line := strings.Join(row, " | ")
			if strings.TrimSpace(line) != "" {
				b.WriteString(line)
				b.WriteByte('\n')
			}
		}
	}
	return b.String(), nil
}
