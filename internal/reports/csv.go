// Package reports builds the CSV exports, statistics and paginated activity report from a snapshot.
package reports

import (
	"bytes"
	"encoding/csv"
)

// Delimiter is the field separator of every export.
const Delimiter = ';'

// BOM marks the export as UTF-8 for spreadsheet programs.
var BOM = []byte{0xEF, 0xBB, 0xBF}

// EncodeCSV writes rows with delim, quoting fields that contain the delimiter, a quote or a newline.
// The output starts with BOM.
func EncodeCSV(rows [][]string, delim rune) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(BOM)
	w := csv.NewWriter(&buf)
	w.Comma = delim
	if err := w.WriteAll(rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
