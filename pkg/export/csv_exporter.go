package export

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVOption tweaks how a CSVExporter encodes its output.
type CSVOption func(*CSVExporter)

// WithSeparator replaces the field separator, e.g. ';' for spreadsheet locales using a decimal comma.
func WithSeparator(sep rune) CSVOption {
	return func(e *CSVExporter) { e.comma = sep }
}

// WithBOM prefixes the output with a UTF-8 byte order mark so accented names open cleanly in spreadsheets.
func WithBOM() CSVOption {
	return func(e *CSVExporter) { e.bom = true }
}

// CSVExporter renders datasets as CSV with a header line.
type CSVExporter struct {
	comma rune
	bom   bool
}

// NewCSVExporter builds an exporter, comma separated unless overridden.
func NewCSVExporter(opts ...CSVOption) *CSVExporter {
	e := &CSVExporter{comma: ','}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Render encodes the dataset columns in header order. Missing cells are written empty.
func (e *CSVExporter) Render(data Dataset) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, errors.New("csv export needs at least one column")
	}

	var buf bytes.Buffer
	if e.bom {
		buf.Write(utf8BOM)
	}
	w := csv.NewWriter(&buf)
	w.Comma = e.comma

	rows := make([][]string, 0, len(data.Rows)+1)
	rows = append(rows, data.Headers)
	for _, row := range data.Rows {
		line := make([]string, len(data.Headers))
		for i, col := range data.Headers {
			line[i] = row[col]
		}
		rows = append(rows, line)
	}
	if err := w.WriteAll(rows); err != nil {
		return nil, fmt.Errorf("encode csv: %w", err)
	}
	return buf.Bytes(), nil
}
