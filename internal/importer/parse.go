package importer

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"unicode/utf8"

	"github.com/ormside/listflow/internal/layout"
)

// Row is one data row keyed by normalized header column name.
type Row map[string]string

// ParsedFile is the structural result of reading a CSV upload: the normalized
// header and the data rows. Ordinal 1 is the first data row (the row directly
// after the header), matching the numbering used in row error messages.
type ParsedFile struct {
	Header []string
	Rows   []Row
}

// ParseFile reads CSV bytes into header and rows. Malformed CSV, a missing
// header, or an empty file are structural errors that fail the whole upload;
// per-row problems are left to validation.
func ParseFile(data []byte) (*ParsedFile, error) {
	data = sanitizeUTF8(data)

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("empty file")
	}

	header := make([]string, len(records[0]))
	for i, col := range records[0] {
		header[i] = layout.NormalizeColumn(cleanCell(col))
	}

	rows := make([]Row, 0, len(records)-1)
	for _, rec := range records[1:] {
		if isEmptyRow(rec) {
			continue
		}
		row := make(Row, len(header))
		for i, col := range header {
			if col == "" || i >= len(rec) {
				continue
			}
			row[col] = cleanCell(rec[i])
		}
		rows = append(rows, row)
	}

	if len(rows) == 0 {
		return nil, fmt.Errorf("no data rows after header")
	}
	return &ParsedFile{Header: header, Rows: rows}, nil
}

// Field returns the row's value for an internal field under the given layout,
// and whether the mapped column is present (even if empty).
func (r Row) Field(def layout.Definition, field string) (string, bool) {
	col := def.SourceColumn(field)
	if col == "" {
		return "", false
	}
	v, ok := r[col]
	return v, ok
}

// sanitizeUTF8 replaces invalid byte sequences with the replacement rune so
// downstream string handling never sees broken encoding.
func sanitizeUTF8(data []byte) []byte {
	if utf8.Valid(data) {
		return data
	}

	var buf bytes.Buffer
	buf.Grow(len(data))

	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		if r == utf8.RuneError && size == 1 {
			buf.WriteRune('�')
			data = data[1:]
		} else {
			buf.WriteRune(r)
			data = data[size:]
		}
	}

	return buf.Bytes()
}

func isEmptyRow(row []string) bool {
	for _, v := range row {
		if cleanCell(v) != "" {
			return false
		}
	}
	return true
}
