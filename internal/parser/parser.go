// Package parser turns uploaded tabular files into a geo.Table.
package parser

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"geoanalytics-api/internal/geo"

	"github.com/xuri/excelize/v2"
)

var (
	ErrUnsupportedFormat = errors.New("parser: unsupported file format")
	ErrEmptyFile         = errors.New("parser: file has no header row")
	ErrMalformedFile     = errors.New("parser: malformed file")
)

// Format names a supported upload encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatTSV  Format = "tsv"
	FormatXLSX Format = "xlsx"
	FormatJSON Format = "json"
)

// FormatOf resolves the format from a file name's extension.
func FormatOf(filename string) (Format, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv", ".txt":
		return FormatCSV, nil
	case ".tsv":
		return FormatTSV, nil
	case ".xlsx":
		return FormatXLSX, nil
	case ".json":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(filename))
}

// ContentType is the MIME type used when archiving a file of format f.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv"
	case FormatTSV:
		return "text/tab-separated-values"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatJSON:
		return "application/json"
	}
	return "application/octet-stream"
}

// Parse reads r according to the extension of filename.
func Parse(filename string, r io.Reader) (*geo.Table, error) {
	format, err := FormatOf(filename)
	if err != nil {
		return nil, err
	}
	return ParseFormat(format, r)
}

// ParseFormat reads r as format.
func ParseFormat(format Format, r io.Reader) (*geo.Table, error) {
	switch format {
	case FormatCSV:
		return parseDelimited(r, 0)
	case FormatTSV:
		return parseDelimited(r, '\t')
	case FormatXLSX:
		return parseXLSX(r)
	case FormatJSON:
		return parseJSON(r)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// parseDelimited reads CSV-like text. A zero comma sniffs the delimiter
// from the header line.
func parseDelimited(r io.Reader, comma rune) (*geo.Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("parser: failed to read file: %w", err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)
	if comma == 0 {
		comma = sniffDelimiter(data)
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = comma
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read records: %w", ErrMalformedFile, err)
	}
	return fromRecords(records)
}

// sniffDelimiter picks the most frequent of comma, tab and semicolon on the
// first line, preferring comma on ties.
func sniffDelimiter(data []byte) rune {
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}

	best, bestCount := ',', bytes.Count(line, []byte{','})
	for _, c := range []rune{'\t', ';'} {
		if n := bytes.Count(line, []byte(string(c))); n > bestCount {
			best, bestCount = c, n
		}
	}
	return best
}

func parseXLSX(r io.Reader) (*geo.Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open workbook: %w", ErrMalformedFile, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyFile
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read sheet %q: %w", ErrMalformedFile, sheets[0], err)
	}

	records := rows[:0]
	for _, row := range rows {
		if len(row) > 0 {
			records = append(records, row)
		}
	}
	return fromRecords(records)
}

// fromRecords treats the first record as the header.
func fromRecords(records [][]string) (*geo.Table, error) {
	if len(records) == 0 {
		return nil, ErrEmptyFile
	}

	columns := headerNames(records[0])
	if len(columns) == 0 {
		return nil, ErrEmptyFile
	}

	table := &geo.Table{Columns: columns, Rows: make([]geo.Row, 0, len(records)-1)}
	for _, rec := range records[1:] {
		row := make(geo.Row, len(columns))
		for i, col := range columns {
			if i < len(rec) && rec[i] != "" {
				row[col] = geo.StringValue(rec[i])
			} else {
				row[col] = geo.NullValue()
			}
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

// headerNames trims header cells and renames blank or repeated ones to
// column_N, N being the 1-based position.
func headerNames(header []string) []string {
	names := make([]string, len(header))
	seen := make(map[string]bool, len(header))
	for i, h := range header {
		name := strings.TrimSpace(h)
		if name == "" || seen[name] {
			name = fmt.Sprintf("column_%d", i+1)
		}
		seen[name] = true
		names[i] = name
	}
	return names
}

// parseJSON reads an array of objects. Columns are the union of keys in
// first-seen order; elements that are not objects become malformed rows.
func parseJSON(r io.Reader) (*geo.Table, error) {
	var items []json.RawMessage
	if err := json.NewDecoder(r).Decode(&items); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyFile
		}
		return nil, fmt.Errorf("%w: failed to decode json array: %w", ErrMalformedFile, err)
	}

	rows, columns, err := DecodeRows(items)
	if err != nil {
		return nil, err
	}
	if len(columns) == 0 {
		return nil, ErrEmptyFile
	}
	return &geo.Table{Columns: columns, Rows: rows}, nil
}

// DecodeRows converts JSON array elements into rows. Elements that are not
// objects become nil rows. columns is the union of object keys in
// first-seen order.
func DecodeRows(items []json.RawMessage) (rows []geo.Row, columns []string, err error) {
	rows = make([]geo.Row, 0, len(items))
	columns = []string{}
	known := make(map[string]bool)
	for i, item := range items {
		item = bytes.TrimSpace(item)
		if len(item) == 0 || item[0] != '{' {
			rows = append(rows, nil)
			continue
		}

		keys, err := objectKeys(item)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: failed to read object %d: %w", ErrMalformedFile, i, err)
		}
		for _, k := range keys {
			if !known[k] {
				known[k] = true
				columns = append(columns, k)
			}
		}

		var row geo.Row
		if err := json.Unmarshal(item, &row); err != nil {
			return nil, nil, fmt.Errorf("%w: failed to decode object %d: %w", ErrMalformedFile, i, err)
		}
		rows = append(rows, row)
	}
	return rows, columns, nil
}

func objectKeys(obj []byte) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(obj))
	if _, err := dec.Token(); err != nil {
		return nil, err
	}

	var keys []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected token %v", tok)
		}
		keys = append(keys, key)

		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return nil, err
		}
	}
	return keys, nil
}
