package transfer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"perfeval/internal/platform/textnorm"
)

// Table is a header row plus data rows, as read from CSV or the first sheet
// of a workbook.
type Table struct {
	Header []string
	Rows   [][]string
}

func Read(format string, r io.Reader) (Table, error) {
	switch strings.ToLower(format) {
	case FormatCSV, "":
		return ReadCSV(r)
	case FormatXLSX:
		return ReadXLSX(r)
	}
	return Table{}, ErrUnknownFormat
}

func ReadCSV(r io.Reader) (Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	rows, err := reader.ReadAll()
	if err != nil {
		return Table{}, fmt.Errorf("read csv: %w", err)
	}
	return newTable(rows)
}

func ReadXLSX(r io.Reader) (Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return Table{}, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return Table{}, ErrEmptyFile
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return Table{}, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return newTable(rows)
}

func newTable(rows [][]string) (Table, error) {
	if len(rows) == 0 {
		return Table{}, ErrEmptyFile
	}
	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = textnorm.Clean(strings.TrimPrefix(h, "\ufeff"))
	}
	return Table{Header: header, Rows: rows[1:]}, nil
}

// Records maps columns to target fields. Blank rows are dropped.
func (t Table) Records(target string) ([]Record, error) {
	aliases, ok := columnAliases[target]
	if !ok {
		return nil, ErrUnknownTarget
	}
	fields := make([]string, len(t.Header))
	known := false
	for i, h := range t.Header {
		if field, ok := aliases[textnorm.Key(h)]; ok {
			fields[i] = field
			known = true
		}
	}
	if !known {
		return nil, ErrNoKnownColumn
	}

	out := make([]Record, 0, len(t.Rows))
	for n, row := range t.Rows {
		rec := Record{Line: n + 2, Fields: map[string]string{}, Extra: map[string]string{}}
		blank := true
		for i, raw := range row {
			if i >= len(t.Header) {
				break
			}
			value := textnorm.Clean(raw)
			if value == "" {
				continue
			}
			blank = false
			if fields[i] != "" {
				if _, seen := rec.Fields[fields[i]]; !seen {
					rec.Fields[fields[i]] = value
				}
				continue
			}
			if t.Header[i] != "" {
				rec.Extra[t.Header[i]] = value
			}
		}
		if !blank {
			out = append(out, rec)
		}
	}
	return out, nil
}
