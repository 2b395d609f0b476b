package transfer

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"perfeval/internal/domain/analytics"
)

// WriteWorkbook writes the dashboard as one sheet per report section.
func WriteWorkbook(w io.Writer, d analytics.Dashboard) error {
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E2E8F0"}, Pattern: 1},
	})
	if err != nil {
		return err
	}

	for i, s := range reportSections(d) {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", s.Title); err != nil {
				return err
			}
		} else if _, err := f.NewSheet(s.Title); err != nil {
			return err
		}
		if err := writeSheet(f, s, headerStyle); err != nil {
			return fmt.Errorf("sheet %s: %w", s.Title, err)
		}
	}
	f.SetActiveSheet(0)
	_, err = f.WriteTo(w)
	return err
}

func writeSheet(f *excelize.File, s section, headerStyle int) error {
	header := make([]any, len(s.Header))
	for i, h := range s.Header {
		header[i] = h
	}
	if err := f.SetSheetRow(s.Title, "A1", &header); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(max(len(s.Header), 1), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(s.Title, "A1", last, headerStyle); err != nil {
		return err
	}
	for i, row := range s.Rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := row
		if err := f.SetSheetRow(s.Title, cell, &values); err != nil {
			return err
		}
	}
	if len(s.Header) > 0 {
		lastCol, _ := excelize.ColumnNumberToName(len(s.Header))
		return f.SetColWidth(s.Title, "A", lastCol, 18)
	}
	return nil
}
