package transfer

import (
	"fmt"
	"io"
	"strconv"

	"github.com/jung-kurt/gofpdf"

	"perfeval/internal/domain/analytics"
)

const (
	pageMargin   = 10.0
	contentWidth = 210 - 2*pageMargin
	rowHeight    = 6.0
)

// WritePDF renders the report sections as A4 tables. Tables that overflow a
// page continue on the next one with their header repeated.
func WritePDF(w io.Writer, d analytics.Dashboard, title string) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(false, pageMargin)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(title, true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, tr(title), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	for _, s := range reportSections(d) {
		writeTable(pdf, tr, s)
	}
	if err := pdf.Error(); err != nil {
		return err
	}
	return pdf.Output(w)
}

func writeTable(pdf *gofpdf.Fpdf, tr func(string) string, s section) {
	columns := len(s.Header)
	for _, row := range s.Rows {
		columns = max(columns, len(row))
	}
	if columns == 0 {
		return
	}
	width := contentWidth / float64(columns)

	ensureSpace(pdf, 3*rowHeight)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, tr(s.Title), "", 1, "L", false, 0, "")
	header := func() {
		pdf.SetFont("Helvetica", "B", 8)
		pdf.SetFillColor(226, 232, 240)
		for i := 0; i < columns; i++ {
			text := ""
			if i < len(s.Header) {
				text = s.Header[i]
			}
			pdf.CellFormat(width, rowHeight, fit(pdf, tr(text), width), "1", 0, "L", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Helvetica", "", 8)
	}
	header()

	for _, row := range s.Rows {
		if ensureSpace(pdf, rowHeight) {
			header()
		}
		for i := 0; i < columns; i++ {
			text := ""
			if i < len(row) {
				text = formatCell(row[i])
			}
			pdf.CellFormat(width, rowHeight, fit(pdf, tr(text), width), "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}
	pdf.Ln(4)
}

// ensureSpace starts a new page when fewer than h millimetres remain and
// reports whether it did.
func ensureSpace(pdf *gofpdf.Fpdf, h float64) bool {
	_, pageHeight := pdf.GetPageSize()
	if pdf.GetY()+h <= pageHeight-pageMargin {
		return false
	}
	pdf.AddPage()
	return true
}

// fit truncates already translated text to the cell width.
func fit(pdf *gofpdf.Fpdf, text string, width float64) string {
	limit := width - 2
	if pdf.GetStringWidth(text) <= limit {
		return text
	}
	// Translated text is single-byte, so trimming bytes is safe.
	for len(text) > 0 && pdf.GetStringWidth(text+"...") > limit {
		text = text[:len(text)-1]
	}
	return text + "..."
}

func formatCell(v any) string {
	switch x := v.(type) {
	case float64:
		return strconv.FormatFloat(x, 'f', 2, 64)
	case string:
		return x
	case nil:
		return ""
	}
	return fmt.Sprint(v)
}
