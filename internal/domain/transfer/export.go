package transfer

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"perfeval/internal/domain/analytics"
	"perfeval/internal/domain/catalog"
	"perfeval/internal/domain/employees"
	"perfeval/internal/domain/tenant"
	"perfeval/internal/platform/textnorm"
)

type ExportRecorder interface {
	RecordExport()
}

type Exporter struct {
	analytics *analytics.Service
	metrics   ExportRecorder
}

func NewExporter(an *analytics.Service, metrics ExportRecorder) *Exporter {
	return &Exporter{analytics: an, metrics: metrics}
}

// Export writes the filtered evaluation view as CSV, or the dashboard as a
// workbook or PDF report.
func (ex *Exporter) Export(ctx context.Context, sess tenant.Session, format string, filter analytics.Filter, title string, w io.Writer) error {
	var err error
	switch format {
	case FormatCSV:
		var rows []analytics.Row
		if rows, err = ex.analytics.Rows(ctx, sess, filter); err == nil {
			err = WriteCSV(w, rows)
		}
	case FormatXLSX:
		var d analytics.Dashboard
		if d, err = ex.analytics.Dashboard(ctx, sess, filter); err == nil {
			err = WriteWorkbook(w, d)
		}
	case FormatPDF:
		var d analytics.Dashboard
		if d, err = ex.analytics.Dashboard(ctx, sess, filter); err == nil {
			err = WritePDF(w, d, title)
		}
	default:
		return ErrUnknownFormat
	}
	if err == nil && ex.metrics != nil {
		ex.metrics.RecordExport()
	}
	return err
}

func ContentType(format string) string {
	switch format {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatPDF:
		return "application/pdf"
	}
	return "application/octet-stream"
}

func FileName(format string, now time.Time) string {
	if format == FormatCSV {
		return fmt.Sprintf("avaliacoes-%s.csv", now.Format("2006-01-02"))
	}
	return fmt.Sprintf("relatorio-desempenho-%s.%s", now.Format("2006-01-02"), format)
}

var csvHeader = []string{"Funcionário", "Matrícula", "Setor", "Cargo", "Nível", "Status", "Data", "Média", "Destaque"}

// WriteCSV writes one line per evaluation with one column per criterion.
func WriteCSV(w io.Writer, rows []analytics.Row) error {
	criteria := criteriaOf(rows)
	writer := csv.NewWriter(w)
	if err := writer.Write(append(append([]string{}, csvHeader...), criteria...)); err != nil {
		return err
	}
	for _, r := range rows {
		line := []string{
			r.Name,
			r.Code,
			r.Sector,
			r.Role,
			catalog.LevelLabel(r.Level),
			statusLabel(r.Status),
			dateOf(r),
			formatScore(r.Score),
			yesNo(r.Highlight),
		}
		for _, c := range criteria {
			if v, ok := r.Scores[c]; ok {
				line = append(line, formatScore(v))
			} else {
				line = append(line, "")
			}
		}
		if err := writer.Write(line); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func criteriaOf(rows []analytics.Row) []string {
	set := map[string]bool{}
	for _, r := range rows {
		for c := range r.Scores {
			set[c] = true
		}
	}
	out := make([]string, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	sort.Slice(out, func(a, b int) bool {
		ka, kb := textnorm.Key(out[a]), textnorm.Key(out[b])
		if ka != kb {
			return ka < kb
		}
		return out[a] < out[b]
	})
	return out
}

func dateOf(r analytics.Row) string {
	if !r.HasDate {
		return ""
	}
	return r.Date.Format("2006-01-02")
}

func statusLabel(status string) string {
	if label, ok := employees.StatusLabels[status]; ok {
		return label
	}
	return status
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func yesNo(v bool) string {
	if v {
		return "Sim"
	}
	return "Não"
}
