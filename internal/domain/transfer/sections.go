package transfer

import "perfeval/internal/domain/analytics"

// section is one table of the report, shared by the workbook and the PDF.
type section struct {
	Title  string
	Header []string
	Rows   [][]any
}

var tierLabels = map[string]string{
	analytics.TierBelowCompany: "Abaixo da média da empresa",
	analytics.TierBelowSector:  "Abaixo da média do setor",
	analytics.TierAboveSector:  "Acima da média do setor",
}

func reportSections(d analytics.Dashboard) []section {
	return []section{
		summarySection(d),
		rankingSection(d.Ranking),
		sectorSection(d.Sectors),
		matrixSection(d.Matrix, d.Gaps),
		seriesSection(d.Series),
		comparativeSection(d.Comparatives),
	}
}

func summarySection(d analytics.Dashboard) section {
	s := section{
		Title:  "Resumo",
		Header: []string{"Indicador", "Valor"},
		Rows: [][]any{
			{"Avaliações", d.Summary.Evaluations},
			{"Funcionários avaliados", d.Summary.Employees},
			{"Média geral", d.Summary.Average},
			{"Destaques", d.Summary.Highlights},
			{"Avaliações sem vínculo", d.Summary.Unresolved},
			{},
			{"Período", "Avaliações", "Média"},
		},
	}
	for _, p := range d.Periods {
		s.Rows = append(s.Rows, []any{p.Label, p.Count, p.Average})
	}
	return s
}

func rankingSection(ranking []analytics.RankEntry) section {
	s := section{
		Title:  "Ranking",
		Header: []string{"Posição", "Funcionário", "Setor", "Cargo", "Avaliações", "Média", "Top do período", "Destaques"},
	}
	for i, e := range ranking {
		s.Rows = append(s.Rows, []any{i + 1, e.Name, e.Sector, e.Role, e.Count, e.Average, e.TopPeriods, e.Highlights})
	}
	return s
}

func sectorSection(r analytics.Rollup) section {
	s := section{Title: "Setores", Header: []string{"Setor", "Avaliações", "Média"}}
	for _, g := range r.Groups {
		s.Rows = append(s.Rows, []any{g.Name, g.Count, g.Average})
	}
	s.Rows = append(s.Rows, []any{"Média geral", "", r.OverallAverage})
	return s
}

func matrixSection(m analytics.Matrix, gaps []analytics.Gap) section {
	header := append([]string{"Critério"}, m.Sectors...)
	s := section{Title: "Competências", Header: append(header, "Média", "Lacuna")}
	gapOf := make(map[string]float64, len(gaps))
	for _, g := range gaps {
		gapOf[g.Criterion] = g.Gap
	}
	for _, row := range m.Rows {
		cells := make(map[string]float64, len(row.Cells))
		for _, c := range row.Cells {
			cells[c.Sector] = c.Average
		}
		line := []any{row.Criterion}
		for _, sector := range m.Sectors {
			if v, ok := cells[sector]; ok {
				line = append(line, v)
			} else {
				line = append(line, "")
			}
		}
		s.Rows = append(s.Rows, append(line, row.Average, gapOf[row.Criterion]))
	}
	return s
}

func seriesSection(series analytics.Series) section {
	s := section{Title: "Evolução", Header: []string{"Data"}}
	for _, line := range series.Lines {
		s.Header = append(s.Header, line.Name)
	}
	for i, date := range series.Dates {
		row := []any{date}
		for _, line := range series.Lines {
			row = append(row, line.Values[i])
		}
		s.Rows = append(s.Rows, row)
	}
	return s
}

func comparativeSection(rows []analytics.Comparative) section {
	s := section{
		Title:  "Comparativo",
		Header: []string{"Funcionário", "Setor", "Período", "Nota", "Média do setor", "Média da empresa", "Classificação", "Meta"},
	}
	for _, c := range rows {
		s.Rows = append(s.Rows, []any{c.Name, c.Sector, c.Period, c.Score, c.SectorAverage, c.CompanyAverage, tierLabels[c.Tier], c.Target})
	}
	return s
}
