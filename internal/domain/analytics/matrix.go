package analytics

import (
	"sort"

	"perfeval/internal/platform/textnorm"
)

// BuildMatrix averages each criterion per sector. A row's Average is the
// mean of its cells, so a sector with one evaluation weighs as much as a
// sector with fifty.
func BuildMatrix(rows []Row) Matrix {
	cells := map[string]map[string]*accumulator{}
	sectors := map[string]bool{}
	for _, r := range rows {
		sector := labelOr(r.Sector)
		for criterion, v := range r.Scores {
			bySector, ok := cells[criterion]
			if !ok {
				bySector = map[string]*accumulator{}
				cells[criterion] = bySector
			}
			acc, ok := bySector[sector]
			if !ok {
				acc = &accumulator{}
				bySector[sector] = acc
			}
			acc.add(v)
			sectors[sector] = true
		}
	}

	out := Matrix{Sectors: sortNames(sectors)}
	criteria := map[string]bool{}
	for c := range cells {
		criteria[c] = true
	}
	for _, criterion := range sortNames(criteria) {
		row := MatrixRow{Criterion: criterion}
		var avg accumulator
		for _, sector := range out.Sectors {
			acc, ok := cells[criterion][sector]
			if !ok {
				continue
			}
			row.Cells = append(row.Cells, Cell{Sector: sector, Count: acc.count, Average: mean(acc.sum, acc.count)})
			avg.add(acc.mean())
		}
		row.Average = mean(avg.sum, avg.count)
		out.Rows = append(out.Rows, row)
	}
	return out
}

// Gaps orders criteria from weakest to strongest; Gap is the distance to the
// maximum score.
func Gaps(m Matrix) []Gap {
	out := make([]Gap, 0, len(m.Rows))
	for _, row := range m.Rows {
		out = append(out, Gap{Criterion: row.Criterion, Average: row.Average, Gap: round2(MaxScore - row.Average)})
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Average < out[b].Average })
	return out
}

// sortNames orders by accent-insensitive key, then raw text.
func sortNames(set map[string]bool) []string {
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Slice(names, func(a, b int) bool {
		ka, kb := textnorm.Key(names[a]), textnorm.Key(names[b])
		if ka != kb {
			return ka < kb
		}
		return names[a] < names[b]
	})
	return names
}
