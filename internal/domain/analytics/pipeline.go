package analytics

import (
	"perfeval/internal/domain/catalog"
	"perfeval/internal/domain/employees"
	"perfeval/internal/domain/evaluations"
	"perfeval/internal/domain/goals"
	"perfeval/internal/platform/textnorm"
)

// Input is everything the pipeline reads for one company.
type Input struct {
	Evaluations []evaluations.Evaluation
	Employees   []employees.Employee
	Goals       []goals.Goal
}

// Normalize validates the filter and rewrites its values to canonical form.
func (f Filter) Normalize() (Filter, error) {
	for _, bound := range []*string{&f.From, &f.To} {
		if *bound == "" {
			continue
		}
		date, err := evaluations.ParseDate(*bound)
		if err != nil {
			return f, ErrInvalidPeriod
		}
		*bound = date.Format(periodLayout)
	}
	if f.From != "" && f.To != "" && f.From > f.To {
		return f, ErrInvalidRange
	}
	if f.Level != "" {
		level, ok := catalog.ParseLevel(f.Level)
		if !ok {
			return f, ErrInvalidLevel
		}
		f.Level = level
	}
	if f.Status != "" {
		status, ok := employees.ParseStatus(f.Status)
		if !ok {
			return f, ErrInvalidStatus
		}
		f.Status = status
	}
	f.Sector = textnorm.Clean(f.Sector)
	f.Role = textnorm.Clean(f.Role)
	if f.Top < 0 {
		f.Top = 0
	}
	return f, nil
}

// Apply keeps the rows matching f. f must already be normalized.
func Apply(rows []Row, f Filter) []Row {
	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		if (f.From != "" || f.To != "") && !r.HasDate {
			continue
		}
		period := r.PeriodKey()
		if f.From != "" && period < f.From {
			continue
		}
		if f.To != "" && period > f.To {
			continue
		}
		if f.Sector != "" && !textnorm.Equal(r.Sector, f.Sector) {
			continue
		}
		if f.Role != "" && !textnorm.Equal(r.Role, f.Role) {
			continue
		}
		if f.Level != "" && r.Level != f.Level {
			continue
		}
		if f.Status != "" && r.Status != f.Status {
			continue
		}
		if f.EmployeeID != "" && r.EmployeeID != f.EmployeeID {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Build runs the whole pipeline. It is a pure function of its arguments.
func Build(companyID string, in Input, f Filter) Dashboard {
	all := Resolve(in.Evaluations, in.Employees)
	rows := Apply(all, f)
	ranking := Rank(rows, f.Locale)
	matrix := BuildMatrix(rows)
	return Dashboard{
		CompanyID:    companyID,
		Filter:       f,
		Summary:      Summarize(rows),
		Periods:      Periods(rows, f.Locale),
		Ranking:      ranking,
		Sectors:      RollupBy(rows, BySector),
		Roles:        RollupBy(rows, ByRole),
		Levels:       RollupBy(rows, ByLevel),
		Matrix:       matrix,
		Gaps:         Gaps(matrix),
		Series:       Cumulative(rows, TopKeys(ranking, f.Top)),
		Comparatives: Compare(all, rows, in.Goals),
	}
}

func Summarize(rows []Row) Summary {
	var s Summary
	var total accumulator
	keys := map[string]bool{}
	for _, r := range rows {
		total.add(r.Score)
		keys[r.Key] = true
		if r.Highlight {
			s.Highlights++
		}
		if r.Placeholder {
			s.Unresolved++
		}
	}
	s.Evaluations = total.count
	s.Employees = len(keys)
	s.Average = mean(total.sum, total.count)
	return s
}

// Section returns one named part of the dashboard.
func (d Dashboard) Section(name string) (any, error) {
	switch name {
	case "summary":
		return d.Summary, nil
	case "periods":
		return d.Periods, nil
	case "ranking":
		return d.Ranking, nil
	case "sectors":
		return d.Sectors, nil
	case "roles":
		return d.Roles, nil
	case "levels":
		return d.Levels, nil
	case "matrix":
		return d.Matrix, nil
	case "gaps":
		return d.Gaps, nil
	case "series":
		return d.Series, nil
	case "comparatives":
		return d.Comparatives, nil
	}
	return nil, ErrUnknownSection
}
