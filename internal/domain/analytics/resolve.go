package analytics

import (
	"perfeval/internal/domain/employees"
	"perfeval/internal/domain/evaluations"
	"perfeval/internal/platform/textnorm"
)

// Resolve joins every evaluation to an employee by id, then normalized code,
// then normalized name. Evaluations that match nobody get a placeholder built
// from their own snapshot, keyed by normalized name, so two spellings that
// normalize differently stay two people.
func Resolve(evals []evaluations.Evaluation, list []employees.Employee) []Row {
	index := employees.NewIndex(list)
	rows := make([]Row, 0, len(evals))
	for _, e := range evals {
		rows = append(rows, resolveOne(index, e))
	}
	return rows
}

func resolveOne(index *employees.Index, e evaluations.Evaluation) Row {
	row := Row{
		EvaluationID: e.ID,
		Scores:       cleanScores(e.Scores),
		Highlight:    e.Highlight,
	}
	row.Score = evaluationScore(e, row.Scores)
	if date, err := evaluations.ParseDate(e.Date); err == nil {
		row.Date = date
		row.HasDate = true
	}

	if employee, ok := index.Resolve(e.EmployeeID, e.EmployeeCode, e.EmployeeName); ok {
		row.Key = employeePrefix + employee.ID
		row.EmployeeID = employee.ID
		row.Name = employee.Name
		row.Code = employee.Code
		row.Sector = firstNonEmpty(employee.Sector, textnorm.Clean(e.Sector))
		row.Role = firstNonEmpty(employee.Role, textnorm.Clean(e.Role))
		row.Level = firstNonEmpty(e.Level, employee.Level)
		row.Status = employee.Status
		return row
	}

	row.Placeholder = true
	row.Name = labelOr(textnorm.Clean(e.EmployeeName))
	row.Code = textnorm.Clean(e.EmployeeCode)
	row.Sector = textnorm.Clean(e.Sector)
	row.Role = textnorm.Clean(e.Role)
	row.Level = e.Level
	key := textnorm.Key(e.EmployeeName)
	if key == "" {
		key = "#" + e.ID
	}
	row.Key = placeholderPrefix + key
	return row
}

func cleanScores(in evaluations.Scores) map[string]float64 {
	out := make(map[string]float64, len(in))
	for name, v := range in {
		name = textnorm.Clean(name)
		if name == "" {
			continue
		}
		out[name] = evaluations.ClampScore(v)
	}
	return out
}

// evaluationScore prefers the stored average; records written without one
// fall back to the mean of their scores.
func evaluationScore(e evaluations.Evaluation, scores map[string]float64) float64 {
	score := evaluations.ClampScore(float64(e.Average))
	if score == 0 && len(scores) > 0 {
		score = evaluations.Average(scores)
	}
	return score
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
