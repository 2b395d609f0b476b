package analytics

import (
	"fmt"
	"reflect"
	"testing"

	"perfeval/internal/domain/employees"
	"perfeval/internal/domain/evaluations"
	"perfeval/internal/domain/goals"
)

func eval(id, employeeID, name, sector, date string, avg float64, scores map[string]float64) evaluations.Evaluation {
	return evaluations.Evaluation{
		ID:           id,
		EmployeeID:   employeeID,
		EmployeeName: name,
		Sector:       sector,
		Date:         date,
		Scores:       scores,
		Average:      evaluations.Number(avg),
	}
}

func TestEndToEndSingleEmployee(t *testing.T) {
	in := Input{
		Employees: []employees.Employee{{ID: "e1", Name: "Ana", Sector: "Sales", Status: employees.StatusActive}},
		Evaluations: []evaluations.Evaluation{
			eval("v1", "e1", "Ana", "Sales", "2025-01-01", 9, map[string]float64{"a": 9}),
			eval("v2", "", "ana", "Sales", "2025-02-01", 7, map[string]float64{"a": 7}),
			eval("v3", "e1", "Ana", "Sales", "2025-03-01", 8, map[string]float64{"a": 8}),
		},
	}
	d := Build("c1", in, Filter{})

	if len(d.Periods) != 3 {
		t.Fatalf("expected 3 periods, got %+v", d.Periods)
	}
	for _, p := range d.Periods {
		if p.Count != 1 {
			t.Fatalf("expected one evaluation per period, got %+v", p)
		}
	}
	if d.Periods[0].Key != "2025-03" || d.Periods[0].Label != "março de 2025" {
		t.Fatalf("periods must be newest first, got %+v", d.Periods[0])
	}
	if len(d.Ranking) != 1 || d.Ranking[0].Name != "Ana" || d.Ranking[0].Average != 8 || d.Ranking[0].Count != 3 {
		t.Fatalf("unexpected ranking: %+v", d.Ranking)
	}
	if len(d.Ranking[0].History) != 3 || d.Ranking[0].History[0].Score != 9 {
		t.Fatalf("unexpected history: %+v", d.Ranking[0].History)
	}
	if len(d.Series.Lines) != 1 {
		t.Fatalf("expected one series line, got %+v", d.Series)
	}
	if got := d.Series.Lines[0].Values; !reflect.DeepEqual(got, []float64{9, 16, 24}) {
		t.Fatalf("unexpected cumulative series: %v", got)
	}
	if d.Summary.Evaluations != 3 || d.Summary.Employees != 1 || d.Summary.Average != 8 {
		t.Fatalf("unexpected summary: %+v", d.Summary)
	}
}

func TestPeriodCountsMatchDatedRows(t *testing.T) {
	in := Input{Evaluations: []evaluations.Evaluation{
		eval("v1", "", "A", "", "2025-01-01", 5, nil),
		eval("v2", "", "B", "", "2025-01-01", 7, nil),
		eval("v3", "", "C", "", "", 9, nil),
		eval("v4", "", "D", "", "not a date", 9, nil),
		eval("v5", "", "E", "", "2024-12-01", 3, nil),
	}}
	periods := Periods(Resolve(in.Evaluations, nil), "")
	total := 0
	for _, p := range periods {
		total += p.Count
	}
	if total != 3 || len(periods) != 2 {
		t.Fatalf("expected 3 dated rows in 2 periods, got %d in %+v", total, periods)
	}
	if periods[0].Average != 6 {
		t.Fatalf("expected january mean 6, got %v", periods[0].Average)
	}
	if label := Periods(Resolve(in.Evaluations, nil), "en-US")[1].Label; label != "December 2024" {
		t.Fatalf("unexpected english label %q", label)
	}
}

func TestRankingOrderAndTopPeriods(t *testing.T) {
	var evals []evaluations.Evaluation
	for i := 0; i < 6; i++ {
		name := fmt.Sprintf("Pessoa %d", i)
		evals = append(evals, eval(fmt.Sprintf("v%d", i), "", name, "", "2025-05-01", float64(10-i), nil))
	}
	evals = append(evals, eval("tie", "", "Pessoa 9", "", "", 10, nil))

	ranking := Rank(Resolve(evals, nil), "")
	for i := 1; i < len(ranking); i++ {
		if ranking[i].Average > ranking[i-1].Average {
			t.Fatalf("ranking not sorted at %d: %+v", i, ranking)
		}
	}
	if ranking[0].Name != "Pessoa 0" || ranking[1].Name != "Pessoa 9" {
		t.Fatalf("ties must keep first-seen order, got %s, %s", ranking[0].Name, ranking[1].Name)
	}
	top := map[string]int{}
	for _, e := range ranking {
		top[e.Name] = e.TopPeriods
		if e.Count > 0 && e.Average != mean(e.Sum, e.Count) {
			t.Fatalf("mean must equal sum/count for %+v", e)
		}
	}
	if top["Pessoa 4"] != 1 || top["Pessoa 5"] != 0 || top["Pessoa 9"] != 0 {
		t.Fatalf("unexpected top-of-period counters: %+v", top)
	}
}

func TestMatrixRowAverageIsUnweighted(t *testing.T) {
	evals := []evaluations.Evaluation{
		eval("v1", "", "A", "Vendas", "2025-01-01", 10, map[string]float64{"Comunicação": 10}),
		eval("v2", "", "B", "Vendas", "2025-01-01", 10, map[string]float64{"Comunicação": 10}),
		eval("v3", "", "C", "Vendas", "2025-01-01", 10, map[string]float64{"Comunicação": 10}),
		eval("v4", "", "D", "Financeiro", "2025-01-01", 4, map[string]float64{"Comunicação": 4, "Ética": 6}),
	}
	m := BuildMatrix(Resolve(evals, nil))
	if !reflect.DeepEqual(m.Sectors, []string{"Financeiro", "Vendas"}) {
		t.Fatalf("unexpected sectors: %v", m.Sectors)
	}
	if len(m.Rows) != 2 || m.Rows[0].Criterion != "Comunicação" {
		t.Fatalf("unexpected rows: %+v", m.Rows)
	}
	if m.Rows[0].Average != 7 {
		t.Fatalf("expected unweighted mean 7, got %v", m.Rows[0].Average)
	}
	if len(m.Rows[1].Cells) != 1 || m.Rows[1].Average != 6 {
		t.Fatalf("missing cells must not count, got %+v", m.Rows[1])
	}

	gaps := Gaps(m)
	if gaps[0].Criterion != "Ética" || gaps[0].Gap != 4 || gaps[1].Gap != 3 {
		t.Fatalf("unexpected gaps: %+v", gaps)
	}
}

func TestCumulativeCarriesForward(t *testing.T) {
	evals := []evaluations.Evaluation{
		eval("v1", "", "Ana", "", "2025-01-01", 8, nil),
		eval("v2", "", "Bruno", "", "2025-02-01", 6, nil),
		eval("v3", "", "Ana", "", "2025-03-01", 7, nil),
	}
	rows := Resolve(evals, nil)
	s := Cumulative(rows, []string{"name:ana", "name:bruno"})
	if !reflect.DeepEqual(s.Dates, []string{"2025-01-01", "2025-02-01", "2025-03-01"}) {
		t.Fatalf("unexpected dates: %v", s.Dates)
	}
	if !reflect.DeepEqual(s.Lines[0].Values, []float64{8, 8, 15}) {
		t.Fatalf("ana must hold her total across the gap, got %v", s.Lines[0].Values)
	}
	if !reflect.DeepEqual(s.Lines[1].Values, []float64{0, 6, 6}) {
		t.Fatalf("unexpected bruno line: %v", s.Lines[1].Values)
	}
}

func TestResolutionOrderAndPlaceholders(t *testing.T) {
	list := []employees.Employee{
		{ID: "e1", Name: "Ana Souza", Code: "MAT-1", Sector: "RH"},
		{ID: "e2", Name: "Bruno", Sector: "TI"},
	}
	evals := []evaluations.Evaluation{
		{ID: "v1", EmployeeID: "e2", EmployeeName: "Ana Souza"},
		{ID: "v2", EmployeeCode: "mat 1", EmployeeName: "Outro"},
		{ID: "v3", EmployeeName: " ANA  souza"},
		{ID: "v4", EmployeeName: "Fantasma", Sector: "Obras"},
		{ID: "v5", EmployeeName: "fantasmá"},
		{ID: "v6"},
	}
	rows := Resolve(evals, list)
	want := []string{"emp:e2", "emp:e1", "emp:e1", "name:fantasma", "name:fantasma", "name:#v6"}
	for i, r := range rows {
		if r.Key != want[i] {
			t.Fatalf("row %d: key %q, want %q", i, r.Key, want[i])
		}
	}
	if !rows[3].Placeholder || rows[3].Sector != "Obras" || rows[0].Sector != "TI" {
		t.Fatalf("unexpected placeholder rows: %+v", rows[3])
	}
	if !reflect.DeepEqual(rows, Resolve(evals, list)) {
		t.Fatal("resolution must be stable")
	}
}

func TestMalformedValuesCoerceToZero(t *testing.T) {
	evals := []evaluations.Evaluation{
		{ID: "v1", EmployeeName: "A", Date: "2025-01-01", Scores: evaluations.Scores{"x": 4, "y": 6}},
		{ID: "v2", EmployeeName: "B", Date: "2025-01-01", Average: 42},
	}
	rows := Resolve(evals, nil)
	if rows[0].Score != 5 {
		t.Fatalf("missing average must fall back to the score mean, got %v", rows[0].Score)
	}
	if rows[1].Score != 10 {
		t.Fatalf("out-of-range average must clamp, got %v", rows[1].Score)
	}
}

func TestComparativeTiers(t *testing.T) {
	cases := []struct {
		score, sector, company float64
		want                   string
	}{
		{5, 8, 6, TierBelowCompany},
		{7, 8, 6, TierBelowSector},
		{8, 8, 6, TierAboveSector},
		{9, 8, 9.5, TierBelowCompany},
	}
	for _, c := range cases {
		if got := Classify(c.score, c.sector, c.company); got != c.want {
			t.Fatalf("Classify(%v, %v, %v) = %s, want %s", c.score, c.sector, c.company, got, c.want)
		}
	}

	evals := []evaluations.Evaluation{
		eval("v1", "", "A", "Vendas", "2025-01-01", 9, nil),
		eval("v2", "", "B", "Vendas", "2025-02-01", 7, nil),
		eval("v3", "", "C", "TI", "2025-02-01", 5, nil),
	}
	target := 8.5
	resolved := Resolve(evals, nil)
	rows := Compare(resolved, resolved, []goals.Goal{{ID: "g1", Sector: "Vendas", Target: target}})
	if rows[0].Period != "2025-02" || rows[2].EvaluationID != "v1" {
		t.Fatalf("comparatives must be newest first, got %+v", rows)
	}
	byID := map[string]Comparative{}
	for _, r := range rows {
		byID[r.EvaluationID] = r
	}
	if byID["v1"].SectorAverage != 8 || byID["v1"].CompanyAverage != 7 {
		t.Fatalf("unexpected averages: %+v", byID["v1"])
	}
	if byID["v1"].Tier != TierAboveSector || byID["v2"].Tier != TierBelowSector || byID["v3"].Tier != TierBelowCompany {
		t.Fatalf("unexpected tiers: %+v", rows)
	}
	if byID["v1"].Color != TierColors[TierAboveSector] || !byID["v1"].MeetsTarget || byID["v2"].MeetsTarget {
		t.Fatalf("unexpected color or target: %+v", byID["v1"])
	}
	if byID["v3"].Target != goals.DefaultTarget {
		t.Fatalf("unmatched sector must use default target, got %v", byID["v3"].Target)
	}
}

func TestRollupOverallIsMeanOfMeans(t *testing.T) {
	evals := []evaluations.Evaluation{
		eval("v1", "", "A", "Vendas", "2025-01-01", 10, nil),
		eval("v2", "", "B", "Vendas", "2025-01-01", 10, nil),
		eval("v3", "", "C", "Vendas", "2025-01-01", 10, nil),
		eval("v4", "", "D", "", "2025-01-01", 4, nil),
	}
	r := RollupBy(Resolve(evals, nil), BySector)
	if len(r.Groups) != 2 || r.Groups[0].Name != "Vendas" || r.Groups[1].Name != Unassigned {
		t.Fatalf("unexpected groups: %+v", r.Groups)
	}
	if r.OverallAverage != 7 {
		t.Fatalf("expected overall 7, got %v", r.OverallAverage)
	}
}

func TestFilterAndDeterminism(t *testing.T) {
	in := Input{
		Employees: []employees.Employee{
			{ID: "e1", Name: "Ana", Sector: "Vendas", Level: "tactical", Status: employees.StatusActive},
			{ID: "e2", Name: "Bruno", Sector: "TI", Status: employees.StatusInactive},
		},
		Evaluations: []evaluations.Evaluation{
			eval("v1", "e1", "Ana", "", "2025-01-01", 9, map[string]float64{"a": 9, "b": 9}),
			eval("v2", "e2", "Bruno", "", "2025-02-01", 6, map[string]float64{"a": 6}),
			eval("v3", "e1", "Ana", "", "2025-04-01", 7, map[string]float64{"b": 7}),
			eval("v4", "", "Sem data", "", "", 5, nil),
		},
	}
	f, err := Filter{From: "2025-01", To: "2025-03-20", Status: "ativo"}.Normalize()
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	d := Build("c1", in, f)
	if d.Summary.Evaluations != 1 || d.Ranking[0].Name != "Ana" {
		t.Fatalf("unexpected filtered dashboard: %+v", d.Summary)
	}
	if _, err := (Filter{From: "2025-05", To: "2025-01"}).Normalize(); err != ErrInvalidRange {
		t.Fatalf("expected invalid range, got %v", err)
	}
	if _, err := (Filter{Level: "nope"}).Normalize(); err != ErrInvalidLevel {
		t.Fatalf("expected invalid level, got %v", err)
	}

	all := Build("c1", in, Filter{})
	if !reflect.DeepEqual(all, Build("c1", in, Filter{})) {
		t.Fatal("identical inputs must yield identical dashboards")
	}
	section, err := all.Section("ranking")
	if err != nil || len(section.([]RankEntry)) != 3 {
		t.Fatalf("unexpected section: %v, %v", section, err)
	}
	if _, err := all.Section("radar"); err != ErrUnknownSection {
		t.Fatalf("expected unknown section, got %v", err)
	}
}

func TestComparativeBaselinesIgnoreFilter(t *testing.T) {
	in := Input{
		Employees: []employees.Employee{
			{ID: "e1", Name: "Ana", Sector: "Vendas", Status: employees.StatusActive},
			{ID: "e2", Name: "Bruno", Sector: "Vendas", Status: employees.StatusActive},
			{ID: "e3", Name: "Caio", Sector: "TI", Status: employees.StatusActive},
		},
		Evaluations: []evaluations.Evaluation{
			eval("v1", "e1", "Ana", "", "2025-01-01", 9, nil),
			eval("v2", "e1", "Ana", "", "2025-02-01", 7, nil),
			eval("v3", "e1", "Ana", "", "2025-03-01", 8, nil),
			eval("v4", "e2", "Bruno", "", "2025-01-01", 10, nil),
			eval("v5", "e3", "Caio", "", "2025-02-01", 2, nil),
		},
	}

	d := Build("c1", in, Filter{EmployeeID: "e1"})
	if len(d.Comparatives) != 3 {
		t.Fatalf("expected 3 comparatives for Ana, got %d", len(d.Comparatives))
	}
	tiers := map[string]string{}
	for _, c := range d.Comparatives {
		if c.CompanyAverage != 7.2 || c.SectorAverage != 8.5 {
			t.Fatalf("averages must cover every employee, got company %v sector %v", c.CompanyAverage, c.SectorAverage)
		}
		tiers[c.EvaluationID] = c.Tier
	}
	if tiers["v1"] != TierAboveSector || tiers["v2"] != TierBelowCompany || tiers["v3"] != TierBelowSector {
		t.Fatalf("unexpected tiers: %+v", tiers)
	}

	f, err := Filter{From: "2025-02", To: "2025-02"}.Normalize()
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	d = Build("c1", in, f)
	if len(d.Comparatives) != 2 {
		t.Fatalf("expected 2 comparatives in February, got %d", len(d.Comparatives))
	}
	for _, c := range d.Comparatives {
		if c.CompanyAverage != 7.2 {
			t.Fatalf("company average must not be limited to the period, got %v", c.CompanyAverage)
		}
		if c.EvaluationID == "v2" && c.SectorAverage != 8.5 {
			t.Fatalf("sector average must not be limited to the period, got %v", c.SectorAverage)
		}
	}
}
