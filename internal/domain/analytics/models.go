package analytics

import "time"

// Row is one evaluation joined to its resolved employee. Every other stage of
// the pipeline works on rows.
type Row struct {
	Key          string
	EvaluationID string
	EmployeeID   string
	Name         string
	Code         string
	Sector       string
	Role         string
	Level        string
	Status       string
	Placeholder  bool
	Date         time.Time
	HasDate      bool
	Score        float64
	Scores       map[string]float64
	Highlight    bool
}

// PeriodKey is the YYYY-MM key of a dated row.
func (r Row) PeriodKey() string {
	if !r.HasDate {
		return ""
	}
	return r.Date.Format(periodLayout)
}

type Period struct {
	Key     string  `json:"key"`
	Label   string  `json:"label"`
	Count   int     `json:"count"`
	Average float64 `json:"average"`
}

type Point struct {
	Period string  `json:"period"`
	Label  string  `json:"label"`
	Score  float64 `json:"score"`
}

type RankEntry struct {
	Key         string  `json:"key"`
	EmployeeID  string  `json:"employeeId,omitempty"`
	Name        string  `json:"name"`
	Code        string  `json:"code,omitempty"`
	Sector      string  `json:"sector,omitempty"`
	Role        string  `json:"role,omitempty"`
	Level       string  `json:"level,omitempty"`
	Placeholder bool    `json:"placeholder,omitempty"`
	Sum         float64 `json:"sum"`
	Count       int     `json:"count"`
	Average     float64 `json:"average"`
	History     []Point `json:"history"`
	TopPeriods  int     `json:"topPeriods"`
	Highlights  int     `json:"highlights"`
}

type Group struct {
	Name    string  `json:"name"`
	Count   int     `json:"count"`
	Average float64 `json:"average"`
}

// Rollup is a set of groups plus the unweighted mean of the group means.
type Rollup struct {
	Groups         []Group `json:"groups"`
	OverallAverage float64 `json:"overallAverage"`
}

type Cell struct {
	Sector  string  `json:"sector"`
	Count   int     `json:"count"`
	Average float64 `json:"average"`
}

type MatrixRow struct {
	Criterion string  `json:"criterion"`
	Cells     []Cell  `json:"cells"`
	Average   float64 `json:"average"`
}

// Matrix cross-tabulates criterion by sector. Cells only exist where the
// sector has at least one score for the criterion.
type Matrix struct {
	Sectors []string    `json:"sectors"`
	Rows    []MatrixRow `json:"rows"`
}

type Gap struct {
	Criterion string  `json:"criterion"`
	Average   float64 `json:"average"`
	Gap       float64 `json:"gap"`
}

type Line struct {
	Key    string    `json:"key"`
	Name   string    `json:"name"`
	Values []float64 `json:"values"`
}

// Series holds one cumulative line per employee over a shared date axis.
type Series struct {
	Dates []string `json:"dates"`
	Lines []Line   `json:"lines"`
}

type Comparative struct {
	EvaluationID   string  `json:"evaluationId"`
	Key            string  `json:"key"`
	Name           string  `json:"name"`
	Sector         string  `json:"sector,omitempty"`
	Period         string  `json:"period,omitempty"`
	Score          float64 `json:"score"`
	SectorAverage  float64 `json:"sectorAverage"`
	CompanyAverage float64 `json:"companyAverage"`
	Tier           string  `json:"tier"`
	Color          string  `json:"color"`
	Target         float64 `json:"target"`
	MeetsTarget    bool    `json:"meetsTarget"`
}

type Summary struct {
	Evaluations int     `json:"evaluations"`
	Employees   int     `json:"employees"`
	Average     float64 `json:"average"`
	Highlights  int     `json:"highlights"`
	Unresolved  int     `json:"unresolved"`
}

// Filter narrows the rows a dashboard is built from. From and To are
// inclusive YYYY-MM bounds; a range excludes undated rows.
type Filter struct {
	From       string `json:"from,omitempty"`
	To         string `json:"to,omitempty"`
	Sector     string `json:"sector,omitempty"`
	Role       string `json:"role,omitempty"`
	Level      string `json:"level,omitempty"`
	Status     string `json:"status,omitempty"`
	EmployeeID string `json:"employeeId,omitempty"`
	Top        int    `json:"top,omitempty"`
	Locale     string `json:"locale,omitempty"`
}

type Dashboard struct {
	CompanyID    string        `json:"companyId"`
	Filter       Filter        `json:"filter"`
	Summary      Summary       `json:"summary"`
	Periods      []Period      `json:"periods"`
	Ranking      []RankEntry   `json:"ranking"`
	Sectors      Rollup        `json:"sectors"`
	Roles        Rollup        `json:"roles"`
	Levels       Rollup        `json:"levels"`
	Matrix       Matrix        `json:"matrix"`
	Gaps         []Gap         `json:"gaps"`
	Series       Series        `json:"series"`
	Comparatives []Comparative `json:"comparatives"`
}
