package transfer

// Record is one data row keyed by field name. Line is the 1-based line in
// the source file, header included.
type Record struct {
	Line   int
	Fields map[string]string
	// Extra holds unmapped columns by their original header; for
	// evaluations these are criterion scores.
	Extra map[string]string
}

type Issue struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

type Report struct {
	Target   string  `json:"target"`
	DryRun   bool    `json:"dryRun"`
	Rows     int     `json:"rows"`
	Imported int     `json:"imported"`
	Skipped  int     `json:"skipped"`
	Issues   []Issue `json:"issues"`
}

type Options struct {
	Target string
	Format string
	DryRun bool
}
