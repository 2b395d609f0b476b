package analytics

const (
	MaxScore = 10.0

	// TopPerPeriod is how many employees of each period count toward the
	// top-of-period counter.
	TopPerPeriod = 5

	DefaultSeriesSize = 5

	placeholderPrefix = "name:"
	employeePrefix    = "emp:"
	periodLayout      = "2006-01"
	dateLayout        = "2006-01-02"

	Unassigned = "Não informado"
)

const (
	TierBelowCompany = "below_company"
	TierBelowSector  = "below_sector"
	TierAboveSector  = "above_sector"
)

var TierColors = map[string]string{
	TierBelowCompany: "#dc2626",
	TierBelowSector:  "#f59e0b",
	TierAboveSector:  "#16a34a",
}

// Sections names the dashboard parts that can be requested on their own.
var Sections = []string{"summary", "periods", "ranking", "sectors", "roles", "levels", "matrix", "gaps", "series", "comparatives"}
