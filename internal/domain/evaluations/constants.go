package evaluations

const (
	MaxScore = 10.0
	MinScore = 0.0

	// MaxBulkItems bounds one atomic bulk operation.
	MaxBulkItems = 400

	backfillChunk = 400

	EntityType = "evaluation"
)

const dateLayout = "2006-01-02"

var inputDateLayouts = []string{
	"2006-01-02",
	"2006-01",
	"02/01/2006",
	"01/2006",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02 15:04:05",
}
