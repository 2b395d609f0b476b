package employees

import "perfeval/internal/platform/textnorm"

const (
	StatusActive     = "active"
	StatusInactive   = "inactive"
	StatusOnLeave    = "on_leave"
	StatusOnVacation = "on_vacation"
)

var Statuses = []string{StatusActive, StatusInactive, StatusOnLeave, StatusOnVacation}

var StatusLabels = map[string]string{
	StatusActive:     "Ativo",
	StatusInactive:   "Inativo",
	StatusOnLeave:    "Afastado",
	StatusOnVacation: "Férias",
}

var statusAliases = map[string]string{
	"active":      StatusActive,
	"ativo":       StatusActive,
	"inactive":    StatusInactive,
	"inativo":     StatusInactive,
	"desligado":   StatusInactive,
	"on_leave":    StatusOnLeave,
	"on leave":    StatusOnLeave,
	"afastado":    StatusOnLeave,
	"licenca":     StatusOnLeave,
	"on_vacation": StatusOnVacation,
	"on vacation": StatusOnVacation,
	"ferias":      StatusOnVacation,
	"de ferias":   StatusOnVacation,
}

func ParseStatus(raw string) (string, bool) {
	status, ok := statusAliases[textnorm.Key(raw)]
	return status, ok
}

const dateLayout = "2006-01-02"

// DefaultPhotoPixels bounds the longer photo side when no limit is configured.
const DefaultPhotoPixels = 512
