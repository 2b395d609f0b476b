package catalog

import "perfeval/internal/platform/textnorm"

const (
	LevelStrategic    = "strategic"
	LevelTactical     = "tactical"
	LevelOperational  = "operational"
	LevelCollaborator = "collaborator"
	LevelLeader       = "leader"
)

var Levels = []string{LevelStrategic, LevelTactical, LevelOperational, LevelCollaborator, LevelLeader}

// LevelLabels are the pt-BR names used on screens, imports and reports.
var LevelLabels = map[string]string{
	LevelStrategic:    "Estratégico",
	LevelTactical:     "Tático",
	LevelOperational:  "Operacional",
	LevelCollaborator: "Colaborador",
	LevelLeader:       "Líder",
}

var levelAliases = map[string]string{
	"strategic":    LevelStrategic,
	"estrategico":  LevelStrategic,
	"tactical":     LevelTactical,
	"tatico":       LevelTactical,
	"operational":  LevelOperational,
	"operacional":  LevelOperational,
	"collaborator": LevelCollaborator,
	"colaborador":  LevelCollaborator,
	"leader":       LevelLeader,
	"lider":        LevelLeader,
	"lideranca":    LevelLeader,
}

// ParseLevel accepts a level code or its label in either language, ignoring
// case and accents.
func ParseLevel(raw string) (string, bool) {
	level, ok := levelAliases[textnorm.Key(raw)]
	return level, ok
}

func LevelLabel(level string) string {
	if label, ok := LevelLabels[level]; ok {
		return label
	}
	return level
}
