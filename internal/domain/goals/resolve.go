package goals

import (
	"math"

	"perfeval/internal/platform/textnorm"
)

// Scope names the most specific field combination a goal sets.
func (g Goal) Scope() string {
	switch {
	case g.Sector != "" && g.Role != "":
		return ScopeSectorRole
	case g.Sector != "":
		return ScopeSector
	case g.Role != "":
		return ScopeRole
	case g.Level != "":
		return ScopeLevel
	default:
		return ScopeCompany
	}
}

func (g Goal) matches(sector, role, level string) bool {
	if g.Sector != "" && !textnorm.Equal(g.Sector, sector) {
		return false
	}
	if g.Role != "" && !textnorm.Equal(g.Role, role) {
		return false
	}
	if g.Level != "" && g.Level != level {
		return false
	}
	return true
}

// Resolve picks the most specific matching goal:
// sector+role > sector > role > level > company-wide > DefaultTarget.
// Among goals of equal specificity the first in the slice wins.
func Resolve(goals []Goal, sector, role, level string) Resolution {
	best := -1
	bestRank := 0
	for i, g := range goals {
		if !g.matches(sector, role, level) {
			continue
		}
		rank := specificity[g.Scope()]
		if rank > bestRank {
			best, bestRank = i, rank
		}
	}
	if best < 0 {
		return Resolution{Target: DefaultTarget, Scope: ScopeDefault}
	}
	g := goals[best]
	return Resolution{Target: g.Target, Scope: g.Scope(), GoalID: g.ID}
}

func clampTarget(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 10 {
		return 10
	}
	return v
}
