package goals

const DefaultTarget = 9.0

const (
	ScopeSectorRole = "sector_role"
	ScopeSector     = "sector"
	ScopeRole       = "role"
	ScopeLevel      = "level"
	ScopeCompany    = "company"
	ScopeDefault    = "default"
)

// specificity ranks scopes; higher wins.
var specificity = map[string]int{
	ScopeSectorRole: 5,
	ScopeSector:     4,
	ScopeRole:       3,
	ScopeLevel:      2,
	ScopeCompany:    1,
}
