package goals

type Goal struct {
	ID          string         `json:"id"`
	CompanyID   string         `json:"companyId"`
	Sector      string         `json:"sector,omitempty"`
	Role        string         `json:"role,omitempty"`
	Level       string         `json:"level,omitempty"`
	Target      float64        `json:"target"`
	Description string         `json:"description,omitempty"`
	CreatedAt   string         `json:"createdAt,omitempty"`
	UpdatedAt   string         `json:"updatedAt,omitempty"`
	Extra       map[string]any `json:"-"`
}

func (g *Goal) Extensions() map[string]any     { return g.Extra }
func (g *Goal) SetExtensions(m map[string]any) { g.Extra = m }

type GoalInput struct {
	Sector      string         `json:"sector" validate:"max=120"`
	Role        string         `json:"role" validate:"max=120"`
	Level       string         `json:"level"`
	Target      *float64       `json:"target" validate:"required"`
	Description string         `json:"description" validate:"max=500"`
	Extra       map[string]any `json:"extra"`
}

// Resolution is the target that applies to a sector/role/level combination.
// GoalID is empty when the default was used.
type Resolution struct {
	Target float64 `json:"target"`
	Scope  string  `json:"scope"`
	GoalID string  `json:"goalId,omitempty"`
}
