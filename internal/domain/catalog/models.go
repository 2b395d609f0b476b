package catalog

type Sector struct {
	ID          string         `json:"id"`
	CompanyID   string         `json:"companyId"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	CreatedAt   string         `json:"createdAt,omitempty"`
	UpdatedAt   string         `json:"updatedAt,omitempty"`
	Extra       map[string]any `json:"-"`
}

func (s *Sector) Extensions() map[string]any     { return s.Extra }
func (s *Sector) SetExtensions(m map[string]any) { s.Extra = m }

type Role struct {
	ID        string         `json:"id"`
	CompanyID string         `json:"companyId"`
	Name      string         `json:"name"`
	Level     string         `json:"level,omitempty"`
	CreatedAt string         `json:"createdAt,omitempty"`
	UpdatedAt string         `json:"updatedAt,omitempty"`
	Extra     map[string]any `json:"-"`
}

func (r *Role) Extensions() map[string]any     { return r.Extra }
func (r *Role) SetExtensions(m map[string]any) { r.Extra = m }

// Criterion is global. An empty CompanyIDs list shares it with every company.
type Criterion struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Level       string         `json:"level"`
	Description string         `json:"description,omitempty"`
	CompanyIDs  []string       `json:"companyIds"`
	CreatedAt   string         `json:"createdAt,omitempty"`
	UpdatedAt   string         `json:"updatedAt,omitempty"`
	Extra       map[string]any `json:"-"`
}

func (c *Criterion) Extensions() map[string]any     { return c.Extra }
func (c *Criterion) SetExtensions(m map[string]any) { c.Extra = m }

func (c Criterion) Shared() bool {
	return len(c.CompanyIDs) == 0
}

type SectorInput struct {
	Name        string         `json:"name" validate:"required,max=120"`
	Description string         `json:"description" validate:"max=500"`
	Extra       map[string]any `json:"extra"`
}

type RoleInput struct {
	Name  string         `json:"name" validate:"required,max=120"`
	Level string         `json:"level"`
	Extra map[string]any `json:"extra"`
}

type CriterionInput struct {
	Name        string         `json:"name" validate:"required,max=160"`
	Level       string         `json:"level" validate:"required"`
	Description string         `json:"description" validate:"max=1000"`
	CompanyIDs  []string       `json:"companyIds"`
	Extra       map[string]any `json:"extra"`
}
