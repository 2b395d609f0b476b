package tenant

type Company struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	TaxID     string         `json:"taxId,omitempty"`
	Active    bool           `json:"active"`
	CreatedAt string         `json:"createdAt,omitempty"`
	UpdatedAt string         `json:"updatedAt,omitempty"`
	Extra     map[string]any `json:"-"`
}

func (c *Company) Extensions() map[string]any     { return c.Extra }
func (c *Company) SetExtensions(m map[string]any) { c.Extra = m }

type CompanyInput struct {
	Name   string         `json:"name" validate:"required,max=120"`
	TaxID  string         `json:"taxId" validate:"omitempty,max=32"`
	Active *bool          `json:"active"`
	Extra  map[string]any `json:"extra"`
}
