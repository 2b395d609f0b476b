package employees

type Employee struct {
	ID              string         `json:"id"`
	CompanyID       string         `json:"companyId"`
	Name            string         `json:"name"`
	Code            string         `json:"code,omitempty"`
	Sector          string         `json:"sector,omitempty"`
	Role            string         `json:"role,omitempty"`
	Level           string         `json:"level,omitempty"`
	Status          string         `json:"status"`
	AdmissionDate   string         `json:"admissionDate,omitempty"`
	TerminationDate string         `json:"terminationDate,omitempty"`
	Profile         string         `json:"profile,omitempty"`
	PhotoKey        string         `json:"photoKey,omitempty"`
	CreatedAt       string         `json:"createdAt,omitempty"`
	UpdatedAt       string         `json:"updatedAt,omitempty"`
	Extra           map[string]any `json:"-"`
}

func (e *Employee) Extensions() map[string]any     { return e.Extra }
func (e *Employee) SetExtensions(m map[string]any) { e.Extra = m }

type EmployeeInput struct {
	Name            string         `json:"name" validate:"required,max=160"`
	Code            string         `json:"code" validate:"max=40"`
	Sector          string         `json:"sector" validate:"max=120"`
	Role            string         `json:"role" validate:"max=120"`
	Level           string         `json:"level"`
	Status          string         `json:"status"`
	AdmissionDate   string         `json:"admissionDate"`
	TerminationDate string         `json:"terminationDate"`
	Profile         string         `json:"profile" validate:"max=60"`
	Extra           map[string]any `json:"extra"`
}

type Filter struct {
	Status string
	Sector string
	Role   string
}
