package evaluations

type Evaluation struct {
	ID              string         `json:"id"`
	CompanyID       string         `json:"companyId"`
	EmployeeID      string         `json:"employeeId,omitempty"`
	EmployeeName    string         `json:"employeeName"`
	EmployeeCode    string         `json:"employeeCode,omitempty"`
	Sector          string         `json:"sector,omitempty"`
	Role            string         `json:"role,omitempty"`
	Level           string         `json:"level,omitempty"`
	Date            string         `json:"date"`
	Scores          Scores         `json:"scores"`
	Average         Number         `json:"average"`
	Observation     string         `json:"observation,omitempty"`
	Highlight       bool           `json:"highlight"`
	HighlightReason string         `json:"highlightReason,omitempty"`
	EvaluatorID     string         `json:"evaluatorId,omitempty"`
	CreatedAt       string         `json:"createdAt,omitempty"`
	UpdatedAt       string         `json:"updatedAt,omitempty"`
	Extra           map[string]any `json:"-"`
}

func (e *Evaluation) Extensions() map[string]any     { return e.Extra }
func (e *Evaluation) SetExtensions(m map[string]any) { e.Extra = m }

type EvaluationInput struct {
	EmployeeID      string             `json:"employeeId"`
	EmployeeName    string             `json:"employeeName" validate:"max=160"`
	Sector          string             `json:"sector" validate:"max=120"`
	Role            string             `json:"role" validate:"max=120"`
	Level           string             `json:"level"`
	Date            string             `json:"date" validate:"required"`
	Scores          map[string]float64 `json:"scores" validate:"required,min=1"`
	Observation     string             `json:"observation" validate:"max=2000"`
	Highlight       bool               `json:"highlight"`
	HighlightReason string             `json:"highlightReason" validate:"max=500"`
	Extra           map[string]any     `json:"extra"`
}

// ContentInput edits the mutable part of an evaluation. Nil fields are kept.
type ContentInput struct {
	Scores          map[string]float64 `json:"scores"`
	Observation     *string            `json:"observation" validate:"omitempty,max=2000"`
	Highlight       *bool              `json:"highlight"`
	HighlightReason *string            `json:"highlightReason" validate:"omitempty,max=500"`
	Level           *string            `json:"level"`
	Extra           map[string]any     `json:"extra"`
}

type Filter struct {
	EmployeeID string
	Sector     string
	Level      string
	Date       string
}

type BackfillReport struct {
	Scanned    int      `json:"scanned"`
	Linked     int      `json:"linked"`
	Already    int      `json:"already"`
	Unresolved []string `json:"unresolved"`
	DryRun     bool     `json:"dryRun"`
}
