package audit

const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
	ActionView   = "view"
	ActionExport = "export"
	ActionImport = "import"
)

var Actions = []string{ActionCreate, ActionUpdate, ActionDelete, ActionView, ActionExport, ActionImport}

// Change is one field-level difference between the before and after states.
type Change struct {
	Field  string `json:"field"`
	Before any    `json:"before,omitempty"`
	After  any    `json:"after,omitempty"`
}

type Entry struct {
	ID         string   `json:"id"`
	CompanyID  string   `json:"companyId"`
	ActorID    string   `json:"actorId"`
	Action     string   `json:"action"`
	EntityType string   `json:"entityType"`
	EntityID   string   `json:"entityId"`
	Changes    []Change `json:"changes,omitempty"`
	RequestID  string   `json:"requestId,omitempty"`
	IP         string   `json:"ip,omitempty"`
	CreatedAt  string   `json:"createdAt"`
}

type Filter struct {
	Action     string
	EntityType string
	EntityID   string
	ActorID    string
}
