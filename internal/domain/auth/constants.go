package auth

const (
	RoleAdmin     = "admin"
	RoleManager   = "manager"
	RoleEvaluator = "evaluator"
	RoleViewer    = "viewer"
)

var Roles = []string{RoleAdmin, RoleManager, RoleEvaluator, RoleViewer}

const (
	UserStatusActive   = "active"
	UserStatusDisabled = "disabled"
)

const mfaIssuer = "PerfEval"
