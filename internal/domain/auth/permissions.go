package auth

import "context"

const (
	PermEmployeesRead    = "employees.read"
	PermEmployeesWrite   = "employees.write"
	PermEvaluationsRead  = "evaluations.read"
	PermEvaluationsWrite = "evaluations.write"
	PermEvaluationsBulk  = "evaluations.bulk"
	PermCatalogRead      = "catalog.read"
	PermCatalogWrite     = "catalog.write"
	PermGoalsRead        = "goals.read"
	PermGoalsWrite       = "goals.write"
	PermAnalyticsRead    = "analytics.read"
	PermTransferImport   = "transfer.import"
	PermTransferExport   = "transfer.export"
	PermAuditRead        = "audit.read"
	PermCompaniesAdmin   = "companies.admin"
	PermUsersAdmin       = "users.admin"
	PermJobsRead         = "jobs.read"
)

var DefaultPermissions = []string{
	PermEmployeesRead,
	PermEmployeesWrite,
	PermEvaluationsRead,
	PermEvaluationsWrite,
	PermEvaluationsBulk,
	PermCatalogRead,
	PermCatalogWrite,
	PermGoalsRead,
	PermGoalsWrite,
	PermAnalyticsRead,
	PermTransferImport,
	PermTransferExport,
	PermAuditRead,
	PermCompaniesAdmin,
	PermUsersAdmin,
	PermJobsRead,
}

var RolePermissions = map[string][]string{
	RoleViewer: {
		PermEmployeesRead,
		PermEvaluationsRead,
		PermCatalogRead,
		PermGoalsRead,
		PermAnalyticsRead,
	},
	RoleEvaluator: {
		PermEmployeesRead,
		PermEvaluationsRead,
		PermEvaluationsWrite,
		PermCatalogRead,
		PermGoalsRead,
		PermAnalyticsRead,
		PermTransferExport,
	},
	RoleManager: {
		PermEmployeesRead,
		PermEmployeesWrite,
		PermEvaluationsRead,
		PermEvaluationsWrite,
		PermEvaluationsBulk,
		PermCatalogRead,
		PermCatalogWrite,
		PermGoalsRead,
		PermGoalsWrite,
		PermAnalyticsRead,
		PermTransferImport,
		PermTransferExport,
		PermAuditRead,
		PermJobsRead,
	},
	RoleAdmin: DefaultPermissions,
}

// RolePermissionStore answers permission checks from the static role table.
type RolePermissionStore struct{}

func (RolePermissionStore) HasPermission(ctx context.Context, role, permission string) (bool, error) {
	for _, perm := range RolePermissions[role] {
		if perm == permission {
			return true, nil
		}
	}
	return false, nil
}
