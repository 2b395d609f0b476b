package transfer

const (
	TargetEmployees   = "employees"
	TargetEvaluations = "evaluations"
	TargetSectors     = "sectors"
	TargetRoles       = "roles"
	TargetCriteria    = "criteria"
)

var Targets = []string{TargetEmployees, TargetEvaluations, TargetSectors, TargetRoles, TargetCriteria}

const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
	FormatPDF  = "pdf"
)

const (
	DefaultBatchSize = 400
	// MaxBatchSize keeps one batch inside the store's transaction limits.
	MaxBatchSize = 500

	EntityType = "import"

	issueDuplicateInFile  = "duplicado no arquivo"
	issueDuplicateInStore = "já cadastrado"
)

const (
	fieldName            = "name"
	fieldCode            = "code"
	fieldSector          = "sector"
	fieldRole            = "role"
	fieldLevel           = "level"
	fieldStatus          = "status"
	fieldAdmissionDate   = "admissionDate"
	fieldTerminationDate = "terminationDate"
	fieldProfile         = "profile"
	fieldDescription     = "description"
	fieldEmployeeName    = "employeeName"
	fieldEmployeeCode    = "employeeCode"
	fieldDate            = "date"
	fieldObservation     = "observation"
	fieldHighlight       = "highlight"
	fieldHighlightReason = "highlightReason"
	fieldAverage         = "average"
	fieldCompanyIDs      = "companyIds"
)

// columnAliases maps normalized source column names (Portuguese first, with
// English fallbacks) to fields, per target.
var columnAliases = map[string]map[string]string{
	TargetEmployees: {
		"nome":                 fieldName,
		"nome completo":        fieldName,
		"funcionario":          fieldName,
		"colaborador":          fieldName,
		"name":                 fieldName,
		"matricula":            fieldCode,
		"codigo":               fieldCode,
		"code":                 fieldCode,
		"setor":                fieldSector,
		"departamento":         fieldSector,
		"sector":               fieldSector,
		"cargo":                fieldRole,
		"funcao":               fieldRole,
		"role":                 fieldRole,
		"nivel":                fieldLevel,
		"nivel hierarquico":    fieldLevel,
		"level":                fieldLevel,
		"status":               fieldStatus,
		"situacao":             fieldStatus,
		"data de admissao":     fieldAdmissionDate,
		"admissao":             fieldAdmissionDate,
		"admission date":       fieldAdmissionDate,
		"data de desligamento": fieldTerminationDate,
		"desligamento":         fieldTerminationDate,
		"termination date":     fieldTerminationDate,
		"perfil":               fieldProfile,
		"profile":              fieldProfile,
	},
	TargetEvaluations: {
		"nome":               fieldEmployeeName,
		"funcionario":        fieldEmployeeName,
		"colaborador":        fieldEmployeeName,
		"employee":           fieldEmployeeName,
		"employee name":      fieldEmployeeName,
		"matricula":          fieldEmployeeCode,
		"codigo":             fieldEmployeeCode,
		"employee code":      fieldEmployeeCode,
		"setor":              fieldSector,
		"sector":             fieldSector,
		"cargo":              fieldRole,
		"funcao":             fieldRole,
		"role":               fieldRole,
		"nivel":              fieldLevel,
		"level":              fieldLevel,
		"data":               fieldDate,
		"mes":                fieldDate,
		"mes de referencia":  fieldDate,
		"periodo":            fieldDate,
		"date":               fieldDate,
		"observacao":         fieldObservation,
		"observacoes":        fieldObservation,
		"observation":        fieldObservation,
		"destaque":           fieldHighlight,
		"destaque do mes":    fieldHighlight,
		"highlight":          fieldHighlight,
		"motivo do destaque": fieldHighlightReason,
		"motivo":             fieldHighlightReason,
		"highlight reason":   fieldHighlightReason,
		"media":              fieldAverage,
		"nota final":         fieldAverage,
		"average":            fieldAverage,
	},
	TargetSectors: {
		"nome":        fieldName,
		"setor":       fieldName,
		"name":        fieldName,
		"descricao":   fieldDescription,
		"description": fieldDescription,
	},
	TargetRoles: {
		"nome":   fieldName,
		"cargo":  fieldName,
		"funcao": fieldName,
		"name":   fieldName,
		"nivel":  fieldLevel,
		"level":  fieldLevel,
	},
	TargetCriteria: {
		"nome":        fieldName,
		"criterio":    fieldName,
		"competencia": fieldName,
		"name":        fieldName,
		"nivel":       fieldLevel,
		"level":       fieldLevel,
		"descricao":   fieldDescription,
		"description": fieldDescription,
		"empresas":    fieldCompanyIDs,
	},
}

var truthy = map[string]bool{"sim": true, "s": true, "x": true, "1": true, "true": true, "yes": true, "verdadeiro": true}
