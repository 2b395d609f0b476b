package api

import (
	"golang.org/x/text/language"
)

const (
	LocalePT = "pt-BR"
	LocaleEN = "en"
)

var (
	supported = []language.Tag{language.BrazilianPortuguese, language.English}
	matcher   = language.NewMatcher(supported)
)

// MatchLocale picks the response language from an Accept-Language header.
// fallback is used when the header is empty or unparsable.
func MatchLocale(acceptLanguage, fallback string) string {
	if fallback != LocaleEN {
		fallback = LocalePT
	}
	if acceptLanguage == "" {
		return fallback
	}
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return fallback
	}
	_, index, confidence := matcher.Match(tags...)
	if confidence == language.No {
		return fallback
	}
	if supported[index] == language.English {
		return LocaleEN
	}
	return LocalePT
}

var messages = map[string][2]string{
	"unauthorized":          {"Sessão expirada. Entre novamente.", "Your session has expired. Please sign in again."},
	"forbidden":             {"Você não tem permissão para esta ação.", "You do not have permission for this action."},
	"not_found":             {"Registro não encontrado.", "Record not found."},
	"conflict":              {"Este registro já existe.", "This record already exists."},
	"failed_precondition":   {"Operação não permitida no estado atual.", "The operation is not allowed in the current state."},
	"resource_exhausted":    {"Limite de uso atingido. Tente novamente em instantes.", "Usage limit reached. Try again shortly."},
	"internal_error":        {"Ocorreu um erro inesperado. Tente novamente.", "An unexpected error occurred. Please try again."},
	"company_required":      {"Selecione uma empresa para continuar.", "Select a company to continue."},
	"validation_error":      {"Dados inválidos.", "Invalid data."},
	"invalid_payload":       {"Requisição inválida.", "Invalid request payload."},
	"rate_limited":          {"Muitas requisições. Aguarde um momento.", "Too many requests. Please wait a moment."},
	"invalid_credentials":   {"E-mail ou senha inválidos.", "Invalid email or password."},
	"mfa_required":          {"Informe o código de verificação.", "Enter your verification code."},
	"mfa_invalid":           {"Código de verificação inválido.", "Invalid verification code."},
	"idempotency_conflict":  {"Chave de idempotência já usada com outra requisição.", "Idempotency key was already used with a different request."},
	"evaluation_exists":     {"Funcionário já avaliado neste mês.", "Employee already evaluated for this month."},
	"employee_not_found":    {"Funcionário não encontrado.", "Employee not found."},
	"duplicate_name":        {"Já existe um registro com este nome.", "A record with this name already exists."},
	"duplicate_code":        {"Já existe um funcionário com esta matrícula.", "An employee with this code already exists."},
	"duplicate_goal":        {"Já existe uma meta para este escopo.", "A goal already exists for this scope."},
	"criterion_shared":      {"Critério compartilhado com outras empresas.", "Criterion is shared with other companies."},
	"invalid_filter":        {"Filtro inválido.", "Invalid filter."},
	"invalid_file":          {"Arquivo inválido.", "Invalid file."},
	"company_not_allowed":   {"Empresa não permitida para este usuário.", "Company not allowed for this user."},
	"user_exists":           {"Usuário já cadastrado.", "User already exists."},
	"company_exists":        {"Empresa já cadastrada.", "Company already exists."},
	"photo_not_found":       {"Funcionário sem foto.", "Employee has no photo."},
	"request_too_large":     {"Requisição muito grande.", "Request body too large."},
	"job_not_found":         {"Tarefa não encontrada.", "Job not found."},
	"section_not_found":     {"Seção do painel desconhecida.", "Unknown dashboard section."},
}

// Message returns the user-facing text for code in locale, or fallback when
// the code has no translation.
func Message(locale, code, fallback string) string {
	m, ok := messages[code]
	if !ok {
		return fallback
	}
	if locale == LocaleEN {
		return m[1]
	}
	return m[0]
}
