// Package docstore is the document-store client every domain package talks to.
// Documents are schema-less JSON objects keyed by an opaque id and grouped in
// named collections. Tenant scoping is an equality predicate on companyId,
// applied to every collection that is not global.
package docstore

import (
	"context"
	"regexp"
	"time"

	"github.com/google/uuid"
)

const (
	Employees      = "employees"
	Evaluations    = "evaluations"
	Sectors        = "sectors"
	Roles          = "roles"
	Criteria       = "evaluation_criteria"
	Companies      = "companies"
	Users          = "users"
	UserRoles      = "user_roles"
	Goals          = "performance_goals"
	AuditLogs      = "audit_logs"
	JobRuns        = "job_runs"
	IdempotencyKey = "idempotency_keys"
)

// Store-managed fields. Encode strips them from payloads; drivers stamp them.
const (
	FieldID        = "id"
	FieldTenant    = "companyId"
	FieldCreatedAt = "createdAt"
	FieldUpdatedAt = "updatedAt"
)

// TimeLayout is fixed width so that stamped timestamps sort as strings.
const TimeLayout = "2006-01-02T15:04:05.000000000Z"

const (
	DefaultPageSize = 50
	MaxPageSize     = 500
)

var globalCollections = map[string]bool{
	Companies: true,
	Users:     true,
	UserRoles: true,
	Criteria:  true,
}

// IsGlobal reports whether a collection ignores the tenant filter.
func IsGlobal(collection string) bool {
	return globalCollections[collection]
}

type Document struct {
	ID   string
	Data map[string]any
}

// String returns a top-level string field or "".
func (d Document) String(field string) string {
	if v, ok := d.Data[field].(string); ok {
		return v
	}
	return ""
}

type Operator string

const (
	OpEq            Operator = "=="
	OpIn            Operator = "in"
	OpArrayContains Operator = "array-contains"
)

type Filter struct {
	Field string
	Op    Operator
	Value any
}

func Eq(field string, value any) Filter {
	return Filter{Field: field, Op: OpEq, Value: value}
}

func In(field string, values ...string) Filter {
	return Filter{Field: field, Op: OpIn, Value: values}
}

func ArrayContains(field string, value any) Filter {
	return Filter{Field: field, Op: OpArrayContains, Value: value}
}

// Query selects documents of one collection. OrderBy compares the string form
// of the field; ties are broken by id.
type Query struct {
	Collection string
	TenantID   string
	Filters    []Filter
	OrderBy    string
	Desc       bool
	Limit      int
	Cursor     string
}

type Page struct {
	Items      []Document
	NextCursor string
	HasMore    bool
}

type MutationKind string

const (
	MutationCreate MutationKind = "create"
	MutationSet    MutationKind = "set"
	MutationUpdate MutationKind = "update"
	MutationDelete MutationKind = "delete"
)

type Mutation struct {
	Kind       MutationKind
	Collection string
	ID         string
	Data       map[string]any
}

// Store is implemented by the postgres, mongo and memory drivers.
// Writes are last-write-wins; Batch applies all mutations or none.
type Store interface {
	Get(ctx context.Context, collection, id string) (Document, error)
	Find(ctx context.Context, q Query) ([]Document, error)
	FindPage(ctx context.Context, q Query) (Page, error)
	Create(ctx context.Context, collection string, data map[string]any) (string, error)
	Set(ctx context.Context, collection, id string, data map[string]any) error
	Update(ctx context.Context, collection, id string, patch map[string]any) error
	Delete(ctx context.Context, collection, id string) error
	Batch(ctx context.Context, mutations []Mutation) error
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

func NewID() string {
	return uuid.NewString()
}

func Now() string {
	return time.Now().UTC().Format(TimeLayout)
}

var fieldPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func validField(name string) bool {
	return fieldPattern.MatchString(name)
}

func (q Query) pageSize() int {
	switch {
	case q.Limit <= 0:
		return DefaultPageSize
	case q.Limit > MaxPageSize:
		return MaxPageSize
	default:
		return q.Limit
	}
}

func (q Query) validate() error {
	if q.Collection == "" {
		return newError(CodeFailedPrecondition, "query", q.Collection, errEmptyCollection)
	}
	if q.OrderBy != "" && !validField(q.OrderBy) {
		return newError(CodeFailedPrecondition, "query", q.Collection, errInvalidField)
	}
	for _, f := range q.Filters {
		if !validField(f.Field) {
			return newError(CodeFailedPrecondition, "query", q.Collection, errInvalidField)
		}
		if f.Op == OpIn {
			if _, ok := f.Value.([]string); !ok {
				return newError(CodeFailedPrecondition, "query", q.Collection, errInvalidFilter)
			}
		}
	}
	return nil
}

// scopedFilters adds the tenant predicate for non-global collections.
func (q Query) scopedFilters() []Filter {
	filters := make([]Filter, 0, len(q.Filters)+1)
	if q.TenantID != "" && !IsGlobal(q.Collection) {
		filters = append(filters, Eq(FieldTenant, q.TenantID))
	}
	return append(filters, q.Filters...)
}

func (q Query) orderField() string {
	if q.OrderBy == "" {
		return FieldID
	}
	return q.OrderBy
}

// GetInTenant loads a document and reports not-found when it belongs to a
// different tenant.
func GetInTenant(ctx context.Context, s Store, collection, tenantID, id string) (Document, error) {
	doc, err := s.Get(ctx, collection, id)
	if err != nil {
		return Document{}, err
	}
	if !IsGlobal(collection) && doc.String(FieldTenant) != tenantID {
		return Document{}, newError(CodeNotFound, "get", collection, errMissing)
	}
	return doc, nil
}

func stampCreate(data map[string]any, createdAt string) map[string]any {
	out := make(map[string]any, len(data)+2)
	for k, v := range data {
		if k == FieldID {
			continue
		}
		out[k] = v
	}
	if createdAt == "" {
		createdAt = Now()
	}
	out[FieldCreatedAt] = createdAt
	out[FieldUpdatedAt] = Now()
	return out
}

func stampUpdate(patch map[string]any) map[string]any {
	out := make(map[string]any, len(patch)+1)
	for k, v := range patch {
		if k == FieldID || k == FieldCreatedAt {
			continue
		}
		out[k] = v
	}
	out[FieldUpdatedAt] = Now()
	return out
}
