package evaluations

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"perfeval/internal/domain/catalog"
	"perfeval/internal/domain/employees"
	"perfeval/internal/domain/tenant"
	"perfeval/internal/platform/docstore"
	"perfeval/internal/platform/textnorm"
)

const (
	actionCreate = "create"
	actionUpdate = "update"
	actionDelete = "delete"
)

type EmployeeDirectory interface {
	Lookup(ctx context.Context, companyID, id, name string) (employees.Employee, bool, error)
	All(ctx context.Context, companyID string) ([]employees.Employee, error)
}

type Recorder interface {
	Record(ctx context.Context, sess tenant.Session, action, entityType, entityID string, before, after any) error
}

type Invalidator interface {
	Invalidate(companyID string)
}

type Service struct {
	store     StoreAPI
	employees EmployeeDirectory
	audit     Recorder
	cache     Invalidator
}

func NewService(store StoreAPI, directory EmployeeDirectory, audit Recorder, cache Invalidator) *Service {
	return &Service{store: store, employees: directory, audit: audit, cache: cache}
}

// afterWrite records the audit entry and drops the tenant's cached aggregates.
// Audit failures are logged; the write already happened.
func (s *Service) afterWrite(ctx context.Context, sess tenant.Session, action, id string, before, after any) {
	if s.audit != nil {
		if err := s.audit.Record(ctx, sess, action, EntityType, id, before, after); err != nil {
			slog.Warn("audit record failed", "action", action, "evaluationId", id, "err", err)
		}
	}
	if s.cache != nil {
		s.cache.Invalidate(sess.CompanyID)
	}
}

func (s *Service) List(ctx context.Context, sess tenant.Session, filter Filter, cursor string, limit int) ([]Evaluation, docstore.Page, error) {
	if err := sess.Require(); err != nil {
		return nil, docstore.Page{}, err
	}
	if filter.Level != "" {
		level, ok := catalog.ParseLevel(filter.Level)
		if !ok {
			return nil, docstore.Page{}, ErrInvalidLevel
		}
		filter.Level = level
	}
	if filter.Date != "" {
		date, err := NormalizeDate(filter.Date)
		if err != nil {
			return nil, docstore.Page{}, err
		}
		filter.Date = date
	}
	return s.store.ListEvaluations(ctx, sess.CompanyID, filter, cursor, limit)
}

func (s *Service) All(ctx context.Context, companyID string) ([]Evaluation, error) {
	return s.store.AllEvaluations(ctx, companyID)
}

func (s *Service) Get(ctx context.Context, sess tenant.Session, id string) (Evaluation, error) {
	if err := sess.Require(); err != nil {
		return Evaluation{}, err
	}
	return s.store.GetEvaluation(ctx, sess.CompanyID, id)
}

// Prepare validates the input, resolves the employee and stamps its stable id
// and snapshot fields. It does not write.
func (s *Service) Prepare(ctx context.Context, sess tenant.Session, input EvaluationInput) (Evaluation, error) {
	if err := sess.Require(); err != nil {
		return Evaluation{}, err
	}
	date, err := NormalizeDate(input.Date)
	if err != nil {
		return Evaluation{}, err
	}
	scores := NormalizeScores(input.Scores)
	if len(scores) == 0 {
		return Evaluation{}, ErrScoresRequired
	}
	if input.EmployeeID == "" && textnorm.Key(input.EmployeeName) == "" {
		return Evaluation{}, ErrEmployeeRequired
	}

	employee, found, err := s.employees.Lookup(ctx, sess.CompanyID, input.EmployeeID, input.EmployeeName)
	if err != nil {
		return Evaluation{}, err
	}
	if !found {
		return Evaluation{}, ErrEmployeeNotFound
	}

	evaluation := Evaluation{
		CompanyID:       sess.CompanyID,
		EmployeeID:      employee.ID,
		EmployeeName:    employee.Name,
		EmployeeCode:    employee.Code,
		Sector:          firstNonEmpty(textnorm.Clean(input.Sector), employee.Sector),
		Role:            firstNonEmpty(textnorm.Clean(input.Role), employee.Role),
		Level:           employee.Level,
		Date:            date,
		Scores:          scores,
		Average:         Number(Average(scores)),
		Observation:     input.Observation,
		Highlight:       input.Highlight,
		HighlightReason: input.HighlightReason,
		EvaluatorID:     sess.UserID,
		Extra:           input.Extra,
	}
	if input.Level != "" {
		level, ok := catalog.ParseLevel(input.Level)
		if !ok {
			return Evaluation{}, ErrInvalidLevel
		}
		evaluation.Level = level
	}
	if !evaluation.Highlight {
		evaluation.HighlightReason = ""
	}
	if err := docstore.ValidateExtensions(&evaluation, input.Extra); err != nil {
		return Evaluation{}, fmt.Errorf("%w: %v", ErrInvalidExtension, err)
	}
	return evaluation, nil
}

// Exists reports whether the employee already has an evaluation for the
// month of evaluation.
func (s *Service) Exists(ctx context.Context, evaluation Evaluation) (bool, error) {
	_, dup, err := s.store.FindDuplicate(ctx, evaluation.CompanyID, evaluation.EmployeeID, evaluation.EmployeeName, evaluation.Date)
	return dup, err
}

func (s *Service) Create(ctx context.Context, sess tenant.Session, input EvaluationInput) (Evaluation, error) {
	evaluation, err := s.Prepare(ctx, sess, input)
	if err != nil {
		return Evaluation{}, err
	}
	if dup, err := s.Exists(ctx, evaluation); err != nil {
		return Evaluation{}, err
	} else if dup {
		return Evaluation{}, ErrDuplicateEvaluation
	}
	id, err := s.store.SaveEvaluation(ctx, evaluation)
	if err != nil {
		return Evaluation{}, err
	}
	evaluation.ID = id
	s.afterWrite(ctx, sess, actionCreate, id, nil, evaluation)
	return evaluation, nil
}

// UpdateContent edits scores, observation, highlight and level. The average
// is recomputed only when new scores are supplied.
func (s *Service) UpdateContent(ctx context.Context, sess tenant.Session, id string, input ContentInput) (Evaluation, error) {
	if err := sess.Require(); err != nil {
		return Evaluation{}, err
	}
	before, err := s.store.GetEvaluation(ctx, sess.CompanyID, id)
	if err != nil {
		return Evaluation{}, err
	}
	after := before
	if input.Scores != nil {
		scores := NormalizeScores(input.Scores)
		if len(scores) == 0 {
			return Evaluation{}, ErrScoresRequired
		}
		after.Scores = scores
		after.Average = Number(Average(scores))
	}
	if input.Observation != nil {
		after.Observation = *input.Observation
	}
	if input.Highlight != nil {
		after.Highlight = *input.Highlight
	}
	if input.HighlightReason != nil {
		after.HighlightReason = *input.HighlightReason
	}
	if !after.Highlight {
		after.HighlightReason = ""
	}
	if input.Level != nil {
		level, ok := catalog.ParseLevel(*input.Level)
		if !ok {
			return Evaluation{}, ErrInvalidLevel
		}
		after.Level = level
	}
	if input.Extra != nil {
		if err := docstore.ValidateExtensions(&after, input.Extra); err != nil {
			return Evaluation{}, fmt.Errorf("%w: %v", ErrInvalidExtension, err)
		}
		after.Extra = input.Extra
	}
	if _, err := s.store.SaveEvaluation(ctx, after); err != nil {
		return Evaluation{}, err
	}
	s.afterWrite(ctx, sess, actionUpdate, id, before, after)
	return after, nil
}

func (s *Service) Delete(ctx context.Context, sess tenant.Session, id string) (Evaluation, error) {
	if err := sess.Require(); err != nil {
		return Evaluation{}, err
	}
	before, err := s.store.GetEvaluation(ctx, sess.CompanyID, id)
	if err != nil {
		return Evaluation{}, err
	}
	if err := s.store.DeleteEvaluation(ctx, id); err != nil {
		return Evaluation{}, err
	}
	s.afterWrite(ctx, sess, actionDelete, id, before, nil)
	return before, nil
}

// loadBulk checks that every id belongs to the session's company before any
// mutation is built.
func (s *Service) loadBulk(ctx context.Context, sess tenant.Session, ids []string) ([]Evaluation, error) {
	if err := sess.Require(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, ErrEmptyBulk
	}
	if len(ids) > MaxBulkItems {
		return nil, ErrBulkTooLarge
	}
	seen := map[string]bool{}
	var out []Evaluation
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		evaluation, err := s.store.GetEvaluation(ctx, sess.CompanyID, id)
		if err != nil {
			return nil, fmt.Errorf("evaluation %s: %w", id, err)
		}
		out = append(out, evaluation)
	}
	return out, nil
}

// BulkDelete removes every listed evaluation in one atomic batch.
func (s *Service) BulkDelete(ctx context.Context, sess tenant.Session, ids []string) (int, error) {
	items, err := s.loadBulk(ctx, sess, ids)
	if err != nil {
		return 0, err
	}
	mutations := make([]docstore.Mutation, 0, len(items))
	for _, item := range items {
		mutations = append(mutations, docstore.Mutation{Kind: docstore.MutationDelete, Collection: docstore.Evaluations, ID: item.ID})
	}
	if err := s.store.Apply(ctx, mutations); err != nil {
		return 0, err
	}
	for _, item := range items {
		s.afterWrite(ctx, sess, actionDelete, item.ID, item, nil)
	}
	return len(items), nil
}

// BulkSetLevel reassigns the hierarchical level of every listed evaluation in
// one atomic batch.
func (s *Service) BulkSetLevel(ctx context.Context, sess tenant.Session, ids []string, level string) (int, error) {
	parsed, ok := catalog.ParseLevel(level)
	if !ok {
		return 0, ErrInvalidLevel
	}
	items, err := s.loadBulk(ctx, sess, ids)
	if err != nil {
		return 0, err
	}
	mutations := make([]docstore.Mutation, 0, len(items))
	for _, item := range items {
		mutations = append(mutations, docstore.Mutation{
			Kind:       docstore.MutationUpdate,
			Collection: docstore.Evaluations,
			ID:         item.ID,
			Data:       map[string]any{"level": parsed},
		})
	}
	if err := s.store.Apply(ctx, mutations); err != nil {
		return 0, err
	}
	for _, item := range items {
		after := item
		after.Level = parsed
		s.afterWrite(ctx, sess, actionUpdate, item.ID, item, after)
	}
	return len(items), nil
}

// Backfill links evaluations without a valid employeeId to an employee by
// code or normalized name. It is a one-time migration; steady-state writes
// always stamp the id. Chunks are written atomically but the run as a whole
// is not.
func (s *Service) Backfill(ctx context.Context, sess tenant.Session, dryRun bool) (BackfillReport, error) {
	report := BackfillReport{DryRun: dryRun, Unresolved: []string{}}
	if err := sess.Require(); err != nil {
		return report, err
	}
	list, err := s.employees.All(ctx, sess.CompanyID)
	if err != nil {
		return report, err
	}
	index := employees.NewIndex(list)
	items, err := s.store.AllEvaluations(ctx, sess.CompanyID)
	if err != nil {
		return report, err
	}

	var pending []docstore.Mutation
	flush := func() error {
		if dryRun || len(pending) == 0 {
			pending = pending[:0]
			return nil
		}
		if err := s.store.Apply(ctx, pending); err != nil {
			return err
		}
		pending = pending[:0]
		return nil
	}

	for _, item := range items {
		report.Scanned++
		employee, how := index.Match(item.EmployeeID, item.EmployeeCode, item.EmployeeName)
		switch how {
		case "id":
			report.Already++
			continue
		case "":
			report.Unresolved = append(report.Unresolved, item.ID)
			continue
		}
		report.Linked++
		pending = append(pending, docstore.Mutation{
			Kind:       docstore.MutationUpdate,
			Collection: docstore.Evaluations,
			ID:         item.ID,
			Data:       map[string]any{"employeeId": employee.ID, "employeeCode": employee.Code},
		})
		if len(pending) >= backfillChunk {
			if err := flush(); err != nil {
				return report, err
			}
		}
	}
	if err := flush(); err != nil {
		return report, err
	}
	if report.Linked > 0 && !dryRun {
		s.afterWrite(ctx, sess, actionUpdate, "backfill", nil, map[string]any{"linked": report.Linked})
	}
	return report, nil
}

// IsValidation reports whether err is an input problem rather than a store
// failure.
func IsValidation(err error) bool {
	for _, target := range []error{ErrInvalidDate, ErrScoresRequired, ErrEmployeeRequired, ErrInvalidLevel, ErrEmptyBulk, ErrBulkTooLarge, ErrInvalidExtension} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
