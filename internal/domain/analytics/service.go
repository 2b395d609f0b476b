package analytics

import (
	"context"
	"sync"
	"time"

	"perfeval/internal/domain/employees"
	"perfeval/internal/domain/evaluations"
	"perfeval/internal/domain/goals"
	"perfeval/internal/domain/tenant"
)

const DefaultCacheTTL = 5 * time.Minute

type EvaluationSource interface {
	All(ctx context.Context, companyID string) ([]evaluations.Evaluation, error)
}

type EmployeeSource interface {
	All(ctx context.Context, companyID string) ([]employees.Employee, error)
}

type GoalSource interface {
	All(ctx context.Context, companyID string) ([]goals.Goal, error)
}

type CacheRecorder interface {
	RecordCache(hit bool)
}

type cached struct {
	input    Input
	loadedAt time.Time
}

// Service loads a company's evaluations, employees and goals once and keeps
// them until the TTL passes or a write invalidates that company.
type Service struct {
	evaluations EvaluationSource
	employees   EmployeeSource
	goals       GoalSource
	metrics     CacheRecorder
	ttl         time.Duration
	now         func() time.Time

	mu          sync.Mutex
	cache       map[string]cached
	generations map[string]uint64
}

func NewService(evals EvaluationSource, emps EmployeeSource, goalSource GoalSource, metrics CacheRecorder, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Service{
		evaluations: evals,
		employees:   emps,
		goals:       goalSource,
		metrics:     metrics,
		ttl:         ttl,
		now:         time.Now,
		cache:       map[string]cached{},
		generations: map[string]uint64{},
	}
}

// Invalidate drops the cached input of one company. Other companies keep
// theirs.
func (s *Service) Invalidate(companyID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.cache, companyID)
	s.generations[companyID]++
}

func (s *Service) recordCache(hit bool) {
	if s.metrics != nil {
		s.metrics.RecordCache(hit)
	}
}

func (s *Service) load(ctx context.Context, companyID string) (Input, error) {
	s.mu.Lock()
	entry, ok := s.cache[companyID]
	generation := s.generations[companyID]
	s.mu.Unlock()
	if ok && s.now().Sub(entry.loadedAt) < s.ttl {
		s.recordCache(true)
		return entry.input, nil
	}
	s.recordCache(false)

	var in Input
	var err error
	if in.Evaluations, err = s.evaluations.All(ctx, companyID); err != nil {
		return Input{}, err
	}
	if in.Employees, err = s.employees.All(ctx, companyID); err != nil {
		return Input{}, err
	}
	if s.goals != nil {
		if in.Goals, err = s.goals.All(ctx, companyID); err != nil {
			return Input{}, err
		}
	}

	s.mu.Lock()
	// A write that landed while loading makes this snapshot stale.
	if s.generations[companyID] == generation {
		s.cache[companyID] = cached{input: in, loadedAt: s.now()}
	}
	s.mu.Unlock()
	return in, nil
}

func (s *Service) Dashboard(ctx context.Context, sess tenant.Session, filter Filter) (Dashboard, error) {
	if err := sess.Require(); err != nil {
		return Dashboard{}, err
	}
	f, err := filter.Normalize()
	if err != nil {
		return Dashboard{}, err
	}
	in, err := s.load(ctx, sess.CompanyID)
	if err != nil {
		return Dashboard{}, err
	}
	return Build(sess.CompanyID, in, f), nil
}

// Rows returns the resolved and filtered evaluation rows behind a dashboard.
func (s *Service) Rows(ctx context.Context, sess tenant.Session, filter Filter) ([]Row, error) {
	if err := sess.Require(); err != nil {
		return nil, err
	}
	f, err := filter.Normalize()
	if err != nil {
		return nil, err
	}
	in, err := s.load(ctx, sess.CompanyID)
	if err != nil {
		return nil, err
	}
	return Apply(Resolve(in.Evaluations, in.Employees), f), nil
}

func IsValidation(err error) bool {
	switch err {
	case ErrInvalidPeriod, ErrInvalidRange, ErrInvalidLevel, ErrInvalidStatus, ErrUnknownSection:
		return true
	}
	return false
}
