package goals

import (
	"context"
	"fmt"

	"perfeval/internal/domain/catalog"
	"perfeval/internal/domain/tenant"
	"perfeval/internal/platform/docstore"
	"perfeval/internal/platform/textnorm"
)

type Service struct {
	store StoreAPI
}

func NewService(store StoreAPI) *Service {
	return &Service{store: store}
}

func (s *Service) List(ctx context.Context, sess tenant.Session) ([]Goal, error) {
	if err := sess.Require(); err != nil {
		return nil, err
	}
	return s.store.ListGoals(ctx, sess.CompanyID)
}

// All lists a company's goals without a session; used by analytics loaders.
func (s *Service) All(ctx context.Context, companyID string) ([]Goal, error) {
	return s.store.ListGoals(ctx, companyID)
}

func (s *Service) Get(ctx context.Context, sess tenant.Session, id string) (Goal, error) {
	if err := sess.Require(); err != nil {
		return Goal{}, err
	}
	return s.store.GetGoal(ctx, sess.CompanyID, id)
}

func (s *Service) build(sess tenant.Session, input GoalInput) (Goal, error) {
	if input.Target == nil {
		return Goal{}, ErrTargetRequired
	}
	goal := Goal{
		CompanyID:   sess.CompanyID,
		Sector:      textnorm.Clean(input.Sector),
		Role:        textnorm.Clean(input.Role),
		Target:      clampTarget(*input.Target),
		Description: input.Description,
		Extra:       input.Extra,
	}
	if input.Level != "" {
		level, ok := catalog.ParseLevel(input.Level)
		if !ok {
			return Goal{}, ErrInvalidLevel
		}
		goal.Level = level
	}
	if err := docstore.ValidateExtensions(&goal, input.Extra); err != nil {
		return Goal{}, fmt.Errorf("%w: %v", ErrInvalidExtension, err)
	}
	return goal, nil
}

func sameScope(a, b Goal) bool {
	return textnorm.Equal(a.Sector, b.Sector) && textnorm.Equal(a.Role, b.Role) && a.Level == b.Level
}

func (s *Service) checkScope(ctx context.Context, goal Goal) error {
	existing, err := s.store.ListGoals(ctx, goal.CompanyID)
	if err != nil {
		return err
	}
	for _, g := range existing {
		if g.ID != goal.ID && sameScope(g, goal) {
			return ErrDuplicateScope
		}
	}
	return nil
}

func (s *Service) Create(ctx context.Context, sess tenant.Session, input GoalInput) (Goal, error) {
	if err := sess.Require(); err != nil {
		return Goal{}, err
	}
	goal, err := s.build(sess, input)
	if err != nil {
		return Goal{}, err
	}
	if err := s.checkScope(ctx, goal); err != nil {
		return Goal{}, err
	}
	id, err := s.store.SaveGoal(ctx, goal)
	if err != nil {
		return Goal{}, err
	}
	goal.ID = id
	return goal, nil
}

func (s *Service) Update(ctx context.Context, sess tenant.Session, id string, input GoalInput) (Goal, Goal, error) {
	if err := sess.Require(); err != nil {
		return Goal{}, Goal{}, err
	}
	before, err := s.store.GetGoal(ctx, sess.CompanyID, id)
	if err != nil {
		return Goal{}, Goal{}, err
	}
	after, err := s.build(sess, input)
	if err != nil {
		return Goal{}, Goal{}, err
	}
	after.ID = before.ID
	if input.Extra == nil {
		after.Extra = before.Extra
	}
	if err := s.checkScope(ctx, after); err != nil {
		return Goal{}, Goal{}, err
	}
	if _, err := s.store.SaveGoal(ctx, after); err != nil {
		return Goal{}, Goal{}, err
	}
	return before, after, nil
}

func (s *Service) Delete(ctx context.Context, sess tenant.Session, id string) (Goal, error) {
	if err := sess.Require(); err != nil {
		return Goal{}, err
	}
	before, err := s.store.GetGoal(ctx, sess.CompanyID, id)
	if err != nil {
		return Goal{}, err
	}
	return before, s.store.DeleteGoal(ctx, id)
}

// Resolve returns the target for a sector/role/level in the session's company.
func (s *Service) Resolve(ctx context.Context, sess tenant.Session, sector, role, level string) (Resolution, error) {
	goals, err := s.List(ctx, sess)
	if err != nil {
		return Resolution{}, err
	}
	if level != "" {
		if parsed, ok := catalog.ParseLevel(level); ok {
			level = parsed
		}
	}
	return Resolve(goals, sector, role, level), nil
}
