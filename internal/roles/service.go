package roles

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/profilehub/profilehub/internal/access"
	"github.com/profilehub/profilehub/internal/domain/role"
	"github.com/profilehub/profilehub/internal/observability"
)

// Store is the role persistence the hierarchy needs. UpdateRole and
// DeleteRole take the permission check as a closure so the store can run it
// against the row's current value inside its own critical section; the check
// is always against the value immediately before the mutation.
type Store interface {
	CreateRole(ctx context.Context, r role.Role) error
	GetRoleByName(ctx context.Context, name string) (role.Role, error)
	ListRoles(ctx context.Context) ([]role.Role, error)
	UpdateRole(ctx context.Context, name string, apply func(current role.Role) (role.Role, error)) (role.Role, error)
	DeleteRole(ctx context.Context, name string, allowed func(current role.Role) error) error
}

// Service owns the numeric-value role hierarchy and all of its rank rules.
type Service struct {
	store    Store
	minValue int
	prom     *observability.Prom
}

func NewService(store Store, minValue int, prom *observability.Prom) *Service {
	if minValue <= 0 {
		minValue = access.MinRoleMutationValue
	}

	return &Service{store: store, minValue: minValue, prom: prom}
}

func (s *Service) decision(op string, allowed bool) {
	if s.prom != nil {
		s.prom.Decision(op, allowed)
	}
}

// Create adds a new role. The caller must clear the role-creation minimum and
// must outrank the requested value, so nobody can mint a role at or above
// their own rank.
func (s *Service) Create(ctx context.Context, actor access.Actor, req role.CreateRoleRequest) (role.Role, error) {
	allowed := access.MeetsMinimum(actor.RoleValue, s.minValue) && access.CanActOn(actor.RoleValue, req.Value)

	s.decision("roles.create", allowed)

	if !allowed {
		return role.Role{}, access.ErrForbidden
	}

	now := time.Now().UTC()

	r := role.Role{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Value:       req.Value,
		Description: req.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := s.store.CreateRole(ctx, r)

	if err != nil {
		return role.Role{}, err
	}

	return r, nil
}

func (s *Service) GetByName(ctx context.Context, name string) (role.Role, error) {
	return s.store.GetRoleByName(ctx, name)
}

func (s *Service) List(ctx context.Context) ([]role.Role, error) {
	return s.store.ListRoles(ctx)
}

// Update patches a role. The caller must strictly outrank the role's current
// value; raising the value past the caller's own rank is allowed in the same
// call, but afterwards the caller has locked themselves out of the role.
func (s *Service) Update(ctx context.Context, actor access.Actor, name string, req role.UpdateRoleRequest) (role.Role, error) {
	return s.store.UpdateRole(ctx, name, func(current role.Role) (role.Role, error) {
		allowed := access.CanActOn(actor.RoleValue, current.Value)

		s.decision("roles.update", allowed)

		if !allowed {
			return role.Role{}, access.ErrForbidden
		}

		if req.Name != nil {
			current.Name = *req.Name
		}
		if req.Value != nil {
			current.Value = *req.Value
		}
		if req.Description != nil {
			current.Description = *req.Description
		}
		current.UpdatedAt = time.Now().UTC()

		return current, nil
	})
}

// Delete removes a role under the same precondition as Update. The store
// refuses with role.ErrInUse while any account still references the role.
func (s *Service) Delete(ctx context.Context, actor access.Actor, name string) error {
	return s.store.DeleteRole(ctx, name, func(current role.Role) error {
		allowed := access.CanActOn(actor.RoleValue, current.Value)

		s.decision("roles.delete", allowed)

		if !allowed {
			return access.ErrForbidden
		}

		return nil
	})
}
