package users

import (
	"context"

	"github.com/profilehub/profilehub/internal/access"
	"github.com/profilehub/profilehub/internal/domain/role"
	"github.com/profilehub/profilehub/internal/domain/user"
	"github.com/profilehub/profilehub/internal/observability"
)

type Store interface {
	GetRoleByName(ctx context.Context, name string) (role.Role, error)
	GetUserByID(ctx context.Context, id string) (user.User, error)
	SetUserRole(ctx context.Context, userID, roleName string) error
}

// Service handles role assignment to accounts. The rank snapshot in any
// outstanding token is untouched; the new rank applies on next login.
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

// AssignRole gives the target account the named role. The caller must clear
// the assignment minimum and strictly outrank the role being assigned, which
// blocks privilege escalation to or past the caller's own rank.
func (s *Service) AssignRole(ctx context.Context, actor access.Actor, req user.AssignRoleRequest) (user.User, error) {
	r, err := s.store.GetRoleByName(ctx, req.RoleName)

	if err != nil {
		return user.User{}, err
	}

	allowed := access.MeetsMinimum(actor.RoleValue, s.minValue) && access.CanAssign(actor.RoleValue, r.Value)

	if s.prom != nil {
		s.prom.Decision("users.assign_role", allowed)
	}

	if !allowed {
		return user.User{}, access.ErrForbidden
	}

	u, err := s.store.GetUserByID(ctx, req.UserID)

	if err != nil {
		return user.User{}, err
	}

	err = s.store.SetUserRole(ctx, u.ID, r.Name)

	if err != nil {
		return user.User{}, err
	}

	u.Role = r.Name

	return u, nil
}
