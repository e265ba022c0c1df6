package profiles

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/profilehub/profilehub/internal/access"
	"github.com/profilehub/profilehub/internal/bootstrap"
	"github.com/profilehub/profilehub/internal/domain/profile"
	"github.com/profilehub/profilehub/internal/domain/role"
	"github.com/profilehub/profilehub/internal/domain/user"
	"github.com/profilehub/profilehub/internal/observability"
	"github.com/profilehub/profilehub/internal/security"
)

type Store interface {
	GetRoleByName(ctx context.Context, name string) (role.Role, error)
	// CreateUserWithProfile must write both rows atomically.
	CreateUserWithProfile(ctx context.Context, u user.User, p profile.Profile) error
	GetProfileByEmail(ctx context.Context, email string) (profile.View, error)
	ListProfiles(ctx context.Context) ([]profile.View, error)
	UpdateProfile(ctx context.Context, email string, apply func(current profile.Profile) profile.Profile) (profile.View, error)
	DeleteProfileByEmail(ctx context.Context, email string) error
}

// Service owns registration and the ownership-or-rank rule for profile
// access: a caller always reaches their own profile, anyone else's only with
// a strictly higher rank than the target account's role.
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

// Register creates the account with the default USER role and its profile in
// one write. Before bootstrap the USER role does not exist and registration
// fails with the distinguished not-initialized error.
func (s *Service) Register(ctx context.Context, req profile.RegistrationRequest) (user.User, role.Role, error) {
	userRole, err := s.store.GetRoleByName(ctx, role.NameUser)

	if err != nil {
		if errors.Is(err, role.ErrNotFound) {
			return user.User{}, role.Role{}, bootstrap.ErrNotInitialized
		}

		return user.User{}, role.Role{}, err
	}

	hash, err := security.HashPassword(req.Password)

	if err != nil {
		return user.User{}, role.Role{}, err
	}

	now := time.Now().UTC()

	u := user.User{
		ID:           uuid.NewString(),
		Email:        req.Email,
		PasswordHash: hash,
		Role:         userRole.Name,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	username := req.Username

	if username == "" {
		username = usernameFromEmail(req.Email)
	}

	p := profile.Profile{
		ID:        uuid.NewString(),
		UserID:    u.ID,
		Username:  username,
		Social:    req.Social,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = s.store.CreateUserWithProfile(ctx, u, p)

	if err != nil {
		return user.User{}, role.Role{}, err
	}

	return u, userRole, nil
}

func usernameFromEmail(email string) string {
	local, _, found := strings.Cut(email, "@")
	if !found || local == "" {
		return email
	}

	return local
}

// canAccess applies the ownership-or-rank rule for a target profile view.
func (s *Service) canAccess(ctx context.Context, actor access.Actor, target profile.View) (bool, error) {
	if actor.Email == target.User.Email {
		return true, nil
	}

	targetRole, err := s.store.GetRoleByName(ctx, target.User.Role)

	if err != nil {
		return false, err
	}

	return access.CanActOn(actor.RoleValue, targetRole.Value), nil
}

func (s *Service) Get(ctx context.Context, actor access.Actor, email string) (profile.View, error) {
	v, err := s.store.GetProfileByEmail(ctx, email)

	if err != nil {
		return profile.View{}, err
	}

	allowed, err := s.canAccess(ctx, actor, v)

	if err != nil {
		return profile.View{}, err
	}

	s.decision("profiles.get", allowed)

	if !allowed {
		return profile.View{}, access.ErrForbidden
	}

	return v, nil
}

// List returns every profile; it is an administrative view gated on the
// operation minimum rather than a per-target comparison.
func (s *Service) List(ctx context.Context, actor access.Actor) ([]profile.View, error) {
	allowed := access.MeetsMinimum(actor.RoleValue, s.minValue)

	s.decision("profiles.list", allowed)

	if !allowed {
		return nil, access.ErrForbidden
	}

	return s.store.ListProfiles(ctx)
}

func (s *Service) Update(ctx context.Context, actor access.Actor, email string, req profile.UpdateProfileRequest) (profile.View, error) {
	v, err := s.store.GetProfileByEmail(ctx, email)

	if err != nil {
		return profile.View{}, err
	}

	allowed, err := s.canAccess(ctx, actor, v)

	if err != nil {
		return profile.View{}, err
	}

	s.decision("profiles.update", allowed)

	if !allowed {
		return profile.View{}, access.ErrForbidden
	}

	return s.store.UpdateProfile(ctx, email, func(current profile.Profile) profile.Profile {
		if req.Username != nil {
			current.Username = *req.Username
		}
		if req.Social != nil {
			current.Social = *req.Social
		}
		current.UpdatedAt = time.Now().UTC()

		return current
	})
}

func (s *Service) Delete(ctx context.Context, actor access.Actor, email string) error {
	v, err := s.store.GetProfileByEmail(ctx, email)

	if err != nil {
		return err
	}

	allowed, err := s.canAccess(ctx, actor, v)

	if err != nil {
		return err
	}

	s.decision("profiles.delete", allowed)

	if !allowed {
		return access.ErrForbidden
	}

	return s.store.DeleteProfileByEmail(ctx, email)
}
