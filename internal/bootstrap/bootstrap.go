package bootstrap

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/profilehub/profilehub/internal/domain/profile"
	"github.com/profilehub/profilehub/internal/domain/role"
	"github.com/profilehub/profilehub/internal/domain/user"
	"github.com/profilehub/profilehub/internal/security"
)

// ErrNotInitialized is the distinguished "acting before /init" failure.
// Registration surfaces it when the USER role does not exist yet; the HTTP
// layer maps it to 418 so clients can tell it apart from an ordinary 404.
var ErrNotInitialized = errors.New("role USER not found, resource initialization required")

// PolicyError reports every owner-password rule the candidate violated.
type PolicyError struct {
	Violations []string
}

func (e *PolicyError) Error() string {
	return security.PolicyMessage(e.Violations)
}

// Store is the slice of persistence the controller needs. Initialize must be
// atomic: either all seed rows, the owner account with its profile and the
// initialized flag land together, or nothing does.
type Store interface {
	Initialized(ctx context.Context) (bool, error)
	Initialize(ctx context.Context, roles []role.Role, owner user.User, ownerProfile profile.Profile) error
}

// Controller is the one-shot state machine that seeds the role hierarchy and
// promotes the first account to OWNER. After the first success every further
// call is a no-op success.
type Controller struct {
	store Store
}

func NewController(store Store) *Controller {
	return &Controller{store: store}
}

// Initialize validates the owner password, then seeds USER=1, ADMIN=10,
// OWNER=999 and the owner account in a single transaction. The returned bool
// says whether this call actually performed the bootstrap.
func (c *Controller) Initialize(ctx context.Context, email, password string) (bool, error) {
	// Password policy is checked before touching state, including when the
	// system is already initialized.
	if violations := security.PolicyViolations(password); len(violations) > 0 {
		return false, &PolicyError{Violations: violations}
	}

	done, err := c.store.Initialized(ctx)

	if err != nil {
		return false, err
	}

	if done {
		return false, nil
	}

	hash, err := security.HashPassword(password)

	if err != nil {
		return false, err
	}

	now := time.Now().UTC()

	roles := []role.Role{
		{ID: uuid.NewString(), Name: role.NameUser, Value: role.ValueUser, Description: "Default user", CreatedAt: now, UpdatedAt: now},
		{ID: uuid.NewString(), Name: role.NameAdmin, Value: role.ValueAdmin, Description: "Administrator", CreatedAt: now, UpdatedAt: now},
		{ID: uuid.NewString(), Name: role.NameOwner, Value: role.ValueOwner, Description: "Resource owner", CreatedAt: now, UpdatedAt: now},
	}

	owner := user.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		Role:         role.NameOwner,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	ownerProfile := profile.Profile{
		ID:        uuid.NewString(),
		UserID:    owner.ID,
		Username:  usernameFromEmail(email),
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = c.store.Initialize(ctx, roles, owner, ownerProfile)

	if err != nil {
		return false, err
	}

	return true, nil
}

func usernameFromEmail(email string) string {
	local, _, found := strings.Cut(email, "@")
	if !found || local == "" {
		return email
	}

	return local
}
