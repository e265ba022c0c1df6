package bootstrap_test

import (
	"context"
	"errors"
	"testing"

	"github.com/profilehub/profilehub/internal/bootstrap"
	"github.com/profilehub/profilehub/internal/domain/profile"
	"github.com/profilehub/profilehub/internal/domain/role"
	"github.com/profilehub/profilehub/internal/domain/user"
	"github.com/profilehub/profilehub/internal/security"
)

type fakeBootstrapStore struct {
	initializedFn func(ctx context.Context) (bool, error)
	initializeFn  func(ctx context.Context, roles []role.Role, owner user.User, ownerProfile profile.Profile) error
}

func (f *fakeBootstrapStore) Initialized(ctx context.Context) (bool, error) {
	if f.initializedFn != nil {
		return f.initializedFn(ctx)
	}
	return false, nil
}

func (f *fakeBootstrapStore) Initialize(ctx context.Context, roles []role.Role, owner user.User, ownerProfile profile.Profile) error {
	if f.initializeFn != nil {
		return f.initializeFn(ctx, roles, owner, ownerProfile)
	}
	return nil
}

func TestInitializeSeedsHierarchyAndOwner(t *testing.T) {
	var (
		seededRoles  []role.Role
		seededOwner  user.User
		ownerProfile profile.Profile
	)

	store := &fakeBootstrapStore{
		initializeFn: func(ctx context.Context, roles []role.Role, owner user.User, p profile.Profile) error {
			seededRoles = roles
			seededOwner = owner
			ownerProfile = p
			return nil
		},
	}

	c := bootstrap.NewController(store)

	created, err := c.Initialize(context.Background(), "owner@example.com", "Aa1$bb")

	if err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	if !created {
		t.Fatal("first Initialize should report created=true")
	}

	wantValues := map[string]int{
		role.NameUser:  role.ValueUser,
		role.NameAdmin: role.ValueAdmin,
		role.NameOwner: role.ValueOwner,
	}

	if len(seededRoles) != len(wantValues) {
		t.Fatalf("seeded %d roles, want %d", len(seededRoles), len(wantValues))
	}

	for _, r := range seededRoles {
		want, ok := wantValues[r.Name]

		if !ok {
			t.Errorf("unexpected seeded role %q", r.Name)
			continue
		}

		if r.Value != want {
			t.Errorf("role %s value = %d, want %d", r.Name, r.Value, want)
		}
	}

	if seededOwner.Role != role.NameOwner {
		t.Errorf("owner role = %q, want %q", seededOwner.Role, role.NameOwner)
	}

	if err := security.CheckPassword(seededOwner.PasswordHash, "Aa1$bb"); err != nil {
		t.Error("owner password hash does not verify")
	}

	if ownerProfile.UserID != seededOwner.ID {
		t.Error("owner profile not linked to the owner account")
	}

	if ownerProfile.Username != "owner" {
		t.Errorf("owner profile username = %q, want local part of the email", ownerProfile.Username)
	}
}

func TestInitializeIsNoOpWhenDone(t *testing.T) {
	store := &fakeBootstrapStore{
		initializedFn: func(ctx context.Context) (bool, error) {
			return true, nil
		},
		initializeFn: func(ctx context.Context, roles []role.Role, owner user.User, p profile.Profile) error {
			t.Fatal("Initialize must not write when already done")
			return nil
		},
	}

	c := bootstrap.NewController(store)

	created, err := c.Initialize(context.Background(), "owner@example.com", "Aa1$bb")

	if err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	if created {
		t.Fatal("second Initialize should report created=false")
	}
}

func TestInitializePolicyCheckedFirst(t *testing.T) {
	store := &fakeBootstrapStore{
		initializedFn: func(ctx context.Context) (bool, error) {
			t.Fatal("state must not be consulted when the password fails policy")
			return false, nil
		},
	}

	c := bootstrap.NewController(store)

	_, err := c.Initialize(context.Background(), "owner@example.com", "abc")

	var policyErr *bootstrap.PolicyError

	if !errors.As(err, &policyErr) {
		t.Fatalf("want PolicyError, got %v", err)
	}

	// "abc" is short and misses upper, digit and special: four rules at once
	if len(policyErr.Violations) != 4 {
		t.Fatalf("got %d violations %v, want 4", len(policyErr.Violations), policyErr.Violations)
	}
}

func TestInitializePropagatesStoreError(t *testing.T) {
	storeErr := errors.New("db down")

	store := &fakeBootstrapStore{
		initializeFn: func(ctx context.Context, roles []role.Role, owner user.User, p profile.Profile) error {
			return storeErr
		},
	}

	c := bootstrap.NewController(store)

	created, err := c.Initialize(context.Background(), "owner@example.com", "Aa1$bb")

	if created || !errors.Is(err, storeErr) {
		t.Fatalf("got (%v, %v), want (false, store error)", created, err)
	}
}
