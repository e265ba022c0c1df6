package users_test

import (
	"context"
	"errors"
	"testing"

	"github.com/profilehub/profilehub/internal/access"
	"github.com/profilehub/profilehub/internal/domain/role"
	"github.com/profilehub/profilehub/internal/domain/user"
	"github.com/profilehub/profilehub/internal/users"
)

type fakeUserStore struct {
	getRoleFn    func(ctx context.Context, name string) (role.Role, error)
	getUserFn    func(ctx context.Context, id string) (user.User, error)
	setRoleFn    func(ctx context.Context, userID, roleName string) error
	setRoleCalls int
}

func (f *fakeUserStore) GetRoleByName(ctx context.Context, name string) (role.Role, error) {
	if f.getRoleFn != nil {
		return f.getRoleFn(ctx, name)
	}
	return role.Role{}, nil
}

func (f *fakeUserStore) GetUserByID(ctx context.Context, id string) (user.User, error) {
	if f.getUserFn != nil {
		return f.getUserFn(ctx, id)
	}
	return user.User{}, nil
}

func (f *fakeUserStore) SetUserRole(ctx context.Context, userID, roleName string) error {
	f.setRoleCalls++
	if f.setRoleFn != nil {
		return f.setRoleFn(ctx, userID, roleName)
	}
	return nil
}

func TestAssignRole(t *testing.T) {
	adminActor := access.Actor{UserID: "u-admin", RoleName: role.NameAdmin, RoleValue: role.ValueAdmin}

	tests := []struct {
		name      string
		actor     access.Actor
		roleValue int
		wantErr   error
		wantCalls int
	}{
		{name: "admin_assigns_lower_role", actor: adminActor, roleValue: 1, wantErr: nil, wantCalls: 1},
		{name: "admin_denied_own_rank", actor: adminActor, roleValue: 10, wantErr: access.ErrForbidden},
		{name: "admin_denied_higher_rank", actor: adminActor, roleValue: 999, wantErr: access.ErrForbidden},
		{name: "user_denied_below_minimum", actor: access.Actor{RoleValue: 1}, roleValue: 1, wantErr: access.ErrForbidden},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			store := &fakeUserStore{
				getRoleFn: func(ctx context.Context, name string) (role.Role, error) {
					return role.Role{Name: name, Value: tt.roleValue}, nil
				},
				getUserFn: func(ctx context.Context, id string) (user.User, error) {
					return user.User{ID: id, Email: "target@example.com", Role: role.NameUser}, nil
				},
			}

			svc := users.NewService(store, 10, nil)

			updated, err := svc.AssignRole(context.Background(), tt.actor, user.AssignRoleRequest{
				UserID:   "u-target",
				RoleName: "SOMETHING",
			})

			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}

			if store.setRoleCalls != tt.wantCalls {
				t.Fatalf("SetUserRole called %d times, want %d", store.setRoleCalls, tt.wantCalls)
			}

			if tt.wantErr == nil && updated.Role != "SOMETHING" {
				t.Fatalf("returned user role = %q, want the assigned role", updated.Role)
			}
		})
	}
}

func TestAssignRoleUnknownRole(t *testing.T) {
	store := &fakeUserStore{
		getRoleFn: func(ctx context.Context, name string) (role.Role, error) {
			return role.Role{}, role.ErrNotFound
		},
	}

	svc := users.NewService(store, 10, nil)

	_, err := svc.AssignRole(context.Background(), access.Actor{RoleValue: 999}, user.AssignRoleRequest{
		UserID:   "u-target",
		RoleName: "GHOST",
	})

	if !errors.Is(err, role.ErrNotFound) {
		t.Fatalf("err = %v, want role.ErrNotFound", err)
	}
}

func TestAssignRoleUnknownUser(t *testing.T) {
	store := &fakeUserStore{
		getRoleFn: func(ctx context.Context, name string) (role.Role, error) {
			return role.Role{Name: name, Value: 1}, nil
		},
		getUserFn: func(ctx context.Context, id string) (user.User, error) {
			return user.User{}, user.ErrNotFound
		},
	}

	svc := users.NewService(store, 10, nil)

	_, err := svc.AssignRole(context.Background(), access.Actor{RoleValue: 999}, user.AssignRoleRequest{
		UserID:   "nobody",
		RoleName: role.NameUser,
	})

	if !errors.Is(err, user.ErrNotFound) {
		t.Fatalf("err = %v, want user.ErrNotFound", err)
	}
}
