package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/profilehub/profilehub/internal/domain/role"
	"github.com/profilehub/profilehub/internal/domain/user"
)

func (s *Store) GetUserByID(ctx context.Context, id string) (user.User, error) {
	var u user.User

	err := s.observe("users.get_by_id", func() error {
		return s.pool.QueryRow(ctx,
			`SELECT id, email, password_hash, role_name, created_at, updated_at
			 FROM users
			 WHERE id = $1`,
			id,
		).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}

		return user.User{}, err
	}

	return u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	var u user.User

	err := s.observe("users.get_by_email", func() error {
		return s.pool.QueryRow(ctx,
			`SELECT id, email, password_hash, role_name, created_at, updated_at
			 FROM users
			 WHERE email = $1`,
			email,
		).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}

		return user.User{}, err
	}

	return u, nil
}

func (s *Store) SetUserRole(ctx context.Context, userID, roleName string) error {
	var tag pgconn.CommandTag

	err := s.observe("users.set_role", func() error {
		var e error
		tag, e = s.pool.Exec(ctx,
			`UPDATE users SET role_name = $1, updated_at = $2 WHERE id = $3`,
			roleName, time.Now().UTC(), userID,
		)
		return e
	})

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return role.ErrNotFound
		}

		return err
	}

	if tag.RowsAffected() == 0 {
		return user.ErrNotFound
	}

	return nil
}
